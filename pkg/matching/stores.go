package matching

import (
	"context"

	"github.com/justin-dews/data-matcher-sub001/pkg/models"
)

// CatalogStore provides read-only access to the catalog snapshot. The
// Prefilter query is index-backed (pg_trgm) and deliberately looser than
// any final threshold so it never drops an entry that could still clear
// the bar on signals the index cannot see, like alias-only matches.
type CatalogStore interface {
	Prefilter(ctx context.Context, tenantID, normalizedQuery string, limit int) ([]models.CatalogEntry, error)
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]models.CatalogEntry, error)
}

// TrainingStore provides access to the approved training corpus.
// SimilarExamples returns only qualifying examples: quality excellent or
// good, approved inside the rolling window, roughly similar to the query.
type TrainingStore interface {
	SimilarExamples(ctx context.Context, tenantID, normalizedQuery string) ([]models.TrainingExample, error)
	TouchReferences(ctx context.Context, tenantID string, exampleIDs []string) error
	Upsert(ctx context.Context, example *models.TrainingExample) (*models.TrainingExample, error)
}

// AliasStore provides access to learned competitor aliases. EntriesForName
// returns the IDs of entries whose alias resembles the normalized query; it
// widens the candidate set so an alias-only match is found even when the
// entry's own name shares nothing with the query.
type AliasStore interface {
	ForEntries(ctx context.Context, tenantID string, entryIDs []string) (map[string][]models.CompetitorAlias, error)
	EntriesForName(ctx context.Context, tenantID, normalizedQuery string) ([]string, error)
	Upsert(ctx context.Context, alias *models.CompetitorAlias) (*models.CompetitorAlias, error)
}
