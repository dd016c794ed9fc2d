// Package competitoralias persists learned literal mappings from competitor
// part strings to catalog entries.
package competitoralias

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/justin-dews/data-matcher-sub001/pkg/database"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

var columns = []string{"id", "tenant_id", "normalized_name", "entry_id", "confidence", "source", "created_by", "created_at", "updated_at"}

var aliasStruct = database.NewStruct(new(models.CompetitorAlias))

// Repository handles competitor alias persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new competitor alias repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert records an alias. Aliases are keyed by (tenant_id, normalized_name,
// entry_id); confidence only ratchets upward so a weak later approval cannot
// erode a strong earlier one.
func (r *Repository) Upsert(ctx context.Context, alias *models.CompetitorAlias) (*models.CompetitorAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "competitoralias.Repository.Upsert")
	defer span.End()

	if alias.ID == "" {
		alias.ID = uuid.New().String()
	}
	if alias.Source == "" {
		alias.Source = models.AliasSourceLearned
	}
	now := time.Now().UTC()
	alias.CreatedAt = now
	alias.UpdatedAt = now

	ib := aliasStruct.InsertInto("competitor_aliases", alias)
	ub := ib.OnConflict("tenant_id", "normalized_name", "entry_id")
	ub.Set(
		ub.Assign("confidence", sqlbuilder.Raw("GREATEST(competitor_aliases.confidence, EXCLUDED.confidence)")),
		ub.Assign("updated_at", database.Excluded("updated_at")),
	)

	query, args := ib.Build()
	query += " RETURNING id, confidence, source, created_at"

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&alias.ID, &alias.Confidence, &alias.Source, &alias.CreatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entry_id": alias.EntryID}).Error("Failed to upsert competitor alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert competitor alias")
	}

	return alias, nil
}

// ForEntries loads all aliases pointing at the given catalog entries, keyed
// by entry ID.
func (r *Repository) ForEntries(ctx context.Context, tenantID string, entryIDs []string) (map[string][]models.CompetitorAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "competitoralias.Repository.ForEntries")
	defer span.End()

	if len(entryIDs) == 0 {
		return map[string][]models.CompetitorAlias{}, nil
	}

	query, args, err := sqlx.In(`
	  SELECT id, tenant_id, normalized_name, entry_id, confidence, source, created_by, created_at, updated_at
	  FROM competitor_aliases
	  WHERE tenant_id = ? AND entry_id IN (?)
	`, tenantID, entryIDs)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to build alias query")
	}
	query = r.db.Unsafe().Rebind(query)

	var aliases []models.CompetitorAlias
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load competitor aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load competitor aliases")
	}

	byEntry := make(map[string][]models.CompetitorAlias, len(aliases))
	for _, a := range aliases {
		byEntry[a.EntryID] = append(byEntry[a.EntryID], a)
	}
	return byEntry, nil
}

// EntriesForName returns IDs of entries with an alias resembling the given
// normalized competitor string. The similarity floor is deliberately loose;
// the caller rescores the full entries anyway.
func (r *Repository) EntriesForName(ctx context.Context, tenantID, normalizedQuery string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "competitoralias.Repository.EntriesForName")
	defer span.End()

	query := `
	  SELECT DISTINCT entry_id
	  FROM competitor_aliases
	  WHERE tenant_id = $1 AND similarity(normalized_name, $2) > 0.3
	  LIMIT 100
	`

	var entryIDs []string
	if err := r.db.SelectContext(ctx, &entryIDs, query, tenantID, normalizedQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to search competitor aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search competitor aliases")
	}

	return entryIDs, nil
}

// List retrieves aliases for a tenant, optionally filtered by entry.
func (r *Repository) List(ctx context.Context, tenantID string, entryID string, limit, offset int) ([]models.CompetitorAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "competitoralias.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("competitor_aliases")

	where := []string{sb.Equal("tenant_id", tenantID)}
	if entryID != "" {
		where = append(where, sb.Equal("entry_id", entryID))
	}
	sb.Where(where...)
	sb.OrderBy("confidence DESC", "id ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var aliases []models.CompetitorAlias
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list competitor aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list competitor aliases")
	}

	return aliases, nil
}

// Delete removes an alias
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "competitoralias.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("competitor_aliases")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete competitor alias")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete competitor alias")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "competitor alias not found")
	}

	return nil
}
