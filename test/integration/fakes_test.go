package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/justin-dews/data-matcher-sub001/pkg/models"
)

const testTenant = "test-tenant"

func floatPtr(v float64) *float64 { return &v }

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func entry(id, sku, name string) models.CatalogEntry {
	return models.CatalogEntry{
		ID:       id,
		TenantID: testTenant,
		SKU:      sku,
		Name:     name,
	}
}

type fakeCatalog struct {
	entries []models.CatalogEntry
}

func (f *fakeCatalog) Prefilter(_ context.Context, tenantID, _ string, limit int) ([]models.CatalogEntry, error) {
	out := make([]models.CatalogEntry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetByIDs(_ context.Context, tenantID string, ids []string) ([]models.CatalogEntry, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.CatalogEntry
	for _, e := range f.entries {
		if _, ok := want[e.ID]; ok && e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeTraining struct {
	examples []models.TrainingExample
}

func (f *fakeTraining) SimilarExamples(_ context.Context, tenantID, _ string) ([]models.TrainingExample, error) {
	cutoff := time.Now().UTC().AddDate(0, -6, 0)
	var out []models.TrainingExample
	for _, ex := range f.examples {
		if ex.TenantID != tenantID {
			continue
		}
		if ex.Quality != models.TrainingQualityExcellent && ex.Quality != models.TrainingQualityGood {
			continue
		}
		if ex.ApprovedAt.Before(cutoff) {
			continue
		}
		out = append(out, ex)
	}
	return out, nil
}

func (f *fakeTraining) TouchReferences(_ context.Context, _ string, _ []string) error {
	return nil
}

func (f *fakeTraining) Upsert(_ context.Context, ex *models.TrainingExample) (*models.TrainingExample, error) {
	for i := range f.examples {
		if f.examples[i].TenantID == ex.TenantID &&
			f.examples[i].NormalizedText == ex.NormalizedText &&
			f.examples[i].EntryID == ex.EntryID {
			f.examples[i].Confidence = ex.Confidence
			f.examples[i].Quality = ex.Quality
			f.examples[i].ApprovedAt = time.Now().UTC()
			return &f.examples[i], nil
		}
	}
	ex.ID = fmt.Sprintf("ex-%d", len(f.examples)+1)
	ex.Weight = 1.0
	ex.ApprovedAt = time.Now().UTC()
	f.examples = append(f.examples, *ex)
	return ex, nil
}

type fakeAliases struct {
	aliases []models.CompetitorAlias
}

func (f *fakeAliases) ForEntries(_ context.Context, tenantID string, entryIDs []string) (map[string][]models.CompetitorAlias, error) {
	want := make(map[string]struct{}, len(entryIDs))
	for _, id := range entryIDs {
		want[id] = struct{}{}
	}
	out := make(map[string][]models.CompetitorAlias)
	for _, a := range f.aliases {
		if _, ok := want[a.EntryID]; ok && a.TenantID == tenantID {
			out[a.EntryID] = append(out[a.EntryID], a)
		}
	}
	return out, nil
}

func (f *fakeAliases) EntriesForName(_ context.Context, tenantID, normalizedQuery string) ([]string, error) {
	var ids []string
	for _, a := range f.aliases {
		if a.TenantID == tenantID && a.NormalizedName == normalizedQuery {
			ids = append(ids, a.EntryID)
		}
	}
	return ids, nil
}

func (f *fakeAliases) Upsert(_ context.Context, alias *models.CompetitorAlias) (*models.CompetitorAlias, error) {
	for i := range f.aliases {
		if f.aliases[i].TenantID == alias.TenantID &&
			f.aliases[i].NormalizedName == alias.NormalizedName &&
			f.aliases[i].EntryID == alias.EntryID {
			if alias.Confidence > f.aliases[i].Confidence {
				f.aliases[i].Confidence = alias.Confidence
			}
			return &f.aliases[i], nil
		}
	}
	alias.ID = fmt.Sprintf("al-%d", len(f.aliases)+1)
	f.aliases = append(f.aliases, *alias)
	return alias, nil
}

type fakeDecisions struct {
	inserted []models.MatchDecision
}

func (f *fakeDecisions) Insert(_ context.Context, d *models.MatchDecision) (*models.MatchDecision, error) {
	d.ID = fmt.Sprintf("dec-%d", len(f.inserted)+1)
	d.CreatedAt = time.Now().UTC()
	f.inserted = append(f.inserted, *d)
	return d, nil
}
