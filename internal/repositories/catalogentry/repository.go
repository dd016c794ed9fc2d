// Package catalogentry persists the internal product catalog the matcher
// resolves against.
package catalogentry

import (
	"context"
	"fmt"
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

// prefilterFloor is deliberately far below any usable match threshold so
// trigram prefiltering only sheds noise, never real candidates.
const prefilterFloor = 0.05

var columns = []string{"id", "tenant_id", "sku", "name", "manufacturer", "category", "embedding", "created_at", "updated_at"}

// Repository handles catalog entry persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new catalog entry repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts a catalog entry or refreshes an existing one. Entries are
// keyed by (tenant_id, sku) so re-syncs from the catalog stream are idempotent.
func (r *Repository) Upsert(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalogentry.Repository.Upsert")
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("catalog_entries")
	sb.Cols(columns...)
	sb.Values(entry.ID, entry.TenantID, entry.SKU, entry.Name, entry.Manufacturer, entry.Category, entry.Embedding, entry.CreatedAt, entry.UpdatedAt)

	query, args := sb.Build()
	query += ` ON CONFLICT (tenant_id, sku) DO UPDATE SET
		name = EXCLUDED.name,
		manufacturer = EXCLUDED.manufacturer,
		category = EXCLUDED.category,
		embedding = COALESCE(EXCLUDED.embedding, catalog_entries.embedding),
		updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"sku": entry.SKU}).Error("Failed to upsert catalog entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert catalog entry")
	}

	return entry, nil
}

// Get retrieves a catalog entry by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.CatalogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalogentry.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("catalog_entries")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var entry models.CatalogEntry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("catalog entry %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get catalog entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog entry")
	}

	return &entry, nil
}

// GetBySKU retrieves a catalog entry by its SKU
func (r *Repository) GetBySKU(ctx context.Context, tenantID string, sku string) (*models.CatalogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalogentry.Repository.GetBySKU")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("catalog_entries")
	sb.Where(
		sb.Equal("sku", sku),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var entry models.CatalogEntry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("catalog entry with sku %s not found", sku))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get catalog entry by sku")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog entry")
	}

	return &entry, nil
}

// GetByIDs retrieves catalog entries in bulk. Missing IDs are silently
// omitted from the result.
func (r *Repository) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]models.CatalogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalogentry.Repository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
	  SELECT id, tenant_id, sku, name, manufacturer, category, embedding, created_at, updated_at
	  FROM catalog_entries
	  WHERE tenant_id = ? AND id IN (?)
	`, tenantID, ids)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to build catalog entry query")
	}
	query = r.db.Unsafe().Rebind(query)

	var entries []models.CatalogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get catalog entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog entries")
	}

	return entries, nil
}

// Prefilter returns the entries trigram-closest to the normalized query,
// bounded by limit. The floor is loose on purpose: in-memory scoring makes
// the real threshold call, this query only keeps the candidate set small.
func (r *Repository) Prefilter(ctx context.Context, tenantID string, normalizedQuery string, limit int) ([]models.CatalogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalogentry.Repository.Prefilter")
	defer span.End()

	query := `
	  SELECT id, tenant_id, sku, name, manufacturer, category, embedding, created_at, updated_at,
			 GREATEST(
			   similarity(lower(name), $2),
			   similarity(lower(sku), $2),
			   similarity(lower(COALESCE(manufacturer, '')), $2)
			 ) AS sim
	  FROM catalog_entries
	  WHERE tenant_id = $1
		AND GREATEST(
			  similarity(lower(name), $2),
			  similarity(lower(sku), $2),
			  similarity(lower(COALESCE(manufacturer, '')), $2)
			) > $3
	  ORDER BY sim DESC, id ASC
	  LIMIT $4
	`

	type row struct {
		models.CatalogEntry
		Sim float64 `db:"sim"`
	}

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, normalizedQuery, prefilterFloor, limit); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to prefilter catalog entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to prefilter catalog entries")
	}

	entries := make([]models.CatalogEntry, 0, len(rows))
	for _, rw := range rows {
		entries = append(entries, rw.CatalogEntry)
	}
	return entries, nil
}

// List retrieves catalog entries for a tenant with pagination
func (r *Repository) List(ctx context.Context, tenantID string, limit, offset int) ([]models.CatalogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalogentry.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("catalog_entries")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("sku ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var entries []models.CatalogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list catalog entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list catalog entries")
	}

	return entries, nil
}

// Delete removes a catalog entry together with the training examples and
// aliases learned from it, in one transaction. Match decisions are kept;
// the audit trail outlives the entry.
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "catalogentry.Repository.Delete")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"training_examples", "competitor_aliases"} {
		sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
		sb.DeleteFrom(table)
		sb.Where(
			sb.Equal("entry_id", id),
			sb.Equal("tenant_id", tenantID),
		)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"entry_id": id,
				"table":    table,
			}).Error("Failed to delete derived rows for catalog entry")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete catalog entry")
		}
	}

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("catalog_entries")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete catalog entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete catalog entry")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("catalog entry %s not found", id))
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit catalog entry delete")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete catalog entry")
	}

	return nil
}
