// Package trainingexample persists human-approved (query, entry) pairs that
// the engine consults before falling back to algorithmic scoring.
package trainingexample

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

// candidateWindow bounds how far back SimilarExamples looks. Examples older
// than this never influence a match, even before age decay zeroes them out.
const candidateWindowMonths = 6

// similarityFloor sheds obviously unrelated examples in SQL. The engine
// recomputes similarity in memory, so this only needs to be loose.
const similarityFloor = 0.15

var columns = []string{"id", "tenant_id", "normalized_text", "entry_id", "scores", "quality", "confidence", "weight", "approved_by", "approved_at", "reference_count", "last_referenced_at", "created_at", "updated_at"}

// Repository handles training example persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new training example repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert records an approval. The row is keyed by (tenant_id,
// normalized_text, entry_id); re-approving the same pair refreshes
// confidence, quality and the approval timestamp instead of adding a
// duplicate. The whole operation is one statement, so concurrent approvals
// cannot half-apply.
func (r *Repository) Upsert(ctx context.Context, example *models.TrainingExample) (*models.TrainingExample, error) {
	ctx, span := tracing.StartSpan(ctx, "trainingexample.Repository.Upsert")
	defer span.End()

	if example.ID == "" {
		example.ID = uuid.New().String()
	}
	if example.Weight <= 0 {
		example.Weight = 1.0
	}
	now := time.Now().UTC()
	example.ApprovedAt = now
	example.CreatedAt = now
	example.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("training_examples")
	sb.Cols("id", "tenant_id", "normalized_text", "entry_id", "scores", "quality", "confidence", "weight", "approved_by", "approved_at", "created_at", "updated_at")
	sb.Values(example.ID, example.TenantID, example.NormalizedText, example.EntryID, example.Scores, example.Quality, example.Confidence, example.Weight, example.ApprovedBy, example.ApprovedAt, example.CreatedAt, example.UpdatedAt)

	query, args := sb.Build()
	query += ` ON CONFLICT (tenant_id, normalized_text, entry_id) DO UPDATE SET
		scores = EXCLUDED.scores,
		quality = EXCLUDED.quality,
		confidence = EXCLUDED.confidence,
		approved_by = EXCLUDED.approved_by,
		approved_at = EXCLUDED.approved_at,
		updated_at = EXCLUDED.updated_at
		RETURNING id, weight, reference_count, created_at`

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&example.ID, &example.Weight, &example.ReferenceCount, &example.CreatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entry_id": example.EntryID}).Error("Failed to upsert training example")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert training example")
	}

	return example, nil
}

// SimilarExamples returns candidate examples for a normalized query. Only
// excellent and good quality examples inside the rolling window qualify;
// fair and poor examples are retained for audit but never score.
func (r *Repository) SimilarExamples(ctx context.Context, tenantID string, normalizedQuery string) ([]models.TrainingExample, error) {
	ctx, span := tracing.StartSpan(ctx, "trainingexample.Repository.SimilarExamples")
	defer span.End()

	cutoff := time.Now().UTC().AddDate(0, -candidateWindowMonths, 0)

	query := `
	  SELECT id, tenant_id, normalized_text, entry_id, scores, quality, confidence, weight,
			 approved_by, approved_at, reference_count, last_referenced_at, created_at, updated_at
	  FROM training_examples
	  WHERE tenant_id = $1
		AND quality IN ('excellent', 'good')
		AND approved_at >= $2
		AND similarity(normalized_text, $3) > $4
	  ORDER BY similarity(normalized_text, $3) DESC, id ASC
	`

	var examples []models.TrainingExample
	if err := r.db.SelectContext(ctx, &examples, query, tenantID, cutoff, normalizedQuery, similarityFloor); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to query similar training examples")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query training examples")
	}

	return examples, nil
}

// TouchReferences bumps the usage counters on examples that just influenced
// a match result.
func (r *Repository) TouchReferences(ctx context.Context, tenantID string, exampleIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "trainingexample.Repository.TouchReferences")
	defer span.End()

	if len(exampleIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
	  UPDATE training_examples
	  SET reference_count = reference_count + 1, last_referenced_at = NOW()
	  WHERE tenant_id = ? AND id IN (?)
	`, tenantID, exampleIDs)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to build reference update")
	}
	query = r.db.Unsafe().Rebind(query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update training reference counters")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update reference counters")
	}

	return nil
}

// SetWeight adjusts the manual weight multiplier on an example.
func (r *Repository) SetWeight(ctx context.Context, tenantID string, id string, weight float64) error {
	ctx, span := tracing.StartSpan(ctx, "trainingexample.Repository.SetWeight")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("training_examples")
	sb.Set(
		sb.Assign("weight", weight),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update training example weight")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update training example weight")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "training example not found")
	}

	return nil
}

// List retrieves training examples for a tenant, most recently approved first.
func (r *Repository) List(ctx context.Context, tenantID string, quality string, limit, offset int) ([]models.TrainingExample, error) {
	ctx, span := tracing.StartSpan(ctx, "trainingexample.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("training_examples")

	where := []string{sb.Equal("tenant_id", tenantID)}
	if quality != "" {
		where = append(where, sb.Equal("quality", quality))
	}
	sb.Where(where...)
	sb.OrderBy("approved_at DESC", "id ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var examples []models.TrainingExample
	if err := r.db.SelectContext(ctx, &examples, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list training examples")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list training examples")
	}

	return examples, nil
}

// Delete removes a training example
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "trainingexample.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("training_examples")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete training example")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete training example")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "training example not found")
	}

	return nil
}
