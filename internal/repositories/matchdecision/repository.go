// Package matchdecision persists the audit trail of human review decisions.
package matchdecision

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/justin-dews/data-matcher-sub001/pkg/database"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

var columns = []string{"id", "tenant_id", "query_text", "normalized_text", "entry_id", "decision", "final_score", "scores", "tier", "reviewer", "created_at"}

// Repository handles match decision persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match decision repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert appends a decision to the audit trail. Decisions are append-only;
// a reviewer changing their mind produces a second row, not an update.
func (r *Repository) Insert(ctx context.Context, decision *models.MatchDecision) (*models.MatchDecision, error) {
	ctx, span := tracing.StartSpan(ctx, "matchdecision.Repository.Insert")
	defer span.End()

	if decision.ID == "" {
		decision.ID = uuid.New().String()
	}
	decision.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("match_decisions")
	sb.Cols(columns...)
	sb.Values(decision.ID, decision.TenantID, decision.QueryText, decision.NormalizedText, decision.EntryID, decision.Decision, decision.FinalScore, decision.Scores, decision.Tier, decision.Reviewer, decision.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entry_id": decision.EntryID}).Error("Failed to insert match decision")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record match decision")
	}

	return decision, nil
}

// List retrieves decisions for a tenant, newest first. entryID and outcome
// are optional filters.
func (r *Repository) List(ctx context.Context, tenantID string, entryID string, outcome string, limit, offset int) ([]models.MatchDecision, error) {
	ctx, span := tracing.StartSpan(ctx, "matchdecision.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("match_decisions")

	where := []string{sb.Equal("tenant_id", tenantID)}
	if entryID != "" {
		where = append(where, sb.Equal("entry_id", entryID))
	}
	if outcome != "" {
		where = append(where, sb.Equal("decision", outcome))
	}
	sb.Where(where...)
	sb.OrderBy("created_at DESC", "id ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var decisions []models.MatchDecision
	if err := r.db.SelectContext(ctx, &decisions, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match decisions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match decisions")
	}

	return decisions, nil
}
