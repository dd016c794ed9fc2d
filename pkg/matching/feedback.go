package matching

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/justin-dews/data-matcher-sub001/pkg/database"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/normalize"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

// DecisionStore persists the audit trail of review decisions.
type DecisionStore interface {
	Insert(ctx context.Context, decision *models.MatchDecision) (*models.MatchDecision, error)
}

// DecisionNotifier publishes review decisions and learned aliases to
// downstream consumers.
type DecisionNotifier interface {
	DecisionRecorded(ctx context.Context, decision *models.MatchDecision) error
	AliasLearned(ctx context.Context, alias *models.CompetitorAlias) error
}

// MatchProjector mirrors approved matches into the graph store.
type MatchProjector interface {
	ProjectApprovedMatch(ctx context.Context, tenantID, competitorText, entryID string, confidence float64) error
}

// DecisionRequest captures one human review action on a candidate match.
type DecisionRequest struct {
	QueryText string                 `json:"query_text" validate:"required"`
	EntryID   string                 `json:"entry_id" validate:"required"`
	Decision  models.DecisionOutcome `json:"decision" validate:"required,oneof=approved rejected"`
	Reviewer  string                 `json:"reviewer" validate:"required"`

	// Scores from the reviewed candidate, used to seed the training
	// example's confidence and quality on approval.
	FinalScore float64             `json:"final_score" validate:"gte=0,lte=1"`
	Scores     models.SignalScores `json:"scores"`
	Tier       models.MatchTier    `json:"tier"`
}

// FeedbackService closes the learning loop: approved decisions become
// training examples and competitor aliases, rejected decisions are recorded
// for audit only. No negative example is ever written.
type FeedbackService struct {
	logger    ectologger.Logger
	training  TrainingStore
	aliases   AliasStore
	decisions DecisionStore
	notifier  DecisionNotifier
	projector MatchProjector
}

// NewFeedbackService creates a new feedback service. notifier and projector
// are optional; pass nil to disable eventing or graph projection.
func NewFeedbackService(
	logger ectologger.Logger,
	training TrainingStore,
	aliases AliasStore,
	decisions DecisionStore,
	notifier DecisionNotifier,
	projector MatchProjector,
) *FeedbackService {
	return &FeedbackService{
		logger:    logger,
		training:  training,
		aliases:   aliases,
		decisions: decisions,
		notifier:  notifier,
		projector: projector,
	}
}

// RecordDecision records a reviewer's verdict. The training upsert is keyed
// by (normalized text, entry id) and is atomic, so concurrent approvals of
// the same pair converge on one example instead of erroring.
func (s *FeedbackService) RecordDecision(ctx context.Context, tenantID string, req DecisionRequest) (*models.MatchDecision, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.FeedbackService.RecordDecision")
	defer span.End()

	normalized := normalize.Text(req.QueryText)
	if normalized == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "query_text must not be blank")
	}
	if req.Decision != models.DecisionApproved && req.Decision != models.DecisionRejected {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "decision must be approved or rejected")
	}
	// The score seeds training and alias confidence, which must stay in [0,1].
	req.FinalScore = clampScore(req.FinalScore)

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"entry_id":  req.EntryID,
		"decision":  req.Decision,
	})

	decision := &models.MatchDecision{
		TenantID:       tenantID,
		QueryText:      req.QueryText,
		NormalizedText: normalized,
		EntryID:        req.EntryID,
		Decision:       req.Decision,
		FinalScore:     req.FinalScore,
		Scores:         database.NewJSONB(req.Scores),
		Tier:           req.Tier,
		Reviewer:       req.Reviewer,
	}

	decision, err := s.decisions.Insert(ctx, decision)
	if err != nil {
		return nil, err
	}

	if req.Decision == models.DecisionApproved {
		if err := s.learnFromApproval(ctx, tenantID, normalized, req); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		if err := s.notifier.DecisionRecorded(ctx, decision); err != nil {
			log.WithError(err).Warn("Failed to publish decision event")
		}
	}

	log.Info("Recorded match decision")
	return decision, nil
}

func (s *FeedbackService) learnFromApproval(ctx context.Context, tenantID, normalized string, req DecisionRequest) error {
	ctx, span := tracing.StartSpan(ctx, "matching.FeedbackService.learnFromApproval")
	defer span.End()

	example := &models.TrainingExample{
		TenantID:       tenantID,
		NormalizedText: normalized,
		EntryID:        req.EntryID,
		Scores:         database.NewJSONB(req.Scores),
		Quality:        models.QualityForScore(req.FinalScore),
		Confidence:     req.FinalScore,
		Weight:         1.0,
		ApprovedBy:     req.Reviewer,
	}

	if _, err := s.training.Upsert(ctx, example); err != nil {
		return err
	}

	alias := &models.CompetitorAlias{
		TenantID:       tenantID,
		NormalizedName: normalized,
		EntryID:        req.EntryID,
		Confidence:     req.FinalScore,
		Source:         models.AliasSourceLearned,
		CreatedBy:      req.Reviewer,
	}
	alias, err := s.aliases.Upsert(ctx, alias)
	if err != nil {
		return err
	}

	if s.notifier != nil {
		// Eventing is best effort; a broker outage must not undo learning.
		if err := s.notifier.AliasLearned(ctx, alias); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish alias event")
		}
	}

	if s.projector != nil {
		// Graph projection is a derived view; losing one write is
		// recoverable and must not fail the approval.
		if err := s.projector.ProjectApprovedMatch(ctx, tenantID, normalized, req.EntryID, req.FinalScore); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to project approved match to graph")
		}
	}

	return nil
}
