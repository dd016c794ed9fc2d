// Package events handles event emission for review decisions
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/justin-dews/data-matcher-sub001/pkg/kafka"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

// Emitter publishes learning lifecycle events to the event stream. Every
// event carries kafka.SchemaVersion in its headers.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// DecisionRecorded emits an event for a recorded review decision.
func (e *Emitter) DecisionRecorded(ctx context.Context, decision *models.MatchDecision) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.DecisionRecorded")
	defer span.End()

	eventType := "decision.rejected"
	if decision.Decision == models.DecisionApproved {
		eventType = "decision.approved"
	}

	event := &kafka.DecisionEvent{
		EventType:      eventType,
		TenantID:       decision.TenantID,
		DecisionID:     decision.ID,
		EntryID:        decision.EntryID,
		QueryText:      decision.QueryText,
		NormalizedText: decision.NormalizedText,
		FinalScore:     decision.FinalScore,
		Tier:           decision.Tier,
		Decision:       decision.Decision,
		Reviewer:       decision.Reviewer,
	}

	if err := e.producer.PublishDecisionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit decision event")
		return err
	}

	return nil
}

// AliasLearned emits an event when an approval writes a competitor alias.
func (e *Emitter) AliasLearned(ctx context.Context, alias *models.CompetitorAlias) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.AliasLearned")
	defer span.End()

	event := &kafka.AliasEvent{
		EventType:      "alias.learned",
		TenantID:       alias.TenantID,
		AliasID:        alias.ID,
		EntryID:        alias.EntryID,
		NormalizedName: alias.NormalizedName,
		Confidence:     alias.Confidence,
		Source:         alias.Source,
	}

	if err := e.producer.PublishAliasEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit alias event")
		return err
	}

	return nil
}
