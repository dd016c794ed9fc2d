package matching

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin-dews/data-matcher-sub001/pkg/models"
)

type fakeDecisions struct {
	inserted []models.MatchDecision
}

func (f *fakeDecisions) Insert(_ context.Context, d *models.MatchDecision) (*models.MatchDecision, error) {
	d.ID = fmt.Sprintf("dec-%d", len(f.inserted)+1)
	f.inserted = append(f.inserted, *d)
	return d, nil
}

type fakeNotifier struct {
	recorded []models.MatchDecision
	learned  []models.CompetitorAlias
	err      error
}

func (f *fakeNotifier) DecisionRecorded(_ context.Context, d *models.MatchDecision) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, *d)
	return nil
}

func (f *fakeNotifier) AliasLearned(_ context.Context, a *models.CompetitorAlias) error {
	if f.err != nil {
		return f.err
	}
	f.learned = append(f.learned, *a)
	return nil
}

type fakeProjector struct {
	projected int
	err       error
}

func (f *fakeProjector) ProjectApprovedMatch(_ context.Context, _, _, _ string, _ float64) error {
	if f.err != nil {
		return f.err
	}
	f.projected++
	return nil
}

func approvalRequest(score float64) DecisionRequest {
	return DecisionRequest{
		QueryText:  "GR. 8 HX HD CAP SCR 5/16-18X2-1/2",
		EntryID:    "56X212C8",
		Decision:   models.DecisionApproved,
		Reviewer:   "reviewer@example.com",
		FinalScore: score,
		Scores:     models.SignalScores{Trigram: 0.91, Fuzzy: 0.88},
		Tier:       models.MatchTierAlgorithmic,
	}
}

func TestFeedbackService_RecordDecision(t *testing.T) {
	t.Run("ApprovalCreatesTrainingExampleAndAlias", func(t *testing.T) {
		training := &fakeTraining{}
		aliases := &fakeAliases{}
		decisions := &fakeDecisions{}
		notifier := &fakeNotifier{}
		projector := &fakeProjector{}

		svc := NewFeedbackService(noopLogger(), training, aliases, decisions, notifier, projector)
		decision, err := svc.RecordDecision(context.Background(), testTenant, approvalRequest(0.92))
		require.NoError(t, err)
		require.NotNil(t, decision)

		require.Len(t, training.examples, 1)
		ex := training.examples[0]
		assert.Equal(t, "grade 8 hex head cap screw 5/16 18x2 1/2", ex.NormalizedText)
		assert.Equal(t, "56X212C8", ex.EntryID)
		assert.Equal(t, models.TrainingQualityExcellent, ex.Quality)
		assert.Equal(t, 0.92, ex.Confidence)
		assert.Equal(t, 1.0, ex.Weight)

		require.Len(t, aliases.aliases, 1)
		assert.Equal(t, ex.NormalizedText, aliases.aliases[0].NormalizedName)
		assert.Equal(t, models.AliasSourceLearned, aliases.aliases[0].Source)

		require.Len(t, decisions.inserted, 1)
		assert.Equal(t, models.DecisionApproved, decisions.inserted[0].Decision)
		assert.Len(t, notifier.recorded, 1)
		require.Len(t, notifier.learned, 1)
		assert.Equal(t, ex.NormalizedText, notifier.learned[0].NormalizedName)
		assert.Equal(t, "56X212C8", notifier.learned[0].EntryID)
		assert.Equal(t, 1, projector.projected)
	})

	t.Run("QualityBands", func(t *testing.T) {
		for _, tc := range []struct {
			score   float64
			quality models.TrainingQuality
		}{
			{0.95, models.TrainingQualityExcellent},
			{0.9, models.TrainingQualityExcellent},
			{0.75, models.TrainingQualityGood},
			{0.5, models.TrainingQualityFair},
		} {
			training := &fakeTraining{}
			svc := NewFeedbackService(noopLogger(), training, &fakeAliases{}, &fakeDecisions{}, nil, nil)

			_, err := svc.RecordDecision(context.Background(), testTenant, approvalRequest(tc.score))
			require.NoError(t, err)
			require.Len(t, training.examples, 1)
			assert.Equal(t, tc.quality, training.examples[0].Quality, "score %.2f", tc.score)
		}
	})

	t.Run("OutOfRangeScoreClamped", func(t *testing.T) {
		training := &fakeTraining{}
		aliases := &fakeAliases{}
		decisions := &fakeDecisions{}
		svc := NewFeedbackService(noopLogger(), training, aliases, decisions, nil, nil)

		_, err := svc.RecordDecision(context.Background(), testTenant, approvalRequest(1.5))
		require.NoError(t, err)
		require.Len(t, training.examples, 1)
		assert.Equal(t, 1.0, training.examples[0].Confidence)
		require.Len(t, aliases.aliases, 1)
		assert.Equal(t, 1.0, aliases.aliases[0].Confidence)
		require.Len(t, decisions.inserted, 1)
		assert.Equal(t, 1.0, decisions.inserted[0].FinalScore)

		negTraining := &fakeTraining{}
		svc = NewFeedbackService(noopLogger(), negTraining, &fakeAliases{}, &fakeDecisions{}, nil, nil)
		_, err = svc.RecordDecision(context.Background(), testTenant, approvalRequest(-0.3))
		require.NoError(t, err)
		require.Len(t, negTraining.examples, 1)
		assert.Equal(t, 0.0, negTraining.examples[0].Confidence)
		assert.Equal(t, models.TrainingQualityFair, negTraining.examples[0].Quality)
	})

	t.Run("DoubleApprovalUpsertsOneExample", func(t *testing.T) {
		training := &fakeTraining{}
		svc := NewFeedbackService(noopLogger(), training, &fakeAliases{}, &fakeDecisions{}, nil, nil)

		_, err := svc.RecordDecision(context.Background(), testTenant, approvalRequest(0.8))
		require.NoError(t, err)
		first := training.examples[0].ApprovedAt

		_, err = svc.RecordDecision(context.Background(), testTenant, approvalRequest(0.95))
		require.NoError(t, err)

		require.Len(t, training.examples, 1, "same pair must converge on one example")
		assert.Equal(t, 0.95, training.examples[0].Confidence)
		assert.Equal(t, models.TrainingQualityExcellent, training.examples[0].Quality)
		assert.False(t, training.examples[0].ApprovedAt.Before(first))
	})

	t.Run("RejectionAuditedButNotLearned", func(t *testing.T) {
		training := &fakeTraining{}
		aliases := &fakeAliases{}
		decisions := &fakeDecisions{}

		svc := NewFeedbackService(noopLogger(), training, aliases, decisions, nil, nil)
		req := approvalRequest(0.4)
		req.Decision = models.DecisionRejected

		decision, err := svc.RecordDecision(context.Background(), testTenant, req)
		require.NoError(t, err)
		assert.Equal(t, models.DecisionRejected, decision.Decision)

		assert.Empty(t, training.examples, "rejections never produce training data")
		assert.Empty(t, aliases.aliases)
		assert.Len(t, decisions.inserted, 1)
	})

	t.Run("BlankQueryRejected", func(t *testing.T) {
		svc := NewFeedbackService(noopLogger(), &fakeTraining{}, &fakeAliases{}, &fakeDecisions{}, nil, nil)
		req := approvalRequest(0.9)
		req.QueryText = "   !!! "

		_, err := svc.RecordDecision(context.Background(), testTenant, req)
		require.Error(t, err)
		require.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, 400, httperror.GetStatusCode(err))
	})

	t.Run("InvalidDecisionRejected", func(t *testing.T) {
		svc := NewFeedbackService(noopLogger(), &fakeTraining{}, &fakeAliases{}, &fakeDecisions{}, nil, nil)
		req := approvalRequest(0.9)
		req.Decision = "maybe"

		_, err := svc.RecordDecision(context.Background(), testTenant, req)
		require.Error(t, err)
	})

	t.Run("NotifierFailureDoesNotFailDecision", func(t *testing.T) {
		decisions := &fakeDecisions{}
		notifier := &fakeNotifier{err: errors.New("broker unavailable")}

		svc := NewFeedbackService(noopLogger(), &fakeTraining{}, &fakeAliases{}, decisions, notifier, nil)
		_, err := svc.RecordDecision(context.Background(), testTenant, approvalRequest(0.9))
		require.NoError(t, err)
		assert.Len(t, decisions.inserted, 1)
	})

	t.Run("ProjectorFailureDoesNotFailApproval", func(t *testing.T) {
		training := &fakeTraining{}
		projector := &fakeProjector{err: errors.New("graph unavailable")}

		svc := NewFeedbackService(noopLogger(), training, &fakeAliases{}, &fakeDecisions{}, nil, projector)
		_, err := svc.RecordDecision(context.Background(), testTenant, approvalRequest(0.9))
		require.NoError(t, err)
		assert.Len(t, training.examples, 1)
	})
}
