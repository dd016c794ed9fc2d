package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin-dews/data-matcher-sub001/pkg/matching"
	"github.com/justin-dews/data-matcher-sub001/pkg/models"
)

// The learning loop: an algorithmic match that a reviewer approves becomes a
// training example, and the next resolution of the same text short-circuits
// through the training tier.
func TestLearningLoop_ApprovalPromotesTier(t *testing.T) {
	ctx := context.Background()
	logger := noopLogger()

	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("e1", "56X212C8", "Grade 8 Hex Head Cap Screw 5/16-18x2-1/2"),
		entry("e2", "Z900", "Zip Tie 900"),
	}}
	training := &fakeTraining{}
	aliases := &fakeAliases{}
	decisions := &fakeDecisions{}

	engine, err := matching.NewEngine(logger, catalog, training, aliases, matching.DefaultConfig())
	require.NoError(t, err)
	feedback := matching.NewFeedbackService(logger, training, aliases, decisions, nil, nil)

	queryText := "GR. 8 HX HD CAP SCR 5/16-18X2-1/2"

	// First pass has no training corpus, so the result is algorithmic.
	results, err := engine.Resolve(ctx, testTenant, models.MatchQuery{Text: queryText, Threshold: floatPtr(0.1)})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "e1", results[0].EntryID)
	assert.Equal(t, models.MatchTierAlgorithmic, results[0].Tier)

	// Reviewer approves the top candidate.
	_, err = feedback.RecordDecision(ctx, testTenant, matching.DecisionRequest{
		QueryText:  queryText,
		EntryID:    results[0].EntryID,
		Decision:   models.DecisionApproved,
		Reviewer:   "reviewer@example.com",
		FinalScore: 0.92,
		Scores: models.SignalScores{
			Trigram: results[0].TrigramScore,
			Fuzzy:   results[0].FuzzyScore,
			Vector:  results[0].VectorScore,
			Alias:   results[0].AliasScore,
		},
		Tier: results[0].Tier,
	})
	require.NoError(t, err)
	require.Len(t, training.examples, 1)
	require.Len(t, decisions.inserted, 1)

	// Second pass finds an exact training match for the same text.
	results, err = engine.Resolve(ctx, testTenant, models.MatchQuery{Text: queryText, Threshold: floatPtr(0.1)})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "e1", results[0].EntryID)
	assert.Equal(t, models.MatchTierTrainingExact, results[0].Tier)
	assert.Equal(t, 1.0, results[0].FinalScore)
	assert.True(t, results[0].IsTrainingMatch)
}

func TestLearningLoop_RejectionDoesNotLearn(t *testing.T) {
	ctx := context.Background()
	logger := noopLogger()

	training := &fakeTraining{}
	aliases := &fakeAliases{}
	decisions := &fakeDecisions{}
	feedback := matching.NewFeedbackService(logger, training, aliases, decisions, nil, nil)

	_, err := feedback.RecordDecision(ctx, testTenant, matching.DecisionRequest{
		QueryText:  "GR. 8 HX HD CAP SCR 5/16-18X2-1/2",
		EntryID:    "e1",
		Decision:   models.DecisionRejected,
		Reviewer:   "reviewer@example.com",
		FinalScore: 0.4,
	})
	require.NoError(t, err)

	assert.Empty(t, training.examples)
	assert.Empty(t, aliases.aliases)
	require.Len(t, decisions.inserted, 1)
	assert.Equal(t, models.DecisionRejected, decisions.inserted[0].Decision)
}

// An approved alias raises the alias signal for later queries that use the
// competitor's wording.
func TestLearningLoop_ApprovalTeachesAlias(t *testing.T) {
	ctx := context.Background()
	logger := noopLogger()

	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("e1", "AW12", "Industrial Fastener Model 12"),
	}}
	training := &fakeTraining{}
	aliases := &fakeAliases{}
	decisions := &fakeDecisions{}

	engine, err := matching.NewEngine(logger, catalog, training, aliases, matching.DefaultConfig())
	require.NoError(t, err)
	feedback := matching.NewFeedbackService(logger, training, aliases, decisions, nil, nil)

	_, err = feedback.RecordDecision(ctx, testTenant, matching.DecisionRequest{
		QueryText:  "ACME Widget 12",
		EntryID:    "e1",
		Decision:   models.DecisionApproved,
		Reviewer:   "reviewer@example.com",
		FinalScore: 0.91,
	})
	require.NoError(t, err)
	require.Len(t, aliases.aliases, 1)
	assert.Equal(t, models.AliasSourceLearned, aliases.aliases[0].Source)
	assert.Equal(t, "acme widget 12", aliases.aliases[0].NormalizedName)

	// A reworded competitor line is too far from the trained text for the
	// training tiers, but the learned alias still contributes a signal.
	results, err := engine.Resolve(ctx, testTenant, models.MatchQuery{Text: "Model 12 Industrial Fastener ACME", Threshold: floatPtr(0.05)})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "e1", results[0].EntryID)
	assert.Equal(t, models.MatchTierAlgorithmic, results[0].Tier)
	assert.Greater(t, results[0].AliasScore, 0.0)
}
