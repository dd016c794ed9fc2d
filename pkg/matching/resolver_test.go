package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/normalize"
)

const testTenant = "test-tenant"

func floatPtr(v float64) *float64 { return &v }

type fakeCatalog struct {
	entries []models.CatalogEntry
	// hiddenFromPrefilter simulates entries too dissimilar for the trigram
	// prefilter; they remain reachable through GetByIDs.
	hiddenFromPrefilter map[string]bool
}

func (f *fakeCatalog) Prefilter(_ context.Context, tenantID, _ string, limit int) ([]models.CatalogEntry, error) {
	out := make([]models.CatalogEntry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.TenantID == tenantID && !f.hiddenFromPrefilter[e.ID] {
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
	touched  []string
}

// SimilarExamples mirrors the repository contract: only excellent/good
// examples approved inside the rolling six-month window qualify.
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

func (f *fakeTraining) TouchReferences(_ context.Context, _ string, ids []string) error {
	f.touched = append(f.touched, ids...)
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
	alias.ID = fmt.Sprintf("alias-%d", len(f.aliases)+1)
	f.aliases = append(f.aliases, *alias)
	return alias, nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestEngine(t *testing.T, catalog *fakeCatalog, training *fakeTraining, aliases *fakeAliases) *Engine {
	t.Helper()
	engine, err := NewEngine(noopLogger(), catalog, training, aliases, DefaultConfig())
	require.NoError(t, err)
	return engine
}

func entry(id, sku, name string) models.CatalogEntry {
	return models.CatalogEntry{
		ID:       id,
		TenantID: testTenant,
		SKU:      sku,
		Name:     name,
	}
}

func TestEngine_Resolve_EmptyQuery(t *testing.T) {
	engine := newTestEngine(t, &fakeCatalog{}, &fakeTraining{}, &fakeAliases{})

	for _, q := range []string{"", "   ", "!!! ???"} {
		results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{Text: q})
		require.NoError(t, err)
		assert.Empty(t, results, "query %q", q)
	}
}

func TestEngine_Resolve_ExactTrainingMatch(t *testing.T) {
	query := "GR. 8 HX HD CAP SCR 5/16-18X2-1/2"
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("56X212C8", "56X212C8", "Grade 8 Hex Head Cap Screw 5/16-18x2-1/2"),
		entry("OTHER1", "OTHER1", "Grade 8 Hex Head Cap Screw 3/8-16x1"),
	}}
	training := &fakeTraining{examples: []models.TrainingExample{{
		ID:             "ex-1",
		TenantID:       testTenant,
		NormalizedText: normalize.Text(query),
		EntryID:        "56X212C8",
		Quality:        models.TrainingQualityExcellent,
		Confidence:     0.97,
		Weight:         1.0,
		ApprovedAt:     time.Now().UTC().AddDate(0, 0, -10),
	}}}

	engine := newTestEngine(t, catalog, training, &fakeAliases{})
	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{Text: query})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "56X212C8", results[0].EntryID)
	assert.Equal(t, 1.0, results[0].FinalScore)
	assert.Equal(t, models.MatchTierTrainingExact, results[0].Tier)
	assert.True(t, results[0].IsTrainingMatch)

	// Tier exclusivity: no algorithmic rows share a result set with an
	// exact training row.
	for _, r := range results {
		assert.Equal(t, models.MatchTierTrainingExact, r.Tier)
	}

	// Contributing examples had their reference counters touched.
	assert.Contains(t, training.touched, "ex-1")
}

func TestEngine_Resolve_ExactTierOrdering(t *testing.T) {
	query := "ss flat washer 1/2"
	now := time.Now().UTC()
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("A1", "A1", "SS Flat Washer 1/2"),
		entry("B2", "B2", "Stainless Flat Washer 1/2"),
	}}
	training := &fakeTraining{examples: []models.TrainingExample{
		{
			ID: "ex-light", TenantID: testTenant,
			NormalizedText: normalize.Text(query), EntryID: "A1",
			Quality: models.TrainingQualityGood, Weight: 1.0,
			ApprovedAt: now.AddDate(0, 0, -5),
		},
		{
			ID: "ex-heavy", TenantID: testTenant,
			NormalizedText: normalize.Text(query), EntryID: "B2",
			Quality: models.TrainingQualityExcellent, Weight: 2.0,
			ApprovedAt: now.AddDate(0, 0, -30),
		},
	}}

	engine := newTestEngine(t, catalog, training, &fakeAliases{})
	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{Text: query})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Sorted by training weight descending, despite the older approval.
	assert.Equal(t, "B2", results[0].EntryID)
	assert.Equal(t, "A1", results[1].EntryID)
}

func TestEngine_Resolve_HighConfidenceTrainingMatch(t *testing.T) {
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("HH14", "HH14", "Hex Head Cap Screw 1/4-20x1"),
	}}
	training := &fakeTraining{examples: []models.TrainingExample{{
		ID:             "ex-1",
		TenantID:       testTenant,
		NormalizedText: "hex head cap screw 3/8",
		EntryID:        "HH14",
		Quality:        models.TrainingQualityGood,
		Weight:         1.0,
		ApprovedAt:     time.Now().UTC().AddDate(0, 0, -20),
	}}}

	engine := newTestEngine(t, catalog, training, &fakeAliases{})
	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{Text: "hex head cap screw 1/4"})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	r := results[0]
	assert.Equal(t, models.MatchTierTrainingHigh, r.Tier)
	assert.GreaterOrEqual(t, r.FinalScore, 0.85)
	assert.Less(t, r.FinalScore, 0.95)
	assert.True(t, r.IsTrainingMatch)
}

func TestEngine_Resolve_AlgorithmicFallback(t *testing.T) {
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("XUA27349", "XUA27349", "W236 1-1/2 X 1/2 X 1/4 A60R"),
		entry("ZZ999", "ZZ999", "Copper Pipe Elbow 90 Degree"),
	}}

	engine := newTestEngine(t, catalog, &fakeTraining{}, &fakeAliases{})
	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
		Text:      "W236",
		Threshold: floatPtr(0.1),
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, r := range results {
		assert.Equal(t, models.MatchTierAlgorithmic, r.Tier)
		assert.False(t, r.IsTrainingMatch)
		if r.EntryID == "XUA27349" {
			found = true
			assert.Greater(t, r.TrigramScore, 0.0)
		}
	}
	assert.True(t, found, "expected XUA27349 in results")
}

func TestEngine_Resolve_ThresholdFiltersResults(t *testing.T) {
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("FAR1", "FAR1", "Totally Unrelated Product"),
	}}

	engine := newTestEngine(t, catalog, &fakeTraining{}, &fakeAliases{})
	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
		Text:      "zq9 gasket kit",
		Threshold: floatPtr(0.9),
	})
	require.NoError(t, err)
	assert.Empty(t, results, "nothing above threshold is a valid empty outcome")
}

func TestEngine_Resolve_ParameterClamping(t *testing.T) {
	var entries []models.CatalogEntry
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("E%03d", i)
		entries = append(entries, entry(id, id, "Hex Bolt 5/16"))
	}
	catalog := &fakeCatalog{entries: entries}

	engine := newTestEngine(t, catalog, &fakeTraining{}, &fakeAliases{})
	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
		Text:      "hex bolt 5/16",
		Limit:     1000,
		Threshold: floatPtr(-5),
	})
	require.NoError(t, err)
	assert.Len(t, results, 100, "limit clamps to 100")

	t.Run("ClampHelpers", func(t *testing.T) {
		assert.Equal(t, 10, clampLimit(0, 10))
		assert.Equal(t, 1, clampLimit(-3, 10))
		assert.Equal(t, 100, clampLimit(1000, 10))
		assert.Equal(t, 25, clampLimit(25, 10))

		assert.Equal(t, 0.0, clampThreshold(floatPtr(-5), 0.2))
		assert.Equal(t, 1.0, clampThreshold(floatPtr(7), 0.2))
		assert.Equal(t, 0.2, clampThreshold(nil, 0.2))
		assert.Equal(t, 0.0, clampThreshold(floatPtr(0), 0.2))
		assert.Equal(t, 0.35, clampThreshold(floatPtr(0.35), 0.2))
	})

	t.Run("ExplicitZeroThresholdUnfiltered", func(t *testing.T) {
		weak := &fakeCatalog{entries: []models.CatalogEntry{
			entry("WEAK", "ZZ999", "Completely Different Product Line"),
		}}
		eng := newTestEngine(t, weak, &fakeTraining{}, &fakeAliases{})

		defaulted, err := eng.Resolve(context.Background(), testTenant, models.MatchQuery{
			Text: "hex bolt 5/16",
		})
		require.NoError(t, err)
		assert.Empty(t, defaulted, "weak match stays below the default threshold")

		unfiltered, err := eng.Resolve(context.Background(), testTenant, models.MatchQuery{
			Text:      "hex bolt 5/16",
			Threshold: floatPtr(0),
		})
		require.NoError(t, err)
		require.NotEmpty(t, unfiltered, "threshold zero must disable filtering")
		assert.Equal(t, "WEAK", unfiltered[0].EntryID)
	})
}

func TestEngine_Resolve_DeterministicTieBreak(t *testing.T) {
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("BBB", "BBB", "Hex Nut 3/8"),
		entry("AAA", "AAA", "Hex Nut 3/8"),
	}}

	engine := newTestEngine(t, catalog, &fakeTraining{}, &fakeAliases{})

	var first []models.MatchCandidate
	for i := 0; i < 5; i++ {
		results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{Text: "hex nut 3/8"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, results[0].FinalScore, results[1].FinalScore)
		assert.Equal(t, "AAA", results[0].EntryID, "identifier ascending breaks the tie")
		if first == nil {
			first = results
			continue
		}
		assert.Equal(t, first, results, "ordering must be reproducible")
	}
}

func TestEngine_Resolve_RankingOrder(t *testing.T) {
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("A", "A", "Grade 8 Hex Head Cap Screw 5/16"),
		entry("B", "B", "Grade 8 Hex Head Screw"),
		entry("C", "C", "Hex Head Screw"),
		entry("D", "D", "Washer Assortment"),
	}}

	engine := newTestEngine(t, catalog, &fakeTraining{}, &fakeAliases{})
	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
		Text:      "GR. 8 HX HD CAP SCR 5/16",
		Threshold: floatPtr(0.05),
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].FinalScore, results[i].FinalScore)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.FinalScore, 0.0)
		assert.LessOrEqual(t, r.FinalScore, 1.0)
		for _, s := range []float64{r.TrigramScore, r.FuzzyScore, r.VectorScore, r.AliasScore} {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestEngine_Resolve_AliasSignal(t *testing.T) {
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("ALIAS1", "INT-100", "Internal Part Name Nobody Types"),
	}}
	aliases := &fakeAliases{aliases: []models.CompetitorAlias{{
		ID:             "alias-1",
		TenantID:       testTenant,
		NormalizedName: "acme widget 12",
		EntryID:        "ALIAS1",
		Confidence:     0.9,
		Source:         models.AliasSourceLearned,
	}}}

	engine := newTestEngine(t, catalog, &fakeTraining{}, aliases)

	t.Run("ExactLiteralAliasScoresFull", func(t *testing.T) {
		results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
			Text:      "ACME Widget 12",
			Threshold: floatPtr(0.1),
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "ALIAS1", results[0].EntryID)
		assert.Equal(t, 1.0, results[0].AliasScore)
	})

	t.Run("StoredOverrangeConfidenceClamped", func(t *testing.T) {
		// Rows written before confidence was range checked may carry
		// values above 1; they must not push the signal out of bounds.
		overAliases := &fakeAliases{aliases: []models.CompetitorAlias{{
			ID:             "alias-over",
			TenantID:       testTenant,
			NormalizedName: "acme widget 12",
			EntryID:        "ALIAS1",
			Confidence:     1.5,
			Source:         models.AliasSourceLearned,
		}}}
		eng := newTestEngine(t, catalog, &fakeTraining{}, overAliases)

		results, err := eng.Resolve(context.Background(), testTenant, models.MatchQuery{
			Text:      "acme widget 12 large",
			Threshold: floatPtr(0.05),
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Greater(t, results[0].AliasScore, 0.0)
		assert.LessOrEqual(t, results[0].AliasScore, 1.0)
		assert.LessOrEqual(t, results[0].FinalScore, 1.0)
	})

	t.Run("PartialAliasDilutedByConfidence", func(t *testing.T) {
		results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
			Text:      "acme widget 12 large",
			Threshold: floatPtr(0.05),
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Greater(t, results[0].AliasScore, 0.0)
		assert.LessOrEqual(t, results[0].AliasScore, 0.9)
	})
}

func TestEngine_Resolve_AliasOnlyCandidateRecovered(t *testing.T) {
	// The entry name shares nothing with the query, so the name prefilter
	// never surfaces it. The learned alias must still pull it in.
	catalog := &fakeCatalog{
		entries:             []models.CatalogEntry{entry("ALIAS1", "INT-100", "Internal Part Name Nobody Types")},
		hiddenFromPrefilter: map[string]bool{"ALIAS1": true},
	}
	aliases := &fakeAliases{aliases: []models.CompetitorAlias{{
		ID:             "alias-1",
		TenantID:       testTenant,
		NormalizedName: "acme widget 12",
		EntryID:        "ALIAS1",
		Confidence:     0.9,
		Source:         models.AliasSourceLearned,
	}}}

	engine := newTestEngine(t, catalog, &fakeTraining{}, aliases)

	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
		Text:      "ACME Widget 12",
		Threshold: floatPtr(0.05),
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ALIAS1", results[0].EntryID)
	assert.Equal(t, 1.0, results[0].AliasScore)
	assert.Equal(t, models.MatchTierAlgorithmic, results[0].Tier)
}

func TestEngine_Resolve_MissingEmbeddingNotPenalized(t *testing.T) {
	embedded := entry("EMB", "EMB", "Hex Bolt 5/16")
	embedded.Embedding = []float64{1, 0, 0}
	plain := entry("PLAIN", "PLAIN", "Hex Bolt 5/16")

	catalog := &fakeCatalog{entries: []models.CatalogEntry{embedded, plain}}
	engine := newTestEngine(t, catalog, &fakeTraining{}, &fakeAliases{})

	results, err := engine.Resolve(context.Background(), testTenant, models.MatchQuery{
		Text:      "hex bolt 5/16",
		Embedding: []float64{1, 0, 0},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	var emb, noEmb models.MatchCandidate
	for _, r := range results {
		if r.EntryID == "EMB" {
			emb = r
		} else {
			noEmb = r
		}
	}

	assert.Equal(t, 1.0, emb.VectorScore)
	assert.Equal(t, 0.0, noEmb.VectorScore)
	// Identical text signals: redistribution keeps the no-embedding entry
	// level with the embedded one rather than structurally below it.
	assert.InDelta(t, emb.FinalScore, noEmb.FinalScore, 0.001)
}

func TestEngine_ResolveBatch(t *testing.T) {
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("A", "A", "Hex Bolt"),
		entry("B", "B", "Copper Pipe"),
	}}

	engine := newTestEngine(t, catalog, &fakeTraining{}, &fakeAliases{})
	queries := []models.MatchQuery{
		{Text: "hex bolt", Threshold: floatPtr(0.1)},
		{Text: ""},
		{Text: "copper pipe", Threshold: floatPtr(0.1)},
	}

	results, err := engine.ResolveBatch(context.Background(), testTenant, queries)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NotEmpty(t, results[0])
	assert.Equal(t, "A", results[0][0].EntryID)
	assert.Empty(t, results[1])
	assert.NotEmpty(t, results[2])
	assert.Equal(t, "B", results[2][0].EntryID)
}

func TestEngine_TrainingBoost(t *testing.T) {
	now := time.Now().UTC()
	catalog := &fakeCatalog{entries: []models.CatalogEntry{
		entry("T1", "T1", "Hex Bolt 5/16"),
	}}

	example := func(id string, age time.Duration) models.TrainingExample {
		return models.TrainingExample{
			ID: id, TenantID: testTenant,
			NormalizedText: "hex bolt 5/16", EntryID: "T1",
			Quality: models.TrainingQualityExcellent, Weight: 1.0,
			ApprovedAt: now.Add(-age),
		}
	}

	t.Run("BoostCapped", func(t *testing.T) {
		training := &fakeTraining{}
		for i := 0; i < 40; i++ {
			training.examples = append(training.examples, example(fmt.Sprintf("ex-%d", i), time.Hour))
		}
		engine := newTestEngine(t, catalog, training, &fakeAliases{})

		matches, err := engine.lookupTraining(context.Background(), testTenant, "hex bolt 5/16")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.LessOrEqual(t, matches[0].Boost, 0.95)
	})

	t.Run("MoreExamplesMoreBoost", func(t *testing.T) {
		single := &fakeTraining{examples: []models.TrainingExample{example("ex-a", time.Hour)}}
		triple := &fakeTraining{examples: []models.TrainingExample{
			example("ex-a", time.Hour), example("ex-b", time.Hour), example("ex-c", time.Hour),
		}}

		engineSingle := newTestEngine(t, catalog, single, &fakeAliases{})
		engineTriple := newTestEngine(t, catalog, triple, &fakeAliases{})

		one, err := engineSingle.lookupTraining(context.Background(), testTenant, "hex bolt 5/16")
		require.NoError(t, err)
		three, err := engineTriple.lookupTraining(context.Background(), testTenant, "hex bolt 5/16")
		require.NoError(t, err)

		require.Len(t, one, 1)
		require.Len(t, three, 1)
		assert.Greater(t, three[0].Boost, one[0].Boost)
	})

	t.Run("OlderExamplesDecay", func(t *testing.T) {
		fresh := &fakeTraining{examples: []models.TrainingExample{example("ex-a", 24*time.Hour)}}
		stale := &fakeTraining{examples: []models.TrainingExample{example("ex-b", 150*24*time.Hour)}}

		engineFresh := newTestEngine(t, catalog, fresh, &fakeAliases{})
		engineStale := newTestEngine(t, catalog, stale, &fakeAliases{})

		f, err := engineFresh.lookupTraining(context.Background(), testTenant, "hex bolt 5/16")
		require.NoError(t, err)
		s, err := engineStale.lookupTraining(context.Background(), testTenant, "hex bolt 5/16")
		require.NoError(t, err)

		require.Len(t, f, 1)
		require.Len(t, s, 1)
		assert.Greater(t, f[0].Boost, s[0].Boost)
	})

	t.Run("PoorQualityExcluded", func(t *testing.T) {
		ex := example("ex-a", time.Hour)
		ex.Quality = models.TrainingQualityPoor
		training := &fakeTraining{examples: []models.TrainingExample{ex}}
		engine := newTestEngine(t, catalog, training, &fakeAliases{})

		matches, err := engine.lookupTraining(context.Background(), testTenant, "hex bolt 5/16")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("AgeDecayCurve", func(t *testing.T) {
		assert.Equal(t, 1.0, ageDecay(30*24*time.Hour))
		assert.Equal(t, 1.0, ageDecay(90*24*time.Hour))
		assert.Equal(t, 0.0, ageDecay(365*24*time.Hour))

		mid := ageDecay(200 * 24 * time.Hour)
		assert.Greater(t, mid, 0.0)
		assert.Less(t, mid, 1.0)
	})
}

func TestNewEngine_InvalidWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{Trigram: 0.9, Fuzzy: 0.9}

	_, err := NewEngine(noopLogger(), &fakeCatalog{}, &fakeTraining{}, &fakeAliases{}, cfg)
	assert.Error(t, err)
}
