// Package matching implements the tiered hybrid match engine
package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/normalize"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

const (
	minLimit = 1
	maxLimit = 100

	// Tier 2 results map [HighSimilarity, ExactSimilarity) onto
	// [tierTwoBase, trainingBoostCap).
	tierTwoBase = 0.85
)

// Config contains configuration for the match engine
type Config struct {
	Weights          Weights
	DefaultLimit     int     // Results returned when the caller sends none (default: 10)
	DefaultThreshold float64 // Minimum final score when the caller sends none (default: 0.2)
	MaxCandidates    int     // Prefilter bound for tier 3 (default: 500)
	ExactSimilarity  float64 // Training similarity gating tier 1 (default: 0.95)
	HighSimilarity   float64 // Training similarity gating tier 2 (default: 0.80)
	BatchWorkers     int     // Parallelism for batch resolution (default: 4)
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		DefaultLimit:     10,
		DefaultThreshold: 0.2,
		MaxCandidates:    500,
		ExactSimilarity:  0.95,
		HighSimilarity:   0.80,
		BatchWorkers:     4,
	}
}

// Engine resolves free-text queries against the catalog using a strict
// short-circuit tier hierarchy: exact training matches first, then
// high-confidence training matches, then the algorithmic blend. The engine
// is stateless per query; any number of Resolve calls may run concurrently.
type Engine struct {
	logger   ectologger.Logger
	scorer   *Scorer
	catalog  CatalogStore
	training TrainingStore
	aliases  AliasStore
	config   Config
}

// NewEngine creates a new match engine
func NewEngine(
	logger ectologger.Logger,
	catalog CatalogStore,
	training TrainingStore,
	aliases AliasStore,
	config Config,
) (*Engine, error) {
	if err := config.Weights.Validate(); err != nil {
		return nil, err
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 10
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 500
	}
	if config.BatchWorkers <= 0 {
		config.BatchWorkers = 4
	}

	return &Engine{
		logger:   logger,
		scorer:   NewScorer(),
		catalog:  catalog,
		training: training,
		aliases:  aliases,
		config:   config,
	}, nil
}

// Resolve returns ranked candidate catalog entries for one query. A blank
// query or a query with nothing similar in the catalog returns an empty
// list, never an error.
func (e *Engine) Resolve(ctx context.Context, tenantID string, query models.MatchQuery) ([]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Resolve")
	defer span.End()

	limit := clampLimit(query.Limit, e.config.DefaultLimit)
	threshold := clampThreshold(query.Threshold, e.config.DefaultThreshold)

	normalized := normalize.Text(query.Text)
	if normalized == "" {
		return []models.MatchCandidate{}, nil
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"query":     normalized,
	})

	trainingMatches, err := e.lookupTraining(ctx, tenantID, normalized)
	if err != nil {
		return nil, err
	}

	// Tier 1: exact training matches override everything else.
	if exact := filterBySimilarity(trainingMatches, e.config.ExactSimilarity, 1.01); len(exact) > 0 {
		log.WithFields(map[string]any{"count": len(exact)}).Debug("Resolved from exact training matches")
		return e.buildExactTier(exact, limit), nil
	}

	// Tier 2: high-confidence training matches.
	if high := filterBySimilarity(trainingMatches, e.config.HighSimilarity, e.config.ExactSimilarity); len(high) > 0 {
		log.WithFields(map[string]any{"count": len(high)}).Debug("Resolved from high-confidence training matches")
		return e.buildHighTier(high, limit), nil
	}

	// Tier 3: algorithmic scoring over generated candidates.
	results, err := e.resolveAlgorithmic(ctx, tenantID, normalized, query.Embedding, threshold, limit)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{"count": len(results)}).Debug("Resolved algorithmically")
	return results, nil
}

// ResolveBatch resolves many queries independently, in parallel. One
// query's candidates never affect another's; result order mirrors input
// order.
func (e *Engine) ResolveBatch(ctx context.Context, tenantID string, queries []models.MatchQuery) ([][]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.ResolveBatch")
	defer span.End()

	results := make([][]models.MatchCandidate, len(queries))
	errs := make([]error, len(queries))

	sem := make(chan struct{}, e.config.BatchWorkers)
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, q models.MatchQuery) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = e.Resolve(ctx, tenantID, q)
		}(i, q)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (e *Engine) buildExactTier(matches []TrainingMatch, limit int) []models.MatchCandidate {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Weight != matches[j].Weight {
			return matches[i].Weight > matches[j].Weight
		}
		if !matches[i].ApprovedAt.Equal(matches[j].ApprovedAt) {
			return matches[i].ApprovedAt.After(matches[j].ApprovedAt)
		}
		return matches[i].Entry.ID < matches[j].Entry.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]models.MatchCandidate, 0, len(matches))
	for _, m := range matches {
		c := candidateFromTraining(m, models.MatchTierTrainingExact)
		c.FinalScore = 1.0
		c.Rationale = fmt.Sprintf("exact training match: %d approved example(s), similarity %.2f", m.ExampleCount, m.Similarity)
		out = append(out, c)
	}
	return out
}

func (e *Engine) buildHighTier(matches []TrainingMatch, limit int) []models.MatchCandidate {
	scaling := (trainingBoostCap - tierTwoBase) / (e.config.ExactSimilarity - e.config.HighSimilarity)

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Entry.ID < matches[j].Entry.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]models.MatchCandidate, 0, len(matches))
	for _, m := range matches {
		c := candidateFromTraining(m, models.MatchTierTrainingHigh)
		c.FinalScore = tierTwoBase + (m.Similarity-e.config.HighSimilarity)*scaling
		c.Rationale = fmt.Sprintf("high-confidence training match: similarity %.2f, boost %.2f", m.Similarity, m.Boost)
		out = append(out, c)
	}
	return out
}

func candidateFromTraining(m TrainingMatch, tier models.MatchTier) models.MatchCandidate {
	return models.MatchCandidate{
		EntryID:            m.Entry.ID,
		SKU:                m.Entry.SKU,
		Name:               m.Entry.Name,
		Manufacturer:       m.Entry.Manufacturer,
		Category:           m.Entry.Category,
		Tier:               tier,
		IsTrainingMatch:    true,
		TrainingSimilarity: m.Similarity,
		TrainingWeight:     m.Weight,
		TrainingApprovedAt: m.ApprovedAt,
	}
}

func (e *Engine) resolveAlgorithmic(ctx context.Context, tenantID, normalized string, embedding []float64, threshold float64, limit int) ([]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.resolveAlgorithmic")
	defer span.End()

	entries, err := e.catalog.Prefilter(ctx, tenantID, normalized, e.config.MaxCandidates)
	if err != nil {
		return nil, err
	}

	// The name prefilter misses entries reachable only through a learned
	// alias, so alias hits are unioned into the candidate set.
	aliasEntryIDs, err := e.aliases.EntriesForName(ctx, tenantID, normalized)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seen[entry.ID] = true
	}
	var missing []string
	for _, id := range aliasEntryIDs {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		aliasEntries, err := e.catalog.GetByIDs(ctx, tenantID, missing)
		if err != nil {
			return nil, err
		}
		entries = append(entries, aliasEntries...)
	}

	if len(entries) == 0 {
		return []models.MatchCandidate{}, nil
	}

	entryIDs := make([]string, len(entries))
	for i, entry := range entries {
		entryIDs[i] = entry.ID
	}

	aliasesByEntry, err := e.aliases.ForEntries(ctx, tenantID, entryIDs)
	if err != nil {
		return nil, err
	}

	results := make([]models.MatchCandidate, 0, len(entries))
	for _, entry := range entries {
		c := e.scoreCandidate(normalized, embedding, entry, aliasesByEntry[entry.ID])
		if c.FinalScore >= threshold && c.FinalScore > 0 {
			results = append(results, c)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		if results[i].TrigramScore != results[j].TrigramScore {
			return results[i].TrigramScore > results[j].TrigramScore
		}
		return results[i].EntryID < results[j].EntryID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scoreCandidate computes all four signals for one entry and combines them
// with no-signal redistribution.
func (e *Engine) scoreCandidate(normalized string, embedding []float64, entry models.CatalogEntry, aliases []models.CompetitorAlias) models.MatchCandidate {
	normName := normalize.Text(entry.Name)
	normSKU := normalize.Text(entry.SKU)
	normMfr := normalize.Text(entry.Manufacturer)

	scores := signalScores{
		trigram: max(
			e.scorer.Trigram(normalized, normName),
			e.scorer.Trigram(normalized, normSKU),
			e.scorer.Trigram(normalized, normMfr),
		),
		fuzzy: max(
			e.scorer.Fuzzy(normalized, normName),
			e.scorer.Fuzzy(normalized, normSKU),
		),
	}

	if len(aliases) > 0 {
		scores.hasAlias = true
		for _, alias := range aliases {
			if alias.NormalizedName == normalized {
				// Exact literal alias match scores full marks undiluted.
				scores.alias = 1.0
				break
			}
			// Confidence is clamped again here in case a stored row
			// predates range checking on the feedback path.
			s := clampScore(alias.Confidence) * e.scorer.Trigram(normalized, alias.NormalizedName)
			if s > scores.alias {
				scores.alias = s
			}
		}
	}

	if len(embedding) > 0 && entry.HasEmbedding() {
		scores.hasVector = true
		scores.vector = e.scorer.Cosine(embedding, entry.Embedding)
	}

	return models.MatchCandidate{
		EntryID:      entry.ID,
		SKU:          entry.SKU,
		Name:         entry.Name,
		Manufacturer: entry.Manufacturer,
		Category:     entry.Category,
		TrigramScore: scores.trigram,
		FuzzyScore:   scores.fuzzy,
		VectorScore:  scores.vector,
		AliasScore:   scores.alias,
		FinalScore:   e.config.Weights.Combine(scores),
		Tier:         models.MatchTierAlgorithmic,
		Rationale:    algorithmicRationale(scores),
	}
}

func algorithmicRationale(s signalScores) string {
	parts := []string{
		fmt.Sprintf("trigram %.2f", s.trigram),
		fmt.Sprintf("fuzzy %.2f", s.fuzzy),
	}
	if s.hasAlias {
		parts = append(parts, fmt.Sprintf("alias %.2f", s.alias))
	} else {
		parts = append(parts, "alias n/a")
	}
	if s.hasVector {
		parts = append(parts, fmt.Sprintf("vector %.2f", s.vector))
	} else {
		parts = append(parts, "vector n/a")
	}
	return "algorithmic: " + strings.Join(parts, ", ")
}

func filterBySimilarity(matches []TrainingMatch, lo, hi float64) []TrainingMatch {
	var out []TrainingMatch
	for _, m := range matches {
		if m.Similarity >= lo && m.Similarity < hi {
			out = append(out, m)
		}
	}
	return out
}

func clampLimit(limit, fallback int) int {
	if limit == 0 {
		limit = fallback
	}
	if limit < minLimit {
		return minLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func clampThreshold(threshold *float64, fallback float64) float64 {
	if threshold == nil {
		return fallback
	}
	t := *threshold
	if t < 0.0 {
		return 0.0
	}
	if t > 1.0 {
		return 1.0
	}
	return t
}
