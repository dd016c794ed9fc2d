package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

const (
	// Examples keep full weight for this long, then decay linearly.
	trainingDecayStart = 90 * 24 * time.Hour
	// Influence reaches zero here. The repository's rolling window cuts
	// examples off earlier, so decay never actually bottoms out.
	trainingDecayEnd = 365 * 24 * time.Hour
	// Diminishing-returns constant: boost saturates as 1-e^(-count/5).
	trainingCountScale = 5.0
	// Training boosts can never fully replace the explicit exact tier.
	trainingBoostCap = 0.95

	trainingBestShare = 0.7
	trainingMeanShare = 0.3
)

// TrainingMatch is one catalog entry supported by prior approved matches
// whose normalized text resembles the query.
type TrainingMatch struct {
	Entry models.CatalogEntry
	// Similarity is the best per-example similarity, max of trigram and
	// fuzzy. Tier gating compares against this value.
	Similarity float64
	// Boost is the blended, decayed, weighted effective score.
	Boost        float64
	Weight       float64
	ApprovedAt   time.Time
	ExampleCount int

	exampleIDs []string
}

// lookupTraining finds prior approved matches similar enough to influence
// this query and increments reference counters on every contributing
// example.
func (e *Engine) lookupTraining(ctx context.Context, tenantID, normalized string) ([]TrainingMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.lookupTraining")
	defer span.End()

	examples, err := e.training.SimilarExamples(ctx, tenantID, normalized)
	if err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	byEntry := make(map[string][]scoredExample)
	for _, ex := range examples {
		sim := max(e.scorer.Trigram(normalized, ex.NormalizedText), e.scorer.Fuzzy(normalized, ex.NormalizedText))
		if sim <= 0 {
			continue
		}
		byEntry[ex.EntryID] = append(byEntry[ex.EntryID], scoredExample{example: ex, similarity: sim})
	}
	if len(byEntry) == 0 {
		return nil, nil
	}

	entryIDs := make([]string, 0, len(byEntry))
	for id := range byEntry {
		entryIDs = append(entryIDs, id)
	}
	sort.Strings(entryIDs)

	entries, err := e.catalog.GetByIDs(ctx, tenantID, entryIDs)
	if err != nil {
		return nil, err
	}
	entryByID := make(map[string]models.CatalogEntry, len(entries))
	for _, entry := range entries {
		entryByID[entry.ID] = entry
	}

	matches := make([]TrainingMatch, 0, len(byEntry))
	var touched []string

	for _, entryID := range entryIDs {
		entry, ok := entryByID[entryID]
		if !ok {
			// Example points at an entry that left the catalog; skip it
			// rather than surface a dangling result.
			continue
		}

		group := byEntry[entryID]
		best := group[0]
		total := 0.0
		for _, se := range group {
			total += se.similarity
			if se.similarity > best.similarity {
				best = se
			}
		}
		mean := total / float64(len(group))

		boost := trainingBestShare*best.similarity + trainingMeanShare*mean
		boost *= ageDecay(now.Sub(best.example.ApprovedAt))
		boost *= best.example.Weight
		boost *= 1.0 - math.Exp(-float64(len(group))/trainingCountScale)
		if boost > trainingBoostCap {
			boost = trainingBoostCap
		}

		if boost <= 0 {
			continue
		}

		ids := make([]string, 0, len(group))
		for _, se := range group {
			ids = append(ids, se.example.ID)
		}
		touched = append(touched, ids...)

		matches = append(matches, TrainingMatch{
			Entry:        entry,
			Similarity:   best.similarity,
			Boost:        boost,
			Weight:       best.example.Weight,
			ApprovedAt:   best.example.ApprovedAt,
			ExampleCount: len(group),
			exampleIDs:   ids,
		})
	}

	if len(touched) > 0 {
		// Counter updates are bookkeeping for retention policies. A
		// failure here must not fail the read path.
		if err := e.training.TouchReferences(ctx, tenantID, touched); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("Failed to update training reference counters")
		}
	}

	return matches, nil
}

type scoredExample struct {
	example    models.TrainingExample
	similarity float64
}

// ageDecay returns the linear decay multiplier for an example's age.
func ageDecay(age time.Duration) float64 {
	if age <= trainingDecayStart {
		return 1.0
	}
	if age >= trainingDecayEnd {
		return 0.0
	}
	return 1.0 - float64(age-trainingDecayStart)/float64(trainingDecayEnd-trainingDecayStart)
}
