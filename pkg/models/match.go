package models

import "time"

// MatchTier identifies which scoring path produced a result. The tiers are
// mutually exclusive within one result set.
type MatchTier string

const (
	MatchTierTrainingExact MatchTier = "training_exact"
	MatchTierTrainingHigh  MatchTier = "training_high"
	MatchTierAlgorithmic   MatchTier = "algorithmic"
)

// MatchCandidate is one ranked result for a query. It exists only for the
// duration of the request and is never persisted by the engine.
type MatchCandidate struct {
	EntryID      string `json:"entry_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Category     string `json:"category,omitempty"`

	TrigramScore float64 `json:"trigram_score"`
	FuzzyScore   float64 `json:"fuzzy_score"`
	VectorScore  float64 `json:"vector_score"`
	AliasScore   float64 `json:"alias_score"`
	FinalScore   float64 `json:"final_score"`

	Tier            MatchTier `json:"tier"`
	Rationale       string    `json:"rationale"`
	IsTrainingMatch bool      `json:"is_training_match"`

	// Tie-break metadata for training tiers. Zero for algorithmic results.
	TrainingSimilarity float64   `json:"training_similarity,omitempty"`
	TrainingWeight     float64   `json:"-"`
	TrainingApprovedAt time.Time `json:"-"`
}

// MatchQuery is a single resolve request after parameter clamping. A nil
// Threshold means "use the configured default"; an explicit zero disables
// threshold filtering.
type MatchQuery struct {
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding,omitempty"`
	Limit     int       `json:"limit"`
	Threshold *float64  `json:"threshold,omitempty"`
}
