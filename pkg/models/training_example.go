package models

import (
	"time"

	"github.com/justin-dews/data-matcher-sub001/pkg/database"
)

// TrainingQuality labels how trustworthy a training example is
type TrainingQuality string

const (
	TrainingQualityExcellent TrainingQuality = "excellent"
	TrainingQualityGood      TrainingQuality = "good"
	TrainingQualityFair      TrainingQuality = "fair"
	TrainingQualityPoor      TrainingQuality = "poor"
)

// QualityForScore maps a final match score to a quality band.
func QualityForScore(score float64) TrainingQuality {
	switch {
	case score >= 0.9:
		return TrainingQualityExcellent
	case score >= 0.7:
		return TrainingQualityGood
	default:
		return TrainingQualityFair
	}
}

// SignalScores holds the per-signal component scores captured when a match
// was originally computed. Stored as JSONB alongside the example.
type SignalScores struct {
	Trigram float64 `json:"trigram"`
	Fuzzy   float64 `json:"fuzzy"`
	Vector  float64 `json:"vector"`
	Alias   float64 `json:"alias"`
}

// TrainingExample is a human-approved (query text, catalog entry) pair.
// Identity is (tenant, normalized_text, entry_id); confidence and weight may
// be revised on re-approval but the pair itself is append-only.
type TrainingExample struct {
	ID             string          `db:"id" json:"id"`
	TenantID       string          `db:"tenant_id" json:"tenant_id"`
	NormalizedText string          `db:"normalized_text" json:"normalized_text"`
	EntryID        string          `db:"entry_id" json:"entry_id"`
	Scores         database.JSONB[SignalScores] `db:"scores" json:"scores"`
	Quality        TrainingQuality `db:"quality" json:"quality"`
	Confidence     float64         `db:"confidence" json:"confidence"`
	// Weight is a manual multiplier applied during training lookups.
	// Defaults to 1.0 and is adjustable by curators.
	Weight           float64    `db:"weight" json:"weight"`
	ApprovedBy       string     `db:"approved_by" json:"approved_by"`
	ApprovedAt       time.Time  `db:"approved_at" json:"approved_at"`
	ReferenceCount   int        `db:"reference_count" json:"reference_count"`
	LastReferencedAt *time.Time `db:"last_referenced_at" json:"last_referenced_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
