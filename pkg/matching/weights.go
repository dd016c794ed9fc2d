package matching

import (
	"fmt"
	"math"
)

// Weights configures the algorithmic (tier 3) blend. The values are
// tunable; several historical tunings exist and none is sacred, so the
// engine validates whatever it is given instead of hard-coding one.
type Weights struct {
	Trigram float64 `json:"trigram"`
	Fuzzy   float64 `json:"fuzzy"`
	Alias   float64 `json:"alias"`
	Vector  float64 `json:"vector"`
}

// DefaultWeights returns the canonical tier 3 weighting.
func DefaultWeights() Weights {
	return Weights{
		Trigram: 0.4,
		Fuzzy:   0.25,
		Alias:   0.2,
		Vector:  0.15,
	}
}

// Validate checks every weight is non-negative and the total sums to 1.0.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"trigram": w.Trigram,
		"fuzzy":   w.Fuzzy,
		"alias":   w.Alias,
		"vector":  w.Vector,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %f", name, v)
		}
	}

	total := w.Trigram + w.Fuzzy + w.Alias + w.Vector
	if math.Abs(total-1.0) > 0.001 {
		return fmt.Errorf("weights must sum to 1.0, got %f", total)
	}
	return nil
}

// signalScores holds one candidate's component scores plus availability
// flags. A signal that cannot be computed (no embedding, no known aliases)
// is excluded from the weighted sum's denominator so its weight
// redistributes proportionally across the computable signals.
type signalScores struct {
	trigram float64
	fuzzy   float64
	alias   float64
	vector  float64

	hasAlias  bool
	hasVector bool
}

// Combine produces the final score with no-signal redistribution.
func (w Weights) Combine(s signalScores) float64 {
	sum := s.trigram*w.Trigram + s.fuzzy*w.Fuzzy
	denom := w.Trigram + w.Fuzzy

	if s.hasAlias {
		sum += s.alias * w.Alias
		denom += w.Alias
	}
	if s.hasVector {
		sum += s.vector * w.Vector
		denom += w.Vector
	}

	if denom == 0 {
		return 0.0
	}
	return clampScore(sum / denom)
}
