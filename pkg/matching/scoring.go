package matching

import (
	"math"
	"strings"
)

// Fuzzy blend weights. Edit distance dominates; word overlap and common
// substring soften its sensitivity to word reordering.
const (
	fuzzyEditWeight      = 0.5
	fuzzyWordWeight      = 0.3
	fuzzySubstringWeight = 0.2
)

// Scorer provides the string and vector similarity algorithms used by the
// engine. All methods are pure and total: any input scores in [0, 1] and
// empty input scores 0.0.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// Trigram calculates the character-trigram overlap coefficient between two
// strings. Strings are padded the way pg_trgm pads them so short tokens
// still produce trigrams.
func (s *Scorer) Trigram(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	ta := trigramSet(a)
	tb := trigramSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	small, large := ta, tb
	if len(tb) < len(ta) {
		small, large = tb, ta
	}

	shared := 0
	for t := range small {
		if _, ok := large[t]; ok {
			shared++
		}
	}

	return float64(shared) / float64(len(small))
}

func trigramSet(s string) map[string]struct{} {
	padded := "  " + s + " "
	set := make(map[string]struct{}, len(padded))
	for i := 0; i+3 <= len(padded); i++ {
		set[padded[i:i+3]] = struct{}{}
	}
	return set
}

// Fuzzy calculates a blended edit-distance similarity: Levenshtein ratio at
// 50%, word-set overlap at 30% and longest-common-substring ratio at 20%.
func (s *Scorer) Fuzzy(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	edit := s.Levenshtein(a, b)
	words := s.WordOverlap(a, b)
	substr := s.SubstringRatio(a, b)

	return clampScore(edit*fuzzyEditWeight + words*fuzzyWordWeight + substr*fuzzySubstringWeight)
}

// Levenshtein calculates the Levenshtein distance between two strings
// Returns a similarity score between 0.0 and 1.0
func (s *Scorer) Levenshtein(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// WordOverlap calculates the ratio of shared words to the larger word set.
func (s *Scorer) WordOverlap(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}

	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}

	return float64(shared) / float64(max(len(setA), len(setB)))
}

// SubstringRatio calculates the longest common substring length relative to
// the longer string.
func (s *Scorer) SubstringRatio(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Two-row dynamic programming over substring end positions
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)
	longest := 0

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				row[j] = prevRow[j-1] + 1
				if row[j] > longest {
					longest = row[j]
				}
			} else {
				row[j] = 0
			}
		}
		row, prevRow = prevRow, row
	}

	return float64(longest) / float64(max(len(a), len(b)))
}

// Cosine calculates cosine similarity between two vectors, clamped to
// [0, 1]. Mismatched or empty vectors score 0.0.
func (s *Scorer) Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return clampScore(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func clampScore(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
