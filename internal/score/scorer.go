// Package score implements the hunt scorer: a deterministic lexical
// estimate of how detection-actionable a piece of text is, on a 0-100
// scale with an open upper bound.
package score

import (
	"math"
	"strings"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/taxonomy"
)

// maxScore caps the total just under 100 so rounding can never reach it.
const maxScore = 99.9

// Scorer scores text against an immutable taxonomy. It performs no I/O,
// holds no mutable state, and is safe for concurrent use.
type Scorer struct {
	tax *taxonomy.Taxonomy
}

// New wires a compiled taxonomy.
func New(tax *taxonomy.Taxonomy) *Scorer {
	return &Scorer{tax: tax}
}

// TaxonomyVersion exposes the version stamped onto scored articles.
func (s *Scorer) TaxonomyVersion() string {
	return s.tax.Version
}

// Score computes the hunt score and per-category breakdown for the
// given text. It never fails: empty or unmatchable input yields 0 with
// an empty breakdown. Identical text always yields identical results.
func (s *Scorer) Score(text string) (float64, map[string]domain.CategoryScore) {
	breakdown := make(map[string]domain.CategoryScore, len(s.tax.Categories))
	if strings.TrimSpace(text) == "" {
		return 0, breakdown
	}

	lowered := strings.ToLower(text)

	var total float64
	for i := range s.tax.Categories {
		cat := &s.tax.Categories[i]

		matched := distinctMatches(cat, text, lowered)
		points := geometric(len(matched), cat.MaxPoints)
		if len(matched) == 0 {
			continue
		}

		breakdown[cat.Name] = domain.CategoryScore{Points: points, MatchedTerms: matched}
		if cat.Polarity == taxonomy.Negative {
			total -= points
		} else {
			total += points
		}
	}

	// Clamp first, round after, so the cap itself is never rounded away.
	if total < 0 {
		total = 0
	}
	if total > maxScore {
		total = maxScore
	}
	total = math.Round(total*10) / 10
	return total, breakdown
}

// distinctMatches returns the taxonomy entries present in the text.
// Each entry counts once no matter how often it occurs; categories are
// independent namespaces, so the same substring may match in several.
func distinctMatches(cat *taxonomy.Category, text, lowered string) []string {
	var matched []string
	for i := range cat.Entries {
		if cat.Entries[i].Matches(text, lowered) {
			matched = append(matched, cat.Entries[i].Term)
		}
	}
	return matched
}

// geometric applies 50% diminishing returns per distinct match:
// max * (1 - 0.5^n). The subscore approaches but never reaches the
// category maximum.
func geometric(matches int, maxPoints float64) float64 {
	if matches == 0 {
		return 0
	}
	return maxPoints * (1 - math.Pow(0.5, float64(matches)))
}
