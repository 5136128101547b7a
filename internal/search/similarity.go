package search

import "strings"

// DefaultFuzzyThreshold is the ratio below which fuzzy matches are
// rejected. Exact and substring matches are unaffected by it.
const DefaultFuzzyThreshold = 0.6

// Substring containment outranks fuzzy ratios but never beats an exact hit.
const substringScore = 0.9

// Scorer computes a 0.0-1.0 similarity between a query token and a
// candidate string. Scorers are stateless and safe for concurrent use.
type Scorer struct {
	// FuzzyThreshold is the minimum sequence ratio accepted as a fuzzy
	// match. Ratios below it score 0.
	FuzzyThreshold float64
}

// NewScorer creates a scorer with the given fuzzy threshold.
// Thresholds outside (0,1] fall back to the default.
func NewScorer(threshold float64) *Scorer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	return &Scorer{FuzzyThreshold: threshold}
}

// Similarity scores a against b, case-insensitive. Rules in order:
// exact match 1.0, substring containment 0.9, otherwise the sequence
// ratio when it clears the threshold, else 0.
func (s *Scorer) Similarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return substringScore
	}

	ratio := SequenceRatio(a, b)
	if ratio < s.FuzzyThreshold {
		return 0
	}
	return ratio
}

// Exact scores without the fuzzy rule: exact 1.0, substring 0.9, else 0.
// Used when fuzzy matching is disabled for a request.
func (s *Scorer) Exact(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return substringScore
	}
	return 0
}

// normalize lower-cases and trims a matchable string.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SequenceRatio computes the Ratcliff/Obershelp similarity of two strings:
// 2*M/T where M is the total length of matching blocks and T the combined
// length. This is the ratio used by standard sequence-matching libraries.
func SequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	matched := matchingTotal(ra, rb)
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

// matchingTotal sums matching block lengths: find the longest common
// substring, then recurse into the unmatched pieces on either side.
func matchingTotal(a, b []rune) int {
	aStart, bStart, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}

	total := size
	total += matchingTotal(a[:aStart], b[:bStart])
	total += matchingTotal(a[aStart+size:], b[bStart+size:])
	return total
}

// longestCommonBlock finds the longest common contiguous run between a
// and b, returning its start offsets and length. Dynamic programming over
// a single reused row keeps it O(len(a)*len(b)) time, O(len(b)) space.
func longestCommonBlock(a, b []rune) (aStart, bStart, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					aStart = i - size
					bStart = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return aStart, bStart, size
}
