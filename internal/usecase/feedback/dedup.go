package feedback

import (
	"strings"

	"github.com/edutools/fbgen/internal/domain"
)

// DefaultOverlapThreshold is the body-overlap fraction at which two comments
// on the same line count as duplicates.
const DefaultOverlapThreshold = 0.80

// MergeDuplicates collapses comments that share a target line and whose
// bodies overlap at or above threshold. The higher-confidence draft's
// wording wins; the survivor keeps its slot in the original order.
func MergeDuplicates(comments []domain.Comment, threshold float64) []domain.Comment {
	if threshold <= 0 {
		threshold = DefaultOverlapThreshold
	}

	var kept []domain.Comment
	for _, c := range comments {
		merged := false
		for i := range kept {
			if kept[i].TargetLine != c.TargetLine || kept[i].File != c.File {
				continue
			}
			if bodyOverlap(kept[i].Body, c.Body) >= threshold {
				if c.Confidence > kept[i].Confidence {
					kept[i] = c
				}
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, c)
		}
	}
	return kept
}

// bodyOverlap is the fraction of the smaller body's words present in the
// other, case-insensitive.
func bodyOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	if len(wordsB) < len(wordsA) {
		wordsA, wordsB = wordsB, wordsA
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(wordsA))
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(w, ".,;:!?\"'()")] = true
	}
	return set
}
