// Package scoring compares found keywords with a role's target keywords and
// turns the result into a match score and guidance text.
package scoring

import (
	"math"

	"skillmatch/internal/types"
)

// Score intersects the found keywords with the target. Duplicate targets are
// counted once, and matching and missing follow target order.
func Score(found, target []string) types.AnalysisResult {
	foundSet := make(map[string]struct{}, len(found))
	for _, k := range found {
		foundSet[k] = struct{}{}
	}

	seen := make(map[string]struct{}, len(target))
	matching := []string{}
	missing := []string{}
	for _, k := range target {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := foundSet[k]; ok {
			matching = append(matching, k)
		} else {
			missing = append(missing, k)
		}
	}

	total := len(seen)
	return types.AnalysisResult{
		Score:               percentage(len(matching), total),
		MatchingKeywords:    matching,
		MissingKeywords:     missing,
		MatchCount:          len(matching),
		TotalTargetKeywords: total,
	}
}

// percentage rounds to two decimals; an empty target scores zero
func percentage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(matched)/float64(total)*100*100) / 100
}
