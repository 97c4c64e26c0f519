package scoring

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"skillmatch/internal/types"
)

// Score bands for guidance text
const (
	foundationalBelow = 30
	developingBelow   = 60

	maxMissingListed = 5
)

// Recommendations builds the guidance lines for a scored result: a score
// summary, two band-specific suggestions and, when anything is missing, the
// first few missing skills.
func Recommendations(result types.AnalysisResult, role string) []string {
	score := FormatScore(result)

	var recs []string
	switch {
	case result.Score < foundationalBelow:
		recs = []string{
			"Your resume is <strong>" + score + "%</strong> aligned with " + RoleTitle(role) + " role",
			"Consider taking foundational courses in core technologies",
			"Build 2-3 projects showcasing required skills",
		}
	case result.Score < developingBelow:
		recs = []string{
			"Good start! Your resume is <strong>" + score + "%</strong> aligned",
			"Focus on gaining practical experience with missing skills",
			"Add certifications and detailed project descriptions",
		}
	default:
		recs = []string{
			"Excellent! Your resume is <strong>" + score + "%</strong> aligned",
			"Consider adding leadership experiences and complex projects",
			"Highlight specific achievements with metrics",
		}
	}

	if len(result.MissingKeywords) > 0 {
		listed := result.MissingKeywords
		if len(listed) > maxMissingListed {
			listed = listed[:maxMissingListed]
		}
		recs = append(recs, "<strong>Missing Skills:</strong> "+strings.Join(listed, ", "))
	}

	return recs
}

// FormatScore renders a score the way it appears in guidance text: "0" for
// an empty target, otherwise the shortest decimal with at least one
// fractional digit ("25.0", "14.29").
func FormatScore(result types.AnalysisResult) string {
	if result.TotalTargetKeywords == 0 {
		return "0"
	}
	s := strconv.FormatFloat(result.Score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// RoleTitle turns a role id into a display title, e.g. "ev_engineer" becomes
// "Ev Engineer".
func RoleTitle(role string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(role, "_", " "))
}
