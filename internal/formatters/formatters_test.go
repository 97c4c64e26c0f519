package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/types"
)

func sampleResponse() types.AnalysisResponse {
	return types.AnalysisResponse{
		Success: true,
		Analysis: &types.AnalysisResult{
			Score:               25.0,
			MatchingKeywords:    []string{"matlab", "simulink"},
			MissingKeywords:     []string{"python"},
			MatchCount:          2,
			TotalTargetKeywords: 8,
		},
		ResumeSummary: &types.ResumeSummary{WordCount: 11, KeywordCount: 4},
		Recommendations: []string{
			"Your resume is <strong>25.0%</strong> aligned with Ev Engineer role",
			"<strong>Missing Skills:</strong> python",
		},
	}
}

func TestJSONFormatterKeepsMarkup(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleResponse(), "json")
	require.NoError(t, err)

	assert.Contains(t, out, "<strong>25.0%</strong>")
	assert.NotContains(t, out, `<`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Contains(t, decoded, "analysis")
	assert.Contains(t, decoded, "resume_summary")
}

func TestJSONFormatterErrorShape(t *testing.T) {
	out, err := GlobalRegistry.Format(types.AnalysisResponse{Error: "Could not extract text from PDF"}, "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, map[string]any{"error": "Could not extract text from PDF"}, decoded)
}

func TestAnalysisTextFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleResponse(), "text")
	require.NoError(t, err)

	assert.Contains(t, out, "=== RESUME ANALYSIS ===")
	assert.Contains(t, out, "Score: 25.0%")
	assert.Contains(t, out, "Matched: 2 of 8 target keywords")
	assert.Contains(t, out, "- simulink")
	assert.Contains(t, out, "1. Your resume is 25.0% aligned with Ev Engineer role")
	assert.NotContains(t, out, "<strong>")
}

func TestAnalysisMarkdownFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleResponse(), "markdown")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Resume Analysis\n"))
	assert.Contains(t, out, "**Score:** 25.0%")
	assert.Contains(t, out, "- `matlab`")
	assert.Contains(t, out, "2. **Missing Skills:** python")
	assert.Contains(t, out, "| 11 | 4 |")
}

func TestAnalysisFormattersRenderFailures(t *testing.T) {
	failed := types.AnalysisResponse{Error: "Could not extract text from PDF"}

	text, err := GlobalRegistry.Format(failed, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "ANALYSIS FAILED")
	assert.Contains(t, text, "Could not extract text from PDF")

	md, err := GlobalRegistry.Format(failed, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Resume Analysis Failed")
}

func TestRolesFormatters(t *testing.T) {
	roles := types.RolesResponse{
		Success: true,
		Roles: []types.RoleInfo{
			{ID: "ev_engineer", Name: "EV Engineer", Icon: "🚗"},
			{ID: "devops", Name: "DevOps Engineer", Icon: "⚙️"},
		},
	}

	text, err := GlobalRegistry.Format(roles, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "ev_engineer")
	assert.Contains(t, text, "DevOps Engineer")

	md, err := GlobalRegistry.Format(roles, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| 🚗 | `ev_engineer` | EV Engineer |")
}

func TestRegistryRejectsUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleResponse(), "yaml")
	assert.ErrorContains(t, err, "no formatter found for format 'yaml'")
}

func TestTypedFormattersRejectOtherTypes(t *testing.T) {
	_, err := (&AnalysisTextFormatter{}).Format("plain")
	assert.ErrorContains(t, err, "expected AnalysisResponse")

	_, err = (&RolesMarkdownFormatter{}).Format(42)
	assert.ErrorContains(t, err, "expected RolesResponse")
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}
