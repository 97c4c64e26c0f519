package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/types"
)

func TestRecommendationsBands(t *testing.T) {
	tests := []struct {
		name   string
		result types.AnalysisResult
		role   string
		want   []string
	}{
		{
			name: "foundational",
			result: types.AnalysisResult{
				Score:               25,
				MissingKeywords:     []string{"ansys", "catia", "electric vehicle", "bms", "powertrain", "cfd"},
				TotalTargetKeywords: 16,
			},
			role: "ev_engineer",
			want: []string{
				"Your resume is <strong>25.0%</strong> aligned with Ev Engineer role",
				"Consider taking foundational courses in core technologies",
				"Build 2-3 projects showcasing required skills",
				"<strong>Missing Skills:</strong> ansys, catia, electric vehicle, bms, powertrain",
			},
		},
		{
			name: "developing",
			result: types.AnalysisResult{
				Score:               42.86,
				MissingKeywords:     []string{"sql", "r"},
				TotalTargetKeywords: 7,
			},
			role: "data_scientist",
			want: []string{
				"Good start! Your resume is <strong>42.86%</strong> aligned",
				"Focus on gaining practical experience with missing skills",
				"Add certifications and detailed project descriptions",
				"<strong>Missing Skills:</strong> sql, r",
			},
		},
		{
			name: "boundary at thirty",
			result: types.AnalysisResult{
				Score:               30,
				MissingKeywords:     []string{},
				TotalTargetKeywords: 10,
			},
			role: "full_stack",
			want: []string{
				"Good start! Your resume is <strong>30.0%</strong> aligned",
				"Focus on gaining practical experience with missing skills",
				"Add certifications and detailed project descriptions",
			},
		},
		{
			name: "just below sixty",
			result: types.AnalysisResult{
				Score:               59.99,
				MissingKeywords:     []string{},
				TotalTargetKeywords: 10,
			},
			role: "devops",
			want: []string{
				"Good start! Your resume is <strong>59.99%</strong> aligned",
				"Focus on gaining practical experience with missing skills",
				"Add certifications and detailed project descriptions",
			},
		},
		{
			name: "boundary at sixty",
			result: types.AnalysisResult{
				Score:               60,
				MissingKeywords:     []string{},
				TotalTargetKeywords: 5,
			},
			role: "devops",
			want: []string{
				"Excellent! Your resume is <strong>60.0%</strong> aligned",
				"Consider adding leadership experiences and complex projects",
				"Highlight specific achievements with metrics",
			},
		},
		{
			name: "excellent with nothing missing",
			result: types.AnalysisResult{
				Score:               100,
				MissingKeywords:     []string{},
				TotalTargetKeywords: 3,
			},
			role: "ml_engineer",
			want: []string{
				"Excellent! Your resume is <strong>100.0%</strong> aligned",
				"Consider adding leadership experiences and complex projects",
				"Highlight specific achievements with metrics",
			},
		},
		{
			name:   "empty target",
			result: types.AnalysisResult{MissingKeywords: []string{}},
			role:   "product_manager",
			want: []string{
				"Your resume is <strong>0%</strong> aligned with Product Manager role",
				"Consider taking foundational courses in core technologies",
				"Build 2-3 projects showcasing required skills",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommendations(tt.result, tt.role))
		})
	}
}

func TestRecommendationsFullStackScenario(t *testing.T) {
	result := Score([]string{"python", "react", "aws", "agile"}, []string{
		"javascript", "react", "node", "express", "mongodb", "postgresql", "html",
		"css", "typescript", "docker", "aws", "git", "rest api", "graphql",
	})

	recs := Recommendations(result, "full_stack")
	require.Len(t, recs, 4)
	assert.Equal(t, "Your resume is <strong>14.29%</strong> aligned with Full Stack role", recs[0])
	assert.Equal(t, "<strong>Missing Skills:</strong> javascript, node, express, mongodb, postgresql", recs[3])
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score float64
		total int
		want  string
	}{
		{0, 0, "0"},
		{0, 5, "0.0"},
		{25, 16, "25.0"},
		{14.29, 14, "14.29"},
		{33.3, 10, "33.3"},
		{100, 4, "100.0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatScore(types.AnalysisResult{Score: tt.score, TotalTargetKeywords: tt.total})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleTitle(t *testing.T) {
	assert.Equal(t, "Ev Engineer", RoleTitle("ev_engineer"))
	assert.Equal(t, "Data Scientist", RoleTitle("data_scientist"))
	assert.Equal(t, "Cybersecurity", RoleTitle("cybersecurity"))
	assert.Equal(t, "Full Stack", RoleTitle("FULL_STACK"))
}
