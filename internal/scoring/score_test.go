package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skillmatch/internal/keywords"
	"skillmatch/internal/roles"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		found    []string
		target   []string
		score    float64
		matching []string
		missing  []string
	}{
		{
			name:     "partial match",
			found:    []string{"python", "react", "aws", "agile"},
			target:   []string{"javascript", "react", "aws", "git"},
			score:    50,
			matching: []string{"react", "aws"},
			missing:  []string{"javascript", "git"},
		},
		{
			name:     "full match",
			found:    []string{"go", "docker"},
			target:   []string{"docker", "go"},
			score:    100,
			matching: []string{"docker", "go"},
			missing:  []string{},
		},
		{
			name:     "nothing found",
			found:    []string{},
			target:   []string{"sql", "r", "python"},
			score:    0,
			matching: []string{},
			missing:  []string{"sql", "r", "python"},
		},
		{
			name:     "empty target",
			found:    []string{"python"},
			target:   []string{},
			score:    0,
			matching: []string{},
			missing:  []string{},
		},
		{
			name:     "duplicate targets counted once",
			found:    []string{"python"},
			target:   []string{"python", "sql", "python"},
			score:    50,
			matching: []string{"python"},
			missing:  []string{"sql"},
		},
		{
			name:     "rounds to two decimals",
			found:    []string{"a"},
			target:   []string{"a", "b", "c"},
			score:    33.33,
			matching: []string{"a"},
			missing:  []string{"b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.found, tt.target)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.matching, got.MatchingKeywords)
			assert.Equal(t, tt.missing, got.MissingKeywords)
			assert.Equal(t, len(got.MatchingKeywords), got.MatchCount)
			assert.Equal(t, len(tt.matching)+len(tt.missing), got.TotalTargetKeywords)
		})
	}
}

func TestScorePartitionsTarget(t *testing.T) {
	found := keywords.Match("Python, SQL, pandas and Tableau dashboards; some C++", keywords.DefaultVocabulary())

	for _, role := range []string{"ev_engineer", "data_scientist", "full_stack", "ml_engineer", "cybersecurity"} {
		t.Run(role, func(t *testing.T) {
			target := roles.TargetKeywords(role)
			got := Score(found, target)

			union := append(append([]string{}, got.MatchingKeywords...), got.MissingKeywords...)
			assert.ElementsMatch(t, target, union)
			for _, k := range got.MatchingKeywords {
				assert.NotContains(t, got.MissingKeywords, k)
			}
			assert.GreaterOrEqual(t, got.Score, 0.0)
			assert.LessOrEqual(t, got.Score, 100.0)
		})
	}
}

func TestScoreUnknownRole(t *testing.T) {
	found := []string{"python", "docker"}
	got := Score(found, roles.TargetKeywords("astronaut"))

	assert.Zero(t, got.Score)
	assert.Empty(t, got.MatchingKeywords)
	assert.Empty(t, got.MissingKeywords)
	assert.Zero(t, got.TotalTargetKeywords)
}

func TestScoreIsIdempotent(t *testing.T) {
	found := []string{"react", "aws"}
	target := roles.TargetKeywords("full_stack")

	assert.Equal(t, Score(found, target), Score(found, target))
}

func TestScoreScenarios(t *testing.T) {
	t.Run("full stack resume", func(t *testing.T) {
		found := keywords.Match("Experienced in Python, React, and AWS. Led Agile teams.", keywords.DefaultVocabulary())
		got := Score(found, roles.TargetKeywords("full_stack"))

		assert.Equal(t, []string{"react", "aws"}, got.MatchingKeywords)
		assert.Equal(t, 14.29, got.Score)
		assert.Equal(t, 2, got.MatchCount)
		assert.Equal(t, 14, got.TotalTargetKeywords)
		assert.Len(t, got.MissingKeywords, 12)
	})

	t.Run("ev engineer resume", func(t *testing.T) {
		found := keywords.Match("MATLAB, Simulink, and SolidWorks experience in battery thermal management",
			keywords.DefaultVocabulary())
		got := Score(found, roles.TargetKeywords("ev_engineer"))

		assert.Equal(t, []string{"matlab", "simulink", "solidworks", "battery"}, got.MatchingKeywords)
		assert.Equal(t, 25.0, got.Score)
		assert.Equal(t, 16, got.TotalTargetKeywords)
	})
}
