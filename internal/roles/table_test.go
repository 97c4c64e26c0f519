package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetKeywords(t *testing.T) {
	tests := []struct {
		name  string
		role  string
		count int
		first string
		last  string
	}{
		{"ev engineer", "ev_engineer", 16, "matlab", "thermal management"},
		{"data scientist", "data_scientist", 14, "python", "powerbi"},
		{"full stack", "full_stack", 14, "javascript", "graphql"},
		{"ml engineer", "ml_engineer", 13, "python", "reinforcement learning"},
		{"cybersecurity", "cybersecurity", 12, "python", "cryptography"},
		{"mixed case", "Full_Stack", 14, "javascript", "graphql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TargetKeywords(tt.role)
			require.Len(t, got, tt.count)
			assert.Equal(t, tt.first, got[0])
			assert.Equal(t, tt.last, got[len(got)-1])
		})
	}
}

func TestTargetKeywordsUnknownAndEmptyRoles(t *testing.T) {
	for _, role := range []string{"astronaut", "", "product_manager", "ux_designer", "devops"} {
		got := TargetKeywords(role)
		assert.NotNil(t, got, role)
		assert.Empty(t, got, role)
	}
}

func TestTargetKeywordsReturnsCopy(t *testing.T) {
	first := TargetKeywords("full_stack")
	first[0] = "cobol"

	assert.Equal(t, "javascript", TargetKeywords("full_stack")[0])
}

func TestCatalog(t *testing.T) {
	catalog := Default().Catalog()
	require.Len(t, catalog, 8)

	ids := make([]string, 0, len(catalog))
	for _, r := range catalog {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{
		"ev_engineer", "data_scientist", "full_stack", "ml_engineer",
		"cybersecurity", "product_manager", "ux_designer", "devops",
	}, ids)

	assert.Equal(t, "Full Stack Developer", catalog[2].Name)
	assert.Equal(t, "💻", catalog[2].Icon)
	assert.Equal(t, "DevOps Engineer", catalog[7].Name)
	assert.Equal(t, "⚙️", catalog[7].Icon)
}

func TestHas(t *testing.T) {
	table := Default()

	assert.True(t, table.Has("CYBERSECURITY"))
	assert.Contains(t, table.TargetKeywords("cybersecurity"), "burp suite")
	assert.True(t, table.Has("devops"))
	assert.False(t, table.Has("chef"))
	assert.Equal(t, 8, table.Len())
}
