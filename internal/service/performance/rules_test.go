package performance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesAreValid(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
rules:
  - feature: punctuality_score
    strong: {op: ">=", value: 95, message: "Always on time"}
    weak:
      op: "<"
      value: 60
      message: "Often late"
      recommendation: "Talk to your lead about start times."
lowest_tier_recommendation: "Book a review."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rs, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, "Always on time", rs.Rules[0].Strong.Message)
	assert.Equal(t, 60.0, rs.Rules[0].Weak.Value)
	assert.Equal(t, "Book a review.", rs.LowestTierRecommendation)
}

func TestParseRules_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key": `
rules:
  - feature: punctuality_score
    strong: {op: ">=", value: 90, message: "ok", colour: red}
`,
		"unknown feature": `
rules:
  - feature: happiness
    strong: {op: ">=", value: 90, message: "ok"}
`,
		"bad op": `
rules:
  - feature: punctuality_score
    strong: {op: "=>", value: 90, message: "ok"}
`,
		"weak without recommendation": `
rules:
  - feature: punctuality_score
    weak: {op: "<", value: 50, message: "late"}
`,
		"empty": ``,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRules([]byte(content))
			assert.ErrorIs(t, err, performance.ErrInvalidInsightRuleFile)
		})
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, performance.ErrInvalidInsightRuleFile)
}
