package domain_test

import (
	"testing"

	"counsel-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRuleSet() *domain.RuleSet {
	return &domain.RuleSet{
		Name: "vendor-selection",
		Criteria: []domain.Criterion{
			{Keywords: []string{"cheap", "budget"}, Weight: 2, Option: "vendor-a"},
			{Keywords: []string{"reliable", "uptime"}, Weight: 3, Option: "vendor-b"},
			{Keywords: []string{"fast"}, Weight: 1, Option: "vendor-a"},
		},
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	t.Run("picks highest weighted option", func(t *testing.T) {
		t.Parallel()
		v := domain.Evaluate(testRuleSet(), "We need a reliable provider with good uptime")
		assert.Equal(t, "vendor-b", v.Option)
		assert.Equal(t, 6.0, v.Score)
		assert.ElementsMatch(t, []string{"reliable", "uptime"}, v.Matched)
	})

	t.Run("accumulates weights across criteria", func(t *testing.T) {
		t.Parallel()
		v := domain.Evaluate(testRuleSet(), "cheap and fast")
		assert.Equal(t, "vendor-a", v.Option)
		assert.Equal(t, 3.0, v.Score)
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		t.Parallel()
		v := domain.Evaluate(testRuleSet(), "RELIABLE option please")
		assert.Equal(t, "vendor-b", v.Option)
	})

	t.Run("no hits yields empty option", func(t *testing.T) {
		t.Parallel()
		v := domain.Evaluate(testRuleSet(), "nothing relevant here")
		assert.Empty(t, v.Option)
		assert.Zero(t, v.Score)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	rs := testRuleSet()
	v := domain.Evaluate(rs, "reliable uptime matters")
	prompt := domain.BuildPrompt(rs, v, "reliable uptime matters")

	assert.Contains(t, prompt, rs.Name)
	assert.Contains(t, prompt, "reliable uptime matters")
	assert.Contains(t, prompt, "vendor-b")

	// 无命中时提示模型自行判断
	empty := domain.Evaluate(rs, "unrelated")
	prompt = domain.BuildPrompt(rs, empty, "unrelated")
	assert.Contains(t, prompt, "未命中")
}

func TestDefaultRuleSet(t *testing.T) {
	t.Parallel()

	rs := domain.Default()
	require.NotEmpty(t, rs.Criteria)
	assert.Equal(t, domain.DefaultName, rs.Name)
	assert.NotEmpty(t, rs.SystemPrompt)
}
