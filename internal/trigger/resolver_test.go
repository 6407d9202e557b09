package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docsmith/docsmith/internal/config"
)

func testConfig(rules ...config.PatternRule) *config.Config {
	cfg := config.Defaults()
	cfg.Triggers.Default = config.TriggerOnCommit
	cfg.Triggers.Rules = rules
	cfg.Limits.MaxCostPerEvent = 0.25
	return cfg
}

func TestMatch_StarDoesNotCrossSeparator(t *testing.T) {
	assert.True(t, Match("tests/*", "tests/foo.py"))
	assert.False(t, Match("tests/*", "tests/sub/foo.py"))
	assert.True(t, Match("*.go", "main.go"))
	assert.False(t, Match("*.go", "pkg/main.go"))
	assert.True(t, Match("src/*_test.go", "src/parser_test.go"))
}

func TestMatch_DoubleStarCrossesSegments(t *testing.T) {
	assert.True(t, Match("docs/**", "docs/a/b/c.md"))
	assert.True(t, Match("docs/**", "docs/readme.md"))
	assert.True(t, Match("**/vendor/**", "a/b/vendor/x/y.go"))
	assert.True(t, Match("**/*.md", "deep/nested/file.md"))
	assert.True(t, Match("**/*.md", "file.md"))
	assert.False(t, Match("docs/**", "src/readme.md"))
}

func TestMatch_MalformedPatternMatchesNothing(t *testing.T) {
	assert.False(t, Match("[", "["))
}

func TestResolve_FirstMatchWins(t *testing.T) {
	r := New(testConfig(
		config.PatternRule{Glob: "docs/**", Mode: config.TriggerOnSave, MaxCostPerEvent: 0.10},
		config.PatternRule{Glob: "docs/generated/*", Mode: config.TriggerDisabled},
	))

	// Both rules match; source order decides.
	res := r.Resolve("docs/generated/api.md")
	assert.Equal(t, config.TriggerOnSave, res.Mode)
	assert.Equal(t, 0.10, res.MaxCostPerEvent)
}

func TestResolve_NoMatchFallsBackToDefaults(t *testing.T) {
	r := New(testConfig(
		config.PatternRule{Glob: "docs/**", Mode: config.TriggerOnSave},
	))

	res := r.Resolve("src/main.go")
	assert.Equal(t, config.TriggerOnCommit, res.Mode)
	assert.Equal(t, 0.25, res.MaxCostPerEvent)
}

func TestResolve_RuleWithoutCeilingInheritsGlobalLimit(t *testing.T) {
	r := New(testConfig(
		config.PatternRule{Glob: "docs/**", Mode: config.TriggerOnSave},
	))

	res := r.Resolve("docs/readme.md")
	assert.Equal(t, config.TriggerOnSave, res.Mode)
	assert.Equal(t, 0.25, res.MaxCostPerEvent)
}

func TestResolve_ManualScenario(t *testing.T) {
	r := New(testConfig(
		config.PatternRule{Glob: "tests/*", Mode: config.TriggerManual},
	))

	res := r.Resolve("tests/foo.py")
	assert.Equal(t, config.TriggerManual, res.Mode)
}

func TestResolve_Idempotent(t *testing.T) {
	r := New(testConfig(
		config.PatternRule{Glob: "**/*.md", Mode: config.TriggerOnSave, MaxCostPerEvent: 0.05},
	))

	first := r.Resolve("notes/today.md")
	second := r.Resolve("notes/today.md")
	assert.Equal(t, first, second)
}

func TestResolve_NormalizesPaths(t *testing.T) {
	r := New(testConfig(
		config.PatternRule{Glob: "docs/*", Mode: config.TriggerOnSave},
	))

	assert.Equal(t, config.TriggerOnSave, r.Resolve("./docs/readme.md").Mode)
}
