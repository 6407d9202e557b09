package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_DefaultsWhenNoLayersPresent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{
		UserPath:    filepath.Join(dir, "missing-user.yaml"),
		ProjectPath: filepath.Join(dir, "missing-project.yaml"),
		LookupEnv:   noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultTrigger, cfg.Triggers.Default)
	assert.Equal(t, DefaultMaxCostPerEvent, cfg.Limits.MaxCostPerEvent)
	assert.Equal(t, DefaultHourlyBudget, cfg.Limits.HourlyBudget)
	assert.Equal(t, float64(HardMaxHourlyBudget), cfg.Limits.HardSafetyCap)
}

func TestLoad_LaterLayersOverrideFieldByField(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.yaml", `
triggers:
  default: on-save
limits:
  max_cost_per_event: 0.10
  hourly_budget: 1.50
`)
	project := writeFile(t, dir, "project.yaml", `
limits:
  max_cost_per_event: 0.05
`)

	cfg, err := Load(Options{UserPath: user, ProjectPath: project, LookupEnv: noEnv})
	require.NoError(t, err)

	// Project overrides only the field it sets; the rest survives from user.
	assert.Equal(t, 0.05, cfg.Limits.MaxCostPerEvent)
	assert.Equal(t, 1.50, cfg.Limits.HourlyBudget)
	assert.Equal(t, TriggerOnSave, cfg.Triggers.Default)
}

func TestLoad_HardCapForcedRegardlessOfLayers(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, "project.yaml", `
limits:
  max_cost_per_event: 99.0
  hourly_budget: 500.0
  hard_safety_cap: 1000.0
`)

	cfg, err := Load(Options{
		UserPath:    filepath.Join(dir, "none.yaml"),
		ProjectPath: project,
		LookupEnv:   noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(HardMaxCostPerEvent), cfg.Limits.MaxCostPerEvent)
	assert.Equal(t, float64(HardMaxHourlyBudget), cfg.Limits.HourlyBudget)
	assert.Equal(t, float64(HardMaxHourlyBudget), cfg.Limits.HardSafetyCap)
}

func TestLoad_RuleCeilingsClamped(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, "project.yaml", `
triggers:
  rules:
    - glob: "docs/**"
      mode: on-save
      max_cost_per_event: 7.5
`)
	cfg, err := Load(Options{
		UserPath:    filepath.Join(dir, "none.yaml"),
		ProjectPath: project,
		LookupEnv:   noEnv,
	})
	require.NoError(t, err)
	require.Len(t, cfg.Triggers.Rules, 1)
	assert.Equal(t, float64(HardMaxCostPerEvent), cfg.Triggers.Rules[0].MaxCostPerEvent)
}

func TestLoad_MalformedLayerFailsWholeLoad(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.yaml", "triggers: [not: valid: yaml")

	_, err := Load(Options{
		UserPath:    user,
		ProjectPath: filepath.Join(dir, "none.yaml"),
		LookupEnv:   noEnv,
	})
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, LayerUser, cfgErr.Layer)
	assert.Equal(t, user, cfgErr.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{
		UserPath:    filepath.Join(dir, "none.yaml"),
		ProjectPath: filepath.Join(dir, "none2.yaml"),
		LookupEnv: envMap(map[string]string{
			EnvDefaultTrigger:  "manual",
			EnvMaxCostPerEvent: "0.02",
			EnvHourlyBudget:    "0.75",
			EnvNotifyOnFail:    "block",
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, TriggerManual, cfg.Triggers.Default)
	assert.Equal(t, 0.02, cfg.Limits.MaxCostPerEvent)
	assert.Equal(t, 0.75, cfg.Limits.HourlyBudget)
	assert.Equal(t, NotifyBlock, cfg.Notify.OnValidationFail)
}

func TestLoad_UnparsableEnvFailsLoad(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(Options{
		UserPath:    filepath.Join(dir, "none.yaml"),
		ProjectPath: filepath.Join(dir, "none2.yaml"),
		LookupEnv:   envMap(map[string]string{EnvHourlyBudget: "ten dollars"}),
	})
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, LayerEnvironment, cfgErr.Layer)
}

func TestLoad_UnknownTriggerModeRejected(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, "project.yaml", `
triggers:
  default: on-coffee
`)
	_, err := Load(Options{
		UserPath:    filepath.Join(dir, "none.yaml"),
		ProjectPath: project,
		LookupEnv:   noEnv,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on-coffee")
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "limits:\n  hourly_budget: 1.0\n")
	bad := writeFile(t, dir, "bad.yaml", "limits: [}\n")

	assert.NoError(t, ValidateFile(good))
	assert.Error(t, ValidateFile(bad))
	assert.Error(t, ValidateFile(filepath.Join(dir, "missing.yaml")))
}

func TestEffectiveYAML_IncludesHardCap(t *testing.T) {
	cfg := Defaults()
	out, err := cfg.EffectiveYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "hard_safety_cap: 10")
}

func TestGetSet_EnumeratedKeys(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, ProjectConfigName)

	require.NoError(t, SetKey(project, "limits.hourly_budget", "1.25"))
	require.NoError(t, SetKey(project, "triggers.default", "on-push"))

	cfg, err := Load(Options{
		UserPath:    filepath.Join(dir, "none.yaml"),
		ProjectPath: project,
		LookupEnv:   noEnv,
	})
	require.NoError(t, err)

	v, err := cfg.Get("limits.hourly_budget")
	require.NoError(t, err)
	assert.Equal(t, "1.25", v)

	v, err = cfg.Get("triggers.default")
	require.NoError(t, err)
	assert.Equal(t, "on-push", v)
}

func TestSet_PreservesOtherFields(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, ProjectConfigName, `
limits:
  max_cost_per_event: 0.03
`)
	require.NoError(t, SetKey(project, "limits.hourly_budget", "0.90"))

	cfg, err := Load(Options{
		UserPath:    filepath.Join(dir, "none.yaml"),
		ProjectPath: project,
		LookupEnv:   noEnv,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.03, cfg.Limits.MaxCostPerEvent)
	assert.Equal(t, 0.90, cfg.Limits.HourlyBudget)
}

func TestSet_RejectsUnknownAndReadOnlyKeys(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, ProjectConfigName)

	err := SetKey(project, "limits.hard_safety_cap", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiled in")

	err = SetKey(project, "no.such.key", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")

	err = SetKey(project, "triggers.default", "sometimes")
	require.Error(t, err)
}

func TestGet_UnknownKeyListsKnownKeys(t *testing.T) {
	cfg := Defaults()
	_, err := cfg.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "triggers.default")
}
