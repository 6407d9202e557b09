// Package config - types.go defines the effective configuration structure.
//
// DESIGN: One explicit typed struct instead of a generic YAML tree. The merge
// and clamp invariants in load.go stay type-checked, and the CLI get/set
// surface is a small enumerated accessor table (accessors.go) rather than a
// dotted-path tree walker.
package config

import "fmt"

// Trigger modes. A mode decides whether an automated action may fire for a
// path; "disabled" short-circuits all downstream processing silently.
const (
	TriggerManual   = "manual"
	TriggerOnSave   = "on-save"
	TriggerOnCommit = "on-commit"
	TriggerOnPush   = "on-push"
	TriggerDisabled = "disabled"
)

// Validation-failure notification policies.
const (
	NotifySilent = "silent"
	NotifyWarn   = "warn"
	NotifyBlock  = "block"
)

// Config is the immutable effective configuration, one per process lifetime.
type Config struct {
	Triggers   TriggersConfig    `yaml:"triggers"`
	Limits     LimitsConfig      `yaml:"limits"`
	Models     map[string]string `yaml:"models,omitempty"`
	Notify     NotifyConfig      `yaml:"notify"`
	Monitoring MonitoringConfig  `yaml:"monitoring"`
}

// TriggersConfig holds the default mode and the ordered pattern rules.
type TriggersConfig struct {
	Default string        `yaml:"default"`
	Rules   []PatternRule `yaml:"rules,omitempty"`
}

// PatternRule maps a glob to a trigger mode, optionally with its own per-event
// cost ceiling. Rules are evaluated in source order; first match wins.
// Glob semantics: '*' matches any run of characters excluding '/',
// '**' matches any run of whole path segments including separators.
type PatternRule struct {
	Glob string `yaml:"glob"`
	Mode string `yaml:"mode"`
	// MaxCostPerEvent overrides limits.max_cost_per_event for matching paths.
	// 0 means inherit the global limit.
	MaxCostPerEvent float64 `yaml:"max_cost_per_event,omitempty"`
}

// LimitsConfig holds spending limits in USD.
type LimitsConfig struct {
	MaxCostPerEvent float64 `yaml:"max_cost_per_event"`
	HourlyBudget    float64 `yaml:"hourly_budget"`
	// HardSafetyCap is compiled in (HardMaxHourlyBudget). It is parsed from no
	// layer and forcibly reset after every merge; the yaml tag exists only so
	// the effective dump shows it.
	HardSafetyCap float64 `yaml:"hard_safety_cap"`
}

// NotifyConfig holds the notification policy.
type NotifyConfig struct {
	OnValidationFail string `yaml:"on_validation_fail"`
}

// MonitoringConfig contains logging and audit-path configuration.
type MonitoringConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error, off
	LogFormat string `yaml:"log_format"` // json, console
	AuditPath string `yaml:"audit_path"` // empty = default state dir
}

// ValidTriggerMode reports whether s is a recognized trigger mode.
func ValidTriggerMode(s string) bool {
	switch s {
	case TriggerManual, TriggerOnSave, TriggerOnCommit, TriggerOnPush, TriggerDisabled:
		return true
	}
	return false
}

// ValidNotifyPolicy reports whether s is a recognized notification policy.
func ValidNotifyPolicy(s string) bool {
	switch s {
	case NotifySilent, NotifyWarn, NotifyBlock:
		return true
	}
	return false
}

// Validate checks semantic constraints on a merged config.
func (c *Config) Validate() error {
	if !ValidTriggerMode(c.Triggers.Default) {
		return fmt.Errorf("triggers.default: unknown trigger mode %q", c.Triggers.Default)
	}
	for i, r := range c.Triggers.Rules {
		if r.Glob == "" {
			return fmt.Errorf("triggers.rules[%d]: glob must not be empty", i)
		}
		if !ValidTriggerMode(r.Mode) {
			return fmt.Errorf("triggers.rules[%d]: unknown trigger mode %q", i, r.Mode)
		}
		if r.MaxCostPerEvent < 0 {
			return fmt.Errorf("triggers.rules[%d]: max_cost_per_event must be >= 0, got %f", i, r.MaxCostPerEvent)
		}
	}
	if c.Limits.MaxCostPerEvent < 0 {
		return fmt.Errorf("limits.max_cost_per_event must be >= 0, got %f", c.Limits.MaxCostPerEvent)
	}
	if c.Limits.HourlyBudget < 0 {
		return fmt.Errorf("limits.hourly_budget must be >= 0, got %f", c.Limits.HourlyBudget)
	}
	if !ValidNotifyPolicy(c.Notify.OnValidationFail) {
		return fmt.Errorf("notify.on_validation_fail: unknown policy %q", c.Notify.OnValidationFail)
	}
	return nil
}
