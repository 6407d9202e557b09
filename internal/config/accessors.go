// Package config - accessors.go exposes the enumerated dotted-key surface for
// the CLI. Deliberately not a generic tree walker: every key is listed here so
// the merge/clamp invariants stay type-checked. hard_safety_cap is get-only.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type accessor struct {
	get func(*Config) string
	// set applies a validated value to the project-local overlay.
	// nil marks the key read-only.
	set func(*fileConfig, string) error
}

var accessors = map[string]accessor{
	"triggers.default": {
		get: func(c *Config) string { return c.Triggers.Default },
		set: func(fc *fileConfig, v string) error {
			if !ValidTriggerMode(v) {
				return fmt.Errorf("unknown trigger mode %q", v)
			}
			ensureTriggers(fc).Default = &v
			return nil
		},
	},
	"limits.max_cost_per_event": {
		get: func(c *Config) string { return formatUSD(c.Limits.MaxCostPerEvent) },
		set: func(fc *fileConfig, v string) error {
			f, err := parseNonNegative(v)
			if err != nil {
				return err
			}
			ensureLimits(fc).MaxCostPerEvent = &f
			return nil
		},
	},
	"limits.hourly_budget": {
		get: func(c *Config) string { return formatUSD(c.Limits.HourlyBudget) },
		set: func(fc *fileConfig, v string) error {
			f, err := parseNonNegative(v)
			if err != nil {
				return err
			}
			ensureLimits(fc).HourlyBudget = &f
			return nil
		},
	},
	"limits.hard_safety_cap": {
		get: func(c *Config) string { return formatUSD(c.Limits.HardSafetyCap) },
		// Compiled in; no set.
	},
	"notify.on_validation_fail": {
		get: func(c *Config) string { return c.Notify.OnValidationFail },
		set: func(fc *fileConfig, v string) error {
			if !ValidNotifyPolicy(v) {
				return fmt.Errorf("unknown notify policy %q", v)
			}
			ensureNotify(fc).OnValidationFail = &v
			return nil
		},
	},
	"monitoring.log_level": {
		get: func(c *Config) string { return c.Monitoring.LogLevel },
		set: func(fc *fileConfig, v string) error {
			ensureMonitoring(fc).LogLevel = &v
			return nil
		},
	},
	"monitoring.log_format": {
		get: func(c *Config) string { return c.Monitoring.LogFormat },
		set: func(fc *fileConfig, v string) error {
			if v != "json" && v != "console" {
				return fmt.Errorf("log_format must be json or console, got %q", v)
			}
			ensureMonitoring(fc).LogFormat = &v
			return nil
		},
	},
	"monitoring.audit_path": {
		get: func(c *Config) string { return c.AuditPath() },
		set: func(fc *fileConfig, v string) error {
			ensureMonitoring(fc).AuditPath = &v
			return nil
		},
	},
}

// Keys returns the enumerated dotted keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the effective value of one dotted key.
func (c *Config) Get(key string) (string, error) {
	a, ok := accessors[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
	}
	return a.get(c), nil
}

// SetKey validates value and writes it into the project-local config file,
// preserving the file's other fields. The effective config of a running
// process is immutable; the change applies on next load.
func SetKey(projectPath, key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
	}
	if a.set == nil {
		return fmt.Errorf("config key %q is compiled in and cannot be set", key)
	}

	var fc fileConfig
	data, err := os.ReadFile(projectPath) // #nosec G304 -- project config location
	if err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return &ConfigError{Layer: LayerProject, Path: projectPath, Err: err}
		}
	} else if !os.IsNotExist(err) {
		return &ConfigError{Layer: LayerProject, Path: projectPath, Err: err}
	}

	if err := a.set(&fc, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	out, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := os.WriteFile(projectPath, out, 0600); err != nil {
		return &ConfigError{Layer: LayerProject, Path: projectPath, Err: err}
	}
	return nil
}

func parseNonNegative(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("must be >= 0, got %s", v)
	}
	return f, nil
}

func formatUSD(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ensureTriggers(fc *fileConfig) *fileTriggers {
	if fc.Triggers == nil {
		fc.Triggers = &fileTriggers{}
	}
	return fc.Triggers
}

func ensureLimits(fc *fileConfig) *fileLimits {
	if fc.Limits == nil {
		fc.Limits = &fileLimits{}
	}
	return fc.Limits
}

func ensureNotify(fc *fileConfig) *fileNotify {
	if fc.Notify == nil {
		fc.Notify = &fileNotify{}
	}
	return fc.Notify
}

func ensureMonitoring(fc *fileConfig) *fileMonitoring {
	if fc.Monitoring == nil {
		fc.Monitoring = &fileMonitoring{}
	}
	return fc.Monitoring
}
