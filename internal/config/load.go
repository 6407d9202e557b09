// Package config - load.go implements the layered merge.
//
// DESIGN: Later layers override earlier ones field-by-field, never wholesale:
//
//	built-in defaults -> user-global file -> project-local file -> environment
//
// followed by a clamp pass that cannot be disabled: limits are forced back
// under the compiled hard ceilings and hard_safety_cap is reset to the
// constant regardless of anything any layer said. A malformed layer fails the
// whole load; the caller must fail closed (deny all triggers) rather than run
// with an unvalidated config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Layer names used in ConfigError, in merge order.
const (
	LayerUser        = "user"
	LayerProject     = "project"
	LayerEnvironment = "environment"
)

// ConfigError reports which layer failed to load and why. Both syntax and IO
// failures are fatal to the load; the wrapped error distinguishes them.
type ConfigError struct {
	Layer string
	Path  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config layer %s (%s): %v", e.Layer, e.Path, e.Err)
	}
	return fmt.Sprintf("config layer %s: %v", e.Layer, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Options controls where Load looks for each layer. Zero values fall back to
// the standard locations; tests point them at temp files.
type Options struct {
	UserPath    string // user-global config file
	ProjectPath string // project-local config file
	EnvFile     string // optional .env file loaded before env overrides
	LookupEnv   func(string) (string, bool)
}

// fileConfig mirrors Config with pointer leaves so absent fields keep the
// lower layer's values instead of zeroing them.
type fileConfig struct {
	Triggers   *fileTriggers     `yaml:"triggers,omitempty"`
	Limits     *fileLimits       `yaml:"limits,omitempty"`
	Models     map[string]string `yaml:"models,omitempty"`
	Notify     *fileNotify       `yaml:"notify,omitempty"`
	Monitoring *fileMonitoring   `yaml:"monitoring,omitempty"`
}

type fileTriggers struct {
	Default *string       `yaml:"default,omitempty"`
	Rules   []PatternRule `yaml:"rules,omitempty"`
}

// fileLimits deliberately has no hard_safety_cap field: no layer can supply it.
type fileLimits struct {
	MaxCostPerEvent *float64 `yaml:"max_cost_per_event,omitempty"`
	HourlyBudget    *float64 `yaml:"hourly_budget,omitempty"`
}

type fileNotify struct {
	OnValidationFail *string `yaml:"on_validation_fail,omitempty"`
}

type fileMonitoring struct {
	LogLevel  *string `yaml:"log_level,omitempty"`
	LogFormat *string `yaml:"log_format,omitempty"`
	AuditPath *string `yaml:"audit_path,omitempty"`
}

// Defaults returns the built-in base layer.
func Defaults() *Config {
	return &Config{
		Triggers: TriggersConfig{Default: DefaultTrigger},
		Limits: LimitsConfig{
			MaxCostPerEvent: DefaultMaxCostPerEvent,
			HourlyBudget:    DefaultHourlyBudget,
			HardSafetyCap:   HardMaxHourlyBudget,
		},
		Models: map[string]string{
			"fast":     "claude-haiku-4-5",
			"standard": "claude-sonnet-4-5",
		},
		Notify: NotifyConfig{OnValidationFail: DefaultNotifyOnValidationFail},
		Monitoring: MonitoringConfig{
			LogLevel:  DefaultLogLevel,
			LogFormat: DefaultLogFormat,
		},
	}
}

// Load merges all layers into one immutable effective config.
func Load(opts Options) (*Config, error) {
	if opts.UserPath == "" {
		opts.UserPath = DefaultUserPath()
	}
	if opts.ProjectPath == "" {
		opts.ProjectPath = ProjectConfigName
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	cfg := Defaults()

	if err := mergeFile(cfg, LayerUser, opts.UserPath); err != nil {
		return nil, err
	}
	if err := mergeFile(cfg, LayerProject, opts.ProjectPath); err != nil {
		return nil, err
	}
	if err := mergeEnv(cfg, opts); err != nil {
		return nil, err
	}

	clamp(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Layer: "merged", Err: err}
	}
	return cfg, nil
}

// mergeFile overlays one YAML layer onto cfg. A missing file is not an error;
// an unreadable or unparsable one fails the whole load.
func mergeFile(cfg *Config, layer, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from fixed config locations or an operator flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &ConfigError{Layer: layer, Path: path, Err: err}
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &ConfigError{Layer: layer, Path: path, Err: err}
	}

	overlay(cfg, &fc)
	return nil
}

func overlay(cfg *Config, fc *fileConfig) {
	if fc.Triggers != nil {
		if fc.Triggers.Default != nil {
			cfg.Triggers.Default = *fc.Triggers.Default
		}
		if fc.Triggers.Rules != nil {
			cfg.Triggers.Rules = append([]PatternRule(nil), fc.Triggers.Rules...)
		}
	}
	if fc.Limits != nil {
		if fc.Limits.MaxCostPerEvent != nil {
			cfg.Limits.MaxCostPerEvent = *fc.Limits.MaxCostPerEvent
		}
		if fc.Limits.HourlyBudget != nil {
			cfg.Limits.HourlyBudget = *fc.Limits.HourlyBudget
		}
	}
	if fc.Models != nil {
		if cfg.Models == nil {
			cfg.Models = make(map[string]string, len(fc.Models))
		}
		for name, id := range fc.Models {
			cfg.Models[name] = id
		}
	}
	if fc.Notify != nil && fc.Notify.OnValidationFail != nil {
		cfg.Notify.OnValidationFail = *fc.Notify.OnValidationFail
	}
	if fc.Monitoring != nil {
		if fc.Monitoring.LogLevel != nil {
			cfg.Monitoring.LogLevel = *fc.Monitoring.LogLevel
		}
		if fc.Monitoring.LogFormat != nil {
			cfg.Monitoring.LogFormat = *fc.Monitoring.LogFormat
		}
		if fc.Monitoring.AuditPath != nil {
			cfg.Monitoring.AuditPath = *fc.Monitoring.AuditPath
		}
	}
}

// mergeEnv applies recognized environment variables, each mapping to exactly
// one leaf field. An unparsable value fails the load like a malformed file.
func mergeEnv(cfg *Config, opts Options) error {
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := godotenv.Load(opts.EnvFile); err != nil {
				return &ConfigError{Layer: LayerEnvironment, Path: opts.EnvFile, Err: err}
			}
		}
	}

	if v, ok := opts.LookupEnv(EnvDefaultTrigger); ok {
		if !ValidTriggerMode(v) {
			return &ConfigError{Layer: LayerEnvironment, Path: EnvDefaultTrigger,
				Err: fmt.Errorf("unknown trigger mode %q", v)}
		}
		cfg.Triggers.Default = v
	}
	if v, ok := opts.LookupEnv(EnvMaxCostPerEvent); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ConfigError{Layer: LayerEnvironment, Path: EnvMaxCostPerEvent, Err: err}
		}
		cfg.Limits.MaxCostPerEvent = f
	}
	if v, ok := opts.LookupEnv(EnvHourlyBudget); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ConfigError{Layer: LayerEnvironment, Path: EnvHourlyBudget, Err: err}
		}
		cfg.Limits.HourlyBudget = f
	}
	if v, ok := opts.LookupEnv(EnvNotifyOnFail); ok {
		if !ValidNotifyPolicy(v) {
			return &ConfigError{Layer: LayerEnvironment, Path: EnvNotifyOnFail,
				Err: fmt.Errorf("unknown notify policy %q", v)}
		}
		cfg.Notify.OnValidationFail = v
	}
	return nil
}

// clamp is the final non-parameterizable pass: limits are forced under the
// compiled ceilings and hard_safety_cap is reset to the constant.
func clamp(cfg *Config) {
	if cfg.Limits.MaxCostPerEvent > HardMaxCostPerEvent {
		cfg.Limits.MaxCostPerEvent = HardMaxCostPerEvent
	}
	if cfg.Limits.HourlyBudget > HardMaxHourlyBudget {
		cfg.Limits.HourlyBudget = HardMaxHourlyBudget
	}
	for i := range cfg.Triggers.Rules {
		if cfg.Triggers.Rules[i].MaxCostPerEvent > HardMaxCostPerEvent {
			cfg.Triggers.Rules[i].MaxCostPerEvent = HardMaxCostPerEvent
		}
	}
	cfg.Limits.HardSafetyCap = HardMaxHourlyBudget
}

// ValidateFile is the pure syntax check behind `docsmith config validate`:
// it parses one layer file and reports errors without touching process state.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return &ConfigError{Layer: "file", Path: path, Err: err}
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &ConfigError{Layer: "file", Path: path, Err: err}
	}
	return nil
}

// EffectiveYAML dumps the fully merged structure, hard cap included.
func (c *Config) EffectiveYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// DefaultUserPath returns the user-global config location.
func DefaultUserPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, filepath.FromSlash(UserConfigRelPath))
}

// DefaultAuditPath returns the audit log location under the per-user state
// directory, honoring XDG_STATE_HOME.
func DefaultAuditPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, StateDirName, AuditFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(StateDirName, AuditFileName)
	}
	return filepath.Join(home, ".local", "state", StateDirName, AuditFileName)
}

// AuditPath returns the configured audit path or the default.
func (c *Config) AuditPath() string {
	if c.Monitoring.AuditPath != "" {
		return c.Monitoring.AuditPath
	}
	return DefaultAuditPath()
}
