// Package config - defaults.go centralizes compiled-in constants and default values.
//
// DESIGN: The hard safety constants live here and ONLY here. No configuration
// layer, environment variable, or CLI flag can raise them; the merge clamp in
// load.go forces the effective limits back under these bounds after every load.
package config

// =============================================================================
// HARD SAFETY CEILINGS (never externally settable)
// =============================================================================

// HardMaxCostPerEvent is the compiled-in ceiling for a single event's cost.
// limits.max_cost_per_event is clamped to this after the merge.
const HardMaxCostPerEvent = 1.00

// HardMaxHourlyBudget is the compiled-in ceiling for the rolling hourly budget.
// It is also the effective hard_safety_cap: the last-line-of-defense check in
// the budget gate compares against this constant, never a config field.
const HardMaxHourlyBudget = 10.00

// HardMaxAutoEscalations bounds consecutive automatic retry-with-a-stronger-model
// transitions per session.
const HardMaxAutoEscalations = 3

// =============================================================================
// BUILT-IN DEFAULTS (lowest merge layer)
// =============================================================================

// DefaultTrigger applies to paths no pattern rule matches.
const DefaultTrigger = TriggerOnCommit

// DefaultMaxCostPerEvent is the built-in per-event spending cap in USD.
const DefaultMaxCostPerEvent = 0.25

// DefaultHourlyBudget is the built-in rolling hourly budget in USD.
const DefaultHourlyBudget = 2.00

// DefaultNotifyOnValidationFail is the built-in validation-failure policy.
const DefaultNotifyOnValidationFail = NotifyWarn

// DefaultLogLevel for the process logger (zerolog).
const DefaultLogLevel = "warn"

// DefaultLogFormat is "console" or "json".
const DefaultLogFormat = "console"

// =============================================================================
// FILE LOCATIONS
// =============================================================================

// UserConfigRelPath is the user-global config file under the user config dir.
const UserConfigRelPath = "docsmith/config.yaml"

// ProjectConfigName is the project-local config file name.
const ProjectConfigName = ".docsmith.yaml"

// StateDirName is the per-user state directory holding the audit log.
const StateDirName = "docsmith"

// AuditFileName is the always-current active audit log file.
const AuditFileName = "audit.jsonl"

// =============================================================================
// ENVIRONMENT OVERRIDES (each maps to exactly one leaf field)
// =============================================================================

const (
	EnvDefaultTrigger  = "DOCSMITH_DEFAULT_TRIGGER"
	EnvMaxCostPerEvent = "DOCSMITH_MAX_COST_PER_EVENT"
	EnvHourlyBudget    = "DOCSMITH_HOURLY_BUDGET"
	EnvNotifyOnFail    = "DOCSMITH_NOTIFY_ON_FAIL"
)
