// Package audit - event.go defines the durable audit event record.
//
// DESIGN: One immutable JSON object per line. Every cost-relevant decision or
// outcome is recorded as one Event; nothing in the log is ever mutated or
// removed except by whole-file rotation.
package audit

import "time"

// Event kinds.
const (
	EventNav            = "nav"
	EventBrief          = "brief"
	EventCascade        = "cascade"
	EventValidationFail = "validation_fail"
	EventBudget         = "budget"
	EventSkip           = "skip"
	EventTrigger        = "trigger"
)

// tsLayout is ISO-8601 UTC with millisecond precision.
const tsLayout = "2006-01-02T15:04:05.000Z"

// Event is one audit record. Optional fields are omitted from the JSON line
// when unset; Cost is a pointer so a recorded zero cost stays distinguishable
// from no cost at all (budget replay only considers events carrying a cost).
type Event struct {
	TS         string          `json:"ts"`
	Event      string          `json:"event"`
	SessionID  string          `json:"session_id"`
	Cost       *float64        `json:"cost,omitempty"`
	Model      string          `json:"model,omitempty"`
	InputT     int             `json:"input_t,omitempty"`
	OutputT    int             `json:"output_t,omitempty"`
	Files      []string        `json:"files,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Config     *ConfigSnapshot `json:"config,omitempty"`
}

// ConfigSnapshot captures the limits in force when the event was written.
type ConfigSnapshot struct {
	DefaultTrigger  string  `json:"default_trigger,omitempty"`
	MaxCostPerEvent float64 `json:"max_cost_per_event"`
	HourlyBudget    float64 `json:"hourly_budget"`
	HardSafetyCap   float64 `json:"hard_safety_cap"`
}

// New creates an event stamped with the current UTC time.
func New(kind, sessionID string) Event {
	return Event{TS: FormatTime(time.Now()), Event: kind, SessionID: sessionID}
}

// WithCost returns a copy of the event carrying a cost.
func (e Event) WithCost(cost float64) Event {
	e.Cost = &cost
	return e
}

// Time parses the event timestamp. A zero time is returned for malformed
// timestamps so replay treats them as out-of-window.
func (e Event) Time() time.Time {
	t, err := time.Parse(tsLayout, e.TS)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTime renders t in the audit timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}
