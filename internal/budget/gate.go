// Package budget decides whether a cost-incurring action may run.
//
// DESIGN: Decision is a value, never an error. A denied trigger is a normal,
// expected outcome carrying a reason code from a fixed vocabulary; errors are
// reserved for audit-write failures, which must propagate because a silently
// failing audit log defeats the accounting guarantee. The hard safety cap is
// checked against the compiled constant even when a misconfigured layer set a
// ceiling above it, as the last line of defense.
package budget

import (
	"sync"
	"time"

	"github.com/docsmith/docsmith/internal/audit"
	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/internal/trigger"
)

// Deny reason codes. These are the only reasons a caller will ever see.
const (
	ReasonTriggerMode           = "trigger_mode"
	ReasonCostExceedsLimit      = "cost_exceeds_limit"
	ReasonHardCapExceeded       = "hard_cap_exceeded"
	ReasonHourlyBudgetExhausted = "hourly_budget_exhausted"
	ReasonEscalationCapExceeded = "escalation_cap_exceeded"
)

// Decision is the outcome of a budget check. Deny is not an error; callers
// branch on Allowed and surface Reason to the user.
type Decision struct {
	Allowed bool
	Reason  string
	Mode    string // resolved trigger mode, for caller display
}

func allow(mode string) Decision        { return Decision{Allowed: true, Mode: mode} }
func deny(reason, mode string) Decision { return Decision{Reason: reason, Mode: mode} }

// Gate combines the trigger resolver, the spending limits, and the trailing
// spend window into one budget decision point. All state is guarded by a
// single mutex; ShouldProcess read-modify-writes the ring.
type Gate struct {
	mu          sync.Mutex
	resolver    *trigger.Resolver
	cfg         *config.Config
	ring        spendRing
	escalations map[string]int
	log         *audit.Log
	sessionID   string
}

// New builds a Gate owned by the composition root. The audit log is passed in
// explicitly; the gate never reaches for ambient global state.
func New(cfg *config.Config, resolver *trigger.Resolver, auditLog *audit.Log, sessionID string) *Gate {
	return &Gate{
		resolver:    resolver,
		cfg:         cfg,
		escalations: make(map[string]int),
		log:         auditLog,
		sessionID:   sessionID,
	}
}

// ShouldProcess runs the ordered decision algorithm for one candidate event.
// The returned error is only ever an audit-write failure; the budget outcome
// itself is always in the Decision.
func (g *Gate) ShouldProcess(estimatedCost float64, path string, now time.Time) (Decision, error) {
	return g.shouldProcess(estimatedCost, path, now, false)
}

// ShouldProcessConfirmed is ShouldProcess for a caller that has already
// obtained the explicit out-of-band confirmation a manual-mode path requires.
// Disabled paths stay denied; every cost check still applies.
func (g *Gate) ShouldProcessConfirmed(estimatedCost float64, path string, now time.Time) (Decision, error) {
	return g.shouldProcess(estimatedCost, path, now, true)
}

func (g *Gate) shouldProcess(estimatedCost float64, path string, now time.Time, confirmed bool) (Decision, error) {
	res := g.resolver.Resolve(path)

	// Disabled paths are a deliberately-silent no-op: no audit event.
	if res.Mode == config.TriggerDisabled {
		return deny(ReasonTriggerMode, res.Mode), nil
	}
	// Manual requires an explicit out-of-band confirmation from the caller,
	// which is not evaluated here.
	if res.Mode == config.TriggerManual && !confirmed {
		return deny(ReasonTriggerMode, res.Mode), g.writeDeny(audit.EventSkip, ReasonTriggerMode, path)
	}

	if estimatedCost > res.MaxCostPerEvent {
		return deny(ReasonCostExceedsLimit, res.Mode), g.writeDeny(audit.EventBudget, ReasonCostExceedsLimit, path)
	}

	// Compiled constant, not a config field: evaluated even when a layer
	// (incorrectly) configured a ceiling above it.
	if estimatedCost > config.HardMaxHourlyBudget {
		return deny(ReasonHardCapExceeded, res.Mode), g.writeDeny(audit.EventBudget, ReasonHardCapExceeded, path)
	}

	g.mu.Lock()
	g.ring.prune(now)
	spent := g.ring.acceptedSum(now)
	if spent+estimatedCost > g.cfg.Limits.HourlyBudget {
		g.mu.Unlock()
		return deny(ReasonHourlyBudgetExhausted, res.Mode), g.writeDeny(audit.EventBudget, ReasonHourlyBudgetExhausted, path)
	}
	g.ring.append(SpendRecord{
		Timestamp:   now,
		Path:        path,
		CostUSD:     estimatedCost,
		Accepted:    true,
		provisional: true,
	})
	g.mu.Unlock()

	return allow(res.Mode), nil
}

// Finalize corrects the provisional record for path once the real cost is
// known. Unknown paths are a no-op: the estimate stands.
func (g *Gate) Finalize(path string, actualCost float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ring.finalize(path, actualCost)
}

// Escalate records one automatic retry-with-a-more-expensive-path transition
// for the session. The counter never exceeds HardMaxAutoEscalations; the cap
// applies regardless of remaining budget.
func (g *Gate) Escalate(sessionID string) (Decision, error) {
	g.mu.Lock()
	count := g.escalations[sessionID]
	if count >= config.HardMaxAutoEscalations {
		g.mu.Unlock()
		return deny(ReasonEscalationCapExceeded, ""), g.writeDeny(audit.EventBudget, ReasonEscalationCapExceeded, "")
	}
	g.escalations[sessionID] = count + 1
	g.mu.Unlock()
	return allow(""), nil
}

// ResetSession clears the escalation counter when the caller starts a new
// top-level task.
func (g *Gate) ResetSession(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.escalations, sessionID)
}

// HourlySpend returns the accepted spend within the trailing window.
func (g *Gate) HourlySpend(now time.Time) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ring.prune(now)
	return g.ring.acceptedSum(now)
}

// ReplayFromAudit rebuilds the spend window from the last hour of cost-bearing
// nav, brief, and budget events, so enforcement survives a process restart.
func (g *Gate) ReplayFromAudit(now time.Time) error {
	events, err := g.log.ReadSince(now.Add(-window))
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ev := range events {
		switch ev.Event {
		case audit.EventNav, audit.EventBrief, audit.EventBudget:
		default:
			continue
		}
		if ev.Cost == nil {
			continue
		}
		ts := ev.Time()
		if ts.IsZero() {
			continue
		}
		var path string
		if len(ev.Files) > 0 {
			path = ev.Files[0]
		}
		g.ring.append(SpendRecord{Timestamp: ts, Path: path, CostUSD: *ev.Cost, Accepted: true})
	}
	return nil
}

// writeDeny records a deny decision so it can be reconstructed later without
// re-deriving it from raw numbers.
func (g *Gate) writeDeny(kind, reason, path string) error {
	ev := audit.New(kind, g.sessionID)
	ev.Reason = reason
	if path != "" {
		ev.Files = []string{path}
	}
	ev.Config = &audit.ConfigSnapshot{
		DefaultTrigger:  g.cfg.Triggers.Default,
		MaxCostPerEvent: g.cfg.Limits.MaxCostPerEvent,
		HourlyBudget:    g.cfg.Limits.HourlyBudget,
		HardSafetyCap:   g.cfg.Limits.HardSafetyCap,
	}
	return g.log.Append(ev)
}
