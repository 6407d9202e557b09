// Package trigger resolves file paths to trigger modes and per-event ceilings.
//
// DESIGN: Resolution is a pure function of the immutable config and the path,
// so two calls with the same inputs always return the same result. Pattern
// rules are evaluated in source order and the first match wins. A resolved
// "disabled" mode is a deliberately-silent no-op downstream: no audit event is
// written for disabled paths, since logging every touch under a disabled tree
// would dominate the log with noise.
package trigger

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/docsmith/docsmith/internal/config"
)

// Resolution is the outcome of matching one path against the pattern rules.
type Resolution struct {
	Mode string
	// MaxCostPerEvent is the matching rule's ceiling, falling back to
	// limits.max_cost_per_event when the rule does not set one.
	MaxCostPerEvent float64
}

// Resolver matches paths against an ordered rule list.
type Resolver struct {
	defaultMode    string
	defaultCeiling float64
	rules          []config.PatternRule
}

// New builds a Resolver from the effective config.
func New(cfg *config.Config) *Resolver {
	return &Resolver{
		defaultMode:    cfg.Triggers.Default,
		defaultCeiling: cfg.Limits.MaxCostPerEvent,
		rules:          cfg.Triggers.Rules,
	}
}

// Resolve returns the trigger mode and per-event cost ceiling for p.
func (r *Resolver) Resolve(p string) Resolution {
	norm := Normalize(p)
	for _, rule := range r.rules {
		if Match(rule.Glob, norm) {
			ceiling := rule.MaxCostPerEvent
			if ceiling == 0 {
				ceiling = r.defaultCeiling
			}
			return Resolution{Mode: rule.Mode, MaxCostPerEvent: ceiling}
		}
	}
	return Resolution{Mode: r.defaultMode, MaxCostPerEvent: r.defaultCeiling}
}

// Normalize converts p to slash-separated form and strips a leading "./".
func Normalize(p string) string {
	norm := filepath.ToSlash(p)
	norm = strings.TrimPrefix(norm, "./")
	return norm
}

// Match evaluates a glob against a slash-normalized path.
// '*' matches any run of characters excluding '/'; '**' as a whole segment
// matches any run of path segments, including none. A malformed pattern
// matches nothing.
func Match(glob, p string) bool {
	return matchSegments(strings.Split(glob, "/"), strings.Split(p, "/"))
}

func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		// Try consuming zero or more path segments.
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pat[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := path.Match(pat[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}
