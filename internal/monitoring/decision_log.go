// Package monitoring - decision_log.go tracks recent gate decisions in memory.
//
// DESIGN: Ring buffer of recent budget decisions for status display. This is
// display state only; the durable record is the audit log.
package monitoring

import (
	"sync"
	"time"
)

const maxDecisionEntries = 100

// DecisionEntry records a single gate decision.
type DecisionEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Path          string    `json:"path"`
	Mode          string    `json:"mode"`
	Allowed       bool      `json:"allowed"`
	Reason        string    `json:"reason,omitempty"`
	EstimatedCost float64   `json:"estimated_cost"`
}

// DecisionLog keeps a ring buffer of recent decisions.
type DecisionLog struct {
	mu      sync.RWMutex
	entries []DecisionEntry
}

// NewDecisionLog creates an empty decision log.
func NewDecisionLog() *DecisionLog {
	return &DecisionLog{entries: make([]DecisionEntry, 0, maxDecisionEntries)}
}

// Record adds a decision to the log, dropping the oldest when full.
func (l *DecisionLog) Record(entry DecisionEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= maxDecisionEntries {
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = entry
	} else {
		l.entries = append(l.entries, entry)
	}
}

// Recent returns the most recent n entries (newest first).
func (l *DecisionLog) Recent(n int) []DecisionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || len(l.entries) == 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	result := make([]DecisionEntry, n)
	for i := 0; i < n; i++ {
		result[i] = l.entries[len(l.entries)-1-i]
	}
	return result
}

// DecisionSummary is a brief summary of gate activity.
type DecisionSummary struct {
	Total   int `json:"total"`
	Allowed int `json:"allowed"`
	Denied  int `json:"denied"`
}

// Summary returns counts over the buffered window.
func (l *DecisionLog) Summary() DecisionSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := DecisionSummary{Total: len(l.entries)}
	for _, e := range l.entries {
		if e.Allowed {
			s.Allowed++
		} else {
			s.Denied++
		}
	}
	return s
}
