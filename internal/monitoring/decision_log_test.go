package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecisionLog_RecentNewestFirst(t *testing.T) {
	l := NewDecisionLog()
	for i := 0; i < 5; i++ {
		l.Record(DecisionEntry{Path: fmt.Sprintf("f%d.md", i), Allowed: i%2 == 0})
	}

	recent := l.Recent(3)
	assert.Len(t, recent, 3)
	assert.Equal(t, "f4.md", recent[0].Path)
	assert.Equal(t, "f2.md", recent[2].Path)

	assert.Len(t, l.Recent(100), 5)
	assert.Nil(t, l.Recent(0))
}

func TestDecisionLog_DropsOldestWhenFull(t *testing.T) {
	l := NewDecisionLog()
	for i := 0; i < maxDecisionEntries+10; i++ {
		l.Record(DecisionEntry{Path: fmt.Sprintf("f%d.md", i)})
	}

	s := l.Summary()
	assert.Equal(t, maxDecisionEntries, s.Total)

	recent := l.Recent(1)
	assert.Equal(t, fmt.Sprintf("f%d.md", maxDecisionEntries+9), recent[0].Path)
}

func TestDecisionLog_SummaryCounts(t *testing.T) {
	l := NewDecisionLog()
	l.Record(DecisionEntry{Allowed: true})
	l.Record(DecisionEntry{Allowed: false, Reason: "cost_exceeds_limit"})
	l.Record(DecisionEntry{Allowed: true})

	s := l.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Allowed)
	assert.Equal(t, 1, s.Denied)
}
