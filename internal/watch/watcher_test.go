package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmith/docsmith/internal/audit"
	"github.com/docsmith/docsmith/internal/budget"
	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/internal/trigger"
)

// fakeGenerator records calls and returns a canned result.
type fakeGenerator struct {
	calls  []string
	result Result
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, path string) (Result, error) {
	f.calls = append(f.calls, path)
	return f.result, f.err
}

func watchConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Triggers.Default = config.TriggerOnSave
	cfg.Limits.MaxCostPerEvent = 1.00
	cfg.Limits.HourlyBudget = 5.00
	return cfg
}

func newTestWatcher(t *testing.T, cfg *config.Config, gen Generator) (*Watcher, *audit.Log) {
	t.Helper()
	l, err := audit.Open(filepath.Join(t.TempDir(), "audit.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	resolver := trigger.New(cfg)
	gate := budget.New(cfg, resolver, l, "session-1")
	return New(cfg, resolver, gate, l, gen, "session-1"), l
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func readEvents(t *testing.T, l *audit.Log) []audit.Event {
	t.Helper()
	events, err := l.ReadAll()
	require.NoError(t, err)
	return events
}

func TestHandleEvent_AllowedRunsGeneratorAndAuditsOutcome(t *testing.T) {
	gen := &fakeGenerator{result: Result{
		Kind:         audit.EventBrief,
		CostUSD:      0.04,
		Model:        "claude-haiku-4-5",
		InputTokens:  900,
		OutputTokens: 200,
		Confidence:   0.9,
	}}
	w, l := newTestWatcher(t, watchConfig(), gen)
	path := writeTempFile(t, "readme.md", "# Title\n\nSome documentation body.\n")

	require.NoError(t, w.handleEvent(context.Background(), path))
	require.Equal(t, []string{path}, gen.calls)

	events := readEvents(t, l)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, audit.EventBrief, ev.Event)
	assert.Equal(t, []string{path}, ev.Files)
	require.NotNil(t, ev.Cost)
	assert.InDelta(t, 0.04, *ev.Cost, 1e-9)
	assert.Equal(t, "claude-haiku-4-5", ev.Model)
	assert.Equal(t, 900, ev.InputT)

	// The window holds the finalized cost, not the estimate.
	assert.InDelta(t, 0.04, w.gate.HourlySpend(time.Now()), 1e-9)

	s := w.Decisions().Summary()
	assert.Equal(t, 1, s.Allowed)
	assert.Zero(t, s.Denied)
}

func TestHandleEvent_DisabledIsSilentNoOp(t *testing.T) {
	cfg := watchConfig()
	cfg.Triggers.Rules = []config.PatternRule{
		{Glob: "**/*.skip", Mode: config.TriggerDisabled},
	}
	gen := &fakeGenerator{}
	w, l := newTestWatcher(t, cfg, gen)
	path := writeTempFile(t, "notes.skip", "ignored")

	require.NoError(t, w.handleEvent(context.Background(), path))
	assert.Empty(t, gen.calls)
	assert.Empty(t, readEvents(t, l))
	assert.Zero(t, w.Decisions().Summary().Total)
}

func TestHandleEvent_CommitAndPushModesAreNotSaveTriggered(t *testing.T) {
	cfg := watchConfig()
	cfg.Triggers.Default = config.TriggerOnCommit
	gen := &fakeGenerator{}
	w, l := newTestWatcher(t, cfg, gen)
	path := writeTempFile(t, "readme.md", "content")

	require.NoError(t, w.handleEvent(context.Background(), path))
	assert.Empty(t, gen.calls)
	assert.Empty(t, readEvents(t, l))
}

func TestHandleEvent_ManualDeniedWithSkipEvent(t *testing.T) {
	cfg := watchConfig()
	cfg.Triggers.Default = config.TriggerManual
	gen := &fakeGenerator{}
	w, l := newTestWatcher(t, cfg, gen)
	path := writeTempFile(t, "readme.md", "content")

	require.NoError(t, w.handleEvent(context.Background(), path))
	assert.Empty(t, gen.calls)

	events := readEvents(t, l)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventSkip, events[0].Event)
	assert.Equal(t, budget.ReasonTriggerMode, events[0].Reason)

	s := w.Decisions().Summary()
	assert.Equal(t, 1, s.Denied)
}

func TestHandleEvent_GenerationFailureAuditsValidationFail(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("generated brief failed checks")}
	w, l := newTestWatcher(t, watchConfig(), gen)
	path := writeTempFile(t, "readme.md", "content")

	require.NoError(t, w.handleEvent(context.Background(), path))

	events := readEvents(t, l)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventValidationFail, events[0].Event)
	assert.Equal(t, "generated brief failed checks", events[0].Reason)
	assert.Nil(t, events[0].Cost)

	// The failed run consumed nothing; the provisional estimate is released.
	assert.Zero(t, w.gate.HourlySpend(time.Now()))
}

func TestHandleEvent_HandoffEmitsCostlessTriggerEvent(t *testing.T) {
	w, l := newTestWatcher(t, watchConfig(), Handoff{})
	path := writeTempFile(t, "readme.md", "content")

	require.NoError(t, w.handleEvent(context.Background(), path))

	events := readEvents(t, l)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTrigger, events[0].Event)
	assert.Nil(t, events[0].Cost)
	assert.Empty(t, events[0].Model)
}

func TestHandleEvent_MissingFileIsSkipped(t *testing.T) {
	gen := &fakeGenerator{}
	w, l := newTestWatcher(t, watchConfig(), gen)

	require.NoError(t, w.handleEvent(context.Background(), filepath.Join(t.TempDir(), "gone.md")))
	assert.Empty(t, gen.calls)
	assert.Empty(t, readEvents(t, l))
}

func TestDebounce_SuppressesRapidDuplicates(t *testing.T) {
	w, _ := newTestWatcher(t, watchConfig(), &fakeGenerator{})

	assert.True(t, w.debounce("a.md"))
	assert.False(t, w.debounce("a.md"))
	assert.True(t, w.debounce("b.md"))
}
