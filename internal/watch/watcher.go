// Package watch drives the event pipeline: file-system events in, budget
// decisions and audit events out.
//
// DESIGN: Single process, single writer. The watcher owns no budget or audit
// state of its own; it asks the resolver for the mode, the estimator for a
// cost, the gate for permission, and on success invokes the generation
// pipeline through the Generator interface and records the real outcome. The
// generation pipeline itself is an external collaborator behind that
// interface.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/docsmith/docsmith/internal/audit"
	"github.com/docsmith/docsmith/internal/budget"
	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/internal/costcontrol"
	"github.com/docsmith/docsmith/internal/monitoring"
	"github.com/docsmith/docsmith/internal/trigger"
)

// debounceWindow suppresses duplicate events for the same path; editors
// commonly emit several writes per save.
const debounceWindow = 500 * time.Millisecond

// Result is the reported outcome of one generation run.
type Result struct {
	Kind         string // audit event kind: nav or brief
	CostUSD      float64
	Model        string
	InputTokens  int
	OutputTokens int
	Confidence   float64
}

// Generator is the content-generation pipeline. It is stateless from this
// package's point of view; docsmith only gates and accounts for it.
type Generator interface {
	Generate(ctx context.Context, path string) (Result, error)
}

// Handoff is the default Generator: it performs no generation itself and
// reports a trigger event, leaving the work to the external pipeline that
// consumes the audit stream.
type Handoff struct{}

// Generate signals a handoff for path.
func (Handoff) Generate(_ context.Context, _ string) (Result, error) {
	return Result{Kind: audit.EventTrigger}, nil
}

// Watcher wires fsnotify events through the resolver, the gate, and the
// audit log.
type Watcher struct {
	cfg       *config.Config
	resolver  *trigger.Resolver
	gate      *budget.Gate
	auditLog  *audit.Log
	decisions *monitoring.DecisionLog
	gen       Generator
	sessionID string

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// New builds a watcher. All collaborators are constructor-injected.
func New(cfg *config.Config, resolver *trigger.Resolver, gate *budget.Gate,
	auditLog *audit.Log, gen Generator, sessionID string) *Watcher {
	return &Watcher{
		cfg:       cfg,
		resolver:  resolver,
		gate:      gate,
		auditLog:  auditLog,
		decisions: monitoring.NewDecisionLog(),
		gen:       gen,
		sessionID: sessionID,
		lastSeen:  make(map[string]time.Time),
	}
}

// Decisions exposes the in-memory ring of recent decisions for display.
func (w *Watcher) Decisions() *monitoring.DecisionLog { return w.decisions }

// Run watches roots (recursively) until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, roots []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, root := range roots {
		if err := addRecursive(fsw, root); err != nil {
			return err
		}
	}

	log.Info().Strs("roots", roots).Msg("watch: started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watch: watcher error")
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if ev.Has(fsnotify.Create) {
					_ = addRecursive(fsw, ev.Name)
				}
				continue
			}
			if !w.debounce(ev.Name) {
				continue
			}
			if err := w.handleEvent(ctx, ev.Name); err != nil {
				// Audit-write failures are fatal: running on without a
				// working audit trail would mask budget-bypass bugs.
				return err
			}
		}
	}
}

// debounce reports whether path should be processed now.
func (w *Watcher) debounce(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.lastSeen[path]; ok && now.Sub(last) < debounceWindow {
		return false
	}
	w.lastSeen[path] = now
	return true
}

// handleEvent runs one save event through the pipeline.
func (w *Watcher) handleEvent(ctx context.Context, path string) error {
	res := w.resolver.Resolve(path)

	switch res.Mode {
	case config.TriggerDisabled:
		// Deliberately silent: no audit event for disabled paths.
		return nil
	case config.TriggerOnCommit, config.TriggerOnPush:
		// Fires from a git hook, not a save.
		log.Debug().Str("path", path).Str("mode", res.Mode).Msg("watch: mode not save-triggered")
		return nil
	}

	content, err := os.ReadFile(path) // #nosec G304 -- path comes from the watched tree
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("watch: unreadable file")
		return nil
	}

	model := w.model()
	estimate := costcontrol.EstimateCost(string(content), model)
	now := time.Now()

	decision, err := w.gate.ShouldProcess(estimate, path, now)
	if err != nil {
		return err
	}
	w.decisions.Record(monitoring.DecisionEntry{
		Timestamp:     now,
		Path:          path,
		Mode:          res.Mode,
		Allowed:       decision.Allowed,
		Reason:        decision.Reason,
		EstimatedCost: estimate,
	})
	if !decision.Allowed {
		log.Info().Str("path", path).Str("reason", decision.Reason).Msg("watch: denied")
		return nil
	}

	return w.generate(ctx, path, model, estimate)
}

// generate runs the pipeline and records the real outcome.
func (w *Watcher) generate(ctx context.Context, path, model string, estimate float64) error {
	start := time.Now()
	result, err := w.gen.Generate(ctx, path)
	elapsed := time.Since(start)

	if err != nil {
		w.gate.Finalize(path, 0)
		ev := audit.New(audit.EventValidationFail, w.sessionID)
		ev.Files = []string{path}
		ev.Reason = err.Error()
		ev.DurationMs = elapsed.Milliseconds()
		if w.cfg.Notify.OnValidationFail != config.NotifySilent {
			log.Warn().Str("path", path).Err(err).Msg("watch: generation failed")
		}
		return w.auditLog.Append(ev)
	}

	w.gate.Finalize(path, result.CostUSD)

	kind := result.Kind
	if kind == "" {
		kind = audit.EventBrief
	}
	ev := audit.New(kind, w.sessionID)
	ev.Files = []string{path}
	ev.DurationMs = elapsed.Milliseconds()
	// A trigger event is a handoff marker; the downstream pipeline reports
	// the real cost when it runs.
	if kind != audit.EventTrigger {
		ev = ev.WithCost(result.CostUSD)
		ev.Model = result.Model
		if ev.Model == "" {
			ev.Model = model
		}
		ev.InputT = result.InputTokens
		ev.OutputT = result.OutputTokens
		ev.Confidence = result.Confidence
	}

	log.Info().
		Str("path", path).
		Float64("estimate", estimate).
		Float64("cost", result.CostUSD).
		Dur("took", elapsed).
		Msg("watch: generated")

	return w.auditLog.Append(ev)
}

// model returns the identifier behind the "standard" routing name.
func (w *Watcher) model() string {
	if id, ok := w.cfg.Models["standard"]; ok {
		return id
	}
	return ""
}

// addRecursive watches root and every directory beneath it, skipping
// dot-directories like .git.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(p)
		if strings.HasPrefix(base, ".") && p != root && base != "." {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
