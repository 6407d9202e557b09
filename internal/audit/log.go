// Package audit - log.go implements the append-only event store.
//
// DESIGN: Single-writer discipline. One process holds the active file open for
// append; a mutex serializes Append with rotation so the active file is never
// renamed while a write is in flight. Each append is one marshal, one write,
// one fsync, so a crash leaves at worst a truncated final line and never an
// interleaved one. Append errors propagate to the caller: a silently-failing
// audit log would defeat the accounting guarantee this store exists for.
package audit

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// rotateThreshold is the active-file size at which rotation happens,
// checked opportunistically before each append.
const rotateThreshold = 10 * 1024 * 1024

// rotatedPattern matches rotated file names next to the active log.
const rotatedPattern = "audit_*.jsonl.gz"

// Log is the append-only, size-rotated audit store.
type Log struct {
	mu   sync.Mutex
	path string
	f    *os.File
	size int64
}

// Open creates or opens the active audit file for appending.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("audit: create state dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- configured audit path
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("audit: stat %s: %w", path, err)
	}
	return &Log{path: path, f: f, size: info.Size()}, nil
}

// Path returns the active file path.
func (l *Log) Path() string { return l.path }

// Append writes one event as a JSON line and flushes it to disk before
// returning. Errors are fatal to the caller, never swallowed.
func (l *Log) Append(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.rotateIfNeededLocked(); err != nil {
		return err
	}

	n, err := l.f.Write(data)
	l.size += int64(n)
	if err != nil {
		return fmt.Errorf("audit: append to %s: %w", l.path, err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("audit: sync %s: %w", l.path, err)
	}
	return nil
}

// RotateIfNeeded checks the threshold and rotates the active file if crossed.
// Append calls this internally; it is exposed for operator tooling.
func (l *Log) RotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rotateIfNeededLocked()
}

func (l *Log) rotateIfNeededLocked() error {
	if l.size < rotateThreshold {
		return nil
	}
	return l.rotateLocked()
}

// rotateLocked renames the active file to audit_<YYYYMMDD_HHMMSS>.jsonl,
// compresses it in place, and starts a fresh active file. Events are never
// dropped or reordered.
func (l *Log) rotateLocked() error {
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("audit: close before rotate: %w", err)
	}

	rotated := l.rotatedName(time.Now())
	if err := os.Rename(l.path, rotated); err != nil {
		return fmt.Errorf("audit: rotate %s: %w", l.path, err)
	}

	if err := compressFile(rotated); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- configured audit path
	if err != nil {
		return fmt.Errorf("audit: reopen after rotate: %w", err)
	}
	l.f = f
	l.size = 0
	return nil
}

// rotatedName returns a timestamped sibling name, with a numeric suffix when
// two rotations land in the same second.
func (l *Log) rotatedName(now time.Time) string {
	dir := filepath.Dir(l.path)
	stamp := now.UTC().Format("20060102_150405")
	name := filepath.Join(dir, fmt.Sprintf("audit_%s.jsonl", stamp))
	for i := 1; ; i++ {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			if _, err := os.Stat(name + ".gz"); os.IsNotExist(err) {
				return name
			}
		}
		name = filepath.Join(dir, fmt.Sprintf("audit_%s_%d.jsonl", stamp, i))
	}
}

// compressFile gzips path to path.gz and removes the original.
func compressFile(path string) error {
	in, err := os.Open(path) // #nosec G304 -- rotated sibling of the audit path
	if err != nil {
		return fmt.Errorf("audit: compress %s: %w", path, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("audit: compress %s: %w", path, err)
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		_ = gz.Close()
		_ = out.Close()
		return fmt.Errorf("audit: compress %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("audit: compress %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("audit: compress %s: %w", path, err)
	}
	return os.Remove(path)
}

// Close releases the active file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
