// Package audit - reader.go reads events back, tolerating corruption.
//
// DESIGN: Each line is parsed independently. A line that is not valid JSON is
// skipped with a recovery warning on the process logger (a side channel, never
// the audit stream itself, to keep meta-events out of the trail). A truncated
// final line from a crash mid-append is handled the same way, so an arbitrary
// garbage suffix never prevents earlier lines from being read.
package audit

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// maxLineSize bounds a single audit line; anything larger is corruption.
const maxLineSize = 4 * 1024 * 1024

// ReadAll returns every event from the rotated files (oldest first) followed
// by the active file, in append order. The returned slice is safely
// re-iterable; corruption never raises an error.
func (l *Log) ReadAll() ([]Event, error) {
	return readFrom(l.path)
}

// ReadSince returns events with timestamps at or after cutoff.
func (l *Log) ReadSince(cutoff time.Time) ([]Event, error) {
	all, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, ev := range all {
		if !ev.Time().Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ReadFrom reads events from an audit path without holding it open for
// append; tooling that only reports uses this instead of Open.
func ReadFrom(activePath string) ([]Event, error) {
	return readFrom(activePath)
}

func readFrom(activePath string) ([]Event, error) {
	var events []Event

	rotated, err := filepath.Glob(filepath.Join(filepath.Dir(activePath), rotatedPattern))
	if err != nil {
		return nil, fmt.Errorf("audit: list rotated files: %w", err)
	}
	// Timestamped names sort chronologically.
	sort.Strings(rotated)

	for _, p := range rotated {
		evs, err := readRotated(p)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}

	f, err := os.Open(activePath) // #nosec G304 -- configured audit path
	if err != nil {
		if os.IsNotExist(err) {
			return events, nil
		}
		return nil, fmt.Errorf("audit: open %s: %w", activePath, err)
	}
	defer func() { _ = f.Close() }()

	return append(events, scanLines(f, activePath)...), nil
}

func readRotated(path string) ([]Event, error) {
	f, err := os.Open(path) // #nosec G304 -- rotated sibling of the audit path
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		// A rotated file that is not valid gzip is corruption, not a read
		// failure; skip it like a bad line.
		log.Warn().Str("path", path).Err(err).Msg("audit: skipping unreadable rotated file")
		return nil, nil
	}
	defer func() { _ = gz.Close() }()

	return scanLines(gz, path), nil
}

// scanLines parses one event per line, skipping anything malformed.
func scanLines(r io.Reader, source string) []Event {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			log.Warn().Str("path", source).Int("line", lineNo).Msg("audit: skipping malformed line")
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Warn().Str("path", source).Int("line", lineNo).Err(err).Msg("audit: skipping malformed line")
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		// Oversized or unterminated garbage tail: everything before it was
		// already yielded.
		log.Warn().Str("path", source).Err(err).Msg("audit: stopped at unreadable tail")
	}
	return events
}
