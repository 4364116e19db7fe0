// Package logging sets up the stderr logger and the per-run event file.
//
// Operational messages go through a text slog.Logger. Milestones of a run
// (start, convergence, divergence, finish) are also appended as JSON lines
// to <output dir>/events.jsonl when the level is debug or finer.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LevelTrace sits below debug and carries per-step detail.
const LevelTrace = slog.LevelDebug - 4

// EventFile is the name of the run event file inside the output directory.
const EventFile = "events.jsonl"

// ParseLevel maps info, debug, trace, warn or error (any case) to a level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func traceLabel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

// NewLogger returns a text logger on w filtered at level.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: traceLabel,
	}))
}

// Discard drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// EventLog appends one JSON object per run milestone. Every line has time,
// event and step keys followed by the milestone's own fields. A nil
// *EventLog ignores all calls.
type EventLog struct {
	file *os.File
	out  *slog.Logger
}

// NewEventLog opens dir/events.jsonl for appending. It returns nil when level
// is info or coarser, or when the file cannot be created; the run then goes
// on without events.
func NewEventLog(dir string, level string) *EventLog {
	if ParseLevel(level) >= slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, EventFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: LevelTrace,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.LevelKey:
				return slog.Attr{}
			case slog.MessageKey:
				a.Key = "event"
			}
			return a
		},
	})
	return &EventLog{file: f, out: slog.New(h)}
}

// Record appends the milestone kind reached at step. kv holds alternating
// keys and values as for slog.
func (el *EventLog) Record(kind string, step int, kv ...any) {
	if el == nil || el.out == nil {
		return
	}
	args := append([]any{"step", step}, kv...)
	el.out.Log(context.Background(), slog.LevelInfo, kind, args...)
}

// Close closes the event file. Later records are dropped.
func (el *EventLog) Close() {
	if el == nil || el.file == nil {
		return
	}
	_ = el.file.Close()
	el.file = nil
	el.out = nil
}
