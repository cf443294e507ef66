// Package hooklog appends hook diagnostics to the shared claude-compact log
// file. Lines look like:
//
//	[2024-01-01T12:00:00Z] [precompact] claude-extract timed out
//
// Writes are best-effort: a log file that cannot be opened or written is
// ignored so logging never changes a hook's outcome.
package hooklog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Hook names used as the line tag.
const (
	HookPreCompact   = "precompact"
	HookSessionStart = "sessionstart"
)

// Handler is a slog.Handler writing one line per record to an append-only file.
type Handler struct {
	path   string
	hook   string
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
	mu     *sync.Mutex
}

// New returns a Handler appending to path, tagging lines with hook.
// Records below slog.LevelInfo are dropped.
func New(path, hook string) *Handler {
	return &Handler{path: path, hook: hook, level: slog.LevelInfo, mu: &sync.Mutex{}}
}

// NewLogger wraps New in a *slog.Logger.
func NewLogger(path, hook string) *slog.Logger {
	return slog.New(New(path, hook))
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler. It always returns nil.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteString("] [")
	b.WriteString(h.hook)
	b.WriteString("] ")
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_ = os.MkdirAll(filepath.Dir(h.path), 0o755)
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // G304: fixed log location
	if err != nil {
		return nil
	}
	_, _ = f.WriteString(b.String())
	_ = f.Close()
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup implements slog.Handler by prefixing later keys with "name.".
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = strconv.Quote(v)
	}
	b.WriteString(v)
}
