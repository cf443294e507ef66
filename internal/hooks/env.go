// Package hooks implements the two compaction hooks: PreCompact exports the
// conversation and leaves a handoff record, SessionStart turns that record
// into continuation context and removes it.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/config"
	"github.com/dotcommander/claude-compact/internal/extract"
	"github.com/dotcommander/claude-compact/internal/store"
)

// maxHookStdinBytes caps stdin reads. Hook payloads are small JSON objects.
const maxHookStdinBytes = 1 << 20

// unknownSession is recorded when the host omits session_id.
const unknownSession = "unknown"

// Extractor produces exports. *extract.Runner satisfies it.
type Extractor interface {
	Run(ctx context.Context, req extract.Request) (extract.Result, error)
}

// History records export runs. *store.Store satisfies it.
type History interface {
	RecordExport(ctx context.Context, run store.Run) (store.Run, error)
	MarkReinjected(ctx context.Context, exportPath string, at time.Time) (bool, error)
}

// Env carries everything a hook needs. Callers build one per invocation.
type Env struct {
	Paths  app.Paths
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
	Logger *slog.Logger

	// NewExtractor builds the extraction runner. The logger is the hook log.
	NewExtractor func(logger *slog.Logger) (Extractor, error)

	// History is optional.
	History History
}

// Outcome reports what a hook did. The process exit status never depends on it.
type Outcome struct {
	ExportPath string
	SessionID  string
	Message    string
	Err        error
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e Env) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return io.Discard
}

func (e Env) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return io.Discard
}

func (e Env) config() config.Config {
	return config.Load(e.Paths.ConfigFile, config.Defaults(e.Paths.ExportsDir))
}

// fail prints msg to stderr and appends it to the hook log.
func (e Env) fail(msg string, args ...any) {
	_, _ = fmt.Fprintln(e.stderr(), msg)
	e.logger().Error(msg, args...)
}

// hookInput is the JSON Claude Code sends on stdin to hooks.
type hookInput struct {
	SessionID     string `json:"session_id"`
	HookEventName string `json:"hook_event_name"`
	Trigger       string `json:"trigger"`
}

// readHookInput decodes stdin. Empty input yields a zero value.
func readHookInput(r io.Reader) (hookInput, error) {
	var input hookInput
	if r == nil {
		return input, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxHookStdinBytes))
	if err != nil {
		return input, fmt.Errorf("read hook input: %w", err)
	}
	if len(data) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("decode hook input: %w", err)
	}
	return input, nil
}
