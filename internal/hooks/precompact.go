package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dotcommander/claude-compact/internal/exports"
	"github.com/dotcommander/claude-compact/internal/extract"
	"github.com/dotcommander/claude-compact/internal/handoff"
	"github.com/dotcommander/claude-compact/internal/store"
)

// ErrNoExportCreated is reported when extraction succeeds but leaves no file.
var ErrNoExportCreated = errors.New("No export file created") //nolint:staticcheck // ST1005: user-facing hook message

// PreCompact exports the most recent conversation and writes the handoff
// record. Failures are printed to stderr and logged; the hook never fails the
// host.
func PreCompact(ctx context.Context, env Env) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic: %v", r)
			env.fail(fmt.Sprintf("PreCompact hook error: %v", r))
		}
	}()

	input, err := readHookInput(env.Stdin)
	if err != nil {
		out.Err = err
		env.fail(fmt.Sprintf("PreCompact hook error: %v", err))
		return out
	}
	out.SessionID = input.SessionID
	if out.SessionID == "" {
		out.SessionID = unknownSession
	}

	cfg := env.config()
	exportDir := cfg.ExportDirPath()
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		out.Err = err
		env.fail(fmt.Sprintf("PreCompact hook error: %v", err))
		return out
	}

	removed := exports.Sweep(exportDir, exports.Policy{
		Enabled:    cfg.CleanupEnabled,
		Format:     cfg.ExportFormat,
		Mode:       cfg.CleanupMode,
		MaxAgeDays: cfg.CleanupMaxAgeDays,
		MaxCount:   cfg.CleanupMaxCount,
	}, env.now())
	if len(removed) > 0 {
		env.logger().Info("cleanup removed old exports", "count", len(removed))
	}

	run := store.Run{SessionID: out.SessionID, Format: cfg.ExportFormat}

	if err := env.extract(ctx, extract.Request{
		Format:    cfg.ExportFormat,
		OutputDir: exportDir,
		Detailed:  cfg.Detailed,
	}); err != nil {
		out.Err = err
		env.fail(extractMessage(err), "session_id", out.SessionID)
		env.record(ctx, run, err)
		return out
	}

	newest, err := exports.Newest(exportDir, cfg.ExportFormat)
	if err != nil {
		out.Err = ErrNoExportCreated
		env.fail(ErrNoExportCreated.Error(), "session_id", out.SessionID)
		env.record(ctx, run, out.Err)
		return out
	}

	rec := handoff.New(newest.Path, out.SessionID, env.now())
	if err := handoff.Write(env.Paths.ContinuationFile, rec); err != nil {
		out.Err = err
		env.fail(fmt.Sprintf("PreCompact hook error: %v", err))
		run.ExportPath = newest.Path
		env.record(ctx, run, err)
		return out
	}

	out.ExportPath = newest.Path
	_, _ = fmt.Fprintf(env.stderr(), "Exported to %s\n", newest.Path)
	env.logger().Info("exported", "path", newest.Path, "session_id", out.SessionID)

	run.ExportPath = newest.Path
	env.record(ctx, run, nil)
	return out
}

func (e Env) extract(ctx context.Context, req extract.Request) error {
	if e.NewExtractor == nil {
		return extract.ErrNotFound
	}
	runner, err := e.NewExtractor(e.logger())
	if err != nil {
		return err
	}
	_, err = runner.Run(ctx, req)
	return err
}

// extractMessage maps extraction errors to the text shown to the user.
func extractMessage(err error) string {
	var exitErr *extract.ExitError
	switch {
	case errors.Is(err, extract.ErrTimeout):
		return extract.ErrTimeout.Error()
	case errors.Is(err, extract.ErrNotFound):
		return extract.ErrNotFound.Error()
	case errors.As(err, &exitErr):
		return exitErr.Error()
	default:
		return fmt.Sprintf("PreCompact hook error: %v", err)
	}
}

// record stores the run in history. Failures only reach the hook log.
func (e Env) record(ctx context.Context, run store.Run, runErr error) {
	if e.History == nil {
		return
	}
	run.Status = store.StatusExported
	if runErr != nil {
		run.Status = store.StatusFailed
		run.Error = runErr.Error()
	}
	run.CreatedAt = e.now()
	if _, err := e.History.RecordExport(ctx, run); err != nil {
		e.logger().Warn("history record failed", "error", err)
	}
}
