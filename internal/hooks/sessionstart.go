package hooks

import (
	"context"
	"fmt"
	"os"

	"github.com/dotcommander/claude-compact/internal/config"
	"github.com/dotcommander/claude-compact/internal/handoff"
)

// SessionStart prints continuation context when a handoff record exists.
// The record is removed on every path once it has been seen.
func SessionStart(ctx context.Context, env Env) (out Outcome) {
	path := env.Paths.ContinuationFile
	if !handoff.Exists(path) {
		return out
	}

	defer func() {
		if err := handoff.Remove(path); err != nil {
			env.logger().Warn("remove handoff record failed", "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic: %v", r)
			out.Message = ""
			env.fail(fmt.Sprintf("SessionStart hook error: %v", r))
		}
	}()

	res := handoff.Read(path, env.now())
	if !res.Usable() {
		out.Err = fmt.Errorf("invalid handoff record: %s", res.Reason)
		env.fail(fmt.Sprintf("SessionStart hook error: %v", out.Err), "status", res.Status.String())
		return out
	}

	rec := res.Record
	out.ExportPath = rec.ExportPath
	out.SessionID = rec.SessionID

	if !exportExists(rec.ExportPath) {
		out.Err = fmt.Errorf("Export file not found: %s", rec.ExportPath) //nolint:staticcheck // ST1005: user-facing hook message
		env.fail(out.Err.Error())
		return out
	}

	cfg := env.config()
	out.Message = config.Render(cfg.PromptTemplate, rec.ExportPath, rec.SessionID, rec.Timestamp)
	_, _ = fmt.Fprintln(env.stdout(), out.Message)
	env.logger().Info("reinjected", "path", rec.ExportPath, "session_id", rec.SessionID, "status", res.Status.String())

	if env.History != nil {
		if _, err := env.History.MarkReinjected(ctx, rec.ExportPath, env.now()); err != nil {
			env.logger().Warn("history update failed", "error", err)
		}
	}
	return out
}

func exportExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
