package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/extract"
	"github.com/dotcommander/claude-compact/internal/hooklog"
	"github.com/dotcommander/claude-compact/internal/hooks"
	"github.com/dotcommander/claude-compact/internal/store"
)

func newHookCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hook",
		Short:  "Hook handlers invoked by Claude Code",
		Args:   cobra.NoArgs,
		Hidden: true,
	}
	cmd.AddCommand(newHookPreCompactCmd(opts))
	cmd.AddCommand(newHookSessionStartCmd(opts))
	return cmd
}

// Hook handlers always exit 0: Claude Code only inspects stderr and the
// presence of stdout text.

func newHookPreCompactCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "precompact",
		Short: "Export the conversation before compaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv := opts.hookEnv(cmd, hooklog.HookPreCompact)
			defer closeEnv()
			hooks.PreCompact(ctxOrBackground(cmd), env)
			return nil
		},
	}
}

func newHookSessionStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessionstart",
		Short: "Inject continuation context after compaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv := opts.hookEnv(cmd, hooklog.HookSessionStart)
			defer closeEnv()
			hooks.SessionStart(ctxOrBackground(cmd), env)
			return nil
		},
	}
}

// hookEnv builds the hook environment. Settings problems degrade to defaults
// and are noted in the hook log.
func (o *rootOptions) hookEnv(cmd *cobra.Command, hook string) (hooks.Env, func()) {
	var settings app.Settings
	var settingsErr error
	if path, err := app.SettingsPath(); err == nil {
		settings, settingsErr = app.LoadSettings(path)
	} else {
		settingsErr = err
	}

	claudeDir, err := app.ResolveClaudeDir(o.claudeDir, settings)
	if err != nil {
		claudeDir = app.ExpandHome("~/.claude")
	}
	paths := app.NewPaths(claudeDir)
	logger := hooklog.NewLogger(paths.LogFile, hook)
	if settingsErr != nil {
		logger.Warn("settings ignored", "error", settingsErr)
	}

	env := hooks.Env{
		Paths:  paths,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Now:    o.now,
		Logger: logger,
		NewExtractor: func(l *slog.Logger) (hooks.Extractor, error) {
			r, err := extract.NewRunner(settings.ExtractorCommand(),
				extract.WithTimeout(settings.ExtractTimeout()),
				extract.WithLogger(l),
			)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}

	closeEnv := func() {}
	if settings.HistoryOn() {
		if st, err := openHookHistory(settings); err != nil {
			logger.Warn("history unavailable", "error", err)
		} else {
			env.History = st
			closeEnv = func() { _ = st.Close() }
		}
	}
	return env, closeEnv
}

func openHookHistory(settings app.Settings) (*store.Store, error) {
	path, err := settings.HistoryDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve history path: %w", err)
	}
	return store.Open(path)
}
