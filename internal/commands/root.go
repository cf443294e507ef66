package commands

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := newRootCmd(version, newRootOptions())
	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}

func newRootCmd(version string, opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "claude-compact",
		Short: "Export conversations before Claude Code compacts them and point the resumed session at the export",
		Long: `Customize Claude Code's compaction experience.

claude-compact installs hooks that export the full conversation before
compaction and inject a pointer to that export afterward, so Claude knows
where to find the complete history.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				if isHookCommand(cmd) {
					// Hooks must never block Claude Code.
					return nil
				}
				return err
			}
			return nil
		},
	}
	root.SetVersionTemplate("claude-compact {{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.claudeDir, "claude-dir", "", "Claude Code home directory (default: $"+app.ClaudeDirEnv+" or ~/.claude)")
	root.PersistentFlags().VarP(&opts.format, "output", "o", "Output format: "+strings.Join(output.Formats(), "|"))

	root.AddCommand(newInstallCmd(opts))
	root.AddCommand(newUninstallCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newExportsCmd(opts))
	root.AddCommand(newPromptCmd(opts))
	root.AddCommand(newHookCmd(opts))

	return root
}

// isHookCommand reports whether cmd is one of the hidden hook handlers.
func isHookCommand(cmd *cobra.Command) bool {
	parent := cmd.Parent()
	return parent != nil && parent.Name() == "hook"
}
