package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/config"
	"github.com/dotcommander/claude-compact/internal/exports"
	"github.com/dotcommander/claude-compact/internal/installer"
	"github.com/dotcommander/claude-compact/internal/output"
	"github.com/dotcommander/claude-compact/internal/store"
	"github.com/dotcommander/claude-compact/internal/ui"
)

// confirmFunc asks the user a yes/no question.
type confirmFunc func(title, description string) (bool, error)

// rootOptions holds persistent flag values and injectable seams.
type rootOptions struct {
	claudeDir   string
	format      output.Format
	confirm     confirmFunc
	interactive func(stream any) bool
	executable  func() string
	now         func() time.Time
}

func newRootOptions() *rootOptions {
	return &rootOptions{
		format:      output.FormatTable,
		confirm:     huhConfirm,
		interactive: ui.IsTerminal,
		executable:  installer.Executable,
		now:         time.Now,
	}
}

// runtime is the per-invocation state every command works from.
type runtime struct {
	paths    app.Paths
	settings app.Settings
	format   output.Format
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	styles   ui.Styles
	now      func() time.Time
	confirm  confirmFunc
	isTTY    func(stream any) bool
	exe      string
}

func (o *rootOptions) runtime(cmd *cobra.Command) (*runtime, error) {
	settingsPath, err := app.SettingsPath()
	if err != nil {
		return nil, err
	}
	settings, err := app.LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	claudeDir, err := app.ResolveClaudeDir(o.claudeDir, settings)
	if err != nil {
		return nil, err
	}
	return &runtime{
		paths:    app.NewPaths(claudeDir),
		settings: settings,
		format:   o.format,
		in:       cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		styles:   ui.NewStyles(cmd.OutOrStdout()),
		now:      o.now,
		confirm:  o.confirm,
		isTTY:    o.interactive,
		exe:      o.executable(),
	}, nil
}

// withRuntime resolves the runtime and runs fn, routing failures through cmdErr.
func (o *rootOptions) withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := o.runtime(cmd)
		if err != nil {
			return cmdErr(err)
		}
		if err := fn(cmd, args, rt); err != nil {
			return rt.fail(err)
		}
		return nil
	}
}

func (rt *runtime) config() config.Config {
	return config.Load(rt.paths.ConfigFile, config.Defaults(rt.paths.ExportsDir))
}

func (rt *runtime) policy(cfg config.Config) exports.Policy {
	return exports.Policy{
		Enabled:    cfg.CleanupEnabled,
		Format:     cfg.ExportFormat,
		Mode:       cfg.CleanupMode,
		MaxAgeDays: cfg.CleanupMaxAgeDays,
		MaxCount:   cfg.CleanupMaxCount,
	}
}

// print renders data as JSON/YAML, or calls human for table output.
func (rt *runtime) print(data any, human func(w io.Writer) error) error {
	if rt.format.Structured() || human == nil {
		return output.PrintWith(rt.outputConfig(), output.Success(data))
	}
	return human(rt.out)
}

func (rt *runtime) outputConfig() output.Config {
	cfg := output.DefaultConfig()
	cfg.Writer = rt.out
	cfg.Format = rt.format
	if rt.format == output.FormatTable {
		cfg.Format = output.FormatJSON
	}
	return cfg
}

// fail reports err in the selected format and marks it printed.
func (rt *runtime) fail(err error) error {
	if rt.format.Structured() {
		_ = output.PrintWith(rt.outputConfig(), output.Error(err))
	} else {
		_, _ = fmt.Fprintf(rt.errOut, "%s %s\n", rt.styles.Error.Render(ui.IconFail), err)
	}
	return cmdErr(err)
}

// println writes a line to the command output.
func (rt *runtime) println(a ...any) {
	_, _ = fmt.Fprintln(rt.out, a...)
}

// printf writes formatted text to the command output.
func (rt *runtime) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(rt.out, format, a...)
}

// success prints a check-marked line.
func (rt *runtime) success(format string, a ...any) {
	rt.printf("%s %s\n", rt.styles.Success.Render(ui.IconPass), fmt.Sprintf(format, a...))
}

func (rt *runtime) installer() *installer.Installer {
	return installer.New(rt.paths, rt.exe)
}

// openHistory opens the export history database.
func (rt *runtime) openHistory() (*store.Store, error) {
	path, err := rt.settings.HistoryDBPath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// stdinIsTerminal reports whether the command reads from an interactive terminal.
func (rt *runtime) stdinIsTerminal() bool {
	return rt.isTTY(rt.in)
}
