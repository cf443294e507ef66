package commands

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/config"
)

// errConfirmRequired is returned when a destructive command cannot prompt.
var errConfirmRequired = errors.New("confirmation required: re-run with --yes")

const templatePreviewLen = 50

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage hook configuration",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigSetCmd(opts))
	cmd.AddCommand(newConfigResetCmd(opts))
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			cfg := rt.config()
			type result struct {
				Path   string        `json:"path" yaml:"path"`
				Config config.Config `json:"config" yaml:"config"`
			}
			return rt.print(result{Path: rt.paths.ConfigFile, Config: cfg}, func(w io.Writer) error {
				rows := make([][]string, 0, len(config.Keys()))
				for _, key := range config.Keys() {
					value, _ := cfg.Value(key)
					if key == config.KeyPromptTemplate {
						value = preview(value, templatePreviewLen)
					}
					rows = append(rows, []string{key, value, rt.styles.Dim.Render(config.Describe(key))})
				}
				rt.println(rt.styles.Table([]string{"Setting", "Value", "Description"}, rows))
				rt.println(rt.styles.Dim.Render(rt.paths.ConfigFile))
				return nil
			})
		}),
	}
}

func newConfigSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			key, raw := args[0], args[1]
			cfg, err := config.Set(rt.config(), key, raw)
			if err != nil {
				return err
			}
			if err := config.Save(rt.paths.ConfigFile, cfg); err != nil {
				return err
			}

			value, _ := cfg.Value(key)
			type result struct {
				Key           string `json:"key" yaml:"key"`
				Value         string `json:"value" yaml:"value"`
				ReinstallHint bool   `json:"reinstall_required" yaml:"reinstall_required"`
			}
			resp := result{Key: key, Value: value, ReinstallHint: key == config.KeyTrigger}
			return rt.print(resp, func(w io.Writer) error {
				rt.success("Set %s = %s", key, value)
				if resp.ReinstallHint {
					rt.println(rt.styles.Warning.Render("Note: Run 'claude-compact install' to apply trigger changes"))
				}
				return nil
			})
		}),
	}
}

func newConfigResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			if !yes {
				ok, err := rt.confirmAction("Reset all configuration to defaults?", rt.paths.ConfigFile)
				if err != nil {
					return err
				}
				if !ok {
					rt.println("Cancelled")
					return nil
				}
			}
			cfg := config.Defaults(rt.paths.ExportsDir)
			if err := config.Save(rt.paths.ConfigFile, cfg); err != nil {
				return err
			}
			return rt.print(cfg, func(w io.Writer) error {
				rt.success("Configuration reset to defaults")
				return nil
			})
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// confirmAction prompts on a terminal and refuses otherwise.
func (rt *runtime) confirmAction(title, description string) (bool, error) {
	if rt.format.Structured() || !rt.stdinIsTerminal() || rt.confirm == nil {
		return false, errConfirmRequired
	}
	return rt.confirm(title, description)
}

func preview(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
