package commands

import (
	"io"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/installer"
)

func newInstallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install hooks into Claude Code",
		Long:  "Registers the PreCompact and SessionStart hooks in <claude-dir>/settings.json and writes the default hook config if none exists.",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			cfg := rt.config()
			res, err := rt.installer().Install(cfg)
			if err != nil {
				return err
			}

			type result struct {
				installer.InstallResult `yaml:",inline"`

				Extractor      string `json:"extractor" yaml:"extractor"`
				ExtractorFound bool   `json:"extractor_found" yaml:"extractor_found"`
			}
			_, lookErr := exec.LookPath(rt.settings.ExtractorCommand())
			resp := result{
				InstallResult:  res,
				Extractor:      rt.settings.ExtractorCommand(),
				ExtractorFound: lookErr == nil,
			}

			return rt.print(resp, func(w io.Writer) error {
				switch {
				case len(res.Installed) == 0 && len(res.Updated) == 0:
					rt.success("Hooks already installed")
				case len(res.Updated) > 0 && len(res.Installed) == 0:
					rt.success("Hooks updated (%s)", strings.Join(res.Updated, ", "))
				default:
					rt.success("Hooks installed successfully")
				}
				for _, p := range res.LegacyRemoved {
					rt.printf("%s Removed legacy hook script %s\n", rt.styles.Dim.Render("-"), p)
				}
				if !resp.ExtractorFound {
					rt.printf("%s %s not found on PATH. Install with: pip install claude-conversation-extractor\n",
						rt.styles.Warning.Render("Warning:"), resp.Extractor)
				}
				rt.println()
				rt.println("Hooks will now run when Claude Code compacts conversations.")
				rt.printf("Use %s to verify installation.\n", rt.styles.Info.Render("claude-compact status"))
				return nil
			})
		}),
	}
}

func newUninstallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove hooks, config, and exports",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			cfg := rt.config()
			res, err := rt.installer().Uninstall(cfg.ExportDirPath())
			if err != nil {
				return err
			}
			return rt.print(res, func(w io.Writer) error {
				rt.success("Uninstalled hooks, config, and exports")
				return nil
			})
		}),
	}
}
