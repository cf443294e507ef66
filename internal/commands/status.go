package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/installer"
	"github.com/dotcommander/claude-compact/internal/ui"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show installation status",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			st, err := rt.installer().Status()
			if err != nil {
				return err
			}
			cfg := rt.config()

			type result struct {
				installer.Status `yaml:",inline"`

				ExportDir      string `json:"export_dir" yaml:"export_dir"`
				PendingHandoff bool   `json:"pending_handoff" yaml:"pending_handoff"`
			}
			resp := result{
				Status:         st,
				ExportDir:      cfg.ExportDirPath(),
				PendingHandoff: fileExists(rt.paths.ContinuationFile),
			}

			return rt.print(resp, func(w io.Writer) error {
				if st.Installed {
					rt.success("Hooks are installed")
				} else {
					rt.println(rt.styles.Warning.Render(ui.IconFail + " Hooks are not installed"))
				}
				rt.println()
				rt.println(rt.styles.KeyValues("Status", [][2]string{
					{"PreCompact hook", rt.styles.Check(st.PreCompact)},
					{"SessionStart hook", rt.styles.Check(st.SessionStart)},
					{"Settings file", st.Paths.SettingsFile},
					{"Hooks directory", st.Paths.HooksDir},
					{"Config file", st.Paths.ConfigFile},
					{"Exports directory", resp.ExportDir},
					{"Log file", st.Paths.LogFile},
					{"Pending handoff", rt.styles.YesNo(resp.PendingHandoff)},
				}))
				if st.Legacy {
					rt.printf("%s legacy hook scripts found in %s; run 'claude-compact install' to replace them\n",
						rt.styles.Warning.Render("Note:"), st.Paths.HooksDir)
				}
				return nil
			})
		}),
	}
}
