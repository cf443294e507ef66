package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/config"
	"github.com/dotcommander/claude-compact/internal/exports"
)

// maxTemplateBytes caps templates read from stdin.
const maxTemplateBytes = 64 << 10

var errEmptyTemplate = errors.New("template cannot be empty")

func newPromptCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Customize the continuation prompt",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newPromptShowCmd(opts))
	cmd.AddCommand(newPromptSetCmd(opts))
	cmd.AddCommand(newPromptResetCmd(opts))
	return cmd
}

func newPromptShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the continuation prompt template",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			tmpl := rt.config().PromptTemplate
			type result struct {
				Template     string   `json:"template" yaml:"template"`
				Placeholders []string `json:"placeholders" yaml:"placeholders"`
			}
			resp := result{
				Template:     tmpl,
				Placeholders: []string{config.PlaceholderExportPath, config.PlaceholderSessionID, config.PlaceholderTimestamp},
			}
			return rt.print(resp, func(w io.Writer) error {
				rt.println(rt.styles.Bold.Render("Continuation Prompt Template"))
				rt.println(rt.styles.Panel(tmpl))
				rt.println(rt.styles.Dim.Render("Variables: " + strings.Join(resp.Placeholders, ", ")))
				return nil
			})
		}),
	}
}

func newPromptSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set [TEMPLATE]",
		Short: "Set a custom continuation prompt template",
		Long: `Set a custom continuation prompt template.

Without TEMPLATE the template is read from stdin when stdin is not a
terminal, otherwise the current template is opened in $EDITOR.
Placeholders: {export_path}, {session_id}, {timestamp}.`,
		Args: cobra.MaximumNArgs(1),
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			cfg := rt.config()

			var tmpl string
			switch {
			case len(args) == 1:
				tmpl = args[0]
			case !rt.stdinIsTerminal():
				data, err := io.ReadAll(io.LimitReader(rt.in, maxTemplateBytes))
				if err != nil {
					return fmt.Errorf("read template: %w", err)
				}
				tmpl = string(data)
			default:
				edited, err := editTemplate(cfg.PromptTemplate)
				if err != nil {
					return err
				}
				tmpl = edited
			}

			tmpl = strings.TrimSpace(tmpl)
			if tmpl == "" {
				return errEmptyTemplate
			}
			cfg, err := config.Set(cfg, config.KeyPromptTemplate, tmpl)
			if err != nil {
				return err
			}
			if err := config.Save(rt.paths.ConfigFile, cfg); err != nil {
				return err
			}
			return rt.print(map[string]string{"template": tmpl}, func(w io.Writer) error {
				rt.success("Prompt template updated")
				return nil
			})
		}),
	}
}

func newPromptResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the prompt template to default",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			cfg := rt.config()
			cfg.PromptTemplate = config.DefaultPromptTemplate
			if err := config.Save(rt.paths.ConfigFile, cfg); err != nil {
				return err
			}
			return rt.print(map[string]string{"template": cfg.PromptTemplate}, func(w io.Writer) error {
				rt.success("Prompt template reset to default")
				return nil
			})
		}),
	}
}

// editTemplate opens current in the user's editor and returns the saved text.
func editTemplate(current string) (string, error) {
	dir, err := os.MkdirTemp("", "claude-compact-prompt-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte(current+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := exports.RunEditor(exports.Editor(), path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: temp file created above
	if err != nil {
		return "", fmt.Errorf("read edited template: %w", err)
	}
	return string(data), nil
}
