package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dotcommander/claude-compact/internal/exports"
	"github.com/dotcommander/claude-compact/internal/store"
)

const defaultListLimit = 20

func newExportsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exports",
		Short: "Manage exported conversations",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newExportsListCmd(opts))
	cmd.AddCommand(newExportsCleanCmd(opts))
	cmd.AddCommand(newExportsOpenCmd(opts))
	cmd.AddCommand(newExportsDeleteCmd(opts))
	cmd.AddCommand(newExportsHistoryCmd(opts))
	return cmd
}

func newExportsListCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exported conversations",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			cfg := rt.config()
			dir := cfg.ExportDirPath()
			list, err := exports.List(dir, cfg.ExportFormat)
			if err != nil {
				return err
			}

			shown := list
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			total := exports.TotalSize(list)

			type result struct {
				Dir        string           `json:"dir" yaml:"dir"`
				Count      int              `json:"count" yaml:"count"`
				TotalBytes int64            `json:"total_bytes" yaml:"total_bytes"`
				Exports    []exports.Export `json:"exports" yaml:"exports"`
			}
			resp := result{Dir: dir, Count: len(list), TotalBytes: total, Exports: shown}

			return rt.print(resp, func(w io.Writer) error {
				if len(list) == 0 {
					rt.println(rt.styles.Warning.Render("No exports found"))
					rt.printf("Exports directory: %s\n", dir)
					return nil
				}
				rows := make([][]string, 0, len(shown))
				for i, e := range shown {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						e.Name,
						e.SizeHuman(),
						rt.styles.Dim.Render(e.ModTime.Format("2006-01-02 15:04")),
					})
				}
				rt.printf("Exports (%d files, %s total)\n", len(list), humanize.IBytes(uint64(max(total, 0))))
				rt.println(rt.styles.Table([]string{"#", "Filename", "Size", "Date"}, rows))
				if len(list) > len(shown) {
					rt.println(rt.styles.Dim.Render(fmt.Sprintf("... and %d more", len(list)-len(shown))))
				}
				return nil
			})
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "Number of exports to show")
	return cmd
}

func newExportsCleanCmd(opts *rootOptions) *cobra.Command {
	var (
		olderThan int
		keep      int
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean up old exports",
		Long:  "Deletes exports older than --older-than days, or all but the --keep most recent. Without either flag the configured cleanup policy applies.",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			cfg := rt.config()
			cleanOpts := exports.CleanOptions{DryRun: dryRun, Policy: rt.policy(cfg)}
			if cmd.Flags().Changed("older-than") {
				if olderThan < 0 {
					return errors.New("--older-than must not be negative")
				}
				cleanOpts.OlderThanDays = &olderThan
			}
			if cmd.Flags().Changed("keep") {
				if keep < 0 {
					return errors.New("--keep must not be negative")
				}
				cleanOpts.KeepCount = &keep
			}

			selected, err := exports.Clean(cfg.ExportDirPath(), cfg.ExportFormat, cleanOpts, rt.now())
			if err != nil {
				return err
			}

			type result struct {
				DryRun  bool             `json:"dry_run" yaml:"dry_run"`
				Deleted []exports.Export `json:"deleted" yaml:"deleted"`
			}
			if selected == nil {
				selected = []exports.Export{}
			}
			return rt.print(result{DryRun: dryRun, Deleted: selected}, func(w io.Writer) error {
				if len(selected) == 0 {
					rt.println(rt.styles.Success.Render("Nothing to clean"))
					return nil
				}
				action := "Deleted"
				if dryRun {
					action = "Would delete"
				}
				for _, e := range selected {
					rt.printf("%s %s: %s\n", rt.styles.Error.Render("✗"), action, e.Name)
				}
				rt.println()
				rt.printf("%s %d file(s)\n", action, len(selected))
				return nil
			})
		}),
	}
	cmd.Flags().IntVarP(&olderThan, "older-than", "d", 0, "Delete exports older than N days")
	cmd.Flags().IntVarP(&keep, "keep", "k", 0, "Keep only N most recent exports")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be deleted without deleting")
	return cmd
}

func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: must be a number", arg)
	}
	return n, nil
}

func newExportsOpenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open INDEX",
		Short: "Open an export in your editor",
		Long:  "Opens the export at INDEX (as shown by 'exports list') with $EDITOR, $VISUAL, or the platform opener.",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			cfg := rt.config()
			e, err := exports.Open(cfg.ExportDirPath(), cfg.ExportFormat, index, exports.Editor())
			if err != nil {
				return err
			}
			return rt.print(e, func(w io.Writer) error {
				rt.success("Opened %s", e.Name)
				return nil
			})
		}),
	}
}

func newExportsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete one export",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			cfg := rt.config()
			e, err := exports.Delete(cfg.ExportDirPath(), cfg.ExportFormat, index)
			if err != nil {
				return err
			}
			return rt.print(e, func(w io.Writer) error {
				rt.success("Deleted %s", e.Name)
				return nil
			})
		}),
	}
}

func newExportsHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent export runs",
		Long:  "Lists PreCompact runs recorded in the history database, including failed runs and whether each export was reinjected.",
		Args:  cobra.NoArgs,
		RunE: opts.withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			if !rt.settings.HistoryOn() {
				return errors.New("export history is disabled (history_enabled: false)")
			}
			st, err := rt.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			runs, err := st.ListRuns(ctxOrBackground(cmd), limit)
			if err != nil {
				return err
			}
			return rt.print(runs, func(w io.Writer) error {
				if len(runs) == 0 {
					rt.println(rt.styles.Warning.Render("No export runs recorded"))
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, historyRow(rt, r))
				}
				rt.println(rt.styles.Table([]string{"When", "Session", "Status", "Export", "Reinjected"}, rows))
				return nil
			})
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "Number of runs to show")
	return cmd
}

func historyRow(rt *runtime, r store.Run) []string {
	status := rt.styles.Success.Render(r.Status)
	detail := r.ExportPath
	if r.Status == store.StatusFailed {
		status = rt.styles.Error.Render(r.Status)
		detail = preview(r.Error, 60)
	}
	reinjected := rt.styles.Dim.Render("-")
	if r.ReinjectedAt != nil {
		reinjected = humanize.RelTime(*r.ReinjectedAt, rt.now(), "ago", "from now")
	}
	return []string{
		humanize.RelTime(r.CreatedAt, rt.now(), "ago", "from now"),
		r.SessionID,
		status,
		detail,
		reinjected,
	}
}

func ctxOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
