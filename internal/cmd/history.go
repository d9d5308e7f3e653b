package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/ledger"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show the most chosen results",
	GroupID: groupCore,
	Long: `Show the results chosen most often within the retention window.

Every selection is recorded in the local SQLite history. Results chosen
more often rank higher in later searches; choices older than 30 days no
longer count and are pruned when a session starts.

Examples:
  sift history               # Top 20
  sift history --limit=50    # Top 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of results to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, paths, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := ledger.Open(paths.HistoryFile(), ledger.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if _, err := store.Prune(ctx); err != nil {
		logger.Warn("failed to prune history", "error", err)
	}

	top, err := store.Top(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
		return nil
	}

	writeUsageTable(cmd.OutOrStdout(), top, time.Now())
	return nil
}

func writeUsageTable(w io.Writer, top []ledger.Usage, now time.Time) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Format.Header = text.FormatDefault

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, WidthMax: 70},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignLeft},
	})

	tw.AppendHeader(table.Row{"Item", "Uses", "Last chosen"})
	for _, u := range top {
		tw.AppendRow(table.Row{u.ItemID, u.Count, humanize.RelTime(u.LastChosen, now, "ago", "from now")})
	}

	_ = tw.Render()
}
