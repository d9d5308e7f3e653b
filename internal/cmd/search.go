package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/launcher"
	"github.com/runger/sift/internal/tui"
)

var (
	searchLimit int
	searchTable bool
)

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Short:   "Print ranked results for a query",
	GroupID: groupCore,
	Long: `Run one search over the enabled sources and print the ranked results
without opening the launcher window.

Results are ordered exactly as the launcher would show them: relevance
weighted by layer and by how often each result was chosen recently.

Examples:
  sift search fire                  # Results for "fire"
  sift search --table fire          # Same, as a table with scores
  sift search --sources eval 2+2    # Ask a single source`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default max_results)")
	searchCmd.Flags().BoolVar(&searchTable, "table", false, "print results as a table with scores")
}

func runSearch(cmd *cobra.Command, args []string) error {
	applyColorMode()

	cfg, paths, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, paths, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	l, err := openLauncher(ctx, cfg, paths, sessionOptions{
		Stdout: cmd.OutOrStdout(),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	items := l.Search(ctx, strings.Join(args, " "))
	if searchLimit > 0 && len(items) > searchLimit {
		items = items[:searchLimit]
	}

	if searchTable {
		writeItemsTable(cmd.OutOrStdout(), items)
		return nil
	}
	return writeItemsPlain(cmd.OutOrStdout(), items, outputWidth())
}

// writeItemsPlain prints one result per line: title, then the dimmed
// subtitle. Lines are cut to width when width is positive.
func writeItemsPlain(w io.Writer, items []launcher.Item, width int) error {
	if len(items) == 0 {
		_, err := fmt.Fprintf(w, "%sNo matches%s\n", colorDim, colorReset)
		return err
	}

	for _, it := range items {
		title := tui.Clean(it.Title)
		subtitle := tui.Clean(it.Subtitle)
		if width > 0 {
			title = tui.Truncate(title, width)
			if rest := width - runewidth.StringWidth(title) - 2; rest > 0 && subtitle != "" {
				subtitle = tui.Truncate(subtitle, rest)
			} else {
				subtitle = ""
			}
		}

		line := colorBold + title + colorReset
		if subtitle != "" {
			line += "  " + colorDim + subtitle + colorReset
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeItemsTable renders results with their ranking inputs.
func writeItemsTable(w io.Writer, items []launcher.Item) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	tw.Style().Format.Header = text.FormatDefault

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft, WidthMax: 40},
		{Number: 3, Align: text.AlignLeft, WidthMax: 50},
		{Number: 4, Align: text.AlignLeft},
		{Number: 5, Align: text.AlignCenter},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignLeft},
	})

	tw.AppendHeader(table.Row{"#", "Title", "Subtitle", "Source", "Layer", "Score", "Uses", "Final", "Action"})
	for i, it := range items {
		tw.AppendRow(table.Row{
			i + 1,
			tui.Clean(it.Title),
			tui.Clean(it.Subtitle),
			it.Source,
			it.Layer.String(),
			it.Score,
			it.Uses,
			fmt.Sprintf("%.3f", it.Final),
			it.Action.Kind.String(),
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no matches)", "-", "-", "-", 0, 0, "0.000", "-"})
	}

	_ = tw.Render()
}
