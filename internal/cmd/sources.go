package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/launcher"
	"github.com/runger/sift/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Short:   "List sources and whether they started",
	GroupID: groupSetup,
	Long: `List every built-in source. Enabled sources are started exactly as a
launcher session would start them, and any start-up error is shown.

Enable sources with the "sources" list in the config file or --sources.`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
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

	l, err := openLauncher(cmd.Context(), cfg, paths, sessionOptions{
		Stdout: io.Discard,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	names := source.Catalog(source.Options{}).Names()
	writeSources(cmd.OutOrStdout(), names, cfg.Sources, l.Status())
	return nil
}

// writeSources prints one line per known source plus any configured name
// the catalog does not know.
func writeSources(w io.Writer, catalog, enabled []string, status []launcher.SourceStatus) {
	byName := make(map[string]launcher.SourceStatus, len(status))
	for _, st := range status {
		byName[st.Name] = st
	}
	known := make(map[string]bool, len(catalog))
	for _, name := range catalog {
		known[name] = true
	}

	names := append([]string(nil), catalog...)
	sort.Strings(names)

	fmt.Fprintf(w, "%sSources:%s\n", colorBold, colorReset)
	for _, name := range names {
		st, ok := byName[name]
		switch {
		case !ok:
			fmt.Fprintf(w, "  %-14s %sdisabled%s\n", name, colorDim, colorReset)
		case st.Err != nil:
			fmt.Fprintf(w, "  %-14s %sfailed%s %v\n", name, colorRed, colorReset, st.Err)
		case st.Ready:
			fmt.Fprintf(w, "  %-14s %sready%s\n", name, colorGreen, colorReset)
		default:
			fmt.Fprintf(w, "  %-14s %sstarting%s\n", name, colorYellow, colorReset)
		}
	}

	for _, name := range enabled {
		if !known[name] {
			fmt.Fprintf(w, "  %-14s %sunknown%s (listed in config)\n", name, colorYellow, colorReset)
		}
	}
}
