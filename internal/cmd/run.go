package cmd

import (
	"bytes"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/tui"
)

var runCmd = &cobra.Command{
	Use:     "run [query]",
	Short:   "Open the interactive launcher",
	GroupID: groupCore,
	Long: `Open the interactive launcher on the controlling terminal.

The window is drawn on /dev/tty, so sift can sit in a pipeline: lines piped
into it are offered by the stdin source and text chosen with a print action
is written to stdout once the window closes.

Only one interactive session runs at a time.

Examples:
  sift                          # Open the launcher
  sift run fire                 # Open with the query "fire" pre-filled
  ls | sift --sources stdin     # Pick one line from a list`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	lock, err := acquireLock(paths.LockFile())
	if err != nil {
		return err
	}
	defer releaseLock(lock)

	// The window owns the terminal, so logs never go to stderr here.
	logger, closeLog, err := newLogger(cfg, paths, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()

	// Printed text is held back until the alternate screen is gone.
	var printed bytes.Buffer
	l, err := openLauncher(ctx, cfg, paths, sessionOptions{
		Stdout: &printed,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Warn("failed to close sources", "error", err)
		}
	}()

	model, runErr := tui.Run(ctx, l, tui.Options{
		Prompt: cfg.Prompt,
		Query:  strings.Join(args, " "),
	})

	if printed.Len() > 0 {
		if _, err := cmd.OutOrStdout().Write(printed.Bytes()); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if item, ok := model.Selected(); ok {
		logger.Info("session complete", "item", item.ID, "source", item.Source)
	} else if model.Cancelled() {
		logger.Debug("session cancelled")
	}
	return nil
}
