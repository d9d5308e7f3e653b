package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Serve the launcher over MCP on stdio",
	GroupID: groupCore,
	Long: `Serve one launcher session as a Model Context Protocol server on
stdin/stdout, so an assistant can search and select like a user would.

Tools:
  search {query, limit}   ranked results for a query
  select {id}             run the action of a result from the last search

Logs go to the log file, or to stderr with --verbose.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, paths, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdin carries the protocol, so the stdin source gets nothing.
	printed := &mcp.Capture{}
	l, err := openLauncher(ctx, cfg, paths, sessionOptions{
		Stdin:  strings.NewReader(""),
		Stdout: printed,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	srv := mcp.New(l, mcp.Options{
		Name:    "sift",
		Version: Version,
		Logger:  logger,
		Printed: printed,
	})

	logger.Info("mcp server starting", "session", l.SessionID())
	return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
