package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/config"
)

const (
	groupCore  = "core"
	groupSetup = "setup"
)

var (
	configPath     string
	flagSources    []string
	flagPrompt     string
	flagTerminal   string
	flagMaxResults int
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "keyboard launcher over pluggable sources",
	Long: `sift - one prompt over applications, history, bookmarks and more
  - type to search every enabled source at once
  - frequently chosen results float to the top

Run without a subcommand to open the interactive launcher.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRun,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Launcher Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/sift/config.yaml)")
	pf.StringSliceVar(&flagSources, "sources", nil, "enabled sources, in order (overrides config)")
	pf.StringVar(&flagPrompt, "prompt", "", "prompt text (overrides config)")
	pf.StringVar(&flagTerminal, "terminal", "", "terminal used for commands that need one (overrides config)")
	pf.IntVar(&flagMaxResults, "max-results", 0, "maximum number of results (overrides config)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies command-line overrides.
// Flags win over the file, which wins over the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, *config.Paths, error) {
	paths := config.DefaultPaths()

	path := configPath
	if path == "" {
		path = paths.ConfigFile()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("sources") {
		cfg.Sources = flagSources
	}
	if flags.Changed("prompt") {
		cfg.Prompt = flagPrompt
	}
	if flags.Changed("terminal") {
		cfg.Terminal = flagTerminal
	}
	if flags.Changed("max-results") {
		cfg.MaxResults = flagMaxResults
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, paths, nil
}
