package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/runger/sift/internal/config"
)

var configKeys bool

var configCmd = &cobra.Command{
	Use:     "config [key]",
	Short:   "Show the effective configuration",
	GroupID: groupSetup,
	Long: `Show the configuration a session would run with: the config file merged
with SIFT_* environment variables and command-line flags.

Without arguments, prints the whole configuration as YAML.
With a key, prints that setting's value.

Examples:
  sift config                 # Print everything
  sift config terminal        # Print one setting
  sift config --keys          # List settings accepted as keys`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configKeys, "keys", false, "list settings accepted as a key")
}

func runConfig(cmd *cobra.Command, args []string) error {
	applyColorMode()

	cfg, paths, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case configKeys:
		for _, key := range config.ListKeys() {
			fmt.Fprintln(out, key)
		}
		return nil
	case len(args) == 1:
		return getConfig(out, cfg, args[0])
	default:
		return printConfig(out, cfg, paths)
	}
}

func printConfig(w io.Writer, cfg *config.Config, paths *config.Paths) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = paths.ConfigFile()
	}
	fmt.Fprintf(w, "%s# config file: %s%s\n", colorDim, path, colorReset)
	return nil
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(w, "%s(not set)%s\n", colorDim, colorReset)
	} else {
		fmt.Fprintln(w, value)
	}
	return nil
}
