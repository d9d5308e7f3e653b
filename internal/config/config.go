package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the sift configuration for one launcher session.
// It is loaded once and never mutated after the launcher is built.
type Config struct {
	Sources         []string         `yaml:"sources"`           // Enabled sources, in order
	Source          map[string]Table `yaml:"source"`            // Per-source settings keyed by source name
	MaxResults      int              `yaml:"max_results"`       // Result cap for one search
	Terminal        string           `yaml:"terminal"`          // Terminal used for RunInTerminal actions
	Prompt          string           `yaml:"prompt"`            // Prompt text shown by front-ends
	Opener          string           `yaml:"opener"`            // Command used to open URLs
	LogLevel        string           `yaml:"log_level"`         // debug, info, warn, error
	InitWorkers     int              `yaml:"init_workers"`      // Source init pool size (0 = NumCPU)
	SearchTimeoutMs int              `yaml:"search_timeout_ms"` // Per-source search bound
}

// Table is an opaque per-source configuration table. Sources decode it into
// their own settings struct with Decode.
type Table map[string]any

// Get returns the raw value stored under key.
func (t Table) Get(key string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t[key]
	return v, ok
}

// Decode fills out from the table by round-tripping through YAML, so the
// yaml struct tags of out apply. Fields absent from the table keep the
// values already present in out.
func (t Table) Decode(out any) error {
	if len(t) == 0 {
		return nil
	}
	data, err := yaml.Marshal(map[string]any(t))
	if err != nil {
		return fmt.Errorf("failed to encode source table: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode source table: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources:         []string{"stdin"},
		Source:          map[string]Table{},
		MaxResults:      50,
		Terminal:        defaultTerminal(),
		Prompt:          "Search",
		Opener:          "xdg-open",
		LogLevel:        "info",
		InitWorkers:     0,
		SearchTimeoutMs: 250,
	}
}

func defaultTerminal() string {
	if t := os.Getenv("TERMINAL"); t != "" {
		return t
	}
	return "xterm"
}

// SourceTable returns the settings table for the named source, or an empty
// table when the config has none.
func (c *Config) SourceTable(name string) Table {
	if t, ok := c.Source[name]; ok && t != nil {
		return t
	}
	return Table{}
}

// SearchTimeout returns the per-source search bound.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMs) * time.Millisecond
}

// Load loads the configuration from the default config file.
func Load() (*Config, error) {
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile loads the configuration from path. A missing file yields the
// defaults with environment overrides applied.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Source == nil {
		cfg.Source = map[string]Table{}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration to path as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: config is not secret
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("sources must name at least one source")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be > 0 (got: %d)", c.MaxResults)
	}
	if strings.TrimSpace(c.Terminal) == "" {
		return errors.New("terminal must not be empty")
	}
	if strings.TrimSpace(c.Opener) == "" {
		return errors.New("opener must not be empty")
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be debug, info, warn, or error (got: %s)", c.LogLevel)
	}
	if c.InitWorkers < 0 {
		return errors.New("init_workers must be >= 0")
	}
	if c.SearchTimeoutMs <= 0 {
		return fmt.Errorf("search_timeout_ms must be > 0 (got: %d)", c.SearchTimeoutMs)
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, name := range c.Sources {
		if seen[name] {
			return fmt.Errorf("source %q listed more than once", name)
		}
		seen[name] = true
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ApplyEnvOverrides applies SIFT_* environment overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SIFT_SOURCES"); v != "" {
		c.Sources = strings.Fields(v)
	}
	if v := os.Getenv("SIFT_TERMINAL"); v != "" {
		c.Terminal = v
	}
	if v := os.Getenv("SIFT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.LogLevel = "debug"
		}
	}
	if v := os.Getenv("SIFT_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.LogLevel = v
		}
	}
}

// Get returns the string form of a top-level scalar setting.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "sources":
		return strings.Join(c.Sources, " "), nil
	case "max_results":
		return strconv.Itoa(c.MaxResults), nil
	case "terminal":
		return c.Terminal, nil
	case "prompt":
		return c.Prompt, nil
	case "opener":
		return c.Opener, nil
	case "log_level":
		return c.LogLevel, nil
	case "init_workers":
		return strconv.Itoa(c.InitWorkers), nil
	case "search_timeout_ms":
		return strconv.Itoa(c.SearchTimeoutMs), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// ListKeys returns the keys accepted by Get.
func ListKeys() []string {
	return []string{
		"sources",
		"max_results",
		"terminal",
		"prompt",
		"opener",
		"log_level",
		"init_workers",
		"search_timeout_ms",
	}
}
