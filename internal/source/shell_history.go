package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/history"
	"github.com/runger/sift/internal/launcher"
)

type shellHistoryConfig struct {
	Shell string `yaml:"shell"`
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"`
}

// ShellHistory offers previously run shell commands, most recent first.
// Picking one reruns it in the configured terminal.
type ShellHistory struct {
	commands []string
}

// NewShellHistory creates the source.
func NewShellHistory() *ShellHistory {
	return &ShellHistory{}
}

func (h *ShellHistory) Name() string { return NameShellHistory }

func (h *ShellHistory) Init(_ context.Context, table config.Table, _ *cache.Cache) error {
	cfg := shellHistoryConfig{Shell: "auto", Limit: history.MaxEntries}
	if err := table.Decode(&cfg); err != nil {
		return err
	}
	entries, err := history.Read(cfg.Shell, cfg.Path)
	if err != nil {
		return fmt.Errorf("read shell history: %w", err)
	}
	h.commands = history.Recent(entries, cfg.Limit)
	return nil
}

// Search only answers non-empty queries; the whole history is not a useful
// default listing.
func (h *ShellHistory) Search(ctx context.Context, query string, m fuzzy.Matcher) ([]launcher.Item, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	shell := userShell()
	var items []launcher.Item
	for _, cmd := range h.commands {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		score, ok := m.Match(cmd, query)
		if !ok || score <= 0 {
			continue
		}
		items = append(items, launcher.Item{
			ID:     launcher.ItemID(NameShellHistory, cmd),
			Title:  cmd,
			Score:  score,
			Layer:  launcher.LayerMiddle,
			Source: NameShellHistory,
			Action: launcher.RunInTerminal(fmt.Sprintf("%s -c '%s;exec $SHELL;'", shell, cmd)),
		})
	}
	return items, nil
}

func (h *ShellHistory) Close() error { return nil }
