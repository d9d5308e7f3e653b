package source

import (
	"context"
	"strings"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

const shortcutScore = 100

type runCommandsConfig struct {
	Default  map[string]string `yaml:"default"`
	Terminal map[string]string `yaml:"terminal"`
}

type commandTemplate struct {
	template   string
	inTerminal bool
}

// RunCommands turns "<keyword> <argument>" queries into commands built from
// configured templates, with %s replaced by the argument. Templates under
// terminal run in the configured terminal and win over default ones.
type RunCommands struct {
	commands map[string]commandTemplate
}

// NewRunCommands creates the source.
func NewRunCommands() *RunCommands {
	return &RunCommands{commands: map[string]commandTemplate{}}
}

func (r *RunCommands) Name() string { return NameRunCommands }

func (r *RunCommands) Init(_ context.Context, table config.Table, _ *cache.Cache) error {
	var cfg runCommandsConfig
	if err := table.Decode(&cfg); err != nil {
		return err
	}
	for k, v := range cfg.Default {
		r.commands[k] = commandTemplate{template: v}
	}
	for k, v := range cfg.Terminal {
		r.commands[k] = commandTemplate{template: v, inTerminal: true}
	}
	return nil
}

func (r *RunCommands) Search(_ context.Context, query string, _ fuzzy.Matcher) ([]launcher.Item, error) {
	keyword, arg := splitKeyword(query)
	rc, ok := r.commands[keyword]
	if !ok {
		return nil, nil
	}

	command := strings.ReplaceAll(rc.template, "%s", arg)
	action := launcher.Run(command)
	if rc.inTerminal {
		action = launcher.RunInTerminal(command)
	}
	return []launcher.Item{{
		ID:       launcher.ItemID(NameRunCommands, keyword),
		Title:    "Run command " + arg,
		Subtitle: command,
		Score:    shortcutScore,
		Layer:    launcher.LayerMiddle,
		Source:   NameRunCommands,
		Action:   action,
	}}, nil
}

func (r *RunCommands) Close() error { return nil }

// splitKeyword splits a query at its first space. Without a space the whole
// query, minus trailing blanks, is the keyword.
func splitKeyword(query string) (keyword, rest string) {
	if k, r, ok := strings.Cut(query, " "); ok {
		return k, r
	}
	return strings.TrimRight(query, " \t"), ""
}
