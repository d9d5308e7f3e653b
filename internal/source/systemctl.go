package source

import (
	"context"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

type powerAction struct {
	title    string
	subtitle string
	verb     string
}

var powerActions = []powerAction{
	{"suspend", "Suspend the computer", "suspend"},
	{"hibernate", "Hibernate the computer", "hibernate"},
	{"reboot", "Reboot the computer", "reboot"},
	{"shutdown", "Shutdown the computer", "poweroff"},
}

// Systemctl offers the power management verbs of systemctl.
type Systemctl struct{}

// NewSystemctl creates the source.
func NewSystemctl() *Systemctl { return &Systemctl{} }

func (s *Systemctl) Name() string { return NameSystemctl }

func (s *Systemctl) Init(context.Context, config.Table, *cache.Cache) error { return nil }

func (s *Systemctl) Search(_ context.Context, query string, m fuzzy.Matcher) ([]launcher.Item, error) {
	var items []launcher.Item
	for _, p := range powerActions {
		score, ok := m.Match(p.title, query)
		if !keepMatch(score, ok, query) {
			continue
		}
		items = append(items, launcher.Item{
			ID:       launcher.ItemID(NameSystemctl, p.verb),
			Title:    p.title,
			Subtitle: p.subtitle,
			Score:    score,
			Layer:    launcher.LayerMiddle,
			Source:   NameSystemctl,
			Action:   launcher.Run("systemctl " + p.verb),
		})
	}
	return items, nil
}

func (s *Systemctl) Close() error { return nil }
