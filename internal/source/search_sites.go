package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

// SearchSites turns "<keyword> <terms>" queries into search URLs. The
// config table maps keywords to URL templates where %s receives the
// escaped terms.
type SearchSites struct {
	sites map[string]string
}

// NewSearchSites creates the source.
func NewSearchSites() *SearchSites {
	return &SearchSites{sites: map[string]string{}}
}

func (s *SearchSites) Name() string { return NameSearchSites }

func (s *SearchSites) Init(_ context.Context, table config.Table, _ *cache.Cache) error {
	return table.Decode(&s.sites)
}

// Search needs a keyword followed by a space; "g" alone offers nothing.
func (s *SearchSites) Search(_ context.Context, query string, _ fuzzy.Matcher) ([]launcher.Item, error) {
	keyword, terms, found := strings.Cut(query, " ")
	if !found {
		return nil, nil
	}
	template, ok := s.sites[keyword]
	if !ok {
		return nil, nil
	}

	target := strings.ReplaceAll(template, "%s", url.QueryEscape(terms))
	return []launcher.Item{{
		ID:       launcher.ItemID(NameSearchSites, keyword),
		Title:    "Search for " + terms,
		Subtitle: target,
		Score:    shortcutScore,
		Layer:    launcher.LayerMiddle,
		Source:   NameSearchSites,
		Action:   launcher.OpenURL(target),
	}}, nil
}

func (s *SearchSites) Close() error { return nil }
