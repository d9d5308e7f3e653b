package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

const (
	defaultLinkdingLimit = 100
	defaultLinkdingTTL   = time.Hour
)

type linkdingConfig struct {
	Host          string        `yaml:"host"`
	APIKey        string        `yaml:"api_key"`
	Limit         int           `yaml:"limit"`
	CacheDuration time.Duration `yaml:"cache_duration"`
}

// Bookmark is the subset of a linkding bookmark sift uses.
type Bookmark struct {
	ID          int      `json:"id" yaml:"id"`
	URL         string   `json:"url" yaml:"url"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description,omitempty"`
	TagNames    []string `json:"tag_names" yaml:"tag_names,omitempty"`
}

type bookmarkPage struct {
	Count   int        `json:"count"`
	Results []Bookmark `json:"results"`
}

// Linkding offers bookmarks from a linkding server. Words of the query that
// start with # restrict results to bookmarks carrying that tag.
type Linkding struct {
	client    *http.Client
	logger    *slog.Logger
	bookmarks launcher.Background[[]Bookmark]
}

// NewLinkding creates the source.
func NewLinkding(client *http.Client, logger *slog.Logger) *Linkding {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Linkding{client: client, logger: logger}
}

func (l *Linkding) Name() string { return NameLinkding }

// Init validates the settings and starts fetching bookmarks in the
// background. A fresh cache entry is used instead of the server.
func (l *Linkding) Init(ctx context.Context, table config.Table, c *cache.Cache) error {
	cfg := linkdingConfig{Limit: defaultLinkdingLimit, CacheDuration: defaultLinkdingTTL}
	if err := table.Decode(&cfg); err != nil {
		return err
	}
	if cfg.Host == "" {
		return errors.New("linkding: host is required")
	}
	if cfg.APIKey == "" {
		return errors.New("linkding: api_key is required")
	}

	l.bookmarks.Start(ctx, l.logger, func(ctx context.Context) ([]Bookmark, error) {
		var cached []Bookmark
		if !c.IsExpired(NameLinkding, cfg.CacheDuration) && c.Read(NameLinkding, &cached) {
			return cached, nil
		}
		bookmarks, err := l.fetch(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := c.Write(NameLinkding, bookmarks); err != nil {
			l.logger.Warn("failed to cache bookmarks", "error", err)
		}
		return bookmarks, nil
	})
	return nil
}

func (l *Linkding) fetch(ctx context.Context, cfg linkdingConfig) ([]Bookmark, error) {
	endpoint := strings.TrimRight(cfg.Host, "/") + "/api/bookmarks/?limit=" + strconv.Itoa(cfg.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linkding request: unexpected status %s", resp.Status)
	}
	var page bookmarkPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	return page.Results, nil
}

func (l *Linkding) Search(ctx context.Context, query string, m fuzzy.Matcher) ([]launcher.Item, error) {
	bookmarks, ok := l.bookmarks.Snapshot()
	if !ok {
		return nil, nil
	}

	tags, text := splitTags(query)
	var items []launcher.Item
	for _, b := range bookmarks {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !hasTags(b, tags) {
			continue
		}
		score, ok := fuzzy.Best(m, text, b.Title, b.Description, b.URL)
		if !keepMatch(score, ok, text) {
			continue
		}
		items = append(items, launcher.Item{
			ID:       launcher.ItemID(NameLinkding, strconv.Itoa(b.ID)),
			Title:    b.Title,
			Subtitle: bookmarkSubtitle(b),
			Score:    score,
			Layer:    launcher.LayerMiddle,
			Source:   NameLinkding,
			Action:   launcher.OpenURL(b.URL),
		})
	}
	return items, nil
}

func (l *Linkding) Close() error {
	l.bookmarks.Stop()
	return nil
}

// splitTags separates #tag words from the rest of the query.
func splitTags(query string) (tags []string, text string) {
	var words []string
	for _, w := range strings.Fields(query) {
		if tag, ok := strings.CutPrefix(w, "#"); ok {
			if tag != "" {
				tags = append(tags, tag)
			}
			continue
		}
		words = append(words, w)
	}
	return tags, strings.Join(words, " ")
}

func hasTags(b Bookmark, tags []string) bool {
	for _, want := range tags {
		if !slices.Contains(b.TagNames, want) {
			return false
		}
	}
	return true
}

func bookmarkSubtitle(b Bookmark) string {
	if len(b.TagNames) == 0 {
		return b.URL
	}
	tags := make([]string, len(b.TagNames))
	for i, t := range b.TagNames {
		tags[i] = "#" + t
	}
	return fmt.Sprintf("%s (%s)", b.URL, strings.Join(tags, ", "))
}
