package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

const (
	defaultDuckduckgoEndpoint  = "https://html.duckduckgo.com/html/"
	defaultDuckduckgoUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/118.0"
	maxDuckduckgoBody          = 4 << 20
)

type duckduckgoConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UserAgent string `yaml:"user_agent"`
}

// WebResult is one scraped search result.
type WebResult struct {
	Title string
	URL   string
}

// Duckduckgo is a two-phase source. Until a search has run it offers a
// single "Search DuckDuckGo" item whose action is a mutation; running it
// fetches the results page and from then on the results themselves are
// offered.
type Duckduckgo struct {
	client  *http.Client
	logger  *slog.Logger
	cfg     duckduckgoConfig
	results launcher.Background[[]WebResult]
}

// NewDuckduckgo creates the source.
func NewDuckduckgo(client *http.Client, logger *slog.Logger) *Duckduckgo {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Duckduckgo{
		client: client,
		logger: logger,
		cfg: duckduckgoConfig{
			Endpoint:  defaultDuckduckgoEndpoint,
			UserAgent: defaultDuckduckgoUserAgent,
		},
	}
}

func (d *Duckduckgo) Name() string { return NameDuckduckgo }

func (d *Duckduckgo) Init(_ context.Context, table config.Table, _ *cache.Cache) error {
	return table.Decode(&d.cfg)
}

func (d *Duckduckgo) Search(_ context.Context, query string, m fuzzy.Matcher) ([]launcher.Item, error) {
	results, searched := d.results.Snapshot()
	if !searched {
		query = strings.TrimSpace(query)
		if query == "" {
			return nil, nil
		}
		return []launcher.Item{{
			ID:       NameDuckduckgo,
			Title:    "Search DuckDuckGo",
			Subtitle: query,
			Layer:    launcher.LayerTop,
			Source:   NameDuckduckgo,
			Action:   launcher.Mutate(NameDuckduckgo, query),
		}}, nil
	}

	var items []launcher.Item
	for _, r := range results {
		score, ok := m.Match(r.Title, query)
		if !keepMatch(score, ok, query) {
			continue
		}
		items = append(items, launcher.Item{
			ID:       launcher.ItemID(NameDuckduckgo, r.URL),
			Title:    r.Title,
			Subtitle: r.URL,
			Score:    score,
			Layer:    launcher.LayerTop,
			Source:   NameDuckduckgo,
			Action:   launcher.OpenURL(r.URL),
		})
	}
	return items, nil
}

// Mutate runs the web search for payload and publishes the results.
func (d *Duckduckgo) Mutate(ctx context.Context, payload string) error {
	results, err := d.fetch(ctx, payload)
	if err != nil {
		return err
	}
	d.logger.Debug("duckduckgo results", "query", payload, "count", len(results))
	d.results.Set(results)
	return nil
}

func (d *Duckduckgo) fetch(ctx context.Context, query string) ([]WebResult, error) {
	endpoint, err := url.Parse(d.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("q", query)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo request: unexpected status %s", resp.Status)
	}
	return ParseDuckduckgoResults(io.LimitReader(resp.Body, maxDuckduckgoBody))
}

func (d *Duckduckgo) Close() error { return nil }

// ParseDuckduckgoResults extracts the result links of an html.duckduckgo.com
// results page. Redirect links are unwrapped to their target.
func ParseDuckduckgoResults(r io.Reader) ([]WebResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []WebResult
	for _, body := range findAll(doc, func(n *html.Node) bool { return hasClass(n, "result__body") }) {
		links := findAll(body, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "a" &&
				n.Parent != nil && hasClass(n.Parent, "result__title")
		})
		if len(links) == 0 {
			continue
		}
		link := links[0]
		title := strings.TrimSpace(textContent(link))
		target := unwrapRedirect(attr(link, "href"))
		if title == "" || target == "" {
			continue
		}
		results = append(results, WebResult{Title: title, URL: target})
	}
	return results, nil
}

// unwrapRedirect returns the uddg parameter of a DuckDuckGo redirect link,
// or href itself when it is not one.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
