package source

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

const defaultApplicationsTTL = 24 * time.Hour

type applicationsConfig struct {
	CacheDuration time.Duration `yaml:"cache_duration"`
	Dirs          []string      `yaml:"dirs"`
}

// DesktopEntry is the launchable part of a freedesktop .desktop file.
type DesktopEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Comment  string `yaml:"comment,omitempty"`
	Icon     string `yaml:"icon,omitempty"`
	Exec     string `yaml:"exec"`
	Terminal bool   `yaml:"terminal,omitempty"`
}

// Applications offers installed desktop applications. Entries are scanned
// on a background worker and cached between sessions.
type Applications struct {
	logger  *slog.Logger
	entries launcher.Background[[]DesktopEntry]
}

// NewApplications creates the source.
func NewApplications(logger *slog.Logger) *Applications {
	if logger == nil {
		logger = discardLogger()
	}
	return &Applications{logger: logger}
}

func (a *Applications) Name() string { return NameApplications }

func (a *Applications) Init(ctx context.Context, table config.Table, c *cache.Cache) error {
	cfg := applicationsConfig{CacheDuration: defaultApplicationsTTL}
	if err := table.Decode(&cfg); err != nil {
		return err
	}
	if len(cfg.Dirs) == 0 {
		cfg.Dirs = applicationDirs()
	}

	a.entries.Start(ctx, a.logger, func(ctx context.Context) ([]DesktopEntry, error) {
		var cached []DesktopEntry
		if !c.IsExpired(NameApplications, cfg.CacheDuration) && c.Read(NameApplications, &cached) {
			a.logger.Debug("applications loaded from cache", "count", len(cached))
			return cached, nil
		}

		entries, err := ScanDesktopEntries(ctx, cfg.Dirs)
		if err != nil {
			return nil, err
		}
		if err := c.Write(NameApplications, entries); err != nil {
			a.logger.Warn("failed to cache applications", "error", err)
		}
		a.logger.Debug("applications scanned", "count", len(entries))
		return entries, nil
	})
	return nil
}

// Search matches application names. Nothing is returned until the first
// scan has been published.
func (a *Applications) Search(ctx context.Context, query string, m fuzzy.Matcher) ([]launcher.Item, error) {
	entries, ok := a.entries.Snapshot()
	if !ok {
		return nil, nil
	}

	var items []launcher.Item
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		score, ok := m.Match(e.Name, query)
		if !keepMatch(score, ok, query) {
			continue
		}
		action := launcher.Run(e.Exec)
		if e.Terminal {
			action = launcher.RunInTerminal(e.Exec)
		}
		items = append(items, launcher.Item{
			ID:       launcher.ItemID(NameApplications, e.ID),
			Title:    e.Name,
			Subtitle: e.Comment,
			Icon:     e.Icon,
			Score:    score,
			Layer:    launcher.LayerMiddle,
			Source:   NameApplications,
			Action:   action,
		})
	}
	return items, nil
}

func (a *Applications) Close() error {
	a.entries.Stop()
	return nil
}

// applicationDirs lists the XDG application directories, most specific
// first.
func applicationDirs() []string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	var dirs []string
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	for _, d := range filepath.SplitList(dataDirs) {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

// ScanDesktopEntries walks dirs for .desktop files. When two directories
// provide the same desktop file ID the earlier directory wins. Missing
// directories are skipped.
func ScanDesktopEntries(ctx context.Context, dirs []string) ([]DesktopEntry, error) {
	seen := make(map[string]bool)
	var entries []DesktopEntry

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					return fs.SkipDir
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil
			}
			id := strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
			if seen[id] {
				return nil
			}
			seen[id] = true

			entry, ok, err := readDesktopFile(path)
			if err != nil || !ok {
				return nil
			}
			entry.ID = id
			entries = append(entries, entry)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	}
	return entries, nil
}

func readDesktopFile(path string) (DesktopEntry, bool, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from an XDG data dir walk
	if err != nil {
		return DesktopEntry{}, false, err
	}
	defer f.Close()
	return parseDesktopEntry(bufio.NewScanner(f))
}

// parseDesktopEntry reads the [Desktop Entry] group. ok is false for
// entries that are hidden, not applications, or have nothing to execute.
func parseDesktopEntry(scanner *bufio.Scanner) (DesktopEntry, bool, error) {
	var (
		entry   DesktopEntry
		inGroup bool
		kind    string
		hidden  bool
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inGroup = line == "[Desktop Entry]"
			continue
		}
		if !inGroup {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Type":
			kind = value
		case "Name":
			entry.Name = value
		case "Comment":
			entry.Comment = value
		case "Icon":
			entry.Icon = value
		case "Exec":
			entry.Exec = stripFieldCodes(value)
		case "Terminal":
			entry.Terminal = value == "true"
		case "NoDisplay", "Hidden":
			hidden = hidden || value == "true"
		}
	}
	if err := scanner.Err(); err != nil {
		return DesktopEntry{}, false, err
	}

	if hidden || entry.Exec == "" || entry.Name == "" {
		return DesktopEntry{}, false, nil
	}
	if kind != "" && kind != "Application" {
		return DesktopEntry{}, false, nil
	}
	return entry, true, nil
}

// stripFieldCodes removes %f, %U and friends from an Exec value and
// unescapes %%.
func stripFieldCodes(exec string) string {
	var b strings.Builder
	for i := 0; i < len(exec); i++ {
		if exec[i] != '%' {
			b.WriteByte(exec[i])
			continue
		}
		if i+1 < len(exec) && exec[i+1] == '%' {
			b.WriteByte('%')
		}
		i++
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
