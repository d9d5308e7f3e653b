package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	bolt "go.etcd.io/bbolt"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

const (
	cliphistBucket   = "b"
	cliphistMatchLen = 500
)

type cliphistConfig struct {
	DB    string `yaml:"db"`
	Icons bool   `yaml:"icons"`
}

type clip struct {
	hash  string
	text  string
	image string
	mime  string
	data  []byte
}

// Cliphist offers entries from the cliphist clipboard history database.
// Picking one copies it back to the clipboard.
type Cliphist struct {
	logger *slog.Logger
	clips  []clip
}

// NewCliphist creates the source.
func NewCliphist(logger *slog.Logger) *Cliphist {
	if logger == nil {
		logger = discardLogger()
	}
	return &Cliphist{logger: logger}
}

func (c *Cliphist) Name() string { return NameCliphist }

// Init snapshots the database, newest entry first. The database is opened
// read-only and closed again before Init returns.
func (c *Cliphist) Init(_ context.Context, table config.Table, _ *cache.Cache) error {
	cfg := cliphistConfig{DB: defaultCliphistDB(), Icons: true}
	if err := table.Decode(&cfg); err != nil {
		return err
	}

	db, err := bolt.Open(cfg.DB, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open cliphist db: %w", err)
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(cliphistBucket))
		if b == nil {
			return nil
		}
		cur := b.Cursor()
		for k, v := cur.Last(); k != nil; k, v = cur.Prev() {
			if cl, ok := newClip(v, cfg.Icons); ok {
				c.clips = append(c.clips, cl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read cliphist db: %w", err)
	}
	c.logger.Debug("cliphist loaded", "count", len(c.clips))
	return nil
}

// newClip classifies a stored value. Images are kept only when icons are
// enabled; values that are neither text nor an image are dropped.
func newClip(value []byte, icons bool) (clip, bool) {
	data := append([]byte(nil), value...)
	cl := clip{
		hash: strconv.FormatUint(xxhash.Sum64(data), 16),
		data: data,
	}

	if mime := http.DetectContentType(data); strings.HasPrefix(mime, "image/") {
		if !icons {
			return clip{}, false
		}
		cl.mime = mime
		cl.image = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
		return cl, true
	}
	if !utf8.Valid(data) {
		return clip{}, false
	}
	cl.text = string(data)
	return cl, true
}

// Search matches the first characters of text entries. Images always match
// with the minimum score.
func (c *Cliphist) Search(ctx context.Context, query string, m fuzzy.Matcher) ([]launcher.Item, error) {
	empty := strings.TrimSpace(query) == ""
	var items []launcher.Item
	for _, cl := range c.clips {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		score := 1
		title := cl.text
		if cl.image != "" {
			title = fmt.Sprintf("[%s %s]", cl.mime, humanize.Bytes(uint64(len(cl.data))))
		} else if !empty {
			s, ok := m.Match(truncateRunes(cl.text, cliphistMatchLen), query)
			if !ok {
				continue
			}
			score = s
		}

		items = append(items, launcher.Item{
			ID:       launcher.ItemID(NameCliphist, cl.hash),
			Title:    title,
			Subtitle: "(cliphist)",
			Image:    cl.image,
			Score:    score,
			Layer:    launcher.LayerBottom,
			Source:   NameCliphist,
			Action:   launcher.Copy(cl.data),
		})
	}
	return items, nil
}

func (c *Cliphist) Close() error {
	c.clips = nil
	return nil
}

func defaultCliphistDB() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "cliphist", "db")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
