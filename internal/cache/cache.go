// Package cache persists per-source payloads on disk, one file per key, with
// the file modification time as the freshness clock.
package cache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidKey is returned when a key cannot be used as a file name.
var ErrInvalidKey = errors.New("invalid cache key")

const fileExt = ".yaml"

// Cache is a TTL-gated payload store shared by all sources of a session.
// A nil *Cache behaves as an always-empty cache that drops writes.
type Cache struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the clock used for freshness checks and write stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used to report advisory failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:    dir,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the directory holding the cache files.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Path returns the file backing key.
func (c *Cache) Path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, key+fileExt), nil
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// IsExpired reports whether the entry for key is missing or older than ttl.
func (c *Cache) IsExpired(key string, ttl time.Duration) bool {
	if c == nil {
		return true
	}
	path, err := c.Path(key)
	if err != nil {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return c.now().Sub(info.ModTime()) > ttl
}

// Read decodes the entry for key into out. It reports false when the entry
// is missing, unreadable or does not decode.
func (c *Cache) Read(key string, out any) bool {
	if c == nil {
		return false
	}
	path, err := c.Path(key)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from a validated key
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Debug("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		c.logger.Debug("cache decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Write encodes payload and replaces the entry for key, stamping it with the
// current time. Concurrent writers of one key are serialised and readers
// never observe a partially written file.
func (c *Cache) Write(key string, payload any) error {
	if c == nil {
		return nil
	}
	path, err := c.Path(key)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}

	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	tmp, err := os.CreateTemp(c.dir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	now := c.now()
	if err := os.Chtimes(tmpName, now, now); err != nil {
		return fmt.Errorf("failed to stamp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Invalidate removes the entry for key. Removing a missing entry is not an
// error.
func (c *Cache) Invalidate(key string) error {
	if c == nil {
		return nil
	}
	path, err := c.Path(key)
	if err != nil {
		return err
	}

	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

func (c *Cache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}
