package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Names []string          `yaml:"names"`
	Meta  map[string]string `yaml:"meta"`
	Count int               `yaml:"count"`
}

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), opts...)
	require.NoError(t, err)
	return c
}

func TestNew_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	c, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(c.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNew_EmptyDir(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.Error(t, err)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	want := payload{
		Names: []string{"firefox", "Files", "日本語"},
		Meta:  map[string]string{"exec": "firefox %u"},
		Count: 3,
	}

	require.NoError(t, c.Write("applications", want))

	var got payload
	require.True(t, c.Read("applications", &got))
	assert.Equal(t, want, got)
}

func TestRead_Missing(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	var got payload
	assert.False(t, c.Read("nothing", &got))
}

func TestRead_CorruptIsMiss(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	path, err := c.Path("linkding")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("count: [not an int"), 0o644))

	var got payload
	assert.False(t, c.Read("linkding", &got))
}

func TestIsExpired_NeverWritten(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	assert.True(t, c.IsExpired("applications", time.Hour))
}

func TestIsExpired_FreshAfterWrite(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.NoError(t, c.Write("applications", payload{Count: 1}))

	for _, ttl := range []time.Duration{time.Second, time.Hour, 24 * time.Hour} {
		assert.False(t, c.IsExpired("applications", ttl), "ttl=%s", ttl)
	}
}

func TestIsExpired_UsesMtime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, WithClock(func() time.Time { return now }))
	require.NoError(t, c.Write("zoxide", payload{Count: 1}))

	now = now.Add(2 * time.Hour)
	assert.False(t, c.IsExpired("zoxide", 3*time.Hour))
	assert.True(t, c.IsExpired("zoxide", time.Hour))
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.NoError(t, c.Write("eval", payload{Count: 2}))
	require.NoError(t, c.Invalidate("eval"))

	assert.True(t, c.IsExpired("eval", time.Hour))
	require.NoError(t, c.Invalidate("eval"), "second invalidate is a no-op")
}

func TestInvalidKeys(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	for _, key := range []string{"", ".", "..", "../escape", "a/b", `a\b`, "x..y"} {
		err := c.Write(key, payload{})
		assert.True(t, errors.Is(err, ErrInvalidKey), "key %q: %v", key, err)
		assert.True(t, c.IsExpired(key, time.Hour))
		assert.False(t, c.Read(key, &payload{}))
	}
}

func TestConcurrentWriters(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("source%d", i%4)
			assert.NoError(t, c.Write(key, payload{Count: i}))
		}(i)
	}
	wg.Wait()

	for i := range 4 {
		var got payload
		assert.True(t, c.Read(fmt.Sprintf("source%d", i), &got))
	}

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 4, "temp files must not be left behind")
}

func TestNilCache(t *testing.T) {
	t.Parallel()

	var c *Cache
	assert.True(t, c.IsExpired("x", time.Hour))
	assert.False(t, c.Read("x", &payload{}))
	assert.NoError(t, c.Write("x", payload{}))
	assert.NoError(t, c.Invalidate("x"))
	assert.Empty(t, c.Dir())
}
