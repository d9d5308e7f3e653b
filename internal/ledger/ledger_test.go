package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock shared between a test and its ledger.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()

	l, err := Open(filepath.Join(t.TempDir(), "history.db"), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpen_CreatesDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, "stdin:hello", "s1"))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()

	n, err := l.Count(ctx, "stdin:hello")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "facts survive reopen")
}

func TestLedger_WALMode(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)

	var mode string
	require.NoError(t, l.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestLedger_RecordThenCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLedger(t)

	n, err := l.Count(ctx, "applications:firefox")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "absent id counts zero")

	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Record(ctx, "applications:firefox", "s1"))
		n, err = l.Count(ctx, "applications:firefox")
		require.NoError(t, err)
		assert.Equal(t, i, n, "count grows with each selection")
	}
}

func TestLedger_RecordEmptyID(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	assert.Error(t, l.Record(context.Background(), "", "s1"))
}

func TestLedger_PruneAfterRetention(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLedger(t, WithClock(clock.Now))

	require.NoError(t, l.Record(ctx, "a", "s1"))
	n, err := l.Count(ctx, "a")
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 1)

	clock.Advance(31 * 24 * time.Hour)

	// No write yet: nothing pruned, counts only decay through pruning.
	n, err = l.Count(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, l.Record(ctx, "b", "s2"))

	n, err = l.Count(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = l.Count(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLedger_RetainsWithinWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLedger(t, WithClock(clock.Now))

	require.NoError(t, l.Record(ctx, "a", "s1"))
	clock.Advance(29 * 24 * time.Hour)
	require.NoError(t, l.Record(ctx, "b", "s2"))

	n, err := l.Count(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLedger_Prune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLedger(t, WithClock(clock.Now))

	require.NoError(t, l.Record(ctx, "a", "s1"))
	require.NoError(t, l.Record(ctx, "a", "s1"))

	removed, err := l.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	clock.Advance(Retention + time.Minute)
	removed, err = l.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestLedger_Counts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLedger(t)

	require.NoError(t, l.Record(ctx, "x", "s"))
	require.NoError(t, l.Record(ctx, "x", "s"))
	require.NoError(t, l.Record(ctx, "y", "s"))

	counts, err := l.Counts(ctx, []string{"x", "y", "z", "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 2, "y": 1}, counts)

	counts, err = l.Counts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestLedger_CountsLargeBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLedger(t)

	ids := make([]string, 0, maxBatch*2+3)
	for i := range cap(ids) {
		ids = append(ids, fmt.Sprintf("id-%d", i))
	}
	require.NoError(t, l.Record(ctx, ids[0], "s"))
	require.NoError(t, l.Record(ctx, ids[len(ids)-1], "s"))

	counts, err := l.Counts(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ids[0]: 1, ids[len(ids)-1]: 1}, counts)
}

func TestLedger_Top(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLedger(t, WithClock(clock.Now))

	for _, id := range []string{"a", "b", "b", "c", "c", "c"} {
		require.NoError(t, l.Record(ctx, id, "s"))
		clock.Advance(time.Minute)
	}

	top, err := l.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].ItemID)
	assert.Equal(t, 3, top[0].Count)
	assert.Equal(t, "b", top[1].ItemID)
	assert.Equal(t, 2, top[1].Count)
	assert.True(t, top[0].LastChosen.After(top[1].LastChosen))
}

func TestLedger_ConcurrentRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLedger(t)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for range 10 {
				assert.NoError(t, l.Record(ctx, fmt.Sprintf("item-%d", w%2), "s"))
			}
		}(w)
	}
	wg.Wait()

	counts, err := l.Counts(ctx, []string{"item-0", "item-1"})
	require.NoError(t, err)
	assert.Equal(t, 40, counts["item-0"])
	assert.Equal(t, 40, counts["item-1"])
}

func TestLedger_CloseIdempotent(t *testing.T) {
	t.Parallel()

	l, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestLedger_MigrationIdempotent(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.migrate(context.Background()))

	var version int
	require.NoError(t, l.DB().QueryRow(
		"SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1").Scan(&version))
	assert.Equal(t, 1, version)
}
