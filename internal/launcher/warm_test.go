package launcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackground_PublishesAfterLoad(t *testing.T) {
	t.Parallel()

	var b Background[[]string]
	_, ok := b.Snapshot()
	assert.False(t, ok, "nothing published yet")

	release := make(chan struct{})
	b.Start(context.Background(), nil, func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"a", "b"}, nil
	})

	_, ok = b.Snapshot()
	assert.False(t, ok, "still warming up")

	close(release)
	b.Wait()

	v, ok := b.Snapshot()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestBackground_SnapshotNeverBlocks(t *testing.T) {
	t.Parallel()

	var b Background[int]
	b.Set(1)

	b.mu.Lock()
	_, ok := b.Snapshot()
	b.mu.Unlock()
	assert.False(t, ok, "writer holds the lock")

	v, ok := b.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestBackground_LoadErrorLeavesEmpty(t *testing.T) {
	t.Parallel()

	var b Background[int]
	b.Start(context.Background(), discardLogger(), func(context.Context) (int, error) {
		return 0, errors.New("offline")
	})
	b.Wait()

	_, ok := b.Snapshot()
	assert.False(t, ok)
}

func TestBackground_PanicContained(t *testing.T) {
	t.Parallel()

	var b Background[int]
	b.Start(context.Background(), discardLogger(), func(context.Context) (int, error) {
		panic("bad data")
	})
	b.Wait()

	_, ok := b.Snapshot()
	assert.False(t, ok)
}

func TestBackground_StopCancels(t *testing.T) {
	t.Parallel()

	var b Background[int]
	ctx, cancel := context.WithCancel(context.Background())
	b.Start(ctx, nil, func(wctx context.Context) (int, error) {
		<-wctx.Done()
		return 0, wctx.Err()
	})

	// Cancelling the init context does not stop the worker.
	cancel()
	b.Stop()

	_, ok := b.Snapshot()
	assert.False(t, ok)
}

func TestBackground_Update(t *testing.T) {
	t.Parallel()

	var b Background[[]int]
	b.Update(func(v []int) []int { return append(v, 1) })
	b.Update(func(v []int) []int { return append(v, 2) })

	v, ok := b.Snapshot()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, v)
	b.Stop()
}
