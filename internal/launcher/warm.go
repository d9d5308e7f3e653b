package launcher

import (
	"context"
	"log/slog"
	"sync"
)

// Background holds state populated by a worker goroutine and read by
// Search. The worker publishes under the write lock; readers only ever try
// the read lock, so a search never waits on warm-up.
type Background[T any] struct {
	mu     sync.RWMutex
	value  T
	loaded bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs load on a new goroutine and publishes its result. The worker
// outlives ctx's deadline but not its values; Stop cancels it.
func (b *Background[T]) Start(ctx context.Context, logger *slog.Logger, load func(context.Context) (T, error)) {
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		defer func() {
			if r := recover(); r != nil && logger != nil {
				logger.Error("background load panicked", "panic", r)
			}
		}()

		v, err := load(wctx)
		if err != nil {
			if logger != nil && wctx.Err() == nil {
				logger.Warn("background load failed", "error", err)
			}
			return
		}
		b.Set(v)
	}()
}

// Set publishes v.
func (b *Background[T]) Set(v T) {
	b.mu.Lock()
	b.value = v
	b.loaded = true
	b.mu.Unlock()
}

// Update applies fn to the current value under the write lock.
func (b *Background[T]) Update(fn func(v T) T) {
	b.mu.Lock()
	b.value = fn(b.value)
	b.loaded = true
	b.mu.Unlock()
}

// Snapshot returns the published value. ok is false when nothing has been
// published yet or a writer currently holds the lock.
func (b *Background[T]) Snapshot() (v T, ok bool) {
	if !b.mu.TryRLock() {
		return v, false
	}
	defer b.mu.RUnlock()
	return b.value, b.loaded
}

// Wait blocks until the worker started by Start has finished.
func (b *Background[T]) Wait() {
	if b.done != nil {
		<-b.done
	}
}

// Stop cancels the worker and waits for it to exit.
func (b *Background[T]) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.Wait()
}
