package launcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
)

// fakeSource returns a fixed item list, optionally filtered by the matcher.
type fakeSource struct {
	name        string
	items       []Item
	filter      bool
	initErr     error
	initPanic   bool
	searchErr   error
	searchPanic bool
	delay       time.Duration
	block       bool

	mu        sync.Mutex
	table     config.Table
	initCalls int
	closed    bool
	closeErr  error
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Init(_ context.Context, table config.Table, _ *cache.Cache) error {
	s.mu.Lock()
	s.table = table
	s.initCalls++
	s.mu.Unlock()
	if s.initPanic {
		panic("boom")
	}
	return s.initErr
}

func (s *fakeSource) Search(ctx context.Context, query string, m fuzzy.Matcher) ([]Item, error) {
	if s.searchPanic {
		panic("search boom")
	}
	if s.block {
		<-make(chan struct{})
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var out []Item
	for _, it := range s.items {
		if s.filter {
			score, ok := m.Match(it.Title, query)
			if !ok {
				continue
			}
			it.Score = score
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fetchSource is a two-phase source: its first item asks for a mutation,
// after which it shows the fetched results.
type fetchSource struct {
	fakeSource
	state     Background[[]string]
	mutateErr error
}

func (s *fetchSource) Search(_ context.Context, query string, _ fuzzy.Matcher) ([]Item, error) {
	if results, ok := s.state.Snapshot(); ok {
		var out []Item
		for _, r := range results {
			out = append(out, Item{ID: ItemID(s.name, r), Title: r, Layer: LayerTop, Action: OpenURL("https://" + r)})
		}
		return out, nil
	}
	if query == "" {
		return nil, nil
	}
	return []Item{{
		ID:     s.name,
		Title:  "Search " + query,
		Layer:  LayerTop,
		Action: Mutate(s.name, query),
	}}, nil
}

func (s *fetchSource) Mutate(_ context.Context, payload string) error {
	if s.mutateErr != nil {
		return s.mutateErr
	}
	s.state.Set([]string{payload + ".example", payload + ".test"})
	return nil
}

// fakeEffects records what would have happened.
type fakeEffects struct {
	mu      sync.Mutex
	printed []string
	run     []string
	term    []string
	copied  [][]byte
	opened  []string
	err     error
}

func (e *fakeEffects) record(dst *[]string, v string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	*dst = append(*dst, v)
	return nil
}

func (e *fakeEffects) Print(text string) error            { return e.record(&e.printed, text) }
func (e *fakeEffects) RunDetached(command string) error   { return e.record(&e.run, command) }
func (e *fakeEffects) RunInTerminal(command string) error { return e.record(&e.term, command) }
func (e *fakeEffects) OpenURL(url string) error           { return e.record(&e.opened, url) }

func (e *fakeEffects) CopyToClipboard(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.copied = append(e.copied, data)
	return nil
}

// fakeHistory is an in-memory ledger.
type fakeHistory struct {
	mu       sync.Mutex
	counts   map[string]int
	sessions []string
	err      error
	closed   bool
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{counts: make(map[string]int)}
}

func (h *fakeHistory) Record(_ context.Context, id, session string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.counts[id]++
	h.sessions = append(h.sessions, session)
	return nil
}

func (h *fakeHistory) Counts(_ context.Context, ids []string) (map[string]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	out := make(map[string]int)
	for _, id := range ids {
		if n := h.counts[id]; n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (h *fakeHistory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

var errFake = errors.New("fake failure")
