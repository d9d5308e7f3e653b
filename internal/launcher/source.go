package launcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
)

var (
	// ErrUnknownSource is returned when an action names a source that is
	// not part of the session.
	ErrUnknownSource = errors.New("unknown source")

	// ErrNoMutator is returned when a mutate action targets a source that
	// does not implement Mutator.
	ErrNoMutator = errors.New("source does not accept mutations")

	// ErrDuplicateSource is returned when two sources share a name.
	ErrDuplicateSource = errors.New("duplicate source")
)

// Source is a pluggable data provider.
//
// Init is called once per session with the source's config table and the
// shared cache. It may return before expensive work finishes, leaving the
// source warming up; Search must then reflect whatever is visible so far
// instead of blocking. Search must return promptly and treat ctx
// cancellation as "return nothing". Close releases what Init acquired.
type Source interface {
	Name() string
	Init(ctx context.Context, table config.Table, c *cache.Cache) error
	Search(ctx context.Context, query string, m fuzzy.Matcher) ([]Item, error)
	Close() error
}

// Mutator is implemented by sources whose items carry Mutate actions.
type Mutator interface {
	Mutate(ctx context.Context, payload string) error
}

// Catalog maps source names to constructors.
type Catalog map[string]func() Source

// Names returns the catalog's source names in no particular order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	return names
}

// Registry is an ordered, name-keyed set of sources.
type Registry struct {
	mu      sync.RWMutex
	order   []Source
	sources map[string]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register appends s. Names must be unique.
func (r *Registry) Register(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, ok := r.sources[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, name)
	}
	r.sources[name] = s
	r.order = append(r.order, s)
	return nil
}

// Get returns the source with the given name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// All returns the sources in registration order.
func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Source(nil), r.order...)
}

// Names returns the source names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	for i, s := range r.order {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
