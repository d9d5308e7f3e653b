package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
)

// History is the usage ledger the launcher ranks with.
type History interface {
	Record(ctx context.Context, itemID, sessionID string) error
	Counts(ctx context.Context, ids []string) (map[string]int, error)
	Close() error
}

// Options carries the resources a Launcher is built from. The launcher
// takes ownership of Ledger and closes it in Close.
type Options struct {
	Catalog   Catalog
	Ledger    History       // nil disables usage ranking
	Cache     *cache.Cache  // nil disables source caching
	Matcher   fuzzy.Matcher // nil uses fuzzy.New()
	Effects   Effects       // nil uses SystemEffects
	Logger    *slog.Logger
	Stdout    io.Writer // Print destination for the default effects
	SessionID string    // generated when empty
}

// SourceStatus describes how a source's initialisation went.
type SourceStatus struct {
	Name  string
	Ready bool
	Err   error
}

type sourceState struct {
	ready bool
	err   error
}

// Launcher owns the sources of one session and implements search and
// select over them.
type Launcher struct {
	cfg       *config.Config
	registry  *Registry
	ledger    History
	cache     *cache.Cache
	matcher   fuzzy.Matcher
	effects   Effects
	dispatch  *Dispatcher
	logger    *slog.Logger
	sessionID string

	mu     sync.RWMutex
	states map[string]sourceState

	closeOnce sync.Once
	closeErr  error
}

// New builds the configured sources in order and initialises them
// concurrently. Sources missing from the catalog are logged and skipped;
// a source whose Init fails is kept out of searches.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Launcher, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("source catalog is required")
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	logger = logger.With("session", sessionID)

	l := &Launcher{
		cfg:       cfg,
		registry:  NewRegistry(),
		ledger:    opts.Ledger,
		cache:     opts.Cache,
		matcher:   opts.Matcher,
		effects:   opts.Effects,
		logger:    logger,
		sessionID: sessionID,
		states:    make(map[string]sourceState),
	}
	if l.matcher == nil {
		l.matcher = fuzzy.New()
	}
	if l.effects == nil {
		l.effects = NewSystemEffects(cfg.Terminal, cfg.Opener, opts.Stdout, logger)
	}
	l.dispatch = NewDispatcher(l.effects, l.mutator)

	for _, name := range cfg.Sources {
		newSource, ok := opts.Catalog[name]
		if !ok {
			logger.Warn("no such source", "source", name)
			continue
		}
		if err := l.registry.Register(newSource()); err != nil {
			logger.Warn("skipping source", "source", name, "error", err)
		}
	}

	l.initSources(ctx)
	return l, nil
}

// initSources runs every source's Init on a bounded pool. Failures and
// panics are contained to the failing source.
func (l *Launcher) initSources(ctx context.Context) {
	workers := l.cfg.InitWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, src := range l.registry.All() {
		g.Go(func() error {
			name := src.Name()
			start := time.Now()
			err := safeInit(gCtx, src, l.cfg.SourceTable(name), l.cache)

			l.mu.Lock()
			l.states[name] = sourceState{ready: err == nil, err: err}
			l.mu.Unlock()

			if err != nil {
				l.logger.Warn("source init failed", "source", name, "error", err)
			} else {
				l.logger.Debug("source ready", "source", name, "took", time.Since(start))
			}
			return nil
		})
	}
	_ = g.Wait()
}

type searchResult struct {
	index int
	items []Item
	err   error
}

// Search queries every ready source in parallel, ranks the merged results
// and truncates them to the configured cap. A source that errors or does
// not answer within the search timeout contributes nothing. Ties keep
// source order.
func (l *Launcher) Search(ctx context.Context, query string) []Item {
	sources := l.readySources()
	if len(sources) == 0 {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, l.cfg.SearchTimeout())
	defer cancel()

	results := make(chan searchResult, len(sources))
	for i, src := range sources {
		go func() {
			items, err := safeSearch(sctx, src, query, l.matcher)
			results <- searchResult{index: i, items: items, err: err}
		}()
	}

	slots := make([][]Item, len(sources))
collect:
	for pending := len(sources); pending > 0; pending-- {
		select {
		case r := <-results:
			if r.err != nil {
				l.logger.Warn("source search failed", "source", sources[r.index].Name(), "error", r.err)
				continue
			}
			slots[r.index] = r.items
		case <-sctx.Done():
			l.logger.Debug("search deadline reached", "pending", pending)
			break collect
		}
	}

	var items []Item
	for i, s := range slots {
		for _, it := range s {
			if it.Source == "" {
				it.Source = sources[i].Name()
			}
			items = append(items, it)
		}
	}

	return l.rank(ctx, items)
}

func (l *Launcher) rank(ctx context.Context, items []Item) []Item {
	counts := l.usage(ctx, items)
	for i := range items {
		items[i].Uses = counts[items[i].ID]
		items[i].Final = Score(items[i].Score, items[i].Uses, items[i].Layer)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Final > items[j].Final
	})

	if limit := l.cfg.MaxResults; limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (l *Launcher) usage(ctx context.Context, items []Item) map[string]int {
	if l.ledger == nil || len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.ID != "" {
			ids = append(ids, it.ID)
		}
	}
	counts, err := l.ledger.Counts(ctx, ids)
	if err != nil {
		l.logger.Warn("history lookup failed", "error", err)
		return nil
	}
	return counts
}

// Select records the choice and executes the item's action. It reports
// true when the session is complete. An action failure leaves the session
// interactive and is returned as the error. A select the dispatcher refuses
// with ErrBusy or ErrSessionEnded is not recorded.
func (l *Launcher) Select(ctx context.Context, item Item) (bool, error) {
	done, err := l.dispatch.execute(ctx, item.Action, func() {
		if l.ledger == nil || item.ID == "" {
			return
		}
		if err := l.ledger.Record(ctx, item.ID, l.sessionID); err != nil {
			l.logger.Warn("history record failed", "item", item.ID, "error", err)
		}
	})
	if err != nil {
		l.logger.Warn("action failed", "item", item.ID, "action", item.Action.String(), "error", err)
		return false, err
	}
	l.logger.Info("selected", "item", item.ID, "action", item.Action.Kind.String(), "terminal", done)
	return done, nil
}

// State returns the dispatcher state after the last Select.
func (l *Launcher) State() State {
	return l.dispatch.State()
}

// Rearm lets a long-lived front-end select again after a terminal action.
func (l *Launcher) Rearm() {
	l.dispatch.Rearm()
}

// Print writes text through the launcher's effects.
func (l *Launcher) Print(text string) error { return l.effects.Print(text) }

// RunDetached spawns command without waiting for it.
func (l *Launcher) RunDetached(command string) error { return l.effects.RunDetached(command) }

// RunInTerminal spawns command in the configured terminal.
func (l *Launcher) RunInTerminal(command string) error { return l.effects.RunInTerminal(command) }

// CopyToClipboard copies data to the clipboard.
func (l *Launcher) CopyToClipboard(data []byte) error { return l.effects.CopyToClipboard(data) }

// OpenURL opens url with the configured opener.
func (l *Launcher) OpenURL(url string) error { return l.effects.OpenURL(url) }

// Config returns the session configuration.
func (l *Launcher) Config() *config.Config { return l.cfg }

// SessionID returns the identifier attached to this session's history.
func (l *Launcher) SessionID() string { return l.sessionID }

// Status reports every registered source's init outcome in order.
func (l *Launcher) Status() []SourceStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []SourceStatus
	for _, name := range l.registry.Names() {
		st := l.states[name]
		out = append(out, SourceStatus{Name: name, Ready: st.ready, Err: st.err})
	}
	return out
}

// Close closes every source, then the ledger. It is safe to call Close
// multiple times.
func (l *Launcher) Close() error {
	l.closeOnce.Do(func() {
		var errs []error
		for _, src := range l.registry.All() {
			if err := safeClose(src); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", src.Name(), err))
			}
		}
		if l.ledger != nil {
			if err := l.ledger.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close history: %w", err))
			}
		}
		l.closeErr = errors.Join(errs...)
	})
	return l.closeErr
}

func (l *Launcher) readySources() []Source {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Source
	for _, src := range l.registry.All() {
		if l.states[src.Name()].ready {
			out = append(out, src)
		}
	}
	return out
}

func (l *Launcher) mutator(name string) (Mutator, error) {
	src, ok := l.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	m, ok := src.(Mutator)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMutator, name)
	}
	return m, nil
}

func safeInit(ctx context.Context, src Source, table config.Table, c *cache.Cache) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init panicked: %v", r)
		}
	}()
	return src.Init(ctx, table, c)
}

func safeSearch(ctx context.Context, src Source, query string, m fuzzy.Matcher) (items []Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("search panicked: %v", r)
		}
	}()
	return src.Search(ctx, query, m)
}

func safeClose(src Source) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("close panicked: %v", r)
		}
	}()
	return src.Close()
}
