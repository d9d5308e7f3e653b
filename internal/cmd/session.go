package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/launcher"
	"github.com/runger/sift/internal/ledger"
	"github.com/runger/sift/internal/source"
)

// sessionOptions describes the process-level plumbing of one session.
type sessionOptions struct {
	Stdin  io.Reader // nil reads os.Stdin
	Stdout io.Writer // Print destination
	Logger *slog.Logger
}

// openLauncher opens the history ledger and source cache and builds a
// launcher over the configured sources. The launcher owns the ledger.
func openLauncher(ctx context.Context, cfg *config.Config, paths *config.Paths, opts sessionOptions) (*launcher.Launcher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Usage is only a ranking signal; an unreadable history ranks without it.
	var history launcher.History
	store, err := ledger.Open(paths.HistoryFile(), ledger.WithLogger(logger))
	if err != nil {
		logger.Warn("history disabled", "path", paths.HistoryFile(), "error", err)
		store = nil
	} else {
		if n, err := store.Prune(ctx); err != nil {
			logger.Warn("failed to prune history", "error", err)
		} else if n > 0 {
			logger.Debug("pruned history", "removed", n)
		}
		history = store
	}

	// A missing cache only costs warm-up time, so carry on without one.
	c, err := cache.New(paths.CacheDir, cache.WithLogger(logger))
	if err != nil {
		logger.Warn("source cache disabled", "error", err)
		c = nil
	}

	l, err := launcher.New(ctx, cfg, launcher.Options{
		Catalog: source.Catalog(source.Options{
			Logger: logger,
			Stdin:  opts.Stdin,
		}),
		Ledger: history,
		Cache:  c,
		Logger: logger,
		Stdout: opts.Stdout,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	for _, st := range l.Status() {
		if st.Err != nil {
			logger.Warn("source unavailable", "source", st.Name, "error", st.Err)
		}
	}
	return l, nil
}
