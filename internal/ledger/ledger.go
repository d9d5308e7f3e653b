// Package ledger stores "item was chosen" facts in SQLite and answers
// per-item usage counts within a rolling retention window.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Retention is how long a fact counts towards usage before it is pruned.
const Retention = 30 * 24 * time.Hour

// maxBatch bounds the number of bound parameters in one Counts query.
const maxBatch = 500

// Usage summarises how often one item was chosen.
type Usage struct {
	ItemID     string
	Count      int
	LastChosen time.Time
}

// Ledger is the durable history of selections. It is safe for concurrent use;
// writes are serialised through a single connection.
type Ledger struct {
	db        *sql.DB
	now       func() time.Time
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to stamp and prune facts.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the ledger logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Open opens (creating if needed) the ledger database at path.
// The database is opened in WAL mode with synchronous commits so a
// recorded fact is on disk when Record returns.
func Open(path string, opts ...Option) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("ledger path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	l := &Ledger{
		db:     db,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return l, nil
}

// Close checkpoints the WAL and closes the database. It is safe to call
// Close multiple times.
func (l *Ledger) Close() error {
	l.closeOnce.Do(func() {
		_, _ = l.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		l.closeErr = l.db.Close()
	})
	return l.closeErr
}

// DB returns the underlying database connection.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// Record appends a fact that itemID was chosen now, then prunes every fact
// older than Retention. Both happen in one committed transaction.
func (l *Ledger) Record(ctx context.Context, itemID, sessionID string) error {
	if itemID == "" {
		return errors.New("item id is required")
	}

	now := l.now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history (item_id, session_id, chosen_at_unix_ms)
		VALUES (?, ?, ?)
	`, itemID, sessionID, now.UnixMilli()); err != nil {
		return fmt.Errorf("failed to record selection: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM history WHERE chosen_at_unix_ms < ?
	`, now.Add(-Retention).UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selection: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		l.logger.Debug("pruned history", "rows", n)
	}
	return nil
}

// Count returns the number of retained facts for itemID. An unknown id has
// a count of zero.
func (l *Ledger) Count(ctx context.Context, itemID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM history WHERE item_id = ?
	`, itemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Counts returns the count for each of ids. Ids with no facts are absent
// from the result.
func (l *Ledger) Counts(ctx context.Context, ids []string) (map[string]int, error) {
	counts := make(map[string]int)

	unique := dedupe(ids)
	for start := 0; start < len(unique); start += maxBatch {
		end := min(start+maxBatch, len(unique))
		batch := unique[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")

		rows, err := l.db.QueryContext(ctx, `
			SELECT item_id, COUNT(1) FROM history
			WHERE item_id IN (`+placeholders+`)
			GROUP BY item_id
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to count history: %w", err)
		}

		for rows.Next() {
			var id string
			var n int
			if err := rows.Scan(&id, &n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan history count: %w", err)
			}
			counts[id] = n
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate history counts: %w", err)
		}
	}

	return counts, nil
}

// Top returns the most chosen items, most used first.
func (l *Ledger) Top(ctx context.Context, limit int) ([]Usage, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT item_id, COUNT(1) AS n, MAX(chosen_at_unix_ms) AS last
		FROM history
		GROUP BY item_id
		ORDER BY n DESC, last DESC, item_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Usage
	for rows.Next() {
		var u Usage
		var lastMs int64
		if err := rows.Scan(&u.ItemID, &u.Count, &lastMs); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		u.LastChosen = time.UnixMilli(lastMs)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return out, nil
}

// Prune removes facts older than Retention and returns how many were removed.
func (l *Ledger) Prune(ctx context.Context) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		DELETE FROM history WHERE chosen_at_unix_ms < ?
	`, l.now().Add(-Retention).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
