package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/runger/sift/internal/config"
)

// newLogger returns the logger for one command. The interactive launcher
// owns the terminal, so logs go to the log file unless --verbose asks for
// stderr. The returned close func flushes and closes the file.
func newLogger(cfg *config.Config, paths *config.Paths, stderr io.Writer) (*slog.Logger, func(), error) {
	if verbose && stderr != nil {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return logger, func() {}, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	if err := os.MkdirAll(paths.LogDir(), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	//nolint:gosec // G304: log path is derived from XDG directories
	f, err := os.OpenFile(paths.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
