// Package source implements the data providers a launcher session can
// enable by name: piped input, desktop applications, shell history, the
// clipboard history, web searches and a handful of command shortcuts.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/runger/sift/internal/launcher"
)

// Source names, as used in the sources list of the config file.
const (
	NameStdin        = "stdin"
	NameApplications = "applications"
	NameZoxide       = "zoxide"
	NameShellHistory = "shell_history"
	NameCliphist     = "cliphist"
	NameSystemctl    = "systemctl"
	NameEval         = "eval"
	NameRunCommands  = "run_commands"
	NameSearchSites  = "search_sites"
	NameDuckduckgo   = "duckduckgo"
	NameLinkding     = "linkding"
)

// Options carries the process resources sources are built with.
type Options struct {
	Logger     *slog.Logger
	Stdin      io.Reader
	StdinIsTTY func() bool
	HTTPClient *http.Client
}

// Catalog returns constructors for every built-in source.
func Catalog(opts Options) launcher.Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	named := func(name string) *slog.Logger { return logger.With("source", name) }

	return launcher.Catalog{
		NameStdin: func() launcher.Source {
			return NewStdin(stdin, opts.StdinIsTTY)
		},
		NameApplications: func() launcher.Source {
			return NewApplications(named(NameApplications))
		},
		NameZoxide: func() launcher.Source {
			return NewZoxide(nil)
		},
		NameShellHistory: func() launcher.Source {
			return NewShellHistory()
		},
		NameCliphist: func() launcher.Source {
			return NewCliphist(named(NameCliphist))
		},
		NameSystemctl: func() launcher.Source {
			return NewSystemctl()
		},
		NameEval: func() launcher.Source {
			return NewEval()
		},
		NameRunCommands: func() launcher.Source {
			return NewRunCommands()
		},
		NameSearchSites: func() launcher.Source {
			return NewSearchSites()
		},
		NameDuckduckgo: func() launcher.Source {
			return NewDuckduckgo(client, named(NameDuckduckgo))
		},
		NameLinkding: func() launcher.Source {
			return NewLinkding(client, named(NameLinkding))
		},
	}
}

// runFunc runs an external program and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	//nolint:gosec // G204: the binary comes from the user's config
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("exec %s: %w (stderr: %s)", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// userShell returns $SHELL, falling back to bash.
func userShell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "bash"
}

// keepMatch reports whether a match result should produce an item: any
// positive score, or everything when the query is empty.
func keepMatch(score int, ok bool, query string) bool {
	return ok && (score > 0 || strings.TrimSpace(query) == "")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
