package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

const maxStdinLine = 1024 * 1024

// Stdin offers the lines piped into the process. Picking one prints it,
// which makes sift usable as a dmenu-style filter.
type Stdin struct {
	in    io.Reader
	isTTY func() bool
	lines []string
}

// NewStdin reads from in. isTTY reports whether in is an interactive
// terminal, in which case nothing is read; nil checks os.Stdin.
func NewStdin(in io.Reader, isTTY func() bool) *Stdin {
	if isTTY == nil {
		isTTY = stdinIsTerminal
	}
	return &Stdin{in: in, isTTY: isTTY}
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (s *Stdin) Name() string { return NameStdin }

// Init reads every line of input. Blank lines are dropped.
func (s *Stdin) Init(_ context.Context, _ config.Table, _ *cache.Cache) error {
	if s.in == nil || s.isTTY() {
		return nil
	}

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStdinLine)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			s.lines = append(s.lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func (s *Stdin) Search(ctx context.Context, query string, m fuzzy.Matcher) ([]launcher.Item, error) {
	var items []launcher.Item
	for _, line := range s.lines {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		score, ok := m.Match(line, query)
		if !keepMatch(score, ok, query) {
			continue
		}
		items = append(items, launcher.Item{
			ID:     launcher.ItemID(NameStdin, line),
			Title:  line,
			Score:  score,
			Layer:  launcher.LayerMiddle,
			Source: NameStdin,
			Action: launcher.Print(line),
		})
	}
	return items, nil
}

func (s *Stdin) Close() error { return nil }
