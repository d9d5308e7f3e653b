package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

type zoxideConfig struct {
	Binary string `yaml:"binary"`
}

// Zoxide offers frecent directories from zoxide. Picking one opens a shell
// there in the configured terminal.
type Zoxide struct {
	run    runFunc
	binary string
}

// NewZoxide creates the source. A nil run executes the real binary.
func NewZoxide(run runFunc) *Zoxide {
	if run == nil {
		run = runCommand
	}
	return &Zoxide{run: run, binary: "zoxide"}
}

func (z *Zoxide) Name() string { return NameZoxide }

func (z *Zoxide) Init(_ context.Context, table config.Table, _ *cache.Cache) error {
	cfg := zoxideConfig{Binary: z.binary}
	if err := table.Decode(&cfg); err != nil {
		return err
	}
	z.binary = cfg.Binary
	return nil
}

// Search asks zoxide for directories matching the query words. zoxide does
// its own ranking, so its score is used as the raw score.
func (z *Zoxide) Search(ctx context.Context, query string, _ fuzzy.Matcher) ([]launcher.Item, error) {
	args := append([]string{"query", "-ls"}, strings.Fields(query)...)
	out, err := z.run(ctx, z.binary, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// zoxide exits non-zero when nothing matches
			return nil, nil
		}
		return nil, fmt.Errorf("zoxide query: %w", err)
	}

	shell := userShell()
	var items []launcher.Item
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		score, dir, ok := parseZoxideLine(scanner.Text())
		if !ok {
			continue
		}
		items = append(items, launcher.Item{
			ID:     launcher.ItemID(NameZoxide, dir),
			Title:  dir,
			Score:  score,
			Layer:  launcher.LayerMiddle,
			Source: NameZoxide,
			Action: launcher.RunInTerminal(fmt.Sprintf(`%s -c 'cd "%s";exec $SHELL;'`, shell, dir)),
		})
	}
	return items, scanner.Err()
}

func (z *Zoxide) Close() error { return nil }

// parseZoxideLine splits "  12.5 /some/dir" into a floored score and the
// directory. Lines with a non-positive score are rejected.
func parseZoxideLine(line string) (int, string, bool) {
	line = strings.TrimSpace(line)
	scoreText, dir, found := strings.Cut(line, " ")
	if !found {
		return 0, "", false
	}
	dir = strings.TrimSpace(dir)
	f, err := strconv.ParseFloat(scoreText, 64)
	if err != nil || dir == "" {
		return 0, "", false
	}
	score := int(math.Floor(f))
	if score <= 0 {
		return 0, "", false
	}
	return score, dir, true
}
