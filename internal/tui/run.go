package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultTTY is the terminal the launcher window is drawn on, so stdout
// stays free for printed results.
const DefaultTTY = "/dev/tty"

// Options configures Run.
type Options struct {
	Prompt string
	Query  string
	TTY    string
}

// Run shows the launcher window until an action completes the session or
// the user quits, and returns the final model.
func Run(ctx context.Context, s Searcher, opts Options) (Model, error) {
	path := opts.TTY
	if path == "" {
		path = DefaultTTY
	}
	tty, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return Model{}, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer tty.Close()

	// lipgloss picks its color profile from stdout, which may be a pipe.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	model := NewModel(s, opts.Prompt)
	if opts.Query != "" {
		model = model.WithQuery(opts.Query)
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return Model{}, fmt.Errorf("tui: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return Model{}, errors.New("tui: unexpected model type")
	}
	return m, nil
}
