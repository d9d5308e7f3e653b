// Package tui is the interactive terminal front-end: a prompt, a ranked
// result list and a status line, driven by a launcher session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/sift/internal/launcher"
)

// debounceInterval is the delay after the last keystroke before searching.
const debounceInterval = 60 * time.Millisecond

// Searcher is the part of a launcher session the front-end drives.
type Searcher interface {
	Search(ctx context.Context, query string) []launcher.Item
	Select(ctx context.Context, item launcher.Item) (bool, error)
}

type modelState int

const (
	stateIdle      modelState = iota // before the first search
	stateSearching                   // search in flight
	stateReady                       // results shown
	stateSelecting                   // an action is executing
	stateDone                        // an action completed the session
	stateCancelled                   // user quit without selecting
)

type searchDoneMsg struct {
	requestID uint64
	items     []launcher.Item
}

type debounceMsg struct {
	id uint64
}

type selectDoneMsg struct {
	item launcher.Item
	done bool
	err  error
}

type initMsg struct{}

// Model is the Bubble Tea model of the launcher window.
type Model struct {
	state    modelState
	input    textinput.Model
	searcher Searcher

	items     []launcher.Item
	selection int // index into items; -1 when empty
	err       error

	// requestID orders searches; results of anything but the latest
	// request are dropped.
	requestID    uint64
	debounceID   uint64
	cancelSearch context.CancelFunc

	width  int
	height int

	selected *launcher.Item
}

// NewModel creates a model that searches and selects through s.
func NewModel(s Searcher, prompt string) Model {
	in := textinput.New()
	in.Prompt = promptStyle.Render(prompt+": ")
	in.Placeholder = "type to search"
	in.Focus()

	return Model{
		state:     stateIdle,
		input:     in,
		searcher:  s,
		selection: -1,
	}
}

// WithQuery pre-fills the prompt.
func (m Model) WithQuery(q string) Model {
	m.input.SetValue(q)
	m.input.CursorEnd()
	return m
}

// Query returns the current prompt text.
func (m Model) Query() string { return m.input.Value() }

// Items returns the results currently shown.
func (m Model) Items() []launcher.Item { return m.items }

// Cancelled reports whether the user quit without completing an action.
func (m Model) Cancelled() bool { return m.state == stateCancelled }

// Selected returns the item whose action completed the session.
func (m Model) Selected() (launcher.Item, bool) {
	if m.selected == nil {
		return launcher.Item{}, false
	}
	return *m.selected, true
}

// Err returns the error of the last failed action, if it has not been
// cleared by a later search.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case initMsg:
		return m, m.startSearch()

	case debounceMsg:
		if msg.id != m.debounceID {
			return m, nil
		}
		return m, m.startSearch()

	case searchDoneMsg:
		return m.handleSearchDone(msg)

	case selectDoneMsg:
		return m.handleSelectDone(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		m.cancelInflight()
		return m, tea.Quit
	}

	if m.state == stateSelecting {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		if m.selection < 0 || m.selection >= len(m.items) {
			return m, nil
		}
		m.state = stateSelecting
		m.err = nil
		return m, m.selectCmd(m.items[m.selection])

	case tea.KeyUp, tea.KeyCtrlP, tea.KeyShiftTab:
		if m.selection > 0 {
			m.selection--
		}
		return m, nil

	case tea.KeyDown, tea.KeyCtrlN, tea.KeyTab:
		if m.selection < len(m.items)-1 {
			m.selection++
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.startDebounce())
}

func (m Model) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	if msg.requestID != m.requestID {
		return m, nil
	}
	m.cancelSearch = nil
	m.items = msg.items
	m.selection = -1
	if len(m.items) > 0 {
		m.selection = 0
	}
	if m.state == stateSearching {
		m.state = stateReady
	}
	return m, nil
}

// handleSelectDone applies the outcome of an action: a completed session
// quits, a failure is reported and the session stays interactive, and a
// reset clears the prompt and searches again.
func (m Model) handleSelectDone(msg selectDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = stateReady
		m.err = msg.err
		return m, nil
	}
	if msg.done {
		m.state = stateDone
		item := msg.item
		m.selected = &item
		return m, tea.Quit
	}
	m.input.SetValue("")
	return m, m.startSearch()
}

func (m *Model) selectCmd(item launcher.Item) tea.Cmd {
	s := m.searcher
	return func() tea.Msg {
		done, err := s.Select(context.Background(), item)
		return selectDoneMsg{item: item, done: done, err: err}
	}
}

func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(debounceInterval, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// startSearch cancels the in-flight search and starts a new one for the
// current prompt text.
func (m *Model) startSearch() tea.Cmd {
	m.cancelInflight()
	m.requestID++
	m.state = stateSearching

	reqID := m.requestID
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelSearch = cancel

	query := m.input.Value()
	s := m.searcher
	return func() tea.Msg {
		items := s.Search(ctx, query)
		cancel()
		return searchDoneMsg{requestID: reqID, items: items}
	}
}

func (m *Model) cancelInflight() {
	if m.cancelSearch != nil {
		m.cancelSearch()
		m.cancelSearch = nil
	}
}

// listHeight is the number of result rows that fit between the prompt and
// the status line.
func (m Model) listHeight() int {
	const chrome = 2
	h := m.height - chrome
	if h < 1 {
		h = 10
	}
	return h
}

var (
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteRune('\n')
	if list := m.viewList(); list != "" {
		b.WriteString(list)
		b.WriteRune('\n')
	}
	b.WriteString(m.viewStatus())
	return b.String()
}

func (m Model) viewList() string {
	rows := m.listHeight()
	start := 0
	if m.selection >= rows {
		start = m.selection - rows + 1
	}

	var lines []string
	for i := start; i < len(m.items) && i < start+rows; i++ {
		lines = append(lines, m.viewRow(m.items[i], i == m.selection))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewRow(item launcher.Item, selected bool) string {
	const marker = 2
	width := m.width - marker
	if width <= 0 {
		width = 78
	}

	title := Clean(item.Title)
	if title == "" {
		title = item.ID
	}
	title = Truncate(title, width)

	line := "  " + title
	if selected {
		line = selectedStyle.Render("> " + title)
	} else {
		line = normalStyle.Render(line)
	}

	if room := width - lipgloss.Width(title) - 2; item.Subtitle != "" && room > 3 {
		line += "  " + subtitleStyle.Render(MiddleTruncate(Clean(item.Subtitle), room))
	}
	return line
}

func (m Model) viewStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("Error: %s", m.err))
	case m.state == stateSelecting:
		return dimStyle.Render("Running...")
	case m.state == stateIdle || (m.state == stateSearching && len(m.items) == 0):
		return dimStyle.Render("Searching...")
	case len(m.items) == 0:
		return dimStyle.Render("No matches")
	}

	status := fmt.Sprintf("%d results", len(m.items))
	if m.selection >= 0 && m.selection < len(m.items) {
		it := m.items[m.selection]
		status += fmt.Sprintf(" · %s · %s", it.Source, it.Action.Kind)
	}
	return dimStyle.Render(status)
}
