package launcher

import "fmt"

// ActionKind enumerates the side effects an item can request.
type ActionKind int

const (
	ActionNoop ActionKind = iota
	ActionExit
	ActionPrint
	ActionRun
	ActionRunInTerminal
	ActionCopy
	ActionOpenURL
	ActionMutate
)

var actionKindNames = [...]string{
	ActionNoop:          "noop",
	ActionExit:          "exit",
	ActionPrint:         "print",
	ActionRun:           "run",
	ActionRunInTerminal: "run_in_terminal",
	ActionCopy:          "copy",
	ActionOpenURL:       "open_url",
	ActionMutate:        "mutate",
}

func (k ActionKind) String() string {
	if k >= 0 && int(k) < len(actionKindNames) {
		return actionKindNames[k]
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is the inspectable description of what selecting an item does.
// Only the fields relevant to Kind are set.
type Action struct {
	Kind    ActionKind
	Text    string // ActionPrint
	Command string // ActionRun, ActionRunInTerminal
	Data    []byte // ActionCopy
	URL     string // ActionOpenURL
	Source  string // ActionMutate: source that owns the mutation
	Payload string // ActionMutate: source-defined argument
}

// Noop does nothing and ends the session.
func Noop() Action { return Action{Kind: ActionNoop} }

// Exit ends the session.
func Exit() Action { return Action{Kind: ActionExit} }

// Print writes text to the launcher's output.
func Print(text string) Action { return Action{Kind: ActionPrint, Text: text} }

// Run spawns command detached from the launcher.
func Run(command string) Action { return Action{Kind: ActionRun, Command: command} }

// RunInTerminal spawns command inside the configured terminal.
func RunInTerminal(command string) Action {
	return Action{Kind: ActionRunInTerminal, Command: command}
}

// Copy places data on the clipboard.
func Copy(data []byte) Action { return Action{Kind: ActionCopy, Data: data} }

// CopyText places text on the clipboard.
func CopyText(text string) Action { return Copy([]byte(text)) }

// OpenURL opens url with the configured opener.
func OpenURL(url string) Action { return Action{Kind: ActionOpenURL, URL: url} }

// Mutate asks the named source to update its own state with payload. The
// session stays interactive and the front-end searches again.
func Mutate(source, payload string) Action {
	return Action{Kind: ActionMutate, Source: source, Payload: payload}
}

// Terminal reports whether a successful execution of the action ends the
// session.
func (a Action) Terminal() bool {
	return a.Kind != ActionMutate
}

func (a Action) String() string {
	switch a.Kind {
	case ActionPrint:
		return fmt.Sprintf("print(%q)", a.Text)
	case ActionRun, ActionRunInTerminal:
		return fmt.Sprintf("%s(%q)", a.Kind, a.Command)
	case ActionCopy:
		return fmt.Sprintf("copy(%d bytes)", len(a.Data))
	case ActionOpenURL:
		return fmt.Sprintf("open_url(%q)", a.URL)
	case ActionMutate:
		return fmt.Sprintf("mutate(%s, %q)", a.Source, a.Payload)
	default:
		return a.Kind.String()
	}
}
