package launcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the dispatcher's position in the select protocol.
type State int

const (
	StateIdle State = iota
	StateExecuting
	StateTerminal
	StateReset
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExecuting:
		return "executing"
	case StateTerminal:
		return "terminal"
	case StateReset:
		return "reset"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrBusy is returned when an action is dispatched while another runs.
	ErrBusy = errors.New("an action is already executing")

	// ErrSessionEnded is returned when an action is dispatched after a
	// terminal action without Rearm.
	ErrSessionEnded = errors.New("session has ended")
)

// MutatorLookup resolves the source a mutate action targets.
type MutatorLookup func(source string) (Mutator, error)

// Dispatcher executes actions and tracks whether the session should end.
//
//	Idle -> Executing -> Terminal | Reset
//	Reset -> Executing
//
// The outcome of Executing is decided only by the action's result. A
// failed action lands in Reset so the session stays interactive.
type Dispatcher struct {
	effects Effects
	lookup  MutatorLookup

	mu    sync.Mutex
	state State
}

// NewDispatcher creates an idle dispatcher.
func NewDispatcher(effects Effects, lookup MutatorLookup) *Dispatcher {
	return &Dispatcher{effects: effects, lookup: lookup}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Rearm returns a terminated dispatcher to Idle, for front-ends that serve
// several interactions from one launcher.
func (d *Dispatcher) Rearm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateExecuting {
		d.state = StateIdle
	}
}

// Execute runs a and reports whether the session is complete.
func (d *Dispatcher) Execute(ctx context.Context, a Action) (bool, error) {
	return d.execute(ctx, a, nil)
}

// execute calls accepted once the dispatcher has taken a, before it runs.
// A rejected action never reaches accepted.
func (d *Dispatcher) execute(ctx context.Context, a Action, accepted func()) (bool, error) {
	d.mu.Lock()
	switch d.state {
	case StateExecuting:
		d.mu.Unlock()
		return false, ErrBusy
	case StateTerminal:
		d.mu.Unlock()
		return false, ErrSessionEnded
	}
	d.state = StateExecuting
	d.mu.Unlock()

	if accepted != nil {
		accepted()
	}

	done, err := d.run(ctx, a)
	if err != nil {
		done = false
	}

	d.mu.Lock()
	if done {
		d.state = StateTerminal
	} else {
		d.state = StateReset
	}
	d.mu.Unlock()

	return done, err
}

func (d *Dispatcher) run(ctx context.Context, a Action) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			done, err = false, fmt.Errorf("action %s panicked: %v", a.Kind, r)
		}
	}()

	switch a.Kind {
	case ActionNoop, ActionExit:
		return true, nil
	case ActionPrint:
		return true, d.effects.Print(a.Text)
	case ActionRun:
		return true, d.effects.RunDetached(a.Command)
	case ActionRunInTerminal:
		return true, d.effects.RunInTerminal(a.Command)
	case ActionCopy:
		return true, d.effects.CopyToClipboard(a.Data)
	case ActionOpenURL:
		return true, d.effects.OpenURL(a.URL)
	case ActionMutate:
		if d.lookup == nil {
			return false, fmt.Errorf("%w: %s", ErrUnknownSource, a.Source)
		}
		m, err := d.lookup(a.Source)
		if err != nil {
			return false, err
		}
		if err := m.Mutate(ctx, a.Payload); err != nil {
			return false, fmt.Errorf("source %s: %w", a.Source, err)
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported action kind %s", a.Kind)
	}
}
