package launcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/atotto/clipboard"
	"github.com/google/shlex"
)

// Effects performs the OS side of actions.
type Effects interface {
	Print(text string) error
	RunDetached(command string) error
	RunInTerminal(command string) error
	CopyToClipboard(data []byte) error
	OpenURL(url string) error
}

// SystemEffects spawns real processes. Spawned processes are not waited
// on and their exit status is never observed.
type SystemEffects struct {
	Terminal string    // terminal command, e.g. "kitty" or "foot --app-id x"
	Opener   string    // URL opener, e.g. "xdg-open"
	Stdout   io.Writer // destination of Print
	Logger   *slog.Logger

	// start launches a prepared command. Tests replace it.
	start func(cmd *exec.Cmd) error
}

// NewSystemEffects returns effects that write prints to stdout and spawn
// commands through terminal and opener.
func NewSystemEffects(terminal, opener string, stdout io.Writer, logger *slog.Logger) *SystemEffects {
	if stdout == nil {
		stdout = os.Stdout
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &SystemEffects{
		Terminal: terminal,
		Opener:   opener,
		Stdout:   stdout,
		Logger:   logger,
		start:    startDetached,
	}
}

// Print writes text followed by a newline.
func (e *SystemEffects) Print(text string) error {
	if _, err := fmt.Fprintln(e.Stdout, text); err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}
	return nil
}

// RunDetached tokenises command shell-style and spawns it.
func (e *SystemEffects) RunDetached(command string) error {
	args, err := commandArgs(command)
	if err != nil {
		return err
	}
	return e.spawn(args)
}

// RunInTerminal spawns "<terminal> -e <command...>".
func (e *SystemEffects) RunInTerminal(command string) error {
	args, err := terminalArgs(e.Terminal, command)
	if err != nil {
		return err
	}
	return e.spawn(args)
}

// OpenURL spawns "<opener> <url>".
func (e *SystemEffects) OpenURL(url string) error {
	if url == "" {
		return errors.New("empty url")
	}
	args, err := commandArgs(e.Opener)
	if err != nil {
		return fmt.Errorf("invalid opener: %w", err)
	}
	return e.spawn(append(args, url))
}

// CopyToClipboard replaces the clipboard contents with data.
func (e *SystemEffects) CopyToClipboard(data []byte) error {
	if err := clipboard.WriteAll(string(data)); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

func (e *SystemEffects) spawn(args []string) error {
	cmd := exec.Command(args[0], args[1:]...) //nolint:gosec // G204: commands come from the user's sources
	start := e.start
	if start == nil {
		start = startDetached
	}
	if err := start(cmd); err != nil {
		return fmt.Errorf("failed to spawn %s: %w", args[0], err)
	}
	e.Logger.Debug("spawned", "args", args)
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func commandArgs(command string) ([]string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}

func terminalArgs(terminal, command string) ([]string, error) {
	term, err := commandArgs(terminal)
	if err != nil {
		return nil, fmt.Errorf("invalid terminal: %w", err)
	}
	cmd, err := commandArgs(command)
	if err != nil {
		return nil, err
	}
	args := append(term, "-e")
	return append(args, cmd...), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
