// Package history reads shell history files (bash, zsh and fish).
package history

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxEntries is the maximum number of entries kept from one history file.
const MaxEntries = 25000

// Entry is one command from a history file.
type Entry struct {
	Timestamp time.Time // zero when the file has no timestamps
	Command   string
}

// Shells lists the supported shell names.
var Shells = []string{"bash", "zsh", "fish"}

// ReadBash parses a bash history file. Timestamp lines written with
// HISTTIMEFORMAT look like #<unix_ts> and apply to the next command.
func ReadBash(path string) ([]Entry, error) {
	return readFile(path, bashHistoryPath, parseBash)
}

// ReadZsh parses a zsh history file in plain or extended format
// (": <ts>:<duration>;<command>"), joining backslash-continued lines.
func ReadZsh(path string) ([]Entry, error) {
	return readFile(path, zshHistoryPath, parseZsh)
}

// ReadFish parses fish's pseudo-YAML history:
//
//   - cmd: <command>
//     when: <unix_timestamp>
func ReadFish(path string) ([]Entry, error) {
	return readFile(path, fishHistoryPath, parseFish)
}

// Read parses the history of shell. An empty path selects the shell's
// default history file; "auto" or "" detects the shell from $SHELL.
func Read(shell, path string) ([]Entry, error) {
	if shell == "auto" || shell == "" {
		shell = DetectShell()
	}

	switch shell {
	case "bash":
		return ReadBash(path)
	case "zsh":
		return ReadZsh(path)
	case "fish":
		return ReadFish(path)
	default:
		return nil, nil
	}
}

func readFile(path string, defaultPath func() string, parse func(io.Reader) ([]Entry, error)) ([]Entry, error) {
	if path == "" {
		path = defaultPath()
	}
	if path == "" {
		return nil, nil
	}

	file, err := os.Open(path) //nolint:gosec // G304: path is from user's HISTFILE or well-known default
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	entries, err := parse(file)
	if err != nil {
		return nil, err
	}
	return trimToLimit(entries, MaxEntries), nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return scanner
}

func parseBash(r io.Reader) ([]Entry, error) {
	var entries []Entry
	var pendingTimestamp time.Time

	scanner := newScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") && len(line) > 1 {
			if ts, err := strconv.ParseInt(line[1:], 10, 64); err == nil {
				pendingTimestamp = time.Unix(ts, 0)
				continue
			}
		}

		entries = append(entries, Entry{Command: line, Timestamp: pendingTimestamp})
		pendingTimestamp = time.Time{}
	}

	return entries, scanner.Err()
}

func parseZsh(r io.Reader) ([]Entry, error) {
	var p zshParser

	scanner := newScanner(r)
	for scanner.Scan() {
		p.processLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if p.multilineCmd.Len() > 0 {
		p.entries = append(p.entries, Entry{
			Command:   strings.TrimSuffix(p.multilineCmd.String(), "\n"),
			Timestamp: p.pendingTimestamp,
		})
	}
	return p.entries, nil
}

// zshParser accumulates parsed entries across continuation lines.
type zshParser struct {
	multilineCmd     strings.Builder
	pendingTimestamp time.Time
	entries          []Entry
}

func (p *zshParser) processLine(line string) {
	if p.multilineCmd.Len() > 0 {
		p.continueMultiline(line)
		return
	}
	p.parseFreshLine(line)
}

func (p *zshParser) continueMultiline(line string) {
	if hasUnescapedTrailingBackslash(line) {
		p.multilineCmd.WriteString(line[:len(line)-1])
		p.multilineCmd.WriteString("\n")
		return
	}
	p.multilineCmd.WriteString(line)
	p.entries = append(p.entries, Entry{
		Command:   p.multilineCmd.String(),
		Timestamp: p.pendingTimestamp,
	})
	p.multilineCmd.Reset()
	p.pendingTimestamp = time.Time{}
}

func (p *zshParser) parseFreshLine(line string) {
	if strings.HasPrefix(line, ": ") {
		if idx := strings.Index(line, ";"); idx != -1 {
			meta := line[2:idx] // "<ts>:<dur>"
			if colonIdx := strings.Index(meta, ":"); colonIdx != -1 {
				if ts, err := strconv.ParseInt(meta[:colonIdx], 10, 64); err == nil {
					p.pendingTimestamp = time.Unix(ts, 0)
				}
			}
			p.addCommand(line[idx+1:])
			return
		}
	}
	p.addCommand(line)
}

func (p *zshParser) addCommand(cmd string) {
	if hasUnescapedTrailingBackslash(cmd) {
		p.multilineCmd.WriteString(cmd[:len(cmd)-1])
		p.multilineCmd.WriteString("\n")
		return
	}
	if cmd != "" {
		p.entries = append(p.entries, Entry{Command: cmd, Timestamp: p.pendingTimestamp})
		p.pendingTimestamp = time.Time{}
	}
}

// hasUnescapedTrailingBackslash reports whether s ends in an odd run of
// backslashes, i.e. a line continuation rather than an escaped backslash.
func hasUnescapedTrailingBackslash(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func parseFish(r io.Reader) ([]Entry, error) {
	p := &fishParser{}

	scanner := newScanner(r)
	for scanner.Scan() {
		p.parseLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.finish(), nil
}

type fishParser struct {
	currentTimestamp time.Time
	currentCmd       string
	entries          []Entry
	inPaths          bool
}

func (p *fishParser) parseLine(line string) {
	switch {
	case strings.HasPrefix(line, "- cmd: "):
		p.startEntry(strings.TrimPrefix(line, "- cmd: "))
	case strings.HasPrefix(line, "  when: "):
		p.setTimestamp(strings.TrimPrefix(line, "  when: "))
	case strings.HasPrefix(line, "  paths:"):
		p.inPaths = true
	case p.inPaths && strings.HasPrefix(line, "    "):
		// paths section content
	case !strings.HasPrefix(line, " "):
		p.inPaths = false
	}
}

func (p *fishParser) startEntry(cmd string) {
	p.flushCurrent()
	p.currentCmd = cmd
	p.currentTimestamp = time.Time{}
	p.inPaths = false
}

func (p *fishParser) setTimestamp(tsStr string) {
	if ts, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
		p.currentTimestamp = time.Unix(ts, 0)
	}
	p.inPaths = false
}

func (p *fishParser) flushCurrent() {
	if p.currentCmd == "" {
		return
	}
	p.entries = append(p.entries, Entry{
		Command:   decodeFishEscapes(p.currentCmd),
		Timestamp: p.currentTimestamp,
	})
	p.currentCmd = ""
	p.currentTimestamp = time.Time{}
}

func (p *fishParser) finish() []Entry {
	p.flushCurrent()
	return p.entries
}

// decodeFishEscapes decodes \\ and \n.
func decodeFishEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				result.WriteByte('\\')
				i += 2
			case 'n':
				result.WriteByte('\n')
				i += 2
			default:
				result.WriteByte(s[i])
				i++
			}
		} else {
			result.WriteByte(s[i])
			i++
		}
	}
	return result.String()
}

// Recent returns up to limit distinct commands, most recent first.
// A limit <= 0 means no limit.
func Recent(entries []Entry, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for i := len(entries) - 1; i >= 0; i-- {
		cmd := strings.TrimSpace(entries[i].Command)
		if cmd == "" || seen[cmd] {
			continue
		}
		seen[cmd] = true
		out = append(out, cmd)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func trimToLimit(entries []Entry, n int) []Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// DetectShell returns the shell named by $SHELL if it is supported.
func DetectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return ""
	}
	switch base := filepath.Base(shell); base {
	case "bash", "zsh", "fish":
		return base
	default:
		return ""
	}
}

// DefaultPath returns the default history file of shell.
func DefaultPath(shell string) string {
	switch shell {
	case "bash":
		return bashHistoryPath()
	case "zsh":
		return zshHistoryPath()
	case "fish":
		return fishHistoryPath()
	default:
		return ""
	}
}

func bashHistoryPath() string {
	if histFile := os.Getenv("HISTFILE"); histFile != "" {
		return histFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bash_history")
}

func zshHistoryPath() string {
	if histFile := os.Getenv("HISTFILE"); histFile != "" {
		return histFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".zsh_history")
}

// fishHistoryPath follows XDG_DATA_HOME/fish/fish_history.
func fishHistoryPath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "fish", "fish_history")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "fish", "fish_history")
}
