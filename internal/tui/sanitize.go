package tui

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// ansiRE matches CSI, OSC, charset designation and other two-byte escape
// sequences.
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;?]*[A-Za-z]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#()*+\-./][A-Za-z0-9]` +
	`)`)

var escapeLiterals = strings.NewReplacer(
	"\\033[", "<ESC>[",
	"\\033]", "<ESC>]",
	"\\x1b[", "<ESC>[",
	"\\x1B[", "<ESC>[",
	"\\x1b]", "<ESC>]",
	"\\x1B]", "<ESC>]",
	"\\e[", "<ESC>[",
	"\\e]", "<ESC>]",
)

var whitespace = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// ValidateUTF8 replaces invalid byte sequences with U+FFFD.
func ValidateUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			i++
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

// Clean makes item text safe to print on one terminal row: escape
// sequences are removed, line breaks become spaces and literal escape
// spellings such as \033[ are shown as <ESC>[.
func Clean(s string) string {
	s = ValidateUTF8(StripANSI(s))
	s = whitespace.Replace(s)
	return escapeLiterals.Replace(s)
}

// Truncate cuts s to maxWidth display columns, ending with an ellipsis when
// anything was dropped.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return ellipsis
	}
	return prefixWidth(s, maxWidth-1) + ellipsis
}

// MiddleTruncate cuts s to maxWidth display columns by replacing its middle
// with an ellipsis, which keeps both ends of paths and URLs visible. Below
// three columns it falls back to a plain prefix.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return prefixWidth(s, maxWidth)
	}

	remaining := maxWidth - 1
	return prefixWidth(s, (remaining+1)/2) + ellipsis + suffixWidth(s, remaining/2)
}

// prefixWidth returns the longest prefix of s at most maxWidth columns wide.
func prefixWidth(s string, maxWidth int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}
	return s
}

// suffixWidth returns the longest suffix of s at most maxWidth columns wide.
func suffixWidth(s string, maxWidth int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > maxWidth {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}
