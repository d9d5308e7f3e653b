package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"color", "\x1b[31mred\x1b[0m", "red"},
		{"multiple SGR", "\x1b[1;31;42mfancy\x1b[0m", "fancy"},
		{"private mode", "\x1b[?25lhidden cursor", "hidden cursor"},
		{"OSC with BEL", "\x1b]0;title\x07text", "text"},
		{"OSC hyperlink", "\x1b]8;;https://example.com\x07link\x1b]8;;\x07", "link"},
		{"charset", "\x1b(Bhello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.input))
		})
	}
}

func TestValidateUTF8(t *testing.T) {
	assert.Equal(t, "hello", ValidateUTF8("hello"))
	assert.Equal(t, "hello�world", ValidateUTF8("hello\x80world"))
	assert.Equal(t, "��ok", ValidateUTF8("\x80\x81ok"))
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"multi-line clipboard entry", "line one\nline two\r\nthree", "line one line two three"},
		{"tabs", "a\tb", "a b"},
		{"escape bytes", "\x1b[1mbold\x1b[0m", "bold"},
		{"escape literals", "printf '\\033[2mhi\\e[0m'", "printf '<ESC>[2mhi<ESC>[0m'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdefgh", 5, "abcd…"},
		{"one column", "abc", 1, "…"},
		{"zero", "abc", 0, ""},
		{"wide runes", "你好世界", 5, "你好…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.maxWidth))
		})
	}
}

func TestMiddleTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "abc", 10, "abc"},
		{"cut", "abcdefghij", 7, "abc…hij"},
		{"max 3", "abcdef", 3, "a…f"},
		{"max 2", "abcdef", 2, "ab"},
		{"max 0", "abcdef", 0, ""},
		{"wide runes", "你好世界", 7, "你…界"},
		{"path", "/home/me/projects/sift/internal", 16, "/home/me…nternal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MiddleTruncate(tt.input, tt.maxWidth))
		})
	}
}
