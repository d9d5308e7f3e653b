package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch_EmptyPattern(t *testing.T) {
	t.Parallel()

	m := New()
	for _, text := range []string{"", "firefox", "日本語"} {
		score, ok := m.Match(text, "")
		assert.True(t, ok, "text %q", text)
		assert.Equal(t, 0, score)
	}

	score, ok := m.Match("firefox", "   ")
	assert.True(t, ok)
	assert.Equal(t, 0, score)
}

func TestMatch_Subsequence(t *testing.T) {
	t.Parallel()

	m := New()
	tests := []struct {
		text    string
		pattern string
		want    bool
	}{
		{"firefox", "ff", true},
		{"firefox", "fox", true},
		{"Firefox Web Browser", "fwb", true},
		{"firefox", "xof", false},
		{"firefox", "chrome", false},
		{"", "a", false},
	}

	for _, tt := range tests {
		score, ok := m.Match(tt.text, tt.pattern)
		assert.Equal(t, tt.want, ok, "Match(%q, %q)", tt.text, tt.pattern)
		if ok {
			assert.GreaterOrEqual(t, score, 1, "matched score is at least 1")
		} else {
			assert.Equal(t, 0, score)
		}
	}
}

func TestMatch_PrefersTighterMatch(t *testing.T) {
	t.Parallel()

	m := New()
	tight, ok := m.Match("terminal", "term")
	assert.True(t, ok)
	loose, ok := m.Match("the extra random menu", "term")
	assert.True(t, ok)
	assert.Greater(t, tight, loose)
}

func TestPositions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 1}, Positions("firefox", "fi"))
	assert.Nil(t, Positions("firefox", "zz"))
	assert.Nil(t, Positions("firefox", ""))
}

func TestBest(t *testing.T) {
	t.Parallel()

	m := New()
	score, ok := Best(m, "code", "Visual Studio Code", "code")
	assert.True(t, ok)
	exact, _ := m.Match("code", "code")
	assert.Equal(t, exact, score)

	_, ok = Best(m, "zzz", "alpha", "beta")
	assert.False(t, ok)

	_, ok = Best(m, "a")
	assert.False(t, ok)
}
