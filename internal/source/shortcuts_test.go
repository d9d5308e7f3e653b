package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/launcher"
)

func TestSystemctl(t *testing.T) {
	t.Parallel()

	s := NewSystemctl()
	require.NoError(t, s.Init(context.Background(), nil, nil))

	all, err := s.Search(context.Background(), "", matcher)
	require.NoError(t, err)
	assert.Equal(t, []string{"suspend", "hibernate", "reboot", "shutdown"}, titles(all))

	got, err := s.Search(context.Background(), "shut", matcher)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Shutdown the computer", got[0].Subtitle)
	assert.Equal(t, launcher.Run("systemctl poweroff"), got[0].Action)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"1 + 2", "3", true},
		{"2 * (3 + 4)", "14", true},
		{"10 / 4", "2.5", true},
		{"2 ** 10", "1024", true},
		{"1 < 2", "true", true},
		{"", "", false},
		{"firefox", "", false},
		{"1 +", "", false},
	}
	for _, tt := range tests {
		got, ok := Evaluate(tt.query)
		assert.Equal(t, tt.wantOK, ok, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}
}

func TestEval_Search(t *testing.T) {
	t.Parallel()

	e := NewEval()
	items, err := e.Search(context.Background(), "6*7", matcher)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "42", items[0].Title)
	assert.Equal(t, "eval", items[0].Subtitle)
	assert.Equal(t, launcher.LayerTop, items[0].Layer)
	assert.Equal(t, launcher.CopyText("42"), items[0].Action)

	items, err = e.Search(context.Background(), "not an expression (", matcher)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRunCommands(t *testing.T) {
	t.Parallel()

	r := NewRunCommands()
	table := config.Table{
		"default": map[string]any{
			"yt":  "mpv 'ytdl://ytsearch:%s'",
			"man": "xdg-open man:%s",
		},
		"terminal": map[string]any{
			"man": "man %s",
		},
	}
	require.NoError(t, r.Init(context.Background(), table, nil))

	items, err := r.Search(context.Background(), "yt lofi beats", matcher)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Run command lofi beats", items[0].Title)
	assert.Equal(t, "mpv 'ytdl://ytsearch:lofi beats'", items[0].Subtitle)
	assert.Equal(t, 100, items[0].Score)
	assert.Equal(t, launcher.Run("mpv 'ytdl://ytsearch:lofi beats'"), items[0].Action)

	items, err = r.Search(context.Background(), "man ls", matcher)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, launcher.RunInTerminal("man ls"), items[0].Action)

	items, err = r.Search(context.Background(), "man ", matcher)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "man ", items[0].Subtitle)

	items, err = r.Search(context.Background(), "unknown thing", matcher)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSplitKeyword(t *testing.T) {
	t.Parallel()

	k, r := splitKeyword("g hello world")
	assert.Equal(t, "g", k)
	assert.Equal(t, "hello world", r)

	k, r = splitKeyword("g  ")
	assert.Equal(t, "g", k)
	assert.Equal(t, " ", r)

	k, r = splitKeyword("man\t")
	assert.Equal(t, "man", k)
	assert.Empty(t, r)
}

func TestSearchSites(t *testing.T) {
	t.Parallel()

	s := NewSearchSites()
	require.NoError(t, s.Init(context.Background(), config.Table{
		"g":  "https://www.google.com/search?q=%s",
		"gh": "https://github.com/search?q=%s",
	}, nil))

	items, err := s.Search(context.Background(), "gh go modules & deps", matcher)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Search for go modules & deps", items[0].Title)
	assert.Equal(t, "https://github.com/search?q=go+modules+%26+deps", items[0].Subtitle)
	assert.Equal(t, launcher.OpenURL("https://github.com/search?q=go+modules+%26+deps"), items[0].Action)

	items, err = s.Search(context.Background(), "gh", matcher)
	require.NoError(t, err)
	assert.Empty(t, items, "a keyword alone offers nothing")

	items, err = s.Search(context.Background(), "ddg something", matcher)
	require.NoError(t, err)
	assert.Empty(t, items)
}
