package source

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

var matcher = fuzzy.New()

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	return c
}

func titles(items []launcher.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}
