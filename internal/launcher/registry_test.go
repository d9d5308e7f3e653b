package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Order(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"zoxide", "applications", "eval"} {
		require.NoError(t, r.Register(&fakeSource{name: name}))
	}

	assert.Equal(t, []string{"zoxide", "applications", "eval"}, r.Names())
	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.All(), 3)

	s, ok := r.Get("applications")
	require.True(t, ok)
	assert.Equal(t, "applications", s.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Duplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Register(&fakeSource{name: "stdin"}))
	assert.ErrorIs(t, r.Register(&fakeSource{name: "stdin"}), ErrDuplicateSource)
	assert.Equal(t, 1, r.Len())
}

func TestCatalog_Names(t *testing.T) {
	t.Parallel()

	c := Catalog{
		"a": func() Source { return &fakeSource{name: "a"} },
		"b": func() Source { return &fakeSource{name: "b"} },
	}
	assert.ElementsMatch(t, []string{"a", "b"}, c.Names())
}
