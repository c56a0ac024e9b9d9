package registry_test

import (
	"testing"

	"github.com/aretw0/tiptoe/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phase int

const (
	open phase = iota
	closed
)

func isClosed(s phase, _ string) bool { return s == closed }

func TestRoost_AddAndPerch(t *testing.T) {
	r := registry.New[phase, string]()

	h := r.Add("peer-1", open)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Find("moo")
	assert.False(t, ok, "not perched yet")

	require.True(t, r.Perch("moo", h))

	p, ok := r.Find("moo")
	require.True(t, ok)
	assert.Equal(t, "peer-1", p)

	tag, ok := r.TagOf(h)
	require.True(t, ok)
	assert.Equal(t, "moo", tag)
}

func TestRoost_PerchUnknownHandle(t *testing.T) {
	r := registry.New[phase, string]()
	assert.False(t, r.Perch("moo", registry.Handle(42)))
	assert.Empty(t, r.Tags())
}

func TestRoost_LastPerchWins(t *testing.T) {
	r := registry.New[phase, string]()
	h1 := r.Add("first", open)
	h2 := r.Add("second", open)

	r.Perch("shared", h1)
	r.Perch("shared", h2)

	p, ok := r.Find("shared")
	require.True(t, ok)
	assert.Equal(t, "second", p)

	// The first session is still a member, just no longer addressable.
	got, ok := r.Get(h1)
	require.True(t, ok)
	assert.Equal(t, "first", got)
	assert.Equal(t, []string{"shared"}, r.Tags())
}

func TestRoost_EachTakePut(t *testing.T) {
	r := registry.New[phase, string]()
	r.Add("a", open)
	r.Add("b", open)

	var seen []string
	r.Each(func(h registry.Handle, cell *registry.Cell[phase], p string) {
		seen = append(seen, p)
		s, ok := cell.Take()
		require.True(t, ok)
		assert.Equal(t, open, s)

		_, again := cell.Take()
		assert.False(t, again, "cell already taken")

		cell.Put(closed)
	})
	assert.Equal(t, []string{"a", "b"}, seen, "insertion order")

	r.Each(func(h registry.Handle, cell *registry.Cell[phase], p string) {
		assert.Equal(t, closed, cell.Peek())
	})
}

func TestRoost_EachSnapshot(t *testing.T) {
	r := registry.New[phase, string]()
	r.Add("a", open)

	calls := 0
	r.Each(func(h registry.Handle, cell *registry.Cell[phase], p string) {
		calls++
		r.Add("late", open)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, r.Len())
}

func TestRoost_PruneReleasesClosed(t *testing.T) {
	r := registry.New[phase, string]()
	h1 := r.Add("gone", open)
	h2 := r.Add("alive", open)
	r.Perch("moo", h1)
	r.Perch("alias", h1)
	r.Perch("cow", h2)

	r.Each(func(h registry.Handle, cell *registry.Cell[phase], p string) {
		if h == h1 {
			cell.Put(closed)
		}
	})

	released := r.Prune(isClosed)
	assert.Equal(t, 1, released)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Find("moo")
	assert.False(t, ok)
	_, ok = r.Find("alias")
	assert.False(t, ok)
	_, ok = r.Get(h1)
	assert.False(t, ok, "entry released")

	p, ok := r.Find("cow")
	require.True(t, ok)
	assert.Equal(t, "alive", p)

	assert.Equal(t, 0, r.Prune(isClosed), "nothing left to prune")
}

func TestRoost_PruneKeepsReplacedButLiveEntry(t *testing.T) {
	r := registry.New[phase, string]()
	h1 := r.Add("old", open)
	h2 := r.Add("new", open)
	r.Perch("tag", h1)
	r.Perch("tag", h2)

	assert.Equal(t, 0, r.Prune(isClosed))
	_, ok := r.Get(h1)
	assert.True(t, ok, "arena reference keeps the entry alive")
}
