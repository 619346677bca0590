package author

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableGetOrCreate(t *testing.T) {
	tbl := NewTable()
	a1 := tbl.GetOrCreate("alice")
	a2 := tbl.GetOrCreate("alice")
	require.Same(t, a1, a2)
	require.Equal(t, 1, tbl.Len())

	b := tbl.GetOrCreate("bob")
	require.NotSame(t, a1, b)
	require.Equal(t, 2, tbl.Len())
}

func TestTableGet(t *testing.T) {
	tbl := NewTable()
	_, ok := tbl.Get("nobody")
	require.False(t, ok)

	tbl.GetOrCreate("alice")
	a, ok := tbl.Get("alice")
	require.True(t, ok)
	require.Equal(t, "alice", a.Name())
}

func TestChangeCounting(t *testing.T) {
	a := New("alice")
	require.Equal(t, int64(0), a.NumChanges())
	a.IncChanges()
	a.IncChanges()
	require.Equal(t, int64(2), a.NumChanges())
	a.DecChanges()
	require.Equal(t, int64(1), a.NumChanges())
}
