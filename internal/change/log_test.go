package change

import (
	"testing"

	"github.com/scholarsmate/omega-edit/internal/author"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, l *Log, a *author.Author){
		"apply assigns increasing serials":  testApplyIncreasingSerials,
		"undo negates serial and pops":      testUndoNegatesSerial,
		"redo restores serial and pushes":   testRedoRestoresSerial,
		"apply after undo clears redo":      testApplyClearsRedo,
		"undo on empty log errors":          testUndoEmptyErrors,
		"redo on empty undone stack errors": testRedoEmptyErrors,
	} {
		t.Run(scenario, func(t *testing.T) {
			l := NewLog()
			a := author.New("tester")
			fn(t, l, a)
		})
	}
}

func testApplyIncreasingSerials(t *testing.T, l *Log, a *author.Author) {
	c1 := l.Apply(Insert, 0, 5, []byte("hello"), a)
	c2 := l.Apply(Insert, 5, 5, []byte("world"), a)
	require.Equal(t, int64(1), c1.Serial())
	require.Equal(t, int64(2), c2.Serial())
	require.Equal(t, 2, l.NumChanges())
	require.Equal(t, int64(2), a.NumChanges())
}

func testUndoNegatesSerial(t *testing.T, l *Log, a *author.Author) {
	c := l.Apply(Insert, 0, 5, []byte("hello"), a)
	undone, err := l.UndoLast()
	require.NoError(t, err)
	require.Same(t, c, undone)
	require.Equal(t, int64(-1), c.Serial())
	require.Equal(t, 0, l.NumChanges())
	require.Equal(t, 1, l.NumUndone())
	require.Equal(t, int64(0), a.NumChanges())
}

func testRedoRestoresSerial(t *testing.T, l *Log, a *author.Author) {
	c := l.Apply(Insert, 0, 5, []byte("hello"), a)
	_, err := l.UndoLast()
	require.NoError(t, err)

	redone, err := l.RedoLast()
	require.NoError(t, err)
	require.Same(t, c, redone)
	require.Equal(t, int64(1), c.Serial())
	require.Equal(t, 1, l.NumChanges())
	require.Equal(t, 0, l.NumUndone())
	require.Equal(t, int64(1), a.NumChanges())
}

func testApplyClearsRedo(t *testing.T, l *Log, a *author.Author) {
	l.Apply(Insert, 0, 5, []byte("hello"), a)
	_, err := l.UndoLast()
	require.NoError(t, err)
	require.Equal(t, 1, l.NumUndone())

	l.Apply(Insert, 0, 5, []byte("again"), a)
	require.Equal(t, 0, l.NumUndone())
	_, err = l.RedoLast()
	require.Error(t, err)
}

func testUndoEmptyErrors(t *testing.T, l *Log, a *author.Author) {
	_, err := l.UndoLast()
	require.Error(t, err)
}

func testRedoEmptyErrors(t *testing.T, l *Log, a *author.Author) {
	_, err := l.RedoLast()
	require.Error(t, err)
}
