package change

import (
	"github.com/scholarsmate/omega-edit/internal/author"
	"github.com/scholarsmate/omega-edit/internal/omegaerr"
)

// Log is the append-only ordered record of a session's applied changes,
// plus the stack of undone changes that redo draws from. Serials are
// assigned here and never reused; a fresh Apply after one or more undos
// clears the redo history, matching spec.md section 4.1.
type Log struct {
	applied    []*Change
	undone     []*Change
	nextSerial int64
}

// NewLog creates an empty change log. The first applied change gets serial 1.
func NewLog() *Log {
	return &Log{nextSerial: 1}
}

// Apply assigns the next serial, appends the change, clears any redo
// history, and attributes it to its author.
func (l *Log) Apply(kind Kind, offset, length int64, bytes []byte, a *author.Author) *Change {
	c := &Change{
		serial: l.nextSerial,
		kind:   kind,
		offset: offset,
		length: length,
		bytes:  bytes,
		author: a,
	}
	l.nextSerial++
	l.applied = append(l.applied, c)
	l.undone = nil
	a.IncChanges()
	return c
}

// UndoLast pops the last applied change, negates its serial, pushes it onto
// the undone stack, and returns it. Fails with omegaerr.ErrNoSuchChange if
// the applied list is empty.
func (l *Log) UndoLast() (*Change, error) {
	if len(l.applied) == 0 {
		return nil, omegaerr.ErrNoSuchChange
	}
	c := l.applied[len(l.applied)-1]
	l.applied = l.applied[:len(l.applied)-1]
	c.negateSerial()
	l.undone = append(l.undone, c)
	c.author.DecChanges()
	return c, nil
}

// RedoLast pops the last undone change, restores its original (positive)
// serial, and re-applies it without renumbering. Fails with
// omegaerr.ErrNoSuchChange if the undone stack is empty.
func (l *Log) RedoLast() (*Change, error) {
	if len(l.undone) == 0 {
		return nil, omegaerr.ErrNoSuchChange
	}
	c := l.undone[len(l.undone)-1]
	l.undone = l.undone[:len(l.undone)-1]
	c.restoreSerial()
	l.applied = append(l.applied, c)
	c.author.IncChanges()
	return c, nil
}

// NumChanges is the number of currently-applied changes.
func (l *Log) NumChanges() int { return len(l.applied) }

// NumUndone is the number of changes sitting on the undone (redo) stack.
func (l *Log) NumUndone() int { return len(l.undone) }

// LastChange returns the most recently applied change, or nil if none.
func (l *Log) LastChange() *Change {
	if len(l.applied) == 0 {
		return nil
	}
	return l.applied[len(l.applied)-1]
}

// LastUndo returns the most recently undone change, or nil if none.
func (l *Log) LastUndo() *Change {
	if len(l.undone) == 0 {
		return nil
	}
	return l.undone[len(l.undone)-1]
}

// AppliedChanges returns a copy of the currently-applied changes in apply
// order. Used by the session to replay the log onto a fresh model after an
// undo or redo (see internal/session's rebuildModel).
func (l *Log) AppliedChanges() []*Change {
	out := make([]*Change, len(l.applied))
	copy(out, l.applied)
	return out
}

// Visit iterates applied changes oldest-to-newest, stopping when fn returns
// non-zero.
func (l *Log) Visit(fn func(*Change) int) {
	for _, c := range l.applied {
		if fn(c) != 0 {
			return
		}
	}
}

// VisitReverse iterates applied changes newest-to-oldest, stopping when fn
// returns non-zero.
func (l *Log) VisitReverse(fn func(*Change) int) {
	for i := len(l.applied) - 1; i >= 0; i-- {
		if fn(l.applied[i]) != 0 {
			return
		}
	}
}
