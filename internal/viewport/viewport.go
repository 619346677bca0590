// Package viewport implements the sliding window over a session's virtual
// file described in spec.md section 4.4: a cached byte buffer, an optional
// sub-byte bit offset, and a change callback.
//
// Viewport does not import the session package (that would form an import
// cycle, since a session owns a table of viewports). Instead it defines the
// narrow Source interface it needs; *model.SegmentList already satisfies
// it, and the session hands its (possibly-rebuilt-on-undo) model in through
// a thin indirection so a viewport never holds a stale pointer across an
// undo/redo rebuild (see internal/session's modelSource).
package viewport

import (
	"github.com/scholarsmate/omega-edit/internal/author"
	"github.com/scholarsmate/omega-edit/internal/change"
)

// Source is what a Viewport reads from: the live virtual file.
type Source interface {
	ReadAt(dst []byte, offset int64) (int, error)
	Size() int64
}

// OnChangeFunc is invoked whenever a viewport's cached data is
// re-materialised, either because the caller asked for it (Update, change
// is nil) or because an overlapping session edit occurred (change is the
// edit that triggered it).
type OnChangeFunc func(v *Viewport, c *change.Change)

// Viewport is a sliding window over a session's virtual file.
type Viewport struct {
	source Source
	author *author.Author

	offset    int64
	capacity  int64
	bitOffset int64

	data   []byte
	length int64

	onChange OnChangeFunc
	userData any
}

// New creates a viewport at offset with the given capacity and bit offset
// (0-7), materialises its initial cache, and returns it. The caller (the
// session) is responsible for validating capacity against its configured
// maximum before calling New.
func New(source Source, a *author.Author, offset, capacity int64, onChange OnChangeFunc, userData any, bitOffset int64) *Viewport {
	v := &Viewport{
		source:    source,
		author:    a,
		offset:    offset,
		capacity:  capacity,
		bitOffset: bitOffset,
		onChange:  onChange,
		userData:  userData,
	}
	v.refresh()
	return v
}

func (v *Viewport) refresh() {
	size := v.source.Size()
	length := v.capacity
	if remaining := size - v.offset; remaining < length {
		length = remaining
	}
	if length < 0 {
		length = 0
	}
	buf := make([]byte, length)
	if length > 0 {
		v.source.ReadAt(buf, v.offset)
	}
	if v.bitOffset != 0 && length > 0 {
		bitShiftLeft(buf, uint(v.bitOffset))
	}
	v.data = buf
	v.length = length
}

// Update moves/resizes the viewport, re-reads from the model, and always
// fires the change callback with a nil change reference (a user-initiated
// update rather than a model mutation), per spec.md section 4.4.
func (v *Viewport) Update(newOffset, newCapacity, newBitOffset int64) {
	v.offset = newOffset
	v.capacity = newCapacity
	v.bitOffset = newBitOffset
	v.refresh()
	v.fire(nil)
}

// Refresh re-materialises the cache in place (offset/capacity/bitOffset
// unchanged). Called by the session after a change that overlaps this
// viewport's window.
func (v *Viewport) Refresh() { v.refresh() }

func (v *Viewport) fire(c *change.Change) {
	if v.onChange != nil {
		v.onChange(v, c)
	}
}

// Notify invokes the change callback for a session edit that overlapped
// this viewport. The session has already called Refresh beforehand, so the
// cached data reflects the new virtual file before this fires.
func (v *Viewport) Notify(c *change.Change) { v.fire(c) }

// AffectedBy reports whether a change of the given kind, offset and
// affected length requires this viewport to refresh: either the edited
// range intersects [offset, offset+capacity), or the edit shifted bytes
// into or out of the window (an insert at or before the window's start, or
// a delete that began before the window's start), per spec.md section 4.4.
func (v *Viewport) AffectedBy(kind change.Kind, changeOffset, affectedLength int64) bool {
	winEnd := v.offset + v.capacity
	changeEnd := changeOffset + affectedLength
	if changeOffset < winEnd && changeEnd > v.offset {
		return true
	}
	switch kind {
	case change.Insert:
		return changeOffset <= v.offset
	case change.Delete:
		return changeOffset < v.offset
	default:
		return false
	}
}

// Data is the cached window bytes, length Length(), bit-shifted left by
// BitOffset() bits when that is non-zero.
func (v *Viewport) Data() []byte { return v.data }

// Length is min(Capacity(), max(0, virtual size - Offset())).
func (v *Viewport) Length() int64 { return v.length }

// Capacity is the maximum number of bytes this viewport will cache.
func (v *Viewport) Capacity() int64 { return v.capacity }

// Offset is the viewport's current position in the virtual file.
func (v *Viewport) Offset() int64 { return v.offset }

// BitOffset is the sub-byte shift (0-7) applied to the cached data.
func (v *Viewport) BitOffset() int64 { return v.bitOffset }

// Author is the actor this viewport is attributed to (for callback
// attribution only; the viewport is owned by the session, not the author).
func (v *Viewport) Author() *author.Author { return v.author }

// UserData is the caller-supplied pointer passed back on every callback.
func (v *Viewport) UserData() any { return v.userData }

// SetUserData replaces the caller-supplied pointer.
func (v *Viewport) SetUserData(d any) { v.userData = d }
