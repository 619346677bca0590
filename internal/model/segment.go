// Package model implements the segment list that projects the virtual
// edited file: an ordered sequence of segments, each a contiguous range
// sourced from either the backing file or a change's payload (spec.md
// section 4.2). The list is rebuilt incrementally for INSERT/OVERWRITE/
// DELETE and replayed wholesale by the session for UNDO/REDO.
package model

import "github.com/scholarsmate/omega-edit/internal/change"

// SourceKind identifies what a Segment reads from.
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceChange
)

// Segment is one contiguous range of the virtual file.
type Segment struct {
	Source         SourceKind
	ComputedOffset int64
	Length         int64

	// FileOffset is meaningful only when Source == SourceFile: the byte
	// offset, relative to the start of the session's window into the
	// backing file, that this segment's bytes begin at.
	FileOffset int64

	// Change and ChangeInner are meaningful only when Source ==
	// SourceChange: the change whose payload this segment reads from, and
	// the byte offset into that payload this segment begins at.
	Change      *change.Change
	ChangeInner int64
}

// clone returns a shallow copy; used when splitting a segment in two.
func (s *Segment) clone() *Segment {
	cp := *s
	return &cp
}
