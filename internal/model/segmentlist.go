package model

import (
	"github.com/scholarsmate/omega-edit/internal/change"
	"github.com/scholarsmate/omega-edit/internal/omegaerr"
)

// FileReader is the backing-file side of a segment list: positional reads
// only, so the seek pointer is never shared across calls (spec.md section 5).
type FileReader interface {
	ReadAt(p []byte, off int64) (int, error)
}

// SegmentList is the ordered sequence of segments projecting a session's
// virtual file. A flat slice satisfies every invariant spec.md section 4.2
// requires; this implementation trades an O(log N) shift for the teacher's
// own choice of a flat []*segment slice in favor of simplicity.
type SegmentList struct {
	segments []*Segment
	file     FileReader
}

// New creates a segment list over a backing file of the given size. A
// fileSize of 0 yields an empty segment list (the empty-file case in
// spec.md section 8's boundary scenarios).
func New(file FileReader, fileSize int64) *SegmentList {
	sl := &SegmentList{file: file}
	if fileSize > 0 {
		sl.segments = []*Segment{{
			Source:         SourceFile,
			ComputedOffset: 0,
			Length:         fileSize,
			FileOffset:     0,
		}}
	}
	return sl
}

// Size is the current virtual-file size: the sum of every segment's length.
func (sl *SegmentList) Size() int64 {
	if len(sl.segments) == 0 {
		return 0
	}
	last := sl.segments[len(sl.segments)-1]
	return last.ComputedOffset + last.Length
}

// Segments returns the current segment list in order. Callers must treat it
// as read-only; it is walked by save/materialise and by search.
func (sl *SegmentList) Segments() []*Segment {
	return sl.segments
}

// locate returns the index of the segment containing offset. If offset ==
// Size(), it returns len(segments) (the insertion point past the end).
func (sl *SegmentList) locate(offset int64) int {
	lo, hi := 0, len(sl.segments)
	for lo < hi {
		mid := (lo + hi) / 2
		s := sl.segments[mid]
		switch {
		case offset < s.ComputedOffset:
			hi = mid
		case offset >= s.ComputedOffset+s.Length:
			lo = mid + 1
		default:
			return mid
		}
	}
	return lo
}

// splitAt splits the segment at index i into two at offset, which must fall
// strictly inside that segment. The left half keeps index i; the right half
// (starting at offset) is inserted at i+1.
func (sl *SegmentList) splitAt(i int, offset int64) {
	s := sl.segments[i]
	leftLen := offset - s.ComputedOffset
	right := s.clone()
	right.ComputedOffset = offset
	right.Length = s.Length - leftLen
	if s.Source == SourceFile {
		right.FileOffset = s.FileOffset + leftLen
	} else {
		right.ChangeInner = s.ChangeInner + leftLen
	}
	s.Length = leftLen

	sl.segments = append(sl.segments, nil)
	copy(sl.segments[i+2:], sl.segments[i+1:])
	sl.segments[i+1] = right
}

// splitBefore ensures a segment boundary exists exactly at offset (splitting
// a segment if offset falls strictly inside one) and returns the index of
// the first segment starting at offset, or len(segments) if offset ==
// Size(). This is where the spec's boundary tie-break lives: an insertion
// at a boundary lands in the gap before the segment that already starts
// there, never inside the segment before it.
func (sl *SegmentList) splitBefore(offset int64) int {
	size := sl.Size()
	if offset == size {
		return len(sl.segments)
	}
	idx := sl.locate(offset)
	if sl.segments[idx].ComputedOffset == offset {
		return idx
	}
	sl.splitAt(idx, offset)
	return idx + 1
}

func (sl *SegmentList) shiftFrom(start int, delta int64) {
	for i := start; i < len(sl.segments); i++ {
		sl.segments[i].ComputedOffset += delta
	}
}

// ApplyChange rebuilds the affected portion of the segment list for one
// change. Offsets/lengths are taken from the change itself, which the
// session is expected to have already validated; any error returned here
// indicates a broken invariant rather than ordinary bad input.
func (sl *SegmentList) ApplyChange(c *change.Change) error {
	switch c.Kind() {
	case change.Insert:
		return sl.applyInsert(c.Offset(), c)
	case change.Delete:
		return sl.applyDelete(c.Offset(), c.Length())
	case change.Overwrite:
		return sl.applyOverwrite(c)
	default:
		return omegaerr.ErrInvalidLength
	}
}

func (sl *SegmentList) applyInsert(offset int64, c *change.Change) error {
	size := sl.Size()
	if offset < 0 || offset > size {
		return omegaerr.ErrInvalidOffset
	}
	if c.Length() <= 0 {
		return omegaerr.ErrInvalidLength
	}
	sl.insertChangeSegment(offset, c, 0, c.Length())
	return nil
}

// insertChangeSegment splices a CHANGE segment reading [innerOffset,
// innerOffset+length) of c's payload into the list at offset, shifting
// everything after it.
func (sl *SegmentList) insertChangeSegment(offset int64, c *change.Change, innerOffset, length int64) {
	at := sl.splitBefore(offset)
	seg := &Segment{
		Source:         SourceChange,
		ComputedOffset: offset,
		Length:         length,
		Change:         c,
		ChangeInner:    innerOffset,
	}
	sl.segments = append(sl.segments, nil)
	copy(sl.segments[at+1:], sl.segments[at:])
	sl.segments[at] = seg
	sl.shiftFrom(at+1, length)
}

func (sl *SegmentList) applyDelete(offset, length int64) error {
	size := sl.Size()
	if offset < 0 || offset >= size {
		return omegaerr.ErrInvalidOffset
	}
	if length <= 0 {
		return omegaerr.ErrInvalidLength
	}
	if offset+length > size {
		length = size - offset // truncated to the current size, per spec.md section 3
	}
	startIdx := sl.splitBefore(offset)
	endIdx := sl.splitBefore(offset + length)
	sl.segments = append(sl.segments[:startIdx], sl.segments[endIdx:]...)
	sl.shiftFrom(startIdx, -length)
	return nil
}

// applyOverwrite implements spec.md section 4.2's OVERWRITE semantics: a
// delete of min(length, size-offset) bytes at offset, followed by an insert
// of the full payload at offset. When offset == size this degenerates to a
// pure insert (tail extension).
func (sl *SegmentList) applyOverwrite(c *change.Change) error {
	size := sl.Size()
	offset := c.Offset()
	if offset < 0 || offset > size {
		return omegaerr.ErrInvalidOffset
	}
	if c.Length() <= 0 {
		return omegaerr.ErrInvalidLength
	}
	overlap := size - offset
	if overlap > c.Length() {
		overlap = c.Length()
	}
	if overlap > 0 {
		if err := sl.applyDelete(offset, overlap); err != nil {
			return err
		}
	}
	sl.insertChangeSegment(offset, c, 0, c.Length())
	return nil
}

// ReadSegmentChunk reads up to len(dst) bytes of s's content starting
// innerOffset bytes into that segment's range.
func (sl *SegmentList) ReadSegmentChunk(s *Segment, innerOffset int64, dst []byte) (int, error) {
	switch s.Source {
	case SourceFile:
		if sl.file == nil {
			return 0, omegaerr.ErrIOError
		}
		n, err := sl.file.ReadAt(dst, s.FileOffset+innerOffset)
		if err != nil {
			return n, omegaerr.ErrIOError
		}
		return n, nil
	case SourceChange:
		payload := s.Change.Bytes()
		n := copy(dst, payload[s.ChangeInner+innerOffset:])
		return n, nil
	default:
		return 0, omegaerr.ErrIOError
	}
}

// ReadAt copies virtual-file bytes [offset, offset+len(dst)) into dst,
// returning the number of bytes copied (fewer than len(dst) only if the
// read runs past the end of the virtual file).
func (sl *SegmentList) ReadAt(dst []byte, offset int64) (int, error) {
	size := sl.Size()
	if offset < 0 || offset > size {
		return 0, omegaerr.ErrInvalidOffset
	}
	n := 0
	remaining := int64(len(dst))
	if remaining == 0 {
		return 0, nil
	}
	idx := sl.locate(offset)
	pos := offset
	for remaining > 0 && idx < len(sl.segments) {
		s := sl.segments[idx]
		innerOff := pos - s.ComputedOffset
		avail := s.Length - innerOff
		want := remaining
		if want > avail {
			want = avail
		}
		got, err := sl.ReadSegmentChunk(s, innerOff, dst[n:n+int(want)])
		if err != nil {
			return n, err
		}
		n += got
		pos += int64(got)
		remaining -= int64(got)
		if int64(got) < want {
			break // short read from the backing file; stop rather than loop forever
		}
		idx++
	}
	return n, nil
}
