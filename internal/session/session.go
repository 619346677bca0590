// Package session implements the top-level Session type described in
// spec.md section 4.3: the owner of a session's backing file, segment-list
// model, change log, authors and viewports. It is the only package that
// imports both internal/model and internal/viewport; viewports read the
// model through a narrow Source adapter rather than a concrete
// *model.SegmentList, so they follow the model across undo/redo rebuilds.
package session

import (
	"io"
	"os"
	"path/filepath"

	"github.com/scholarsmate/omega-edit/internal/author"
	"github.com/scholarsmate/omega-edit/internal/change"
	"github.com/scholarsmate/omega-edit/internal/materialize"
	"github.com/scholarsmate/omega-edit/internal/model"
	"github.com/scholarsmate/omega-edit/internal/omegaerr"
	"github.com/scholarsmate/omega-edit/internal/search"
	"github.com/scholarsmate/omega-edit/internal/srcfile"
	"github.com/scholarsmate/omega-edit/internal/viewport"
)

// fileWindow adapts an *srcfile.File to model.FileReader, offsetting every
// read by the session's window offset so the segment list's FileOffset
// fields stay window-relative.
type fileWindow struct {
	f      *srcfile.File
	offset int64
}

func (w *fileWindow) ReadAt(p []byte, off int64) (int, error) {
	return w.f.ReadAt(p, w.offset+off)
}

// modelSource adapts a *Session to viewport.Source, delegating to the
// session's current model at call time rather than capturing a pointer.
// Undo/Redo rebuild the model wholesale (see rebuildModel); a viewport that
// captured the old *model.SegmentList directly would read stale data after
// that rebuild, so every viewport is handed this indirection instead.
type modelSource struct{ s *Session }

func (m modelSource) ReadAt(dst []byte, offset int64) (int, error) {
	return m.s.model.ReadAt(dst, offset)
}

func (m modelSource) Size() int64 { return m.s.model.Size() }

// Session is a single non-destructive editing session over one backing
// file (or none, for an in-memory-only session).
type Session struct {
	filePath     string
	file         *srcfile.File
	windowOffset int64
	windowLength int64

	model *model.SegmentList
	log   *change.Log

	authors *author.Table

	viewports          map[int64]*viewport.Viewport
	nextViewportHandle int64

	viewportCallbacksPaused bool
	viewportMaxCapacity     int64

	userData any
	onChange OnChangeFunc

	mutating bool
}

// New opens a session over file (nil for an empty, in-memory session).
// file's window defaults to the whole file; see WithWindow to restrict it
// to a sub-range. The caller retains ownership of file and must close it
// itself; Session.Close only releases the session's own memory map.
func New(file *os.File, opts ...Option) (*Session, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	sf, err := srcfile.Open(file)
	if err != nil {
		return nil, err
	}

	size := sf.Size()
	offset, length := cfg.windowOffset, cfg.windowLength
	if offset == 0 && length == 0 {
		length = size
	}
	if offset < 0 || offset > size || length < 0 || offset+length > size {
		return nil, omegaerr.ErrInvalidOffset
	}

	s := &Session{
		file:                sf,
		windowOffset:        offset,
		windowLength:        length,
		log:                 change.NewLog(),
		authors:             author.NewTable(),
		viewports:           make(map[int64]*viewport.Viewport),
		viewportMaxCapacity: cfg.viewportMaxCapacity,
		userData:            cfg.userData,
		onChange:            cfg.onChange,
	}
	if file != nil {
		s.filePath = file.Name()
	}
	s.model = model.New(&fileWindow{f: sf, offset: offset}, length)
	return s, nil
}

// rebuildModel discards the current segment list and rebuilds it from the
// backing file window plus a replay of every currently-applied change, in
// order. This is the chosen strategy for Undo/Redo (spec.md section 9):
// simpler and more obviously correct than maintaining a per-kind inverse
// operation on the segment list, at the cost of O(applied changes) work per
// undo/redo instead of O(1).
func (s *Session) rebuildModel() {
	nm := model.New(&fileWindow{f: s.file, offset: s.windowOffset}, s.windowLength)
	for _, c := range s.log.AppliedChanges() {
		// Every change here was already validated and applied once; a
		// failure now means the segment list invariant is broken.
		if err := nm.ApplyChange(c); err != nil {
			panic(err)
		}
	}
	s.model = nm
}

func (s *Session) beginMutation() error {
	if s.mutating {
		return omegaerr.ErrReentrantEdit
	}
	s.mutating = true
	return nil
}

func (s *Session) endMutation() { s.mutating = false }

// notify re-materialises and fires every viewport whose window overlapped
// the edit, then the session-level callback, in that order (spec.md
// section 5). Viewport re-materialisation happens even when viewport
// callbacks are paused; only the callback invocation is suppressed.
func (s *Session) notify(c *change.Change, changeOffset, affectedLength int64) {
	for _, v := range s.viewports {
		if v.AffectedBy(c.Kind(), changeOffset, affectedLength) {
			v.Refresh()
			if !s.viewportCallbacksPaused {
				v.Notify(c)
			}
		}
	}
	if s.onChange != nil {
		s.onChange(s, c)
	}
}

// CreateAuthor returns the author with the given name, creating it on
// first use. The same name always resolves to the same *author.Author
// within a session.
func (s *Session) CreateAuthor(name string) *author.Author {
	return s.authors.GetOrCreate(name)
}

// Insert splices data into the virtual file at offset, shifting everything
// at or after offset to the right.
func (s *Session) Insert(a *author.Author, offset int64, data []byte) (*change.Change, error) {
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	size := s.model.Size()
	if offset < 0 || offset > size {
		return nil, omegaerr.ErrInvalidOffset
	}
	if len(data) == 0 {
		return nil, omegaerr.ErrInvalidLength
	}

	c := s.log.Apply(change.Insert, offset, int64(len(data)), data, a)
	if err := s.model.ApplyChange(c); err != nil {
		panic(err)
	}
	s.notify(c, offset, c.Length())
	return c, nil
}

// Overwrite replaces up to len(data) bytes starting at offset with data,
// extending the virtual file if offset+len(data) runs past the current
// end (spec.md section 4.2's OVERWRITE semantics).
func (s *Session) Overwrite(a *author.Author, offset int64, data []byte) (*change.Change, error) {
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	size := s.model.Size()
	if offset < 0 || offset > size {
		return nil, omegaerr.ErrInvalidOffset
	}
	if len(data) == 0 {
		return nil, omegaerr.ErrInvalidLength
	}

	c := s.log.Apply(change.Overwrite, offset, int64(len(data)), data, a)
	if err := s.model.ApplyChange(c); err != nil {
		panic(err)
	}
	overlap := size - offset
	if overlap > c.Length() {
		overlap = c.Length()
	}
	affected := c.Length()
	if overlap > affected {
		affected = overlap
	}
	s.notify(c, offset, affected)
	return c, nil
}

// Delete removes up to length bytes starting at offset, truncating to the
// number of bytes actually remaining when the request runs past the end of
// the virtual file (spec.md section 3). The returned change's Length
// reflects the bytes actually removed.
func (s *Session) Delete(a *author.Author, offset, length int64) (*change.Change, error) {
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	size := s.model.Size()
	if offset < 0 || offset >= size {
		return nil, omegaerr.ErrInvalidOffset
	}
	if length <= 0 {
		return nil, omegaerr.ErrInvalidLength
	}
	if offset+length > size {
		length = size - offset
	}

	c := s.log.Apply(change.Delete, offset, length, nil, a)
	if err := s.model.ApplyChange(c); err != nil {
		panic(err)
	}
	s.notify(c, offset, length)
	return c, nil
}

// Undo reverts the most recently applied change and rebuilds the model by
// replay. Fails with omegaerr.ErrNoSuchChange if there is nothing to undo.
func (s *Session) Undo() (*change.Change, error) {
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	c, err := s.log.UndoLast()
	if err != nil {
		return nil, err
	}
	s.rebuildModel()
	s.notify(c, c.Offset(), c.Length())
	return c, nil
}

// Redo re-applies the most recently undone change. Fails with
// omegaerr.ErrNoSuchChange if there is nothing to redo.
func (s *Session) Redo() (*change.Change, error) {
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	c, err := s.log.RedoLast()
	if err != nil {
		return nil, err
	}
	s.rebuildModel()
	s.notify(c, c.Offset(), c.Length())
	return c, nil
}

// PauseViewportCallbacks suppresses viewport change callbacks until
// resumed. Viewports still re-materialise on every overlapping edit.
func (s *Session) PauseViewportCallbacks() { s.viewportCallbacksPaused = true }

// ResumeViewportCallbacks re-enables viewport change callbacks.
func (s *Session) ResumeViewportCallbacks() { s.viewportCallbacksPaused = false }

// CreateViewport creates a viewport at offset with the given capacity and
// optional bit offset (0-7), returning a handle for later lookup/update.
func (s *Session) CreateViewport(a *author.Author, offset, capacity int64, onChange viewport.OnChangeFunc, userData any, bitOffset int64) (int64, error) {
	if capacity <= 0 || capacity > s.viewportMaxCapacity {
		return 0, omegaerr.ErrCapacityExceeded
	}
	if offset < 0 || offset > s.model.Size() {
		return 0, omegaerr.ErrInvalidOffset
	}
	if bitOffset < 0 || bitOffset > 7 {
		return 0, omegaerr.ErrInvalidOffset
	}
	v := viewport.New(modelSource{s}, a, offset, capacity, onChange, userData, bitOffset)
	handle := s.nextViewportHandle
	s.nextViewportHandle++
	s.viewports[handle] = v
	return handle, nil
}

// UpdateViewport moves/resizes an existing viewport, firing its callback
// once with a nil change (a user-initiated update, not a model mutation).
func (s *Session) UpdateViewport(handle, offset, capacity, bitOffset int64) error {
	v, ok := s.viewports[handle]
	if !ok {
		return omegaerr.ErrNoSuchChange
	}
	if capacity <= 0 || capacity > s.viewportMaxCapacity {
		return omegaerr.ErrCapacityExceeded
	}
	if offset < 0 || offset > s.model.Size() {
		return omegaerr.ErrInvalidOffset
	}
	if bitOffset < 0 || bitOffset > 7 {
		return omegaerr.ErrInvalidOffset
	}
	v.Update(offset, capacity, bitOffset)
	return nil
}

// DestroyViewport removes a viewport. Destroying an already-unknown handle
// is a no-op.
func (s *Session) DestroyViewport(handle int64) {
	delete(s.viewports, handle)
}

// GetViewport looks up a viewport by handle.
func (s *Session) GetViewport(handle int64) (*viewport.Viewport, bool) {
	v, ok := s.viewports[handle]
	return v, ok
}

// NumViewports is the number of viewports currently alive on this session.
func (s *Session) NumViewports() int { return len(s.viewports) }

// NumChanges is the number of currently-applied changes.
func (s *Session) NumChanges() int { return s.log.NumChanges() }

// NumUndoneChanges is the number of changes sitting on the redo stack.
func (s *Session) NumUndoneChanges() int { return s.log.NumUndone() }

// LastChange returns the most recently applied change, or nil.
func (s *Session) LastChange() *change.Change { return s.log.LastChange() }

// LastUndo returns the most recently undone change, or nil.
func (s *Session) LastUndo() *change.Change { return s.log.LastUndo() }

// VisitChanges iterates applied changes oldest-to-newest.
func (s *Session) VisitChanges(fn func(*change.Change) int) { s.log.Visit(fn) }

// VisitChangesReverse iterates applied changes newest-to-oldest.
func (s *Session) VisitChangesReverse(fn func(*change.Change) int) { s.log.VisitReverse(fn) }

// ComputedFileSize is the current virtual file size.
func (s *Session) ComputedFileSize() int64 { return s.model.Size() }

// FilePath is the backing file's path, or "" for an in-memory session.
func (s *Session) FilePath() string { return s.filePath }

// UserData returns the caller-supplied pointer passed to New via WithUserData.
func (s *Session) UserData() any { return s.userData }

// SetUserData replaces the caller-supplied pointer.
func (s *Session) SetUserData(d any) { s.userData = d }

// ViewportMaxCapacity is the ceiling new viewports on this session are
// validated against.
func (s *Session) ViewportMaxCapacity() int64 { return s.viewportMaxCapacity }

// NeedleLengthLimit is half this session's viewport maximum capacity
// (spec.md section 6), the longest needle Find will accept.
func (s *Session) NeedleLengthLimit() int64 { return s.viewportMaxCapacity / 2 }

// Find returns every non-overlapping occurrence of needle within
// [start, end) of the virtual file, in ascending order.
func (s *Session) Find(needle []byte, start, end int64) ([]int64, error) {
	return search.Find(s.model, needle, start, end, s.NeedleLengthLimit())
}

// FindAll is Find over the whole virtual file.
func (s *Session) FindAll(needle []byte) ([]int64, error) {
	return search.Find(s.model, needle, 0, s.model.Size(), s.NeedleLengthLimit())
}

// Save streams the virtual file to w.
func (s *Session) Save(w io.Writer) (int64, error) {
	return materialize.WriteTo(s.model, w)
}

// SaveToPath materialises the virtual file to path. When path equals the
// session's own backing-file path, the write goes to a temp file in the
// same directory first and is atomically renamed into place afterward, so
// a crash mid-write never leaves a truncated file where the input was
// (spec.md section 4.5).
func (s *Session) SaveToPath(path string) (int64, error) {
	if path == "" {
		return 0, omegaerr.ErrIOError
	}
	if path != s.filePath {
		f, err := os.Create(path)
		if err != nil {
			return 0, omegaerr.ErrIOError
		}
		defer f.Close()
		n, err := materialize.WriteTo(s.model, f)
		if err != nil {
			return n, err
		}
		return n, f.Close()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".omega-edit-*.tmp")
	if err != nil {
		return 0, omegaerr.ErrIOError
	}
	tmpPath := tmp.Name()
	n, werr := materialize.WriteTo(s.model, tmp)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmpPath)
		return n, werr
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return n, omegaerr.ErrIOError
	}
	return n, nil
}

// Close releases the session's memory map over its backing file, if any.
// It does not close the *os.File passed to New; the caller retains that.
func (s *Session) Close() error {
	return s.file.Close()
}
