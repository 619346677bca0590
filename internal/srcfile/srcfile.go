// Package srcfile wraps a session's read-only backing file. Reads are
// positional (never sharing a seek pointer across calls, per spec.md
// section 5) and, when the file is non-empty, served from a read-only
// memory map rather than repeated pread syscalls — the same
// github.com/tysonmote/gommap the teacher uses to map its index files,
// generalized here to the input file itself.
package srcfile

import (
	"io"
	"os"

	"github.com/tysonmote/gommap"
)

// File is a read-only, positionally-readable view of a session's backing
// input file. The zero value (via Open(nil)) represents a session with no
// backing file ("empty" per spec.md section 3).
type File struct {
	f    *os.File
	mm   gommap.MMap
	size int64
}

// Open wraps f for read-only positional access. f may be nil, representing
// a session created with no backing file. srcfile never closes f; the
// caller retains ownership of the handle it opened.
func Open(f *os.File) (*File, error) {
	if f == nil {
		return &File{}, nil
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	sf := &File{f: f, size: fi.Size()}
	if sf.size > 0 {
		// Mapping can fail on some special files (pipes, zero-length after a
		// race); fall back to ReadAt rather than erroring out the session.
		if mm, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_SHARED); err == nil {
			sf.mm = mm
		}
	}
	return sf, nil
}

// Size is the backing file's length in bytes (0 if there is no backing file).
func (sf *File) Size() int64 { return sf.size }

// ReadAt implements io.ReaderAt, serving from the memory map when one was
// established and from the underlying file's positional read otherwise.
func (sf *File) ReadAt(p []byte, off int64) (int, error) {
	if sf.mm != nil {
		if off < 0 || off > int64(len(sf.mm)) {
			return 0, io.EOF
		}
		end := off + int64(len(p))
		if end > int64(len(sf.mm)) {
			end = int64(len(sf.mm))
		}
		n := copy(p, sf.mm[off:end])
		if n < len(p) {
			return n, io.EOF
		}
		return n, nil
	}
	if sf.f == nil {
		return 0, io.EOF
	}
	return sf.f.ReadAt(p, off)
}

// Close releases the memory map, if any. It does not close the underlying
// *os.File, which the caller opened and still owns.
func (sf *File) Close() error {
	if sf.mm != nil {
		return sf.mm.UnsafeUnmap()
	}
	return nil
}
