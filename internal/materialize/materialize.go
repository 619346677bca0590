// Package materialize streams a segment list's virtual file to an output
// sink (spec.md section 4.5). It never alters session state; it only reads.
package materialize

import (
	"io"

	"github.com/scholarsmate/omega-edit/internal/model"
	"github.com/scholarsmate/omega-edit/internal/omegaerr"
)

// chunkSize matches the original library's write_segment_to_file buffer
// (1024 * 8, see original_source/src/lib/utility.c).
const chunkSize = 8 * 1024

// WriteTo walks sl's segments in order and writes every byte to w, in
// chunkSize-sized pieces, returning the number of bytes written.
func WriteTo(sl *model.SegmentList, w io.Writer) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for _, s := range sl.Segments() {
		remaining := s.Length
		inner := int64(0)
		for remaining > 0 {
			want := remaining
			if want > int64(len(buf)) {
				want = int64(len(buf))
			}
			n, err := sl.ReadSegmentChunk(s, inner, buf[:want])
			if err != nil {
				return written, err
			}
			if int64(n) != want {
				return written, omegaerr.ErrIOError
			}
			if _, err := w.Write(buf[:want]); err != nil {
				return written, omegaerr.ErrIOError
			}
			written += want
			inner += want
			remaining -= want
		}
	}
	return written, nil
}
