// Package search implements the literal byte-pattern search primitive
// described in spec.md section 4.6: non-overlapping occurrences of a needle
// within a bounded range of the virtual file, found by streaming a sliding
// window over the segment list rather than materialising the whole thing.
package search

import (
	"bytes"

	"github.com/scholarsmate/omega-edit/internal/model"
	"github.com/scholarsmate/omega-edit/internal/omegaerr"
)

// readChunk is how many fresh bytes are pulled from the model per round;
// the window additionally retains up to len(needle)-1 bytes of trailing
// context so a match straddling a read boundary is not missed.
const readChunk = 64 * 1024

// Find returns every non-overlapping occurrence of needle in the virtual
// file within [start, end), in ascending order. needleLimit is the caller's
// current NEEDLE_LENGTH_LIMIT (half the session's viewport max capacity).
func Find(sl *model.SegmentList, needle []byte, start, end, needleLimit int64) ([]int64, error) {
	if len(needle) == 0 {
		return nil, omegaerr.ErrInvalidLength
	}
	if int64(len(needle)) > needleLimit {
		return nil, omegaerr.ErrNeedleTooLong
	}
	size := sl.Size()
	if start < 0 || start > size || end < start || end > size {
		return nil, omegaerr.ErrInvalidOffset
	}
	if start == end {
		return nil, nil
	}

	chunkBuf := make([]byte, readChunk)

	var matches []int64
	var window []byte
	windowBase := start
	pos := start

	for {
		for {
			idx := bytes.Index(window, needle)
			if idx < 0 {
				break
			}
			matches = append(matches, windowBase+int64(idx))
			consumed := idx + len(needle)
			window = window[consumed:]
			windowBase += int64(consumed)
		}
		if pos >= end {
			break
		}
		if len(window) > len(needle)-1 {
			trim := len(window) - (len(needle) - 1)
			window = window[trim:]
			windowBase += int64(trim)
		}
		want := readChunk
		if int64(want) > end-pos {
			want = int(end - pos)
		}
		n, err := sl.ReadAt(chunkBuf[:want], pos)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		window = append(window, chunkBuf[:n]...)
		pos += int64(n)
	}
	return matches, nil
}
