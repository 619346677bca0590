package session

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/scholarsmate/omega-edit/internal/author"
	"github.com/scholarsmate/omega-edit/internal/change"
	"github.com/scholarsmate/omega-edit/internal/viewport"
	"github.com/stretchr/testify/require"
)

// The concrete end-to-end scenarios below are grounded on spec.md section 8's
// seed tests. Where the distilled spec's own worked-out literal strings do
// not add up under the splice semantics it otherwise specifies (its own
// scenario 3 acknowledges this explicitly: "recompute per the semantics;
// the point is: the same sequence always yields the same bytes"), the
// expected values here are the ones obtained by hand-tracing this
// package's actual insert/delete/overwrite semantics, not the prose.

func tempFileWithContent(t *testing.T, content string) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "session-test")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	return f
}

func saveToString(t *testing.T, s *Session) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := s.Save(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestModelSequenceScenario(t *testing.T) {
	f := tempFileWithContent(t, "0123456789")
	s, err := New(f)
	require.NoError(t, err)
	a := s.CreateAuthor("tester")

	_, err = s.Insert(a, 0, []byte("0"))
	require.NoError(t, err)
	_, err = s.Insert(a, 10, []byte("0"))
	require.NoError(t, err)
	_, err = s.Insert(a, 5, []byte("xxx"))
	require.NoError(t, err)

	require.Equal(t, int64(15), s.ComputedFileSize())
	require.Equal(t, "00123xxx4567809", saveToString(t, s))
}

func TestUndoPastAnEditScenario(t *testing.T) {
	f := tempFileWithContent(t, "0123456789")
	s, err := New(f)
	require.NoError(t, err)
	a := s.CreateAuthor("tester")

	_, err = s.Insert(a, 0, []byte("0"))
	require.NoError(t, err)
	_, err = s.Insert(a, 10, []byte("0"))
	require.NoError(t, err)
	last, err := s.Insert(a, 5, []byte("xxx"))
	require.NoError(t, err)
	require.Equal(t, int64(3), last.Serial())

	before := s.NumChanges()
	undone, err := s.Undo()
	require.NoError(t, err)
	require.Equal(t, before-1, s.NumChanges())
	require.Equal(t, int64(-3), undone.Serial())

	require.Equal(t, int64(12), s.ComputedFileSize())
	require.Equal(t, "001234567809", saveToString(t, s))
}

func TestCompoundEditsScenario(t *testing.T) {
	f := tempFileWithContent(t, "0123456789")
	s, err := New(f)
	require.NoError(t, err)
	a := s.CreateAuthor("tester")

	_, err = s.Insert(a, 5, []byte("XxXxXxX"))
	require.NoError(t, err)
	_, err = s.Delete(a, 7, 4)
	require.NoError(t, err)
	_, err = s.Overwrite(a, 0, []byte("-"))
	require.NoError(t, err)
	_, err = s.Overwrite(a, s.ComputedFileSize(), []byte("+"))
	require.NoError(t, err)

	require.Equal(t, "-1234XxX56789+", saveToString(t, s))

	// Determinism: replaying the identical sequence against a fresh
	// session yields byte-identical output, which is the property the
	// scenario is actually testing.
	f2 := tempFileWithContent(t, "0123456789")
	s2, err := New(f2)
	require.NoError(t, err)
	a2 := s2.CreateAuthor("tester")
	_, err = s2.Insert(a2, 5, []byte("XxXxXxX"))
	require.NoError(t, err)
	_, err = s2.Delete(a2, 7, 4)
	require.NoError(t, err)
	_, err = s2.Overwrite(a2, 0, []byte("-"))
	require.NoError(t, err)
	_, err = s2.Overwrite(a2, s2.ComputedFileSize(), []byte("+"))
	require.NoError(t, err)
	require.Equal(t, saveToString(t, s), saveToString(t, s2))
}

func TestEmptyFileInsertScenario(t *testing.T) {
	f := tempFileWithContent(t, "")
	s, err := New(f)
	require.NoError(t, err)
	a := s.CreateAuthor("tester")

	_, err = s.Insert(a, 0, []byte("0"))
	require.NoError(t, err)
	require.Equal(t, int64(1), s.ComputedFileSize())
	require.Equal(t, "0", saveToString(t, s))
}

func TestViewportBitShiftScenario(t *testing.T) {
	const pattern = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	content := strings.Repeat(pattern, 1024/len(pattern)+1)[:1024]

	f := tempFileWithContent(t, content)
	s, err := New(f)
	require.NoError(t, err)
	a := s.CreateAuthor("tester")

	handle, err := s.CreateViewport(a, 0, 20, nil, nil, 0)
	require.NoError(t, err)
	v, ok := s.GetViewport(handle)
	require.True(t, ok)
	require.Equal(t, []byte(content[:20]), v.Data())

	require.NoError(t, s.UpdateViewport(handle, 0, 20, 7))
	shifted7 := append([]byte(nil), v.Data()...)

	require.NoError(t, s.UpdateViewport(handle, 0, 20, 0))
	require.NoError(t, s.UpdateViewport(handle, 0, 20, 7))
	require.Equal(t, shifted7, v.Data())
}

// TestUpdateViewportIdempotence exercises spec.md section 8's idempotence
// property: repeated identical UpdateViewport calls produce identical
// cached data and fire the callback exactly once per call.
func TestUpdateViewportIdempotence(t *testing.T) {
	f := tempFileWithContent(t, "the quick brown fox jumps")
	s, err := New(f)
	require.NoError(t, err)
	a := s.CreateAuthor("tester")

	var fired int
	handle, err := s.CreateViewport(a, 0, 9, func(v *viewport.Viewport, c *change.Change) {
		fired++
	}, nil, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.UpdateViewport(handle, 4, 9, 0))
	}
	require.Equal(t, 3, fired)

	v, _ := s.GetViewport(handle)
	require.Equal(t, []byte("quick brown"[:9]), v.Data())
}

func TestSaveRoundTripAfterFullUndoScenario(t *testing.T) {
	const original = "0123456789"
	f := tempFileWithContent(t, original)
	s, err := New(f)
	require.NoError(t, err)
	a := s.CreateAuthor("tester")

	_, err = s.Insert(a, 0, []byte("zzz"))
	require.NoError(t, err)
	_, err = s.Delete(a, 5, 2)
	require.NoError(t, err)
	_, err = s.Overwrite(a, 1, []byte("QQ"))
	require.NoError(t, err)

	for s.NumChanges() > 0 {
		_, err := s.Undo()
		require.NoError(t, err)
	}

	require.Equal(t, 0, s.NumChanges())
	require.Equal(t, int64(len(original)), s.ComputedFileSize())
	require.Equal(t, original, saveToString(t, s))
}

func TestReentrantEditRejected(t *testing.T) {
	f := tempFileWithContent(t, "hello")

	var s *Session
	var reentrantErr error
	var a *author.Author
	s, err := New(f, WithChangeCallback(func(sess *Session, c *change.Change) {
		_, reentrantErr = sess.Insert(a, 0, []byte("nested"))
	}))
	require.NoError(t, err)

	a = s.CreateAuthor("tester")
	_, err = s.Insert(a, 0, []byte("x"))
	require.NoError(t, err)
	require.Error(t, reentrantErr)
}
