// Package change implements the append-only change log with undo/redo
// described in spec.md section 4.1. A Change is an immutable record of one
// edit, save for its serial's sign, which the log flips between positive
// (applied/redone) and negative (undone) so observers can tell forward from
// reverse application without a separate flag.
package change

import "github.com/scholarsmate/omega-edit/internal/author"

// Kind identifies the operation a Change represents.
type Kind int

const (
	Insert Kind = iota
	Overwrite
	Delete
)

// Byte returns the single-character code used by the original library's
// get_change_kind_as_char (I/O/D), handy for compact diagnostics.
func (k Kind) Byte() byte {
	switch k {
	case Insert:
		return 'I'
	case Overwrite:
		return 'O'
	case Delete:
		return 'D'
	default:
		return '?'
	}
}

func (k Kind) String() string {
	switch k {
	case Insert:
		return "INSERT"
	case Overwrite:
		return "OVERWRITE"
	case Delete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is an immutable record of one edit applied at a specific offset in
// the virtual file at the moment it was applied. Only the sign of serial
// ever changes after construction (see Log.UndoLast / Log.RedoLast).
type Change struct {
	serial int64
	kind   Kind
	offset int64
	length int64
	bytes  []byte
	author *author.Author
}

// Serial is a positive, monotonically increasing identifier within a
// session while applied, or its negation while sitting on the undone stack.
func (c *Change) Serial() int64 { return c.serial }

// Kind returns the change's operation.
func (c *Change) Kind() Kind { return c.kind }

// Offset is the 0-based byte position in the virtual file at the moment the
// change was applied. Later changes are never retrofitted onto this value.
func (c *Change) Offset() int64 { return c.offset }

// Length is the payload length for INSERT/OVERWRITE, or the number of bytes
// removed for DELETE.
func (c *Change) Length() int64 { return c.length }

// Bytes is the change's payload; empty for DELETE.
func (c *Change) Bytes() []byte { return c.bytes }

// Author is the actor that issued this change.
func (c *Change) Author() *author.Author { return c.author }

func (c *Change) negateSerial() {
	if c.serial > 0 {
		c.serial = -c.serial
	}
}

func (c *Change) restoreSerial() {
	if c.serial < 0 {
		c.serial = -c.serial
	}
}
