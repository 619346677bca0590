// Package author holds the actors that issue changes against a session.
// An Author is created by name, lives for the session's lifetime, and is
// used only for attribution and per-author change counts (spec.md section 3).
package author

// Author is a named actor associated with one session.
type Author struct {
	name       string
	numChanges int64
}

// New creates an author with the given name. Authors are immortal for the
// life of the session that created them; there is no Close.
func New(name string) *Author {
	return &Author{name: name}
}

// Name returns the author's name.
func (a *Author) Name() string { return a.name }

// NumChanges returns the number of changes currently attributed to this
// author (undone changes are not counted, matching the session's own
// NumChanges bookkeeping).
func (a *Author) NumChanges() int64 { return a.numChanges }

// IncChanges attributes one more applied change to this author. Called by
// the change log on apply/redo.
func (a *Author) IncChanges() { a.numChanges++ }

// DecChanges removes one applied change from this author's count. Called by
// the change log on undo.
func (a *Author) DecChanges() { a.numChanges-- }

// Table is a session-scoped, by-name registry of authors.
type Table struct {
	byName map[string]*Author
	order  []*Author
}

// NewTable creates an empty author table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Author)}
}

// GetOrCreate returns the author with the given name, creating it on first
// use. The same name always resolves to the same *Author within a session.
func (t *Table) GetOrCreate(name string) *Author {
	if a, ok := t.byName[name]; ok {
		return a
	}
	a := New(name)
	t.byName[name] = a
	t.order = append(t.order, a)
	return a
}

// Get returns the author with the given name, if it has been created.
func (t *Table) Get(name string) (*Author, bool) {
	a, ok := t.byName[name]
	return a, ok
}

// Len returns the number of authors created on this table.
func (t *Table) Len() int { return len(t.order) }
