// Package intern assigns dense uint32 handles to strings on first sight.
package intern

// Table is a string interner. It is populated by a single goroutine during
// load and is read-only afterwards; no locking is provided.
type Table struct {
	names []string
	ids   map[string]uint32
}

// NewTable returns an empty interner.
func NewTable() *Table {
	return &Table{ids: make(map[string]uint32)}
}

// Intern returns the handle for name, assigning the next handle on first
// sight.
func (t *Table) Intern(name string) uint32 {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := uint32(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = id
	return id
}

// Lookup returns the handle for name without interning it.
func (t *Table) Lookup(name string) (uint32, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name resolves a handle back to its string.
func (t *Table) Name(id uint32) string {
	return t.names[id]
}

// Len reports how many strings have been interned.
func (t *Table) Len() int {
	return len(t.names)
}
