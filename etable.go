package aura

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ExportTable is an ordered, name-indexed registry of Objects (spec §4.3).
// Built via NewExportTable/Add, then frozen by Activate, after which it is
// read-only and IDs are stable for its lifetime.
type ExportTable struct {
	objects  []*Object
	byName   map[string]int
	active   bool
	owner    *Node
}

// NewExportTable allocates an empty, mutable table with room for capacity
// objects (a hint only; Add still works past it).
func NewExportTable(capacity int) *ExportTable {
	return &ExportTable{
		objects: make([]*Object, 0, capacity),
		byName:  make(map[string]int, capacity),
	}
}

// Add appends an object, assigning id = current length. Panics if called
// on a table that has already been activated, or if name is a duplicate —
// both are programmer errors in table construction, not runtime
// conditions a caller recovers from.
func (t *ExportTable) Add(name, argFmt, retFmt string) *Object {
	if t.active {
		Panic(nil, "etable_add: table %p already activated", t)
	}
	if _, dup := t.byName[name]; dup {
		Panic(nil, "etable_add: duplicate object name %q", name)
	}
	o := &Object{
		ID:     len(t.objects),
		Name:   name,
		ArgFmt: argFmt,
		RetFmt: retFmt,
	}
	t.byName[name] = len(t.objects)
	t.objects = append(t.objects, o)
	return o
}

// Activate freezes t: parses every object's format strings and marks t
// immutable. It does not by itself install t on a node — use
// Node.ActivateTable for that, which also runs migration.
func (t *ExportTable) Activate() error {
	if t.active {
		return errors.New("aura: export table already activated")
	}
	var errs error
	for _, o := range t.objects {
		if err := o.parse(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	t.active = true
	return errs
}

// FindByName looks up an object by its durable key.
func (t *ExportTable) FindByName(name string) *Object {
	idx, ok := t.byName[name]
	if !ok {
		return nil
	}
	return t.objects[idx]
}

// FindByID looks up an object by its (table-local, not durable-across-
// tables) numeric id.
func (t *ExportTable) FindByID(id int) *Object {
	if id < 0 || id >= len(t.objects) {
		return nil
	}
	return t.objects[id]
}

// Len returns the number of objects in the table.
func (t *ExportTable) Len() int { return len(t.objects) }

// Objects returns the table's objects in id order. The caller must not
// mutate the returned slice.
func (t *ExportTable) Objects() []*Object { return t.objects }
