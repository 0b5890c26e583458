package aura

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestExportTableIDsAreStableAndSequential(t *testing.T) {
	table := NewExportTable(4)
	a := table.Add("a", "3", "3")
	b := table.Add("b", "", "")
	c := table.Add("c", "s4.", "")

	assert.Equal(t, 0, a.ID)
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, 2, c.ID)

	assert.Same(t, a, table.FindByID(0))
	assert.Same(t, b, table.FindByID(1))
	assert.Same(t, c, table.FindByID(2))

	assert.Same(t, a, table.FindByName("a"))
	assert.Nil(t, table.FindByName("missing"))
}

func TestExportTableAddAfterActivatePanics(t *testing.T) {
	table := NewExportTable(1)
	table.Add("a", "", "")
	require.NoError(t, table.Activate())
	assert.Panics(t, func() { table.Add("b", "", "") })
}

func TestExportTableDuplicateNamePanics(t *testing.T) {
	table := NewExportTable(2)
	table.Add("dup", "", "")
	assert.Panics(t, func() { table.Add("dup", "", "") })
}

// TestExportTableActivateAggregatesEveryMalformedObject covers the
// multierr aggregation path: a table with several malformed format
// strings reports every one of them from a single Activate call, and
// well-formed objects in the same table still parse successfully.
func TestExportTableActivateAggregatesEveryMalformedObject(t *testing.T) {
	table := NewExportTable(4)
	good := table.Add("good", "3", "3")
	bad1 := table.Add("bad1", "z", "")
	bad2 := table.Add("bad2", "", "s4")

	err := table.Activate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	assert.True(t, good.Valid)
	assert.False(t, bad1.Valid)
	assert.False(t, bad2.Valid)
}
