package aura

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActivateTableMigratesSameShapeObjects covers spec property #4 /
// scenario S5: an object with a pending call migrates onto the
// same-named, same-shape object in a newly activated table instead of
// being stranded.
func TestActivateTableMigratesSameShapeObjects(t *testing.T) {
	n := newTestNode()

	oldTable := NewExportTable(1)
	oldEcho := oldTable.Add("echo", "3", "3")
	require.NoError(t, n.ActivateTable(oldTable))

	pc := &pendingCall{}
	oldEcho.Pending = 1
	oldEcho.outbound = append(oldEcho.outbound, pc)

	newTable := NewExportTable(1)
	newEcho := newTable.Add("echo", "3", "3")
	require.NoError(t, n.ActivateTable(newTable))

	assert.Equal(t, 1, newEcho.Pending)
	require.Len(t, newEcho.outbound, 1)
	assert.Same(t, pc, newEcho.outbound[0])
}

// TestActivateTableStrandsShapeMismatch covers the migration-failure
// branch: an old object whose new-table counterpart disagrees on wire
// shape is reported via ObjectMigrationFailedCB instead of silently
// carrying its pending calls forward.
func TestActivateTableStrandsShapeMismatch(t *testing.T) {
	n := newTestNode()

	oldTable := NewExportTable(1)
	oldEcho := oldTable.Add("echo", "3", "3")
	require.NoError(t, n.ActivateTable(oldTable))
	oldEcho.Pending = 1
	oldEcho.outbound = append(oldEcho.outbound, &pendingCall{})

	var strandedName string
	n.ObjectMigrationFailedCB(func(node *Node, failed *Object, arg interface{}) {
		strandedName = failed.Name
	}, nil)

	newTable := NewExportTable(1)
	newTable.Add("echo", "3", "") // different ret shape
	require.NoError(t, n.ActivateTable(newTable))

	assert.Equal(t, "echo", strandedName)
}

// TestActivateTableStrandsZeroPendingObject covers spec scenario S5
// directly: installing a table that drops an object with no pending
// calls still fires ObjectMigrationFailedCB exactly once for it — the
// callback does not gate on Pending > 0.
func TestActivateTableStrandsZeroPendingObject(t *testing.T) {
	n := newTestNode()

	oldTable := NewExportTable(2)
	oldTable.Add("a", "3", "3")
	oldTable.Add("b", "3", "3") // no pending calls against b

	require.NoError(t, n.ActivateTable(oldTable))

	var stranded []string
	n.ObjectMigrationFailedCB(func(node *Node, failed *Object, arg interface{}) {
		stranded = append(stranded, failed.Name)
	}, nil)

	newTable := NewExportTable(1)
	newTable.Add("a", "3", "3") // b is dropped
	require.NoError(t, n.ActivateTable(newTable))

	assert.Equal(t, []string{"b"}, stranded)
}

func TestActivateTableFiresEtableChangedCB(t *testing.T) {
	n := newTestNode()
	var gotOld, gotNew *ExportTable
	n.EtableChangedCB(func(node *Node, old, newTable *ExportTable, arg interface{}) {
		gotOld, gotNew = old, newTable
	}, nil)

	table1 := NewExportTable(1)
	table1.Add("a", "", "")
	require.NoError(t, n.ActivateTable(table1))
	assert.Nil(t, gotOld)
	assert.Same(t, table1, gotNew)

	table2 := NewExportTable(1)
	table2.Add("a", "", "")
	require.NoError(t, n.ActivateTable(table2))
	assert.Same(t, table1, gotOld)
	assert.Same(t, table2, gotNew)
}
