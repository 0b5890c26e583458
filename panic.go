package aura

import (
	"fmt"
	"runtime/debug"
)

// Panic terminates the process after logging a stack dump, matching the
// source's BUG()/aura_panic discipline: structural invariant violations
// (buffer overrun, an unknown format token surviving into a call path that
// should already have rejected it, a transport breaking its own contract)
// are bugs, not user-facing errors, and are never returned to a caller.
func Panic(node *Node, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	var name string
	if node != nil && node.transport != nil {
		name = node.transport.Name
	}
	log().Errorw("aura: fatal invariant violation", "node", name, "msg", msg, "stack", string(debug.Stack()))
	panic(fmt.Sprintf("aura: BUG: %s", msg))
}
