package aura

import (
	"fmt"

	"github.com/Wedmer/aura/internal/format"
)

// CallStatus is delivered to a call's completion callback.
type CallStatus int

const (
	CallCompleted CallStatus = iota
	CallTimeout
	CallTransportFail
)

func (s CallStatus) String() string {
	switch s {
	case CallCompleted:
		return "completed"
	case CallTimeout:
		return "timeout"
	case CallTransportFail:
		return "transport-fail"
	default:
		return "unknown"
	}
}

// CallDoneFunc is the completion callback for a queued call, and also the
// signature used for dedicated event callbacks (spec §4.6).
type CallDoneFunc func(node *Node, status CallStatus, ret *Buffer, arg interface{})

// Object is a single named RPC callable: a method (has ArgFmt) or an event
// (ArgFmt is empty), matching struct aura_object.
type Object struct {
	ID      int
	Name    string
	ArgFmt  string
	RetFmt  string
	Valid   bool

	argFormat *format.Format
	retFormat *format.Format

	// Pending counts outstanding calls made against this object; used by
	// the OFFLINE-cancellation path to know which objects to fail.
	Pending int

	eventCB    CallDoneFunc
	eventCBArg interface{}

	// outbound is the per-object FIFO of calls awaiting their completion,
	// enforcing the submission-order completion guarantee (spec §4.6).
	outbound []*pendingCall
}

type pendingCall struct {
	doneCB CallDoneFunc
	arg    interface{}
	buf    *Buffer
}

// IsEvent reports whether o has no declared argument format.
func (o *Object) IsEvent() bool { return o.ArgFmt == "" }

// IsMethod reports whether o declares an argument format.
func (o *Object) IsMethod() bool { return o.ArgFmt != "" }

// ArgLen is the wire length in bytes of the argument format.
func (o *Object) ArgLen() int {
	if o.argFormat == nil {
		return 0
	}
	return o.argFormat.Len
}

// RetLen is the wire length in bytes of the return format.
func (o *Object) RetLen() int {
	if o.retFormat == nil {
		return 0
	}
	return o.retFormat.Len
}

// NumArgs is the argument field count.
func (o *Object) NumArgs() int {
	if o.argFormat == nil {
		return 0
	}
	return o.argFormat.NumArgs
}

// NumRets is the return field count.
func (o *Object) NumRets() int {
	if o.retFormat == nil {
		return 0
	}
	return o.retFormat.NumArgs
}

// ArgPretty/RetPretty are human-readable forms for diagnostics.
func (o *Object) ArgPretty() string {
	if o.argFormat == nil {
		return ""
	}
	return o.argFormat.Pretty
}

func (o *Object) RetPretty() string {
	if o.retFormat == nil {
		return ""
	}
	return o.retFormat.Pretty
}

// parse resolves the object's format strings, setting Valid=false on the
// first bad token — the source's "a malformed token sets the owning
// Object's valid=false" rule — and returning that error at once (a bad
// argument format leaves the return format unparsed). Activate collects
// these per-object errors so it can surface every malformed object in the
// table at once instead of one-at-a-time.
func (o *Object) parse() error {
	o.Valid = true
	if o.ArgFmt != "" {
		f, err := format.Parse(o.ArgFmt)
		if err != nil {
			o.Valid = false
			return fmt.Errorf("object %q: arg format: %w", o.Name, err)
		}
		o.argFormat = f
	}
	if o.RetFmt != "" {
		f, err := format.Parse(o.RetFmt)
		if err != nil {
			o.Valid = false
			return fmt.Errorf("object %q: ret format: %w", o.Name, err)
		}
		o.retFormat = f
	}
	return nil
}

// sameShape reports whether o and other agree on byte-length and arity
// for both argument and return formats — the test migration applies when
// deciding whether a caller reference to o can continue against other.
func (o *Object) sameShape(other *Object) bool {
	return o.ArgLen() == other.ArgLen() && o.NumArgs() == other.NumArgs() &&
		o.RetLen() == other.RetLen() && o.NumRets() == other.NumRets()
}
