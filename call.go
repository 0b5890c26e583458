package aura

import (
	"github.com/Wedmer/aura/aerrors"
	"github.com/Wedmer/aura/internal/format"
)

// QueueCall attaches buf (already serialized) to the object identified by
// id, enqueues it on node's outbound queue, and wakes the transport with
// EventHaveOutbound. Matches aura_queue_call.
func QueueCall(node *Node, id int, doneCB CallDoneFunc, arg interface{}, buf *Buffer) error {
	if node.Status() != StatusOnline && !node.isOpening {
		return aerrors.New(aerrors.NotOnline, "node is not online")
	}
	if node.table == nil {
		return aerrors.New(aerrors.InvalidID, "node has no active export table")
	}
	obj := node.table.FindByID(id)
	if obj == nil {
		return aerrors.New(aerrors.InvalidID, "no object with id %d", id)
	}
	if !obj.Valid {
		return aerrors.New(aerrors.FormatInvalid, "object %q has an invalid format", obj.Name)
	}
	if obj.IsEvent() {
		Panic(node, "queue_call: object %q is an event, not a method", obj.Name)
	}

	buf.Object = obj
	obj.Pending++
	obj.outbound = append(obj.outbound, &pendingCall{doneCB: doneCB, arg: arg, buf: buf})

	wasEmpty := node.outbound.empty()
	node.outbound.pushBack(buf)
	if wasEmpty {
		node.dispatchToTransport(EventHaveOutbound, nil)
	}
	return nil
}

// StartCallRaw resolves id, serializes args per the object's declared
// argument format into a freshly requested buffer, and queues the call.
func StartCallRaw(node *Node, id int, doneCB CallDoneFunc, arg interface{}, args ...interface{}) error {
	if node.table == nil {
		return aerrors.New(aerrors.InvalidID, "node has no active export table")
	}
	obj := node.table.FindByID(id)
	if obj == nil {
		return aerrors.New(aerrors.InvalidID, "no object with id %d", id)
	}
	return startCallOn(node, obj, doneCB, arg, args...)
}

// StartCall resolves name to an object and serializes/queues the call.
func StartCall(node *Node, name string, doneCB CallDoneFunc, arg interface{}, args ...interface{}) error {
	if node.table == nil {
		return aerrors.New(aerrors.InvalidName, "node has no active export table")
	}
	obj := node.table.FindByName(name)
	if obj == nil {
		return aerrors.New(aerrors.InvalidName, "no object named %q", name)
	}
	return startCallOn(node, obj, doneCB, arg, args...)
}

func startCallOn(node *Node, obj *Object, doneCB CallDoneFunc, arg interface{}, args ...interface{}) error {
	if !obj.Valid {
		return aerrors.New(aerrors.FormatInvalid, "object %q has an invalid format", obj.Name)
	}
	buf := node.BufferRequest(obj.ArgLen())
	if err := serializeArgs(buf, obj.argFormat, args); err != nil {
		node.BufferRelease(buf)
		return err
	}
	return QueueCall(node, obj.ID, doneCB, arg, buf)
}

func serializeArgs(buf *Buffer, f *format.Format, args []interface{}) error {
	if f == nil {
		if len(args) != 0 {
			return aerrors.New(aerrors.FormatInvalid, "object takes no arguments, got %d", len(args))
		}
		return nil
	}
	if len(args) != len(f.Fields) {
		return aerrors.New(aerrors.FormatInvalid, "expected %d arguments, got %d", len(f.Fields), len(args))
	}
	for i, field := range f.Fields {
		if err := putField(buf, field, args[i]); err != nil {
			return err
		}
	}
	return nil
}

func putField(buf *Buffer, field format.Field, arg interface{}) error {
	switch field.Kind {
	case format.U8:
		v, ok := toUint64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for u8 argument, got %T", arg)
		}
		buf.PutU8(uint8(v))
	case format.I8:
		v, ok := toInt64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for i8 argument, got %T", arg)
		}
		buf.PutS8(int8(v))
	case format.U16:
		v, ok := toUint64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for u16 argument, got %T", arg)
		}
		buf.PutU16(uint16(v))
	case format.I16:
		v, ok := toInt64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for i16 argument, got %T", arg)
		}
		buf.PutS16(int16(v))
	case format.U32:
		v, ok := toUint64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for u32 argument, got %T", arg)
		}
		buf.PutU32(uint32(v))
	case format.I32:
		v, ok := toInt64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for i32 argument, got %T", arg)
		}
		buf.PutS32(int32(v))
	case format.U64:
		v, ok := toUint64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for u64 argument, got %T", arg)
		}
		buf.PutU64(v)
	case format.I64:
		v, ok := toInt64(arg)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected integer for i64 argument, got %T", arg)
		}
		buf.PutS64(v)
	case format.Bin:
		switch v := arg.(type) {
		case []byte:
			buf.PutBin(v, field.Len)
		case string:
			buf.PutBin([]byte(v), field.Len)
		default:
			return aerrors.New(aerrors.FormatInvalid, "expected []byte/string for binary argument, got %T", arg)
		}
	case format.Buf:
		nested, ok := arg.(*Buffer)
		if !ok {
			return aerrors.New(aerrors.FormatInvalid, "expected *Buffer for nested buffer argument, got %T", arg)
		}
		buf.PutBuf(nested)
	}
	return nil
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case int:
		return uint64(n), true
	case int32:
		return uint64(n), true
	case int64:
		return uint64(n), true
	}
	return 0, false
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

// SetEventCallbackRaw binds a dedicated callback to the event-class
// object identified by id.
func SetEventCallbackRaw(node *Node, id int, cb CallDoneFunc, arg interface{}) error {
	obj := node.table.FindByID(id)
	if obj == nil {
		return aerrors.New(aerrors.InvalidID, "no object with id %d", id)
	}
	obj.eventCB, obj.eventCBArg = cb, arg
	return nil
}

// SetEventCallback binds a dedicated callback to the event-class object
// named name.
func SetEventCallback(node *Node, name string, cb CallDoneFunc, arg interface{}) error {
	if node.table == nil {
		return aerrors.New(aerrors.InvalidName, "node has no active export table")
	}
	obj := node.table.FindByName(name)
	if obj == nil {
		return aerrors.New(aerrors.InvalidName, "no object named %q", name)
	}
	obj.eventCB, obj.eventCBArg = cb, arg
	return nil
}

// nodeWrite is the completion path: the transport delivers an inbound
// buffer here. If buf.Object is an event, it's dispatched to the
// dedicated or unhandled-event callback (or the sync event ring, see
// DESIGN.md). If it's a method, it's paired FIFO with the oldest pending
// call against that object (spec §4.6 ordering guarantee).
func (n *Node) nodeWrite(buf *Buffer) {
	obj := buf.Object
	if obj == nil {
		log().Warnw("aura: inbound buffer with no bound object, dropping")
		n.bufferRelease(buf)
		return
	}

	prev := n.currentObject
	n.currentObject = obj
	defer func() { n.currentObject = prev }()

	if obj.IsEvent() {
		n.dispatchEvent(obj, buf)
		return
	}

	if len(obj.outbound) == 0 {
		log().Warnw("aura: unmatched method completion, dropping", "object", obj.Name)
		n.bufferRelease(buf)
		return
	}
	pc := obj.outbound[0]
	obj.outbound = obj.outbound[1:]
	obj.Pending--
	n.completeCall(obj, pc, CallCompleted, buf)
}

func (n *Node) completeCall(obj *Object, pc *pendingCall, status CallStatus, ret *Buffer) {
	if pc.doneCB != nil {
		pc.doneCB(n, status, ret, pc.arg)
	} else if ret != nil {
		n.bufferRelease(ret)
	}
}

func (n *Node) dispatchEvent(obj *Object, buf *Buffer) {
	switch {
	case obj.eventCB != nil:
		obj.eventCB(n, CallCompleted, buf, obj.eventCBArg)
	case n.unhandledEvtCB != nil:
		n.unhandledEvtCB(n, buf, n.unhandledEvtArg)
	case n.syncEventMax > 0:
		n.pushSyncEvent(obj, buf)
	default:
		log().Debugw("aura: event dropped, no handler", "object", obj.Name)
		n.bufferRelease(buf)
	}
}

// dispatchToTransport invokes the transport's HandleEvent, guarding
// against a nil HandleEvent (a contract violation caught at registration
// time in practice, but checked here too since tests construct Transport
// values directly).
func (n *Node) dispatchToTransport(ev Event, fd *PollFD) {
	if n.transport == nil || n.transport.HandleEvent == nil {
		Panic(n, "dispatchToTransport: node has no transport bound")
	}
	n.transport.HandleEvent(n, ev, fd)
}

// drainInbound moves every buffer the transport has queued since the last
// drain through nodeWrite, in FIFO order.
func (n *Node) drainInbound() {
	for {
		buf := n.inbound.popFront()
		if buf == nil {
			return
		}
		n.nodeWrite(buf)
	}
}

// QueueInbound is how a transport's HandleEvent hands a received buffer
// back to the core.
func (n *Node) QueueInbound(buf *Buffer) { n.inbound.pushBack(buf) }

// DequeueOutbound is how a transport's HandleEvent pulls the next buffer
// to put on the wire.
func (n *Node) DequeueOutbound() *Buffer { return n.outbound.popFront() }

// OutboundLen reports how many buffers are waiting to be sent, so a
// transport can decide whether it still owes a drain.
func (n *Node) OutboundLen() int { return n.outbound.len() }
