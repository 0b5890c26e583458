package aura

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Status is a node's connection state (spec §3/§4.4).
type Status int

const (
	StatusOffline Status = iota
	StatusOnline
)

func (s Status) String() string {
	if s == StatusOnline {
		return "online"
	}
	return "offline"
}

// StatusChangedFunc is invoked whenever a node's status changes.
type StatusChangedFunc func(node *Node, newStatus Status, arg interface{})

// EtableChangedFunc is invoked after a new export table is installed.
type EtableChangedFunc func(node *Node, old, newTable *ExportTable, arg interface{})

// ObjectMigrationFailedFunc is invoked once per object stranded by a table
// activation that could not resolve it in the new table.
type ObjectMigrationFailedFunc func(node *Node, failed *Object, arg interface{})

// UnhandledEventFunc receives events with no dedicated callback bound.
type UnhandledEventFunc func(node *Node, ret *Buffer, arg interface{})

// FDChangedFunc notifies an event loop that a node added or removed a
// poll descriptor.
type FDChangedFunc func(fd *PollFD, action FDAction, arg interface{})

// Node is a single RPC endpoint: one remote peer reached through one
// transport instance. Matches struct aura_node.
type Node struct {
	transport      *Transport
	transportState interface{}

	table *ExportTable

	status atomic.Int32

	outbound queue
	inbound  queue
	pool     *pool

	needsSwap  bool
	peerEndian Endian

	pollfds []*PollFD

	loop                *EventLoop
	loopIsAutocreated   bool
	timers              []*Timer

	syncRetBuf      *Buffer
	syncCallResult  CallStatus
	syncCallRunning bool

	waitingForStatus bool
	desiredStatus    Status

	isOpening      bool
	startEventSent bool

	syncEvents    []syncEvent
	syncEventMax  int

	statusChangedCB    StatusChangedFunc
	statusChangedArg   interface{}
	etableChangedCB    EtableChangedFunc
	etableChangedArg   interface{}
	objectMigrationCB  ObjectMigrationFailedFunc
	objectMigrationArg interface{}
	unhandledEvtCB     UnhandledEventFunc
	unhandledEvtArg    interface{}
	fdChangedCB        FDChangedFunc
	fdChangedArg       interface{}

	currentObject *Object
}

type syncEvent struct {
	object *Object
	buf    *Buffer
}

// queue is an owned FIFO of buffer handles (design note: no intrusive
// lists — the node keeps handles, not back-pointers into a shared list).
type queue struct {
	items []*Buffer
}

func (q *queue) pushBack(b *Buffer)  { q.items = append(q.items, b) }
func (q *queue) empty() bool         { return len(q.items) == 0 }
func (q *queue) len() int            { return len(q.items) }
func (q *queue) popFront() *Buffer {
	if len(q.items) == 0 {
		return nil
	}
	b := q.items[0]
	q.items = q.items[1:]
	return b
}
func (q *queue) drain() []*Buffer {
	out := q.items
	q.items = nil
	return out
}

// Open resolves transportName in the process-wide registry, constructs a
// Node bound to it, and invokes the transport's Open. Matches aura_open.
func Open(transportName, opts string) (*Node, error) {
	tr, err := LookupTransport(transportName)
	if err != nil {
		return nil, err
	}
	n := &Node{
		transport: tr,
		pool:      newPool(),
	}
	n.status.Store(int32(StatusOffline))
	n.peerEndian = HostEndianness()
	n.needsSwap = false

	n.isOpening = true
	err = tr.Open(n, opts)
	n.isOpening = false
	if err != nil {
		return nil, errors.Wrapf(err, "aura: transport %q failed to open", transportName)
	}
	log().Infow("aura: node opened", "transport", transportName)
	return n, nil
}

// SetNodeEndian declares the peer's byte order; needs_swap is derived by
// comparing against the host's.
func (n *Node) SetNodeEndian(e Endian) {
	n.peerEndian = e
	n.needsSwap = e != HostEndianness()
}

// Transport returns the node's transport plug-in.
func (n *Node) Transport() *Transport { return n.transport }

// SetTransportState stores the transport's private per-node state. Only
// the owning transport should call this or TransportState.
func (n *Node) SetTransportState(v interface{}) { n.transportState = v }

// TransportState retrieves the transport's private per-node state.
func (n *Node) TransportState() interface{} { return n.transportState }

// Status returns the node's current connection status.
func (n *Node) Status() Status { return Status(n.status.Load()) }

// CurrentObject returns the object currently being dispatched, valid only
// during a callback invoked from within that dispatch.
func (n *Node) CurrentObject() *Object { return n.currentObject }

// BufferRequest allocates (or reuses from the pool) a buffer of size
// payload bytes for this node.
func (n *Node) BufferRequest(size int) *Buffer { return n.bufferRequest(size) }

// BufferRelease returns buf to this node's pool (or frees it past the GC
// threshold).
func (n *Node) BufferRelease(buf *Buffer) { n.bufferRelease(buf) }

// SetStatus transitions the node's status; only a transport should call
// this. ONLINE->OFFLINE fails every pending outbound buffer and every
// object with Pending > 0 with TRANSPORT-FAIL exactly once (spec §4.4).
func (n *Node) SetStatus(newStatus Status) {
	old := Status(n.status.Swap(int32(newStatus)))
	if old == newStatus {
		return
	}
	log().Infow("aura: node status changed", "from", old, "to", newStatus)

	if old == StatusOnline && newStatus == StatusOffline {
		n.failAllPending(CallTransportFail)
	}

	if n.statusChangedCB != nil {
		n.statusChangedCB(n, newStatus, n.statusChangedArg)
	}

	if newStatus == StatusOnline {
		n.waitingForStatus = false
	} else if n.waitingForStatus && n.desiredStatus == newStatus {
		n.waitingForStatus = false
	}
}

// failAllPending fails every buffer waiting in the outbound queue and
// decrements every object's pending count to zero, invoking each call's
// completion callback with status exactly once.
func (n *Node) failAllPending(status CallStatus) {
	for _, buf := range n.outbound.drain() {
		obj := buf.Object
		n.bufferRelease(buf)
		if obj == nil {
			continue
		}
		n.failOnePending(obj, status)
	}
	// Any object with calls already handed to the transport (no longer in
	// our outbound queue, but still awaiting a reply) must also be
	// failed — walk every object's per-object pending FIFO.
	if n.table != nil {
		for _, obj := range n.table.Objects() {
			for obj.Pending > 0 {
				n.failOnePending(obj, status)
			}
		}
	}
}

func (n *Node) failOnePending(obj *Object, status CallStatus) {
	if len(obj.outbound) == 0 {
		obj.Pending = 0
		return
	}
	pc := obj.outbound[0]
	obj.outbound = obj.outbound[1:]
	obj.Pending--
	n.completeCall(obj, pc, status, nil)
}

// Close drains the outbound queue with TRANSPORT-FAIL completions,
// invokes the transport's Close, and releases node resources. Matches
// aura_close.
func (n *Node) Close() {
	n.failAllPending(CallTransportFail)
	if n.loop != nil {
		n.loop.Del(n)
	}
	if n.transport != nil && n.transport.Close != nil {
		n.transport.Close(n)
	}
	n.status.Store(int32(StatusOffline))
	log().Infow("aura: node closed")
}

// --- callback registration ---

func (n *Node) StatusChangedCB(cb StatusChangedFunc, arg interface{}) {
	n.statusChangedCB, n.statusChangedArg = cb, arg
}

func (n *Node) EtableChangedCB(cb EtableChangedFunc, arg interface{}) {
	n.etableChangedCB, n.etableChangedArg = cb, arg
}

func (n *Node) ObjectMigrationFailedCB(cb ObjectMigrationFailedFunc, arg interface{}) {
	n.objectMigrationCB, n.objectMigrationArg = cb, arg
}

func (n *Node) UnhandledEvtCB(cb UnhandledEventFunc, arg interface{}) {
	n.unhandledEvtCB, n.unhandledEvtArg = cb, arg
}

func (n *Node) FDChangedCB(cb FDChangedFunc, arg interface{}) {
	n.fdChangedCB, n.fdChangedArg = cb, arg
}

// --- export table activation & migration ---

// ActivateTable freezes table, installs it as n's active table, and
// migrates any previously active table's objects into it by name (spec
// §4.3). For every object in the previous table: if an object of the same
// name exists in the new table and agrees on byte-length and arity, any
// pending calls against the old object are re-homed onto the new one
// (their completions still fire against the right wire shape); otherwise
// ObjectMigrationFailedCB fires once with the stranded object.
func (n *Node) ActivateTable(table *ExportTable) error {
	if err := table.Activate(); err != nil {
		return err
	}
	old := n.table
	n.table = table
	table.owner = n

	if old != nil {
		for _, oldObj := range old.Objects() {
			newObj := table.FindByName(oldObj.Name)
			if newObj != nil && oldObj.sameShape(newObj) {
				newObj.Pending += oldObj.Pending
				newObj.outbound = append(newObj.outbound, oldObj.outbound...)
				continue
			}
			if n.objectMigrationCB != nil {
				n.objectMigrationCB(n, oldObj, n.objectMigrationArg)
			} else {
				log().Warnw("aura: object migration failed with no handler", "object", oldObj.Name)
			}
		}
	}

	if n.etableChangedCB != nil {
		n.etableChangedCB(n, old, table, n.etableChangedArg)
	}
	return nil
}

// Table returns the node's currently active export table, or nil.
func (n *Node) Table() *ExportTable { return n.table }

// --- poll descriptor management ---

// AddPollFD registers fd for events under this node, registering it with
// the bound event loop (if any) and notifying the fd-changed callback (if
// any).
func (n *Node) AddPollFD(fd int, events uint32) *PollFD {
	pf := &PollFD{Node: n, FD: fd, Events: events}
	n.pollfds = append(n.pollfds, pf)
	if n.loop != nil {
		n.loop.registerFD(n, pf)
	}
	if n.fdChangedCB != nil {
		n.fdChangedCB(pf, FDAdded, n.fdChangedArg)
	}
	return pf
}

// DelPollFD removes a previously registered descriptor.
func (n *Node) DelPollFD(fd int) {
	for i, pf := range n.pollfds {
		if pf.FD == fd {
			n.pollfds = append(n.pollfds[:i], n.pollfds[i+1:]...)
			if n.fdChangedCB != nil {
				n.fdChangedCB(pf, FDRemoved, n.fdChangedArg)
			}
			return
		}
	}
}

// PollFDs returns the node's currently registered descriptors.
func (n *Node) PollFDs() []*PollFD { return n.pollfds }
