package aura

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Event is the reason handle_event was invoked for a node, per spec §4.5.
type Event int

const (
	// EventStarted fires exactly once per node, before any other event.
	EventStarted Event = iota
	// EventHaveOutbound fires when the outbound queue transitions from
	// empty to non-empty, and the event loop sends it again on every pass
	// while the queue is still non-empty; repeat notifications are not
	// suppressed.
	EventHaveOutbound
	// EventDescriptor fires when a registered descriptor reports readiness.
	EventDescriptor
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventHaveOutbound:
		return "have-outbound"
	case EventDescriptor:
		return "descriptor"
	default:
		return "unknown"
	}
}

// FDAction distinguishes add/remove notifications delivered to a node's
// fd-changed callback and, through it, to the owning event loop.
type FDAction int

const (
	FDAdded FDAction = iota
	FDRemoved
)

// PollFD is a node-scoped descriptor registration: (node, fd, event mask,
// transport-private cookie), matching struct aura_pollfds.
type PollFD struct {
	Node   *Node
	FD     int
	Events uint32

	// Cookie is transport-private event-system data; the core never
	// inspects it.
	Cookie interface{}
}

// BufferAllocator lets a transport supply its own memory for buffers, e.g.
// DSP shared memory reachable without a copy.
type BufferAllocator interface {
	Alloc(size int) []byte
	Free(buf []byte)
}

// Transport is the contract a plug-in must satisfy (spec §4.5). All
// function fields except BufferPut/BufferGet are required; a transport
// that leaves Open, Close, or HandleEvent nil fails registration.
type Transport struct {
	// Name identifies the transport, e.g. "usb", "uart", "dummy".
	Name string

	// BufferOverhead is additional bytes reserved per buffer for framing.
	BufferOverhead int
	// BufferOffset is where the serialized payload begins within a buffer.
	// Registration fails unless BufferOverhead >= BufferOffset.
	BufferOffset int

	// Allocator is carried with the transport declaration. The core does
	// not call it: buffer memory is always allocated with make and freed
	// by the garbage collector.
	Allocator BufferAllocator

	// Open validates opts and attaches transport state to node. It must
	// not block.
	Open func(node *Node, opts string) error
	// Close releases transport resources for node. It may block.
	Close func(node *Node)
	// HandleEvent drains node's outbound queue to the wire and pushes
	// newly received buffers onto node's inbound queue. fd is non-nil
	// only for EventDescriptor.
	HandleEvent func(node *Node, event Event, fd *PollFD)

	// BufferPut/BufferGet are optional: transports that pass buffers by
	// reference (e.g. DSP shared memory) implement both or neither.
	BufferPut func(dst, buf *Buffer)
	BufferGet func(buf *Buffer) *Buffer
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Transport{}
)

// RegisterTransport installs tr into the process-wide transport registry.
// It is intended to run once at program start, from a plug-in index
// module (spec §9) rather than from package-level constructors. Re-
// registering a name already present, or violating the buffer-overhead
// invariant, is refused.
func RegisterTransport(tr *Transport) error {
	if tr == nil || tr.Name == "" {
		return errors.New("aura: transport must have a non-empty name")
	}
	if tr.Open == nil || tr.Close == nil || tr.HandleEvent == nil {
		return errors.Errorf("aura: transport %q missing a required operation", tr.Name)
	}
	if tr.BufferOverhead < tr.BufferOffset {
		return errors.Errorf("aura: transport %q: buffer_overhead (%d) < buffer_offset (%d)",
			tr.Name, tr.BufferOverhead, tr.BufferOffset)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[tr.Name]; exists {
		return errors.Errorf("aura: transport %q already registered", tr.Name)
	}
	registry[tr.Name] = tr
	log().Debugw("aura: transport registered", "name", tr.Name)
	return nil
}

// LookupTransport finds a registered transport by name.
func LookupTransport(name string) (*Transport, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	tr, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("aura: no transport registered under name %q", name)
	}
	return tr, nil
}

// resetRegistryForTest clears the registry. Test-only; production code
// never calls this since the registry is meant to be write-once.
func resetRegistryForTest() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]*Transport{}
}
