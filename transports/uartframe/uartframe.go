//go:build linux

// Package uartframe is a reference transport wrapping any io.ReadWriter
// (a real UART, a net.Conn, an os.Pipe half used in tests) with a
// 4-byte length-prefixed frame carrying a 1-byte object id ahead of the
// payload. It is grounded on the source's transport-uart.c, generalized
// from a hardcoded TCP loopback dial into any byte stream, and uses the
// self-pipe wake-up pattern spec.md §5 calls out for cross-thread
// notification instead of blocking the event loop on a read.
//
// Descriptor registration needs epoll (see aura's poller_linux.go), so
// this transport is Linux-only; see uartframe_other.go for the stub that
// keeps it buildable elsewhere.
package uartframe

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/Wedmer/aura"
	"golang.org/x/sys/unix"
)

// Name is the registry key this transport installs itself under.
const Name = "uartframe"

const headerLen = 5 // 4-byte big-endian length + 1-byte object id

// Register installs the transport into the process-wide registry. Open
// treats opts as a "host:port" TCP dial target, matching the source's
// hardcoded connect(); use Attach directly to wrap an arbitrary
// io.ReadWriter (e.g. in tests).
func Register() error {
	return aura.RegisterTransport(&aura.Transport{
		Name:        Name,
		Open:        open,
		Close:       closeNode,
		HandleEvent: handleEvent,
	})
}

type frame struct {
	objectID int
	payload  []byte
}

type connState struct {
	rw     io.ReadWriter
	closer io.Closer

	wakeR *os.File
	wakeW *os.File

	mu      sync.Mutex
	pending []frame
	readErr error
}

func open(node *aura.Node, opts string) error {
	conn, err := net.Dial("tcp", opts)
	if err != nil {
		return fmt.Errorf("uartframe: dial %q: %w", opts, err)
	}
	return Attach(node, conn)
}

// Attach wires rw (optionally also an io.Closer) into node as its
// transport state and starts a background reader goroutine that decodes
// frames and wakes the event loop via a self-pipe descriptor. Exported so
// tests and non-dial-based hosts (DSP shared memory, a raw UART fd) can
// bypass the "opts is a dial string" assumption baked into Open.
func Attach(node *aura.Node, rw io.ReadWriter) error {
	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("uartframe: creating wake pipe: %w", err)
	}
	st := &connState{rw: rw}
	if c, ok := rw.(io.Closer); ok {
		st.closer = c
	}
	st.wakeR, st.wakeW = r, w

	node.SetTransportState(st)
	node.AddPollFD(int(r.Fd()), unix.EPOLLIN)

	go st.readLoop()

	node.SetStatus(aura.StatusOnline)
	return nil
}

func closeNode(node *aura.Node) {
	st, _ := node.TransportState().(*connState)
	if st == nil {
		return
	}
	if st.closer != nil {
		st.closer.Close()
	}
	st.wakeW.Close()
	st.wakeR.Close()
	node.SetStatus(aura.StatusOffline)
}

func (st *connState) readLoop() {
	header := make([]byte, headerLen)
	for {
		if _, err := io.ReadFull(st.rw, header); err != nil {
			st.mu.Lock()
			st.readErr = err
			st.mu.Unlock()
			st.wake()
			return
		}
		length := binary.BigEndian.Uint32(header[:4])
		id := int(header[4])
		payload := make([]byte, length)
		if _, err := io.ReadFull(st.rw, payload); err != nil {
			st.mu.Lock()
			st.readErr = err
			st.mu.Unlock()
			st.wake()
			return
		}
		st.mu.Lock()
		st.pending = append(st.pending, frame{objectID: id, payload: payload})
		st.mu.Unlock()
		st.wake()
	}
}

func (st *connState) wake() {
	_, _ = st.wakeW.Write([]byte{0})
}

func (st *connState) takePending() []frame {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.pending
	st.pending = nil
	return out
}

func handleEvent(node *aura.Node, event aura.Event, fd *aura.PollFD) {
	st, _ := node.TransportState().(*connState)
	if st == nil {
		return
	}

	if event == aura.EventDescriptor {
		drain := make([]byte, 64)
		_, _ = st.wakeR.Read(drain)
	}

	if event == aura.EventHaveOutbound || event == aura.EventDescriptor {
		for {
			buf := node.DequeueOutbound()
			if buf == nil {
				break
			}
			obj := buf.Object
			payload := buf.Payload()
			header := make([]byte, headerLen)
			binary.BigEndian.PutUint32(header[:4], uint32(len(payload)))
			header[4] = byte(obj.ID)
			if _, err := st.rw.Write(append(header, payload...)); err != nil {
				node.BufferRelease(buf)
				node.SetStatus(aura.StatusOffline)
				return
			}
			node.BufferRelease(buf)
		}
	}

	for _, fr := range st.takePending() {
		obj := node.Table().FindByID(fr.objectID)
		if obj == nil {
			continue
		}
		reply := node.BufferRequest(len(fr.payload))
		reply.Object = obj
		copy(reply.Bytes()[reply.Offset:reply.Offset+len(fr.payload)], fr.payload)
		reply.PayloadSize = len(fr.payload)
		node.QueueInbound(reply)
	}

	st.mu.Lock()
	err := st.readErr
	st.mu.Unlock()
	if err != nil {
		node.SetStatus(aura.StatusOffline)
	}
}
