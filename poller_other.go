//go:build !linux

package aura

import (
	"errors"
	"time"
)

// timerOnlyPoller is the non-Linux fallback: no file-descriptor
// multiplexing support (no pack example targets kqueue/IOCP), so
// descriptor-driven transports are unavailable on these hosts; the loop
// still dispatches timers and HAVE_OUTBOUND/STARTED correctly. wait still
// sleeps out its timeout so DispatchForever doesn't busy-spin between
// timer fires. A negative timeout does not block: wait returns at once.
type timerOnlyPoller struct{}

func newPoller() (poller, error) { return &timerOnlyPoller{}, nil }

func (p *timerOnlyPoller) add(fd int, events uint32) error {
	return errors.New("aura: descriptor polling is not supported on this platform")
}

func (p *timerOnlyPoller) remove(fd int) error { return nil }

func (p *timerOnlyPoller) wait(timeoutMillis int) ([]int, error) {
	if timeoutMillis > 0 {
		time.Sleep(time.Duration(timeoutMillis) * time.Millisecond)
	}
	return nil, nil
}

func (p *timerOnlyPoller) close() error { return nil }
