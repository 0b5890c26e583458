//go:build linux

package aura

import "golang.org/x/sys/unix"

// epollPoller is the Linux poll primitive, grounded the way
// behrlich/go-ublk drives its io_uring/epoll-adjacent descriptor work:
// a single kernel-backed multiplexer shared by every registered fd.
type epollPoller struct {
	fd     int
	events []unix.EpollEvent
}

func newPoller() (poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{fd: fd, events: make([]unix.EpollEvent, 64)}, nil
}

func (p *epollPoller) add(fd int, events uint32) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(fd),
	})
}

func (p *epollPoller) remove(fd int) error {
	// Linux requires a non-nil event pointer for EPOLL_CTL_DEL on
	// kernels older than 2.6.9; pass a zero value for portability.
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{})
}

func (p *epollPoller) wait(timeoutMillis int) ([]int, error) {
	n, err := unix.EpollWait(p.fd, p.events, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ready = append(ready, int(p.events[i].Fd))
	}
	return ready, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.fd)
}
