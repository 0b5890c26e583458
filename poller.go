package aura

// poller is the abstract polling primitive an EventLoop drives (spec
// §3 "Poll Descriptor" / §4.8). Platform-specific implementations live in
// poller_linux.go (epoll, via golang.org/x/sys/unix) and poller_other.go
// (a timer-only fallback for non-Linux hosts).
type poller interface {
	add(fd int, events uint32) error
	remove(fd int) error
	// wait blocks up to timeoutMillis (0 = return immediately, -1 =
	// block indefinitely) and returns the fds that became ready.
	wait(timeoutMillis int) ([]int, error)
	close() error
}
