//go:build !linux

package uartframe

import "errors"

// Name is the registry key this transport would install itself under.
const Name = "uartframe"

// Register reports that the frame transport is unavailable: it depends
// on epoll-based descriptor registration (see aura's poller_linux.go),
// which only poller_linux.go implements.
func Register() error {
	return errors.New("uartframe: not supported on this platform (requires epoll)")
}
