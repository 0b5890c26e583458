// Package index is the plug-in index module called out in SPEC_FULL.md
// §9: rather than relying on constructor-registration (C's
// __attribute__((constructor)) order, which the source depended on), a
// host calls RegisterBuiltins() once at startup to install every
// in-tree reference transport explicitly.
package index

import (
	"github.com/Wedmer/aura/transports/dummy"
	"github.com/Wedmer/aura/transports/uartframe"
)

// RegisterBuiltins registers every reference transport shipped with this
// module. It is safe to call at most once per process; a second call
// returns the "already registered" error from the first transport it
// retries.
func RegisterBuiltins() error {
	if err := dummy.Register(); err != nil {
		return err
	}
	if err := uartframe.Register(); err != nil {
		return err
	}
	return nil
}
