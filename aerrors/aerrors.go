// Package aerrors defines the error vocabulary shared by every aura
// subsystem. It follows the shape of a yarpc-style error-codes package: a
// small closed set of codes, a concrete error type that carries one of them,
// and lookup helpers so callers can switch on the code instead of string
// matching.
package aerrors

import "fmt"

// Code identifies the kind of failure, matching the source's error kinds
// one for one.
type Code int

const (
	// Completed is not a failure; it is the success status delivered to a
	// call's completion callback.
	Completed Code = iota
	OOM
	InvalidID
	InvalidName
	FormatInvalid
	BufferOverrun
	NotOnline
	SyncInProgress
	TransportFail
	Timeout
)

func (c Code) String() string {
	switch c {
	case Completed:
		return "completed"
	case OOM:
		return "oom"
	case InvalidID:
		return "invalid-id"
	case InvalidName:
		return "invalid-name"
	case FormatInvalid:
		return "format-invalid"
	case BufferOverrun:
		return "buffer-overrun"
	case NotOnline:
		return "not-online"
	case SyncInProgress:
		return "sync-in-progress"
	case TransportFail:
		return "transport-fail"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// auraError is the concrete error type returned by New. It is unexported so
// callers are forced through CodeOf/Is rather than type-asserting directly,
// the same discipline yarpcerrors uses for its own error type.
type auraError struct {
	code Code
	msg  string
}

func (e *auraError) Error() string {
	if e.msg == "" {
		return e.code.String()
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

// New builds an error carrying code, formatted the same way fmt.Errorf does.
func New(code Code, format string, args ...interface{}) error {
	return &auraError{code: code, msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code carried by err. The boolean is true only when err
// is an aura error; for a nil err or an error of any other type it returns
// (Completed, false). Callers that need to distinguish "no error" from "some
// other error" should check err != nil themselves first.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return Completed, false
	}
	ae, ok := err.(*auraError)
	if !ok {
		return Completed, false
	}
	return ae.code, true
}

// Is reports whether err is an aura error carrying exactly code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
