package rtos

import "strconv"

// ═══════════════════════════════════════════════════════════════════════════
// ERROR TAXONOMY - stable integer codes
// ═══════════════════════════════════════════════════════════════════════════
//
// Every fallible kernel operation returns one of these as a plain Go
// error, never a panic; the kernel never aborts or resets the system.
// Codes are grouped into numeric ranges per primitive so a caller
// logging the raw integer can tell which subsystem raised it.

// Error is a kernel error code. Its zero value is not a valid error;
// callers compare against the named constants.
type Error int

const (
	// ErrNullPtr: a required handle or pointer argument was nil.
	ErrNullPtr Error = 100 + iota
	// ErrNoFree: the fixed-capacity pool has no free slot.
	ErrNoFree
)

const (
	// ErrInvalid: validity tag mismatch - handle is destroyed or was
	// never initialized.
	ErrInvalid Error = 200 + iota
)

const (
	// ErrTimeout: a bounded wait expired before the condition was met.
	ErrTimeout Error = 300 + iota
)

const (
	// ErrUnlocked: unlock called on a mutex that isn't locked.
	ErrUnlocked Error = 400 + iota
	// ErrPerm: unlock called by a task that isn't the current owner.
	ErrPerm
)

const (
	// ErrBlocking: destroy called while the primitive still has an
	// owner or an in-flight waiter.
	ErrBlocking Error = 500 + iota
)

func (e Error) Error() string {
	switch e {
	case ErrNullPtr:
		return "rtos: null pointer"
	case ErrNoFree:
		return "rtos: no free slot"
	case ErrInvalid:
		return "rtos: invalid handle"
	case ErrTimeout:
		return "rtos: timeout"
	case ErrUnlocked:
		return "rtos: not locked"
	case ErrPerm:
		return "rtos: not owner"
	case ErrBlocking:
		return "rtos: blocking (in use)"
	default:
		return "rtos: error " + strconv.Itoa(int(e))
	}
}
