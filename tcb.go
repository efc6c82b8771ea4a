package rtos

import "go.uber.org/atomic"

// ═══════════════════════════════════════════════════════════════════════════
// TASK CONTROL BLOCK
// ═══════════════════════════════════════════════════════════════════════════

// TaskState is a task's lifecycle state.
type TaskState int

const (
	TaskInvalid TaskState = iota
	TaskReady
	TaskRunning
	TaskBlocked
	TaskSleeping
)

func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "READY"
	case TaskRunning:
		return "RUNNING"
	case TaskBlocked:
		return "BLOCKED"
	case TaskSleeping:
		return "SLEEPING"
	default:
		return "INVALID"
	}
}

// task is one arena slot. Exported accessors on Task (the public
// handle, see task_handle.go) read these fields; the scheduler and
// sync primitives mutate them directly while holding the kernel's
// critical section.
type task struct {
	sp        StackPointer
	stackSize uint32

	prio     uint8
	prioMask uint32 // 1 << prio, cached

	waitTime uint32 // ticks remaining; WaitInfinite never expires

	id    uint32
	name  string
	state TaskState

	// diagnostic counters, read concurrently (without the critical
	// section) by rtshell via the Task handle; independent
	// monotonic tallies with no cross-field invariant, so lock-free
	// reads are safe
	switchCount   atomic.Uint64
	totalRunTicks atomic.Uint64

	// readyPendingOwner is the queue this task's primary link
	// currently belongs to: a priority's ready queue or a mutex's
	// pending list. nil means the task isn't linked into any of them
	// right now. An index-based arena has no per-queue sentinel node
	// to recover the owning list from, so the task carries an
	// explicit back-reference to unlink itself in O(1).
	readyPendingOwner *taskList
	// inWaitingList is true while the task has a finite pending
	// deadline registered in the kernel's global waiting list.
	inWaitingList bool

	// condOwner is non-nil while the task is linked onto a condvar's
	// waiting list, via the second, independent link array
	// (condLinks); a task blocked in a timed condvar wait occupies
	// that list and the global waiting list at the same time.
	condOwner *taskList
}

// boundedName truncates s to fit a name field of the given limit,
// reserving one slot the way a NUL-terminated copy would.
func boundedName(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) > limit-1 {
		return s[:limit-1]
	}
	return s
}
