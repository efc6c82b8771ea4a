package rtos

// ═══════════════════════════════════════════════════════════════════════════
// TASK HANDLE
// ═══════════════════════════════════════════════════════════════════════════

// Task is an opaque, copyable handle to a task living in a Kernel's
// arena. Its accessor methods take the critical section for the
// duration of the read; direct field access is not part of the
// contract.
type Task struct {
	k   *Kernel
	idx taskIndex
}

// ID returns the task's creation-order identifier, stable for the
// task's lifetime.
func (t Task) ID() uint32 {
	tok := t.k.enterCritical()
	defer t.k.leaveCritical(tok)
	return t.k.taskAt(t.idx).id
}

// Name returns the task's bounded display name.
func (t Task) Name() string {
	tok := t.k.enterCritical()
	defer t.k.leaveCritical(tok)
	return t.k.taskAt(t.idx).name
}

// State returns the task's current lifecycle state.
func (t Task) State() TaskState {
	tok := t.k.enterCritical()
	defer t.k.leaveCritical(tok)
	return t.k.taskAt(t.idx).state
}

// Prio returns the task's current priority (0 = lowest).
func (t Task) Prio() uint8 {
	tok := t.k.enterCritical()
	defer t.k.leaveCritical(tok)
	return t.k.taskAt(t.idx).prio
}

// SwitchCount returns the number of times the scheduler has switched
// into this task. Backed by an atomic counter rather than the
// critical section, so diagnostics can sample it without perturbing
// kernel timing.
func (t Task) SwitchCount() uint64 {
	return t.k.taskAt(t.idx).switchCount.Load()
}

// TotalRunTicks returns the cumulative number of tick interrupts this
// task was the running task for.
func (t Task) TotalRunTicks() uint64 {
	return t.k.taskAt(t.idx).totalRunTicks.Load()
}

func (k *Kernel) handle(idx taskIndex) Task {
	return Task{k: k, idx: idx}
}
