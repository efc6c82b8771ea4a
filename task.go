package rtos

// ═══════════════════════════════════════════════════════════════════════════
// TASK LIFECYCLE
// ═══════════════════════════════════════════════════════════════════════════

// TaskAttr configures a new task at creation time.
type TaskAttr struct {
	Name      string
	Prio      uint8
	StackSize uint32
}

// Create allocates a TCB, initialises its stack frame so the first
// switch-in begins executing proc(arg), links it into its priority's
// ready queue and the all-tasks list, and triggers a reschedule if
// the kernel is already running. It fails if the task arena is
// exhausted, the priority is out of range, or it is called from ISR
// context.
func (k *Kernel) Create(proc TaskProc, arg any, attr TaskAttr) (Task, error) {
	tok := k.enterCritical()
	if k.intrLevel != 0 {
		k.leaveCritical(tok)
		return Task{}, ErrInvalid
	}
	if int(attr.Prio) >= len(k.readyLists) {
		k.leaveCritical(tok)
		return Task{}, ErrInvalid
	}
	idx, err := k.newTask(proc, arg, attr)
	if err != nil {
		k.leaveCritical(tok)
		return Task{}, err
	}
	k.linkReady(idx)
	k.allList.pushTail(k.allLinks, idx)
	k.taskCount++

	h := k.handle(idx)
	running := k.running
	k.leaveCritical(tok)

	if k.hooks.TaskCreated != nil {
		k.hooks.TaskCreated(&h)
	}
	if running {
		k.Schedule()
	}
	return h, nil
}

// newTask must be called with the critical section held. The entry
// point handed to the Arch backend wraps proc so that a task whose
// proc returns is reaped instead of silently abandoning its slot.
func (k *Kernel) newTask(proc TaskProc, arg any, attr TaskAttr) (taskIndex, error) {
	if len(k.freeTasks) == 0 {
		return nilIndex, ErrNoFree
	}
	n := len(k.freeTasks)
	slot := k.freeTasks[n-1]
	k.freeTasks = k.freeTasks[:n-1]
	k.taskUsed[slot] = true

	stackSize := attr.StackSize
	if stackSize == 0 {
		stackSize = k.cfg.IdleStackSize
	}
	entry := func(a any) {
		proc(a)
		k.exitCurrent()
	}
	k.nextID++
	t := k.taskAt(taskIndex(slot))
	*t = task{
		sp:        k.arch.StackFrameInit(entry, arg, stackSize),
		stackSize: stackSize,
		prio:      attr.Prio,
		prioMask:  1 << attr.Prio,
		waitTime:  WaitInfinite,
		id:        k.nextID,
		name:      boundedName(attr.Name, k.cfg.NameLenMax),
		state:     TaskInvalid,
	}
	return taskIndex(slot), nil
}

// reapLocked unlinks idx from every list it belongs to and returns
// its slot to the arena. Caller holds the critical section.
func (k *Kernel) reapLocked(idx taskIndex) {
	k.unlinkFromOwner(idx)
	k.unlinkCondWait(idx)
	k.unlinkWaiting(idx)
	k.allList.remove(k.allLinks, idx)

	k.taskAt(idx).state = TaskInvalid
	k.taskUsed[idx] = false
	k.freeTasks = append(k.freeTasks, int32(idx))
	k.taskCount--
}

// exitCurrent tears down the calling task and performs a one-way
// switch to the next winner; the reaped context is never switched
// back into. It returns once the one-way switch primitive returns
// (archsim's does). It is the tail of every task entry wrapper and of
// a self-Delete.
func (k *Kernel) exitCurrent() {
	tok := k.enterCritical()
	idx := k.current
	k.reapLocked(idx)
	k.current = nilIndex

	prio := k.highestReadyPrio()
	winner := k.readyLists[prio].front()
	var sp StackPointer
	if winner != nilIndex {
		w := k.taskAt(winner)
		k.current = winner
		w.state = TaskRunning
		w.switchCount.Inc()
		sp = w.sp
	}
	h := k.handle(idx)
	k.leaveCritical(tok)

	if k.hooks.TaskDeleted != nil {
		k.hooks.TaskDeleted(&h)
	}
	if sp != nil {
		// one-way hand-off: there is no context to save for an
		// exiting task
		k.arch.ContextSwitch(nil, sp)
	}
}

// Delete unlinks the task from all three lists, clears its ready-mask
// bit if it was the last of that priority, and releases the TCB. Not
// permitted from ISR context. Deleting the calling task's own handle
// does not return.
func (k *Kernel) Delete(h Task) error {
	if h.k == nil {
		return ErrNullPtr
	}
	tok := k.enterCritical()
	if k.intrLevel != 0 {
		k.leaveCritical(tok)
		return ErrInvalid
	}
	idx := h.idx
	if !k.taskUsed[idx] {
		k.leaveCritical(tok)
		return ErrInvalid
	}
	if idx == k.current {
		k.leaveCritical(tok)
		k.exitCurrent()
		select {} // the reaped context never resumes
	}

	k.reapLocked(idx)
	running := k.running
	k.leaveCritical(tok)

	if k.hooks.TaskDeleted != nil {
		k.hooks.TaskDeleted(&h)
	}
	if running {
		k.Schedule()
	}
	return nil
}

// Sleep moves the calling task out of the ready queue for the given
// duration, rounded up to whole ticks with a minimum of one, so
// Sleep(0) still sleeps for a full tick. The block and the switch
// away happen under one critical section.
func (k *Kernel) Sleep(ms uint32) {
	tok := k.enterCritical()
	ticks := k.cfg.ticksFromMillis(ms)
	idx := k.current
	k.unlinkFromOwner(idx)
	k.taskAt(idx).state = TaskSleeping
	k.linkWaiting(idx, ticks)
	k.switchIfNeeded(tok)
}

// Yield moves the calling task to the tail of its own ready queue and
// reschedules, giving round-robin fairness within a priority level.
func (k *Kernel) Yield() {
	tok := k.enterCritical()
	idx := k.current
	k.unlinkFromOwner(idx)
	k.linkReady(idx)
	k.switchIfNeeded(tok)
}

// SetPrio changes a task's priority, splicing it into the new ready
// queue immediately if it is READY or RUNNING, or simply updating the
// field in place if it is blocked (so it wakes at the new level).
// Returns the previous priority.
func (k *Kernel) SetPrio(h Task, p uint8) (uint8, error) {
	if h.k == nil {
		return 0, ErrNullPtr
	}
	tok := k.enterCritical()
	if int(p) >= len(k.readyLists) {
		k.leaveCritical(tok)
		return 0, ErrInvalid
	}
	idx := h.idx
	if !k.taskUsed[idx] {
		k.leaveCritical(tok)
		return 0, ErrInvalid
	}
	t := k.taskAt(idx)
	old := t.prio

	switch t.state {
	case TaskReady, TaskRunning:
		k.unlinkFromOwner(idx)
		t.prio = p
		t.prioMask = 1 << p
		k.linkReady(idx)
		// linkReady marks the task READY; the reschedule below
		// re-picks the winner and restores RUNNING on whoever wins
	default:
		t.prio = p
		t.prioMask = 1 << p
	}
	k.leaveCritical(tok)
	k.Schedule()
	return old, nil
}
