package rtos

// ═══════════════════════════════════════════════════════════════════════════
// QUEUE MEMBERSHIP HELPERS
// ═══════════════════════════════════════════════════════════════════════════
//
// Every place a task moves between a ready queue, a mutex/condvar
// pending queue, and the global waiting list funnels through these
// helpers, so the invariant "bit p set in readyPrioMask iff
// readyLists[p] is non-empty" is maintained in exactly one place.

// linkReady inserts idx at the tail of its priority's ready queue and
// sets the corresponding mask bit. Caller holds the critical section.
func (k *Kernel) linkReady(idx taskIndex) {
	t := k.taskAt(idx)
	q := &k.readyLists[t.prio]
	q.pushTail(k.readyPendingLinks, idx)
	t.readyPendingOwner = q
	t.state = TaskReady
	k.readyPrioMask |= 1 << t.prio
}

// unlinkFromOwner removes idx from whichever ready/pending queue it
// currently belongs to (if any), clearing the ready-mask bit if that
// was the last occupant of a priority's ready queue.
func (k *Kernel) unlinkFromOwner(idx taskIndex) {
	t := k.taskAt(idx)
	q := t.readyPendingOwner
	if q == nil {
		return
	}
	q.remove(k.readyPendingLinks, idx)
	t.readyPendingOwner = nil
	if q == &k.readyLists[t.prio] && q.empty() {
		k.readyPrioMask &^= 1 << t.prio
	}
}

// linkWaiting enqueues idx on the global time-bounded waiting list
// with the given tick count. ticks == WaitInfinite means the task is
// blocked indefinitely and the tick handler will never expire it.
func (k *Kernel) linkWaiting(idx taskIndex, ticks uint32) {
	t := k.taskAt(idx)
	t.waitTime = ticks
	k.waitingList.pushTail(k.waitingLinks, idx)
	t.inWaitingList = true
}

// unlinkWaiting removes idx from the global waiting list, if present.
func (k *Kernel) unlinkWaiting(idx taskIndex) {
	t := k.taskAt(idx)
	if !t.inWaitingList {
		return
	}
	k.waitingList.remove(k.waitingLinks, idx)
	t.inWaitingList = false
}

// blockCurrentOn moves the currently running task off the ready queue
// it occupies and onto pendingQueue, optionally also registering a
// finite timeout on the global waiting list. It does not switch;
// callers do that once the critical section's remaining bookkeeping
// is done.
func (k *Kernel) blockCurrentOn(pendingQueue *taskList, timeoutTicks uint32) {
	idx := k.current
	t := k.taskAt(idx)
	k.unlinkFromOwner(idx)
	pendingQueue.pushTail(k.readyPendingLinks, idx)
	t.readyPendingOwner = pendingQueue
	t.state = TaskBlocked
	if timeoutTicks != WaitInfinite {
		k.linkWaiting(idx, timeoutTicks)
	} else {
		t.waitTime = WaitInfinite
	}
}

// wake moves idx off whatever pending queue, condvar waiting list,
// and global waiting list it may be on, and back onto its priority's
// ready queue.
func (k *Kernel) wake(idx taskIndex) {
	k.unlinkFromOwner(idx)
	k.unlinkCondWait(idx)
	k.unlinkWaiting(idx)
	k.linkReady(idx)
}

// linkCondWait enqueues idx onto a condvar's waiting list, via the
// independent condLinks array; a task blocked in a timed condvar wait
// occupies the condvar's list and the global waiting list at once,
// which the single readyPendingLink membership can't represent.
func (k *Kernel) linkCondWait(q *taskList, idx taskIndex) {
	q.pushTail(k.condLinks, idx)
	k.taskAt(idx).condOwner = q
}

// unlinkCondWait removes idx from the condvar waiting list it
// belongs to, if any.
func (k *Kernel) unlinkCondWait(idx taskIndex) {
	t := k.taskAt(idx)
	if t.condOwner == nil {
		return
	}
	t.condOwner.remove(k.condLinks, idx)
	t.condOwner = nil
}
