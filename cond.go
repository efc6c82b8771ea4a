package rtos

// ═══════════════════════════════════════════════════════════════════════════
// CONDITION VARIABLE
// ═══════════════════════════════════════════════════════════════════════════
//
// A condvar does not own a mutex; Wait takes the mutex to release and
// reacquire explicitly. Correctness hinges on the generation counter
// (value): a signal that lands between a waiter releasing the mutex
// and linking itself onto the waiter queue bumps the counter, and the
// waiter's post-unlock re-check catches it.

// condRecord is the kernel-arena state backing a Cond handle.
type condRecord struct {
	valid    bool
	value    uint64
	useCount int
	waiters  taskList
}

// Cond is an opaque handle to a condition variable record, shareable
// across tasks. The zero value is not usable; obtain one from
// Kernel.NewCond.
type Cond struct {
	k   *Kernel
	idx int32
}

// NewCond allocates a condition-variable record.
func (k *Kernel) NewCond() (Cond, error) {
	tok := k.enterCritical()
	defer k.leaveCritical(tok)
	idx, rec, ok := k.conds.acquire()
	if !ok {
		return Cond{}, ErrNoFree
	}
	rec.valid = true
	rec.value = 0
	rec.useCount = 0
	rec.waiters = newTaskList()
	return Cond{k: k, idx: idx}, nil
}

func (c Cond) rec() *condRecord {
	return c.k.conds.at(c.idx)
}

// Wait releases m, blocks indefinitely until signalled, and
// reacquires m before returning - WaitFor with WaitInfinite.
func (c Cond) Wait(m Mutex) error {
	_, err := c.WaitFor(m, WaitInfinite)
	return err
}

// WaitFor releases m, blocks up to timeoutMs waiting for a Signal or
// Broadcast, and reacquires m before returning. If the timeout
// elapses first it returns ErrTimeout and leaves m unlocked.
func (c Cond) WaitFor(m Mutex, timeoutMs uint32) (bool, error) {
	if c.k == nil {
		return false, ErrNullPtr
	}
	k := c.k
	tok := k.enterCritical()
	rec := c.rec()
	if !rec.valid {
		k.leaveCritical(tok)
		return false, ErrInvalid
	}

	// useCount counts tasks currently executing WaitFor, not just
	// those on the waiter queue; Destroy must refuse while any are
	// still in flight, and Broadcast relies on each one decrementing
	// on its own way out
	snapshot := rec.value
	rec.useCount++
	k.leaveCritical(tok)

	if err := m.Unlock(); err != nil {
		tok = k.enterCritical()
		rec.useCount--
		k.leaveCritical(tok)
		return false, err
	}

	tok = k.enterCritical()
	if rec.value != snapshot {
		// a signal raced the unlock; consume it without queuing
		rec.useCount--
		k.leaveCritical(tok)
		if err := m.Lock(); err != nil {
			return false, err
		}
		return true, nil
	}

	if timeoutMs == WaitImmediate {
		rec.useCount--
		k.leaveCritical(tok)
		return false, ErrTimeout
	}

	idx := k.current
	k.unlinkFromOwner(idx)
	k.taskAt(idx).state = TaskBlocked
	k.linkCondWait(&rec.waiters, idx)
	if timeoutMs != WaitInfinite {
		k.linkWaiting(idx, k.cfg.ticksFromMillis(timeoutMs))
	} else {
		k.taskAt(idx).waitTime = WaitInfinite
	}
	k.switchIfNeeded(tok)

	tok = k.enterCritical()
	signalled := rec.value != snapshot
	rec.useCount--
	k.leaveCritical(tok)

	if signalled {
		if err := m.Lock(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, ErrTimeout
}

// Signal wakes the highest-priority waiter (ties broken by earliest
// scan order), or does nothing if no task is waiting. The generation
// counter always advances, even with no waiters, so a Wait racing a
// concurrent Signal still observes the change.
func (c Cond) Signal() {
	if c.k == nil {
		return
	}
	k := c.k
	tok := k.enterCritical()
	rec := c.rec()
	if !rec.valid {
		k.leaveCritical(tok)
		return
	}
	rec.value++

	var best taskIndex = nilIndex
	var bestPrio uint8
	rec.waiters.forEach(k.condLinks, func(idx taskIndex) {
		p := k.taskAt(idx).prio
		if best == nilIndex || p > bestPrio {
			best = idx
			bestPrio = p
		}
	})
	waiters := rec.waiters.len
	if best != nilIndex {
		k.wake(best)
	}
	k.leaveCritical(tok)

	if k.hooks.CondSignaled != nil {
		k.hooks.CondSignaled(waiters)
	}
	k.Schedule()
}

// Broadcast wakes every waiter.
func (c Cond) Broadcast() {
	if c.k == nil {
		return
	}
	k := c.k
	tok := k.enterCritical()
	rec := c.rec()
	if !rec.valid {
		k.leaveCritical(tok)
		return
	}
	rec.value++

	var all []taskIndex
	rec.waiters.forEach(k.condLinks, func(idx taskIndex) {
		all = append(all, idx)
	})
	for _, idx := range all {
		k.wake(idx)
	}
	waiters := len(all)
	k.leaveCritical(tok)

	if k.hooks.CondSignaled != nil {
		k.hooks.CondSignaled(waiters)
	}
	k.Schedule()
}

// Destroy invalidates the condvar record. Permitted only when no
// task is inside Wait/WaitFor; returns ErrBlocking otherwise.
func (c Cond) Destroy() error {
	if c.k == nil {
		return ErrNullPtr
	}
	k := c.k
	tok := k.enterCritical()
	defer k.leaveCritical(tok)
	rec := c.rec()
	if !rec.valid {
		return ErrInvalid
	}
	if rec.useCount != 0 {
		return ErrBlocking
	}
	rec.valid = false
	k.conds.release(c.idx)
	return nil
}
