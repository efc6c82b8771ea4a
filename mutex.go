package rtos

// ═══════════════════════════════════════════════════════════════════════════
// MUTEX
// ═══════════════════════════════════════════════════════════════════════════

// mutexRecord is the kernel-arena state backing a Mutex handle.
type mutexRecord struct {
	valid   bool
	locked  bool
	owner   taskIndex
	pending taskList
}

// Mutex is an opaque handle to a mutex record, shareable across
// tasks. The zero value is not usable; obtain one from
// Kernel.NewMutex.
type Mutex struct {
	k   *Kernel
	idx int32
}

// NewMutex allocates a mutex record: unlocked, no owner, empty
// pending queue.
func (k *Kernel) NewMutex() (Mutex, error) {
	tok := k.enterCritical()
	defer k.leaveCritical(tok)
	idx, rec, ok := k.mutexes.acquire()
	if !ok {
		return Mutex{}, ErrNoFree
	}
	rec.valid = true
	rec.locked = false
	rec.owner = nilIndex
	rec.pending = newTaskList()
	return Mutex{k: k, idx: idx}, nil
}

func (m Mutex) rec() *mutexRecord {
	return m.k.mutexes.at(m.idx)
}

// Lock blocks indefinitely until the mutex is acquired - TryLock with
// WaitInfinite.
func (m Mutex) Lock() error {
	_, err := m.TryLock(WaitInfinite)
	return err
}

// TryLock acquires the mutex, blocking up to timeoutMs (rounded up to
// whole ticks) if it is already held. WaitImmediate never blocks;
// WaitInfinite blocks until acquired. Returns ErrTimeout if the
// timeout (or immediate check) elapses without gaining ownership.
func (m Mutex) TryLock(timeoutMs uint32) (bool, error) {
	if m.k == nil {
		return false, ErrNullPtr
	}
	k := m.k
	tok := k.enterCritical()
	rec := m.rec()
	if !rec.valid {
		k.leaveCritical(tok)
		return false, ErrInvalid
	}
	if !rec.locked {
		rec.locked = true
		rec.owner = k.current
		k.leaveCritical(tok)
		return true, nil
	}
	if timeoutMs == WaitImmediate {
		k.leaveCritical(tok)
		return false, ErrTimeout
	}

	idx := k.current
	ticks := WaitInfinite
	if timeoutMs != WaitInfinite {
		ticks = k.cfg.ticksFromMillis(timeoutMs)
	}
	// block and switch away under the same critical section; the task
	// resumes here either as the new owner (direct hand-off from
	// Unlock) or woken by tick expiry
	k.blockCurrentOn(&rec.pending, ticks)
	k.switchIfNeeded(tok)

	tok = k.enterCritical()
	acquired := rec.owner == idx
	k.leaveCritical(tok)
	if !acquired {
		return false, ErrTimeout
	}
	return true, nil
}

// Unlock releases the mutex. If the current task is not the owner it
// returns ErrPerm; if the mutex is not locked, ErrUnlocked. If tasks
// are pending, ownership hands off directly to the FIFO head of the
// pending queue (locked stays true) rather than being released and
// re-contended.
func (m Mutex) Unlock() error {
	if m.k == nil {
		return ErrNullPtr
	}
	k := m.k
	tok := k.enterCritical()
	rec := m.rec()
	if !rec.valid {
		k.leaveCritical(tok)
		return ErrInvalid
	}
	if !rec.locked {
		k.leaveCritical(tok)
		return ErrUnlocked
	}
	if rec.owner != k.current {
		k.leaveCritical(tok)
		return ErrPerm
	}

	if rec.pending.empty() {
		rec.locked = false
		rec.owner = nilIndex
		k.leaveCritical(tok)
		k.Schedule()
		return nil
	}

	next := rec.pending.front()
	k.wake(next)
	rec.owner = next
	k.leaveCritical(tok)
	k.Schedule()
	return nil
}

// Destroy invalidates the mutex record and releases it to the pool.
// Permitted only when unowned; returns ErrBlocking otherwise.
func (m Mutex) Destroy() error {
	if m.k == nil {
		return ErrNullPtr
	}
	k := m.k
	tok := k.enterCritical()
	defer k.leaveCritical(tok)
	rec := m.rec()
	if !rec.valid {
		return ErrInvalid
	}
	if rec.owner != nilIndex {
		return ErrBlocking
	}
	rec.valid = false
	k.mutexes.release(m.idx)
	return nil
}
