package rtos

// ═══════════════════════════════════════════════════════════════════════════
// TICK HANDLER
// ═══════════════════════════════════════════════════════════════════════════

// tickISR frames TickHandler as the system timer interrupt handler.
// Arch backends invoke this, not TickHandler directly, so the
// scheduling decision at ISR exit always happens after unnesting.
func (k *Kernel) tickISR() {
	k.EnterISR()
	k.TickHandler()
	k.ExitISR()
}

// TickHandler is called from the system timer ISR (wrapped in
// EnterISR/ExitISR by tickISR, which the Arch backend invokes). It advances sysTicks and
// walks the waiting list, waking any task whose wait time has
// expired. It never calls the scheduler itself; the ISR exit path
// handles that, after unnesting.
func (k *Kernel) TickHandler() {
	tok := k.enterCritical()
	k.sysTicks.Inc()

	if k.current != nilIndex {
		k.taskAt(k.current).totalRunTicks.Inc()
	}

	var expired []taskIndex
	k.waitingList.forEach(k.waitingLinks, func(idx taskIndex) {
		t := k.taskAt(idx)
		if t.waitTime == WaitInfinite {
			return
		}
		t.waitTime--
		if t.waitTime == 0 {
			expired = append(expired, idx)
		}
	})

	// a task still on a mutex pending queue at expiry is a timed-out
	// lock attempt; note them before wake clears the membership
	var timedOut []taskIndex
	for _, idx := range expired {
		t := k.taskAt(idx)
		if t.readyPendingOwner != nil && t.state == TaskBlocked {
			timedOut = append(timedOut, idx)
		}
		k.wake(idx)
	}
	hook := k.hooks.MutexTimeout
	k.leaveCritical(tok)

	if hook != nil {
		for _, idx := range timedOut {
			h := k.handle(idx)
			hook(&h)
		}
	}
}
