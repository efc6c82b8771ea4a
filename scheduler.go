package rtos

// ═══════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ═══════════════════════════════════════════════════════════════════════════

// Schedule recomputes the highest-priority ready task and switches to
// it if it differs from the one currently running. It is a no-op
// while nested in an ISR (intrLevel != 0) or while scheduling is
// disabled.
func (k *Kernel) Schedule() {
	tok := k.enterCritical()
	if k.intrLevel != 0 || !k.scheduleEnable {
		k.leaveCritical(tok)
		return
	}
	k.switchIfNeeded(tok)
}

// switchIfNeeded must be called with the critical section held via
// tok, which it always consumes (leaveCritical is called exactly
// once, on every path). It picks the new winner and updates
// bookkeeping while still protected, then releases the critical
// section before invoking the Arch switch primitive: no kernel
// primitive holds the critical section across a context switch.
//
// A switch pended at ISR exit is consumed here and performed with the
// interrupt-context switch primitive; everything else uses the
// cooperative one.
func (k *Kernel) switchIfNeeded(tok IRQToken) {
	fromISR := k.pendSwitch
	k.pendSwitch = false

	prio := k.highestReadyPrio()
	winner := k.readyLists[prio].front()
	if winner == nilIndex || winner == k.current {
		if winner != nilIndex && k.taskAt(winner).state == TaskReady {
			// the running task stays the winner (e.g. it just yielded
			// with no rival at its priority)
			k.taskAt(winner).state = TaskRunning
		}
		k.leaveCritical(tok)
		return
	}

	var fromSP StackPointer
	if k.current != nilIndex {
		fromSP = k.taskAt(k.current).sp
	}
	winnerTask := k.taskAt(winner)
	winnerTask.switchCount.Inc()

	prevIdx := k.current
	k.current = winner
	if prevIdx != nilIndex {
		prev := k.taskAt(prevIdx)
		if prev.state == TaskRunning {
			prev.state = TaskReady
		}
	}
	winnerTask.state = TaskRunning

	k.leaveCritical(tok)

	if fromISR {
		k.arch.ContextSwitchIntr(fromSP, winnerTask.sp)
	} else {
		k.arch.ContextSwitch(fromSP, winnerTask.sp)
	}
}
