package rtos

// ═══════════════════════════════════════════════════════════════════════════
// KERNEL BOOT
// ═══════════════════════════════════════════════════════════════════════════

// Start creates the kernel-owned idle task, arms the periodic system
// tick, picks the initial winner, and performs the one-way switch
// into it - there is no prior context to save. Start never returns on
// a real architecture backend; simulated backends (archsim) return
// once the simulated run ends.
func (k *Kernel) Start() error {
	tok := k.enterCritical()
	if k.running {
		k.leaveCritical(tok)
		return ErrInvalid
	}
	idx, err := k.newTask(idleLoop, k, TaskAttr{Name: "idle", Prio: 0, StackSize: k.cfg.IdleStackSize})
	if err != nil {
		k.leaveCritical(tok)
		return err
	}
	k.idle = idx
	k.linkReady(idx)
	k.allList.pushTail(k.allLinks, idx)
	k.taskCount++

	k.scheduleEnable = true
	k.running = true

	prio := k.highestReadyPrio()
	winner := k.readyLists[prio].front()
	k.current = winner
	k.taskAt(winner).state = TaskRunning
	k.taskAt(winner).switchCount.Inc()
	first := k.taskAt(winner).sp
	k.leaveCritical(tok)

	k.arch.SysClockInit(k.cfg.SysHz, k.tickISR)
	k.arch.ContextSwitchFirst(first)
	return nil
}

// idleLoop is the idle task's entry point. It never blocks or sleeps,
// so the ready-priority mask never goes to zero and scheduler
// selection never sees an empty system; each Yield is a scheduling
// point that dispatches any task the tick handler has woken.
func idleLoop(arg any) {
	k := arg.(*Kernel)
	for {
		k.Yield()
	}
}
