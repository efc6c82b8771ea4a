package rtos

// ═══════════════════════════════════════════════════════════════════════════
// INTERRUPT ENTRY/EXIT
// ═══════════════════════════════════════════════════════════════════════════

const maxIntrLevel = 255

// EnterISR bumps the interrupt nesting level, saturating at 255. It
// is a no-op before Start.
func (k *Kernel) EnterISR() {
	tok := k.enterCritical()
	if k.running && k.intrLevel < maxIntrLevel {
		k.intrLevel++
	}
	k.leaveCritical(tok)
}

// ExitISR decrements the nesting level. Once it reaches zero and
// scheduling is enabled, it recomputes the winner; if a different
// task should run, the switch is pended and performed at the next
// scheduling point on the displaced task's own flow of control, the
// way a hardware port pends its switch interrupt at ISR exit rather
// than swapping stacks inside the handler.
func (k *Kernel) ExitISR() {
	tok := k.enterCritical()
	if k.intrLevel > 0 {
		k.intrLevel--
	}
	if k.intrLevel == 0 && k.scheduleEnable {
		prio := k.highestReadyPrio()
		if w := k.readyLists[prio].front(); w != nilIndex && w != k.current {
			k.pendSwitch = true
		}
	}
	k.leaveCritical(tok)
}
