package rtos

// ═══════════════════════════════════════════════════════════════════════════
// DIAGNOSTICS SNAPSHOT
// ═══════════════════════════════════════════════════════════════════════════

// Stats is a point-in-time snapshot of kernel-wide counters, used by
// rtshell and rtlog to report without perturbing scheduling.
type Stats struct {
	SysTicks  uint64
	TaskCount int
	Running   bool
}

// Stats returns a snapshot of kernel-wide counters.
func (k *Kernel) Stats() Stats {
	tok := k.enterCritical()
	defer k.leaveCritical(tok)
	return Stats{
		SysTicks:  k.sysTicks.Load(),
		TaskCount: k.taskCount,
		Running:   k.running,
	}
}

// Tasks returns a handle for every live task, in creation order, for
// diagnostic enumeration.
func (k *Kernel) Tasks() []Task {
	tok := k.enterCritical()
	defer k.leaveCritical(tok)
	out := make([]Task, 0, k.taskCount)
	k.allList.forEach(k.allLinks, func(idx taskIndex) {
		out = append(out, k.handle(idx))
	})
	return out
}
