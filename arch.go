package rtos

// ═══════════════════════════════════════════════════════════════════════════
// ARCHITECTURE PORTING LAYER
// ═══════════════════════════════════════════════════════════════════════════
//
// Everything in this file is a contract the target platform supplies;
// the kernel core never assumes a concrete implementation. archsim
// ships the one backend used by tests and cmd/tinyrtd. A real MCU
// port replaces it with one that programs an actual timer and swaps
// real stack pointers.

// StackPointer is an opaque handle to a task's saved execution context.
// The kernel core never dereferences it; only Arch does.
type StackPointer any

// TaskProc is a task's entry point.
type TaskProc func(arg any)

// IRQToken is the opaque "previous interrupt state" returned by
// IRQSave, to be handed back to IRQRestore; the save/restore pair is
// what lets critical sections nest.
type IRQToken any

// Arch is the architecture porting layer a Kernel is built over.
type Arch interface {
	// IRQSave disables interrupts (or the simulated equivalent) and
	// returns a token capturing the prior state.
	IRQSave() IRQToken
	// IRQRestore restores the interrupt state captured by token.
	IRQRestore(token IRQToken)
	// IRQDisable unconditionally disables interrupts, used once at
	// boot before the first critical section.
	IRQDisable()

	// StackFrameInit crafts an initial context such that the first
	// switch-in begins executing proc(arg).
	StackFrameInit(proc TaskProc, arg any, stackSize uint32) StackPointer

	// ContextSwitch performs a cooperative switch away from the
	// calling task to next. A nil from means there is no context to
	// save (the switching task is exiting).
	ContextSwitch(from, next StackPointer)
	// ContextSwitchIntr performs the switch that was pended at ISR
	// exit, once control is back on the displaced task's own flow.
	ContextSwitchIntr(from, next StackPointer)
	// ContextSwitchFirst performs the one-way initial switch into
	// next; there is no prior context to save.
	ContextSwitchFirst(next StackPointer)

	// SysClockInit programs the periodic system tick.
	SysClockInit(sysHz uint32, tick func())
}
