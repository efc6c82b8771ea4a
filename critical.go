package rtos

// Every kernel operation that touches shared state brackets itself
// with enterCritical/leaveCritical, which forward straight to the
// Arch backend's IRQSave/IRQRestore. The save/restore tokens let
// critical sections nest. No kernel primitive holds the critical
// section across a context switch; it is always released before the
// switch primitive runs.

func (k *Kernel) enterCritical() IRQToken {
	return k.arch.IRQSave()
}

func (k *Kernel) leaveCritical(tok IRQToken) {
	k.arch.IRQRestore(tok)
}
