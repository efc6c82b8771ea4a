// Package archsim provides simulated architecture porting layer
// backends for the rtos kernel - stand-ins for the real stack-swap
// and interrupt primitives a microcontroller port would supply.
package archsim

import (
	"sync"
	"time"

	"github.com/kineticos/rtos"
)

// Goroutine is an rtos.Arch backend that simulates single-core
// multitasking with one goroutine per task and a rendezvous channel
// per task standing in for "context restore": at most one task
// goroutine is ever runnable at a time. A switch sends on the target
// task's channel, and the displaced task blocks receiving on its own
// channel until handed control again.
//
// The system tick is driven by a real time.Ticker on its own
// goroutine. The tick handler takes the kernel's critical section
// (backed here by g.mu), so running it off-task is safe, and it is
// the only way a sleeping task can be woken while every ready task is
// parked. The tick driver itself never switches contexts: the kernel
// pends the ISR-exit switch and the displaced task performs it at its
// next scheduling point, on its own goroutine. A task that loops
// without ever calling into the kernel is therefore never preempted
// on this backend; the idle task and any well-formed task reach a
// scheduling point constantly.
type Goroutine struct {
	mu      sync.Mutex
	ticker  *time.Ticker
	stopped chan struct{}
	stopOne sync.Once
}

// frame is the simulated "stack frame": a captured entry point plus
// its own rendezvous channel.
type frame struct {
	proc   rtos.TaskProc
	arg    any
	resume chan struct{}
}

// NewGoroutine constructs a fresh simulated architecture backend. Use
// one per Kernel; it is not meant to be shared.
func NewGoroutine() *Goroutine {
	return &Goroutine{
		stopped: make(chan struct{}),
	}
}

// IRQSave acquires the simulated interrupt-disable lock. The token
// is unused: the lock is non-reentrant and the kernel never nests
// critical sections; a real port returns the saved interrupt flag
// here.
func (g *Goroutine) IRQSave() rtos.IRQToken {
	g.mu.Lock()
	return nil
}

// IRQRestore releases the simulated lock.
func (g *Goroutine) IRQRestore(token rtos.IRQToken) {
	g.mu.Unlock()
}

// IRQDisable is a no-op on this backend: it runs once at kernel
// construction, before any task goroutine or tick driver exists, so
// there is nothing yet to exclude. A real port masks interrupts at
// the hardware level here.
func (g *Goroutine) IRQDisable() {}

// StackFrameInit captures proc/arg as the "stack frame" and spins up
// the task's goroutine, parked immediately on its own resume channel
// until the first switch hands it control.
func (g *Goroutine) StackFrameInit(proc rtos.TaskProc, arg any, stackSize uint32) rtos.StackPointer {
	f := &frame{proc: proc, arg: arg, resume: make(chan struct{})}
	go func() {
		<-f.resume
		proc(arg)
	}()
	return f
}

// ContextSwitch hands off to next and blocks the caller until it is
// handed control again. A nil from performs a one-way hand-off: the
// caller keeps running (it is expected to return and let its
// goroutine end).
func (g *Goroutine) ContextSwitch(from, next rtos.StackPointer) {
	g.handOff(from, next)
}

// ContextSwitchIntr performs the switch pended at ISR exit. On this
// backend it is invoked from the displaced task's own goroutine, so
// the hand-off is the same as the cooperative one.
func (g *Goroutine) ContextSwitchIntr(from, next rtos.StackPointer) {
	g.handOff(from, next)
}

// ContextSwitchFirst performs the one-way initial hand-off: there is
// no frame parked anywhere waiting to resume. It then blocks the
// booting goroutine until Stop is called, so Kernel.Start's caller
// observes the same "does not return mid-run" contract a real
// backend has.
func (g *Goroutine) ContextSwitchFirst(next rtos.StackPointer) {
	nf := next.(*frame)
	nf.resume <- struct{}{}
	<-g.stopped
}

func (g *Goroutine) handOff(from, next rtos.StackPointer) {
	nf := next.(*frame)
	var fromCh chan struct{}
	if from != nil {
		ff := from.(*frame)
		fromCh = ff.resume
	}
	nf.resume <- struct{}{}
	if fromCh != nil {
		<-fromCh
	}
}

// SysClockInit starts a goroutine that calls tick at the rate implied
// by sysHz, standing in for programming a periodic hardware timer.
func (g *Goroutine) SysClockInit(sysHz uint32, tick func()) {
	if sysHz == 0 {
		sysHz = 1000
	}
	g.ticker = time.NewTicker(time.Second / time.Duration(sysHz))
	go func() {
		for {
			select {
			case <-g.ticker.C:
				tick()
			case <-g.stopped:
				return
			}
		}
	}()
}

// Stop halts the simulated tick driver and releases the goroutine
// blocked in ContextSwitchFirst; a test or cmd/tinyrtd calls this to
// end a run.
func (g *Goroutine) Stop() {
	g.stopOne.Do(func() {
		if g.ticker != nil {
			g.ticker.Stop()
		}
		close(g.stopped)
	})
}

// Stopped returns a channel closed once Stop is called.
func (g *Goroutine) Stopped() <-chan struct{} {
	return g.stopped
}
