// Command tinyrtd boots an rtos.Kernel over the archsim.Goroutine
// backend and runs two live demos: a producer feeding two consumers
// through a mutex+condvar pair, and a high-priority task preempting a
// low-priority spinner on signal. It serves rtshell over stdin for
// inspection while the demos run.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kineticos/rtos"
	"github.com/kineticos/rtos/archsim"
	"github.com/kineticos/rtos/rtclock"
	"github.com/kineticos/rtos/rtlog"
	"github.com/kineticos/rtos/rtshell"
)

func main() {
	arch := archsim.NewGoroutine()
	cfg := rtos.DefaultConfig()
	clk := rtclock.New(cfg)

	// log lines carry kernel time (boot epoch + sys ticks) rather
	// than the host clock, so they line up with rtshell's uptime
	boot := time.Now()
	var k *rtos.Kernel
	lg := rtlog.NewWithTime(func() time.Time {
		if k == nil {
			return boot
		}
		return clk.Time(boot, k.Stats().SysTicks)
	})
	k = rtos.NewKernel(cfg, arch, rtlog.Hooks(lg))

	mu, err := k.NewMutex()
	if err != nil {
		lg.Error("mutex init failed", "err", err)
		os.Exit(1)
	}
	cond, err := k.NewCond()
	if err != nil {
		lg.Error("cond init failed", "err", err)
		os.Exit(1)
	}

	var data int32
	var consumed int32

	// producer: prio 1, a short period so the demo finishes quickly
	// under go run
	if _, err := k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		n := 1
		for n <= 10 {
			k.Sleep(50)
			mu.Lock()
			atomic.StoreInt32(&data, int32(n))
			mu.Unlock()
			cond.Signal()
			lg.Info("produced", "value", n)
			n++
		}
	}, k, rtos.TaskAttr{Name: "producer", Prio: 1, StackSize: 4096}); err != nil {
		lg.Error("create producer failed", "err", err)
		os.Exit(1)
	}

	consumerBody := func(name string) rtos.TaskProc {
		return func(arg any) {
			_ = arg.(*rtos.Kernel)
			for atomic.LoadInt32(&consumed) < 10 {
				mu.Lock()
				for atomic.LoadInt32(&data) == 0 {
					cond.Wait(mu)
				}
				v := atomic.SwapInt32(&data, 0)
				mu.Unlock()
				atomic.AddInt32(&consumed, 1)
				lg.Info("consumed", "by", name, "value", v)
			}
		}
	}
	if _, err := k.Create(consumerBody("U2"), k, rtos.TaskAttr{Name: "U2", Prio: 1, StackSize: 4096}); err != nil {
		lg.Error("create U2 failed", "err", err)
		os.Exit(1)
	}
	if _, err := k.Create(consumerBody("U3"), k, rtos.TaskAttr{Name: "U3", Prio: 1, StackSize: 4096}); err != nil {
		lg.Error("create U3 failed", "err", err)
		os.Exit(1)
	}

	// preemption demo: T1 (low) spins yielding; T2 (high) blocks on
	// its own condvar until signalled, then logs to show it was
	// dispatched ahead of T1 at the next scheduling point
	preemptCond, err := k.NewCond()
	if err != nil {
		lg.Error("cond init failed", "err", err)
		os.Exit(1)
	}
	preemptMu, err := k.NewMutex()
	if err != nil {
		lg.Error("mutex init failed", "err", err)
		os.Exit(1)
	}
	var t1Ticks, t2Ran int32

	if _, err := k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		for atomic.LoadInt32(&t2Ran) == 0 {
			atomic.AddInt32(&t1Ticks, 1)
			k.Yield()
		}
	}, k, rtos.TaskAttr{Name: "T1-low", Prio: 1, StackSize: 4096}); err != nil {
		lg.Error("create T1 failed", "err", err)
		os.Exit(1)
	}
	if _, err := k.Create(func(arg any) {
		_ = arg
		preemptMu.Lock()
		preemptCond.Wait(preemptMu)
		preemptMu.Unlock()
		atomic.StoreInt32(&t2Ran, 1)
		lg.Info("T2-high dispatched after signal", "t1_ticks_before", atomic.LoadInt32(&t1Ticks))
	}, k, rtos.TaskAttr{Name: "T2-high", Prio: 10, StackSize: 4096}); err != nil {
		lg.Error("create T2 failed", "err", err)
		os.Exit(1)
	}
	if _, err := k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		k.Sleep(200)
		preemptCond.Signal()
	}, k, rtos.TaskAttr{Name: "trigger", Prio: 1, StackSize: 4096}); err != nil {
		lg.Error("create trigger failed", "err", err)
		os.Exit(1)
	}

	go serveShell(k, clk)
	go stopWhenDone(arch, &consumed, &t2Ran)

	lg.Info("starting kernel", "sys_hz", cfg.SysHz, "max_tasks", cfg.MaxTasks)
	if err := k.Start(); err != nil {
		lg.Error("kernel start failed", "err", err)
		os.Exit(1)
	}
	lg.Info("demo scenarios complete")
}

// stopWhenDone polls for both demos finishing and then stops the
// simulated architecture backend, which is what makes Start return in
// this demo (a real backend never returns at all).
func stopWhenDone(arch *archsim.Goroutine, consumed, t2Ran *int32) {
	for atomic.LoadInt32(consumed) < 10 || atomic.LoadInt32(t2Ran) == 0 {
		time.Sleep(20 * time.Millisecond)
	}
	arch.Stop()
}

func serveShell(k *rtos.Kernel, clk rtclock.Clock) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		shell := rtshell.New(k, clk, os.Stdout)
		shell.SetArgs(strings.Fields(line))
		if err := shell.Execute(); err != nil {
			fmt.Fprintln(os.Stdout, err)
		}
	}
}
