package rtos_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kineticos/rtos"
	"github.com/kineticos/rtos/archsim"
)

func newTestKernel(t *testing.T) (*rtos.Kernel, *archsim.Goroutine) {
	t.Helper()
	arch := archsim.NewGoroutine()
	cfg := rtos.DefaultConfig()
	cfg.SysHz = 2000
	k := rtos.NewKernel(cfg, arch, rtos.Hooks{})
	return k, arch
}

// TestYieldFairness: two tasks at the same priority, both looping
// Yield, stay within one switch of each other.
func TestYieldFairness(t *testing.T) {
	k, arch := newTestKernel(t)

	var aCount, bCount int32
	const target = 200

	mk := func(counter *int32) rtos.TaskProc {
		return func(arg any) {
			k := arg.(*rtos.Kernel)
			for atomic.LoadInt32(counter) < target {
				atomic.AddInt32(counter, 1)
				k.Yield()
			}
		}
	}

	a, err := k.Create(mk(&aCount), k, rtos.TaskAttr{Name: "A", Prio: 1, StackSize: 4096})
	require.NoError(t, err)
	b, err := k.Create(mk(&bCount), k, rtos.TaskAttr{Name: "B", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	go func() {
		for atomic.LoadInt32(&aCount) < target || atomic.LoadInt32(&bCount) < target {
			time.Sleep(time.Millisecond)
		}
		arch.Stop()
	}()

	require.NoError(t, k.Start())

	diff := int64(a.SwitchCount()) - int64(b.SwitchCount())
	if diff < 0 {
		diff = -diff
	}
	require.LessOrEqual(t, diff, int64(1), "switch counts should never differ by more than 1")
}

// TestSleepWakesAfterTicks exercises the tick handler's waiting-list
// walk: a sleeping task becomes ready again only once its wait time
// has been decremented to zero.
func TestSleepWakesAfterTicks(t *testing.T) {
	k, arch := newTestKernel(t)

	done := make(chan struct{})
	_, err := k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		k.Sleep(30)
		close(done)
	}, k, rtos.TaskAttr{Name: "sleeper", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	go func() {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		arch.Stop()
	}()

	require.NoError(t, k.Start())
	select {
	case <-done:
	default:
		t.Fatal("sleeping task never woke up")
	}
}

// TestPriorityPreemption: a high-priority task blocked on a condvar
// is dispatched ahead of a lower-priority task that is merely
// yielding, once signalled.
func TestPriorityPreemption(t *testing.T) {
	k, arch := newTestKernel(t)

	m, err := k.NewMutex()
	require.NoError(t, err)
	c, err := k.NewCond()
	require.NoError(t, err)

	var highRan int32
	var lowYields int32

	_, err = k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		for atomic.LoadInt32(&highRan) == 0 {
			atomic.AddInt32(&lowYields, 1)
			k.Yield()
		}
	}, k, rtos.TaskAttr{Name: "low", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	_, err = k.Create(func(arg any) {
		require.NoError(t, m.Lock())
		require.NoError(t, c.Wait(m))
		require.NoError(t, m.Unlock())
		atomic.StoreInt32(&highRan, 1)
	}, k, rtos.TaskAttr{Name: "high", Prio: 10, StackSize: 4096})
	require.NoError(t, err)

	_, err = k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		k.Sleep(20)
		c.Signal()
	}, k, rtos.TaskAttr{Name: "trigger", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	go func() {
		for atomic.LoadInt32(&highRan) == 0 {
			time.Sleep(time.Millisecond)
		}
		arch.Stop()
	}()

	require.NoError(t, k.Start())
	require.Equal(t, int32(1), atomic.LoadInt32(&highRan))
}

// TestSetPrioReadyTask: changing a ready task's priority splices it
// into the new queue and reports the old priority.
func TestSetPrioReadyTask(t *testing.T) {
	k, _ := newTestKernel(t)

	h, err := k.Create(func(any) {}, nil, rtos.TaskAttr{Name: "x", Prio: 3, StackSize: 4096})
	require.NoError(t, err)
	require.Equal(t, rtos.TaskReady, h.State())

	old, err := k.SetPrio(h, 7)
	require.NoError(t, err)
	require.Equal(t, uint8(3), old)
	require.Equal(t, uint8(7), h.Prio())
	require.Equal(t, rtos.TaskReady, h.State())

	_, err = k.SetPrio(h, 99)
	require.Equal(t, rtos.ErrInvalid, err)
}

// TestCreateRejectsBadPrio: a priority beyond MaxPrio is refused.
func TestCreateRejectsBadPrio(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.Create(func(any) {}, nil, rtos.TaskAttr{Name: "bad", Prio: 40, StackSize: 4096})
	require.Equal(t, rtos.ErrInvalid, err)
}

// TestCreateExhaustsArena: the fixed-capacity TCB arena reports
// ErrNoFree once full, and Delete makes the slot reusable.
func TestCreateExhaustsArena(t *testing.T) {
	arch := archsim.NewGoroutine()
	cfg := rtos.DefaultConfig()
	cfg.MaxTasks = 3
	k := rtos.NewKernel(cfg, arch, rtos.Hooks{})

	var handles []rtos.Task
	for i := 0; i < 3; i++ {
		h, err := k.Create(func(any) {}, nil, rtos.TaskAttr{Name: "t", Prio: 1, StackSize: 1024})
		require.NoError(t, err)
		handles = append(handles, h)
	}
	_, err := k.Create(func(any) {}, nil, rtos.TaskAttr{Name: "overflow", Prio: 1, StackSize: 1024})
	require.Equal(t, rtos.ErrNoFree, err)

	require.NoError(t, k.Delete(handles[0]))
	_, err = k.Create(func(any) {}, nil, rtos.TaskAttr{Name: "again", Prio: 1, StackSize: 1024})
	require.NoError(t, err)
	require.Equal(t, 3, k.TaskCount())
}
