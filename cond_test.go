package rtos_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kineticos/rtos"
	"github.com/kineticos/rtos/archsim"
)

// TestCondProducerConsumer: over 10 signals, exactly 10 consumptions
// occur and no two consumers ever observe the same produced value.
func TestCondProducerConsumer(t *testing.T) {
	arch := archsim.NewGoroutine()
	cfg := rtos.DefaultConfig()
	cfg.SysHz = 2000
	k := rtos.NewKernel(cfg, arch, rtos.Hooks{})

	m, err := k.NewMutex()
	require.NoError(t, err)
	c, err := k.NewCond()
	require.NoError(t, err)

	var data int32
	var consumed int32
	var duplicates int32
	seen := make(map[int32]bool)
	var seenMu int32 // spinlock flag for the seen map

	_, err = k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		for n := int32(1); n <= 10; n++ {
			k.Sleep(5)
			require.NoError(t, m.Lock())
			atomic.StoreInt32(&data, n)
			require.NoError(t, m.Unlock())
			c.Signal()
		}
	}, k, rtos.TaskAttr{Name: "producer", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	consumer := func(arg any) {
		k := arg.(*rtos.Kernel)
		for atomic.LoadInt32(&consumed) < 10 {
			require.NoError(t, m.Lock())
			for atomic.LoadInt32(&data) == 0 {
				if err := c.Wait(m); err != nil {
					_ = m.Unlock()
					return
				}
				if atomic.LoadInt32(&consumed) >= 10 {
					_ = m.Unlock()
					return
				}
			}
			v := atomic.SwapInt32(&data, 0)
			require.NoError(t, m.Unlock())

			for !atomic.CompareAndSwapInt32(&seenMu, 0, 1) {
				k.Yield()
			}
			if seen[v] {
				atomic.AddInt32(&duplicates, 1)
			}
			seen[v] = true
			atomic.StoreInt32(&seenMu, 0)

			atomic.AddInt32(&consumed, 1)
		}
	}
	_, err = k.Create(consumer, k, rtos.TaskAttr{Name: "U2", Prio: 1, StackSize: 4096})
	require.NoError(t, err)
	_, err = k.Create(consumer, k, rtos.TaskAttr{Name: "U3", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	go func() {
		for i := 0; i < 400 && atomic.LoadInt32(&consumed) < 10; i++ {
			time.Sleep(10 * time.Millisecond)
		}
		arch.Stop()
	}()
	require.NoError(t, k.Start())

	require.Equal(t, int32(10), atomic.LoadInt32(&consumed))
	require.Equal(t, int32(0), atomic.LoadInt32(&duplicates))
}

// TestCondDestroyWhileBlocked: destroying a condvar while a task is
// blocked in Wait reports ErrBlocking rather than freeing the record
// out from under the waiter.
func TestCondDestroyWhileBlocked(t *testing.T) {
	arch := archsim.NewGoroutine()
	k := rtos.NewKernel(rtos.DefaultConfig(), arch, rtos.Hooks{})

	m, err := k.NewMutex()
	require.NoError(t, err)
	c, err := k.NewCond()
	require.NoError(t, err)

	var destroyErr int32 // 1 = ErrBlocking observed, 2 = something else

	_, err = k.Create(func(arg any) {
		require.NoError(t, m.Lock())
		_, _ = c.WaitFor(m, 300)
	}, k, rtos.TaskAttr{Name: "waiter", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	_, err = k.Create(func(arg any) {
		k := arg.(*rtos.Kernel)
		k.Sleep(10)
		if err := c.Destroy(); err == rtos.ErrBlocking {
			atomic.StoreInt32(&destroyErr, 1)
		} else {
			atomic.StoreInt32(&destroyErr, 2)
		}
	}, k, rtos.TaskAttr{Name: "destroyer", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	go func() {
		for i := 0; i < 200 && atomic.LoadInt32(&destroyErr) == 0; i++ {
			time.Sleep(5 * time.Millisecond)
		}
		arch.Stop()
	}()
	require.NoError(t, k.Start())

	require.Equal(t, int32(1), atomic.LoadInt32(&destroyErr))
}

// TestCondWaitForTimeout: an unsignalled bounded wait is woken by
// tick expiry, returns ErrTimeout, and leaves the mutex unlocked so
// the caller can immediately reacquire it.
func TestCondWaitForTimeout(t *testing.T) {
	arch := archsim.NewGoroutine()
	cfg := rtos.DefaultConfig()
	cfg.SysHz = 2000
	k := rtos.NewKernel(cfg, arch, rtos.Hooks{})

	m, err := k.NewMutex()
	require.NoError(t, err)
	c, err := k.NewCond()
	require.NoError(t, err)

	var got int32 // 1 = timed out and reacquired, 2 = wrong result
	_, err = k.Create(func(arg any) {
		require.NoError(t, m.Lock())
		_, werr := c.WaitFor(m, 20)
		if werr != rtos.ErrTimeout {
			atomic.StoreInt32(&got, 2)
			return
		}
		ok, lerr := m.TryLock(rtos.WaitImmediate)
		if ok && lerr == nil {
			_ = m.Unlock()
			atomic.StoreInt32(&got, 1)
		} else {
			atomic.StoreInt32(&got, 2)
		}
	}, k, rtos.TaskAttr{Name: "waiter", Prio: 1, StackSize: 4096})
	require.NoError(t, err)

	go func() {
		for i := 0; i < 400 && atomic.LoadInt32(&got) == 0; i++ {
			time.Sleep(5 * time.Millisecond)
		}
		arch.Stop()
	}()
	require.NoError(t, k.Start())

	require.Equal(t, int32(1), atomic.LoadInt32(&got))
}

// TestCondDestroyTwice: init then destroy with no waiters succeeds;
// the second destroy sees the cleared validity tag.
func TestCondDestroyTwice(t *testing.T) {
	k := rtos.NewKernel(rtos.DefaultConfig(), archsim.NewGoroutine(), rtos.Hooks{})
	c, err := k.NewCond()
	require.NoError(t, err)
	require.NoError(t, c.Destroy())
	require.Equal(t, rtos.ErrInvalid, c.Destroy())
}
