package rtos

import (
	"math/bits"

	"go.uber.org/atomic"
)

// ═══════════════════════════════════════════════════════════════════════════
// KERNEL STATE
// ═══════════════════════════════════════════════════════════════════════════
//
// A Kernel is the single scheduling domain of one simulated (or real)
// core: tick counter, interrupt nesting depth, the ready-priority
// bitmap, one ready queue per priority, the global waiting queue, and
// the all-tasks queue. All fields are unexported and mutated only by
// methods that hold the critical section, so external mutation is
// impossible. It is an explicit constructed value rather than a
// package-level global: a real board constructs exactly one in main,
// and tests can run several kernels in one binary without sharing
// state.

// Hooks are optional callbacks the embedding application wires in to
// observe kernel lifecycle events. The kernel core itself never logs;
// surfacing these events is the caller's choice.
type Hooks struct {
	TaskCreated  func(t *Task)
	TaskDeleted  func(t *Task)
	MutexTimeout func(t *Task)
	CondSignaled func(waiters int)
}

// Kernel is one instance of the scheduler, task lifecycle, and
// blocking-primitive core. Its critical sections are backed entirely
// by arch.IRQSave/IRQRestore (see critical.go); Kernel holds no lock
// of its own.
type Kernel struct {
	cfg  Config
	arch Arch

	running        bool
	scheduleEnable bool
	intrLevel      uint32 // saturates at maxIntrLevel

	// pendSwitch records that ISR exit found a higher-priority winner.
	// The switch out of interrupt context is pended and performed at
	// the next scheduling point on the displaced task's own flow of
	// control, the way a hardware port pends its switch interrupt at
	// ISR exit.
	pendSwitch bool

	sysTicks atomic.Uint64

	// task arena: fixed-capacity slots plus one flat link array per
	// list membership a task can hold
	tasks     []task
	taskUsed  []bool
	freeTasks []int32

	readyPendingLinks []link
	waitingLinks      []link
	allLinks          []link
	condLinks         []link

	readyPrioMask uint32
	readyLists    []taskList
	waitingList   taskList
	allList       taskList

	taskCount int
	nextID    uint32

	current taskIndex
	idle    taskIndex

	mutexes *pool[mutexRecord]
	conds   *pool[condRecord]

	hooks Hooks
}

// NewKernel constructs a Kernel over the given Config and Arch. It
// does not create the idle task or start scheduling; call Start for
// that.
func NewKernel(cfg Config, arch Arch, hooks Hooks) *Kernel {
	n := cfg.MaxTasks
	k := &Kernel{
		cfg:               cfg,
		arch:              arch,
		tasks:             make([]task, n),
		taskUsed:          make([]bool, n),
		freeTasks:         make([]int32, n),
		readyPendingLinks: make([]link, n),
		waitingLinks:      make([]link, n),
		allLinks:          make([]link, n),
		condLinks:         make([]link, n),
		readyLists:        make([]taskList, int(cfg.MaxPrio)+1),
		waitingList:       newTaskList(),
		allList:           newTaskList(),
		current:           nilIndex,
		idle:              nilIndex,
		mutexes:           newPool[mutexRecord](cfg.MaxMutexes),
		conds:             newPool[condRecord](cfg.MaxConds),
		hooks:             hooks,
	}
	for i := 0; i < n; i++ {
		k.freeTasks[i] = int32(n - 1 - i)
	}
	for p := range k.readyLists {
		k.readyLists[p] = newTaskList()
	}
	arch.IRQDisable()
	k.scheduleEnable = false
	return k
}

// highestReadyPrio returns the highest priority with a non-empty
// ready queue. bits.Len32 on the bitmap finds the highest set bit in
// O(1); the idle task keeps the mask non-zero once the kernel runs.
func (k *Kernel) highestReadyPrio() uint8 {
	if k.readyPrioMask == 0 {
		return 0
	}
	return uint8(bits.Len32(k.readyPrioMask) - 1)
}

func (k *Kernel) taskAt(idx taskIndex) *task {
	return &k.tasks[idx]
}

// Running reports whether Start has been called.
func (k *Kernel) Running() bool {
	tok := k.arch.IRQSave()
	defer k.arch.IRQRestore(tok)
	return k.running
}

// TaskCount returns the number of live tasks.
func (k *Kernel) TaskCount() int {
	tok := k.arch.IRQSave()
	defer k.arch.IRQRestore(tok)
	return k.taskCount
}
