// Package kernel implements a preemptive, priority-based real-time
// scheduler core: an O(1) ready-queue dispatcher, delayed and blocked
// task bookkeeping, priority-inheritance mutexes, counting semaphores,
// bounded message queues and software timers driven by a single tick
// source. It has no dependency on any particular MCU; callers bind a
// Port implementation before Init.
package kernel

import (
	"unsafe"

	"github.com/tomorares/mrtos/kernel/trust"
)

// kernelState is the scheduler's private singleton. There is exactly one
// per process — a real firmware image has exactly one CPU to schedule,
// and the host simulation only ever needs one scheduler under test at a
// time, so this stays a package var rather than a constructor-returned
// handle.
type kernelState struct {
	cfg Config

	ready *readyStruct
	delay delayList // tasks waiting on a timeout, sorted by wakeTick

	current *Task
	idle    Task

	tickCount uint32
	running   bool

	// lockDepth > 0 disallows preemption without disallowing interrupts;
	// PLock/PUnlock nest via this counter. A tick that fires while locked
	// still advances tickCount and wakes delayed tasks, but defers the
	// resulting RequestSwitch until PUnlock reaches zero.
	lockDepth     int
	switchPending bool

	timers timerList

	stats Stats
}

var k kernelState

// Init prepares the scheduler to run: it validates cfg, builds the ready
// structure, and creates the idle task. BindPort must already have been
// called. Init does not start scheduling; call Start for that.
func Init(cfg Config) Status {
	if port == nil {
		return StatusState
	}
	if cfg.IdleStack == nil || len(cfg.IdleStack) < MinStackWords {
		return StatusParam
	}

	k = kernelState{cfg: cfg}
	k.ready = newReadyStruct(cfg.maxPriorities())
	k.timers = timerList{}

	idlePriority := cfg.maxPriorities() - 1
	status := CreateTask(&k.idle, "idle", idlePriority, cfg.IdleStack, idleBody, nil)
	if status != StatusOK {
		return status
	}
	trust.Infof("kernel initialized: %d priority levels, %d Hz tick", cfg.maxPriorities(), cfg.tickRateHz())
	return StatusOK
}

func idleBody(arg unsafe.Pointer) {
	for {
		port.Idle()
	}
}

// Start hands control to the scheduler and never returns. It picks the
// highest-priority ready task (always at least the idle task) and enters
// it via the port.
func Start() {
	state := k.enter()
	k.running = true
	next := k.ready.popHighest()
	k.exit(state)

	k.dispatch(next)
	port.Enter(next)
}

// dispatch marks t Running and current, without touching the ready
// structure — callers that pulled t off the ready list already did that.
func (k *kernelState) dispatch(t *Task) {
	t.state = TaskRunning
	k.current = t
	if k.cfg.EnableStats {
		t.runCount++
		k.stats.ContextSwitches++
	}
}

// IsRunning reports whether Start has been called.
func IsRunning() bool { return k.running }

// Now returns the current tick count.
func Now() uint32 { return k.tickCount }

// Current returns the task currently executing, or nil before Start.
func Current() *Task { return k.current }

// InISR reports whether the caller is in interrupt context.
func InISR() bool {
	if port == nil {
		return false
	}
	return port.InISR()
}

// enter begins a critical section (masks interrupts) and returns the
// token exit needs to restore the prior state. Every kernel entry point
// that touches shared scheduler state brackets it with enter/exit.
func (k *kernelState) enter() uintptr {
	return port.MaskInterrupts()
}

func (k *kernelState) exit(state uintptr) {
	port.RestoreInterrupts(state)
}

// PLock defers preemption without masking interrupts, so ISRs still run
// and can still record work (waking a delayed task, posting a
// semaphore), but the resulting context switch is held off until
// PUnlock. Nests.
func PLock() {
	state := k.enter()
	k.lockDepth++
	k.exit(state)
}

// PUnlock reverses one PLock. When the nesting count reaches zero and an
// ISR left a switch pending, it is requested now.
func PUnlock() {
	state := k.enter()
	k.lockDepth--
	pending := k.lockDepth == 0 && k.switchPending
	if pending {
		k.switchPending = false
	}
	k.exit(state)
	if pending {
		port.RequestSwitch()
	}
}

// wantsSwitch decides, under the critical section, whether the caller
// should ask the port for a switch once it has released that section.
// changed reports whether the ready structure's highest-priority task
// might have; wantsSwitch answers false either because nothing changed,
// the scheduler isn't running yet, or a PLock is active — in the last
// case it records the request for PUnlock to replay instead.
//
// Callers must call this before releasing their critical section and
// call port.RequestSwitch only after releasing it: the port is free to
// perform the switch synchronously (the simulated port does), which
// would deadlock re-entering the same critical section otherwise.
func (k *kernelState) wantsSwitch(changed bool) bool {
	if !changed || !k.running {
		return false
	}
	if k.lockDepth > 0 {
		k.switchPending = true
		return false
	}
	return true
}

// Yield gives up the remainder of the current task's time slice to any
// other ready task of equal or higher priority.
func Yield() {
	state := k.enter()
	if k.current != nil {
		k.ready.add(k.current)
	}
	needSwitch := k.wantsSwitch(true)
	k.exit(state)
	if needSwitch {
		port.RequestSwitch()
	}
}

// SchedulerEntry is the bookkeeping half of a context switch: the port's
// deferred-switch interrupt handler calls it after saving the outgoing
// task's stack pointer and before restoring the incoming one. It picks
// the next task to run, updates current/state, and returns it; the port
// is responsible for the actual register save/restore around the call.
func SchedulerEntry() *Task {
	state := k.enter()
	prev := k.current
	if prev != nil && prev.state == TaskRunning {
		k.ready.add(prev)
	}
	next := k.ready.popHighest()
	if next == nil {
		// The idle task is always ready or running; the ready structure
		// should never go empty once Init has run.
		trust.Fatalf("ready structure empty with scheduler running")
	}
	k.dispatch(next)
	k.exit(state)
	return next
}
