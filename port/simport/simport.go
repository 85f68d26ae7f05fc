// Package simport is a host-only Port implementation: it stands in for
// real interrupt hardware using goroutines and channels, so the
// scheduler core, and code written against it, can be exercised and
// tested without a Cortex-M target. Every kernel task is a live
// goroutine that starts and resumes only when a scheduler handoff sends
// on its own resume channel, rather than by hardware register windows.
// A handoff requested from the simulated tick resumes the incoming task
// without pausing the outgoing one (see Port).
package simport

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/tomorares/mrtos/kernel"
)

// Port is a simport instance. Bind it with kernel.BindPort before
// kernel.Init.
//
// This is a cooperative approximation, not a CPU emulator: a task
// goroutine only ever pauses at a kernel call (Wait/Lock/Send/Recv/
// Yield), so two tasks can run truly concurrently on the host between
// those points the way they never could on the single core this models.
// It is enough to exercise scheduling order, priority inheritance and
// timeout semantics deterministically in tests; it is not a substitute
// for running on target hardware.
type Port struct {
	// critSec stands in for disabling the NVIC globally: exactly one
	// goroutine may be inside a MaskInterrupts/RestoreInterrupts bracket
	// at a time, so kernel package state never sees concurrent mutation
	// from two task goroutines or the simulated tick goroutine racing
	// each other. No kernel call path masks interrupts twice without an
	// intervening restore on the same goroutine, so a plain (non
	// reentrant) mutex is sufficient here.
	critSec sync.Mutex

	mu sync.Mutex // guards slots, independent of critSec

	// slots maps each live task to the channel that resumes its
	// goroutine. A goroutine blocks by receiving from its own channel;
	// whoever hands off the CPU sends on it.
	slots map[*kernel.Task]*taskSlot

	idleCh chan struct{}

	inISR int32 // 1 while executing Tick from the simulated tick goroutine
}

type taskSlot struct {
	resume chan struct{}
}

// New returns a fresh simulated port. Each kernel.Init/Start cycle
// (e.g. once per test) should bind a new Port.
func New() *Port {
	return &Port{
		slots:  make(map[*kernel.Task]*taskSlot),
		idleCh: make(chan struct{}, 1),
	}
}

// MaskInterrupts acquires the simulated global critical section. The
// returned token is unused (always 0); real nesting support belongs to
// the hardware port, where PRIMASK genuinely has a prior value to save.
func (p *Port) MaskInterrupts() uintptr {
	p.critSec.Lock()
	return 0
}

// RestoreInterrupts releases the simulated global critical section.
func (p *Port) RestoreInterrupts(state uintptr) {
	p.critSec.Unlock()
}

func (p *Port) InISR() bool {
	return atomic.LoadInt32(&p.inISR) == 1
}

// Idle blocks the idle task's goroutine until something wakes it, in
// lieu of a real WFI instruction.
func (p *Port) Idle() {
	<-p.idleCh
}

func (p *Port) wakeIdle() {
	select {
	case p.idleCh <- struct{}{}:
	default:
	}
}

// Spawn starts t's goroutine. It does not run yet: it immediately blocks
// on its resume channel, and only proceeds once Enter or a scheduler
// handoff signals it. stack is accepted for interface compatibility and
// ignored — a goroutine has its own real stack, so there is no register
// image to compose here the way the assembly port must.
func (p *Port) Spawn(t *kernel.Task, stack []uint32, fn kernel.TaskFunc, arg unsafe.Pointer) {
	slot := &taskSlot{resume: make(chan struct{})}
	p.mu.Lock()
	p.slots[t] = slot
	p.mu.Unlock()

	go func() {
		<-slot.resume
		fn(arg)
		// A task function returning is fatal on real hardware (there is
		// nowhere for it to return to); here we just stop scheduling it.
		p.retire(t)
	}()
}

func (p *Port) retire(t *kernel.Task) {
	p.mu.Lock()
	delete(p.slots, t)
	p.mu.Unlock()
}

// Enter performs the first dispatch and then blocks forever, giving
// kernel.Start the same "never returns" contract the real port has.
func (p *Port) Enter(t *kernel.Task) {
	p.resumeTask(t)
	select {}
}

func (p *Port) resumeTask(t *kernel.Task) {
	p.mu.Lock()
	slot := p.slots[t]
	p.mu.Unlock()
	if slot == nil {
		return
	}
	if t == kernel.Current() && t.State() == kernel.TaskRunning {
		p.wakeIdle()
	}
	select {
	case slot.resume <- struct{}{}:
	default:
	}
}

// RequestSwitch performs the handoff synchronously: since there is no
// real hardware interrupt to defer to, it directly calls the scheduler's
// bookkeeping half and resumes whichever goroutine it picked. If the
// caller is itself a task goroutine (not the simulated tick interrupt),
// it then blocks that goroutine until it is scheduled back in — the
// same "this call frame doesn't return until rescheduled" contract the
// real assembly port gives via stack switching.
func (p *Port) RequestSwitch() {
	outgoing := kernel.Current()
	next := kernel.SchedulerEntry()

	if next != outgoing {
		p.mu.Lock()
		nextSlot := p.slots[next]
		p.mu.Unlock()
		if nextSlot != nil {
			select {
			case nextSlot.resume <- struct{}{}:
			default:
			}
		} else {
			p.wakeIdle()
		}
	}

	if p.InISR() {
		// Called from the simulated tick interrupt: there is no task
		// call frame here to suspend.
		return
	}
	if next == outgoing {
		return
	}

	p.mu.Lock()
	outSlot := p.slots[outgoing]
	p.mu.Unlock()
	if outSlot == nil {
		return
	}
	<-outSlot.resume
}

// RunTick drives the simulated periodic tick source: it marks the
// caller as interrupt context, runs kernel.Tick, then clears it. Meant
// to be called from a dedicated ticker goroutine (see cmd/demo), never
// from a task.
func (p *Port) RunTick() {
	atomic.StoreInt32(&p.inISR, 1)
	kernel.Tick()
	atomic.StoreInt32(&p.inISR, 0)
}
