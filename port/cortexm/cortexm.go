// Package cortexm is the real-hardware Port implementation, targeting a
// single ARM Cortex-M4 core. It masks interrupts through PRIMASK, defers
// context switches to the PendSV exception at its lowest priority so a
// switch never preempts a higher-priority ISR, and drives the tick from
// SysTick.
//
// Register access follows runtime/volatile's load/store wrappers so the
// compiler never reorders or elides accesses to memory-mapped hardware;
// interrupt masking follows device/arm's inline-asm wrappers for
// CPSID/CPSIE and MRS/MSR against PRIMASK.
package cortexm

import (
	"device/arm"
	"machine"
	"runtime/volatile"
	"unsafe"

	"github.com/tomorares/mrtos/kernel"
)

// Port is the Cortex-M4 Port. There is normally exactly one, bound once
// at startup before kernel.Init.
type Port struct {
	tickHz uint32
}

// New returns a Port that will drive the tick at tickHz once Configure
// has programmed SysTick.
func New(tickHz uint32) *Port {
	return &Port{tickHz: tickHz}
}

// Configure programs SysTick to interrupt at the port's configured tick
// rate and sets PendSV to the lowest exception priority, so the deferred
// context switch never preempts any other interrupt handler — it only
// ever runs once every ISR that mattered more has finished.
func (p *Port) Configure() {
	scb.SHPR3.Set(scb.SHPR3.Get() | pendSVLowestPriority)

	reload := machine.CPUFrequency()/p.tickHz - 1
	syst.RVR.SetRELOAD(reload)
	syst.CVR.SetVALUE(0)
	syst.CSR.SetCLKSOURCE(true)
	syst.CSR.SetTICKINT(true)
	syst.CSR.SetENABLE(true)
}

// MaskInterrupts disables interrupts globally and returns the prior
// PRIMASK value, so nested critical sections restore correctly.
func (p *Port) MaskInterrupts() uintptr {
	state := readPRIMASK()
	arm.Asm("cpsid i")
	return state
}

// RestoreInterrupts puts PRIMASK back to what MaskInterrupts observed;
// it only actually re-enables interrupts when state shows they were
// enabled going in, so nested calls compose correctly.
func (p *Port) RestoreInterrupts(state uintptr) {
	if state == 0 {
		arm.Asm("cpsie i")
	}
}

// RequestSwitch pends the PendSV exception and returns immediately. The
// actual register save/restore happens later, in the PendSV handler,
// once every higher-priority interrupt has drained — this is what makes
// the switch deferred rather than immediate.
func (p *Port) RequestSwitch() {
	volatile.StoreUint32(&scb.ICSR, icsrPendSVSet)
}

// InISR reports whether the active exception number (IPSR) is non-zero.
func (p *Port) InISR() bool {
	return readIPSR() != 0
}

// Idle executes WFI: park the core until any interrupt, including
// SysTick, wakes it. It is always safe to call with interrupts enabled;
// WFI itself is interruptible.
func (p *Port) Idle() {
	arm.Asm("wfi")
}

// Spawn composes the initial exception-return stack frame a Cortex-M
// core expects when PendSV's exception return loads this task's stack
// for the first time: the eight hardware-stacked registers (xPSR, PC,
// LR, R12, R3-R0) followed by the eight software-stacked registers
// (R11-R4) that the PendSV handler's epilogue restores explicitly.
//
// The entry point actually placed in PC is a small trampoline,
// taskTrampoline, so the task's real fn/arg survive in R4/R5 across the
// one register window the hardware frame doesn't carry: fn's Go closure
// value and arg both need two words, more than R0 alone offers, so
// taskTrampoline receives them from the software-stacked registers
// rather than the hardware ones.
func (p *Port) Spawn(t *kernel.Task, stack []uint32, fn kernel.TaskFunc, arg unsafe.Pointer) {
	top := len(stack)

	frame := stackFrame{
		xPSR: thumbBit,
		pc:   uintptr(unsafe.Pointer(taskTrampolineAddr)),
		lr:   exceptionReturnThread,
	}
	// Software-stacked registers below the hardware frame; R4 carries fn,
	// R5 carries arg. taskTrampoline reads them back out and calls fn(arg).
	soft := softFrame{
		r4: fnToWord(fn),
		r5: uintptr(arg),
	}

	frameWords := frameSizeWords + softFrameSizeWords
	base := top - frameWords
	writeStackFrame(stack[base:base+softFrameSizeWords], soft)
	writeExceptionFrame(stack[base+softFrameSizeWords:top], frame)

	t.StackPtr = unsafe.Pointer(&stack[base])
}

// Enter installs t's stack pointer as the active process stack and
// triggers the very first exception return into it. It never returns.
func (p *Port) Enter(t *kernel.Task) {
	setPSP(uintptr(t.StackPtr))
	arm.Asm("cpsie i")
	volatile.StoreUint32(&scb.ICSR, icsrPendSVSet)
	for {
		arm.Asm("wfi")
	}
}
