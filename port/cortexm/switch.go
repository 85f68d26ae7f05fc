package cortexm

import "unsafe"

// The handful of operations below cannot be expressed in portable Go:
// reading a special register into a value, or moving the stack pointer
// out from under the currently executing function. They are declared
// as extern symbols the linker resolves against a small hand-written
// assembly file shipped with the board support package, never against
// Go source in this module.
//
//sigo:extern _read_primask _read_primask
func _read_primask() uintptr

//sigo:extern _read_ipsr _read_ipsr
func _read_ipsr() uintptr

//sigo:extern _set_psp _set_psp
func _set_psp(sp uintptr)

// _task_trampoline is the address every spawned task's initial exception
// frame returns PC to. It pulls fn/arg out of R4/R5 (placed there by the
// software-stacked half of the frame Spawn composes) and calls fn(arg);
// if fn ever returns, it hands control to a fatal handler instead of
// falling off the end of the task's stack.
//
//sigo:extern _task_trampoline _task_trampoline
var _task_trampoline unsafe.Pointer

func readPRIMASK() uintptr { return _read_primask() }
func readIPSR() uintptr    { return _read_ipsr() }
func setPSP(sp uintptr)    { _set_psp(sp) }

var taskTrampolineAddr = &_task_trampoline

// fnToWord extracts the code pointer of a TaskFunc closure. TaskFunc
// values built from CreateTask are always non-capturing top-level
// functions in this kernel's usage, so the closure has no environment
// pointer to preserve; only the code address is needed on the stack
// frame R4 carries to _task_trampoline.
func fnToWord(fn func(unsafe.Pointer)) uintptr {
	type funcValue struct {
		fn uintptr
	}
	return (*funcValue)(unsafe.Pointer(&fn)).fn
}

// stackFrame is the eight hardware-stacked words a Cortex-M exception
// entry/return pushes and pops automatically: R0-R3, R12, LR, PC, xPSR.
// Spawn only needs to set the ones that matter for a fresh task; the
// rest start zeroed.
type stackFrame struct {
	r0, r1, r2, r3 uintptr
	r12            uintptr
	lr             uintptr
	pc             uintptr
	xPSR           uintptr
}

const frameSizeWords = 8

// softFrame is the eight callee-saved registers (R4-R11) the PendSV
// handler pushes and pops by hand, below the hardware frame in memory.
type softFrame struct {
	r4, r5, r6, r7, r8, r9, r10, r11 uintptr
}

const softFrameSizeWords = 8

func writeExceptionFrame(dst []uint32, f stackFrame) {
	dst[0] = uint32(f.r0)
	dst[1] = uint32(f.r1)
	dst[2] = uint32(f.r2)
	dst[3] = uint32(f.r3)
	dst[4] = uint32(f.r12)
	dst[5] = uint32(f.lr)
	dst[6] = uint32(f.pc)
	dst[7] = uint32(f.xPSR)
}

func writeStackFrame(dst []uint32, f softFrame) {
	dst[0] = uint32(f.r4)
	dst[1] = uint32(f.r5)
	dst[2] = uint32(f.r6)
	dst[3] = uint32(f.r7)
	dst[4] = uint32(f.r8)
	dst[5] = uint32(f.r9)
	dst[6] = uint32(f.r10)
	dst[7] = uint32(f.r11)
}
