package kernel

import "unsafe"

// TaskFunc is a task's entry point. The argument is an opaque pointer —
// the kernel never allocates it and never interprets it.
type TaskFunc func(arg unsafe.Pointer)

// Port is the platform contract external collaborators must satisfy: a
// periodic tick source, a deferred lowest-priority switch interrupt,
// global interrupt masking, and a way to move the CPU between task
// stacks. kernel never assumes anything about interrupts, register
// windows or exception return beyond what this interface expresses.
//
// Modeled after src/joy/family.go's FamilyAPIDef interface pattern: the
// kernel core is written entirely against this interface, and a single
// package-level implementation is bound once, via BindPort, before Init.
type Port interface {
	// MaskInterrupts globally disables interrupts and returns a token
	// that RestoreInterrupts can use to put the previous state back,
	// supporting nesting.
	MaskInterrupts() uintptr

	// RestoreInterrupts undoes MaskInterrupts.
	RestoreInterrupts(state uintptr)

	// RequestSwitch asks for the deferred context switch to run. On real
	// hardware this pends the lowest-priority switch interrupt and
	// returns immediately, deferring the actual register save/restore
	// until every higher-priority ISR has drained. It must be safe to
	// call from both task and ISR context.
	RequestSwitch()

	// InISR reports whether the caller is currently executing in
	// interrupt context.
	InISR() bool

	// Idle parks the CPU until the next interrupt. Called only by the
	// idle task's body.
	Idle()

	// Spawn prepares t to begin executing fn(arg) the first time the
	// scheduler dispatches it. stack is t's caller-provided stack
	// storage; Spawn composes whatever initial register image the port
	// needs there.
	Spawn(t *Task, stack []uint32, fn TaskFunc, arg unsafe.Pointer)

	// Enter performs the very first dispatch to t. On real hardware this
	// installs t's stack pointer and never returns to the caller; the
	// simulated port blocks the calling goroutine instead, giving the
	// same never-returns contract to kernel.Start.
	Enter(t *Task)
}

var port Port

// BindPort installs the platform implementation. Must be called once,
// before Init.
func BindPort(p Port) {
	port = p
}
