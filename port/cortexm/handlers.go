package cortexm

import (
	"unsafe"

	"github.com/tomorares/mrtos/kernel"
)

// SysTick_Handler is the periodic tick interrupt. It is an ordinary
// (non-naked) exception handler: SysTick's own hardware frame already
// protects every register kernel.Tick touches, so there is nothing
// special about calling into Go here the way there is for PendSV.
//
//go:export SysTick_Handler
func SysTick_Handler() {
	kernel.Tick()
}

// pendSVSwitch is the Go half of the deferred context switch. The naked
// PendSV assembly stub calls it after saving the outgoing task's
// callee-saved registers and capturing its resulting stack pointer; it
// records that pointer against the outgoing Task, asks the scheduler
// which task runs next, and hands the stub back that task's saved stack
// pointer to restore into PSP before the stub's exception return.
//
//go:export _pendsv_switch
func pendSVSwitch(outgoingSP uintptr) uintptr {
	if outgoing := kernel.Current(); outgoing != nil {
		outgoing.StackPtr = unsafe.Pointer(outgoingSP)
	}
	next := kernel.SchedulerEntry()
	return uintptr(next.StackPtr)
}
