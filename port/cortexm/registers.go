package cortexm

import (
	"runtime/volatile"
	"unsafe"
)

// Register layouts follow the ARMv7-M architecture reference manual,
// covering just the System Control Block and SysTick fields the
// scheduler port actually touches.

type systickRegs struct {
	CSR   sysTickCSR
	RVR   sysTickRVR
	CVR   sysTickCVR
	CALIB uint32
}

type sysTickCSR uint32

func (r *sysTickCSR) Get() uint32 { return volatile.LoadUint32((*uint32)(r)) }
func (r *sysTickCSR) Set(v uint32) { volatile.StoreUint32((*uint32)(r), v) }

func (r *sysTickCSR) SetENABLE(enable bool)    { r.setBit(0, enable) }
func (r *sysTickCSR) SetTICKINT(enable bool)   { r.setBit(1, enable) }
func (r *sysTickCSR) SetCLKSOURCE(enable bool) { r.setBit(2, enable) }

func (r *sysTickCSR) setBit(bit uint, set bool) {
	v := r.Get()
	if set {
		v |= 1 << bit
	} else {
		v &^= 1 << bit
	}
	r.Set(v)
}

type sysTickRVR uint32

func (r *sysTickRVR) SetRELOAD(v uint32) { volatile.StoreUint32((*uint32)(r), v&0x00FFFFFF) }

type sysTickCVR uint32

func (r *sysTickCVR) SetVALUE(uint32) { volatile.StoreUint32((*uint32)(r), 0) } // any write clears it

var syst = (*systickRegs)(unsafe.Pointer(uintptr(0xE000E010)))

// scbRegs covers the System Control Block registers the port needs:
// ICSR (to pend/observe PendSV and SysTick) and SHPR3 (to set PendSV's
// exception priority to the lowest value the implementation supports).
type scbRegs struct {
	_     [4]byte // CPUID
	ICSR  uint32
	_     [16]byte // VTOR, AIRCR, SCR, CCR
	SHPR1 volatile.Register32
	SHPR2 volatile.Register32
	SHPR3 volatile.Register32
}

var scb = (*scbRegs)(unsafe.Pointer(uintptr(0xE000ED00)))

const (
	icsrPendSVSet = 1 << 28 // PENDSVSET
	icsrPendSTSet = 1 << 26 // PENDSTSET, read-only status of a pending SysTick

	// pendSVLowestPriority shifts 0xFF into SHPR3's PendSV priority byte
	// (bits 23:16), the lowest priority a Cortex-M4's typical 4-bit or
	// 8-bit priority field can express, so PendSV never preempts any
	// other configured interrupt.
	pendSVLowestPriority = 0xFF << 16

	thumbBit               = 0x01000000
	exceptionReturnThread  = 0xFFFFFFFD // return to Thread mode, use PSP, no FP state
)
