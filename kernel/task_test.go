package kernel

import (
	"testing"
	"unsafe"
)

// These exercise only CreateTask's up-front validation, which returns
// before touching the port or any scheduler state, so they are safe to
// run without a bound Port or a call to Init.
func TestCreateTaskValidatesParams(t *testing.T) {
	var tcb Task
	stack := make([]uint32, MinStackWords)
	noop := func(unsafe.Pointer) {}

	if got := CreateTask(nil, "x", 0, stack, noop, nil); got != StatusParam {
		t.Errorf("nil task: got %v, want StatusParam", got)
	}
	if got := CreateTask(&tcb, "x", 0, stack, nil, nil); got != StatusParam {
		t.Errorf("nil fn: got %v, want StatusParam", got)
	}
	if got := CreateTask(&tcb, "x", 0, nil, noop, nil); got != StatusParam {
		t.Errorf("nil stack: got %v, want StatusParam", got)
	}
	if got := CreateTask(&tcb, "x", -1, stack, noop, nil); got != StatusParam {
		t.Errorf("negative priority: got %v, want StatusParam", got)
	}
	// k.cfg is the zero Config here (no Init call in this test binary
	// yet), so maxPriorities() clamps to 1: priority 1 is already out of
	// range without needing a real configuration.
	if got := CreateTask(&tcb, "x", 1, stack, noop, nil); got != StatusParam {
		t.Errorf("priority beyond configured range: got %v, want StatusParam", got)
	}
	if got := CreateTask(&tcb, "x", 0, make([]uint32, MinStackWords-1), noop, nil); got != StatusParam {
		t.Errorf("undersized stack: got %v, want StatusParam", got)
	}
}
