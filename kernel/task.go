package kernel

import (
	"unsafe"

	"github.com/tomorares/mrtos/kernel/trust"
)

// TaskState is where a task sits in the scheduler's bookkeeping.
type TaskState int

const (
	TaskReady TaskState = iota
	TaskRunning
	TaskBlocked
	TaskSuspended
)

func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskBlocked:
		return "blocked"
	case TaskSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

const maxTaskName = 16

// Task is the kernel's task control block. StackPtr must stay the first
// field: the assembly context-switch handler on the real port reaches it
// at a fixed zero offset from a *Task without knowing about any other
// field, so nothing may ever be inserted above it.
type Task struct {
	StackPtr unsafe.Pointer

	// prev/next link this task into exactly one of: a ready FIFO or a
	// wait list (semaphore/mutex/queue). A Running or Suspended task is
	// on neither.
	prev, next *Task

	// dprev/dnext link this task into the delay list, independently of
	// prev/next: a blocking call with a finite timeout puts a task on a
	// wait list and the delay list at once, so the two memberships need
	// separate storage or the second link would clobber the first.
	dprev, dnext *Task

	name         [maxTaskName]byte
	nameLen      int
	basePriority int
	priority     int // current priority; boosted by mutex priority inheritance
	state        TaskState

	// wakeTick is the absolute tick this task should be moved back to
	// ready by, or noTimeoutWake if it is not waiting on a timeout.
	wakeTick uint32

	// waitObject is the sync object this task is blocked on, or nil.
	// blockCurrent sets it; Tick's timeout path and finishBlockingCall
	// clear it. Suspend reads it to tell a sync-object wait from a plain
	// Delay/DelayUntil. Whether a resumed call was granted or timed out
	// is read from timedOut, not from waitObject.
	waitObject any

	// waitList is the taskList (a semaphore/mutex/queue's wait list) that
	// prev/next currently link t into, or nil if t isn't queued on one.
	// blockCurrent sets it, wake clears it; Tick's timeout path reads it
	// to unlink t from that list before ready.add relinks prev/next for
	// the ready FIFO, since both lists share those fields.
	waitList *taskList

	// timedOut is set by the delay-list timeout path and read once the
	// blocked call resumes, so it can build the right Status without
	// racing the waker over waitObject.
	timedOut bool

	stack     []uint32 // full caller-provided region, for overflow/watermark checks
	stackBase uintptr

	fn  TaskFunc
	arg unsafe.Pointer

	runCount uint64
}

// Name returns the task's label, truncated to what CreateTask stored.
func (t *Task) Name() string {
	return string(t.name[:t.nameLen])
}

func (t *Task) Priority() int    { return t.priority }
func (t *Task) State() TaskState { return t.state }
func (t *Task) RunCount() uint64 { return t.runCount }

// CreateTask initializes t to run fn(arg) on stack once the scheduler
// first dispatches it, and makes it ready. Callers own the storage for
// both t and stack; the kernel never allocates either.
//
// fn and stack must be non-nil, priority must be within the configured
// range, and stack must be at least MinStackWords words. name is copied
// and silently truncated rather than rejected, since it is stored in a
// fixed-size buffer.
func CreateTask(t *Task, name string, priority int, stack []uint32, fn TaskFunc, arg unsafe.Pointer) Status {
	if t == nil || fn == nil || stack == nil {
		return StatusParam
	}
	if priority < 0 || priority >= k.cfg.maxPriorities() {
		return StatusParam
	}
	if len(stack) < MinStackWords {
		return StatusParam
	}

	*t = Task{}
	n := copy(t.name[:], name)
	t.nameLen = n
	t.basePriority = priority
	t.priority = priority
	t.state = TaskSuspended
	t.stack = stack
	t.stackBase = uintptr(unsafe.Pointer(&stack[0]))
	t.fn = fn
	t.arg = arg

	if k.cfg.EnableStackCheck {
		for i := range stack {
			stack[i] = stackFillWord
		}
	}

	port.Spawn(t, stack, fn, arg)

	state := k.enter()
	k.ready.add(t)
	preempt := k.wantsSwitch(t.priority < k.currentPriority())
	k.exit(state)

	trust.Debugf("task %q created at priority %d", t.Name(), priority)

	if preempt {
		port.RequestSwitch()
	}
	return StatusOK
}

// Suspend removes t from scheduling until a matching Resume, or suspends
// the calling task if t is nil. A task already suspended cannot be
// suspended again. Suspending a task blocked on a sync object's wait
// list leaves that membership alone — only a plain delay (Delay,
// DelayUntil, no waitObject) is unlinked from the delay list here. If
// the original wait's timeout later elapses while t is still suspended,
// Tick unlinks t from the wait list and drops the stale delay-list entry
// but leaves t suspended; it does not ready t out from under Suspend.
func Suspend(t *Task) Status {
	state := k.enter()
	if t == nil {
		t = k.current
	}
	if t == nil {
		k.exit(state)
		return StatusParam
	}
	if t.state == TaskSuspended {
		k.exit(state)
		return StatusState
	}

	if t.state == TaskReady {
		k.ready.remove(t)
	}
	if t.state == TaskBlocked && t.waitObject == nil {
		k.delay.remove(t)
		t.wakeTick = noTimeoutWake
	}
	t.state = TaskSuspended

	self := t == k.current
	needSwitch := false
	if self {
		needSwitch = k.wantsSwitch(true)
	}
	k.exit(state)
	if self && needSwitch {
		port.RequestSwitch()
	}
	return StatusOK
}

// Resume makes a suspended task ready again. Resuming a task that isn't
// suspended is a state error rather than a no-op, so callers can detect
// a double-resume or a resume racing a self-wake.
func Resume(t *Task) Status {
	if t == nil {
		return StatusParam
	}
	state := k.enter()
	if t.state != TaskSuspended {
		k.exit(state)
		return StatusState
	}
	k.ready.add(t)
	preempt := k.wantsSwitch(t.priority < k.currentPriority())
	k.exit(state)
	if preempt {
		port.RequestSwitch()
	}
	return StatusOK
}

// StackUnused returns the number of never-touched bytes at the bottom of
// t's stack, found by counting untouched sentinel words upward from the
// lowest address. Returns 0 if stack checking wasn't enabled at Init.
func (t *Task) StackUnused() int {
	if !k.cfg.EnableStackCheck || t.stack == nil {
		return 0
	}
	unused := 0
	for _, w := range t.stack {
		if w != stackFillWord {
			break
		}
		unused++
	}
	return unused * 4
}

// StackOverflowed reports whether the sentinel word at the lowest address
// of t's stack has been overwritten, which is what happens first when a
// task runs its stack past its declared bottom. Returns false if stack
// checking wasn't enabled at Init.
func (t *Task) StackOverflowed() bool {
	if !k.cfg.EnableStackCheck || t.stack == nil {
		return false
	}
	return t.stack[0] != stackFillWord
}

// currentPriority returns the current task's (possibly inherited)
// priority, or the number of priority levels (lower than anything real)
// if no task is current yet.
func (k *kernelState) currentPriority() int {
	if k.current == nil {
		return k.cfg.maxPriorities()
	}
	return k.current.priority
}
