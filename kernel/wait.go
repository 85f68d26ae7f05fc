package kernel

// waitList is a priority-ordered list of blocked tasks, shared by
// semaphores, mutexes and queues. Each sync primitive owns one (or two,
// for queues: senders and receivers) and drives it through the
// functions below, which all assume the caller already holds the
// kernel's critical section.

// blockCurrent removes the current task from Running, links it into wl
// in priority order, optionally links it into the delay list for a
// timeout, and records obj as what it is waiting for. It must be called
// with interrupts masked; it does not itself request a switch — the
// caller does that once it has released whatever section it was
// updating.
func (k *kernelState) blockCurrent(wl *taskList, obj any, timeoutMs uint32) *Task {
	t := k.current
	t.state = TaskBlocked
	t.waitObject = obj
	t.timedOut = false
	wl.addByPriority(t)
	t.waitList = wl

	if timeoutMs != WaitForever {
		ticks := msToTicks(timeoutMs, k.cfg.tickRateHz())
		if ticks == 0 {
			ticks = 1
		}
		t.wakeTick = k.tickCount + ticks
		k.delay.addByWakeTick(t)
	} else {
		t.wakeTick = noTimeoutWake
	}
	return t
}

// wake pulls t off whichever wait list it is on and whichever delay-list
// entry it has, and makes it ready. Called with interrupts masked, from
// the waking primitive (Post/Unlock/Send/Recv); Tick's timeout path does
// its own unlinking and does not call wake.
func (k *kernelState) wake(wl *taskList, t *Task) {
	wl.remove(t)
	t.waitList = nil
	if t.wakeTick != noTimeoutWake {
		k.delay.remove(t)
		t.wakeTick = noTimeoutWake
	}
	k.ready.add(t)
}

// finishBlockingCall runs on the resumed task after the scheduler has
// dispatched it back in, outside any critical section. It reports
// whether the wait was satisfied (true) or timed out (false), and
// clears the bookkeeping either way.
func (t *Task) finishBlockingCall() bool {
	granted := !t.timedOut
	t.timedOut = false
	t.waitObject = nil
	return granted
}

// pendSwitchAndBlock is the common tail of every blocking entry point:
// release the critical section, ask the port for a switch, and return
// once this task is scheduled back in. Blocking here means exactly
// "call RequestSwitch and let the port's dispatch loop not come back to
// this call frame until the task is chosen again" — on real hardware
// that is however long every other pending task takes; on the simulated
// port it is a channel receive.
func pendSwitchAndBlock(state uintptr) {
	k.exit(state)
	port.RequestSwitch()
}
