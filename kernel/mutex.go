package kernel

// Mutex is a recursive, priority-inheritance mutex. A single task may
// lock it repeatedly; Unlock must be called the same number of times
// before it releases. While held, the owner's effective priority is
// boosted to the priority of the highest-priority task blocked on it —
// one level, not transitively through a chain of mutexes — and restored
// when the mutex is fully unlocked.
type Mutex struct {
	owner     *Task
	lockCount int
	waiters   taskList
	savedPrio int // owner's priority before this mutex's boost, if any
	boosted   bool
}

func MutexInit(m *Mutex) Status {
	if m == nil {
		return StatusParam
	}
	*m = Mutex{}
	return StatusOK
}

// MutexLock blocks until the calling task owns m, or timeoutMs elapses.
// Recursive: a task that already owns m just increments lockCount.
func MutexLock(m *Mutex, timeoutMs uint32) Status {
	if m == nil {
		return StatusParam
	}
	if InISR() {
		return StatusISR
	}

	state := k.enter()
	self := k.current

	if m.owner == nil {
		m.owner = self
		m.lockCount = 1
		k.exit(state)
		return StatusOK
	}
	if m.owner == self {
		m.lockCount++
		k.exit(state)
		return StatusOK
	}
	if timeoutMs == NoWait {
		k.exit(state)
		return StatusTimeout
	}

	// Priority inheritance: if we outrank the owner, lend it our
	// priority for as long as we're waiting, so a lower-priority holder
	// can't be preempted by a mid-priority task and starve us
	// indefinitely (the classic unbounded-priority-inversion scenario).
	if self.priority < m.owner.priority {
		if !m.boosted {
			m.savedPrio = m.owner.priority
			m.boosted = true
		}
		if m.owner.state == TaskReady {
			k.ready.remove(m.owner)
			m.owner.priority = self.priority
			k.ready.add(m.owner)
		} else {
			m.owner.priority = self.priority
		}
	}

	t := k.blockCurrent(&m.waiters, m, timeoutMs)
	pendSwitchAndBlock(state)

	if t.finishBlockingCall() {
		return StatusOK
	}
	return StatusTimeout
}

// MutexTry is MutexLock with an implicit NoWait timeout.
func MutexTry(m *Mutex) Status {
	return MutexLock(m, NoWait)
}

// MutexUnlock releases one level of ownership. Only the owning task may
// call it. When lockCount reaches zero, ownership transfers to the
// highest-priority waiter (if any) and any priority boost this mutex
// applied is undone.
func MutexUnlock(m *Mutex) Status {
	if m == nil {
		return StatusParam
	}
	state := k.enter()
	self := k.current
	if m.owner != self {
		k.exit(state)
		return StatusState
	}
	m.lockCount--
	if m.lockCount > 0 {
		k.exit(state)
		return StatusOK
	}

	if m.boosted {
		restorePriority(self, m.savedPrio)
		m.boosted = false
	}

	if m.waiters.empty() {
		m.owner = nil
		k.exit(state)
		return StatusOK
	}

	next := m.waiters.head
	m.owner = next
	m.lockCount = 1
	k.wake(&m.waiters, next)
	needSwitch := k.wantsSwitch(true)
	k.exit(state)
	if needSwitch {
		port.RequestSwitch()
	}
	return StatusOK
}

// restorePriority puts t back to saved, the priority t had when the
// mutex being released first boosted it. Inheritance is direct and
// one-level: no donation stack is kept, and no other mutex t still holds
// is consulted.
func restorePriority(t *Task, saved int) {
	if t.priority == saved {
		return
	}
	if t.state == TaskReady {
		k.ready.remove(t)
		t.priority = saved
		k.ready.add(t)
	} else {
		t.priority = saved
	}
}
