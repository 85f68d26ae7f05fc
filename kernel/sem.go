package kernel

// Semaphore is a counting semaphore: count posts pending redemption by a
// future Wait, up to max. A binary semaphore is simply one created with
// max == 1.
type Semaphore struct {
	count, max int
	waiters    taskList
}

// SemInit prepares s with an initial count and a ceiling. initial must
// not exceed max.
func SemInit(s *Semaphore, initial, max int) Status {
	if s == nil || max <= 0 || initial < 0 || initial > max {
		return StatusParam
	}
	*s = Semaphore{count: initial, max: max}
	return StatusOK
}

// SemWait blocks the calling task until s has a count to redeem, or
// timeoutMs elapses. NoWait polls without blocking; WaitForever blocks
// indefinitely. Must not be called from interrupt context except with
// timeoutMs == NoWait.
func SemWait(s *Semaphore, timeoutMs uint32) Status {
	if s == nil {
		return StatusParam
	}
	state := k.enter()
	if s.count > 0 {
		s.count--
		k.exit(state)
		return StatusOK
	}
	if timeoutMs == NoWait {
		k.exit(state)
		return StatusTimeout
	}
	if InISR() {
		k.exit(state)
		return StatusISR
	}

	t := k.blockCurrent(&s.waiters, s, timeoutMs)
	pendSwitchAndBlock(state)

	if t.finishBlockingCall() {
		return StatusOK
	}
	return StatusTimeout
}

// SemPost increments s's count, or wakes the highest-priority waiter if
// one is queued. Safe to call from interrupt context.
func SemPost(s *Semaphore) Status {
	if s == nil {
		return StatusParam
	}
	state := k.enter()
	if !s.waiters.empty() {
		t := s.waiters.head
		k.wake(&s.waiters, t)
		needSwitch := k.wantsSwitch(true)
		k.exit(state)
		if needSwitch {
			port.RequestSwitch()
		}
		return StatusOK
	}
	if s.count >= s.max {
		// Already saturated: absorbed silently, no state change. A binary
		// semaphore posted twice in a row stays at 1.
		k.exit(state)
		return StatusOK
	}
	s.count++
	k.exit(state)
	return StatusOK
}

// SemTry is SemWait with an implicit NoWait timeout.
func SemTry(s *Semaphore) Status {
	return SemWait(s, NoWait)
}

// SemCount reports the current redeemable count.
func SemCount(s *Semaphore) int {
	state := k.enter()
	n := s.count
	k.exit(state)
	return n
}
