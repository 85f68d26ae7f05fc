package kernel

import "unsafe"

// TimerFunc is a software timer's callback. It runs on the tick
// interrupt's stack, in interrupt context, so it must stay short,
// non-blocking, and never itself block on a semaphore, mutex or queue.
type TimerFunc func(arg unsafe.Pointer)

// timerState mirrors Task's state model but for a much smaller machine:
// a timer is either idle, or armed and linked into the kernel's sorted
// expiry list.
type timerState int

const (
	timerIdle timerState = iota
	timerArmed
)

// Timer is a software timer control block. Like Task, callers own its
// storage; Init just fills it in.
type Timer struct {
	prev, next *Timer

	fn       TimerFunc
	arg      unsafe.Pointer
	periodic bool
	period   uint32
	expiry   uint32
	state    timerState
	name     string
}

type timerList struct {
	head, tail *Timer
}

func (l *timerList) remove(t *Timer) {
	if t.prev != nil {
		t.prev.next = t.next
	} else {
		l.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		l.tail = t.prev
	}
	t.prev, t.next = nil, nil
}

// insertSorted keeps the list ascending by expiry, wraparound-tolerant
// via the same signed-difference comparison the delay list uses.
func (l *timerList) insertSorted(t *Timer) {
	cur := l.head
	for cur != nil && tickBefore(cur.expiry, t.expiry) {
		cur = cur.next
	}
	if cur == nil {
		t.prev = l.tail
		t.next = nil
		if l.tail != nil {
			l.tail.next = t
		} else {
			l.head = t
		}
		l.tail = t
		return
	}
	t.prev = cur.prev
	t.next = cur
	if cur.prev != nil {
		cur.prev.next = t
	} else {
		l.head = t
	}
	cur.prev = t
}

// TimerInit prepares t with its callback and argument; it starts
// disarmed until TimerStart or TimerStartOnce arms it.
func TimerInit(t *Timer, name string, fn TimerFunc, arg unsafe.Pointer) Status {
	if t == nil || fn == nil {
		return StatusParam
	}
	*t = Timer{fn: fn, arg: arg, name: name, state: timerIdle}
	return StatusOK
}

// TimerStart arms t as a periodic timer that fires every periodMs,
// re-arming as now+period each time it fires, where now is the tick
// being serviced. Tick services timers on every tick, so that tick is
// the previous expiry; the callback's own run time does not shift the
// next one.
func TimerStart(t *Timer, periodMs uint32) Status {
	return timerArm(t, periodMs, true)
}

// TimerStartOnce arms t to fire exactly once after delayMs.
func TimerStartOnce(t *Timer, delayMs uint32) Status {
	return timerArm(t, delayMs, false)
}

func timerArm(t *Timer, ms uint32, periodic bool) Status {
	if t == nil || ms == 0 {
		return StatusParam
	}
	ticks := msToTicks(ms, k.cfg.tickRateHz())
	if ticks == 0 {
		ticks = 1
	}

	state := k.enter()
	if t.state == timerArmed {
		k.timers.remove(t)
	}
	t.periodic = periodic
	t.period = ticks
	t.expiry = k.tickCount + ticks
	t.state = timerArmed
	k.timers.insertSorted(t)
	k.exit(state)
	return StatusOK
}

// TimerStop disarms t. Safe to call whether or not t is currently armed.
func TimerStop(t *Timer) Status {
	if t == nil {
		return StatusParam
	}
	state := k.enter()
	if t.state == timerArmed {
		k.timers.remove(t)
		t.state = timerIdle
	}
	k.exit(state)
	return StatusOK
}

// TimerIsActive reports whether t is currently armed.
func TimerIsActive(t *Timer) bool {
	state := k.enter()
	active := t.state == timerArmed
	k.exit(state)
	return active
}

// serviceTimers runs from Tick with interrupts already masked: it pops
// every timer whose expiry is due, re-arms the periodic ones, and fires
// callbacks with interrupts still masked, keeping the run-in-tick-ISR
// contract callbacks are documented to rely on.
func (k *kernelState) serviceTimers(now uint32) {
	for k.timers.head != nil && tickDue(now, k.timers.head.expiry) {
		t := k.timers.head
		k.timers.remove(t)
		if t.periodic {
			t.expiry = now + t.period
			k.timers.insertSorted(t)
		} else {
			t.state = timerIdle
		}
		if k.cfg.EnableStats {
			k.stats.TimerFires++
		}
		t.fn(t.arg)
	}
}

func msToTicks(ms, hz uint32) uint32 {
	return uint32((uint64(ms) * uint64(hz)) / 1000)
}
