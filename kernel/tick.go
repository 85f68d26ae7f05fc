package kernel

// Tick is the periodic tick source's only entry point: the port calls it
// from its SysTick (or equivalent) handler once per tick period. It
// advances the tick counter, fires due software timers, moves any
// delayed tasks whose timeout has elapsed back to ready, and — if the
// resulting ready set outranks whatever is currently running — asks the
// port for a context switch.
//
// Tick runs in interrupt context; it does its own critical-section
// bracketing so it is safe to call with interrupts already masked or
// not.
func Tick() {
	state := k.enter()
	k.tickCount++
	now := k.tickCount

	k.serviceTimers(now)

	woke := false
	for k.delay.head != nil && tickDue(now, k.delay.head.wakeTick) {
		t := k.delay.head
		k.delay.remove(t)
		t.wakeTick = noTimeoutWake
		t.timedOut = true
		t.waitObject = nil

		// A finite-timeout wait links t onto a sync object's wait list as
		// well as the delay list; that wait list shares t's prev/next
		// with the ready FIFO, so it has to be unlinked here before
		// ready.add reuses those fields, or the wait list's head/tail
		// end up pointing at a task that has moved elsewhere.
		if t.waitList != nil {
			t.waitList.remove(t)
			t.waitList = nil
		}

		// Suspend leaves a wait-blocked task's delay-list entry in place
		// (it only ever removes a pure Delay/DelayUntil entry), so a
		// Suspended task's original wait timeout can still fire here.
		// Its wait-list membership above still needs cleaning up, but it
		// must stay suspended until an explicit Resume, not get readied
		// out from under the suspension.
		if t.state == TaskBlocked {
			k.ready.add(t)
			woke = true
		}
	}

	if k.current == &k.idle && k.cfg.EnableStats {
		k.stats.IdleTicks++
	}

	changed := woke && k.current != nil && k.ready.highest() != nil &&
		k.ready.highest().priority < k.current.priority
	needSwitch := k.wantsSwitch(changed)
	k.exit(state)

	if needSwitch {
		port.RequestSwitch()
	}
}
