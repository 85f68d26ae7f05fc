package kernel

import (
	"strconv"
	"testing"

	"golang.org/x/exp/slices"
)

func namedTask(name string, priority int) *Task {
	t := &Task{}
	n := copy(t.name[:], name)
	t.nameLen = n
	t.priority = priority
	return t
}

func TestTaskListFIFOOrder(t *testing.T) {
	var l taskList
	a, b, c := namedTask("a", 0), namedTask("b", 0), namedTask("c", 0)
	l.addTail(a)
	l.addTail(b)
	l.addTail(c)

	if got := l.popHead(); got != a {
		t.Fatalf("expected a first, got %s", got.Name())
	}
	if got := l.popHead(); got != b {
		t.Fatalf("expected b second, got %s", got.Name())
	}
	if got := l.popHead(); got != c {
		t.Fatalf("expected c third, got %s", got.Name())
	}
	if !l.empty() {
		t.Fatalf("expected list empty after draining")
	}
}

func TestTaskListRemoveMiddle(t *testing.T) {
	var l taskList
	a, b, c := namedTask("a", 0), namedTask("b", 0), namedTask("c", 0)
	l.addTail(a)
	l.addTail(b)
	l.addTail(c)

	l.remove(b)

	if l.head != a || l.tail != c {
		t.Fatalf("expected a..c after removing b, head=%v tail=%v", l.head.Name(), l.tail.Name())
	}
	if a.next != c || c.prev != a {
		t.Fatalf("expected a and c to be relinked directly")
	}
}

func TestAddByPriorityKeepsFIFOOnTies(t *testing.T) {
	var l taskList
	high := namedTask("high", 0)
	mid1 := namedTask("mid1", 5)
	mid2 := namedTask("mid2", 5)
	low := namedTask("low", 9)

	// Insert out of order; addByPriority must still produce high, mid1,
	// mid2 (arrival order preserved within priority 5), low.
	l.addByPriority(mid1)
	l.addByPriority(low)
	l.addByPriority(high)
	l.addByPriority(mid2)

	want := []*Task{high, mid1, mid2, low}
	cur := l.head
	for i, w := range want {
		if cur != w {
			t.Fatalf("position %d: want %s got %v", i, w.Name(), cur)
		}
		cur = cur.next
	}
	if cur != nil {
		t.Fatalf("expected exactly %d entries", len(want))
	}
}

func TestTickBeforeToleratesWraparound(t *testing.T) {
	cases := []struct {
		a, b uint32
		want bool
	}{
		{0, 1, true},
		{1, 0, false},
		{0xFFFFFFFF, 0, true},  // wrapped: 0xFFFFFFFF is "before" 0
		{0, 0xFFFFFFFF, false}, // and not the other way around
		{5, 5, true},           // equal counts as "no later than"
	}
	for _, c := range cases {
		if got := tickBefore(c.a, c.b); got != c.want {
			t.Errorf("tickBefore(%#x, %#x) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestAddByWakeTickSortsAcrossWraparound(t *testing.T) {
	var l delayList
	early := namedTask("early", 0)
	early.wakeTick = 0xFFFFFFF0
	late := namedTask("late", 0)
	late.wakeTick = 5

	l.addByWakeTick(late)
	l.addByWakeTick(early)

	if l.head != early || l.tail != late {
		t.Fatalf("expected early (near wraparound) before late (just after 0), got head=%s tail=%s",
			l.head.Name(), l.tail.Name())
	}
}

// TestWaitListAndDelayListMembershipAreIndependent covers a task blocking
// with a finite timeout, which links it into a wait list by priority and
// the delay list by wake tick at the same time. Enqueuing a high-priority,
// long-timeout waiter before a low-priority, short-timeout one puts the
// two lists in opposite relative order, which is exactly what sharing one
// prev/next pair between them would corrupt.
func TestWaitListAndDelayListMembershipAreIndependent(t *testing.T) {
	var wait taskList
	var delay delayList

	high := namedTask("high", 1)
	high.wakeTick = 100
	low := namedTask("low", 9)
	low.wakeTick = 10

	wait.addByPriority(high)
	delay.addByWakeTick(high)
	wait.addByPriority(low)
	delay.addByWakeTick(low)

	if wait.head != high || wait.tail != low {
		t.Fatalf("wait list: want head=high tail=low, got head=%v tail=%v", wait.head.Name(), wait.tail.Name())
	}
	if delay.head != low || delay.tail != high {
		t.Fatalf("delay list: want head=low tail=high, got head=%v tail=%v", delay.head.Name(), delay.tail.Name())
	}

	wait.remove(high)
	if delay.head != low || delay.tail != high {
		t.Fatalf("removing high from the wait list disturbed the delay list")
	}
	delay.remove(low)
	if wait.head != low || wait.tail != low {
		t.Fatalf("removing low from the delay list disturbed the wait list")
	}
}

func TestReadyStructPicksHighestPriority(t *testing.T) {
	r := newReadyStruct(8)
	low := namedTask("low", 7)
	high := namedTask("high", 1)
	mid := namedTask("mid", 4)

	r.add(low)
	r.add(mid)
	r.add(high)

	got := r.popHighest()
	if got != high {
		t.Fatalf("expected high-priority task first, got %s", got.Name())
	}
	got = r.popHighest()
	if got != mid {
		t.Fatalf("expected mid-priority task second, got %s", got.Name())
	}
	got = r.popHighest()
	if got != low {
		t.Fatalf("expected low-priority task last, got %s", got.Name())
	}
	if r.highest() != nil {
		t.Fatalf("expected ready structure empty")
	}
}

// TestAddByPriorityStableAcrossManyInsertions inserts a batch of tasks in
// an arbitrary order and checks that addByPriority reproduces exactly
// what a stable sort by priority would, so a tie between two tasks at
// the same priority always resolves in arrival order. The expected
// order is computed independently with slices.SortStableFunc rather
// than by re-deriving it from taskList's own insertion logic, so the
// comparison actually exercises addByPriority against an outside
// reference instead of checking it against itself.
func TestAddByPriorityStableAcrossManyInsertions(t *testing.T) {
	insertOrder := []int{6, 2, 2, 9, 0, 2, 6, 4, 9, 0, 1, 6, 2, 5}
	tasks := make([]*Task, len(insertOrder))
	for i, p := range insertOrder {
		tasks[i] = namedTask("t"+strconv.Itoa(i), p)
	}

	expected := append([]*Task(nil), tasks...)
	slices.SortStableFunc(expected, func(a, b *Task) bool {
		return a.priority < b.priority
	})

	var l taskList
	for _, tk := range tasks {
		l.addByPriority(tk)
	}

	var got []*Task
	for cur := l.head; cur != nil; cur = cur.next {
		got = append(got, cur)
	}

	if !slices.Equal(got, expected) {
		gotNames := make([]string, len(got))
		for i, tk := range got {
			gotNames[i] = tk.Name()
		}
		wantNames := make([]string, len(expected))
		for i, tk := range expected {
			wantNames[i] = tk.Name()
		}
		t.Fatalf("addByPriority order mismatch\n got: %v\nwant: %v", gotNames, wantNames)
	}
}

func TestReadyStructBitmapClearedWhenFIFODrains(t *testing.T) {
	r := newReadyStruct(4)
	x := namedTask("x", 2)
	r.add(x)
	if r.bitmap == 0 {
		t.Fatalf("expected bitmap bit set after add")
	}
	r.remove(x)
	if r.bitmap != 0 {
		t.Fatalf("expected bitmap cleared after last task at that priority removed, got %#x", r.bitmap)
	}
}
