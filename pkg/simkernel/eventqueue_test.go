package simkernel

import "testing"

type countingTickable struct {
	ticks int
}

func (c *countingTickable) Tick() { c.ticks++ }

func TestTickEventReArms(t *testing.T) {
	q := New()
	owner := &countingTickable{}
	q.Schedule(NewTickEvent(owner), 1)

	q.Run(5)

	// Run processes events with fire time strictly less than the end bound,
	// so a tick armed at +1 fires at cycles 1 through 4.
	if owner.ticks != 4 {
		t.Fatalf("ticks=%d want 4", owner.ticks)
	}
	if q.CurrentCycle() != 5 {
		t.Fatalf("CurrentCycle()=%d want 5", q.CurrentCycle())
	}

	q.Run(5)
	if owner.ticks != 9 {
		t.Fatalf("ticks=%d want 9 after a second Run(5)", owner.ticks)
	}
}

func TestRunAdvancesToEndBoundOnEarlyDrain(t *testing.T) {
	q := New()
	fired := false
	q.Schedule(NewLambdaEvent(func() { fired = true }), 2)

	q.Run(100)

	if !fired {
		t.Fatalf("lambda event never fired")
	}
	// Open Question #3: Run must advance cur_cycle to the end bound even
	// though the queue drained at cycle 2, long before cycle 100.
	if q.CurrentCycle() != 100 {
		t.Fatalf("CurrentCycle()=%d want 100 (end bound) even though queue drained early", q.CurrentCycle())
	}
}

func TestSameCycleEventsRunInInsertionOrder(t *testing.T) {
	q := New()
	var order []int
	q.Schedule(NewLambdaEvent(func() { order = append(order, 1) }), 3)
	q.Schedule(NewLambdaEvent(func() { order = append(order, 2) }), 3)
	q.Schedule(NewLambdaEvent(func() { order = append(order, 3) }), 3)

	q.Run(10)

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order=%v want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order=%v want %v", order, want)
		}
	}
}

func TestLowerFireTimeAlwaysFiresFirst(t *testing.T) {
	q := New()
	var order []int
	q.Schedule(NewLambdaEvent(func() { order = append(order, 5) }), 5)
	q.Schedule(NewLambdaEvent(func() { order = append(order, 1) }), 1)
	q.Schedule(NewLambdaEvent(func() { order = append(order, 3) }), 3)

	q.Run(10)

	want := []int{1, 3, 5}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order=%v want %v", order, want)
		}
	}
}

func TestDelayZeroFiresSameStepAfterAlreadyPoppedEvent(t *testing.T) {
	q := New()
	var order []string
	q.Schedule(NewLambdaEvent(func() {
		order = append(order, "first")
		// Scheduled with delay 0: must run within this same Run call, after
		// "first" (which has already been popped) and after any other
		// same-cycle event scheduled earlier.
		q.Schedule(NewLambdaEvent(func() { order = append(order, "same-cycle-followup") }), 0)
	}), 0)

	q.Run(1)

	want := []string{"first", "same-cycle-followup"}
	if len(order) != len(want) || order[0] != want[0] || order[1] != want[1] {
		t.Fatalf("order=%v want %v", order, want)
	}
}

func TestCurrentCycleMonotonicAcrossRuns(t *testing.T) {
	q := New()
	q.Run(10)
	if q.CurrentCycle() != 10 {
		t.Fatalf("CurrentCycle()=%d want 10", q.CurrentCycle())
	}
	q.Run(0)
	if q.CurrentCycle() != 10 {
		t.Fatalf("CurrentCycle()=%d want 10", q.CurrentCycle())
	}
	q.Run(5)
	if q.CurrentCycle() != 15 {
		t.Fatalf("CurrentCycle()=%d want 15", q.CurrentCycle())
	}
}

func TestSchedulingPastHorizonIsLegalAndDoesNotFire(t *testing.T) {
	q := New()
	fired := false
	q.Schedule(NewLambdaEvent(func() { fired = true }), 50)

	q.Run(10)

	if fired {
		t.Fatalf("event scheduled past the horizon must not fire this run")
	}
	if q.Pending() != 1 {
		t.Fatalf("Pending()=%d want 1 (event remains scheduled)", q.Pending())
	}

	q.Run(100)
	if !fired {
		t.Fatalf("event should fire once its fire time falls within range")
	}
}
