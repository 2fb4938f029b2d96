package core

import "testing"

func TestCreditPoolQuiescentInvariant(t *testing.T) {
	p := NewCreditPool(10)
	if !p.Quiescent() {
		t.Fatalf("fresh pool must be quiescent")
	}
	if !p.Reserve(1, 4) {
		t.Fatalf("Reserve should succeed: enough available")
	}
	if !p.Quiescent() {
		t.Fatalf("pool with an outstanding reservation is still quiescent: available+owned==total")
	}
	if !p.TryGet(1) {
		t.Fatalf("TryGet should draw from stream 1's reservation")
	}
	if p.Available() != 6 {
		t.Fatalf("Available()=%d want 6: drawing from a reservation never touches available", p.Available())
	}
	if !p.Quiescent() {
		t.Fatalf("pool after TryGet must remain quiescent")
	}
	p.ReturnCredit(1)
	if p.Available() != 7 {
		t.Fatalf("Available()=%d want 7: returning a credit that is still under stream 1's reservation hands it to the shared pool, per original_source's returnCredit", p.Available())
	}
	// The returned credit moved into available while reservations[1] still
	// statically records 4 -- the same credit is now double-counted between
	// "available" and "still-reserved", so Quiescent transiently reads false
	// here. It settles back to true once that credit is drawn again (by
	// stream 1 or, via wakeWaiters, by some other queued stream).
	if p.Quiescent() {
		t.Fatalf("pool should NOT be quiescent immediately after a within-reservation ReturnCredit")
	}
}

// TestCreditPoolReserveOverwritesPriorReservation mirrors reserveCredits'
// literal assignment: a second Reserve for the same stream replaces the
// allotment (and resets usage) rather than adding to it. The first
// allotment's credits stay deducted from available until Release, so
// callers replacing a live reservation release it first.
func TestCreditPoolReserveOverwritesPriorReservation(t *testing.T) {
	p := NewCreditPool(10)
	if !p.Reserve(1, 4) {
		t.Fatalf("Reserve(1, 4) should succeed")
	}
	if !p.Reserve(1, 2) {
		t.Fatalf("Reserve(1, 2) should succeed: 6 credits still available")
	}
	if p.Available() != 4 {
		t.Fatalf("Available()=%d want 4: both Reserve calls deducted their n", p.Available())
	}

	// The stream's allotment is now 2, not 6: two draws come from the
	// reservation, the third must fall back to available.
	if !p.TryGet(1) || !p.TryGet(1) {
		t.Fatalf("both draws against the replacement reservation should succeed")
	}
	if p.Available() != 4 {
		t.Fatalf("Available()=%d want 4: reservation draws never touch available", p.Available())
	}
	if !p.TryGet(1) {
		t.Fatalf("a third draw should fall back to available")
	}
	if p.Available() != 3 {
		t.Fatalf("Available()=%d want 3: the allotment was overwritten to 2, not accumulated to 6", p.Available())
	}
}

func TestCreditPoolReserveFailsWhenInsufficientCredits(t *testing.T) {
	p := NewCreditPool(2)
	if p.Reserve(1, 3) {
		t.Fatalf("Reserve must fail: only 2 credits exist")
	}
	if p.Available() != 2 {
		t.Fatalf("a failed Reserve must not mutate Available")
	}
}

func TestCreditPoolTryGetFallsBackToAvailable(t *testing.T) {
	p := NewCreditPool(3)
	if !p.TryGet(9) {
		t.Fatalf("TryGet should draw directly from available when the stream holds no reservation")
	}
	if p.Available() != 2 {
		t.Fatalf("Available()=%d want 2", p.Available())
	}
}

// TestCreditPoolTryGetReservationIsStatic mirrors the static-allotment model
// directly: a stream with a reservation of 2 can draw twice without ever
// touching available, and a third draw falls back to (and exhausts) the
// shared pool.
func TestCreditPoolTryGetReservationIsStatic(t *testing.T) {
	p := NewCreditPool(5)
	if !p.Reserve(1, 2) {
		t.Fatalf("Reserve(1, 2) should succeed")
	}
	if !p.TryGet(1) || !p.TryGet(1) {
		t.Fatalf("both draws against the reservation should succeed")
	}
	if p.Available() != 3 {
		t.Fatalf("Available()=%d want 3: both draws came from the reservation, not available", p.Available())
	}
	if !p.TryGet(1) {
		t.Fatalf("a third draw should fall back to available")
	}
	if p.Available() != 2 {
		t.Fatalf("Available()=%d want 2: the third draw drew from available", p.Available())
	}
}

func TestCreditPoolWaitWakesOnReturn(t *testing.T) {
	p := NewCreditPool(1)
	p.TryGet(1) // drain the only credit

	if p.TryGet(2) {
		t.Fatalf("TryGet(2) should be refused: no credit left and stream 2 holds no reservation")
	}
	ch, ok := p.WaitChan(2)
	if !ok {
		t.Fatalf("the refused TryGet should have folded stream 2 into the wait queue")
	}
	select {
	case <-ch:
		t.Fatalf("waiter must not be woken before a credit is returned")
	default:
	}

	p.ReturnCredit(1)

	select {
	case <-ch:
	default:
		t.Fatalf("waiter should be woken once enough credit is available")
	}
}

// TestS6CreditContentionQueuesAndWakesInFIFOOrder mirrors a two-stream
// contention scenario over a 2-credit pool: A reserves 1 (succeeds), B
// tries to reserve 2 (fails, only 1 credit left), A draws its reservation,
// B draws the one remaining available credit, a second try by B is refused
// and folded into the wait queue by TryGet itself, and returning A's credit
// wakes B's wait.
func TestS6CreditContentionQueuesAndWakesInFIFOOrder(t *testing.T) {
	p := NewCreditPool(2)

	const streamA, streamB = uint64(1), uint64(2)

	if !p.Reserve(streamA, 1) {
		t.Fatalf("Reserve(A, 1) should succeed: 2 credits available")
	}
	if p.Reserve(streamB, 2) {
		t.Fatalf("Reserve(B, 2) should fail: only 1 credit remains available")
	}
	if !p.TryGet(streamA) {
		t.Fatalf("TryGet(A) should succeed by drawing A's reservation")
	}
	if !p.TryGet(streamB) {
		t.Fatalf("TryGet(B) should succeed by drawing the one remaining available credit")
	}
	if p.TryGet(streamB) {
		t.Fatalf("TryGet(B) should fail: pool is fully used")
	}

	ch, ok := p.WaitChan(streamB)
	if !ok {
		t.Fatalf("the refused TryGet(B) should have folded B into the wait queue")
	}
	select {
	case <-ch:
		t.Fatalf("B must not be woken before a credit is returned")
	default:
	}

	p.ReturnCredit(streamA)

	select {
	case <-ch:
	default:
		t.Fatalf("returning A's credit should wake B's queued wait")
	}
	if p.Available() != 0 {
		t.Fatalf("Available()=%d want 0: A's returned credit was granted straight to B by wakeWaiters", p.Available())
	}
	if _, stillQueued := p.WaitChan(streamB); stillQueued {
		t.Fatalf("B's wait entry should have been removed once granted")
	}
}

func TestCreditPoolReleaseReturnsReservation(t *testing.T) {
	p := NewCreditPool(5)
	p.Reserve(1, 3)
	p.Release(1)
	if p.Available() != 5 {
		t.Fatalf("Available()=%d want 5 after releasing the whole reservation", p.Available())
	}
	if !p.Quiescent() {
		t.Fatalf("pool must be quiescent after release")
	}
}
