// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

// CreditPool tracks a fixed budget of credits shared by streams multiplexed
// over one link. A stream must hold a credit before it is allowed to send;
// credits are returned by the receiver once it has drained the data they
// paid for.
type CreditPool struct {
	total     int
	available int

	// reservations is each stream's static allotment, assigned by Reserve
	// (a repeat call overwrites, never accumulates). TryGet and
	// ReturnCredit only ever compare used[stream] against it; neither
	// mutates it. Only Release erases a stream's entry.
	reservations map[uint64]int
	used         map[uint64]int

	waitQueue []waiter
}

type waiter struct {
	stream uint64
	count  int
	notify chan struct{}
}

// NewCreditPool returns a pool with total credits, all initially available.
func NewCreditPool(total int) *CreditPool {
	return &CreditPool{
		total:        total,
		available:    total,
		reservations: make(map[uint64]int),
		used:         make(map[uint64]int),
	}
}

func (p *CreditPool) Total() int     { return p.total }
func (p *CreditPool) Available() int { return p.available }

// Reserve carves out n credits for stream ahead of use, failing immediately
// if fewer than n are available. Reserved credits are not double-counted:
// they move from available into the stream's reservation, not out of the
// pool's total.
//
// A repeat Reserve for the same stream overwrites the prior allotment and
// zeroes the stream's usage; it does not accumulate. A caller replacing a
// live reservation should Release first, or the overwritten allotment's
// credits stay deducted from available.
func (p *CreditPool) Reserve(stream uint64, n int) bool {
	if n <= 0 {
		return true
	}
	if n > p.available {
		return false
	}
	p.available -= n
	p.reservations[stream] = n
	p.used[stream] = 0
	return true
}

// TryGet draws one credit for stream: it prefers the stream's still-unused
// reservation (used[stream] < reservations[stream]), falling back to the
// shared available pool when the reservation (if any) is exhausted.
// Reservations are a static allotment: a successful draw only ever
// increments used[stream], never reservations[stream] itself.
//
// On outright refusal, stream is folded into the wait queue -- merged into
// its existing entry if one is already queued, appended otherwise -- atomically
// with the failed draw, matching original_source's tryGetCredit: a caller
// never has to separately enqueue a wait after a refused TryGet.
func (p *CreditPool) TryGet(stream uint64) bool {
	if p.used[stream] < p.reservations[stream] {
		p.used[stream]++
		return true
	}
	if p.available > 0 {
		p.available--
		p.used[stream]++
		return true
	}
	p.enqueueWait(stream, 1)
	return false
}

// ReturnCredit gives one credit back on behalf of stream. used[stream] is
// decremented unconditionally; available is only incremented when the
// stream's remaining usage still sits under its reservation, matching
// original_source's returnCredit exactly: a stream that draws its
// reservation and gives it straight back hands that credit to the shared
// pool rather than re-parking it, while a stream still working through an
// overflow draw beyond its cap keeps the returned unit earmarked. Either
// way, a successful return may free enough available credit to wake queued
// waiters.
func (p *CreditPool) ReturnCredit(stream uint64) {
	used, ok := p.used[stream]
	if !ok || used <= 0 {
		return
	}
	used--
	p.used[stream] = used

	reserved, hasReservation := p.reservations[stream]
	if !hasReservation || used < reserved {
		p.available++
	}
	p.wakeWaiters()
}

// Release drops stream's outstanding reservation back into the available
// pool, e.g. when a stream is torn down without consuming everything it
// reserved.
func (p *CreditPool) Release(stream uint64) {
	p.available += p.reservations[stream]
	delete(p.reservations, stream)
	delete(p.used, stream)
	p.wakeWaiters()
}

// enqueueWait folds stream into the wait queue, incrementing an existing
// entry's count rather than appending a duplicate when stream is already
// queued.
func (p *CreditPool) enqueueWait(stream uint64, n int) {
	for i := range p.waitQueue {
		if p.waitQueue[i].stream == stream {
			p.waitQueue[i].count += n
			return
		}
	}
	p.waitQueue = append(p.waitQueue, waiter{stream: stream, count: n, notify: make(chan struct{})})
}

// WaitChan returns the notification channel for stream's currently queued
// wait entry, if any. The channel closes once wakeWaiters has granted the
// entry its credits (already reflected in used[stream] by the time the
// caller observes the close); it returns ok=false if stream is not
// currently queued, e.g. before any refused TryGet or after one has already
// been granted.
func (p *CreditPool) WaitChan(stream uint64) (ch <-chan struct{}, ok bool) {
	for i := range p.waitQueue {
		if p.waitQueue[i].stream == stream {
			return p.waitQueue[i].notify, true
		}
	}
	return nil, false
}

// wakeWaiters scans the wait queue FIFO, granting any entry whose count fits
// within the currently available credit: the grant deducts count from
// available and credits it straight to used[stream], so a woken caller finds
// its credit already held rather than needing to re-issue TryGet.
func (p *CreditPool) wakeWaiters() {
	for len(p.waitQueue) > 0 && p.waitQueue[0].count <= p.available {
		w := p.waitQueue[0]
		p.waitQueue = p.waitQueue[1:]
		p.available -= w.count
		p.used[w.stream] += w.count
		close(w.notify)
	}
}

// Quiescent reports whether every credit is accounted for: available, plus
// each stream's outstanding claim (the larger of its static reservation and
// its actual usage, since an unused reservation still removed credits from
// available at Reserve time), sums to total.
//
// This holds at every Reserve and TryGet boundary. It can transiently read
// false immediately after a ReturnCredit that hands a within-reservation
// credit back to available (original_source's returnCredit does this
// whenever usage drops back under the stream's cap) -- the same credit is
// then reflected in whichever stream wakeWaiters grants it to next, so the
// sum settles back to total once any pending wait is cleared. Callers
// checking quiescence mid-reservation-lifecycle should expect this.
func (p *CreditPool) Quiescent() bool {
	streams := make(map[uint64]struct{}, len(p.reservations)+len(p.used))
	for s := range p.reservations {
		streams[s] = struct{}{}
	}
	for s := range p.used {
		streams[s] = struct{}{}
	}
	sum := p.available
	for s := range streams {
		owned := p.reservations[s]
		if used := p.used[s]; used > owned {
			owned = used
		}
		sum += owned
	}
	return sum == p.total
}
