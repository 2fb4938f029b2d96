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

// Package simkernel is the deterministic discrete-event core: a min-heap of
// future events keyed by fire time, driving a monotonic cycle counter. It is
// the only suspension surface in the simulator — everything else runs to
// completion synchronously within a single Process call.
package simkernel

import "container/heap"

// Event is anything the queue can fire. Process receives the queue so an
// event (notably TickEvent) can reschedule itself or schedule follow-on
// work before returning.
type Event interface {
	Process(q *EventQueue)
}

// Tickable is implemented by anything a TickEvent can drive once per cycle.
type Tickable interface {
	Tick()
}

// TickEvent invokes owner.Tick() and immediately re-arms itself for the next
// cycle. A SimObject stays ticked for the remainder of the run once armed.
type TickEvent struct {
	owner Tickable
}

// NewTickEvent returns a TickEvent bound to owner. The caller schedules it
// (typically with delay 1) to arm the owner.
func NewTickEvent(owner Tickable) *TickEvent { return &TickEvent{owner: owner} }

// Process runs the tick then re-arms the same event one cycle later.
func (e *TickEvent) Process(q *EventQueue) {
	e.owner.Tick()
	q.Schedule(e, 1)
}

// LambdaEvent runs a deferred closure exactly once. Used for link-latency
// delivery and any other "do this later" continuation. Closures must not
// capture a raw, still-owned Packet without transferring ownership through
// the closure itself — see internal/noc/core for the Send/Accept contract
// this enables.
type LambdaEvent struct {
	fn func()
}

// NewLambdaEvent wraps fn as a one-shot event.
func NewLambdaEvent(fn func()) *LambdaEvent { return &LambdaEvent{fn: fn} }

// Process invokes the wrapped closure once.
func (e *LambdaEvent) Process(q *EventQueue) { e.fn() }

type heapItem struct {
	event    Event
	fireTime uint64
	seq      uint64
}

// eventHeap orders by fire time ascending, breaking ties by insertion order
// (seq ascending) so same-cycle events run FIFO.
type eventHeap []*heapItem

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].fireTime != h[j].fireTime {
		return h[i].fireTime < h[j].fireTime
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*heapItem)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// EventQueue drives all progress in the simulator. It is not safe for
// concurrent use: the core is single-threaded cooperative, per spec.
type EventQueue struct {
	items     eventHeap
	curCycle  uint64
	nextSeq   uint64
	processed uint64
}

// New returns an EventQueue with cur_cycle = 0.
func New() *EventQueue {
	q := &EventQueue{}
	heap.Init(&q.items)
	return q
}

// Schedule arms ev to fire at CurrentCycle()+delay. delay must be >= 0 (the
// type is unsigned, so this is enforced structurally). Events scheduled
// with delay == 0 fire in the same Run step, after any event already popped
// at the current cycle, and after any other same-cycle event scheduled
// earlier (insertion order is preserved via a monotonic sequence number).
func (q *EventQueue) Schedule(ev Event, delay uint64) {
	it := &heapItem{event: ev, fireTime: q.curCycle + delay, seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.items, it)
}

// Run pops and processes every event whose fire time is strictly less than
// CurrentCycle()+numCycles, advancing cur_cycle to each processed event's
// fire time as it goes, then sets cur_cycle to the end bound regardless of
// whether the queue drained early. Run is the only suspension surface: it
// returns once no more events in range remain.
func (q *EventQueue) Run(numCycles uint64) {
	end := q.curCycle + numCycles
	for q.items.Len() > 0 && q.items[0].fireTime < end {
		it := heap.Pop(&q.items).(*heapItem)
		q.curCycle = it.fireTime
		q.processed++
		it.event.Process(q)
	}
	q.curCycle = end
}

// CurrentCycle returns the queue's monotonically non-decreasing cycle
// counter.
func (q *EventQueue) CurrentCycle() uint64 { return q.curCycle }

// Pending reports how many events are currently scheduled. Useful for
// tests and diagnostics; not part of the simulation semantics.
func (q *EventQueue) Pending() int { return q.items.Len() }

// ProcessedEvents reports how many events have been popped and processed
// across the queue's lifetime, for diagnostics and telemetry.
func (q *EventQueue) ProcessedEvents() uint64 { return q.processed }
