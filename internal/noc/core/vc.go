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

// Package core implements the port/channel transport fabric: virtual
// channels, ports, port pairs, the per-module port manager, credit
// accounting, and the module contract ports dispatch through.
package core

import "github.com/chisuhua/gem5sc-go/internal/noc/packet"

// VirtualChannel is a bounded FIFO multiplexed over a physical port.
// Output and input VCs are structurally identical; they differ only in
// which side of a Port owns and drains them.
type VirtualChannel struct {
	capacity int
	priority int

	queue []packet.Packet

	enqueued  uint64
	dropped   uint64
	processed uint64
}

// NewVirtualChannel returns an empty VC with the given capacity and
// priority (smaller priority value wins).
func NewVirtualChannel(capacity, priority int) *VirtualChannel {
	return &VirtualChannel{capacity: capacity, priority: priority}
}

func (vc *VirtualChannel) Capacity() int { return vc.capacity }
func (vc *VirtualChannel) Priority() int { return vc.priority }
func (vc *VirtualChannel) Len() int      { return len(vc.queue) }
func (vc *VirtualChannel) Empty() bool   { return len(vc.queue) == 0 }
func (vc *VirtualChannel) Full() bool    { return len(vc.queue) >= vc.capacity }

// Enqueue appends pkt to the tail of the VC. It succeeds iff size <
// capacity; on failure the VC's dropped counter is incremented and the
// packet is returned to the caller untouched (ownership never transferred).
func (vc *VirtualChannel) Enqueue(pkt packet.Packet) (ok bool, returned packet.Packet) {
	if len(vc.queue) >= vc.capacity {
		vc.dropped++
		return false, pkt
	}
	vc.queue = append(vc.queue, pkt)
	vc.enqueued++
	return true, packet.Packet{}
}

// Peek returns the head packet without removing it.
func (vc *VirtualChannel) Peek() (*packet.Packet, bool) {
	if len(vc.queue) == 0 {
		return nil, false
	}
	return &vc.queue[0], true
}

// Pop removes and returns the head packet, marking it processed.
func (vc *VirtualChannel) Pop() (packet.Packet, bool) {
	if len(vc.queue) == 0 {
		return packet.Packet{}, false
	}
	pkt := vc.queue[0]
	vc.queue = vc.queue[1:]
	vc.processed++
	return pkt, true
}

// passThrough accounts for a packet delivered through the VC without ever
// occupying a slot (the capacity-zero direct hand-off), keeping
// enqueued >= processed + dropped intact.
func (vc *VirtualChannel) passThrough() {
	vc.enqueued++
	vc.processed++
}

// VCStats is a point-in-time snapshot of a VC's counters.
type VCStats struct {
	Capacity  int
	Priority  int
	Size      int
	Enqueued  uint64
	Dropped   uint64
	Processed uint64
}

func (vc *VirtualChannel) Stats() VCStats {
	return VCStats{
		Capacity:  vc.capacity,
		Priority:  vc.priority,
		Size:      len(vc.queue),
		Enqueued:  vc.enqueued,
		Dropped:   vc.dropped,
		Processed: vc.processed,
	}
}

// pickReady scans vcs for the lowest-priority-number non-empty channel,
// breaking ties round-robin via rr (a caller-owned cursor that is advanced
// past the chosen channel on every successful pick so repeated ties rotate
// through their members; it is left unchanged when no channel is ready).
func pickReady(vcs []*VirtualChannel, rr *int) (idx int, ok bool) {
	n := len(vcs)
	if n == 0 {
		return -1, false
	}
	best := -1
	bestPriority := 0
	for step := 0; step < n; step++ {
		i := (*rr + step) % n
		if vcs[i].Empty() {
			continue
		}
		if best == -1 || vcs[i].Priority() < bestPriority {
			best = i
			bestPriority = vcs[i].Priority()
		}
	}
	if best == -1 {
		return -1, false
	}
	*rr = (best + 1) % n
	return best, true
}
