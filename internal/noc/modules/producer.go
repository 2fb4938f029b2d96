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

// Package modules provides minimal SimObject fixtures a topology can
// reference by type name: a request-issuing producer, a request-serving
// consumer, and a crossbar router that picks its output by stream id. These are test fixtures, not
// production device models (cache replacement, DRAM timing, and traffic
// policy stay external collaborators per spec.md §1) — they exist so a
// topology config and the factory's wiring have something concrete to
// instantiate and tick.
package modules

import (
	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/packet"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

// ProducerOptions configures a Producer's request generation.
type ProducerOptions struct {
	// IntervalCycles is how often (in cycles) the producer attempts to
	// issue a new request. Must be >= 1.
	IntervalCycles uint64
	// NumRequests bounds how many requests the producer ever issues; 0
	// means unbounded.
	NumRequests int
	// PayloadLen is the size of each request's payload, in bytes.
	PayloadLen int
	// StreamID tags every request this producer issues. Distinct
	// producers sharing a downstream fan-in (e.g. through a Crossbar)
	// should use distinct stream ids so in-flight bookkeeping keyed by
	// (stream, seq) never collides across producers.
	StreamID uint64
}

// DefaultProducerOptions issues one 4-byte request every cycle, unbounded,
// on stream 0.
func DefaultProducerOptions() ProducerOptions {
	return ProducerOptions{IntervalCycles: 1, NumRequests: 0, PayloadLen: 4}
}

// Producer is a traffic generator: it issues sequential read requests on
// its single downstream port (first-by-index, label ignored) at a fixed
// cadence, rotating across that port's VCs, and retires them as responses
// arrive. Grounded on original_source/include/modules/traffic_gen.hh's
// SEQUENTIAL mode, minus the RANDOM/STREAM_COPY/TRACE modes that exist
// there only to stress a cache or DRAM model this repo doesn't implement.
type Producer struct {
	*core.ModuleBase

	opts ProducerOptions

	nextSeq   uint64
	sent      int
	completed int

	// inflight keeps each issued request alive (by value) until its
	// response retires it, since Packet.OriginalReq is a weak
	// back-reference: something has to own the live copy.
	inflight map[uint64]packet.Packet
}

// NewProducer returns a Producer bound to eq, with no ports yet — the
// factory materializes its downstream port(s) while binding connections
// that name it as a src.
func NewProducer(name string, eq *simkernel.EventQueue, opts ProducerOptions) *Producer {
	if opts.IntervalCycles == 0 {
		opts.IntervalCycles = 1
	}
	return &Producer{
		ModuleBase: core.NewModuleBase(name, eq),
		opts:       opts,
		inflight:   make(map[uint64]packet.Packet),
	}
}

// Sent returns how many requests have been issued so far.
func (p *Producer) Sent() int { return p.sent }

// Completed returns how many responses have been retired so far.
func (p *Producer) Completed() int { return p.completed }

func (p *Producer) Tick() {
	p.TickPorts()
	if p.opts.NumRequests > 0 && p.sent >= p.opts.NumRequests {
		return
	}
	if p.CurrentCycle()%p.opts.IntervalCycles != 0 {
		return
	}
	p.issue()
}

func (p *Producer) issue() {
	down, ok := p.Ports().DownstreamByIndex(0)
	if !ok {
		return
	}
	vcID := 0
	if n := down.VCCount(); n > 0 {
		vcID = int(p.nextSeq % uint64(n))
	}
	req := packet.New(packet.ReqRead, p.CurrentCycle(), vcID, p.opts.StreamID, p.nextSeq, make([]byte, p.opts.PayloadLen))
	ok, _ = down.Send(req)
	if !ok {
		// Back-pressure: the VC is full. Try again next eligible tick
		// rather than retrying within this one.
		return
	}
	p.inflight[req.SeqNum] = req
	p.sent++
	p.nextSeq++
}

// HandleDownstreamResponse retires the matching in-flight request. A
// response whose SeqNum the producer has no record of (already retired, or
// never issued by this producer) is accepted and ignored rather than
// refused, since there is no retry path for an orphaned response. A
// CREDIT_RETURN arriving here (e.g. from a downstream Crossbar's receive-
// buffer credit) is likewise accepted and dropped: this producer draws no
// credit pool of its own, so it has nothing to do with one.
func (p *Producer) HandleDownstreamResponse(pkt packet.Packet, srcPortID int, srcLabel string) bool {
	if pkt.IsCredit() {
		return true
	}
	if !pkt.IsResponse() {
		return false
	}
	if _, ok := p.inflight[pkt.SeqNum]; ok {
		delete(p.inflight, pkt.SeqNum)
		p.completed++
	}
	return true
}
