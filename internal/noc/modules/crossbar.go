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

package modules

import (
	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/packet"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

// inflightKey identifies one in-flight request so its eventual response can
// be routed back to the upstream port it arrived on.
type inflightKey struct {
	stream uint64
	seq    uint64
}

type queuedReq struct {
	pkt       packet.Packet
	srcPortID int
}

// crossbarInputCredits bounds how many inbound requests the crossbar will
// accept across all its upstream ports ahead of forwarding them, mirroring a fixed
// receive-buffer budget rather than letting reqQueue grow unbounded.
const crossbarInputCredits = 8

// Crossbar fans N upstream (request) ports into M downstream (request)
// ports, routing each request by its stream id modulo the downstream
// count, and routes each eventual response back to the upstream port its
// request arrived on. Grounded on
// original_source/include/modules/crossbar_rr.hh's round-robin-over-
// outputs shape, generalized from crossbar_rr's single input port to N
// inputs (the underlying routing discipline — one queued request drained
// per tick, requeued whole on back-pressure — is unchanged) and from
// crossbar.hh's address-modulo routing, substituting stream id for address
// since Packet carries no memory address.
//
// Credit accounting runs on both sides of the crossbar. Downstream, a
// per-output-port CreditPool gates every Send: the crossbar must hold a
// credit for the packet's stream before it may forward, and the downstream
// peer replenishes that pool by returning credits as CREDIT_RETURN
// responses (see HandleDownstreamResponse). Upstream, a single CreditPool
// models the crossbar's own receive-buffer budget: accepting a request
// draws from it (HandleUpstreamRequest), and the credit is handed back to
// the originating sender as a CREDIT_RETURN the moment the crossbar
// forwards that request onward (see Tick).
type Crossbar struct {
	*core.ModuleBase

	reqQueue []queuedReq
	inflight map[inflightKey]int

	inCredits   *core.CreditPool
	downCredits map[int]*core.CreditPool
}

// NewCrossbar returns an unconnected Crossbar; the factory materializes its
// upstream and downstream ports as connections naming it are bound.
func NewCrossbar(name string, eq *simkernel.EventQueue) *Crossbar {
	return &Crossbar{
		ModuleBase:  core.NewModuleBase(name, eq),
		inflight:    make(map[inflightKey]int),
		inCredits:   core.NewCreditPool(crossbarInputCredits),
		downCredits: make(map[int]*core.CreditPool),
	}
}

// InputCredits returns the crossbar's receive-buffer credit pool, for
// telemetry and tests.
func (c *Crossbar) InputCredits() *core.CreditPool { return c.inCredits }

// OutputCredits returns the per-downstream-port credit pool for idx,
// creating it (sized to that port's total output VC capacity) on first use.
func (c *Crossbar) OutputCredits(idx int) *core.CreditPool {
	return c.outputCredits(idx)
}

func (c *Crossbar) outputCredits(idx int) *core.CreditPool {
	if p, ok := c.downCredits[idx]; ok {
		return p
	}
	total := 1
	if down, ok := c.Ports().DownstreamByIndex(idx); ok {
		total = 0
		for i := 0; i < down.VCCount(); i++ {
			total += down.VC(i).Capacity()
		}
		if total == 0 {
			total = 1
		}
	}
	p := core.NewCreditPool(total)
	c.downCredits[idx] = p
	return p
}

func (c *Crossbar) Tick() {
	c.TickPorts()
	if len(c.reqQueue) == 0 {
		return
	}
	qr := c.reqQueue[0]
	n := c.Ports().DownstreamCount()
	if n == 0 {
		c.reqQueue = c.reqQueue[1:]
		return
	}
	dstIdx := int(qr.pkt.StreamID % uint64(n))
	down, ok := c.Ports().DownstreamByIndex(dstIdx)
	if !ok {
		c.reqQueue = c.reqQueue[1:]
		return
	}
	pool := c.outputCredits(dstIdx)
	if !pool.TryGet(qr.pkt.StreamID) {
		// No outbound credit for this stream yet: leave the request queued
		// and retry next tick, same back-pressure posture as a VC-full Send.
		return
	}
	if ok, _ := down.Send(qr.pkt); ok {
		c.reqQueue = c.reqQueue[1:]
		c.returnInputCredit(qr)
		return
	}
	// Send itself was refused (VC full downstream): the credit drawn above
	// was never spent, so give it back rather than leak it.
	pool.ReturnCredit(qr.pkt.StreamID)
	// Back-pressure on the chosen output: leave it at the head and retry
	// next tick, same as crossbar_rr's requeue-on-refusal.
}

// returnInputCredit frees the receive-buffer credit qr drew on arrival and
// tells the originating upstream sender it may send one more.
func (c *Crossbar) returnInputCredit(qr queuedReq) {
	c.inCredits.ReturnCredit(qr.pkt.StreamID)
	up, ok := c.Ports().UpstreamByIndex(qr.srcPortID)
	if !ok {
		return
	}
	up.SendResponse(packet.NewCreditReturn(c.CurrentCycle(), qr.pkt.VCID, qr.pkt.StreamID, 1))
}

// HandleUpstreamRequest queues pkt for routing and remembers which upstream
// port it arrived on, so HandleDownstreamResponse can send the eventual
// reply back the way it came. A request is only accepted while the
// crossbar holds a receive-buffer credit for its stream; refusing it here
// leaves it at the head of its VC for retry, same as any other
// back-pressure. A CREDIT_RETURN arriving as a request (rather than as a
// response) is accepted and dropped: this crossbar never needs one back.
func (c *Crossbar) HandleUpstreamRequest(pkt packet.Packet, srcPortID int, srcLabel string) bool {
	if pkt.IsCredit() {
		return true
	}
	if !pkt.IsRequest() {
		return false
	}
	if !c.inCredits.TryGet(pkt.StreamID) {
		return false
	}
	c.inflight[inflightKey{pkt.StreamID, pkt.SeqNum}] = srcPortID
	c.reqQueue = append(c.reqQueue, queuedReq{pkt: pkt, srcPortID: srcPortID})
	return true
}

// HandleDownstreamResponse routes pkt back to the upstream port that
// originated its request. A CREDIT_RETURN replenishes that output port's
// credit pool for the stream it names instead of being routed anywhere. A
// plain response with no matching in-flight entry (already retired, or from
// a request this crossbar never queued) is accepted and dropped rather than
// refused.
func (c *Crossbar) HandleDownstreamResponse(pkt packet.Packet, srcPortID int, srcLabel string) bool {
	if pkt.IsCredit() {
		pool := c.outputCredits(srcPortID)
		for i := 0; i < pkt.Credits; i++ {
			pool.ReturnCredit(pkt.StreamID)
		}
		return true
	}
	key := inflightKey{pkt.StreamID, pkt.SeqNum}
	upIdx, ok := c.inflight[key]
	if !ok {
		return true
	}
	delete(c.inflight, key)
	up, ok := c.Ports().UpstreamByIndex(upIdx)
	if !ok {
		return true
	}
	up.SendResponse(pkt)
	return true
}
