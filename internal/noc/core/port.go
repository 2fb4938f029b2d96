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

import (
	"sort"

	"github.com/chisuhua/gem5sc-go/internal/noc/packet"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

// Host is what a Port needs from the module that owns it: a name for
// diagnostics and the current cycle for stamping arrivals.
type Host interface {
	Name() string
	CurrentCycle() uint64
}

// Scheduler is the minimal slice of *simkernel.EventQueue a Port needs to
// defer link-latency delivery.
type Scheduler interface {
	Schedule(ev simkernel.Event, delay uint64)
}

// UpstreamRequestHandler is implemented by a module that accepts requests
// arriving on one of its upstream ports. srcPortID/srcLabel identify which
// port delivered pkt. Returning false leaves pkt at the head of its VC for
// retry on a later tick (back-pressure).
type UpstreamRequestHandler interface {
	HandleUpstreamRequest(pkt packet.Packet, srcPortID int, srcLabel string) bool
}

// DownstreamResponseHandler is implemented by a module that accepts
// responses arriving on one of its downstream ports.
type DownstreamResponseHandler interface {
	HandleDownstreamResponse(pkt packet.Packet, srcPortID int, srcLabel string) bool
}

// Tracer observes every packet crossing a traced port, independent of the
// PortStats counters a port always keeps. A port with no Tracer attached
// (the default) pays nothing beyond a nil check. kind identifies the
// crossing direction: "recv" (upstream inbound), "send" (downstream
// outbound), "send_response" (upstream reply out), or "recv_response"
// (downstream reply in).
type Tracer interface {
	TracePacket(module, port, kind string, pkt packet.Packet)
}

// UpstreamPort is the receiving side of a connection: it buffers inbound
// requests in per-VC input queues and hands them to the owner's request
// callback one at a time, in priority order, as the owner's tick drains
// them.
type UpstreamPort struct {
	id    int
	label string
	owner Host

	inputVCs []*VirtualChannel
	rr       int
	pair     *PortPair

	stats  PortStats
	tracer Tracer
}

func newUpstreamPort(id int, label string, owner Host, bufferSizes, priorities []int) *UpstreamPort {
	vcs := make([]*VirtualChannel, len(bufferSizes))
	for i, capacity := range bufferSizes {
		pr := i
		if i < len(priorities) {
			pr = priorities[i]
		}
		vcs[i] = NewVirtualChannel(capacity, pr)
	}
	return &UpstreamPort{id: id, label: label, owner: owner, inputVCs: vcs}
}

func (p *UpstreamPort) ID() int                  { return p.id }
func (p *UpstreamPort) Label() string            { return p.label }
func (p *UpstreamPort) Stats() PortStats         { return p.stats }
func (p *UpstreamPort) VC(i int) *VirtualChannel { return p.inputVCs[i] }
func (p *UpstreamPort) VCCount() int             { return len(p.inputVCs) }

// SetTracer attaches t to observe every packet this port receives or
// replies with; pass nil to detach.
func (p *UpstreamPort) SetTracer(t Tracer) { p.tracer = t }

// Peer returns the DownstreamPort this port is bound to, or nil if unbound.
func (p *UpstreamPort) Peer() *DownstreamPort {
	if p.pair == nil {
		return nil
	}
	return p.pair.Downstream
}

// Recv is called by the peer DownstreamPort (directly, or from a scheduled
// latency event) to deliver an inbound request or credit-return. pkt's
// DstCycle is stamped with the owner's current cycle before it is enqueued.
// Ownership transfers to the VC on success; on failure (bad VC id, or VC
// full) the packet is returned to the caller and the VC's drop counter (for
// a full VC) is incremented.
//
// A capacity-zero VC forbids buffering entirely: delivery succeeds only if
// the owner's handler consumes the packet in this same step; otherwise the
// packet is dropped-with-count like any other full-VC arrival.
func (p *UpstreamPort) Recv(pkt packet.Packet) (ok bool, returned packet.Packet) {
	if pkt.VCID < 0 || pkt.VCID >= len(p.inputVCs) {
		return false, pkt
	}
	pkt.DstCycle = p.owner.CurrentCycle()
	vc := p.inputVCs[pkt.VCID]
	if vc.Capacity() == 0 {
		handler, hok := p.owner.(UpstreamRequestHandler)
		if !hok || !handler.HandleUpstreamRequest(pkt, p.id, p.label) {
			return vc.Enqueue(pkt) // always refuses at capacity 0, counting the drop
		}
		vc.passThrough()
	} else {
		ok, returned = vc.Enqueue(pkt)
		if !ok {
			return false, returned
		}
	}
	if pkt.IsCredit() {
		p.stats.recordCreditReceived(pkt.Credits)
	} else {
		p.stats.recordRequest(pkt.Len())
	}
	if p.tracer != nil {
		p.tracer.TracePacket(p.owner.Name(), p.label, "recv", pkt)
	}
	return true, packet.Packet{}
}

// Tick drains the highest-priority non-empty input VC's head packet to the
// owner's request handler, ties broken round-robin. A refused packet stays
// queued for the next tick. If the owner implements no
// UpstreamRequestHandler, the port simply does not drain (the packets
// accumulate, which is a configuration error the caller should notice via
// rising drop counts).
func (p *UpstreamPort) Tick() {
	handler, ok := p.owner.(UpstreamRequestHandler)
	if !ok {
		return
	}
	idx, ready := pickReady(p.inputVCs, &p.rr)
	if !ready {
		return
	}
	vc := p.inputVCs[idx]
	head, ok := vc.Peek()
	if !ok {
		return
	}
	if handler.HandleUpstreamRequest(*head, p.id, p.label) {
		vc.Pop()
	}
}

// SendResponse hands pkt directly to the bound downstream peer: response
// delivery never incurs link latency a second time (see Open Question #1 in
// DESIGN.md), so there is no event scheduling here.
func (p *UpstreamPort) SendResponse(pkt packet.Packet) (bool, packet.Packet) {
	if p.pair == nil || p.pair.Downstream == nil {
		return false, pkt
	}
	ok := p.pair.Downstream.recvResponse(pkt)
	if !ok {
		return false, pkt
	}
	if pkt.IsCredit() {
		p.stats.recordCreditSent(pkt.Credits)
	} else {
		p.stats.recordResponse(pkt.Len(), 0)
	}
	if p.tracer != nil {
		p.tracer.TracePacket(p.owner.Name(), p.label, "send_response", pkt)
	}
	return true, packet.Packet{}
}

// DownstreamPort is the sending side of a connection: it owns output VCs
// and a fixed link latency, and delivers to its bound upstream peer either
// immediately (when the target VC was empty) or after tick-driven draining.
type DownstreamPort struct {
	id    int
	label string
	owner Host

	outputVCs   []*VirtualChannel
	rr          int
	delayCycles uint64
	pair        *PortPair

	scheduler Scheduler
	stats     PortStats
	tracer    Tracer
}

func newDownstreamPort(id int, label string, owner Host, bufferSizes, priorities []int, delayCycles uint64, sched Scheduler) *DownstreamPort {
	vcs := make([]*VirtualChannel, len(bufferSizes))
	for i, capacity := range bufferSizes {
		pr := i
		if i < len(priorities) {
			pr = priorities[i]
		}
		vcs[i] = NewVirtualChannel(capacity, pr)
	}
	return &DownstreamPort{id: id, label: label, owner: owner, outputVCs: vcs, delayCycles: delayCycles, scheduler: sched}
}

func (p *DownstreamPort) ID() int                  { return p.id }
func (p *DownstreamPort) Label() string            { return p.label }
func (p *DownstreamPort) Stats() PortStats         { return p.stats }
func (p *DownstreamPort) VC(i int) *VirtualChannel { return p.outputVCs[i] }
func (p *DownstreamPort) VCCount() int             { return len(p.outputVCs) }
func (p *DownstreamPort) DelayCycles() uint64      { return p.delayCycles }

// SetTracer attaches t to observe every packet this port sends or receives
// a reply for; pass nil to detach.
func (p *DownstreamPort) SetTracer(t Tracer) { p.tracer = t }

// Peer returns the UpstreamPort this port is bound to, or nil if unbound.
func (p *DownstreamPort) Peer() *UpstreamPort {
	if p.pair == nil {
		return nil
	}
	return p.pair.Upstream
}

// Send transmits pkt over this port. If the target VC is empty, pkt leaves
// immediately (modeled as a Scheduler event with delay = delayCycles
// invoking the peer's Recv) without touching the VC at all. Otherwise it is
// appended to the VC to be drained on a later Tick. Ownership transfers to
// the port on success; on failure (bad VC id, or VC full) pkt is returned
// unchanged to the caller.
func (p *DownstreamPort) Send(pkt packet.Packet) (ok bool, returned packet.Packet) {
	if pkt.VCID < 0 || pkt.VCID >= len(p.outputVCs) {
		return false, pkt
	}
	vc := p.outputVCs[pkt.VCID]
	if vc.Empty() {
		p.dispatch(pkt)
		return true, packet.Packet{}
	}
	ok, returned = vc.Enqueue(pkt)
	if !ok {
		return false, returned
	}
	return true, packet.Packet{}
}

// Tick drains one head packet per non-empty output VC, highest priority
// (lowest number) first so a higher-priority head is always dispatched —
// and therefore delivered, since same-cycle events fire in insertion order
// — ahead of a lower-priority one. Equal priorities rotate round-robin.
func (p *DownstreamPort) Tick() {
	n := len(p.outputVCs)
	order := make([]int, 0, n)
	for step := 0; step < n; step++ {
		i := (p.rr + step) % n
		if !p.outputVCs[i].Empty() {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.outputVCs[order[a]].Priority() < p.outputVCs[order[b]].Priority()
	})
	p.rr = (order[0] + 1) % n
	for _, i := range order {
		if pkt, ok := p.outputVCs[i].Pop(); ok {
			p.dispatch(pkt)
		}
	}
}

// dispatch stamps stats and schedules the delayed delivery to the bound
// upstream peer.
func (p *DownstreamPort) dispatch(pkt packet.Packet) {
	if pkt.IsCredit() {
		p.stats.recordCreditSent(pkt.Credits)
	} else {
		p.stats.recordRequest(pkt.Len())
	}
	if p.tracer != nil {
		p.tracer.TracePacket(p.owner.Name(), p.label, "send", pkt)
	}
	peer := p.pair
	delay := p.delayCycles
	p.scheduler.Schedule(simkernel.NewLambdaEvent(func() {
		if peer == nil || peer.Upstream == nil {
			return
		}
		peer.Upstream.Recv(pkt)
	}), delay)
}

// recvResponse is called directly (no latency) by the bound upstream peer's
// SendResponse. pkt's DstCycle is stamped with the owner's current cycle,
// end-to-end delay computed against pkt.OriginalReq if present, and the
// owner's response handler invoked. Unlike the request path, a refused
// response has nowhere to retry from (there is no response-side VC): the
// module is expected to always accept, or to manage its own retry buffer.
func (p *DownstreamPort) recvResponse(pkt packet.Packet) bool {
	pkt.DstCycle = p.owner.CurrentCycle()
	if pkt.IsCredit() {
		p.stats.recordCreditReceived(pkt.Credits)
	} else {
		p.stats.recordResponse(pkt.Len(), pkt.EndToEndDelay())
	}
	if p.tracer != nil {
		p.tracer.TracePacket(p.owner.Name(), p.label, "recv_response", pkt)
	}
	handler, ok := p.owner.(DownstreamResponseHandler)
	if !ok {
		return true
	}
	return handler.HandleDownstreamResponse(pkt, p.id, p.label)
}

// PortPair is the undirected edge joining one downstream port to one
// upstream port. Requests flow Downstream -> Upstream with link latency;
// responses flow Upstream -> Downstream with none.
type PortPair struct {
	Downstream *DownstreamPort
	Upstream   *UpstreamPort
}

// Bind wires the two ports of an edge together.
func Bind(down *DownstreamPort, up *UpstreamPort) *PortPair {
	pair := &PortPair{Downstream: down, Upstream: up}
	down.pair = pair
	up.pair = pair
	return pair
}
