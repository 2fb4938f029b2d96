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

// Package packet defines the flow unit carried across ports and virtual
// channels: a payload handle plus the cycle stamps, VC id, and stream
// identity the core needs to route and account for it.
package packet

// Type classifies a Packet. Exactly one of the request/response/stream/
// credit predicates below holds for any well-formed Packet.
type Type int

const (
	ReqRead Type = iota
	ReqWrite
	Resp
	StreamData
	CreditReturn
)

func (t Type) String() string {
	switch t {
	case ReqRead:
		return "REQ_READ"
	case ReqWrite:
		return "REQ_WRITE"
	case Resp:
		return "RESP"
	case StreamData:
		return "STREAM_DATA"
	case CreditReturn:
		return "CREDIT_RETURN"
	default:
		return "UNKNOWN"
	}
}

// Packet is a value type: the API moves it by value so ownership is
// structurally unambiguous. A component holding a Packet owns it; passing
// it to Send consumes it on success (see Packet.Send-adjacent types in
// internal/noc/core) and returns it back to the caller on failure. There is
// never a raw pointer left behind to double-free.
type Packet struct {
	// Payload is an opaque, caller-owned byte-oriented request/response
	// handle. It is owned by the packet when Type is not CreditReturn;
	// credit-return packets borrow no payload (Payload is nil).
	Payload []byte

	Type Type

	SrcCycle uint64
	DstCycle uint64

	// OriginalReq is a weak, non-owning back-reference from a response to
	// the request that caused it. It is used only for end-to-end latency
	// measurement; the request itself must be kept alive elsewhere (an
	// in-flight table keyed by request id in the originating module) for
	// as long as a response may still reference it.
	OriginalReq *Packet

	VCID     int
	StreamID uint64
	SeqNum   uint64

	// Credits is the number of credits returned by a CREDIT_RETURN packet.
	// Zero for all other types.
	Credits int

	// Tags carries opaque, core-unaware extension state (coherence state,
	// prefetch hints, QoS class, ...) for device models to attach and
	// read. The core never inspects or mutates it.
	Tags map[string]any
}

// New builds a request or stream packet stamped at srcCycle.
func New(typ Type, srcCycle uint64, vcID int, streamID, seqNum uint64, payload []byte) Packet {
	return Packet{
		Payload:  payload,
		Type:     typ,
		SrcCycle: srcCycle,
		VCID:     vcID,
		StreamID: streamID,
		SeqNum:   seqNum,
	}
}

// NewResponse builds a response packet that weakly references req.
func NewResponse(req *Packet, srcCycle uint64, payload []byte) Packet {
	return Packet{
		Payload:     payload,
		Type:        Resp,
		SrcCycle:    srcCycle,
		VCID:        req.VCID,
		StreamID:    req.StreamID,
		SeqNum:      req.SeqNum,
		OriginalReq: req,
	}
}

// NewCreditReturn builds a credit-return packet carrying n credits for vcID.
func NewCreditReturn(srcCycle uint64, vcID int, streamID uint64, n int) Packet {
	return Packet{
		Type:     CreditReturn,
		SrcCycle: srcCycle,
		VCID:     vcID,
		StreamID: streamID,
		Credits:  n,
	}
}

func (p *Packet) IsRequest() bool  { return p.Type == ReqRead || p.Type == ReqWrite }
func (p *Packet) IsResponse() bool { return p.Type == Resp }
func (p *Packet) IsStream() bool   { return p.Type == StreamData }
func (p *Packet) IsCredit() bool   { return p.Type == CreditReturn }

// Len returns the payload length in bytes (0 for credit-return packets).
func (p *Packet) Len() int { return len(p.Payload) }

// DelayCycles returns dst_cycle - src_cycle, or 0 if the packet has not yet
// been stamped with a destination cycle.
func (p *Packet) DelayCycles() uint64 {
	if p.DstCycle < p.SrcCycle {
		return 0
	}
	return p.DstCycle - p.SrcCycle
}

// EndToEndDelay returns dst_cycle - original_req.src_cycle for a response
// packet with a live OriginalReq; 0 otherwise.
func (p *Packet) EndToEndDelay() uint64 {
	if p.OriginalReq == nil || p.DstCycle < p.OriginalReq.SrcCycle {
		return 0
	}
	return p.DstCycle - p.OriginalReq.SrcCycle
}
