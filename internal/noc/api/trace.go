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

package api

import (
	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/factory"
	"github.com/chisuhua/gem5sc-go/internal/noc/packet"
	"github.com/chisuhua/gem5sc-go/internal/noc/persistence"
)

// sinkTracer adapts a *persistence.TraceFileSink to core.Tracer, so every
// traced port can append directly to the same JSONL log CheckpointWorker's
// sibling persistence layer writes to.
type sinkTracer struct {
	sink *persistence.TraceFileSink
}

func (t *sinkTracer) TracePacket(module, port, kind string, pkt packet.Packet) {
	cycle := pkt.DstCycle
	if cycle == 0 {
		cycle = pkt.SrcCycle
	}
	t.sink.Append(persistence.PacketEvent{
		Cycle:      cycle,
		Module:     module,
		Port:       labelOrIndex(port),
		Kind:       kind,
		VCID:       pkt.VCID,
		StreamID:   pkt.StreamID,
		SeqNum:     pkt.SeqNum,
		PayloadLen: pkt.Len(),
	})
}

// AttachTrace wires sink into every port of every leaf module f built,
// recursing into composite modules the same way collectPortSamples does, so
// every packet crossing anywhere in the topology is appended to sink as it
// happens. Attaching a trace sink is opt-in and independent of the
// deterministic tick path: a port with no tracer attached pays nothing
// beyond a nil check per crossing. Call it before the simulation starts
// running: it walks live port structures, and the tracer itself then runs
// on the simulation goroutine (TraceFileSink serializes its own writes).
func AttachTrace(f *factory.Factory, sink *persistence.TraceFileSink) {
	tracer := &sinkTracer{sink: sink}
	attachTrace(f, tracer)
}

func attachTrace(f *factory.Factory, tracer core.Tracer) {
	for _, obj := range f.Instances() {
		if comp, ok := obj.(*factory.CompositeModule); ok {
			if comp.Inner() != nil {
				attachTrace(comp.Inner(), tracer)
			}
			continue
		}
		pp, ok := obj.(portsProvider)
		if !ok {
			continue
		}
		pp.Ports().ForEachUpstream(func(p *core.UpstreamPort) { p.SetTracer(tracer) })
		pp.Ports().ForEachDownstream(func(p *core.DownstreamPort) { p.SetTracer(tracer) })
	}
}
