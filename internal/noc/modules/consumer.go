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

// ConsumerOptions configures a Consumer's response timing.
type ConsumerOptions struct {
	// ResponseDelayCycles is how long after accepting a request the
	// consumer schedules its response. 0 means same-step (delay-0 event,
	// still ordered after the accepting tick per simkernel's FIFO
	// same-cycle semantics).
	ResponseDelayCycles uint64
}

// DefaultConsumerOptions responds on the same cycle it accepts a request.
func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{ResponseDelayCycles: 0}
}

// Consumer accepts every request arriving on any of its upstream ports and
// replies, after ResponseDelayCycles, on the same port. Grounded on
// original_source/include/modules/cpu_sim.hh's OutPort/handleResponse
// shape, inverted: cpu_sim issues requests and waits for responses, a
// Consumer here is the far end that serves them.
type Consumer struct {
	*core.ModuleBase

	opts   ConsumerOptions
	served int
}

// NewConsumer returns a Consumer bound to eq.
func NewConsumer(name string, eq *simkernel.EventQueue, opts ConsumerOptions) *Consumer {
	return &Consumer{ModuleBase: core.NewModuleBase(name, eq), opts: opts}
}

// Served returns how many requests have been answered so far.
func (c *Consumer) Served() int { return c.served }

func (c *Consumer) Tick() { c.TickPorts() }

// HandleUpstreamRequest schedules a response on the port the request
// arrived on, preserving the request's VC id as spec.md §3 requires of
// every module along the path.
func (c *Consumer) HandleUpstreamRequest(pkt packet.Packet, srcPortID int, srcLabel string) bool {
	if !pkt.IsRequest() {
		return false
	}
	up, ok := c.Ports().UpstreamByIndex(srcPortID)
	if !ok {
		return false
	}
	reqCopy := pkt
	eq := c.EventQueue()
	eq.Schedule(simkernel.NewLambdaEvent(func() {
		resp := packet.NewResponse(&reqCopy, eq.CurrentCycle(), reqCopy.Payload)
		up.SendResponse(resp)
	}), c.opts.ResponseDelayCycles)
	c.served++
	return true
}
