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

import "github.com/chisuhua/gem5sc-go/pkg/simkernel"

// SimObject is anything the factory can instantiate and tick. Concrete
// device models implement Tick (and, where relevant,
// UpstreamRequestHandler / DownstreamResponseHandler) on top of ModuleBase.
type SimObject interface {
	simkernel.Tickable
	Name() string
}

// Layout is the module's position in whatever 2-D layout the topology was
// given (or assigned by default-grid fallback); it has no effect on
// simulation semantics.
type Layout struct {
	X, Y float64
}

// ModuleBase is the embeddable core every concrete module builds on: a
// name, a handle on the shared event queue (for CurrentCycle and for
// scheduling its own follow-on events), and its own PortManager. It
// satisfies Host, so ports created through its PortManager can stamp
// arrivals against ModuleBase.CurrentCycle directly.
type ModuleBase struct {
	name   string
	eq     *simkernel.EventQueue
	ports  *PortManager
	layout Layout
}

// NewModuleBase wires name to eq, allocating a fresh PortManager.
func NewModuleBase(name string, eq *simkernel.EventQueue) *ModuleBase {
	return &ModuleBase{name: name, eq: eq, ports: NewPortManager()}
}

func (m *ModuleBase) Name() string                      { return m.name }
func (m *ModuleBase) CurrentCycle() uint64              { return m.eq.CurrentCycle() }
func (m *ModuleBase) Ports() *PortManager               { return m.ports }
func (m *ModuleBase) EventQueue() *simkernel.EventQueue { return m.eq }
func (m *ModuleBase) Layout() Layout                    { return m.layout }
func (m *ModuleBase) SetLayout(l Layout)                { m.layout = l }

// TickPorts drains every port the module owns; a concrete module's own
// Tick method should call this once per cycle (typically first, so packets
// delivered this cycle are visible to the module's own logic afterward).
func (m *ModuleBase) TickPorts() { m.ports.Tick() }

// StartTicking arms the module on the event queue so its Tick method (which
// must be provided by the embedding type, not ModuleBase itself) begins
// firing every cycle starting one cycle from now.
func StartTicking(eq *simkernel.EventQueue, owner simkernel.Tickable) {
	eq.Schedule(simkernel.NewTickEvent(owner), 1)
}
