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

import "fmt"

// PortManager is the per-module registry of upstream and downstream ports,
// addressable by index or by label. A module owns exactly one PortManager,
// created alongside it and populated as the factory binds connections.
type PortManager struct {
	upstream   []*UpstreamPort
	downstream []*DownstreamPort

	upstreamByLabel   map[string]int
	downstreamByLabel map[string]int
}

// NewPortManager returns an empty registry.
func NewPortManager() *PortManager {
	return &PortManager{
		upstreamByLabel:   make(map[string]int),
		downstreamByLabel: make(map[string]int),
	}
}

// AddUpstreamPort creates and registers a new upstream port on owner with
// one input VC per entry of bufferSizes (priorities is parallel, missing
// entries default to the VC's own index). label may be empty; non-empty
// labels must be unique among the module's upstream ports.
func (m *PortManager) AddUpstreamPort(owner Host, bufferSizes, priorities []int, label string) (*UpstreamPort, error) {
	if label != "" {
		if _, exists := m.upstreamByLabel[label]; exists {
			return nil, fmt.Errorf("port manager: duplicate upstream port label %q on %s", label, owner.Name())
		}
	}
	id := len(m.upstream)
	p := newUpstreamPort(id, label, owner, bufferSizes, priorities)
	m.upstream = append(m.upstream, p)
	if label != "" {
		m.upstreamByLabel[label] = id
	}
	return p, nil
}

// AddDownstreamPort creates and registers a new downstream port on owner,
// with the given link latency and a scheduler used for delayed delivery.
func (m *PortManager) AddDownstreamPort(owner Host, bufferSizes, priorities []int, delayCycles uint64, sched Scheduler, label string) (*DownstreamPort, error) {
	if label != "" {
		if _, exists := m.downstreamByLabel[label]; exists {
			return nil, fmt.Errorf("port manager: duplicate downstream port label %q on %s", label, owner.Name())
		}
	}
	id := len(m.downstream)
	p := newDownstreamPort(id, label, owner, bufferSizes, priorities, delayCycles, sched)
	m.downstream = append(m.downstream, p)
	if label != "" {
		m.downstreamByLabel[label] = id
	}
	return p, nil
}

func (m *PortManager) UpstreamByIndex(i int) (*UpstreamPort, bool) {
	if i < 0 || i >= len(m.upstream) {
		return nil, false
	}
	return m.upstream[i], true
}

func (m *PortManager) DownstreamByIndex(i int) (*DownstreamPort, bool) {
	if i < 0 || i >= len(m.downstream) {
		return nil, false
	}
	return m.downstream[i], true
}

func (m *PortManager) UpstreamByLabel(label string) (*UpstreamPort, bool) {
	i, ok := m.upstreamByLabel[label]
	if !ok {
		return nil, false
	}
	return m.upstream[i], true
}

func (m *PortManager) DownstreamByLabel(label string) (*DownstreamPort, bool) {
	i, ok := m.downstreamByLabel[label]
	if !ok {
		return nil, false
	}
	return m.downstream[i], true
}

func (m *PortManager) UpstreamCount() int   { return len(m.upstream) }
func (m *PortManager) DownstreamCount() int { return len(m.downstream) }

// ForEachUpstream calls fn for every registered upstream port, in
// registration order.
func (m *PortManager) ForEachUpstream(fn func(*UpstreamPort)) {
	for _, p := range m.upstream {
		fn(p)
	}
}

// ForEachDownstream calls fn for every registered downstream port, in
// registration order.
func (m *PortManager) ForEachDownstream(fn func(*DownstreamPort)) {
	for _, p := range m.downstream {
		fn(p)
	}
}

// AggregatedStats sums every port's PortStats, upstream and downstream
// together, into a single totals record.
func (m *PortManager) AggregatedStats() PortStats {
	var total PortStats
	for _, p := range m.upstream {
		total.Merge(p.Stats())
	}
	for _, p := range m.downstream {
		total.Merge(p.Stats())
	}
	return total
}

// Tick drains every registered port once, downstream ports first, then
// upstream ports. A downstream port's Tick only schedules delivery on the
// event queue, so nothing it sends reaches any upstream port within this
// call; the upstream ports drain what earlier Recv calls already buffered.
func (m *PortManager) Tick() {
	for _, p := range m.downstream {
		p.Tick()
	}
	for _, p := range m.upstream {
		p.Tick()
	}
}
