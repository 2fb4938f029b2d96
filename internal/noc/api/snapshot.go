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
	"sync/atomic"

	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/factory"
	"github.com/chisuhua/gem5sc-go/internal/noc/telemetry/promexport"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

// Snapshot is a point-in-time, deep copy of a simulation's observable
// state. Once built it is never mutated, so any number of goroutines may
// read one concurrently.
type Snapshot struct {
	Cycle       uint64
	Events      uint64
	Stats       map[string]core.PortStats
	Topology    factory.Topology
	Ports       []promexport.PortSample
	CreditPools []promexport.CreditPoolSample
}

// TakeSnapshot walks the live topology and copies everything the ambient
// collaborators observe: cycle and event counts, per-module aggregated
// stats, the bound edge set, per-port counter samples, and credit pool
// availability. It reads ports, VCs, and counters directly, so it must run
// on the simulation goroutine (or while no Run is in flight) — never
// concurrently with ticking.
func TakeSnapshot(f *factory.Factory, eq *simkernel.EventQueue) *Snapshot {
	snap := &Snapshot{
		Cycle:    eq.CurrentCycle(),
		Events:   eq.ProcessedEvents(),
		Stats:    ModuleStats(f),
		Topology: f.Dump(),
	}
	collectPortSamples(f, &snap.Ports)
	collectCreditPoolSamples(f, &snap.CreditPools)
	return snap
}

// SnapshotStore hands Snapshots from the simulation goroutine to the
// ambient collaborators (HTTP introspection, telemetry export, checkpoint
// persistence). Publish is called only between Run calls on the goroutine
// driving the event queue; Load may be called from any goroutine and
// returns the most recently published snapshot. The collaborators never
// touch the event queue, ports, or VCs themselves — stale-but-consistent
// reads are the contract.
type SnapshotStore struct {
	v atomic.Value // *Snapshot
}

// NewSnapshotStore returns a store primed with an empty snapshot, so Load
// is safe before the first Publish.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.v.Store(&Snapshot{Stats: map[string]core.PortStats{}})
	return s
}

// Publish replaces the current snapshot.
func (s *SnapshotStore) Publish(snap *Snapshot) { s.v.Store(snap) }

// Load returns the most recently published snapshot.
func (s *SnapshotStore) Load() *Snapshot { return s.v.Load().(*Snapshot) }

// Cycle returns the published snapshot's cycle, shaped for
// promexport.CycleSource.
func (s *SnapshotStore) Cycle() uint64 { return s.Load().Cycle }

// Events returns the published snapshot's processed-event count, shaped for
// promexport.EventsSource.
func (s *SnapshotStore) Events() uint64 { return s.Load().Events }
