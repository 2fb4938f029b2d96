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

package promexport

import (
	"sync"
	"time"
)

// PortSample is one port's point-in-time counters, as read from
// core.PortStats/VCStats by a Reporter's source function. Module/Port name
// the labels the sample is exported under; the ReqCount/RespCount/ByteCount/
// TotalDelay/Dropped fields are cumulative totals, not per-interval deltas — Reporter computes
// the deltas itself so repeated sampling of a monotonically increasing
// counter never double-counts.
type PortSample struct {
	Module     string
	Port       string
	ReqCount   uint64
	RespCount  uint64
	ByteCount  uint64
	TotalDelay uint64
	Dropped    uint64
}

// CreditPoolSample is one named credit pool's current availability.
type CreditPoolSample struct {
	Name      string
	Available int
}

// Source is called once per Reporter tick to obtain the current cumulative
// counters across every port and credit pool in the running topology.
type Source func() ([]PortSample, []CreditPoolSample)

// CycleSource returns the event queue's current cycle.
type CycleSource func() uint64

// EventsSource returns the event queue's cumulative processed-event count;
// the Reporter exports the per-interval delta.
type EventsSource func() uint64

// Reporter periodically samples a running simulation's cumulative counters
// and exports their deltas to the package-level Prometheus collectors. It
// runs on a wall-clock ticker, independent of simulated cycles, mirroring
// persistence.CheckpointWorker's loop shape so the two can run side by side
// without sharing state.
type Reporter struct {
	source       Source
	cycleSource  CycleSource
	eventsSource EventsSource
	interval     time.Duration

	mu         sync.Mutex
	last       map[string]PortSample
	lastEvents uint64

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  bool
}

// NewReporter returns a Reporter sampling source, cycleSource, and
// eventsSource (which may be nil) every interval. Call Start to begin the
// background loop; it is a no-op sampler (no metrics emitted) until Enable
// has turned the exporter on.
func NewReporter(source Source, cycleSource CycleSource, eventsSource EventsSource, interval time.Duration) *Reporter {
	return &Reporter{
		source:       source,
		cycleSource:  cycleSource,
		eventsSource: eventsSource,
		interval:     interval,
		last:         make(map[string]PortSample),
		stopChan:     make(chan struct{}),
	}
}

// Start launches the background sampling loop.
func (r *Reporter) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
}

// Stop requests the loop exit and waits for it, taking one final sample
// first.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()
	close(r.stopChan)
	r.wg.Wait()
}

func (r *Reporter) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sample()
		case <-r.stopChan:
			r.sample()
			return
		}
	}
}

func (r *Reporter) sample() {
	if !Enabled() {
		return
	}
	ObserveCycle(r.cycleSource())

	ports, pools := r.source()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eventsSource != nil {
		cur := r.eventsSource()
		ObserveEventsProcessed(deltaU64(cur, r.lastEvents))
		r.lastEvents = cur
	}
	for _, s := range ports {
		key := s.Module + "\x00" + s.Port
		prev, ok := r.last[key]
		r.last[key] = s
		if !ok {
			continue
		}
		ObservePacketsSent(s.Module, s.Port, deltaU64(s.ReqCount, prev.ReqCount))
		ObservePacketsDropped(s.Module, s.Port, deltaU64(s.Dropped, prev.Dropped))
		if d := deltaU64(s.RespCount, prev.RespCount); d > 0 && s.TotalDelay >= prev.TotalDelay {
			avg := (s.TotalDelay - prev.TotalDelay) / d
			ObserveEndToEndDelay(s.Module, s.Port, avg)
		}
	}
	for _, p := range pools {
		ObserveCreditPool(p.Name, p.Available)
	}
}

func deltaU64(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
