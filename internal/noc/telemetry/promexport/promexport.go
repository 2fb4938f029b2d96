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

// Package promexport provides opt-in, low-overhead Prometheus export of
// simulation progress and port-level traffic counters. It is safe to call
// from hot paths: when disabled, every exported function is a no-op.
package promexport

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls the exporter. MetricsAddr, when non-empty, starts a
// dedicated HTTP server serving /metrics; leave it empty if the embedding
// process already exposes Prometheus elsewhere and register promhttp.Handler
// on its own mux instead.
type Config struct {
	Enabled     bool
	MetricsAddr string
}

var (
	modEnabled atomic.Bool

	currentCycle = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nocsim_current_cycle",
		Help: "Current simulation cycle as observed by the event queue.",
	})
	eventsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nocsim_events_processed_total",
		Help: "Total events popped off the event queue and processed.",
	})
	packetsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nocsim_packets_sent_total",
		Help: "Total packets dispatched from a downstream port, labeled by module and port.",
	}, []string{"module", "port"})
	packetsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nocsim_packets_dropped_total",
		Help: "Total packets refused by a full virtual channel, labeled by module and port.",
	}, []string{"module", "port"})
	endToEndDelayCycles = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nocsim_end_to_end_delay_cycles",
		Help:    "Distribution of response end-to-end delay in cycles.",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512},
	}, []string{"module", "port"})
	creditPoolAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nocsim_credit_pool_available",
		Help: "Credits currently available in a named credit pool.",
	}, []string{"pool"})
)

func init() {
	prometheus.MustRegister(
		currentCycle,
		eventsProcessedTotal,
		packetsSentTotal,
		packetsDroppedTotal,
		endToEndDelayCycles,
		creditPoolAvailable,
	)
}

// Enable turns the exporter on and, if cfg.MetricsAddr is set, starts a
// background HTTP server for /metrics. Safe to call multiple times.
func Enable(cfg Config) {
	modEnabled.Store(cfg.Enabled)
	if cfg.Enabled && cfg.MetricsAddr != "" {
		startMetricsEndpoint(cfg.MetricsAddr)
	}
}

// Enabled reports whether the exporter is active.
func Enabled() bool { return modEnabled.Load() }

// ObserveCycle records the event queue's current cycle.
func ObserveCycle(cycle uint64) {
	if !modEnabled.Load() {
		return
	}
	currentCycle.Set(float64(cycle))
}

// ObserveEventsProcessed records n events popped and processed by the event
// queue (a Reporter sampling interval's worth of cumulative delta).
func ObserveEventsProcessed(n uint64) {
	if !modEnabled.Load() || n == 0 {
		return
	}
	eventsProcessedTotal.Add(float64(n))
}

// ObservePacketsSent records n packets dispatched from module/port in one
// batch (a Reporter sampling interval's worth of cumulative delta, for
// instance), without looping Inc n times.
func ObservePacketsSent(module, port string, n uint64) {
	if !modEnabled.Load() || n == 0 {
		return
	}
	packetsSentTotal.WithLabelValues(module, port).Add(float64(n))
}

// ObservePacketsDropped records n packets refused by a full VC on
// module/port in one batch.
func ObservePacketsDropped(module, port string, n uint64) {
	if !modEnabled.Load() || n == 0 {
		return
	}
	packetsDroppedTotal.WithLabelValues(module, port).Add(float64(n))
}

// ObserveEndToEndDelay records one end-to-end delay observation in cycles.
// Reporter calls it once per port and sampling interval with the mean delay
// of the responses completed in that interval.
func ObserveEndToEndDelay(module, port string, delayCycles uint64) {
	if !modEnabled.Load() {
		return
	}
	endToEndDelayCycles.WithLabelValues(module, port).Observe(float64(delayCycles))
}

// ObserveCreditPool records a named credit pool's current availability.
func ObserveCreditPool(pool string, available int) {
	if !modEnabled.Load() {
		return
	}
	creditPoolAvailable.WithLabelValues(pool).Set(float64(available))
}

func startMetricsEndpoint(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
