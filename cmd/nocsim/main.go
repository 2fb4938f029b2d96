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

// Package main provides the entry point for the interconnect simulator.
//
// It loads a declarative JSON topology, instantiates and binds every
// module and connection it describes, and drives the event queue for a
// fixed number of cycles (or, with -serve, indefinitely behind an HTTP
// introspection server until interrupted). Checkpoint persistence and
// Prometheus export are both opt-in, wall-clock-driven side collaborators:
// neither ever sits on the deterministic cycle-advance path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chisuhua/gem5sc-go/internal/noc/api"
	"github.com/chisuhua/gem5sc-go/internal/noc/factory"
	"github.com/chisuhua/gem5sc-go/internal/noc/modules"
	"github.com/chisuhua/gem5sc-go/internal/noc/persistence"
	"github.com/chisuhua/gem5sc-go/internal/noc/telemetry/promexport"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

func main() {
	topologyPath := flag.String("topology", "", "Path to the topology JSON config (required)")
	cycles := flag.Uint64("cycles", 1000, "Number of cycles to run before exiting (ignored with -serve)")
	serve := flag.Bool("serve", false, "Run indefinitely, ticking once per -tick_interval and serving introspection over HTTP, until interrupted")
	tickInterval := flag.Duration("tick_interval", time.Millisecond, "Wall-clock interval between cycles in -serve mode")
	httpAddr := flag.String("http_addr", ":8090", "HTTP introspection listen address (/cycle, /stats, /topology)")
	checkpointAdapter := flag.String("checkpoint_adapter", "", "Checkpoint sink: \"\" (disabled), \"log\", or \"redis\"")
	checkpointInterval := flag.Duration("checkpoint_interval", 5*time.Second, "How often the checkpoint worker snapshots module statistics")
	redisAddr := flag.String("redis_addr", "", "Redis address for -checkpoint_adapter=redis (e.g. localhost:6379); empty uses a logging stand-in")
	metricsEnabled := flag.Bool("metrics", false, "Enable Prometheus export")
	metricsAddr := flag.String("metrics_addr", ":9090", "Prometheus /metrics listen address")
	metricsInterval := flag.Duration("metrics_interval", time.Second, "How often the telemetry reporter samples cumulative counters")
	traceFile := flag.String("trace_file", "", "Append every packet crossing to this JSONL trace log (disabled when empty)")
	flag.Parse()

	if *topologyPath == "" {
		fmt.Fprintln(os.Stderr, "nocsim: -topology is required")
		flag.Usage()
		os.Exit(2)
	}

	eq := simkernel.New()
	registry := factory.NewRegistry()
	modules.RegisterDefaults(registry)
	loader := factory.FileLoader{}

	cfg, err := factory.LoadConfig(loader, *topologyPath)
	if err != nil {
		log.Fatalf("nocsim: loading topology: %v", err)
	}

	f := factory.New(eq, registry, loader)
	diags := f.InstantiateAll(cfg)
	for _, d := range diags {
		log.Printf("nocsim: diagnostic: %s", d.String())
	}
	f.StartAllTicks()

	if *traceFile != "" {
		sink, err := persistence.NewTraceFileSink(*traceFile)
		if err != nil {
			log.Fatalf("nocsim: opening trace file: %v", err)
		}
		defer sink.Close()
		api.AttachTrace(f, sink)
	}

	// Every ambient collaborator below (metrics reporter, checkpoint
	// worker, HTTP handlers) reads only what the simulation goroutine
	// publishes here between Run calls; none of them touch the event
	// queue, ports, or VCs directly.
	store := api.NewSnapshotStore()
	store.Publish(api.TakeSnapshot(f, eq))

	promexport.Enable(promexport.Config{Enabled: *metricsEnabled, MetricsAddr: *metricsAddr})
	reporter := promexport.NewReporter(api.TelemetrySource(store), store.Cycle, store.Events, *metricsInterval)
	if *metricsEnabled {
		reporter.Start()
		defer reporter.Stop()
	}

	var checkpointWorker *persistence.CheckpointWorker
	if *checkpointAdapter != "" {
		sink, err := persistence.BuildSink(*checkpointAdapter, persistence.Options{RedisAddr: *redisAddr})
		if err != nil {
			log.Fatalf("nocsim: building checkpoint sink: %v", err)
		}
		checkpointWorker = persistence.NewCheckpointWorker(sink, api.CheckpointSnapshot(store), *checkpointInterval)
		checkpointWorker.Start()
		defer checkpointWorker.Stop()
	}

	if !*serve {
		eq.Run(*cycles)
		store.Publish(api.TakeSnapshot(f, eq))
		printSummary(f, eq)
		return
	}

	runServing(f, eq, store, *httpAddr, *tickInterval)
	printSummary(f, eq)
}

// runServing ticks the event queue once per tickInterval on a background
// goroutine — publishing a fresh snapshot to store after every Run(1), the
// only hand-off between the simulation and its observers — while the
// introspection HTTP server answers requests, until an interrupt or
// termination signal arrives. It returns only after the ticking goroutine
// has fully stopped, so the caller may touch live state again.
func runServing(f *factory.Factory, eq *simkernel.EventQueue, store *api.SnapshotStore, httpAddr string, tickInterval time.Duration) {
	srv := api.NewServer(store)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	httpServer := &http.Server{Addr: httpAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		fmt.Printf("nocsim: introspection server listening on %s\n", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("nocsim: http server: %v", err)
		}
	}()

	tickStop := make(chan struct{})
	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				eq.Run(1)
				store.Publish(api.TakeSnapshot(f, eq))
			case <-tickStop:
				return
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nnocsim: shutting down...")
	close(tickStop)
	<-tickDone

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("nocsim: http server shutdown: %v", err)
	}
}

func printSummary(f *factory.Factory, eq *simkernel.EventQueue) {
	fmt.Printf("nocsim: ran %d cycles\n", eq.CurrentCycle())
	stats := api.ModuleStats(f)
	for name, s := range stats {
		fmt.Printf("  %-20s %s\n", name, s.String())
	}
}
