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

// Package api implements the introspection HTTP server for a running
// simulation: the current cycle, aggregated per-module port statistics,
// and the bound topology. It never drives the simulation itself — callers
// still own calling EventQueue.Run — and it never reads live simulation
// state: request handlers serve whatever Snapshot the simulation goroutine
// last published to the SnapshotStore.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/factory"
)

// Server handles introspection HTTP requests for a running simulation,
// answering every request from the store's latest published snapshot.
type Server struct {
	store *SnapshotStore
}

// NewServer creates and configures a new introspection API server.
func NewServer(store *SnapshotStore) *Server {
	return &Server{store: store}
}

// RegisterRoutes sets up the HTTP routes for the server on the given
// ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/cycle", s.handleCycle)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/topology", s.handleTopology)
}

type cycleResponse struct {
	Cycle uint64 `json:"cycle"`
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, cycleResponse{Cycle: s.store.Cycle()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Load().Stats)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Load().Topology)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// portsProvider is implemented by *core.ModuleBase (and, via embedding, any
// concrete module built on it).
type portsProvider interface {
	Ports() *core.PortManager
}

// ModuleStats walks every instance f built (recursing into composites)
// and returns each leaf module's aggregated PortStats, keyed by name. It
// reads live counters, so it must run on the simulation goroutine (or
// after every Run has returned) — ambient goroutines read the copy inside
// a published Snapshot instead.
func ModuleStats(f *factory.Factory) map[string]core.PortStats {
	out := make(map[string]core.PortStats)
	collectStats(f, out)
	return out
}

func collectStats(f *factory.Factory, out map[string]core.PortStats) {
	for name, obj := range f.Instances() {
		if comp, ok := obj.(*factory.CompositeModule); ok {
			if comp.Inner() != nil {
				collectStats(comp.Inner(), out)
			}
			continue
		}
		if pp, ok := obj.(portsProvider); ok {
			out[name] = pp.Ports().AggregatedStats()
		}
	}
}
