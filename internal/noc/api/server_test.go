package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/factory"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

type fixtureModule struct {
	*core.ModuleBase
}

func (f *fixtureModule) Tick() { f.TickPorts() }

func buildFixtureFactory(t *testing.T) (*factory.Factory, *simkernel.EventQueue) {
	t.Helper()
	eq := simkernel.New()
	reg := factory.NewRegistry()
	reg.RegisterSimple("fixture", func(name string, eq *simkernel.EventQueue) (core.SimObject, error) {
		return &fixtureModule{ModuleBase: core.NewModuleBase(name, eq)}, nil
	})
	f := factory.New(eq, reg, factory.MapLoader{})
	cfg := factory.Config{
		Modules: []factory.ModuleSpec{
			{Name: "a", Type: "fixture"},
			{Name: "b", Type: "fixture"},
		},
		Connections: []factory.ConnectionSpec{
			{Src: "a", Dst: "b", Latency: 2},
		},
	}
	diags := f.InstantiateAll(cfg)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return f, eq
}

func TestServerCycleStatsAndTopologyEndpoints(t *testing.T) {
	f, eq := buildFixtureFactory(t)
	eq.Run(10)

	store := NewSnapshotStore()
	store.Publish(TakeSnapshot(f, eq))

	srv := NewServer(store)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := ts.Client()

	resp, err := client.Get(ts.URL + "/cycle")
	if err != nil {
		t.Fatalf("/cycle: %v", err)
	}
	var cr cycleResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		t.Fatalf("decode /cycle: %v", err)
	}
	resp.Body.Close()
	if cr.Cycle != 10 {
		t.Fatalf("Cycle=%d want 10", cr.Cycle)
	}

	resp, err = client.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("/stats: %v", err)
	}
	var stats map[string]core.PortStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode /stats: %v", err)
	}
	resp.Body.Close()
	if _, ok := stats["a"]; !ok {
		t.Fatalf("stats missing module %q: %v", "a", stats)
	}
	if _, ok := stats["b"]; !ok {
		t.Fatalf("stats missing module %q: %v", "b", stats)
	}

	resp, err = client.Get(ts.URL + "/topology")
	if err != nil {
		t.Fatalf("/topology: %v", err)
	}
	var topo factory.Topology
	if err := json.NewDecoder(resp.Body).Decode(&topo); err != nil {
		t.Fatalf("decode /topology: %v", err)
	}
	resp.Body.Close()
	if len(topo.Edges) != 1 {
		t.Fatalf("Edges=%d want 1: %v", len(topo.Edges), topo.Edges)
	}
	if topo.Edges[0].SrcInstance != "a" || topo.Edges[0].DstInstance != "b" {
		t.Fatalf("unexpected edge: %+v", topo.Edges[0])
	}
	if topo.Edges[0].Latency != 2 {
		t.Fatalf("Latency=%d want 2", topo.Edges[0].Latency)
	}
}

func TestCheckpointSnapshotProducesOneCheckpointPerModule(t *testing.T) {
	f, eq := buildFixtureFactory(t)
	eq.Run(5)

	store := NewSnapshotStore()
	store.Publish(TakeSnapshot(f, eq))

	snap := CheckpointSnapshot(store)
	checkpoints := snap()
	if len(checkpoints) != 2 {
		t.Fatalf("len(checkpoints)=%d want 2", len(checkpoints))
	}
	for _, cp := range checkpoints {
		if cp.Cycle != 5 {
			t.Fatalf("Checkpoint.Cycle=%d want 5", cp.Cycle)
		}
	}
}

// TestSnapshotStoreServesLatestPublishedCopy pins the hand-off contract:
// readers observe the published snapshot, not live state, until the
// simulation goroutine publishes again.
func TestSnapshotStoreServesLatestPublishedCopy(t *testing.T) {
	f, eq := buildFixtureFactory(t)

	store := NewSnapshotStore()
	if got := store.Cycle(); got != 0 {
		t.Fatalf("fresh store Cycle()=%d want 0 (primed empty snapshot)", got)
	}

	eq.Run(10)
	store.Publish(TakeSnapshot(f, eq))
	if got := store.Cycle(); got != 10 {
		t.Fatalf("Cycle()=%d want 10 after publish", got)
	}

	eq.Run(10)
	// Not yet published: readers must still see the cycle-10 snapshot.
	if got := store.Cycle(); got != 10 {
		t.Fatalf("Cycle()=%d want 10: a Run without a Publish must not be observable", got)
	}
	store.Publish(TakeSnapshot(f, eq))
	if got := store.Cycle(); got != 20 {
		t.Fatalf("Cycle()=%d want 20 after second publish", got)
	}
}
