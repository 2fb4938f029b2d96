//go:build e2e

// Package e2e contains end-to-end tests that build and launch the real
// nocsim binary and exercise it over HTTP, the same way a deployed demo
// would be driven.
package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

type runningServer struct {
	cmd     *exec.Cmd
	baseURL string
	logC    chan string
}

const sampleTopology = `{
  "modules": [
    {"name": "gen", "type": "producer"},
    {"name": "mem", "type": "consumer"}
  ],
  "connections": [
    {"src": "gen", "dst": "mem", "latency": 1, "output_buffer_sizes": [4]}
  ]
}`

func buildAndStartServer(t *testing.T, topologyPath string, extraArgs ...string) *runningServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	_, port, _ := net.SplitHostPort(addr)

	tmpDir := t.TempDir()
	exe := filepath.Join(tmpDir, exeName("nocsim"))
	build := exec.Command("go", "build", "-o", exe, "github.com/chisuhua/gem5sc-go/cmd/nocsim")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build nocsim: %v", err)
	}

	args := []string{
		"-topology=" + topologyPath,
		"-serve",
		"-http_addr=:" + port,
		"-tick_interval=1ms",
	}
	args = append(args, extraArgs...)

	cmd := exec.Command(exe, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("StdoutPipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.Fatalf("StderrPipe: %v", err)
	}

	logC := make(chan string, 1024)
	go scanLines(stdout, logC)
	go scanLines(stderr, logC)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start nocsim: %v", err)
	}

	base := fmt.Sprintf("http://127.0.0.1:%s", port)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok := false
	for ctx.Err() == nil {
		resp, err := client.Get(base + "/cycle")
		if err == nil {
			resp.Body.Close()
			ok = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !ok {
		_ = cmd.Process.Kill()
		t.Fatalf("nocsim did not become ready (HTTP check failed)")
	}

	rs := &runningServer{cmd: cmd, baseURL: base, logC: logC}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return rs
}

func scanLines(r io.ReadCloser, out chan<- string) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		out <- s.Text()
	}
}

func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func writeTopology(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topology.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing topology: %v", err)
	}
	return path
}

// TestE2E_CycleAdvances verifies that a running nocsim instance advances its
// cycle counter over wall-clock time.
func TestE2E_CycleAdvances(t *testing.T) {
	topoPath := writeTopology(t, sampleTopology)
	rs := buildAndStartServer(t, topoPath)
	client := &http.Client{Timeout: 2 * time.Second}

	first := fetchCycle(t, client, rs.baseURL)
	time.Sleep(200 * time.Millisecond)
	second := fetchCycle(t, client, rs.baseURL)

	if second <= first {
		t.Fatalf("cycle did not advance: first=%d second=%d", first, second)
	}
}

// TestE2E_StatsReflectTraffic verifies /stats reports non-zero traffic for
// the producer once the simulation has had time to run.
func TestE2E_StatsReflectTraffic(t *testing.T) {
	topoPath := writeTopology(t, sampleTopology)
	rs := buildAndStartServer(t, topoPath)
	client := &http.Client{Timeout: 2 * time.Second}

	time.Sleep(300 * time.Millisecond)

	resp, err := client.Get(rs.baseURL + "/stats")
	if err != nil {
		t.Fatalf("/stats: %v", err)
	}
	defer resp.Body.Close()
	var stats map[string]struct {
		ReqCount uint64 `json:"ReqCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode /stats: %v", err)
	}
	gen, ok := stats["gen"]
	if !ok {
		t.Fatalf("stats missing producer %q: %v", "gen", stats)
	}
	if gen.ReqCount == 0 {
		t.Fatalf("producer ReqCount=0 after running, want > 0")
	}
}

// TestE2E_TopologyReportsBoundEdge verifies /topology reports the single
// connection the sample topology declares.
func TestE2E_TopologyReportsBoundEdge(t *testing.T) {
	topoPath := writeTopology(t, sampleTopology)
	rs := buildAndStartServer(t, topoPath)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(rs.baseURL + "/topology")
	if err != nil {
		t.Fatalf("/topology: %v", err)
	}
	defer resp.Body.Close()
	var topo struct {
		Edges []struct {
			SrcInstance string
			DstInstance string
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(&topo); err != nil {
		t.Fatalf("decode /topology: %v", err)
	}
	if len(topo.Edges) != 1 {
		t.Fatalf("Edges=%d want 1: %v", len(topo.Edges), topo.Edges)
	}
	if topo.Edges[0].SrcInstance != "gen" || topo.Edges[0].DstInstance != "mem" {
		t.Fatalf("unexpected edge: %+v", topo.Edges[0])
	}
}

func fetchCycle(t *testing.T, client *http.Client, baseURL string) uint64 {
	t.Helper()
	resp, err := client.Get(baseURL + "/cycle")
	if err != nil {
		t.Fatalf("/cycle: %v", err)
	}
	defer resp.Body.Close()
	var cr struct {
		Cycle uint64 `json:"cycle"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		t.Fatalf("decode /cycle: %v", err)
	}
	return cr.Cycle
}
