package factory

import (
	"strings"
	"testing"
)

func TestLoadConfigExpandsIncludeWithLocalKeysWinning(t *testing.T) {
	loader := MapLoader{
		"top.json": []byte(`{
			"include": "base.json",
			"connections": [{"src": "cpu0", "dst": "l1", "latency": 7}]
		}`),
		"base.json": []byte(`{
			"modules": [
				{"name": "cpu0", "type": "fixture"},
				{"name": "l1", "type": "fixture"}
			],
			"connections": [{"src": "cpu0", "dst": "l1", "latency": 1}]
		}`),
	}

	cfg, err := LoadConfig(loader, "top.json")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Modules) != 2 {
		t.Fatalf("modules=%d want 2 (merged in from base.json)", len(cfg.Modules))
	}
	if len(cfg.Connections) != 1 {
		t.Fatalf("connections=%d want 1", len(cfg.Connections))
	}
	if cfg.Connections[0].Latency != 7 {
		t.Fatalf("latency=%d want 7: the including file's connections key must win over base.json's", cfg.Connections[0].Latency)
	}
}

func TestLoadConfigExpandsNestedIncludes(t *testing.T) {
	loader := MapLoader{
		"top.json":  []byte(`{"include": "mid.json"}`),
		"mid.json":  []byte(`{"include": "leaf.json", "groups": {"cpus": ["cpu0"]}}`),
		"leaf.json": []byte(`{"modules": [{"name": "cpu0", "type": "fixture"}]}`),
	}

	cfg, err := LoadConfig(loader, "top.json")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0].Name != "cpu0" {
		t.Fatalf("modules=%+v want the one module from leaf.json", cfg.Modules)
	}
	if _, ok := cfg.Groups["cpus"]; !ok {
		t.Fatalf("groups missing %q from mid.json", "cpus")
	}
}

func TestLoadConfigRejectsIncludeCycle(t *testing.T) {
	loader := MapLoader{
		"a.json": []byte(`{"include": "b.json"}`),
		"b.json": []byte(`{"include": "a.json"}`),
	}

	_, err := LoadConfig(loader, "a.json")
	if err == nil {
		t.Fatalf("LoadConfig should reject an include cycle")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("error should name the cycle, got: %v", err)
	}
}

func TestLoadConfigRejectsNonStringInclude(t *testing.T) {
	loader := MapLoader{
		"bad.json": []byte(`{"include": 42}`),
	}
	if _, err := LoadConfig(loader, "bad.json"); err == nil {
		t.Fatalf("LoadConfig should reject a non-string include")
	}
}
