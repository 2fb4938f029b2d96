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

package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Loader resolves an include path to its raw JSON bytes. FileLoader reads
// from the local filesystem; tests substitute an in-memory Loader to avoid
// touching disk.
type Loader interface {
	Load(path string) ([]byte, error)
}

// FileLoader reads configuration files from disk relative to the current
// working directory.
type FileLoader struct{}

func (FileLoader) Load(path string) ([]byte, error) { return os.ReadFile(path) }

// MapLoader is an in-memory Loader keyed by path, useful for tests.
type MapLoader map[string][]byte

func (m MapLoader) Load(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("include: no such config %q", path)
	}
	return data, nil
}

// LoadConfig reads path, recursively expanding any "include" field found
// at any level of the document (local keys win over the included ones),
// and unmarshals the fully-expanded tree into a Config. Include cycles are
// detected and rejected.
func LoadConfig(loader Loader, path string) (Config, error) {
	data, err := loader.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("factory: loading %s: %w", path, err)
	}
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return Config{}, fmt.Errorf("factory: parsing %s: %w", path, err)
	}
	expanded, err := expandIncludes(loader, root, path, map[string]bool{path: true})
	if err != nil {
		return Config{}, err
	}
	raw, err := json.Marshal(expanded)
	if err != nil {
		return Config{}, fmt.Errorf("factory: re-marshaling %s after include expansion: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("factory: decoding %s into Config: %w", path, err)
	}
	return cfg, nil
}

func expandIncludes(loader Loader, node any, basePath string, stack map[string]bool) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if incRaw, ok := n["include"]; ok {
			incPath, ok := incRaw.(string)
			if !ok {
				return nil, fmt.Errorf("factory: %s: include must be a string", basePath)
			}
			resolved := filepath.Join(filepath.Dir(basePath), incPath)
			if stack[resolved] {
				return nil, fmt.Errorf("factory: include cycle detected at %s (included from %s)", resolved, basePath)
			}
			data, err := loader.Load(resolved)
			if err != nil {
				return nil, fmt.Errorf("factory: %s: include %s: %w", basePath, resolved, err)
			}
			var included any
			if err := json.Unmarshal(data, &included); err != nil {
				return nil, fmt.Errorf("factory: %s: parsing include %s: %w", basePath, resolved, err)
			}
			childStack := make(map[string]bool, len(stack)+1)
			for k := range stack {
				childStack[k] = true
			}
			childStack[resolved] = true
			expandedIncluded, err := expandIncludes(loader, included, resolved, childStack)
			if err != nil {
				return nil, err
			}
			if includedMap, ok := expandedIncluded.(map[string]any); ok {
				for k, v := range includedMap {
					if _, exists := n[k]; !exists {
						n[k] = v
					}
				}
			}
			delete(n, "include")
		}
		for k, v := range n {
			expanded, err := expandIncludes(loader, v, basePath, stack)
			if err != nil {
				return nil, err
			}
			n[k] = expanded
		}
		return n, nil
	case []any:
		for i, item := range n {
			expanded, err := expandIncludes(loader, item, basePath, stack)
			if err != nil {
				return nil, err
			}
			n[i] = expanded
		}
		return n, nil
	default:
		return node, nil
	}
}
