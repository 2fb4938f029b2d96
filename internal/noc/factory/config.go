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

// Package factory builds a running topology from a declarative JSON
// configuration: include expansion, module instantiation, group/wildcard/
// regex connection resolution, and port materialization and binding.
package factory

import "encoding/json"

// Config is the declarative topology description. It is also the shape of
// a composite module's inner configuration file, which additionally may
// populate Outputs/Inputs to expose internal ports under external aliases.
type Config struct {
	Include     string                `json:"include,omitempty"`
	Modules     []ModuleSpec          `json:"modules,omitempty"`
	Groups      map[string]GroupSpec  `json:"groups,omitempty"`
	Connections []ConnectionSpec      `json:"connections,omitempty"`
	Outputs     map[string]string     `json:"outputs,omitempty"`
	Inputs      map[string]string     `json:"inputs,omitempty"`
}

// ModuleSpec describes one module instance to create.
type ModuleSpec struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Layout *LayoutSpec `json:"layout,omitempty"`
	// Config is a path to a nested Config used when Type names a
	// registered composite constructor.
	Config string `json:"config,omitempty"`
}

type LayoutSpec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GroupSpec is either a bare array of member names or an object with a
// members array and an optional placement hint (placement has no effect on
// simulation semantics; it is carried through only as metadata).
type GroupSpec struct {
	Members   []string `json:"members"`
	Placement string   `json:"placement,omitempty"`
}

func (g *GroupSpec) UnmarshalJSON(data []byte) error {
	var members []string
	if err := json.Unmarshal(data, &members); err == nil {
		g.Members = members
		return nil
	}
	type alias GroupSpec
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*g = GroupSpec(a)
	return nil
}

// ConnectionSpec describes one connection, possibly expanding to many
// module.port pairs once src/dst are resolved.
type ConnectionSpec struct {
	Src               string   `json:"src"`
	Dst               string   `json:"dst"`
	Latency           int      `json:"latency,omitempty"`
	InputBufferSizes  []int    `json:"input_buffer_sizes,omitempty"`
	OutputBufferSizes []int    `json:"output_buffer_sizes,omitempty"`
	VCPriorities      []int    `json:"vc_priorities,omitempty"`
	Exclude           []string `json:"exclude,omitempty"`
}

// defaultBufferSizes is used whenever a connection does not specify its
// own VC sizing: one VC of capacity 4.
var defaultBufferSizes = []int{4}

func bufferSizesOrDefault(sizes []int) []int {
	if len(sizes) == 0 {
		return defaultBufferSizes
	}
	return sizes
}
