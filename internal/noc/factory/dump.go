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

import "sort"

// Topology is a flattened, order-independent snapshot of what a Factory
// built: every materialized edge, already expanded past wildcards, groups
// and regexes. Two Topologies produced from differently-authored configs
// that describe the same wiring compare equal after sorting, which Dump
// already does.
type Topology struct {
	Edges []Edge
}

// Edge is one bound src-port -> dst-port link.
type Edge struct {
	SrcInstance string
	SrcPort     string
	DstInstance string
	DstPort     string
	Latency     uint64
}

// Dump walks every downstream port this factory materialized and reports
// the edge it is bound to, independent of the connection syntax (wildcard,
// group, regex, or literal) that produced it.
func (f *Factory) Dump() Topology {
	var edges []Edge
	for key, down := range f.downstreamByKey {
		peer := down.Peer()
		if peer == nil {
			continue
		}
		srcName, _ := splitKeyParts(key)
		dstName := ""
		for upKey, up := range f.upstreamByKey {
			if up == peer {
				dstName, _ = splitKeyParts(upKey)
				break
			}
		}
		edges = append(edges, Edge{
			SrcInstance: srcName,
			SrcPort:     down.Label(),
			DstInstance: dstName,
			DstPort:     peer.Label(),
			Latency:     down.DelayCycles(),
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SrcInstance != edges[j].SrcInstance {
			return edges[i].SrcInstance < edges[j].SrcInstance
		}
		if edges[i].SrcPort != edges[j].SrcPort {
			return edges[i].SrcPort < edges[j].SrcPort
		}
		if edges[i].DstInstance != edges[j].DstInstance {
			return edges[i].DstInstance < edges[j].DstInstance
		}
		return edges[i].DstPort < edges[j].DstPort
	})
	return Topology{Edges: edges}
}

// splitKeyParts reverses the "\x00"-joined key used by downstreamByKey /
// upstreamByKey back into its (instance, port) pair.
func splitKeyParts(key string) (instance, port string) {
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
