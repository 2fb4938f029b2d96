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
	"fmt"

	"github.com/chisuhua/gem5sc-go/internal/noc/core"
)

// endpoint is implemented by *core.ModuleBase (and so, via embedding, by any
// concrete module built on it): everything a Port needs from its owner plus
// access to the owner's port registry.
type endpoint interface {
	core.Host
	Ports() *core.PortManager
}

// instanceNames returns every top-level instance name, used as the
// candidate set for wildcard/regex/group resolution (composite names
// themselves are valid src/dst targets, resolved further via their alias
// tables in resolveSide).
func (f *Factory) instanceNames() []string {
	names := make([]string, 0, len(f.instances))
	for n := range f.instances {
		names = append(names, n)
	}
	return names
}

// buildConnections is Phase 3 (endpoint resolution) and Phase 4 (port
// materialization and binding) combined: each ConnectionSpec expands to the
// cross product of its resolved src and dst instances, minus anything
// matched by exclude, and each surviving pair gets one bound edge.
func (f *Factory) buildConnections(cfg Config, diags *Diagnostics) {
	names := f.instanceNames()

	for _, conn := range cfg.Connections {
		if conn.Src == "" || conn.Dst == "" {
			diags.add(PhaseConnections, fmt.Sprintf("%s->%s", conn.Src, conn.Dst), fmt.Errorf("connection missing src or dst"))
			continue
		}
		srcPattern, srcPort := splitEndpoint(conn.Src)
		dstPattern, dstPort := splitEndpoint(conn.Dst)

		srcNames, err := resolveNames(srcPattern, names, f.groups)
		if err != nil {
			diags.add(PhaseConnections, conn.Src, err)
			continue
		}
		dstNames, err := resolveNames(dstPattern, names, f.groups)
		if err != nil {
			diags.add(PhaseConnections, conn.Dst, err)
			continue
		}

		ex := newExcludeSet(conn.Exclude, f.groups)
		srcNames = filterExcluded(srcNames, srcPort, ex)
		dstNames = filterExcluded(dstNames, dstPort, ex)

		if len(srcNames) == 0 {
			diags.add(PhaseConnections, conn.Src, fmt.Errorf("no surviving src instances after exclude"))
			continue
		}
		if len(dstNames) == 0 {
			diags.add(PhaseConnections, conn.Dst, fmt.Errorf("no surviving dst instances after exclude"))
			continue
		}

		for _, sName := range srcNames {
			for _, dName := range dstNames {
				if err := f.connect(sName, srcPort, dName, dstPort, conn); err != nil {
					diags.add(PhaseConnections, fmt.Sprintf("%s->%s", sName, dName), err)
				}
			}
		}
	}
}

func filterExcluded(names []string, port string, ex excludeSet) []string {
	var out []string
	for _, n := range names {
		if ex.excludes(n, port) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// resolveSide follows name down to a concrete endpoint and port label,
// recursing through composite alias tables when name points at a
// CompositeModule. isOutput selects the Outputs vs Inputs alias table.
func (f *Factory) resolveSide(name, portLabel string, isOutput bool) (endpoint, string, error) {
	obj, ok := f.instances[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown instance %q", name)
	}
	if comp, ok := obj.(*CompositeModule); ok {
		if portLabel == "" {
			return nil, "", fmt.Errorf("composite %q requires an aliased port (instance.alias)", name)
		}
		resolved, label, err := comp.resolveAlias(portLabel, isOutput)
		if err != nil {
			return nil, "", err
		}
		ep, ok := resolved.(endpoint)
		if !ok {
			return nil, "", fmt.Errorf("instance %q aliased from %q does not expose ports", resolved.Name(), name)
		}
		return ep, label, nil
	}
	ep, ok := obj.(endpoint)
	if !ok {
		return nil, "", fmt.Errorf("instance %q does not expose ports", name)
	}
	return ep, portLabel, nil
}

// connect materializes (reusing by label where one is given) a downstream
// port on sName and an upstream port on dName, and binds them per conn's
// sizing and latency.
func (f *Factory) connect(sName, sPort, dName, dPort string, conn ConnectionSpec) error {
	srcEp, srcLabel, err := f.resolveSide(sName, sPort, true)
	if err != nil {
		return err
	}
	dstEp, dstLabel, err := f.resolveSide(dName, dPort, false)
	if err != nil {
		return err
	}

	// A labeled port ("instance.label") is reused across every connection
	// spec that names it, so a module can fan the same physical port into
	// several edges. An unlabeled endpoint is anonymous: each resolved
	// src/dst pair gets its own fresh port rather than fanning multiple
	// peers into one shared port by accident, so the peer name is folded
	// into the key only in that case.
	downKey := sName + "\x00" + sPort
	if sPort == "" {
		downKey += "\x00" + dName
	}
	down, ok := f.downstreamByKey[downKey]
	if !ok {
		down, err = srcEp.Ports().AddDownstreamPort(
			srcEp,
			bufferSizesOrDefault(conn.OutputBufferSizes),
			conn.VCPriorities,
			uint64(conn.Latency),
			f.eq,
			srcLabel,
		)
		if err != nil {
			return err
		}
		f.downstreamByKey[downKey] = down
	}

	upKey := dName + "\x00" + dPort
	if dPort == "" {
		upKey += "\x00" + sName
	}
	up, ok := f.upstreamByKey[upKey]
	if !ok {
		up, err = dstEp.Ports().AddUpstreamPort(
			dstEp,
			bufferSizesOrDefault(conn.InputBufferSizes),
			conn.VCPriorities,
			dstLabel,
		)
		if err != nil {
			return err
		}
		f.upstreamByKey[upKey] = up
	}

	core.Bind(down, up)
	return nil
}
