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

package api

import (
	"fmt"

	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/factory"
	"github.com/chisuhua/gem5sc-go/internal/noc/modules"
	"github.com/chisuhua/gem5sc-go/internal/noc/telemetry/promexport"
)

// TelemetrySource returns a promexport.Source reading store's latest
// published snapshot: per-port cumulative counters (both directions), the
// aggregate dropped count across a port's own VCs, and the availability of
// every Crossbar's input/output credit pools. The Reporter's sampling
// goroutine never touches live simulation state through it.
func TelemetrySource(store *SnapshotStore) promexport.Source {
	return func() ([]promexport.PortSample, []promexport.CreditPoolSample) {
		snap := store.Load()
		return snap.Ports, snap.CreditPools
	}
}

// collectCreditPoolSamples recurses into composite modules the same way
// collectPortSamples does, reporting each Crossbar's receive-buffer pool
// and its per-output-port send pools. Like every other live walk, it runs
// only from TakeSnapshot on the simulation goroutine.
func collectCreditPoolSamples(f *factory.Factory, out *[]promexport.CreditPoolSample) {
	for name, obj := range f.Instances() {
		if comp, ok := obj.(*factory.CompositeModule); ok {
			if comp.Inner() != nil {
				collectCreditPoolSamples(comp.Inner(), out)
			}
			continue
		}
		xbar, ok := obj.(*modules.Crossbar)
		if !ok {
			continue
		}
		*out = append(*out, promexport.CreditPoolSample{
			Name:      name + ".in",
			Available: xbar.InputCredits().Available(),
		})
		for i := 0; i < xbar.Ports().DownstreamCount(); i++ {
			*out = append(*out, promexport.CreditPoolSample{
				Name:      fmt.Sprintf("%s.out[%d]", name, i),
				Available: xbar.OutputCredits(i).Available(),
			})
		}
	}
}

func collectPortSamples(f *factory.Factory, out *[]promexport.PortSample) {
	for name, obj := range f.Instances() {
		if comp, ok := obj.(*factory.CompositeModule); ok {
			if comp.Inner() != nil {
				collectPortSamples(comp.Inner(), out)
			}
			continue
		}
		pp, ok := obj.(portsProvider)
		if !ok {
			continue
		}
		pp.Ports().ForEachUpstream(func(p *core.UpstreamPort) {
			*out = append(*out, portSample(name, p.Label(), p.Stats(), upstreamDropped(p)))
		})
		pp.Ports().ForEachDownstream(func(p *core.DownstreamPort) {
			*out = append(*out, portSample(name, p.Label(), p.Stats(), downstreamDropped(p)))
		})
	}
}

func portSample(module, label string, stats core.PortStats, dropped uint64) promexport.PortSample {
	return promexport.PortSample{
		Module:     module,
		Port:       labelOrIndex(label),
		ReqCount:   stats.ReqCount,
		RespCount:  stats.RespCount,
		ByteCount:  stats.ByteCount,
		TotalDelay: stats.TotalDelay,
		Dropped:    dropped,
	}
}

func labelOrIndex(label string) string {
	if label == "" {
		return "unlabeled"
	}
	return label
}

func upstreamDropped(p *core.UpstreamPort) uint64 {
	var total uint64
	for i := 0; i < p.VCCount(); i++ {
		total += p.VC(i).Stats().Dropped
	}
	return total
}

func downstreamDropped(p *core.DownstreamPort) uint64 {
	var total uint64
	for i := 0; i < p.VCCount(); i++ {
		total += p.VC(i).Stats().Dropped
	}
	return total
}
