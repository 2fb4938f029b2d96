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
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

// CompositeModule is a module built from a nested topology: it has no ports
// of its own, only alias tables mapping an external label to an
// "instance.port" path inside its inner factory. A connection naming
// composite.alias is resolved by following that alias down to the concrete
// port on the concrete inner instance.
type CompositeModule struct {
	name string
	eq   *simkernel.EventQueue

	inner *Factory

	outputs map[string]string // external label -> "instance.port"
	inputs  map[string]string

	diags Diagnostics
}

// NewCompositeModule returns an empty composite shell; Instantiate populates
// it from a nested Config.
func NewCompositeModule(name string, eq *simkernel.EventQueue) *CompositeModule {
	return &CompositeModule{name: name, eq: eq}
}

func (c *CompositeModule) Name() string { return c.name }

// Tick is a no-op. A composite is never armed on the event queue itself:
// Factory.StartAllTicks skips it and recurses into its Inner factory, so
// each inner SimObject is ticked independently, same as in a flat
// topology. Tick exists only to satisfy core.SimObject for modules that
// treat a composite as an opaque instance.
func (c *CompositeModule) Tick() {}

// Instantiate builds the composite's inner topology from cfg, using a
// registry scoped to this composite (typically the parent's Clone so
// sibling composites cannot see each other's private types) and loader for
// resolving any further nested includes or composite configs.
func (c *CompositeModule) Instantiate(cfg Config, registry *Registry, loader Loader) {
	c.inner = New(c.eq, registry, loader)
	c.diags = c.inner.InstantiateAll(cfg)
	c.outputs = cfg.Outputs
	c.inputs = cfg.Inputs
}

// Inner returns the composite's inner factory, for callers that need direct
// access to inner instances (e.g. StartAllTicks recursion).
func (c *CompositeModule) Inner() *Factory { return c.inner }

// Diagnostics returns whatever the inner InstantiateAll call collected.
func (c *CompositeModule) Diagnostics() Diagnostics { return c.diags }

// resolveAlias follows an external port label through the appropriate alias
// table (isOutput selects Outputs vs Inputs) down to the concrete
// instance/port pair, recursing through nested composites.
func (c *CompositeModule) resolveAlias(label string, isOutput bool) (core.SimObject, string, error) {
	table := c.inputs
	if isOutput {
		table = c.outputs
	}
	target, ok := table[label]
	if !ok {
		kind := "input"
		if isOutput {
			kind = "output"
		}
		return nil, "", fmt.Errorf("composite %s: no %s alias %q", c.name, kind, label)
	}
	instName, portLabel := splitEndpoint(target)
	obj, ok := c.inner.Instance(instName)
	if !ok {
		return nil, "", fmt.Errorf("composite %s: alias %q points at unknown instance %q", c.name, label, instName)
	}
	if nested, ok := obj.(*CompositeModule); ok {
		return nested.resolveAlias(portLabel, isOutput)
	}
	return obj, portLabel, nil
}
