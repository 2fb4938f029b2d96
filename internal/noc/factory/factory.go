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
	"strings"

	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

// SimpleConstructor builds a plain SimObject.
type SimpleConstructor func(name string, eq *simkernel.EventQueue) (core.SimObject, error)

// CompositeConstructor builds an (initially empty) CompositeModule; the
// factory populates it by calling Instantiate with the module descriptor's
// nested config once the shell exists.
type CompositeConstructor func(name string, eq *simkernel.EventQueue) (*CompositeModule, error)

// Registry is the process-wide table of constructors a Factory consults
// during Phase 2. It is an explicit object rather than a package-level
// singleton so tests can build an isolated one per case.
type Registry struct {
	simple    map[string]SimpleConstructor
	composite map[string]CompositeConstructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		simple:    make(map[string]SimpleConstructor),
		composite: make(map[string]CompositeConstructor),
	}
}

// RegisterSimple registers a plain module type. A later call with the same
// name overwrites the earlier one (name collisions overwrite, matching the
// process-wide registry's original semantics, just without the global
// mutable state).
func (r *Registry) RegisterSimple(typeName string, ctor SimpleConstructor) {
	r.simple[typeName] = ctor
}

// RegisterComposite registers a composite module type.
func (r *Registry) RegisterComposite(typeName string, ctor CompositeConstructor) {
	r.composite[typeName] = ctor
}

// Clone returns a shallow copy, used to give a composite's inner factory a
// fresh registry state seeded from the same type set (child registry
// mutations never leak back to the parent).
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, v := range r.simple {
		c.simple[k] = v
	}
	for k, v := range r.composite {
		c.composite[k] = v
	}
	return c
}

// Factory drives the four-phase topology build described by SPEC_FULL.md:
// include expansion, instantiation, group/wildcard/regex resolution, and
// port materialization and binding.
type Factory struct {
	eq       *simkernel.EventQueue
	registry *Registry
	loader   Loader

	instances map[string]core.SimObject
	// order records instantiation order, so tick arming (and with it
	// same-cycle tick ordering) is deterministic rather than following map
	// iteration.
	order  []string
	groups map[string][]string

	// downstreamByKey/upstreamByKey de-duplicate materialized ports: a
	// labeled endpoint reuses its port each time it appears in a
	// connection; an unlabeled endpoint's key also names the peer instance,
	// so each src/dst pair gets its own port.
	downstreamByKey map[string]*core.DownstreamPort
	upstreamByKey   map[string]*core.UpstreamPort
}

// New returns a Factory driving eq, consulting registry for module types
// and loader for include/composite-config resolution.
func New(eq *simkernel.EventQueue, registry *Registry, loader Loader) *Factory {
	return &Factory{
		eq:              eq,
		registry:        registry,
		loader:          loader,
		instances:       make(map[string]core.SimObject),
		groups:          make(map[string][]string),
		downstreamByKey: make(map[string]*core.DownstreamPort),
		upstreamByKey:   make(map[string]*core.UpstreamPort),
	}
}

// Instance returns a previously instantiated module by name.
func (f *Factory) Instance(name string) (core.SimObject, bool) {
	obj, ok := f.instances[name]
	return obj, ok
}

// Instances returns every instantiated module, keyed by name.
func (f *Factory) Instances() map[string]core.SimObject { return f.instances }

// InstantiateAll runs phases 2 to 4 (instantiation, group resolution, port
// materialization and binding) against cfg. Phase 1, include expansion, is
// the caller's step beforehand, typically via LoadConfig. It returns every
// non-fatal diagnostic collected along the way.
func (f *Factory) InstantiateAll(cfg Config) Diagnostics {
	var diags Diagnostics
	f.instantiateModules(cfg, &diags)
	f.resolveGroups(cfg)
	f.buildConnections(cfg, &diags)
	return diags
}

// instantiateModules is Phase 2.
func (f *Factory) instantiateModules(cfg Config, diags *Diagnostics) {
	for _, mod := range cfg.Modules {
		if mod.Name == "" || mod.Type == "" {
			diags.add(PhaseInstantiate, mod.Name, fmt.Errorf("module missing name or type"))
			continue
		}
		var obj core.SimObject
		if ctor, ok := f.registry.composite[mod.Type]; ok {
			comp, err := ctor(mod.Name, f.eq)
			if err != nil {
				diags.add(PhaseInstantiate, mod.Name, err)
				continue
			}
			if mod.Config != "" {
				innerCfg, err := LoadConfig(f.loader, mod.Config)
				if err != nil {
					diags.add(PhaseInstantiate, mod.Name, err)
				} else {
					comp.Instantiate(innerCfg, f.registry.Clone(), f.loader)
				}
			}
			obj = comp
		} else if ctor, ok := f.registry.simple[mod.Type]; ok {
			var err error
			obj, err = ctor(mod.Name, f.eq)
			if err != nil {
				diags.add(PhaseInstantiate, mod.Name, err)
				continue
			}
		} else {
			diags.add(PhaseInstantiate, mod.Name, fmt.Errorf("unknown module type %q", mod.Type))
			continue
		}
		if base, ok := obj.(layoutSetter); ok {
			if mod.Layout != nil {
				base.SetLayout(core.Layout{X: mod.Layout.X, Y: mod.Layout.Y})
			} else {
				base.SetLayout(gridLayout(len(f.instances)))
			}
		}
		if _, exists := f.instances[mod.Name]; !exists {
			f.order = append(f.order, mod.Name)
		}
		f.instances[mod.Name] = obj
	}
}

// gridLayout assigns a deterministic fallback position to a module whose
// config omitted layout, so every instance ends up with some (x, y) for a
// downstream visualizer to consume without this package building one
// itself. Instances are placed left-to-right, wrapping into rows of 8,
// spaced 2 units apart — the same flat grid original_source's
// force_directed_layout.hh falls back to before its relaxation pass runs.
func gridLayout(index int) core.Layout {
	const cols = 8
	const spacing = 2.0
	row := index / cols
	col := index % cols
	return core.Layout{X: float64(col) * spacing, Y: float64(row) * spacing}
}

// layoutSetter is implemented by *core.ModuleBase (and, via embedding, any
// module built on it).
type layoutSetter interface {
	SetLayout(core.Layout)
}

// resolveGroups is Phase 3's group-definition half; endpoint expansion
// itself happens lazily per connection in buildConnections (via
// resolveNames).
func (f *Factory) resolveGroups(cfg Config) {
	for name, spec := range cfg.Groups {
		f.groups[name] = spec.Members
	}
}

// StartAllTicks arms every instantiated SimObject on the event queue in
// instantiation order, recursing into composite modules so their inner
// instances tick independently too (a composite itself never ticks; its
// Tick is a no-op).
func (f *Factory) StartAllTicks() {
	for _, name := range f.order {
		obj := f.instances[name]
		if comp, ok := obj.(*CompositeModule); ok {
			if comp.Inner() != nil {
				comp.Inner().StartAllTicks()
			}
			continue
		}
		core.StartTicking(f.eq, obj)
	}
}

// splitEndpoint divides "inst.port" into ("inst", "port"); a bare "inst"
// yields an empty port name.
func splitEndpoint(spec string) (string, string) {
	if i := strings.IndexByte(spec, '.'); i >= 0 {
		return spec[:i], spec[i+1:]
	}
	return spec, ""
}
