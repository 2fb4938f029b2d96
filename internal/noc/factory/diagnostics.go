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

import "fmt"

// Phase names a construction phase, used only to group diagnostics for a
// human reader.
type Phase string

const (
	PhaseInstantiate Phase = "instantiate"
	PhaseGroups      Phase = "groups"
	PhaseConnections Phase = "connections"
)

// Diagnostic records one non-fatal problem encountered while building a
// topology: the offending element is skipped and construction continues.
type Diagnostic struct {
	Phase   Phase
	Element string
	Err     error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %v", d.Phase, d.Element, d.Err)
}

// Diagnostics is an ordered, append-only sink collected over one
// InstantiateAll call.
type Diagnostics []Diagnostic

func (d *Diagnostics) add(phase Phase, element string, err error) {
	*d = append(*d, Diagnostic{Phase: phase, Element: element, Err: err})
}

// HasErrors reports whether any diagnostic was recorded.
func (d Diagnostics) HasErrors() bool { return len(d) > 0 }
