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

package modules

import (
	"github.com/chisuhua/gem5sc-go/internal/noc/core"
	"github.com/chisuhua/gem5sc-go/internal/noc/factory"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

// RegisterDefaults registers "producer", "consumer", and "crossbar" against
// reg using each type's default options, so a host program's registry
// setup is a one-liner. Hosts wanting non-default timing build their own
// constructors with NewProducer/NewConsumer directly.
func RegisterDefaults(reg *factory.Registry) {
	reg.RegisterSimple("producer", func(name string, eq *simkernel.EventQueue) (core.SimObject, error) {
		return NewProducer(name, eq, DefaultProducerOptions()), nil
	})
	reg.RegisterSimple("consumer", func(name string, eq *simkernel.EventQueue) (core.SimObject, error) {
		return NewConsumer(name, eq, DefaultConsumerOptions()), nil
	})
	reg.RegisterSimple("crossbar", func(name string, eq *simkernel.EventQueue) (core.SimObject, error) {
		return NewCrossbar(name, eq), nil
	})
}
