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

// Package persistence provides idempotent checkpoint sinks for periodic
// simulation snapshots: a module's aggregated port statistics at a given
// cycle, committed under a stable checkpoint id so a retried write is a
// no-op.
package persistence

import (
	"context"
	"errors"
	"fmt"
)

// Checkpoint is one module's aggregated statistics snapshot at a cycle.
type Checkpoint struct {
	Cycle        uint64
	Module       string
	CheckpointID string
	ReqCount     uint64
	RespCount    uint64
	ByteCount    uint64
	TotalDelay   uint64
}

// StatsSink durably records checkpoints. Implementations must treat a
// repeated CheckpointID for the same module as a no-op, so a retried write
// after a crash or timeout never double-applies.
type StatsSink interface {
	CommitCheckpoints(ctx context.Context, checkpoints []Checkpoint) error
}

// Options configures adapter construction; fields not used by the selected
// adapter are ignored.
type Options struct {
	RedisAddr string
}

// BuildSink constructs a StatsSink for the named adapter:
//   - "", "log": process-local logging sink (default)
//   - "redis":   idempotent Redis adapter; uses a real client when
//     opts.RedisAddr is set, otherwise a logging stand-in
func BuildSink(adapter string, opts Options) (StatsSink, error) {
	switch adapter {
	case "", "log":
		return NewLoggingSink(), nil
	case "redis":
		var evaler RedisEvaler
		if opts.RedisAddr != "" {
			evaler = NewGoRedisEvaler(opts.RedisAddr)
		} else {
			evaler = LoggingRedisEvaler{}
		}
		return NewRedisSink(evaler), nil
	default:
		return nil, fmt.Errorf("persistence: unknown adapter %q", adapter)
	}
}

var errEmptyCheckpointID = errors.New("persistence: Checkpoint.CheckpointID must be set")
