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

package persistence

import (
	"context"
	"fmt"
	"sync"
)

// LoggingSink is a dependency-free StatsSink that prints each checkpoint
// and tracks seen CheckpointIDs in-process, so a demo run behaves
// idempotently without any external backend.
type LoggingSink struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewLoggingSink returns an empty LoggingSink.
func NewLoggingSink() *LoggingSink {
	return &LoggingSink{seen: make(map[string]bool)}
}

func (s *LoggingSink) CommitCheckpoints(ctx context.Context, checkpoints []Checkpoint) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cp := range checkpoints {
		if cp.CheckpointID == "" {
			return errEmptyCheckpointID
		}
		if s.seen[cp.CheckpointID] {
			continue
		}
		s.seen[cp.CheckpointID] = true
		fmt.Printf("[checkpoint] cycle=%d module=%s req=%d resp=%d bytes=%d total_delay=%d\n",
			cp.Cycle, cp.Module, cp.ReqCount, cp.RespCount, cp.ByteCount, cp.TotalDelay)
	}
	return nil
}
