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
	"github.com/chisuhua/gem5sc-go/internal/noc/persistence"
)

// CheckpointSnapshot returns a persistence.Snapshot function over store,
// suitable for persistence.NewCheckpointWorker: one Checkpoint per leaf
// module, stamped with the cycle of the latest published Snapshot. The
// checkpoint worker's goroutine reads only that published copy, never live
// simulation state.
func CheckpointSnapshot(store *SnapshotStore) persistence.Snapshot {
	return func() []persistence.Checkpoint {
		snap := store.Load()
		checkpoints := make([]persistence.Checkpoint, 0, len(snap.Stats))
		for module, s := range snap.Stats {
			checkpoints = append(checkpoints, persistence.Checkpoint{
				Cycle:      snap.Cycle,
				Module:     module,
				ReqCount:   s.ReqCount,
				RespCount:  s.RespCount,
				ByteCount:  s.ByteCount,
				TotalDelay: s.TotalDelay,
			})
		}
		return checkpoints
	}
}
