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
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// PacketEvent is one traced packet crossing, logged for audit/replay
// independent of the StatsSink's aggregated checkpoints.
type PacketEvent struct {
	Cycle      uint64 `json:"cycle"`
	Module     string `json:"module"`
	Port       string `json:"port"`
	Kind       string `json:"kind"`
	VCID       int    `json:"vc_id"`
	StreamID   uint64 `json:"stream_id"`
	SeqNum     uint64 `json:"seq_num"`
	PayloadLen int    `json:"payload_len"`
}

// TraceFileSink appends PacketEvents to a JSONL log.
type TraceFileSink struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string

	lastFlush time.Time
}

// NewTraceFileSink opens (creating if needed) path for append.
func NewTraceFileSink(path string) (*TraceFileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &TraceFileSink{f: f, w: bufio.NewWriterSize(f, 1<<20), path: path, lastFlush: time.Now()}, nil
}

// Append records one event, flushing at most every 100ms of wall time so a
// long trace doesn't fsync on every packet.
func (s *TraceFileSink) Append(ev PacketEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = json.NewEncoder(s.w).Encode(&ev)
	if time.Since(s.lastFlush) > 100*time.Millisecond {
		_ = s.w.Flush()
		s.lastFlush = time.Now()
	}
}

// Flush forces any buffered events to disk.
func (s *TraceFileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFlush = time.Now()
	return s.w.Flush()
}

// Close flushes and closes the underlying file.
func (s *TraceFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.w.Flush()
	return s.f.Close()
}

// ReadAllTrace reads a trace log back for replay or inspection.
func ReadAllTrace(path string) ([]PacketEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []PacketEvent
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1<<20)
	scanner.Buffer(buf, 1<<26)
	for scanner.Scan() {
		var ev PacketEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err == nil {
			out = append(out, ev)
		}
	}
	return out, scanner.Err()
}
