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

package core

import "fmt"

// PortStats accumulates traffic counters for a single port across its
// lifetime. Request/response counts and byte counts cover both directions;
// delay figures cover end-to-end response latency only.
type PortStats struct {
	ReqCount  uint64
	RespCount uint64
	ByteCount uint64

	TotalDelay uint64
	MinDelay   uint64
	MaxDelay   uint64

	CreditSent     uint64
	CreditReceived uint64
	CreditValue    uint64
}

// recordRequest accounts for a request or stream packet dispatched or
// delivered through this port.
func (s *PortStats) recordRequest(bytes int) {
	s.ReqCount++
	s.ByteCount += uint64(bytes)
}

// recordResponse accounts for a response packet and folds delay into the
// running min/max/total, whatever its value (a zero delay is counted too).
func (s *PortStats) recordResponse(bytes int, delay uint64) {
	s.RespCount++
	s.ByteCount += uint64(bytes)
	s.TotalDelay += delay
	if s.RespCount == 1 || delay < s.MinDelay {
		s.MinDelay = delay
	}
	if delay > s.MaxDelay {
		s.MaxDelay = delay
	}
}

func (s *PortStats) recordCreditSent(n int) { s.CreditSent += uint64(n) }

func (s *PortStats) recordCreditReceived(n int) {
	s.CreditReceived += uint64(n)
	s.CreditValue += uint64(n)
}

// AverageDelay returns TotalDelay/RespCount, or 0 when no response has been
// recorded yet.
func (s PortStats) AverageDelay() float64 {
	if s.RespCount == 0 {
		return 0
	}
	return float64(s.TotalDelay) / float64(s.RespCount)
}

// Merge folds other's counters into s, widening Min/Max appropriately.
func (s *PortStats) Merge(other PortStats) {
	if other.RespCount > 0 && (s.RespCount == 0 || other.MinDelay < s.MinDelay) {
		s.MinDelay = other.MinDelay
	}
	if other.MaxDelay > s.MaxDelay {
		s.MaxDelay = other.MaxDelay
	}
	s.ReqCount += other.ReqCount
	s.RespCount += other.RespCount
	s.ByteCount += other.ByteCount
	s.TotalDelay += other.TotalDelay
	s.CreditSent += other.CreditSent
	s.CreditReceived += other.CreditReceived
	s.CreditValue += other.CreditValue
}

func (s PortStats) String() string {
	return fmt.Sprintf(
		"req=%d resp=%d bytes=%d avg_delay=%.2f min_delay=%d max_delay=%d credit_sent=%d credit_recv=%d",
		s.ReqCount, s.RespCount, s.ByteCount, s.AverageDelay(), s.MinDelay, s.MaxDelay, s.CreditSent, s.CreditReceived)
}
