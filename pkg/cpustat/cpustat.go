// Copyright 2023 The Beryl Authors.
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

// Package cpustat reports recent system and process CPU load from kernel
// tick counters. Loads are computed over the interval between successive
// calls; the first call of each kind establishes the baseline and reports
// that no value is available yet.
package cpustat

import (
	"sync"
)

// Unavailable is returned while no interval has elapsed yet, or when the
// counters cannot be read.
const Unavailable = -1.0

// Ticks is a snapshot of the kernel's cumulative per-state CPU tick
// counters.
type Ticks struct {
	User   uint64
	Nice   uint64
	System uint64
	Intr   uint64
	Idle   uint64
}

// Total returns the sum over all states.
func (t Ticks) Total() uint64 {
	return t.User + t.Nice + t.System + t.Intr + t.Idle
}

// Busy returns the sum over the non-idle states.
func (t Ticks) Busy() uint64 {
	return t.User + t.Nice + t.System + t.Intr
}

// TickSource reads the raw counters. The host implementation queries the
// kernel; tests inject a fake.
type TickSource interface {
	// SystemTicks snapshots the cumulative CPU tick counters.
	SystemTicks() (Ticks, error)

	// ProcessTicks returns the process's cumulative CPU time and a
	// monotonic wall-clock reading, both in microseconds.
	ProcessTicks() (cpu, wall uint64, err error)
}

// Tracker computes interval loads from successive snapshots.
type Tracker struct {
	src TickSource

	mu       sync.Mutex
	prevSys  Ticks
	haveSys  bool
	prevCPU  uint64
	prevWall uint64
	haveProc bool
}

// NewTracker returns a Tracker reading from src.
func NewTracker(src TickSource) *Tracker {
	return &Tracker{src: src}
}

// SystemLoad returns the fraction of CPU time spent non-idle since the
// previous call, in [0, 1], or Unavailable.
func (t *Tracker) SystemLoad() float64 {
	cur, err := t.src.SystemTicks()
	if err != nil {
		return Unavailable
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.haveSys {
		t.prevSys = cur
		t.haveSys = true
		return Unavailable
	}
	dTotal := cur.Total() - t.prevSys.Total()
	dBusy := cur.Busy() - t.prevSys.Busy()
	t.prevSys = cur
	if dTotal == 0 {
		return Unavailable
	}
	return clamp(float64(dBusy) / float64(dTotal))
}

// ProcessLoad returns the process's share of wall time since the previous
// call, in [0, 1], or Unavailable. On a multi-core host a busy
// multi-threaded process can saturate the clamp.
func (t *Tracker) ProcessLoad() float64 {
	cpu, wall, err := t.src.ProcessTicks()
	if err != nil {
		return Unavailable
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.haveProc {
		t.prevCPU = cpu
		t.prevWall = wall
		t.haveProc = true
		return Unavailable
	}
	dCPU := cpu - t.prevCPU
	dWall := wall - t.prevWall
	t.prevCPU = cpu
	t.prevWall = wall
	if dWall == 0 {
		return Unavailable
	}
	return clamp(float64(dCPU) / float64(dWall))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
