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

package cpustat

import (
	"errors"
	"testing"
)

type fakeSource struct {
	sys    []Ticks
	proc   [][2]uint64
	sysErr error
}

func (f *fakeSource) SystemTicks() (Ticks, error) {
	if f.sysErr != nil {
		return Ticks{}, f.sysErr
	}
	t := f.sys[0]
	if len(f.sys) > 1 {
		f.sys = f.sys[1:]
	}
	return t, nil
}

func (f *fakeSource) ProcessTicks() (uint64, uint64, error) {
	p := f.proc[0]
	if len(f.proc) > 1 {
		f.proc = f.proc[1:]
	}
	return p[0], p[1], nil
}

func TestSystemLoadFirstCallUnavailable(t *testing.T) {
	tr := NewTracker(&fakeSource{sys: []Ticks{{User: 100, Idle: 900}}})
	if got := tr.SystemLoad(); got != Unavailable {
		t.Errorf("first SystemLoad = %v, want %v", got, Unavailable)
	}
}

func TestSystemLoadDelta(t *testing.T) {
	tr := NewTracker(&fakeSource{sys: []Ticks{
		{User: 100, System: 50, Idle: 850},
		{User: 130, System: 60, Idle: 910}, // busy +40, total +100
	}})
	tr.SystemLoad()
	if got := tr.SystemLoad(); got != 0.4 {
		t.Errorf("SystemLoad = %v, want 0.4", got)
	}
}

func TestSystemLoadNoProgress(t *testing.T) {
	tr := NewTracker(&fakeSource{sys: []Ticks{{User: 100, Idle: 900}}})
	tr.SystemLoad()
	if got := tr.SystemLoad(); got != Unavailable {
		t.Errorf("SystemLoad with no tick progress = %v, want %v", got, Unavailable)
	}
}

func TestSystemLoadError(t *testing.T) {
	tr := NewTracker(&fakeSource{sysErr: errors.New("sysctl failed")})
	if got := tr.SystemLoad(); got != Unavailable {
		t.Errorf("SystemLoad on error = %v, want %v", got, Unavailable)
	}
}

func TestSystemLoadFullyBusyClamped(t *testing.T) {
	tr := NewTracker(&fakeSource{sys: []Ticks{
		{User: 100, Idle: 100},
		{User: 300, Idle: 100},
	}})
	tr.SystemLoad()
	if got := tr.SystemLoad(); got != 1.0 {
		t.Errorf("SystemLoad = %v, want 1.0", got)
	}
}

func TestProcessLoad(t *testing.T) {
	tr := NewTracker(&fakeSource{proc: [][2]uint64{
		{1000, 100000},
		{26000, 200000}, // cpu +25000 over wall +100000
	}})
	if got := tr.ProcessLoad(); got != Unavailable {
		t.Fatalf("first ProcessLoad = %v, want %v", got, Unavailable)
	}
	if got := tr.ProcessLoad(); got != 0.25 {
		t.Errorf("ProcessLoad = %v, want 0.25", got)
	}
}

func TestProcessLoadSaturates(t *testing.T) {
	// A multi-threaded process can accumulate more CPU than wall time.
	tr := NewTracker(&fakeSource{proc: [][2]uint64{
		{0, 0},
		{400000, 100000},
	}})
	tr.ProcessLoad()
	if got := tr.ProcessLoad(); got != 1.0 {
		t.Errorf("ProcessLoad = %v, want 1.0", got)
	}
}

func TestHostSourceProcess(t *testing.T) {
	cpu, wall, err := HostSource{}.ProcessTicks()
	if err != nil {
		t.Fatalf("ProcessTicks: %v", err)
	}
	if wall == 0 {
		t.Error("wall reading is zero")
	}
	_ = cpu
}
