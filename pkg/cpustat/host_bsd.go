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

//go:build freebsd || netbsd || openbsd

package cpustat

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// cpuStates is CPUSTATES: user, nice, sys, intr, idle.
const cpuStates = 5

// HostSource reads the kernel's counters: kern.cp_time for the system
// totals, getrusage for the process's own time.
type HostSource struct{}

// SystemTicks implements TickSource.SystemTicks.
func (HostSource) SystemTicks() (Ticks, error) {
	raw, err := unix.SysctlRaw("kern.cp_time")
	if err != nil {
		return Ticks{}, err
	}
	if len(raw) < cpuStates*8 {
		return Ticks{}, fmt.Errorf("kern.cp_time returned %d bytes, want %d", len(raw), cpuStates*8)
	}
	var states [cpuStates]uint64
	for i := range states {
		states[i] = *(*uint64)(unsafe.Pointer(&raw[i*8]))
	}
	return Ticks{
		User:   states[0],
		Nice:   states[1],
		System: states[2],
		Intr:   states[3],
		Idle:   states[4],
	}, nil
}

// ProcessTicks implements TickSource.ProcessTicks.
func (HostSource) ProcessTicks() (uint64, uint64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, 0, err
	}
	cpu := uint64(ru.Utime.Sec)*1e6 + uint64(ru.Utime.Usec) +
		uint64(ru.Stime.Sec)*1e6 + uint64(ru.Stime.Usec)
	wall := uint64(time.Now().UnixNano() / 1e3)
	return cpu, wall, nil
}
