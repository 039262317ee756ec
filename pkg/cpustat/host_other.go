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

//go:build !freebsd && !netbsd && !openbsd

package cpustat

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// HostSource reads the process's own time through getrusage. System-wide
// counters are not exposed through a portable interface here, so SystemTicks
// reports an error and system load stays Unavailable.
type HostSource struct{}

var errNoSystemTicks = errors.New("system tick counters not available on this platform")

// SystemTicks implements TickSource.SystemTicks.
func (HostSource) SystemTicks() (Ticks, error) {
	return Ticks{}, errNoSystemTicks
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
