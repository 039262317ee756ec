// Copyright 2022 The Beryl Authors.
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

// Package safeprobe registers the instruction ranges of fault-tolerant
// memory probes. A speculative read issued from such a range must not crash
// the process: when the fault handler sees a faulting pc inside a registered
// range, it redirects the thread to the range's continuation instead.
package safeprobe

import "runtime"

type probeRange struct {
	begin        uintptr
	end          uintptr
	continuation uintptr
}

// ranges is append-only and written only during init, before the signal
// handler is installed. Lookups after that point are lock-free.
var ranges []probeRange

// RegisterRange records [begin, end) as a fault-tolerant probe whose faults
// resume at continuation. Must be called during initialization, before
// handler installation.
func RegisterRange(begin, end, continuation uintptr) {
	ranges = append(ranges, probeRange{begin: begin, end: end, continuation: continuation})
}

// RegisterFunc registers the probe function starting at begin, using
// FindEndAddress to locate its extent.
func RegisterFunc(begin, continuation uintptr) {
	RegisterRange(begin, FindEndAddress(begin), continuation)
}

// IsProbeFault reports whether pc lies inside a registered probe range.
//
//go:nosplit
func IsProbeFault(pc uintptr) bool {
	for i := range ranges {
		if pc >= ranges[i].begin && pc < ranges[i].end {
			return true
		}
	}
	return false
}

// ContinuationFor returns the continuation for a probe fault at pc, or 0 if
// pc is not inside a registered range.
//
//go:nosplit
func ContinuationFor(pc uintptr) uintptr {
	for i := range ranges {
		if pc >= ranges[i].begin && pc < ranges[i].end {
			return ranges[i].continuation
		}
	}
	return 0
}

// FindEndAddress returns the end address (one byte beyond the last) of the
// function that contains the specified address (begin).
func FindEndAddress(begin uintptr) uintptr {
	f := runtime.FuncForPC(begin)
	if f != nil {
		for p := begin; ; p++ {
			g := runtime.FuncForPC(p)
			if f != g {
				return p
			}
		}
	}
	return begin
}

// resetForTesting drops all registered ranges.
func resetForTesting() {
	ranges = nil
}
