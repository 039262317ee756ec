// Copyright 2021 The Beryl Authors.
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

package guard

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const pageSize = 0x1000

// minStackSize is the smallest stack extent the probe will report. A thread
// cannot reach user code with less.
const minStackSize = 72 << 10

// probeAnchor returns an address inside the caller's live stack frame.
//
//go:noinline
func probeAnchor() uintptr {
	var anchor byte
	return uintptr(unsafe.Pointer(&anchor))
}

// CurrentRegion computes the bounds of the calling thread's execution stack
// from OS thread attributes: the stack size limit caps the extent, anchored
// at the caller's current stack position rounded up to a page. It must be
// called once, near the top of the thread's entry function, and the result
// cached on the thread.
func CurrentRegion() (Region, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &lim); err != nil {
		return Region{}, fmt.Errorf("getrlimit(RLIMIT_STACK): %v", err)
	}
	size := uintptr(lim.Cur)
	if size < minStackSize {
		return Region{}, fmt.Errorf("stack limit %#x below minimum usable size %#x", size, uintptr(minStackSize))
	}

	top := (probeAnchor() + pageSize) &^ uintptr(pageSize-1)
	if top < size {
		size = top - pageSize
	}
	return Region{Base: top - size, Size: size}, nil
}

// MustCurrentRegion is CurrentRegion for callers that cannot proceed without
// guard geometry. It aborts the process on failure: the runtime cannot
// operate safely without knowing where its guard pages lie.
func MustCurrentRegion() Region {
	r, err := CurrentRegion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot locate current stack attributes: %v\n", err)
		os.Exit(134)
	}
	return r
}
