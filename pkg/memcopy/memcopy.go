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

// Package memcopy provides the overlap-safe (conjoint) array-copy
// primitives the runtime uses for managed array moves.
//
// The atomic variants guarantee that concurrent readers of the destination
// never observe a torn element: every element is moved with a single
// element-sized load and store. The copy direction is chosen from the
// relative position of source and destination so an overlapping move never
// reads an element it has already overwritten.
package memcopy

import (
	"sync/atomic"
	"unsafe"
)

// ConjointWords copies min(len(dst), len(src)) words and returns the count.
// The regions may overlap. Each word moves atomically.
func ConjointWords(dst, src []uintptr) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	if copyForward(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0])) {
		for i := 0; i < n; i++ {
			atomic.StoreUintptr(&dst[i], atomic.LoadUintptr(&src[i]))
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			atomic.StoreUintptr(&dst[i], atomic.LoadUintptr(&src[i]))
		}
	}
	return n
}

// ConjointInt16s copies min(len(dst), len(src)) 16-bit elements and returns
// the count. The regions may overlap. sync/atomic has no halfword
// operations; an aligned halfword load or store is a single instruction on
// the supported targets, so plain accesses keep elements untorn.
func ConjointInt16s(dst, src []int16) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	if copyForward(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0])) {
		for i := 0; i < n; i++ {
			dst[i] = src[i]
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			dst[i] = src[i]
		}
	}
	return n
}

// ConjointInt32s copies min(len(dst), len(src)) 32-bit elements and returns
// the count. The regions may overlap. Each element moves atomically.
func ConjointInt32s(dst, src []int32) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	if copyForward(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0])) {
		for i := 0; i < n; i++ {
			atomic.StoreInt32(&dst[i], atomic.LoadInt32(&src[i]))
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			atomic.StoreInt32(&dst[i], atomic.LoadInt32(&src[i]))
		}
	}
	return n
}

// ConjointInt64s copies min(len(dst), len(src)) 64-bit elements and returns
// the count. The regions may overlap. Each element moves atomically.
func ConjointInt64s(dst, src []int64) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	if copyForward(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0])) {
		for i := 0; i < n; i++ {
			atomic.StoreInt64(&dst[i], atomic.LoadInt64(&src[i]))
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			atomic.StoreInt64(&dst[i], atomic.LoadInt64(&src[i]))
		}
	}
	return n
}

// ConjointBytes copies min(len(dst), len(src)) bytes and returns the count.
// The regions may overlap. Byte copies need no atomicity guarantee beyond
// what the builtin already provides.
func ConjointBytes(dst, src []byte) int {
	return copy(dst, src)
}

// copyForward reports whether an overlapping copy must run low-to-high:
// exactly when the destination starts below the source.
func copyForward(dst, src unsafe.Pointer) bool {
	return uintptr(dst) < uintptr(src)
}
