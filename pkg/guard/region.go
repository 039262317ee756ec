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

// Package guard describes the extent of a thread's execution stack and the
// protected sub-regions near its low end used to detect stack exhaustion
// before it corrupts adjacent memory.
package guard

// Region describes one thread's execution stack extent. Base is the lowest
// address; the region covers [Base, Base+Size). It is computed once per
// thread and immutable thereafter; stack reallocation is not supported.
type Region struct {
	Base uintptr
	Size uintptr
}

// Top returns the first address above the stack.
//
//go:nosplit
func (r Region) Top() uintptr {
	return r.Base + r.Size
}

// Contains reports whether addr falls within the stack. The convention is
// base-inclusive, top-exclusive.
//
//go:nosplit
func (r Region) Contains(addr uintptr) bool {
	return addr >= r.Base && addr < r.Base+r.Size
}

// Zones describes the guard sub-regions, laid out from the base of the stack
// upward: yellow at [Base, Base+Yellow), red at [Base+Yellow,
// Base+Yellow+Red), reserved at [Base+Yellow+Red, Base+Yellow+Red+Reserved).
type Zones struct {
	Yellow   uintptr
	Red      uintptr
	Reserved uintptr
}

// DefaultZones is the guard geometry used when a thread is registered without
// an explicit one.
var DefaultZones = Zones{
	Yellow:   2 * pageSize,
	Red:      pageSize,
	Reserved: pageSize,
}

// InYellow reports whether addr lies in the region's yellow zone.
//
//go:nosplit
func (z Zones) InYellow(r Region, addr uintptr) bool {
	return addr >= r.Base && addr < r.Base+z.Yellow
}

// InRed reports whether addr lies in the region's red zone.
//
//go:nosplit
func (z Zones) InRed(r Region, addr uintptr) bool {
	return addr >= r.Base+z.Yellow && addr < r.Base+z.Yellow+z.Red
}

// InReserved reports whether addr lies in the region's reserved zone.
//
//go:nosplit
func (z Zones) InReserved(r Region, addr uintptr) bool {
	return addr >= r.Base+z.Yellow+z.Red && addr < r.Base+z.Yellow+z.Red+z.Reserved
}

// InYellowOrReserved reports whether addr lies in either zone from which a
// managed stack-overflow condition can still be raised.
//
//go:nosplit
func (z Zones) InYellowOrReserved(r Region, addr uintptr) bool {
	return z.InYellow(r, addr) || z.InReserved(r, addr)
}
