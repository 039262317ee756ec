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

// Package vmthread holds the per-thread runtime state consulted and mutated
// during hardware-fault classification: execution state, stack bounds, guard
// zone flags, and the unsafe-access marker.
//
// All flags are owned by their thread. The fault handler always runs on the
// interrupted thread itself, so flag mutation needs no cross-thread locking;
// sequentially consistent atomics make the stores visible to the owning
// thread's later reads.
package vmthread

import (
	"sync/atomic"

	"github.com/berylvm/beryl/pkg/guard"
)

// State describes what kind of code a thread was executing when it was
// interrupted.
type State int32

const (
	// StateUnknown is a thread not registered with the runtime, or one
	// whose state cannot be determined.
	StateUnknown State = iota

	// StateInManaged means the thread was executing interpreted, compiled,
	// or stub code.
	StateInManaged

	// StateInRuntime means the thread was executing inside the runtime
	// itself.
	StateInRuntime

	// StateInNative means the thread was executing native library code.
	StateInNative
)

// Thread is the runtime's view of one OS thread.
type Thread struct {
	// Stack and Zones are computed at thread registration and immutable
	// thereafter.
	Stack guard.Region
	Zones guard.Zones

	state atomic.Int32

	// Guard flags. A cleared flag means the corresponding zone has been
	// unprotected and will no longer produce faults.
	yellowReservedEnabled atomic.Bool
	reservedEnabled       atomic.Bool
	redEnabled            atomic.Bool

	doingUnsafeAccess atomic.Bool

	savedExceptionPC        atomic.Uintptr
	reservedStackActivation atomic.Uintptr
}

// New returns a registered-state thread with all guard zones armed.
func New(stack guard.Region, zones guard.Zones) *Thread {
	t := &Thread{Stack: stack, Zones: zones}
	t.yellowReservedEnabled.Store(true)
	t.reservedEnabled.Store(true)
	t.redEnabled.Store(true)
	return t
}

// State returns the thread's execution state.
//
//go:nosplit
func (t *Thread) State() State {
	return State(t.state.Load())
}

// SetState records the thread's execution state. Called by the owning thread
// at managed/runtime/native transitions.
//
//go:nosplit
func (t *Thread) SetState(s State) {
	t.state.Store(int32(s))
}

// OnLocalStack reports whether addr falls within this thread's stack.
//
//go:nosplit
func (t *Thread) OnLocalStack(addr uintptr) bool {
	return t.Stack.Contains(addr)
}

// InStackYellowReservedZone reports whether addr lies in the yellow or
// reserved guard zones and the combined guard is still armed.
//
//go:nosplit
func (t *Thread) InStackYellowReservedZone(addr uintptr) bool {
	return t.yellowReservedEnabled.Load() && t.Zones.InYellowOrReserved(t.Stack, addr)
}

// InStackReservedZone reports whether addr lies in the reserved zone and the
// reserved guard is still armed.
//
//go:nosplit
func (t *Thread) InStackReservedZone(addr uintptr) bool {
	return t.reservedEnabled.Load() && t.Zones.InReserved(t.Stack, addr)
}

// InStackRedZone reports whether addr lies in the red zone and the red guard
// is still armed.
//
//go:nosplit
func (t *Thread) InStackRedZone(addr uintptr) bool {
	return t.redEnabled.Load() && t.Zones.InRed(t.Stack, addr)
}

// DisableStackYellowReservedZone permanently disarms the yellow and reserved
// guards for this thread. The zones are re-armed only while unwinding the
// resulting stack-overflow exception, which is outside this layer.
//
//go:nosplit
func (t *Thread) DisableStackYellowReservedZone() {
	t.yellowReservedEnabled.Store(false)
}

// DisableStackReservedZone disarms only the reserved-zone tracking, letting a
// stack-reservable method's activation continue into the reserved margin.
//
//go:nosplit
func (t *Thread) DisableStackReservedZone() {
	t.reservedEnabled.Store(false)
}

// DisableStackRedZone disarms the red guard. Used only on the way to fatal
// handling, so the report itself does not re-fault.
//
//go:nosplit
func (t *Thread) DisableStackRedZone() {
	t.redEnabled.Store(false)
}

// StackYellowReservedZoneEnabled reports whether the combined guard is armed.
//
//go:nosplit
func (t *Thread) StackYellowReservedZoneEnabled() bool {
	return t.yellowReservedEnabled.Load()
}

// StackRedZoneEnabled reports whether the red guard is armed.
//
//go:nosplit
func (t *Thread) StackRedZoneEnabled() bool {
	return t.redEnabled.Load()
}

// DoingUnsafeAccess reports whether the thread has declared that it is
// performing a speculative unsafe memory access.
//
//go:nosplit
func (t *Thread) DoingUnsafeAccess() bool {
	return t.doingUnsafeAccess.Load()
}

// SetDoingUnsafeAccess is toggled by the owning thread around speculative
// unsafe memory accesses performed from runtime or native code.
//
//go:nosplit
func (t *Thread) SetDoingUnsafeAccess(v bool) {
	t.doingUnsafeAccess.Store(v)
}

// SavedExceptionPC returns the faulting pc recorded by the last redirect.
//
//go:nosplit
func (t *Thread) SavedExceptionPC() uintptr {
	return t.savedExceptionPC.Load()
}

// SetSavedExceptionPC records the faulting pc before the saved program
// counter is rewritten, so exception fix-up stubs can recover it.
//
//go:nosplit
func (t *Thread) SetSavedExceptionPC(pc uintptr) {
	t.savedExceptionPC.Store(pc)
}

// ReservedStackActivation returns the activation recorded by the last
// reserved-zone re-entry.
//
//go:nosplit
func (t *Thread) ReservedStackActivation() uintptr {
	return t.reservedStackActivation.Load()
}

// SetReservedStackActivation records the activation frame of a
// stack-reservable method that is now running within the reserved margin.
//
//go:nosplit
func (t *Thread) SetReservedStackActivation(addr uintptr) {
	t.reservedStackActivation.Store(addr)
}
