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

// Package code declares the interfaces of the runtime services the fault
// layer consults: the compiled-code cache, the exception-continuation
// resolver, and the runtime-generated stubs. The fault layer treats all of
// them as opaque; their implementations live with the execution engine.
//
// Every method reachable from the signal handler must be safe there: no
// allocation, no locks.
package code

import "github.com/berylvm/beryl/pkg/vmthread"

// Range is a half-open [Begin, End) span of generated code.
type Range struct {
	Begin uintptr
	End   uintptr
}

// Contains reports whether pc falls within the range.
//
//go:nosplit
func (r Range) Contains(pc uintptr) bool {
	return pc >= r.Begin && pc < r.End
}

// Code is the cache's metadata for one piece of generated code.
type Code interface {
	// IsManaged reports whether this is a managed method (interpreted
	// entry or compiled), as opposed to an adapter or runtime stub.
	IsManaged() bool

	// IsFrameCompleteAt reports whether, at pc, the method's frame header
	// has been fully constructed (return address pushed).
	IsFrameCompleteAt(pc uintptr) bool

	// HasUnsafeAccess reports whether the method is annotated as
	// performing speculative unsafe memory access.
	HasUnsafeAccess() bool
}

// Cache looks up generated code by pc.
type Cache interface {
	// FindCode returns the code containing pc, or nil. Must be safe to
	// call with an arbitrary, possibly garbage pc.
	FindCode(pc uintptr) Code
}

// ImplicitKind selects which implicit-exception continuation to resolve.
type ImplicitKind int

const (
	// ImplicitNull is a null dereference caught by the hardware trap that
	// compiled and interpreted code rely on instead of explicit checks.
	ImplicitNull ImplicitKind = iota

	// ImplicitDivideByZero is an integer or floating-point division by
	// zero.
	ImplicitDivideByZero

	// ImplicitStackOverflow is exhaustion of the usable stack into the
	// guard zones.
	ImplicitStackOverflow
)

// Continuations resolves redirect targets for recoverable faults. Every
// address returned is inside runtime-generated stub code, never inside
// managed code or data.
type Continuations interface {
	// ContinuationFor returns the exception continuation for a fault of
	// the given kind at pc, or 0 if none exists.
	ContinuationFor(t *vmthread.Thread, pc uintptr, kind ImplicitKind) uintptr

	// UnsafeAccessContinuation returns the fix-up continuation for a
	// faulted speculative access, entered as if the faulting instruction
	// had completed and execution resumed at nextPC.
	UnsafeAccessContinuation(t *vmthread.Thread, nextPC uintptr) uintptr
}

// Stubs exposes the fixed runtime-generated entry points.
type Stubs interface {
	// WrongMethodStub is the resolution stub entered when a thread faults
	// on a not-entrant method marker.
	WrongMethodStub() uintptr

	// PollStub returns the safepoint-poll exception stub for pc.
	PollStub(pc uintptr) uintptr

	// IsPollAddress reports whether addr is the designated safepoint
	// polling page.
	IsPollAddress(addr uintptr) bool
}

// Regions describes the fixed generated-code regions.
type Regions interface {
	// InInterpreter reports whether pc lies inside the interpreter's code
	// region.
	InInterpreter(pc uintptr) bool
}

// Accessors locates slow-path fallbacks for the optimized field-accessor
// fast paths, which may fault transiently during certain collector
// transitions.
type Accessors interface {
	// FindSlowCasePC returns the slow-path address for a fast path
	// containing pc, if any.
	FindSlowCasePC(pc uintptr) (uintptr, bool)
}
