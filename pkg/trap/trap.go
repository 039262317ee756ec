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

// Package trap classifies hardware-fault signals delivered to runtime
// threads and translates the recoverable ones into redirected resumption
// inside runtime-generated fix-up code.
//
// The classifier runs synchronously on the interrupted thread, inside the
// asynchronous signal-delivery context. Nothing on that path may allocate,
// acquire locks, or call into non-reentrant services; the only permitted
// operations are context accessors, cached stack-bounds lookups, guard-zone
// flag flips, and the collaborator lookups documented as signal-safe.
package trap

import (
	"golang.org/x/sys/unix"
)

// Outcome is the disposition of one signal delivery.
type Outcome int

const (
	// Unhandled propagates the fault: no classification matched and the
	// caller asked for another chance.
	Unhandled Outcome = iota

	// Handled resumes the thread exactly where it faulted, with no
	// redirect.
	Handled

	// Redirected resumes the thread at a rewritten program counter
	// inside runtime-generated code.
	Redirected
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Unhandled:
		return "unhandled"
	case Handled:
		return "handled"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// FaultCode is an OS-neutral rendering of the siginfo sub-code. The OS entry
// glue translates the raw si_code before classification so the classifier
// never branches on platform numbering.
type FaultCode int32

const (
	// CodeUnknown is a sub-code with no bearing on classification.
	CodeUnknown FaultCode = iota

	// CodeIntDivZero is an integer division by zero (FPE_INTDIV).
	CodeIntDivZero

	// CodeFltDivZero is a floating-point division by zero (FPE_FLTDIV).
	CodeFltDivZero

	// CodeObjErr is a bus error caused by object-specific hardware
	// protection (BUS_OBJERR), typically a truncated memory-mapped file.
	CodeObjErr
)

// Info is the fault information accompanying a signal, already translated
// out of the OS siginfo layout.
type Info struct {
	Signo unix.Signal
	Code  FaultCode

	// Addr is the faulting data address, valid for memory faults only.
	Addr uintptr
}

// Record is the transient per-delivery fault record. It is created at
// handler entry on the interrupted thread's stack and discarded before
// return; nothing retains it.
type Record struct {
	Sig     unix.Signal
	Addr    uintptr
	PC      uintptr
	Outcome Outcome

	// Target is the selected redirect address, meaningful only when
	// Outcome is Redirected. Always inside runtime-generated code.
	Target uintptr
}

// notEntrantMarker is the instruction word (dcps1 #0xdead) patched over the
// verified entry of a method that has been made not-entrant while callers
// were still executing it.
const notEntrantMarker uint32 = 0xd4bbd5a1
