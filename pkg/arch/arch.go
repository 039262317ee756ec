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

// Package arch provides access to the saved register state of a thread
// interrupted by a hardware-fault signal on AArch64.
//
// The concrete ucontext field layouts differ between the BSD variants, so one
// accessor set per variant is selected at build time. Everything above this
// package is written against Context and never branches on the OS.
package arch

// InstructionSize is the width of an AArch64 instruction.
const InstructionSize = 4

// Register indices with a fixed role in the AArch64 procedure call standard.
const (
	RegFP = 29
	RegLR = 30

	// NumRegs is the number of general purpose registers x0-x30.
	NumRegs = 31
)

// Context is a view of one thread's register state saved by the kernel at
// signal delivery.
//
// Accessors perform no validation; the caller guarantees the context is valid
// for the duration of the current signal delivery. SetPC overwrites the saved
// program counter so that, when the kernel resumes the interrupted thread,
// execution continues at the new address with the stack and frame registers
// untouched. Implementations must be safe to call from a signal handler: no
// allocation, no locks.
type Context interface {
	// PC returns the saved program counter.
	PC() uintptr

	// SetPC overwrites the saved program counter. The write takes effect
	// only on signal return.
	SetPC(pc uintptr)

	// SP returns the saved stack pointer.
	SP() uintptr

	// FP returns the saved frame pointer (x29).
	FP() uintptr

	// LR returns the saved link register (x30).
	LR() uintptr

	// Reg returns general purpose register xi.
	Reg(i int) uint64

	// Pstate returns the saved processor state flags.
	Pstate() uint64
}
