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

//go:build freebsd && arm64

package arch

import "unsafe"

// GpRegs mirrors struct gpregs from FreeBSD's machine/ucontext.h. x29 is the
// frame pointer; the link register is carried separately.
type GpRegs struct {
	X    [30]uint64
	Lr   uint64
	Sp   uint64
	Elr  uint64
	Spsr uint64
}

// Mcontext mirrors the leading fields of mcontext_t. The FP/SIMD state that
// follows the general purpose registers is never touched here.
type Mcontext struct {
	GpRegs GpRegs
}

type stackT struct {
	Sp    uintptr
	Size  uintptr
	Flags int32
	_     int32
}

// ucontext mirrors ucontext_t.
type ucontext struct {
	Sigmask  [4]uint32
	Mcontext Mcontext
	Link     *ucontext
	Stack    stackT
	Flags    int32
	_        [4]int32
}

// FromUcontext returns the register accessors for the opaque ucontext pointer
// delivered to a signal handler. It returns an existing pointer into the
// kernel-provided context; nothing is allocated.
//
//go:nosplit
func FromUcontext(ucVoid unsafe.Pointer) Context {
	return &(*ucontext)(ucVoid).Mcontext
}

// PC implements Context.PC.
//
//go:nosplit
func (m *Mcontext) PC() uintptr {
	return uintptr(m.GpRegs.Elr)
}

// SetPC implements Context.SetPC.
//
//go:nosplit
func (m *Mcontext) SetPC(pc uintptr) {
	m.GpRegs.Elr = uint64(pc)
}

// SP implements Context.SP.
//
//go:nosplit
func (m *Mcontext) SP() uintptr {
	return uintptr(m.GpRegs.Sp)
}

// FP implements Context.FP.
//
//go:nosplit
func (m *Mcontext) FP() uintptr {
	return uintptr(m.GpRegs.X[RegFP])
}

// LR implements Context.LR.
//
//go:nosplit
func (m *Mcontext) LR() uintptr {
	return uintptr(m.GpRegs.Lr)
}

// Reg implements Context.Reg.
//
//go:nosplit
func (m *Mcontext) Reg(i int) uint64 {
	if i == RegLR {
		return m.GpRegs.Lr
	}
	return m.GpRegs.X[i]
}

// Pstate implements Context.Pstate.
//
//go:nosplit
func (m *Mcontext) Pstate() uint64 {
	return m.GpRegs.Spsr
}
