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

//go:build netbsd && arm64

package arch

import "unsafe"

// Register slots in the NetBSD aarch64 __gregs array, from machine/mcontext.h.
const (
	regSP   = 31
	regPC   = 32 // _REG_ELR
	regSpsr = 33
)

// Mcontext mirrors the leading fields of NetBSD's mcontext_t. The fregs block
// that follows is never touched here.
type Mcontext struct {
	Gregs [35]uint64
}

type stackT struct {
	Sp    uintptr
	Size  uintptr
	Flags int32
	_     int32
}

// ucontext mirrors ucontext_t.
type ucontext struct {
	Flags    uint32
	Link     *ucontext
	Sigmask  [4]uint32
	Stack    stackT
	Mcontext Mcontext
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
	return uintptr(m.Gregs[regPC])
}

// SetPC implements Context.SetPC.
//
//go:nosplit
func (m *Mcontext) SetPC(pc uintptr) {
	m.Gregs[regPC] = uint64(pc)
}

// SP implements Context.SP.
//
//go:nosplit
func (m *Mcontext) SP() uintptr {
	return uintptr(m.Gregs[regSP])
}

// FP implements Context.FP.
//
//go:nosplit
func (m *Mcontext) FP() uintptr {
	return uintptr(m.Gregs[RegFP])
}

// LR implements Context.LR.
//
//go:nosplit
func (m *Mcontext) LR() uintptr {
	return uintptr(m.Gregs[RegLR])
}

// Reg implements Context.Reg.
//
//go:nosplit
func (m *Mcontext) Reg(i int) uint64 {
	return m.Gregs[i]
}

// Pstate implements Context.Pstate.
//
//go:nosplit
func (m *Mcontext) Pstate() uint64 {
	return m.Gregs[regSpsr]
}
