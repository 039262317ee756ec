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

//go:build darwin && arm64

package arch

import "unsafe"

// ExceptionState64 mirrors __darwin_arm_exception_state64 from
// darwin-xnu/osfmk/mach/arm/_structs.h.
type ExceptionState64 struct {
	Far       uint64
	Esr       uint32
	Exception uint32
}

// ThreadState64 mirrors __darwin_arm_thread_state64.
type ThreadState64 struct {
	X    [29]uint64
	Fp   uint64
	Lr   uint64
	Sp   uint64
	Pc   uint64
	Cpsr uint32
	_    uint32
}

// Mcontext64 mirrors the leading fields of __darwin_mcontext64. The NEON
// state that follows the thread state is never touched here.
type Mcontext64 struct {
	Es ExceptionState64
	Ss ThreadState64
}

type stackT struct {
	Sp    uintptr
	Size  uintptr
	Flags int32
	_     int32
}

// ucontext64 mirrors _STRUCT_UCONTEXT64. The mcontext is held by pointer on
// Darwin, unlike the other BSDs.
type ucontext64 struct {
	Onstack  int32
	Sigmask  uint32
	Stack    stackT
	Link     *ucontext64
	McSize   uint64
	Mcontext *Mcontext64
}

// FromUcontext returns the register accessors for the opaque ucontext pointer
// delivered to a signal handler. It returns an existing pointer into the
// kernel-provided context; nothing is allocated.
//
//go:nosplit
func FromUcontext(ucVoid unsafe.Pointer) Context {
	return (*ucontext64)(ucVoid).Mcontext
}

// PC implements Context.PC.
//
//go:nosplit
func (m *Mcontext64) PC() uintptr {
	return uintptr(m.Ss.Pc)
}

// SetPC implements Context.SetPC.
//
//go:nosplit
func (m *Mcontext64) SetPC(pc uintptr) {
	m.Ss.Pc = uint64(pc)
}

// SP implements Context.SP.
//
//go:nosplit
func (m *Mcontext64) SP() uintptr {
	return uintptr(m.Ss.Sp)
}

// FP implements Context.FP.
//
//go:nosplit
func (m *Mcontext64) FP() uintptr {
	return uintptr(m.Ss.Fp)
}

// LR implements Context.LR.
//
//go:nosplit
func (m *Mcontext64) LR() uintptr {
	return uintptr(m.Ss.Lr)
}

// Reg implements Context.Reg.
//
//go:nosplit
func (m *Mcontext64) Reg(i int) uint64 {
	switch i {
	case RegFP:
		return m.Ss.Fp
	case RegLR:
		return m.Ss.Lr
	default:
		return m.Ss.X[i]
	}
}

// Pstate implements Context.Pstate.
//
//go:nosplit
func (m *Mcontext64) Pstate() uint64 {
	return uint64(m.Ss.Cpsr)
}
