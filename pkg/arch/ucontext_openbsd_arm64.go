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

//go:build openbsd && arm64

package arch

import "unsafe"

// Sigcontext mirrors OpenBSD's struct sigcontext for aarch64. OpenBSD passes
// the sigcontext directly; there is no enclosing ucontext.
type Sigcontext struct {
	Unused int32
	Mask   int32
	Sp     uint64
	Lr     uint64
	Elr    uint64
	Spsr   uint64
	X      [30]uint64
	Cookie int64
}

// FromUcontext returns the register accessors for the opaque context pointer
// delivered to a signal handler. It returns the kernel-provided sigcontext
// itself; nothing is allocated.
//
//go:nosplit
func FromUcontext(ucVoid unsafe.Pointer) Context {
	return (*Sigcontext)(ucVoid)
}

// PC implements Context.PC.
//
//go:nosplit
func (c *Sigcontext) PC() uintptr {
	return uintptr(c.Elr)
}

// SetPC implements Context.SetPC.
//
//go:nosplit
func (c *Sigcontext) SetPC(pc uintptr) {
	c.Elr = uint64(pc)
}

// SP implements Context.SP.
//
//go:nosplit
func (c *Sigcontext) SP() uintptr {
	return uintptr(c.Sp)
}

// FP implements Context.FP.
//
//go:nosplit
func (c *Sigcontext) FP() uintptr {
	return uintptr(c.X[RegFP])
}

// LR implements Context.LR.
//
//go:nosplit
func (c *Sigcontext) LR() uintptr {
	return uintptr(c.Lr)
}

// Reg implements Context.Reg.
//
//go:nosplit
func (c *Sigcontext) Reg(i int) uint64 {
	if i == RegLR {
		return c.Lr
	}
	return c.X[i]
}

// Pstate implements Context.Pstate.
//
//go:nosplit
func (c *Sigcontext) Pstate() uint64 {
	return c.Spsr
}
