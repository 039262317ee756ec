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

package arch

// Registers is a portable AArch64 register file. It implements Context and
// backs every code path that is not handed a raw kernel ucontext: tests,
// synthetic crash dumps, and saved-state snapshots taken outside signal
// delivery.
type Registers struct {
	Regs  [NumRegs]uint64
	Sp    uint64
	Pc    uint64
	Flags uint64
}

// PC implements Context.PC.
//
//go:nosplit
func (r *Registers) PC() uintptr {
	return uintptr(r.Pc)
}

// SetPC implements Context.SetPC.
//
//go:nosplit
func (r *Registers) SetPC(pc uintptr) {
	r.Pc = uint64(pc)
}

// SP implements Context.SP.
//
//go:nosplit
func (r *Registers) SP() uintptr {
	return uintptr(r.Sp)
}

// FP implements Context.FP.
//
//go:nosplit
func (r *Registers) FP() uintptr {
	return uintptr(r.Regs[RegFP])
}

// LR implements Context.LR.
//
//go:nosplit
func (r *Registers) LR() uintptr {
	return uintptr(r.Regs[RegLR])
}

// Reg implements Context.Reg.
//
//go:nosplit
func (r *Registers) Reg(i int) uint64 {
	return r.Regs[i]
}

// Pstate implements Context.Pstate.
//
//go:nosplit
func (r *Registers) Pstate() uint64 {
	return r.Flags
}
