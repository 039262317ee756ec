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

import "testing"

func TestRegistersContext(t *testing.T) {
	var r Registers
	r.Regs[0] = 0xdead
	r.Regs[RegFP] = 0x7000
	r.Regs[RegLR] = 0x401004
	r.Sp = 0x6f00
	r.Pc = 0x400000

	var ctx Context = &r
	if got, want := ctx.PC(), uintptr(0x400000); got != want {
		t.Errorf("PC() = %#x, want %#x", got, want)
	}
	if got, want := ctx.SP(), uintptr(0x6f00); got != want {
		t.Errorf("SP() = %#x, want %#x", got, want)
	}
	if got, want := ctx.FP(), uintptr(0x7000); got != want {
		t.Errorf("FP() = %#x, want %#x", got, want)
	}
	if got, want := ctx.LR(), uintptr(0x401004); got != want {
		t.Errorf("LR() = %#x, want %#x", got, want)
	}
	if got, want := ctx.Reg(0), uint64(0xdead); got != want {
		t.Errorf("Reg(0) = %#x, want %#x", got, want)
	}
}

func TestSetPCLeavesStackRegisters(t *testing.T) {
	r := Registers{Sp: 0x6f00}
	r.Regs[RegFP] = 0x7000

	var ctx Context = &r
	ctx.SetPC(0x123456)

	if got, want := ctx.PC(), uintptr(0x123456); got != want {
		t.Errorf("PC() after SetPC = %#x, want %#x", got, want)
	}
	if ctx.SP() != 0x6f00 || ctx.FP() != 0x7000 {
		t.Errorf("SetPC disturbed sp/fp: sp=%#x fp=%#x", ctx.SP(), ctx.FP())
	}
}
