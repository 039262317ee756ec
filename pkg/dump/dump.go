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

// Package dump renders register and memory state for fatal-crash reports.
// Everything here is read-only: memory is only touched through the
// fault-tolerant reader, so a dump of a corrupted process cannot itself
// fault.
//
// Unlike the classification path, dumping runs after the process has
// committed to dying, so ordinary formatting and allocation are fine.
package dump

import (
	"fmt"
	"io"

	"github.com/berylvm/beryl/pkg/arch"
	"github.com/berylvm/beryl/pkg/safeprobe"
)

// Locator describes what an address points at, for register annotation.
// A nil Locator annotates nothing.
type Locator func(addr uintptr) string

// Registers writes the general-purpose register file in the platform's
// conventional layout: x0 through x28, then the named frame, link, stack
// and program registers, then the flags.
func Registers(w io.Writer, ctx arch.Context) {
	fmt.Fprintln(w, "Registers:")
	for i := 0; i < 29; i++ {
		fmt.Fprintf(w, "x%-2d=0x%016x", i, ctx.Reg(i))
		if i%3 == 2 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, " ")
		}
	}
	fmt.Fprintf(w, " fp=0x%016x  lr=0x%016x\n", ctx.FP(), ctx.LR())
	fmt.Fprintf(w, " sp=0x%016x  pc=0x%016x\n", ctx.SP(), ctx.PC())
	fmt.Fprintf(w, "cpsr=0x%08x\n", ctx.Pstate())
}

// RegisterInfo writes one line per register with loc's description of the
// value, for registers that point at something loc recognizes.
func RegisterInfo(w io.Writer, ctx arch.Context, loc Locator) {
	if loc == nil {
		return
	}
	fmt.Fprintln(w, "Register to memory mapping:")
	for i := 0; i < arch.NumRegs; i++ {
		v := uintptr(ctx.Reg(i))
		if d := loc(v); d != "" {
			fmt.Fprintf(w, "x%-2d=0x%016x %s\n", i, v, d)
		}
	}
	if d := loc(ctx.SP()); d != "" {
		fmt.Fprintf(w, " sp=0x%016x %s\n", ctx.SP(), d)
	}
	if d := loc(ctx.PC()); d != "" {
		fmt.Fprintf(w, " pc=0x%016x %s\n", ctx.PC(), d)
	}
}

// Stack writes a window of words words starting at sp. Unreadable words are
// rendered as question marks rather than aborting the dump.
func Stack(w io.Writer, mem safeprobe.Reader, sp uintptr, words int) {
	fmt.Fprintf(w, "Top of Stack: (sp=0x%x)\n", sp)
	for i := 0; i < words; i++ {
		addr := sp + uintptr(i)*8
		if v, ok := mem.ReadWord(addr); ok {
			fmt.Fprintf(w, "0x%016x: 0x%016x\n", addr, v)
		} else {
			fmt.Fprintf(w, "0x%016x: ????????????????\n", addr)
		}
	}
}

// instructionWindow is the span dumped around the faulting pc, in
// instruction words before and after.
const instructionWindow = 8

// Instructions writes the instruction words around pc, marking the faulting
// word. It comes last in a report so a wild pc truncates nothing else.
func Instructions(w io.Writer, mem safeprobe.Reader, pc uintptr) {
	begin := pc - instructionWindow*arch.InstructionSize
	end := pc + (instructionWindow+1)*arch.InstructionSize
	fmt.Fprintf(w, "Instructions: (pc=0x%x)\n", pc)
	for addr := begin; addr < end; addr += arch.InstructionSize {
		marker := "  "
		if addr == pc {
			marker = "=>"
		}
		if v, ok := mem.ReadUint32(addr); ok {
			fmt.Fprintf(w, "%s 0x%016x: %08x\n", marker, addr, v)
		} else {
			fmt.Fprintf(w, "%s 0x%016x: ????????\n", marker, addr)
		}
	}
}
