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

package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/berylvm/beryl/pkg/arch"
)

type fakeMem map[uintptr]uint64

func (m fakeMem) ReadWord(addr uintptr) (uintptr, bool) {
	v, ok := m[addr]
	return uintptr(v), ok
}

func (m fakeMem) ReadUint32(addr uintptr) (uint32, bool) {
	v, ok := m[addr]
	return uint32(v), ok
}

func testCtx() *arch.Registers {
	ctx := &arch.Registers{Sp: 0x2000, Pc: 0x4000, Flags: 0x60000000}
	for i := 0; i < arch.NumRegs; i++ {
		ctx.Regs[i] = uint64(0x100 + i)
	}
	return ctx
}

func TestRegisters(t *testing.T) {
	var buf bytes.Buffer
	Registers(&buf, testCtx())
	out := buf.String()

	for _, want := range []string{
		"x0 =0x0000000000000100",
		"x28=0x000000000000011c",
		" fp=0x000000000000011d",
		" lr=0x000000000000011e",
		" sp=0x0000000000002000",
		" pc=0x0000000000004000",
		"cpsr=0x60000000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRegisterInfo(t *testing.T) {
	var buf bytes.Buffer
	loc := func(addr uintptr) string {
		if addr == 0x2000 {
			return "on thread stack"
		}
		return ""
	}
	RegisterInfo(&buf, testCtx(), loc)
	out := buf.String()

	if !strings.Contains(out, " sp=0x0000000000002000 on thread stack") {
		t.Errorf("sp annotation missing:\n%s", out)
	}
	if strings.Contains(out, "x0 =") {
		t.Errorf("unrecognized register annotated:\n%s", out)
	}
}

func TestRegisterInfoNilLocator(t *testing.T) {
	var buf bytes.Buffer
	RegisterInfo(&buf, testCtx(), nil)
	if buf.Len() != 0 {
		t.Errorf("nil locator produced output: %q", buf.String())
	}
}

func TestStack(t *testing.T) {
	mem := fakeMem{
		0x2000: 0xdeadbeef,
		0x2008: 0x1234,
		// 0x2010 unreadable.
		0x2018: 0x5678,
	}
	var buf bytes.Buffer
	Stack(&buf, mem, 0x2000, 4)
	out := buf.String()

	if !strings.Contains(out, "0x0000000000002000: 0x00000000deadbeef") {
		t.Errorf("first word missing:\n%s", out)
	}
	if !strings.Contains(out, "0x0000000000002010: ????????????????") {
		t.Errorf("unreadable word not marked:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 5 {
		t.Errorf("line count = %d, want 5", got)
	}
}

func TestInstructions(t *testing.T) {
	pc := uintptr(0x4000)
	mem := fakeMem{}
	for a := pc - 8*4; a < pc+9*4; a += 4 {
		mem[a] = 0xd503201f // nop
	}
	mem[pc] = 0xd4bbd5a1

	var buf bytes.Buffer
	Instructions(&buf, mem, pc)
	out := buf.String()

	if !strings.Contains(out, "=> 0x0000000000004000: d4bbd5a1") {
		t.Errorf("faulting word not marked:\n%s", out)
	}
	if got := strings.Count(out, "=>"); got != 1 {
		t.Errorf("marker count = %d, want 1", got)
	}
	// 8 before, the faulting word, 8 after, plus the header.
	if got := strings.Count(out, "\n"); got != 18 {
		t.Errorf("line count = %d, want 18", got)
	}
}

func TestInstructionsUnreadable(t *testing.T) {
	var buf bytes.Buffer
	Instructions(&buf, fakeMem{}, 0x4000)
	out := buf.String()

	if !strings.Contains(out, "=> 0x0000000000004000: ????????") {
		t.Errorf("unreadable pc not marked:\n%s", out)
	}
}
