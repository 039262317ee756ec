// Copyright 2022 The Beryl Authors.
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

package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/berylvm/beryl/pkg/arch"
	"github.com/berylvm/beryl/pkg/code"
	"github.com/berylvm/beryl/pkg/guard"
	"github.com/berylvm/beryl/pkg/vmthread"
)

// Test address map:
//   stack           [0x10000, 0x20000)
//   interpreter     [0x40000, 0x41000)
//   compiled method [0x50000, 0x51000)
const (
	stackBase    = 0x10000
	stackSize    = 0x10000
	interpBase   = 0x40000
	compiledBase = 0x50000
)

type fakeMem map[uintptr]uintptr

func (m fakeMem) ReadWord(addr uintptr) (uintptr, bool) {
	v, ok := m[addr]
	return v, ok
}

func (m fakeMem) ReadUint32(addr uintptr) (uint32, bool) {
	v, ok := m[addr]
	return uint32(v), ok
}

type fakeCode struct {
	managed      bool
	completeAt   func(pc uintptr) bool
	unsafeAccess bool
}

func (c *fakeCode) IsManaged() bool       { return c.managed }
func (c *fakeCode) HasUnsafeAccess() bool { return c.unsafeAccess }
func (c *fakeCode) IsFrameCompleteAt(pc uintptr) bool {
	if c.completeAt == nil {
		return true
	}
	return c.completeAt(pc)
}

type fakeCache map[code.Range]*fakeCode

func (f fakeCache) FindCode(pc uintptr) code.Code {
	for r, c := range f {
		if r.Contains(pc) {
			return c
		}
	}
	return nil
}

type fakeRegions struct{}

func (fakeRegions) InInterpreter(pc uintptr) bool {
	return pc >= interpBase && pc < interpBase+0x1000
}

func testThread() *vmthread.Thread {
	return vmthread.New(
		guard.Region{Base: stackBase, Size: stackSize},
		guard.DefaultZones,
	)
}

func compiledCache(completeAt func(uintptr) bool) fakeCache {
	return fakeCache{
		{Begin: compiledBase, End: compiledBase + 0x1000}: {managed: true, completeAt: completeAt},
	}
}

func TestFromContextNil(t *testing.T) {
	f := FromContext(nil)
	if !f.IsZero() {
		t.Errorf("FromContext(nil) = %+v, want zero sentinel", f)
	}
}

func TestFromContext(t *testing.T) {
	regs := &arch.Registers{Sp: 0x11000, Pc: 0x50010}
	regs.Regs[arch.RegFP] = 0x11100
	got := FromContext(regs)
	want := Frame{SP: 0x11000, FP: 0x11100, PC: 0x50010}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromContext diff (-want +got):\n%s", diff)
	}
}

func TestAtBangingPointInterpreted(t *testing.T) {
	th := testThread()
	// Interpreted frame at fp=0x11100 whose frame record names a compiled
	// caller.
	mem := fakeMem{
		0x11100:     0x11200,           // saved fp
		0x11100 + 8: compiledBase + 32, // return address
	}
	w := &Walker{Mem: mem, Cache: compiledCache(nil), Regions: fakeRegions{}}

	regs := &arch.Registers{Sp: 0x11000, Pc: interpBase + 0x40}
	regs.Regs[arch.RegFP] = 0x11100

	f, ok := w.AtBangingPoint(th, regs)
	if !ok {
		t.Fatalf("AtBangingPoint failed")
	}
	if f.Kind != Compiled {
		t.Errorf("caller frame kind = %v, want Compiled", f.Kind)
	}
	if f.PC != compiledBase+32 {
		t.Errorf("caller frame pc = %#x, want %#x", f.PC, uintptr(compiledBase+32))
	}
	if !th.OnLocalStack(f.SP) {
		t.Errorf("managed frame sp %#x outside stack bounds", f.SP)
	}
}

func TestAtBangingPointInterpretedFirstFrame(t *testing.T) {
	th := testThread()
	// The walk fails (no frame record); the interpreted frame itself is
	// the first managed frame.
	w := &Walker{Mem: fakeMem{}, Cache: compiledCache(nil), Regions: fakeRegions{}}

	regs := &arch.Registers{Sp: 0x11000, Pc: interpBase + 0x40}
	regs.Regs[arch.RegFP] = 0x11100

	f, ok := w.AtBangingPoint(th, regs)
	if !ok {
		t.Fatalf("AtBangingPoint failed")
	}
	if f.Kind != Interpreted {
		t.Errorf("frame kind = %v, want Interpreted", f.Kind)
	}
}

func TestAtBangingPointCompiledIncomplete(t *testing.T) {
	th := testThread()
	cache := compiledCache(func(pc uintptr) bool { return false })
	w := &Walker{Mem: fakeMem{}, Cache: cache, Regions: fakeRegions{}}

	// Bang in compiled code before the frame is complete: LR is live and
	// points just past the call site, sp/fp belong to the caller.
	regs := &arch.Registers{Sp: 0x11000, Pc: compiledBase + 0x10}
	regs.Regs[arch.RegFP] = 0x11100
	regs.Regs[arch.RegLR] = compiledBase + 0x104

	f, ok := w.AtBangingPoint(th, regs)
	if !ok {
		t.Fatalf("AtBangingPoint failed")
	}
	if f.Kind != Compiled {
		t.Errorf("frame kind = %v, want Compiled", f.Kind)
	}
	if want := uintptr(compiledBase + 0x104 - arch.InstructionSize); f.PC != want {
		t.Errorf("frame pc = %#x, want call site %#x", f.PC, want)
	}
}

func TestAtBangingPointFrameComplete(t *testing.T) {
	th := testThread()
	cache := compiledCache(func(pc uintptr) bool { return true })
	w := &Walker{Mem: fakeMem{}, Cache: cache, Regions: fakeRegions{}}

	regs := &arch.Registers{Sp: 0x11000, Pc: compiledBase + 0x10}
	if _, ok := w.AtBangingPoint(th, regs); ok {
		t.Errorf("AtBangingPoint succeeded for a complete frame, want undetermined")
	}
}

func TestAtBangingPointNoCode(t *testing.T) {
	th := testThread()
	w := &Walker{Mem: fakeMem{}, Cache: fakeCache{}, Regions: fakeRegions{}}

	regs := &arch.Registers{Sp: 0x11000, Pc: 0x99999000}
	if _, ok := w.AtBangingPoint(th, regs); ok {
		t.Errorf("AtBangingPoint succeeded with no code at pc, want undetermined")
	}
}

func TestCallerOfRefusesBadFP(t *testing.T) {
	th := testThread()
	w := &Walker{Mem: fakeMem{}, Cache: fakeCache{}, Regions: fakeRegions{}}

	for _, f := range []Frame{
		{SP: 0x11000, FP: 0},          // nil fp
		{SP: 0x11000, FP: 0x11001},    // unaligned
		{SP: 0x11000, FP: 0x90000},    // off-stack
		{SP: 0x11200, FP: 0x11100},    // fp below sp
	} {
		if _, ok := w.CallerOf(th, f); ok {
			t.Errorf("CallerOf(%+v) succeeded, want refusal", f)
		}
	}
}
