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
	"github.com/berylvm/beryl/pkg/arch"
	"github.com/berylvm/beryl/pkg/code"
	"github.com/berylvm/beryl/pkg/safeprobe"
	"github.com/berylvm/beryl/pkg/vmthread"
)

// frameRecordSize is the size of the AArch64 frame record: saved fp at [fp],
// return address at [fp+8].
const frameRecordSize = 16

// Walker reconstructs and classifies frames using the code cache and
// bounds-checked stack memory access. Safe for use during signal delivery:
// no allocation, all reads through the fault-tolerant reader.
type Walker struct {
	Mem     safeprobe.Reader
	Cache   code.Cache
	Regions code.Regions
}

// Classify tags f by where its pc lies.
func (w *Walker) Classify(f Frame) Frame {
	f.Kind = w.kindOf(f.PC)
	return f
}

func (w *Walker) kindOf(pc uintptr) Kind {
	if w.Regions != nil && w.Regions.InInterpreter(pc) {
		return Interpreted
	}
	if w.Cache != nil {
		if c := w.Cache.FindCode(pc); c != nil && c.IsManaged() {
			return Compiled
		}
	}
	return Native
}

// CallerOf walks one level up from f through the frame record. It refuses to
// walk when the frame pointer is not plausibly a frame record on t's stack.
func (w *Walker) CallerOf(t *vmthread.Thread, f Frame) (Frame, bool) {
	if !w.safeForSender(t, f) {
		return Frame{}, false
	}
	savedFP, ok := w.Mem.ReadWord(f.FP)
	if !ok {
		return Frame{}, false
	}
	retPC, ok := w.Mem.ReadWord(f.FP + 8)
	if !ok || retPC == 0 {
		return Frame{}, false
	}
	caller := Frame{
		SP: f.FP + frameRecordSize,
		FP: savedFP,
		PC: retPC,
	}
	return w.Classify(caller), true
}

// safeForSender reports whether f's frame pointer can be dereferenced as a
// frame record: inside the thread's stack, above the stack pointer, and
// aligned.
func (w *Walker) safeForSender(t *vmthread.Thread, f Frame) bool {
	if f.FP == 0 || f.FP%8 != 0 {
		return false
	}
	if !t.OnLocalStack(f.FP) {
		return false
	}
	return f.FP >= f.SP
}

// AtBangingPoint locates the managed frame on whose behalf a stack bang
// faulted. Used only by the stack-overflow classification path.
//
// The interpreter performs its stack banging after the fixed frame header
// has been constructed, while compiled code bangs before saving the link
// register. To keep the two cases consistent, the interpreter case reports
// the caller of the frame in the context, and the compiled case synthesizes
// a frame from the live link register.
func (w *Walker) AtBangingPoint(t *vmthread.Thread, ctx arch.Context) (Frame, bool) {
	pc := ctx.PC()
	if w.Regions != nil && w.Regions.InInterpreter(pc) {
		f := w.Classify(FromContext(ctx))
		caller, ok := w.CallerOf(t, f)
		if !ok || !caller.Managed() {
			// The interpreted frame itself is the first managed
			// frame.
			return w.checkManaged(t, f)
		}
		return w.checkManaged(t, caller)
	}

	c := w.Cache.FindCode(pc)
	if c == nil || !c.IsManaged() || c.IsFrameCompleteAt(pc) {
		// Either no idea where pc points, or the frame is already
		// complete; fall back to generic stack-overflow handling.
		return Frame{}, false
	}

	// The bang ran before LR was saved: LR is live, and the context's sp
	// and fp still belong to the caller. Rewind LR by one instruction to
	// point at the call site.
	f := w.Classify(Frame{
		SP: ctx.SP(),
		FP: ctx.FP(),
		PC: ctx.LR() - arch.InstructionSize,
	})
	if !f.Managed() {
		caller, ok := w.CallerOf(t, f)
		if !ok || !caller.Managed() {
			return Frame{}, false
		}
		f = caller
	}
	return w.checkManaged(t, f)
}

// checkManaged enforces the invariant that a managed frame's stack pointer
// lies within the owning thread's stack bounds.
func (w *Walker) checkManaged(t *vmthread.Thread, f Frame) (Frame, bool) {
	if !f.Managed() || !t.OnLocalStack(f.SP) {
		return Frame{}, false
	}
	return f, true
}
