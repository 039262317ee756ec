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

package trap

import (
	"golang.org/x/sys/unix"

	"github.com/berylvm/beryl/pkg/arch"
	"github.com/berylvm/beryl/pkg/code"
	"github.com/berylvm/beryl/pkg/frame"
	"github.com/berylvm/beryl/pkg/safeprobe"
	"github.com/berylvm/beryl/pkg/vmthread"
)

// ReservedStack walks managed frames looking for an activation of a method
// annotated as allowed to run within the reserved stack margin.
type ReservedStack interface {
	// FindAnnotatedActivation walks caller frames starting at f and
	// returns the activation of the innermost annotated method, if any.
	FindAnnotatedActivation(t *vmthread.Thread, f frame.Frame) (frame.Frame, bool)
}

// Reporter produces the fatal crash report for a fault the classifier could
// not resolve. ReportAndDie must not return; it terminates the process after
// unblocking the signal and emitting diagnostics.
type Reporter interface {
	ReportAndDie(t *vmthread.Thread, rec *Record, info *Info, ctx arch.Context)
}

// DiagnosticFault resolves the deliberate fault raised by assertion
// machinery poisoning its marker page. OnPoisonFault restores the page and
// reports whether the fault was the poison self-test.
type DiagnosticFault interface {
	OnPoisonFault(pc uintptr, ctx arch.Context) bool
}

// Options carries the process-wide classification tunables.
type Options struct {
	// PoisonPage is the address of the assertion poison page, or 0 when
	// the diagnostic self-test is not in use.
	PoisonPage uintptr

	// PageSize is the system page size. Zero selects 4KiB.
	PageSize uintptr

	// TraceTraps emits a one-line note to stderr for every redirect.
	TraceTraps bool

	// StackGapWorkaround treats faults in a small band immediately below
	// a thread stack as stack overflow, compensating for kernels that
	// insert an unreported gap under grown stacks.
	StackGapWorkaround bool

	// StackGapPages is the width of that band in pages.
	StackGapPages uintptr
}

//go:nosplit
func (o *Options) pageSize() uintptr {
	if o.PageSize == 0 {
		return 0x1000
	}
	return o.PageSize
}

// Handler owns fault classification for the process. All collaborator
// methods it invokes must be signal-safe; see the package comment.
type Handler struct {
	Cache     code.Cache
	Conts     code.Continuations
	Stubs     code.Stubs
	Regions   code.Regions
	Accessors code.Accessors
	Reserved  ReservedStack

	Mem    safeprobe.Reader
	Frames *frame.Walker
	Serial *vmthread.SerializationPage

	Chain    *Chain
	Reporter Reporter
	Diag     DiagnosticFault

	Opts Options
}

// disposition is classify's verdict when it produced no redirect target.
type disposition int

const (
	// dispContinue lets the caller try the remaining salvage checks.
	dispContinue disposition = iota

	// dispHandled resolved the fault with no redirect.
	dispHandled

	// dispFatal established the fault as unrecoverable; skip salvage.
	dispFatal
)

// Handle classifies one signal delivery on the interrupted thread t, which
// may be nil for threads unknown to the runtime. It returns the disposition;
// when abortUnrecognized is set an unrecognized fault does not return at all
// but ends in the fatal reporter.
//
//go:nosplit
func (h *Handler) Handle(t *vmthread.Thread, info *Info, ctx arch.Context, abortUnrecognized bool) Outcome {
	sig := info.Signo

	// Write-side faults the process asked to receive as signals rather
	// than errors. Offer them to any displaced handler, then drop them.
	// Repeated deliveries take the same path.
	if sig == unix.SIGPIPE || sig == unix.SIGXFSZ {
		h.Chain.Offer(sig, info, ctx)
		return Handled
	}

	var pc uintptr
	if ctx != nil {
		pc = ctx.PC()

		// Assertion poison-page self-test. Darwin can deliver the
		// access fault as SIGBUS.
		if (sig == unix.SIGSEGV || sig == unix.SIGBUS) && h.Opts.PoisonPage != 0 && info.Addr == h.Opts.PoisonPage && h.Diag != nil {
			if h.Diag.OnPoisonFault(pc, ctx) {
				return Handled
			}
		}

		// Probe-routine faults resume at the routine's registered
		// failure continuation.
		if safeprobe.IsProbeFault(pc) {
			ctx.SetPC(safeprobe.ContinuationFor(pc))
			return Redirected
		}
	}

	if t == nil {
		t = vmthread.Current()
	}

	rec := Record{Sig: sig, Addr: info.Addr, PC: pc}
	var target uintptr
	disp := dispContinue

	if t != nil && ctx != nil {
		target, disp = h.classify(t, info, ctx, pc)
		if disp == dispHandled {
			return Handled
		}
	}

	if target == 0 && disp == dispContinue && t != nil && ctx != nil &&
		sig == unix.SIGBUS &&
		(t.State() == vmthread.StateInRuntime || t.State() == vmthread.StateInNative) &&
		t.DoingUnsafeAccess() {
		// Speculative access from runtime or native code, declared via
		// the unsafe-access flag rather than code-cache metadata.
		target = h.Conts.UnsafeAccessContinuation(t, pc+arch.InstructionSize)
	}

	// Optimized field accessors may fault transiently while the collector
	// moves the referent. Applies in any thread state.
	if target == 0 && disp == dispContinue && ctx != nil &&
		(sig == unix.SIGSEGV || sig == unix.SIGBUS) && h.Accessors != nil {
		if slow, ok := h.Accessors.FindSlowCasePC(pc); ok {
			target = slow
		}
	}

	// Writes to the memory-serialization page block until the runtime
	// restores it, then retry. Checked only after the stack and code
	// dispatch declined the fault.
	if target == 0 && disp == dispContinue && sig == unix.SIGSEGV &&
		t != nil && ctx != nil && h.Serial != nil && h.Serial.Contains(info.Addr) {
		h.Serial.Block()
		return Handled
	}

	if target != 0 {
		rec.Outcome = Redirected
		rec.Target = target
		if t != nil {
			t.SetSavedExceptionPC(pc)
		}
		ctx.SetPC(target)
		if h.Opts.TraceTraps {
			traceRedirect(sig, pc, target)
		}
		return Redirected
	}

	// A displaced handler gets a crack at everything that reaches this
	// point, red-zone breaches included.
	if h.Chain.Offer(sig, info, ctx) {
		return Handled
	}

	if !abortUnrecognized {
		return Unhandled
	}

	rec.Outcome = Unhandled
	if h.Reporter != nil {
		h.Reporter.ReportAndDie(t, &rec, info, ctx)
	}
	return Unhandled
}

// classify runs the thread-aware portion of the policy.
//
//go:nosplit
func (h *Handler) classify(t *vmthread.Thread, info *Info, ctx arch.Context, pc uintptr) (uintptr, disposition) {
	sig := info.Signo
	addr := info.Addr

	if (sig == unix.SIGSEGV || sig == unix.SIGBUS) && h.onStackOrGap(t, addr) {
		if target, disp := h.handleStackFault(t, ctx, pc, addr); disp != dispContinue || target != 0 {
			return target, disp
		}
	}

	if t.State() != vmthread.StateInManaged {
		return 0, dispContinue
	}

	switch {
	case (sig == unix.SIGSEGV || sig == unix.SIGBUS) && h.Stubs.IsPollAddress(addr):
		return h.Stubs.PollStub(pc), dispContinue

	case sig == unix.SIGILL && h.atNotEntrantMarker(pc):
		// The method was made not-entrant under this caller's feet; the
		// resolution stub re-dispatches the call.
		return h.Stubs.WrongMethodStub(), dispContinue

	case sig == unix.SIGFPE && (info.Code == CodeIntDivZero || info.Code == CodeFltDivZero):
		return h.Conts.ContinuationFor(t, pc, code.ImplicitDivideByZero), dispContinue

	case (sig == unix.SIGSEGV || sig == unix.SIGBUS) && h.unsafeAccessAt(pc, addr):
		return h.Conts.UnsafeAccessContinuation(t, pc+arch.InstructionSize), dispContinue

	case (sig == unix.SIGSEGV || sig == unix.SIGBUS) && addr < h.Opts.pageSize():
		// Dereference through the protected low page: the implicit
		// null check compiled and interpreted code rely on.
		if h.managedOrInterpreter(pc) {
			return h.Conts.ContinuationFor(t, pc, code.ImplicitNull), dispContinue
		}
	}
	return 0, dispContinue
}

// handleStackFault resolves a memory fault whose address lies on the
// faulting thread's own stack, or in the configured gap band below it.
//
//go:nosplit
func (h *Handler) handleStackFault(t *vmthread.Thread, ctx arch.Context, pc, addr uintptr) (uintptr, disposition) {
	inGap := !t.OnLocalStack(addr)

	if !inGap && t.InStackRedZone(addr) {
		// Past every recoverable margin. Disarm the red guard so the
		// report itself cannot re-fault, announce, and die.
		t.DisableStackRedZone()
		unix.Write(2, redZoneMsg)
		return 0, dispFatal
	}

	if !inGap && t.InStackReservedZone(addr) && t.State() == vmthread.StateInManaged {
		if banging, ok := h.Frames.AtBangingPoint(t, ctx); ok {
			if activation, ok := h.Reserved.FindAnnotatedActivation(t, banging); ok {
				// An annotated method is on the stack: let it borrow
				// the reserved margin and retry the access.
				t.DisableStackReservedZone()
				if activation.Kind == frame.Interpreted {
					t.SetReservedStackActivation(activation.InterpreterInitialSP())
				} else {
					t.SetReservedStackActivation(activation.SP)
				}
				return 0, dispHandled
			}
		}
	}

	if inGap || t.InStackYellowReservedZone(addr) {
		t.DisableStackYellowReservedZone()
		if t.State() == vmthread.StateInManaged {
			if target := h.Conts.ContinuationFor(t, pc, code.ImplicitStackOverflow); target != 0 {
				return target, dispContinue
			}
			// Managed state with no overflow continuation for this
			// pc. The guard is already disarmed so the report
			// cannot re-fault.
			return 0, dispFatal
		}
		// Runtime or native code banged the guard. Disarming it is
		// enough; the faulting access retries and succeeds.
		return 0, dispHandled
	}

	// On-stack fault outside every guard zone: not a stack overflow.
	return 0, dispContinue
}

// onStackOrGap reports whether addr is on t's stack, or in the gap band
// below it when the workaround is enabled.
//
//go:nosplit
func (h *Handler) onStackOrGap(t *vmthread.Thread, addr uintptr) bool {
	if t.OnLocalStack(addr) {
		return true
	}
	if !h.Opts.StackGapWorkaround {
		return false
	}
	gap := h.Opts.StackGapPages * h.Opts.pageSize()
	return gap != 0 && addr < t.Stack.Base && addr >= t.Stack.Base-gap
}

//go:nosplit
func (h *Handler) atNotEntrantMarker(pc uintptr) bool {
	if h.Mem == nil {
		return false
	}
	word, ok := h.Mem.ReadUint32(pc)
	return ok && word == notEntrantMarker
}

// unsafeAccessAt reports whether pc lies in a managed method annotated for
// speculative access and addr is outside the implicit-null page, so the
// fault is attributed to the speculation rather than a null dereference.
//
//go:nosplit
func (h *Handler) unsafeAccessAt(pc, addr uintptr) bool {
	if addr < h.Opts.pageSize() {
		return false
	}
	cb := h.Cache.FindCode(pc)
	return cb != nil && cb.IsManaged() && cb.HasUnsafeAccess()
}

//go:nosplit
func (h *Handler) managedOrInterpreter(pc uintptr) bool {
	if h.Regions != nil && h.Regions.InInterpreter(pc) {
		return true
	}
	cb := h.Cache.FindCode(pc)
	return cb != nil && cb.IsManaged()
}

var redZoneMsg = []byte("fatal: unhandled stack overflow in red zone\n")
