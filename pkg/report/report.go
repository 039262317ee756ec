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

// Package report produces the fatal crash report for faults the classifier
// could not resolve, then terminates the process.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/berylvm/beryl/pkg/arch"
	"github.com/berylvm/beryl/pkg/dump"
	"github.com/berylvm/beryl/pkg/logflags"
	"github.com/berylvm/beryl/pkg/safeprobe"
	"github.com/berylvm/beryl/pkg/sigchain"
	"github.com/berylvm/beryl/pkg/trap"
	"github.com/berylvm/beryl/pkg/vmthread"
)

// exitCode is what the process exits with after an unrecognized fault, the
// conventional code for death by SIGABRT.
const exitCode = 134

// stackWindowWords is how much of the stack the report shows.
const stackWindowWords = 8

// Reporter implements trap.Reporter. It runs on the faulting thread, after
// classification has given up, so unlike the classifier it may allocate and
// format freely.
type Reporter struct {
	// Out receives the report. Defaults to stderr.
	Out io.Writer

	// Mem reads crash-time memory. Defaults to the host reader.
	Mem safeprobe.Reader

	// Locate annotates register values in the report. May be nil.
	Locate dump.Locator

	// exit is overridable for tests.
	exit func(int)
}

// New returns a Reporter writing to stderr through the fault-tolerant host
// reader.
func New() *Reporter {
	return &Reporter{
		Out:  os.Stderr,
		Mem:  safeprobe.HostReader{},
		exit: os.Exit,
	}
}

// ReportAndDie writes the crash report and terminates the process. It first
// unblocks the delivered signal: the kernel blocked it for the duration of
// delivery, and a second fault while reporting must not wedge the process
// silently.
func (r *Reporter) ReportAndDie(t *vmthread.Thread, rec *trap.Record, info *trap.Info, ctx arch.Context) {
	if err := sigchain.UnblockSignal(rec.Sig); err != nil {
		logflags.ReportLogger().WithError(err).Warn("could not unblock fault signal")
	}
	if t != nil {
		// The report must not die to a guard-zone fault of its own.
		t.DisableStackRedZone()
		t.DisableStackYellowReservedZone()
	}

	out := r.Out
	if out == nil {
		out = os.Stderr
	}
	mem := r.Mem
	if mem == nil {
		mem = safeprobe.HostReader{}
	}

	fmt.Fprintf(out, "# A fatal error has been detected:\n")
	fmt.Fprintf(out, "#  signal=%d, addr=0x%x, pc=0x%x\n", rec.Sig, rec.Addr, rec.PC)
	if t != nil {
		fmt.Fprintf(out, "#  stack=[0x%x,0x%x)\n", t.Stack.Base, t.Stack.Top())
	}
	fmt.Fprintln(out, "#")

	if ctx != nil {
		dump.Registers(out, ctx)
		dump.RegisterInfo(out, ctx, r.Locate)
		dump.Stack(out, mem, ctx.SP(), stackWindowWords)
		// Last: a wild pc truncates nothing else.
		dump.Instructions(out, mem, ctx.PC())
	}

	exit := r.exit
	if exit == nil {
		exit = os.Exit
	}
	exit(exitCode)
}
