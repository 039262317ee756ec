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

//go:build darwin || freebsd || netbsd || openbsd

// Package sigchain installs the process-wide fault handler, remembers the
// handlers it displaced, and translates raw OS siginfo into the classifier's
// OS-neutral form.
//
// Installation bypasses the Go runtime's signal handling entirely: the
// handler is installed with a raw sigaction call, so it also receives faults
// raised on non-Go threads. The per-OS files hold the sigaction layouts,
// syscall numbers, and si_code numbering.
package sigchain

import (
	"golang.org/x/sys/unix"

	"github.com/berylvm/beryl/pkg/trap"
)

// FaultSignals are the hardware-fault signals the runtime claims, plus the
// benign write-side signals it swallows.
var FaultSignals = []unix.Signal{
	unix.SIGSEGV,
	unix.SIGBUS,
	unix.SIGILL,
	unix.SIGFPE,
	unix.SIGPIPE,
	unix.SIGXFSZ,
}

// ReplaceSignalHandler replaces the existing handler for sig with the
// function pointer at handler, saving the displaced handler in previous.
// This bypasses the Go runtime signal handlers and must only be used for
// low-level fault handlers where signal.Notify is not appropriate.
func ReplaceSignalHandler(sig unix.Signal, handler uintptr, previous *uintptr) error {
	return replaceSignalHandler(sig, handler, previous)
}

// InstallAll claims every fault signal for handler and returns the displaced
// handler pointers by signal. A partial failure leaves earlier signals
// claimed; the process cannot safely continue half-installed, so callers
// treat any error as fatal.
func InstallAll(handler uintptr) (map[unix.Signal]uintptr, error) {
	previous := make(map[unix.Signal]uintptr)
	for _, sig := range FaultSignals {
		var prev uintptr
		if err := replaceSignalHandler(sig, handler, &prev); err != nil {
			return nil, err
		}
		previous[sig] = prev
	}
	return previous, nil
}

// UnblockSignal removes sig from the current thread's signal mask. The
// kernel blocks a signal for the duration of its own delivery; the fatal
// path unblocks it so the report cannot be cut short by a second fault
// arriving as the first is being reported.
func UnblockSignal(sig unix.Signal) error {
	return unblockSignal(sig)
}

// FaultCodeFor translates the raw si_code accompanying sig into the
// classifier's OS-neutral numbering. Sub-codes with no classification
// significance map to CodeUnknown.
func FaultCodeFor(sig unix.Signal, siCode int32) trap.FaultCode {
	switch sig {
	case unix.SIGFPE:
		switch siCode {
		case fpeIntDiv:
			return trap.CodeIntDivZero
		case fpeFltDiv:
			return trap.CodeFltDivZero
		}
	case unix.SIGBUS:
		if siCode == busObjErr {
			return trap.CodeObjErr
		}
	}
	return trap.CodeUnknown
}
