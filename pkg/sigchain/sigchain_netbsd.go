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

//go:build netbsd

package sigchain

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// si_code values for the signals the classifier cares about.
const (
	fpeIntDiv = 1 // FPE_INTDIV
	fpeFltDiv = 3 // FPE_FLTDIV
	busObjErr = 3 // BUS_OBJERR
)

const (
	sysSigaction   = 340 // SYS___sigaction_sigtramp
	sysSigprocmask = 293 // SYS___sigprocmask14

	sigUnblock = 2 // SIG_UNBLOCK

	saSiginfo = 0x0040 // SA_SIGINFO
	saOnstack = 0x0001 // SA_ONSTACK
	saRestart = 0x0002 // SA_RESTART
)

type sigset [4]uint32

type sigaction struct {
	Handler uintptr
	Mask    sigset
	Flags   int32
}

// siginfo mirrors the leading fields of struct _ksiginfo.
type siginfo struct {
	Signo int32
	Code  int32
	Errno int32
	_     int32 // pad to eight-byte alignment for the union
	Addr  uintptr
}

// DecodeSiginfo extracts the classification-relevant fields from a raw
// siginfo pointer delivered to an SA_SIGINFO handler.
//
//go:nosplit
func DecodeSiginfo(info unsafe.Pointer) (siCode int32, addr uintptr) {
	si := (*siginfo)(info)
	return si.Code, si.Addr
}

func replaceSignalHandler(sig unix.Signal, handler uintptr, previous *uintptr) error {
	var sa sigaction
	if _, _, e := unix.RawSyscall6(sysSigaction, uintptr(sig), 0, uintptr(unsafe.Pointer(&sa)), 0, 0, 0); e != 0 {
		return e
	}
	if sa.Handler == 0 {
		return fmt.Errorf("previous handler for signal %x isn't set", sig)
	}
	*previous = sa.Handler

	sa.Handler = handler
	sa.Flags |= saSiginfo | saOnstack | saRestart
	// Version 0 keeps the kernel's builtin signal trampoline.
	if _, _, e := unix.RawSyscall6(sysSigaction, uintptr(sig), uintptr(unsafe.Pointer(&sa)), 0, 0, 0, 0); e != 0 {
		return e
	}
	return nil
}

func unblockSignal(sig unix.Signal) error {
	var set sigset
	set[(sig-1)/32] = 1 << (uint32(sig-1) % 32)
	if _, _, e := unix.RawSyscall(sysSigprocmask, sigUnblock, uintptr(unsafe.Pointer(&set)), 0); e != 0 {
		return e
	}
	return nil
}
