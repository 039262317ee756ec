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

//go:build darwin

package sigchain

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// si_code values for the signals the classifier cares about.
const (
	fpeIntDiv = 7 // FPE_INTDIV
	fpeFltDiv = 1 // FPE_FLTDIV
	busObjErr = 3 // BUS_OBJERR
)

// siginfo mirrors the leading fields of struct __siginfo.
type siginfo struct {
	Signo int32
	Errno int32
	Code  int32
	Pid   int32
	Uid   uint32
	_     int32
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

// Raw syscalls go through libc on Darwin, so a handler cannot be installed
// behind the Go runtime's back. Embedders on Darwin route faults in through
// the runtime's cgo signal forwarding instead.

func replaceSignalHandler(sig unix.Signal, handler uintptr, previous *uintptr) error {
	return errors.New("ReplaceSignalHandler not supported on Darwin")
}

func unblockSignal(sig unix.Signal) error {
	return errors.New("UnblockSignal not supported on Darwin")
}
