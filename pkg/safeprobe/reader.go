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

package safeprobe

import "unsafe"

// Reader reads memory that may be unmapped or corrupted. Implementations
// report failure instead of faulting; partial reads are acceptable.
type Reader interface {
	// ReadWord reads the pointer-sized word at addr.
	ReadWord(addr uintptr) (uintptr, bool)

	// ReadUint32 reads the 32-bit word at addr. Used for instruction
	// inspection.
	ReadUint32(addr uintptr) (uint32, bool)
}

// HostReader reads the current process's memory, gating every dereference on
// a mapping check so unmapped targets fail instead of re-faulting. Best
// effort: a page can still be unmapped between the check and the read, which
// is tolerable in the fatal-report paths this serves.
type HostReader struct{}

const pageSize = 0x1000

// ReadWord implements Reader.ReadWord.
func (HostReader) ReadWord(addr uintptr) (uintptr, bool) {
	if addr == 0 || addr%unsafe.Sizeof(uintptr(0)) != 0 {
		return 0, false
	}
	if !mapped(addr) {
		return 0, false
	}
	return *(*uintptr)(unsafe.Pointer(addr)), true
}

// ReadUint32 implements Reader.ReadUint32.
func (HostReader) ReadUint32(addr uintptr) (uint32, bool) {
	if addr == 0 || addr%4 != 0 {
		return 0, false
	}
	if !mapped(addr) {
		return 0, false
	}
	return *(*uint32)(unsafe.Pointer(addr)), true
}
