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

//go:build freebsd

package vmthread

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// sysThrSelf is FreeBSD's thr_self syscall number.
const sysThrSelf = 432

// threadID returns the calling OS thread's id.
//
//go:nosplit
func threadID() uint64 {
	var id int64
	_, _, errno := unix.RawSyscall(sysThrSelf, uintptr(unsafe.Pointer(&id)), 0, 0)
	if errno != 0 {
		return 0
	}
	return uint64(id)
}
