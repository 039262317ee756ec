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

//go:build darwin

package vmthread

import "golang.org/x/sys/unix"

// sysThreadSelfID is Darwin's thread_selfid syscall number.
const sysThreadSelfID = 372

// threadID returns the calling OS thread's id.
//
//go:nosplit
func threadID() uint64 {
	id, _, errno := unix.RawSyscall(sysThreadSelfID, 0, 0, 0)
	if errno != 0 {
		return 0
	}
	return uint64(id)
}
