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

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mapped reports whether the page containing addr is mapped. msync with
// MS_ASYNC touches no page content and returns ENOMEM for unmapped ranges,
// and unlike mincore it is available on every supported kernel.
func mapped(addr uintptr) bool {
	page := addr &^ uintptr(pageSize-1)
	b := unsafe.Slice((*byte)(unsafe.Pointer(page)), pageSize)
	return unix.Msync(b, unix.MS_ASYNC) == nil
}
