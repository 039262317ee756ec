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

package vmthread

import (
	"sync/atomic"
	"time"
)

// SerializationPage is the memory page used by the lock-free cross-thread
// serialization protocol. The protocol owner write-protects the page to force
// every running thread through a fault, then restores write access
// immediately after. A thread that faults on the page only has to wait for
// the restore and retry its write from scratch.
type SerializationPage struct {
	addr     uintptr
	size     uintptr
	writable atomic.Bool
}

// NewSerializationPage describes the page at [addr, addr+size), initially
// writable.
func NewSerializationPage(addr, size uintptr) *SerializationPage {
	p := &SerializationPage{addr: addr, size: size}
	p.writable.Store(true)
	return p
}

// Contains reports whether addr falls within the page.
//
//go:nosplit
func (p *SerializationPage) Contains(addr uintptr) bool {
	return addr >= p.addr && addr < p.addr+p.size
}

// SetWritable is called by the protocol owner around the protect/unprotect
// pair.
func (p *SerializationPage) SetWritable(v bool) {
	p.writable.Store(v)
}

// Block waits until the page's write access has been restored. It polls an
// atomic flag with a short sleep in between, the only form of waiting usable
// from a signal context. The wait is bounded by the protocol owner's restore,
// not by a timeout.
func (p *SerializationPage) Block() {
	for !p.writable.Load() {
		time.Sleep(time.Millisecond)
	}
}
