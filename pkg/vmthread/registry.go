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
	"fmt"
	"sync"
	"sync/atomic"
)

// maxThreads bounds the registry. Registration takes a lock; lookup is a
// bounded lock-free scan so it can run inside a signal handler.
const maxThreads = 4096

type slot struct {
	tid    atomic.Uint64
	thread atomic.Pointer[Thread]
}

var (
	registryMu sync.Mutex
	registry   [maxThreads]slot
)

// Register publishes t as the runtime thread for OS thread tid. It must be
// called from the thread itself, before the thread can take recognized
// faults.
func Register(tid uint64, t *Thread) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i := range registry {
		if registry[i].tid.Load() == 0 {
			// Publish the thread before the tid: a concurrent
			// lookup that sees the tid must see the thread too.
			registry[i].thread.Store(t)
			registry[i].tid.Store(tid)
			return nil
		}
	}
	return fmt.Errorf("thread registry full (%d threads)", maxThreads)
}

// Unregister removes the registration for tid.
func Unregister(tid uint64) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i := range registry {
		if registry[i].tid.Load() == tid {
			registry[i].tid.Store(0)
			registry[i].thread.Store(nil)
			return
		}
	}
}

// Lookup returns the thread registered for tid, or nil.
//
//go:nosplit
func Lookup(tid uint64) *Thread {
	for i := range registry {
		if registry[i].tid.Load() == tid {
			return registry[i].thread.Load()
		}
	}
	return nil
}

// Current returns the thread registered for the calling OS thread, or nil if
// the thread is not a recognized runtime thread. Safe to call during signal
// delivery.
//
//go:nosplit
func Current() *Thread {
	tid := threadID()
	if tid == 0 {
		return nil
	}
	return Lookup(tid)
}
