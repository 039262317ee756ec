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

package trap

import (
	"golang.org/x/sys/unix"

	"github.com/berylvm/beryl/pkg/arch"
)

// ChainedHandler is a previously installed application signal handler that
// the runtime displaced when it claimed a signal. It is offered the fault
// and reports whether it consumed it.
type ChainedHandler func(sig unix.Signal, info *Info, ctx arch.Context) bool

// Chain holds the displaced handlers, one slot per signal number. It is
// populated during handler installation, before any signal can be
// delivered, and read-only afterwards; lookups on the signal path take no
// locks.
type Chain struct {
	handlers [maxSignal]ChainedHandler
}

const maxSignal = 65

// Set records the displaced handler for sig. It must only be called during
// installation, before signal delivery begins.
func (c *Chain) Set(sig unix.Signal, h ChainedHandler) {
	if sig <= 0 || int(sig) >= maxSignal {
		return
	}
	c.handlers[sig] = h
}

// Offer presents the fault to the displaced handler for sig, if any, and
// reports whether it consumed the fault. A nil Chain has no handlers.
//
//go:nosplit
func (c *Chain) Offer(sig unix.Signal, info *Info, ctx arch.Context) bool {
	if c == nil || sig <= 0 || int(sig) >= maxSignal {
		return false
	}
	h := c.handlers[sig]
	if h == nil {
		return false
	}
	return h(sig, info, ctx)
}
