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
	"testing"
	"time"

	"github.com/berylvm/beryl/pkg/guard"
)

func newTestThread() *Thread {
	return New(
		guard.Region{Base: 0x1000, Size: 0x1000},
		guard.Zones{Yellow: 0x100, Red: 0x100, Reserved: 0x100},
	)
}

func TestGuardZoneFlags(t *testing.T) {
	th := newTestThread()

	if !th.InStackYellowReservedZone(0x1050) {
		t.Fatalf("InStackYellowReservedZone(0x1050) = false with guard armed")
	}
	th.DisableStackYellowReservedZone()
	if th.InStackYellowReservedZone(0x1050) {
		t.Errorf("InStackYellowReservedZone(0x1050) = true after disable")
	}
	// The red guard is independent.
	if !th.InStackRedZone(0x1150) {
		t.Errorf("InStackRedZone(0x1150) = false, red guard should still be armed")
	}
	th.DisableStackRedZone()
	if th.InStackRedZone(0x1150) {
		t.Errorf("InStackRedZone(0x1150) = true after disable")
	}
}

func TestReservedZoneIndependent(t *testing.T) {
	th := newTestThread()
	if !th.InStackReservedZone(0x1250) {
		t.Fatalf("InStackReservedZone(0x1250) = false with guard armed")
	}
	th.DisableStackReservedZone()
	if th.InStackReservedZone(0x1250) {
		t.Errorf("InStackReservedZone(0x1250) = true after disable")
	}
	// Yellow+reserved tracking is a separate flag.
	if !th.InStackYellowReservedZone(0x1250) {
		t.Errorf("InStackYellowReservedZone(0x1250) = false, combined guard should still be armed")
	}
}

func TestOutsideStackNeverInZone(t *testing.T) {
	th := newTestThread()
	for _, addr := range []uintptr{0x0fff, 0x2000, 0x8000, 0} {
		if th.OnLocalStack(addr) {
			t.Errorf("OnLocalStack(%#x) = true", addr)
		}
		if th.InStackYellowReservedZone(addr) || th.InStackRedZone(addr) {
			t.Errorf("guard zone matched %#x outside stack bounds", addr)
		}
	}
}

func TestRegistry(t *testing.T) {
	th := newTestThread()
	if err := Register(1234, th); err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer Unregister(1234)

	if got := Lookup(1234); got != th {
		t.Errorf("Lookup(1234) = %p, want %p", got, th)
	}
	if got := Lookup(5678); got != nil {
		t.Errorf("Lookup(5678) = %p, want nil", got)
	}
	Unregister(1234)
	if got := Lookup(1234); got != nil {
		t.Errorf("Lookup(1234) after Unregister = %p, want nil", got)
	}
}

func TestSerializationPageBlock(t *testing.T) {
	p := NewSerializationPage(0x4000, 0x1000)
	if !p.Contains(0x4000) || p.Contains(0x5000) {
		t.Fatalf("Contains bounds wrong")
	}

	p.SetWritable(false)
	released := make(chan struct{})
	go func() {
		p.Block()
		close(released)
	}()

	select {
	case <-released:
		t.Fatalf("Block returned while page still protected")
	case <-time.After(10 * time.Millisecond):
	}

	p.SetWritable(true)
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("Block did not return after page restored")
	}
}
