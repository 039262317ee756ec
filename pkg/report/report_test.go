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

package report

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/berylvm/beryl/pkg/arch"
	"github.com/berylvm/beryl/pkg/guard"
	"github.com/berylvm/beryl/pkg/trap"
	"github.com/berylvm/beryl/pkg/vmthread"
)

type fakeMem map[uintptr]uint64

func (m fakeMem) ReadWord(addr uintptr) (uintptr, bool) {
	v, ok := m[addr]
	return uintptr(v), ok
}

func (m fakeMem) ReadUint32(addr uintptr) (uint32, bool) {
	v, ok := m[addr]
	return uint32(v), ok
}

func TestReportAndDie(t *testing.T) {
	var buf bytes.Buffer
	var code int
	r := &Reporter{
		Out:  &buf,
		Mem:  fakeMem{},
		exit: func(c int) { code = c },
	}

	th := vmthread.New(guard.Region{Base: 0x1000, Size: 0x1000}, guard.DefaultZones)
	ctx := &arch.Registers{Sp: 0x1f00, Pc: 0x4000}
	rec := &trap.Record{Sig: unix.SIGSEGV, Addr: 0x1110, PC: 0x4000}

	r.ReportAndDie(th, rec, &trap.Info{Signo: unix.SIGSEGV, Addr: 0x1110}, ctx)

	if code != 134 {
		t.Errorf("exit code = %d, want 134", code)
	}
	if th.StackRedZoneEnabled() || th.StackYellowReservedZoneEnabled() {
		t.Error("guards still armed during report")
	}

	out := buf.String()
	for _, want := range []string{
		"A fatal error has been detected",
		"signal=11",
		"addr=0x1110",
		"stack=[0x1000,0x2000)",
		"Registers:",
		"Top of Stack:",
		"Instructions:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	// The register dump must precede the instruction window so a wild pc
	// cannot truncate it.
	if strings.Index(out, "Registers:") > strings.Index(out, "Instructions:") {
		t.Error("instruction window printed before registers")
	}
}

func TestReportNilThreadAndContext(t *testing.T) {
	var buf bytes.Buffer
	exited := false
	r := &Reporter{
		Out:  &buf,
		Mem:  fakeMem{},
		exit: func(int) { exited = true },
	}

	rec := &trap.Record{Sig: unix.SIGILL, PC: 0x4000}
	r.ReportAndDie(nil, rec, &trap.Info{Signo: unix.SIGILL}, nil)

	if !exited {
		t.Fatal("reporter did not exit")
	}
	if !strings.Contains(buf.String(), "signal=4") {
		t.Errorf("report missing signal line:\n%s", buf.String())
	}
}
