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

//go:build (darwin || freebsd || netbsd || openbsd) && arm64

package sigchain

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/berylvm/beryl/pkg/arch"
	"github.com/berylvm/beryl/pkg/trap"
)

// Dispatch adapts one raw SA_SIGINFO delivery to the classifier: it decodes
// the siginfo, translates the sub-code, wraps the ucontext, and hands the
// fault to h on the interrupted thread. The signal entry trampoline calls
// this and acts on the returned outcome.
//
//go:nosplit
func Dispatch(h *trap.Handler, sig unix.Signal, info, uc unsafe.Pointer, abortUnrecognized bool) trap.Outcome {
	ti := trap.Info{Signo: sig}
	if info != nil {
		siCode, addr := DecodeSiginfo(info)
		ti.Code = FaultCodeFor(sig, siCode)
		ti.Addr = addr
	}
	var ctx arch.Context
	if uc != nil {
		ctx = arch.FromUcontext(uc)
	}
	return h.Handle(nil, &ti, ctx, abortUnrecognized)
}
