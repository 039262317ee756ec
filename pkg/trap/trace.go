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
)

// traceRedirect writes a one-line redirect note to stderr. It formats into a
// stack buffer and uses a raw write, so it is callable from the signal
// handler.
//
//go:nosplit
func traceRedirect(sig unix.Signal, pc, target uintptr) {
	var buf [96]byte
	n := copy(buf[:], "trap: sig=")
	n += putDec(buf[n:], uint64(sig))
	n += copy(buf[n:], " pc=0x")
	n += putHex(buf[n:], uint64(pc))
	n += copy(buf[n:], " -> 0x")
	n += putHex(buf[n:], uint64(target))
	buf[n] = '\n'
	unix.Write(2, buf[:n+1])
}

const hexDigits = "0123456789abcdef"

//go:nosplit
func putHex(b []byte, v uint64) int {
	var tmp [16]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = hexDigits[v&0xf]
		v >>= 4
		if v == 0 {
			break
		}
	}
	return copy(b, tmp[i:])
}

//go:nosplit
func putDec(b []byte, v uint64) int {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	return copy(b, tmp[i:])
}
