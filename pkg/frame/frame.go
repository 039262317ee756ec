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

// Package frame reconstructs logical call frames from saved register state.
package frame

import "github.com/berylvm/beryl/pkg/arch"

// Kind tags how a frame's code is executed.
type Kind int

const (
	// Undetermined is the zero Kind: the frame could not be classified.
	Undetermined Kind = iota

	// Interpreted is a frame of the bytecode interpreter.
	Interpreted

	// Compiled is a frame of a compiled managed method.
	Compiled

	// Native is a frame of runtime or library code.
	Native
)

// Frame is a logical call-frame descriptor. The zero Frame is the defined
// sentinel produced for a nil context; it is not an error.
type Frame struct {
	SP   uintptr
	FP   uintptr
	PC   uintptr
	Kind Kind
}

// IsZero reports whether f is the sentinel frame.
func (f Frame) IsZero() bool {
	return f == Frame{}
}

// Managed reports whether the frame belongs to managed code (interpreted or
// compiled).
func (f Frame) Managed() bool {
	return f.Kind == Interpreted || f.Kind == Compiled
}

// interpreterInitialSPWords is the fixed-header distance, in words below the
// frame pointer, from an interpreted frame's fp to its initial
// expression-stack pointer.
const interpreterInitialSPWords = 9

// InterpreterInitialSP returns the initial expression-stack pointer of an
// interpreted frame. Used when recording a reserved-stack activation.
func (f Frame) InterpreterInitialSP() uintptr {
	return f.FP - interpreterInitialSPWords*8
}

// FromContext builds a frame descriptor from the saved registers. Pure; a
// nil context produces the zero sentinel frame. The Kind is left
// Undetermined since classification needs the code cache; see Walker.
func FromContext(ctx arch.Context) Frame {
	if ctx == nil {
		return Frame{}
	}
	return Frame{
		SP: ctx.SP(),
		FP: ctx.FP(),
		PC: ctx.PC(),
	}
}
