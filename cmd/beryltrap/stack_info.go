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

package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"

	"github.com/google/subcommands"

	"github.com/berylvm/beryl/pkg/guard"
)

// stackInfo implements subcommands.Command for the "stack" command.
type stackInfo struct{}

// Name implements subcommands.Command.Name.
func (*stackInfo) Name() string {
	return "stack"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*stackInfo) Synopsis() string {
	return "print the current thread's stack bounds and guard-zone geometry"
}

// Usage implements subcommands.Command.Usage.
func (*stackInfo) Usage() string {
	return `stack

Probes the calling thread's stack the same way the runtime does at thread
registration and prints the resulting region and default guard zones.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*stackInfo) SetFlags(f *flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*stackInfo) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	// The probe's result only describes the thread it ran on.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r, err := guard.CurrentRegion()
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}
	z := guard.DefaultZones

	fmt.Printf("stack    = [0x%x, 0x%x) size 0x%x\n", r.Base, r.Top(), r.Size)
	fmt.Printf("yellow   = [0x%x, 0x%x)\n", r.Base, r.Base+z.Yellow)
	fmt.Printf("red      = [0x%x, 0x%x)\n", r.Base+z.Yellow, r.Base+z.Yellow+z.Red)
	fmt.Printf("reserved = [0x%x, 0x%x)\n", r.Base+z.Yellow+z.Red, r.Base+z.Yellow+z.Red+z.Reserved)
	return subcommands.ExitSuccess
}
