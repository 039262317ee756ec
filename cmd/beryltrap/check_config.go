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

	"github.com/google/subcommands"

	"github.com/berylvm/beryl/pkg/config"
)

// checkConfig implements subcommands.Command for the "check-config" command.
type checkConfig struct{}

// Name implements subcommands.Command.Name.
func (*checkConfig) Name() string {
	return "check-config"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*checkConfig) Synopsis() string {
	return "validate a fault-layer config file and print the effective settings"
}

// Usage implements subcommands.Command.Usage.
func (*checkConfig) Usage() string {
	return `check-config <path>

Loads the TOML config at <path>, applies defaults, validates it, and prints
the effective settings.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*checkConfig) SetFlags(f *flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*checkConfig) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	c, err := config.Load(f.Arg(0))
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("trace-traps          = %v\n", c.TraceTraps)
	fmt.Printf("stack-gap-workaround = %v\n", c.StackGapWorkaround)
	fmt.Printf("stack-gap-pages      = %d\n", c.StackGapPages)
	fmt.Printf("yellow-pages         = %d\n", c.YellowPages)
	fmt.Printf("red-pages            = %d\n", c.RedPages)
	fmt.Printf("reserved-pages       = %d\n", c.ReservedPages)
	fmt.Printf("log                  = %v\n", c.Log)
	fmt.Printf("log-output           = %q\n", c.LogOutput)
	return subcommands.ExitSuccess
}
