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
	"time"

	"github.com/google/subcommands"

	"github.com/berylvm/beryl/pkg/cpustat"
)

// cpuLoad implements subcommands.Command for the "cpu-load" command.
type cpuLoad struct {
	intervalSec int
}

// Name implements subcommands.Command.Name.
func (*cpuLoad) Name() string {
	return "cpu-load"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*cpuLoad) Synopsis() string {
	return "sample system and process CPU load from the kernel tick counters"
}

// Usage implements subcommands.Command.Usage.
func (*cpuLoad) Usage() string {
	return `cpu-load

Takes two snapshots of the kernel CPU tick counters, one sampling interval
apart, and prints the loads computed from the delta.

OPTIONS:
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *cpuLoad) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.intervalSec, "interval", 1, "sampling interval, in seconds")
}

// Execute implements subcommands.Command.Execute.
func (c *cpuLoad) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	tr := cpustat.NewTracker(cpustat.HostSource{})

	// First calls establish the baselines.
	tr.SystemLoad()
	tr.ProcessLoad()
	time.Sleep(time.Duration(c.intervalSec) * time.Second)

	printLoad("system ", tr.SystemLoad())
	printLoad("process", tr.ProcessLoad())
	return subcommands.ExitSuccess
}

func printLoad(name string, v float64) {
	if v == cpustat.Unavailable {
		fmt.Printf("%s load: unavailable\n", name)
		return
	}
	fmt.Printf("%s load: %.1f%%\n", name, v*100)
}
