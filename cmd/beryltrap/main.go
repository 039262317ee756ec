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

// Binary beryltrap inspects a host's fault-layer configuration: it
// validates config files, reports the current thread's stack and guard
// geometry, and samples CPU load through the same counters the runtime
// uses.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/berylvm/beryl/pkg/logflags"
)

var (
	logFlag   = flag.Bool("log", false, "enable logging")
	logOutput = flag.String("log-output", "", "comma separated list of layers to log")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(checkConfig), "")
	subcommands.Register(new(stackInfo), "")
	subcommands.Register(new(cpuLoad), "")

	flag.Parse()

	if err := logflags.Setup(*logFlag, *logOutput); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
