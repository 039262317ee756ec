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

// Package config loads the fault-layer tunables from a TOML file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of the fault layer. The zero value is not
// usable; start from Default.
type Config struct {
	// TraceTraps emits a one-line stderr note for every redirected fault.
	TraceTraps bool `toml:"trace-traps"`

	// StackGapWorkaround enables treating faults in a band just below a
	// thread stack as stack overflow. Off by default; only kernels that
	// insert an unreported gap under grown stacks need it.
	StackGapWorkaround bool `toml:"stack-gap-workaround"`

	// StackGapPages is the width of that band, in pages.
	StackGapPages uint `toml:"stack-gap-pages"`

	// Guard zone geometry, in pages.
	YellowPages   uint `toml:"yellow-pages"`
	RedPages      uint `toml:"red-pages"`
	ReservedPages uint `toml:"reserved-pages"`

	// Log enables logging; LogOutput selects the layers, comma separated.
	Log       bool   `toml:"log"`
	LogOutput string `toml:"log-output"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		StackGapPages: 1,
		YellowPages:   2,
		RedPages:      1,
		ReservedPages: 1,
	}
}

// Load reads path into the default configuration. Keys absent from the file
// keep their defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %s", path, undec[0])
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks internal consistency.
func (c Config) Validate() error {
	if c.YellowPages == 0 {
		return fmt.Errorf("yellow-pages must be at least 1")
	}
	if c.RedPages == 0 {
		return fmt.Errorf("red-pages must be at least 1")
	}
	if c.StackGapWorkaround && c.StackGapPages == 0 {
		return fmt.Errorf("stack-gap-workaround requires stack-gap-pages >= 1")
	}
	return nil
}
