// Copyright (C) 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the replay and capture settings loaded from YAML.
package config

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/barrier"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is the cause of every validation failure.
const ErrInvalid = fault.Const("Invalid configuration")

// Config is the full configuration.
type Config struct {
	Replay  Replay  `yaml:"replay"`
	Capture Capture `yaml:"capture"`
	Log     Log     `yaml:"log"`
}

// Replay configures the replay engine.
type Replay struct {
	// BarrierPolicy is one of lenient, strict or silent.
	BarrierPolicy string `yaml:"barrierPolicy"`
	// AddressPolicy is one of strict or permissive.
	AddressPolicy string `yaml:"addressPolicy"`
	// ResubmitAliases submits resubmitted lists again when no hook is set.
	ResubmitAliases bool `yaml:"resubmitAliases"`
	// PartialCache is the maximum number of cut lists kept.
	PartialCache int `yaml:"partialCache"`
}

// Capture configures the recorder.
type Capture struct {
	Callstacks bool `yaml:"callstacks"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Replay: Replay{
			BarrierPolicy:   barrier.Lenient.String(),
			AddressPolicy:   memory.Permissive.String(),
			ResubmitAliases: true,
			PartialCache:    64,
		},
		Log: Log{Level: "info"},
	}
}

// Barriers returns the parsed barrier policy, lenient if invalid.
func (r Replay) Barriers() barrier.Policy {
	p, _ := barrier.ParsePolicy(r.BarrierPolicy)
	return p
}

// Addresses returns the parsed address policy, strict if invalid.
func (r Replay) Addresses() memory.Policy {
	p, _ := memory.ParsePolicy(r.AddressPolicy)
	return p
}

// Severity returns the parsed log level, Info if invalid.
func (l Log) Severity() log.Severity {
	s, err := log.ParseSeverity(l.Level)
	if err != nil {
		return log.Info
	}
	return s
}

// Validate returns every problem found in c.
func (c Config) Validate() error {
	var errs fault.List
	if _, err := barrier.ParsePolicy(c.Replay.BarrierPolicy); err != nil {
		errs.Collect(errors.Wrap(ErrInvalid, err.Error()))
	}
	if _, err := memory.ParsePolicy(c.Replay.AddressPolicy); err != nil {
		errs.Collect(errors.Wrap(ErrInvalid, err.Error()))
	}
	if c.Replay.PartialCache < 1 {
		errs.Collect(errors.Wrapf(ErrInvalid, "partialCache must be positive, got %d", c.Replay.PartialCache))
	}
	if _, err := log.ParseSeverity(c.Log.Level); err != nil {
		errs.Collect(errors.Wrap(ErrInvalid, err.Error()))
	}
	return errs.Err()
}

// Parse reads a configuration from r. Missing fields keep their defaults.
func Parse(ctx context.Context, r io.Reader) (Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
		return Config{}, log.Err(ctx, err, "Parsing configuration")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the configuration file at path.
func Load(ctx context.Context, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, log.Errf(ctx, err, "Loading configuration %s", path)
	}
	return Parse(ctx, bytes.NewReader(data))
}

// Write writes c as YAML to w.
func Write(c Config, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
