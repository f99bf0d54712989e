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

package main

import (
	"context"
	"flag"
	"os"

	"github.com/baldurk/renderdoc-sub019/core/app"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
)

type demoVerb struct {
	ConfigFlags
	Out        string `help:"the capture file to write"`
	Callstacks bool   `help:"record the CPU callstack of every command"`
}

func init() {
	app.AddVerb(&app.Verb{
		Name:      "demo",
		ShortHelp: "Records the built-in demo frame to a capture file",
		Action:    &demoVerb{Out: "demo.gpucap"},
	})
}

func (verb *demoVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	ctx, cfg, err := loadConfig(ctx, verb.ConfigFlags)
	if err != nil {
		return err
	}
	c, err := capture.RecordDemo(ctx, verb.Callstacks || cfg.Capture.Callstacks)
	if err != nil {
		return log.Err(ctx, err, "Recording demo")
	}
	f, err := os.Create(verb.Out)
	if err != nil {
		return log.Errf(ctx, err, "Creating %v", verb.Out)
	}
	if err := capture.Write(ctx, c, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return log.Errf(ctx, err, "Closing %v", verb.Out)
	}
	log.I(ctx, "Wrote %v to %v", c, verb.Out)
	return nil
}
