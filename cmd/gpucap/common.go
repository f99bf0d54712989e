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
	"path/filepath"

	"github.com/baldurk/renderdoc-sub019/core/app"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
	"github.com/baldurk/renderdoc-sub019/gapis/config"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/baldurk/renderdoc-sub019/gapis/replay/soft"
)

const outputHandle = 1

// loadCapture reads the capture named on the command line and attaches it
// to the returned context.
func loadCapture(ctx context.Context, flags flag.FlagSet) (context.Context, error) {
	if flags.NArg() != 1 {
		app.Usage(ctx, "Exactly one capture file expected, got %d", flags.NArg())
		return nil, nil
	}
	path, err := filepath.Abs(flags.Arg(0))
	if err != nil {
		return nil, log.Errf(ctx, err, "Finding file: %v", flags.Arg(0))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, log.Errf(ctx, err, "Opening %v", path)
	}
	defer f.Close()
	c, err := capture.Read(ctx, f)
	if err != nil {
		return nil, log.Errf(ctx, err, "Reading %v", path)
	}
	return capture.Put(ctx, c), nil
}

// loadConfig loads the configuration selected by f. A configuration file
// also sets the log level of the returned context.
func loadConfig(ctx context.Context, f ConfigFlags) (context.Context, config.Config, error) {
	if f.Config == "" {
		return ctx, config.Default(), nil
	}
	cfg, err := config.Load(ctx, f.Config)
	if err != nil {
		return ctx, config.Config{}, err
	}
	return log.PutFilter(ctx, log.SeverityFilter(cfg.Log.Severity())), cfg, nil
}

// lastBackbuffer returns the backbuffer of the last present in c.
func lastBackbuffer(c *capture.Capture) api.ResourceID {
	id := api.ResourceID(0)
	for _, cmd := range c.Root {
		if p, ok := cmd.(*gfx.Present); ok {
			id = p.Backbuffer
		}
	}
	return id
}

// newEngine builds a replay engine for the capture of ctx on a new software
// device, with the output handle bound to the resource selected by out.
func newEngine(ctx context.Context, cfg config.Config, out OutputFlags) (*replay.Engine, *soft.Device, error) {
	c := capture.Get(ctx)
	dev := soft.New()
	e, err := replay.NewEngine(ctx, c, dev, cfg.Replay)
	if err != nil {
		return nil, nil, err
	}
	res := api.ResourceID(out.Resource)
	if res == 0 {
		res = lastBackbuffer(c)
	}
	if res != 0 {
		e.BindOutput(outputHandle, res)
	}
	return e, dev, nil
}
