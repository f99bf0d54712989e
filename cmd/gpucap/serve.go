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

	"github.com/baldurk/renderdoc-sub019/core/app"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
	"github.com/baldurk/renderdoc-sub019/gapis/config"
	"github.com/baldurk/renderdoc-sub019/gapis/counters"
	"github.com/baldurk/renderdoc-sub019/gapis/server"
)

type serveVerb struct {
	ConfigFlags
	Output OutputFlags
	RPC    string `help:"TCP host:port of the server's RPC listener"`
	Demo   bool   `help:"serve the built-in demo frame instead of a capture file"`
	Watch  bool   `help:"reload the configuration file when it changes"`
}

func init() {
	app.AddVerb(&app.Verb{
		Name:       "serve",
		ShortHelp:  "Serves replay requests for a capture over gRPC",
		ShortUsage: "<capture>",
		Action:     &serveVerb{RPC: "localhost:0"},
	})
}

func (verb *serveVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	var err error
	if verb.Demo {
		var c *capture.Capture
		if c, err = capture.Demo(ctx); err == nil {
			ctx = capture.Put(ctx, c)
		}
	} else {
		ctx, err = loadCapture(ctx, flags)
	}
	if err != nil {
		return err
	}
	c := capture.Get(ctx)
	ctx, cfg, err := loadConfig(ctx, verb.ConfigFlags)
	if err != nil {
		return err
	}
	e, _, err := newEngine(ctx, cfg, verb.Output)
	if err != nil {
		return err
	}

	if verb.Watch && verb.Config != "" {
		err := config.Watch(ctx, verb.Config, func(cfg config.Config) {
			if err := e.SetConfig(ctx, cfg.Replay); err != nil {
				log.W(ctx, "Applying configuration: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	app.AddCleanup(ctx, func() { log.I(ctx, "Stopped serving %v", c) })
	log.I(ctx, "Serving %v", c)
	return server.Listen(ctx, verb.RPC, server.New(e, counters.Queries{}))
}
