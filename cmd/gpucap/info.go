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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baldurk/renderdoc-sub019/core/app"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
)

type infoVerb struct {
	ConfigFlags
	Actions  bool   `help:"print the action tree"`
	Resource uint64 `help:"print the events that use this resource"`
}

func init() {
	app.AddVerb(&app.Verb{
		Name:       "info",
		ShortHelp:  "Prints information about a capture file",
		ShortUsage: "<capture>",
		Action:     &infoVerb{},
	})
}

func (verb *infoVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	ctx, err := loadCapture(ctx, flags)
	if err != nil {
		return err
	}
	c := capture.Get(ctx)
	ctx, cfg, err := loadConfig(ctx, verb.ConfigFlags)
	if err != nil {
		return err
	}
	t, err := c.Timeline(ctx, cfg.Replay.Addresses())
	if err != nil {
		return err
	}

	out := os.Stdout
	if err := capture.WriteMetadata(ctx, c.Metadata, out); err != nil {
		return err
	}
	fmt.Fprintf(out, "root commands: %d\n", len(c.Root))
	fmt.Fprintf(out, "baked lists:   %d\n", len(c.Lists))
	fmt.Fprintf(out, "executions:    %d\n", len(t.Executions))
	fmt.Fprintf(out, "events:        %d\n", t.Max)

	if verb.Actions {
		fmt.Fprintln(out, "actions:")
		for _, n := range t.Actions.Children {
			printAction(out, n, 1)
		}
	}
	if verb.Resource != 0 {
		fmt.Fprintf(out, "usage of resource %d:\n", verb.Resource)
		for _, u := range t.Usage(api.ResourceID(verb.Resource)) {
			fmt.Fprintf(out, "  %d: %v\n", u.Event, u.Usage)
		}
	}
	return nil
}

func printAction(w io.Writer, n *api.ActionNode, depth int) {
	alias := ""
	if n.AliasOf != api.NoEvent {
		alias = fmt.Sprintf(" (alias of %d)", n.AliasOf)
	}
	fmt.Fprintf(w, "%s%d %s [%v]%s\n", strings.Repeat("  ", depth), n.EventID, n.Name, n.Flags, alias)
	for _, c := range n.Children {
		printAction(w, c, depth+1)
	}
}
