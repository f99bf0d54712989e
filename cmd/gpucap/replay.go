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
	"hash/fnv"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/baldurk/renderdoc-sub019/core/app"
	"github.com/baldurk/renderdoc-sub019/core/app/flags"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/counters"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/pkg/errors"
)

type replayVerb struct {
	ConfigFlags
	Range    RangeFlags
	Output   OutputFlags
	Mode     Mode              `help:"what to replay of the last event"`
	Prefetch flags.U64Slice    `help:"events to build partial lists for before replaying"`
	Counters flags.StringSlice `help:"fetch these counters ('all' for every one) for every action instead of replaying a range"`
}

func init() {
	app.AddVerb(&app.Verb{
		Name:       "replay",
		ShortHelp:  "Replays a capture on the software device",
		ShortUsage: "<capture>",
		Action:     &replayVerb{Mode: Mode(replay.Full)},
	})
}

func (verb *replayVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	ctx, err := loadCapture(ctx, flags)
	if err != nil {
		return err
	}
	ctx, cfg, err := loadConfig(ctx, verb.ConfigFlags)
	if err != nil {
		return err
	}
	e, dev, err := newEngine(ctx, cfg, verb.Output)
	if err != nil {
		return err
	}

	if len(verb.Counters) > 0 {
		return verb.fetchCounters(ctx, e)
	}

	if len(verb.Prefetch) > 0 {
		ends := make([]api.EventID, len(verb.Prefetch))
		for i, ev := range verb.Prefetch {
			ends[i] = api.EventID(ev)
		}
		if err := e.Prefetch(ctx, ends); err != nil {
			return err
		}
	}

	end := api.EventID(verb.Range.End)
	if end == 0 {
		end = e.GetMaxEventID()
	}
	mode := replay.Mode(verb.Mode)
	if err := e.ReplayRange(ctx, api.EventID(verb.Range.Start), end, mode); err != nil {
		return log.Errf(ctx, err, "Replaying %d..%d", verb.Range.Start, end)
	}
	stats := dev.Stats()
	log.I(ctx, "Replayed %d..%d %v: %d submits, %d commands, %d actions, cursor %v",
		verb.Range.Start, end, mode, stats.Submits, stats.Commands, stats.Actions, e.Cursor())

	data, err := e.GetOutputWindowData(ctx, outputHandle)
	if err != nil {
		return err
	}
	h := fnv.New64a()
	h.Write(data)
	fmt.Fprintf(os.Stdout, "output: %d bytes, hash %016x\n", len(data), h.Sum64())
	if verb.Output.File != "" {
		if err := os.WriteFile(verb.Output.File, data, 0644); err != nil {
			return log.Errf(ctx, err, "Writing %v", verb.Output.File)
		}
	}
	return nil
}

// selectCounters returns the ids of the counters of p named by names, and
// the description of every counter of p. The name "all" selects every
// counter. Names ignore case and spaces.
func selectCounters(p replay.CounterProvider, names []string) ([]replay.CounterID, map[replay.CounterID]replay.CounterDesc, error) {
	key := func(name string) string { return strings.ToLower(strings.ReplaceAll(name, " ", "")) }
	descs := map[replay.CounterID]replay.CounterDesc{}
	byName := map[string]replay.CounterID{}
	all := p.EnumerateCounters()
	for _, id := range all {
		d, err := p.DescribeCounter(id)
		if err != nil {
			return nil, nil, err
		}
		descs[id] = d
		byName[key(d.Name)] = id
	}
	var ids []replay.CounterID
	for _, name := range names {
		if key(name) == "all" {
			return all, descs, nil
		}
		id, ok := byName[key(name)]
		if !ok {
			return nil, nil, errors.Wrapf(counters.ErrUnknownCounter, "%q", name)
		}
		ids = append(ids, id)
	}
	return ids, descs, nil
}

func (verb *replayVerb) fetchCounters(ctx context.Context, e *replay.Engine) error {
	p := counters.Queries{}
	ids, descs, err := selectCounters(p, verb.Counters)
	if err != nil {
		return err
	}
	results, err := e.FetchCounters(ctx, p, ids)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 4, 4, 2, ' ', 0)
	fmt.Fprintln(w, "event\tcounter\tvalue")
	for _, r := range results {
		d := descs[r.Counter]
		value := fmt.Sprint(r.Value.U)
		if d.Type == replay.Float {
			value = fmt.Sprint(r.Value.F)
		}
		fmt.Fprintf(w, "%d\t%s\t%s %v\n", r.Event, d.Name, value, d.Unit)
	}
	return w.Flush()
}
