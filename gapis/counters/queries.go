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

// Package counters measures GPU counters for every action of a capture.
package counters

import (
	"context"
	"sort"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/pkg/errors"
)

// ErrUnknownCounter is returned for a counter the provider does not support.
const ErrUnknownCounter = fault.Const("Unknown counter")

// Counters provided by Queries.
const (
	GPUDuration replay.CounterID = iota + 1
	SamplesPassed
)

// Query heaps used by Queries. They are outside the range of captured ids.
const (
	TimestampHeap = api.ResourceID(0xffff_ffff_0000_0000)
	OcclusionHeap = api.ResourceID(0xffff_ffff_0000_0001)
)

var descs = map[replay.CounterID]replay.CounterDesc{
	GPUDuration: {
		ID:          GPUDuration,
		Name:        "GPU Duration",
		Description: "Time taken by the GPU to execute the action, in seconds.",
		Unit:        replay.Seconds,
		Type:        replay.Float,
		ByteWidth:   8,
	},
	SamplesPassed: {
		ID:          SamplesPassed,
		Name:        "Samples Passed",
		Description: "Number of samples that passed the depth and stencil tests.",
		Unit:        replay.Absolute,
		Type:        replay.Uint,
		ByteWidth:   8,
	},
}

// Queries measures counters with timestamp and occlusion queries around
// every hooked action.
type Queries struct{}

var _ replay.CounterProvider = Queries{}

// EnumerateCounters implements replay.CounterProvider.
func (Queries) EnumerateCounters() []replay.CounterID {
	return []replay.CounterID{GPUDuration, SamplesPassed}
}

// DescribeCounter implements replay.CounterProvider.
func (Queries) DescribeCounter(id replay.CounterID) (replay.CounterDesc, error) {
	d, ok := descs[id]
	if !ok {
		return replay.CounterDesc{}, errors.Wrapf(ErrUnknownCounter, "%d", id)
	}
	return d, nil
}

// FetchCounters implements replay.CounterProvider.
func (q Queries) FetchCounters(ctx context.Context, ids []replay.CounterID, r replay.Replayer) ([]replay.CounterResult, error) {
	h := &queryHook{slots: map[api.EventID]uint32{}, aliases: map[api.EventID]api.EventID{}}
	for _, id := range ids {
		switch id {
		case GPUDuration:
			h.timing = true
		case SamplesPassed:
			h.occlusion = true
		default:
			return nil, errors.Wrapf(ErrUnknownCounter, "%d", id)
		}
	}
	if err := r.Replay(ctx, h); err != nil {
		return nil, err
	}

	var timestamps, samples []uint64
	var err error
	if h.timing {
		if timestamps, err = r.QueryResults(ctx, TimestampHeap); err != nil {
			return nil, err
		}
	}
	if h.occlusion {
		if samples, err = r.QueryResults(ctx, OcclusionHeap); err != nil {
			return nil, err
		}
	}
	freq := float64(r.TimestampFrequency())

	events := make([]api.EventID, 0, len(h.slots)+len(h.aliases))
	for e := range h.slots {
		events = append(events, e)
	}
	for e := range h.aliases {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })

	out := make([]replay.CounterResult, 0, len(events)*len(ids))
	for _, e := range events {
		primary := e
		if p, ok := h.aliases[e]; ok {
			primary = p
		}
		slot := h.slots[primary]
		for _, id := range ids {
			res := replay.CounterResult{Event: e, Counter: id}
			switch id {
			case GPUDuration:
				begin, end := 2*int(slot), 2*int(slot)+1
				if end >= len(timestamps) {
					log.W(ctx, "No timestamps for %v", primary)
					continue
				}
				res.Value.F = float64(timestamps[end]-timestamps[begin]) / freq
			case SamplesPassed:
				if int(slot) >= len(samples) {
					log.W(ctx, "No occlusion result for %v", primary)
					continue
				}
				res.Value.U = samples[slot]
			}
			out = append(out, res)
		}
	}
	return out, nil
}

// queryHook brackets every action with queries. Slot n uses timestamps 2n
// and 2n+1 and occlusion query n.
type queryHook struct {
	timing    bool
	occlusion bool
	slots     map[api.EventID]uint32
	aliases   map[api.EventID]api.EventID
}

func (h *queryHook) PreAction(ctx context.Context, e api.EventID, cmd api.Cmd) ([]api.Cmd, api.Cmd) {
	slot, ok := h.slots[e]
	if !ok {
		slot = uint32(len(h.slots))
		h.slots[e] = slot
	}
	var out []api.Cmd
	if h.timing {
		out = append(out, &gfx.EndQuery{Heap: TimestampHeap, Index: 2 * slot, Type: gfx.QueryTimestamp})
	}
	if h.occlusion {
		out = append(out, &gfx.BeginQuery{Heap: OcclusionHeap, Index: slot, Type: gfx.QueryOcclusion})
	}
	return out, nil
}

func (h *queryHook) PostAction(ctx context.Context, e api.EventID, cmd api.Cmd) ([]api.Cmd, api.Cmd) {
	slot := h.slots[e]
	var out []api.Cmd
	if h.occlusion {
		out = append(out, &gfx.EndQuery{Heap: OcclusionHeap, Index: slot, Type: gfx.QueryOcclusion})
	}
	if h.timing {
		out = append(out, &gfx.EndQuery{Heap: TimestampHeap, Index: 2*slot + 1, Type: gfx.QueryTimestamp})
	}
	return out, nil
}

func (h *queryHook) PostRedo(ctx context.Context, e api.EventID) []api.Cmd { return nil }

func (h *queryHook) AliasEvent(ctx context.Context, primary, alias api.EventID) {
	h.aliases[alias] = primary
}

func (h *queryHook) RecordAll() bool { return true }
