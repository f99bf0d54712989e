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

// Package capture records graphics commands into captures and reads and
// writes capture files.
package capture

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
)

// Capture is a recorded frame: the root timeline of device and queue
// commands and every baked list it executes.
type Capture struct {
	Metadata Metadata
	Root     []api.Cmd
	// RootCallstacks, if not nil, holds one callstack per root command.
	RootCallstacks [][]uint64
	Lists          map[api.BakedID]*gfx.BakedList

	mutex     sync.Mutex
	timelines map[memory.Policy]*timeline
}

type timeline struct {
	once sync.Once
	t    *gfx.Timeline
	err  error
}

// Timeline returns the global timeline of the capture, resolving addresses
// with policy. The timeline is built once per policy.
func (c *Capture) Timeline(ctx context.Context, policy memory.Policy) (*gfx.Timeline, error) {
	c.mutex.Lock()
	if c.timelines == nil {
		c.timelines = map[memory.Policy]*timeline{}
	}
	t, ok := c.timelines[policy]
	if !ok {
		t = &timeline{}
		c.timelines[policy] = t
	}
	c.mutex.Unlock()

	t.once.Do(func() { t.t, t.err = gfx.BuildTimeline(ctx, c.Root, c.Lists, policy) })
	return t.t, t.err
}

// ListIDs returns the ids of the capture's baked lists in ascending order.
func (c *Capture) ListIDs() []api.BakedID {
	out := make([]api.BakedID, 0, len(c.Lists))
	for id := range c.Lists {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Capture) String() string {
	return fmt.Sprintf("%s: %d root commands, %d lists", c.Metadata.Name, len(c.Root), len(c.Lists))
}
