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

package gfx

import (
	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
)

const maxListsPerSubmit = 1 << 12

// ExecuteLists submits baked lists to a queue, in order.
type ExecuteLists struct {
	Queue api.QueueID
	Lists []api.BakedID
}

// Present presents a backbuffer on a queue.
type Present struct {
	Queue      api.QueueID
	Backbuffer api.ResourceID
}

func (*ExecuteLists) CmdName() string { return "ExecuteLists" }
func (*Present) CmdName() string      { return "Present" }

func (*ExecuteLists) CmdFlags() api.ActionFlags { return api.Submission }
func (*Present) CmdFlags() api.ActionFlags      { return api.Present }

func (*ExecuteLists) CmdKind() uint32 { return kindExecuteLists }
func (*Present) CmdKind() uint32      { return kindPresent }

func (c *ExecuteLists) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Queue)).Uint(uint64(len(c.Lists)))
	for _, l := range c.Lists {
		e.Uint(uint64(l))
	}
}

func (c *ExecuteLists) Decode(d *pack.Decoder) {
	c.Queue = api.QueueID(d.Uint())
	n := d.Count(maxListsPerSubmit)
	c.Lists = make([]api.BakedID, n)
	for i := range c.Lists {
		c.Lists[i] = api.BakedID(d.Uint())
	}
}

func (c *Present) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Queue)).Uint(uint64(c.Backbuffer))
}

func (c *Present) Decode(d *pack.Decoder) {
	c.Queue = api.QueueID(d.Uint())
	c.Backbuffer = api.ResourceID(d.Uint())
}
