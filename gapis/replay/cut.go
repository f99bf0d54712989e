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

package replay

import (
	"context"
	"fmt"
	"sync"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"golang.org/x/sync/singleflight"
)

// cutKey identifies a re-recorded range [From, To] of a baked list.
type cutKey struct {
	List     api.BakedID
	From, To api.EventID
	// Neutral replaces the action at To with a Nop.
	Neutral bool
}

func (k cutKey) String() string {
	return fmt.Sprintf("%v[%v..%v] neutral:%v", k.List, k.From, k.To, k.Neutral)
}

// cut is a range of a baked list re-recorded as a list of its own.
type cut struct {
	key cutKey
	// Prefix rebinds the render state and reopens the scopes that were
	// active before From.
	Prefix []api.Cmd
	// Body holds the commands of [From, To]. Body[i] is at From+i.
	Body []api.Cmd
	// Suffix closes the scopes still open after To.
	Suffix []api.Cmd
}

// event returns the relative event of Body[i].
func (c *cut) event(i int) api.EventID { return c.key.From + api.EventID(i) }

// cmds returns the whole cut list.
func (c *cut) cmds() []api.Cmd {
	out := make([]api.Cmd, 0, len(c.Prefix)+len(c.Body)+len(c.Suffix))
	out = append(out, c.Prefix...)
	out = append(out, c.Body...)
	return append(out, c.Suffix...)
}

// scan returns the render state and the open marker and pass commands after
// the relative event to.
func scan(l *gfx.BakedList, to api.EventID) (api.RenderState, []api.Cmd) {
	rs := api.RenderState{}
	var open []api.Cmd
	for e := api.EventID(1); e <= to && e <= l.Count(); e++ {
		cmd := l.Cmd(e)
		if s, ok := cmd.(gfx.StateCmd); ok {
			s.Bind(&rs)
		}
		switch cmd.(type) {
		case *gfx.PushMarker, *gfx.BeginPass:
			open = append(open, cmd)
		case *gfx.PopMarker:
			if n := len(open); n > 0 {
				if _, ok := open[n-1].(*gfx.PushMarker); ok {
					open = open[:n-1]
				}
			}
		case *gfx.EndPass:
			for i := len(open) - 1; i >= 0; i-- {
				if _, ok := open[i].(*gfx.BeginPass); ok {
					open = open[:i]
					break
				}
			}
		}
	}
	return rs, open
}

func buildCut(ctx context.Context, l *gfx.BakedList, k cutKey) *cut {
	c := &cut{key: k}
	if k.From > 1 {
		rs, open := scan(l, k.From-1)
		rs.PassActive = false
		c.Prefix = append(gfx.RestoreState(rs), open...)
	}
	c.Body = append([]api.Cmd(nil), l.Cmds[k.From-1:k.To]...)
	if k.Neutral {
		last := len(c.Body) - 1
		c.Body[last] = gfx.Neutralise(c.Body[last])
	}
	if k.To < l.Count() {
		c.Suffix = gfx.CloseScopes(l.OpenScopes(1, k.To))
	}
	log.D(ctx, "Built cut %v: %d commands", k, len(c.Prefix)+len(c.Body)+len(c.Suffix))
	return c
}

// cuts caches built cuts. Concurrent requests for the same cut build it
// once.
type cuts struct {
	mutex sync.Mutex
	limit int
	byKey map[cutKey]*cut
	order []cutKey
	group singleflight.Group
	built int
}

func newCuts(limit int) *cuts {
	return &cuts{limit: limit, byKey: map[cutKey]*cut{}}
}

func (c *cuts) get(ctx context.Context, l *gfx.BakedList, k cutKey) *cut {
	c.mutex.Lock()
	if out, ok := c.byKey[k]; ok {
		c.mutex.Unlock()
		return out
	}
	c.mutex.Unlock()

	v, _, _ := c.group.Do(k.String(), func() (interface{}, error) {
		c.mutex.Lock()
		if out, ok := c.byKey[k]; ok {
			c.mutex.Unlock()
			return out, nil
		}
		c.mutex.Unlock()

		out := buildCut(ctx, l, k)

		c.mutex.Lock()
		defer c.mutex.Unlock()
		c.built++
		c.byKey[k] = out
		c.order = append(c.order, k)
		for len(c.order) > c.limit {
			delete(c.byKey, c.order[0])
			c.order = c.order[1:]
		}
		return out, nil
	})
	return v.(*cut)
}

// reset drops every cached cut and sets a new limit.
func (c *cuts) reset(limit int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.limit = limit
	c.byKey = map[cutKey]*cut{}
	c.order = nil
}

func (c *cuts) stats() (cached, built int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.byKey), c.built
}
