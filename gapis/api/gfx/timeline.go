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
	"context"
	"fmt"
	"sort"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/barrier"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
	"github.com/pkg/errors"
)

// Execution is one execution of a baked list within an ExecuteLists.
type Execution struct {
	// Root is the index of the ExecuteLists command in the root timeline.
	Root  int
	Queue api.QueueID
	List  *BakedList
	// Base is the global event before the first event of the execution.
	Base api.EventID
	// Primary is the first execution of the same baked list, nil if this is
	// the first.
	Primary *Execution
}

// IsAlias returns true if the execution resubmits a list that was already
// executed.
func (x *Execution) IsAlias() bool { return x.Primary != nil }

// Span returns the global events of the execution.
func (x *Execution) Span() api.Span {
	return api.Span{First: x.Base + 1, Last: x.Base + x.List.Count()}
}

// Global converts a relative event of the list to a global event.
func (x *Execution) Global(rel api.EventID) api.EventID { return x.Base + rel }

func (x *Execution) String() string {
	return fmt.Sprintf("%v on %v at %v", x.List.ID, x.Queue, x.Span())
}

// Location identifies where a global event lives.
type Location struct {
	// Root is the index of the root command owning the event.
	Root int
	// Exec is the execution holding the event, nil for root level events.
	Exec *Execution
	// Rel is the event relative to Exec.
	Rel api.EventID
}

// Timeline is the global numbering of a capture: root commands and every
// event of every execution, numbered from 1 in replay order.
type Timeline struct {
	Root []api.Cmd
	// RootEvents holds the global event of each root command.
	RootEvents []api.EventID
	Executions []*Execution
	Lists      map[api.BakedID]*BakedList
	Max        api.EventID
	Actions    *api.ActionNode
	usage      map[api.ResourceID][]api.EventUsage
}

// BuildTimeline numbers the root commands and list executions, builds the
// global action tree and resolves resource usage.
//
// Each root command takes one event. An ExecuteLists is followed by the
// events of its lists in submission order. Resubmitted lists get fresh
// events; their actions share the data of the first execution and point
// back to it through AliasOf.
func BuildTimeline(ctx context.Context, root []api.Cmd, lists map[api.BakedID]*BakedList, policy memory.Policy) (*Timeline, error) {
	t := &Timeline{
		Root:       root,
		RootEvents: make([]api.EventID, len(root)),
		Lists:      lists,
		usage:      map[api.ResourceID][]api.EventUsage{},
	}
	primaries := map[api.BakedID]*Execution{}
	e := api.EventID(1)
	for i, cmd := range root {
		t.RootEvents[i] = e
		base := e
		if x, ok := cmd.(*ExecuteLists); ok {
			for _, id := range x.Lists {
				l, ok := lists[id]
				if !ok {
					return nil, errors.Wrapf(ErrUnknownList, "%v executes %v", e, id)
				}
				exec := &Execution{Root: i, Queue: x.Queue, List: l, Base: base, Primary: primaries[id]}
				if exec.Primary == nil {
					primaries[id] = exec
				}
				t.Executions = append(t.Executions, exec)
				base += l.Count()
			}
		}
		e = base + 1
	}
	t.Max = e - 1
	t.buildActions(ctx, policy)
	return t, nil
}

// buildActions builds the global action tree, resolving usage at each
// primary execution against a registry built from the root commands.
func (t *Timeline) buildActions(ctx context.Context, policy memory.Policy) {
	t.Actions = &api.ActionNode{Span: api.Span{First: 1, Last: t.Max}, Name: "Capture"}
	state := NewState()
	data := map[*Execution]map[api.EventID]*api.ActionData{}
	pending := api.EventID(1)
	execs := t.Executions
	for i, cmd := range t.Root {
		e := t.RootEvents[i]
		switch c := cmd.(type) {
		case DeviceCmd:
			if err := c.Mutate(ctx, e, state); err != nil {
				log.W(ctx, "%v", err)
			}
		case *ExecuteLists:
			node := &api.ActionNode{EventID: e, Span: api.Span{First: pending, Last: e}, Flags: c.CmdFlags(), Name: c.CmdName()}
			for len(execs) > 0 && execs[0].Root == i {
				x := execs[0]
				execs = execs[1:]
				if x.List.Count() == 0 {
					continue
				}
				sub := t.rebase(ctx, x, state, data, policy)
				node.Children = append(node.Children, sub)
				node.Span.Last = sub.Span.Last
			}
			t.Actions.Children = append(t.Actions.Children, node)
			pending = node.Span.Last + 1
		case *Present:
			for _, u := range ResolveUsage(ctx, state, c, nil, policy) {
				t.usage[u.Resource] = append(t.usage[u.Resource], api.EventUsage{Event: e, Usage: u.Usage})
			}
			t.Actions.Children = append(t.Actions.Children, &api.ActionNode{
				EventID: e,
				Span:    api.Span{First: pending, Last: e},
				Flags:   c.CmdFlags(),
				Name:    c.CmdName(),
				Data:    &api.ActionData{Usage: []api.ResourceUse{{Resource: c.Backbuffer, Usage: api.UsagePresent}}},
			})
			pending = e + 1
		}
	}
	for id, uses := range t.usage {
		sort.SliceStable(uses, func(i, j int) bool { return uses[i].Event < uses[j].Event })
		t.usage[id] = uses
	}
}

func (t *Timeline) rebase(ctx context.Context, x *Execution, state *State,
	data map[*Execution]map[api.EventID]*api.ActionData, policy memory.Policy) *api.ActionNode {

	var sub *api.ActionNode
	if x.IsAlias() {
		sub = x.List.Root.Rebase(x.Base, true, x.Primary.Base)
	} else {
		sub = x.List.Root.Rebase(x.Base, false, 0)
	}
	sub.EventID = sub.Span.First
	sub.Flags = 0
	sub.Name = fmt.Sprintf("%v %v", x.List.List, x.List.ID)

	primary := x
	if x.IsAlias() {
		primary = x.Primary
	}
	byRel, ok := data[primary]
	if !ok {
		byRel = map[api.EventID]*api.ActionData{}
		data[primary] = byRel
	}
	sub.Walk(func(n *api.ActionNode) bool {
		if n.Data == nil {
			return true
		}
		rel := n.EventID - x.Base
		d, ok := byRel[rel]
		if !ok {
			d = &api.ActionData{
				State: n.Data.State,
				Usage: ResolveUsage(ctx, state, x.List.Cmd(rel), &n.Data.State, policy),
			}
			byRel[rel] = d
		}
		n.Data = d
		for _, u := range d.Usage {
			t.usage[u.Resource] = append(t.usage[u.Resource], api.EventUsage{Event: n.EventID, Usage: u.Usage})
		}
		return true
	})
	return sub
}

// Usage returns every use of a resource, ordered by event.
func (t *Timeline) Usage(id api.ResourceID) []api.EventUsage {
	return t.usage[id]
}

// Locate returns where the global event e lives.
func (t *Timeline) Locate(e api.EventID) (Location, bool) {
	if e < 1 || e > t.Max {
		return Location{}, false
	}
	i := sort.Search(len(t.RootEvents), func(i int) bool { return t.RootEvents[i] > e }) - 1
	if t.RootEvents[i] == e {
		return Location{Root: i}, true
	}
	j := sort.Search(len(t.Executions), func(j int) bool { return t.Executions[j].Span().Last >= e })
	if j < len(t.Executions) {
		x := t.Executions[j]
		if x.Span().Contains(e) {
			return Location{Root: x.Root, Exec: x, Rel: e - x.Base}, true
		}
	}
	return Location{}, false
}

// ExecutionsOf returns the executions of the root command at index i.
func (t *Timeline) ExecutionsOf(i int) []*Execution {
	var out []*Execution
	for _, x := range t.Executions {
		if x.Root == i {
			out = append(out, x)
		}
	}
	return out
}

// StatesAt returns the capture-time resource states after the event e has
// executed.
func (t *Timeline) StatesAt(ctx context.Context, e api.EventID) *barrier.Table {
	table := barrier.NewTable()
	for i, cmd := range t.Root {
		if t.RootEvents[i] > e {
			break
		}
		switch c := cmd.(type) {
		case *CreateResource:
			initial := c.Initial
			if initial == nil {
				initial = api.CommonLegacy
			}
			if err := table.Create(c.ID, c.Desc.Subresources(), initial); err != nil {
				log.D(ctx, "%v: %v", t.RootEvents[i], err)
			}
		case *DestroyResource:
			table.Destroy(c.ID)
		case *ExecuteLists:
			for _, x := range t.ExecutionsOf(i) {
				if x.Base >= e {
					break
				}
				x.List.ApplyBarriers(ctx, table, 1, e-x.Base, barrier.Silent)
			}
		}
	}
	return table
}
