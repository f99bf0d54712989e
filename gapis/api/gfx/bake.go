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

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/barrier"
)

// BakedList is the immutable result of closing a command list. Events in
// the list are numbered 1..Count relative to the list; executions shift
// them into the global timeline.
type BakedList struct {
	ID   api.BakedID
	List api.ListID
	Cmds []api.Cmd
	// Callstacks, if not nil, holds one callstack per command.
	Callstacks [][]uint64
	// Root spans every command of the list. Its children are the list's
	// top level actions and groups.
	Root *api.ActionNode
}

// Count returns the number of events in the list.
func (b *BakedList) Count() api.EventID { return api.EventID(len(b.Cmds)) }

// Cmd returns the command at the relative event rel.
func (b *BakedList) Cmd(rel api.EventID) api.Cmd { return b.Cmds[rel-1] }

func (b *BakedList) String() string {
	return fmt.Sprintf("%v (%v, %d cmds)", b.ID, b.List, len(b.Cmds))
}

// ApplyBarriers applies every barrier recorded in the relative events
// [from, to] to t, in order.
func (b *BakedList) ApplyBarriers(ctx context.Context, t *barrier.Table, from, to api.EventID, p barrier.Policy) error {
	if from < 1 {
		from = 1
	}
	if to > b.Count() {
		to = b.Count()
	}
	var errs []error
	for e := from; e <= to; e++ {
		if c, ok := b.Cmd(e).(*Barrier); ok {
			if err := barrier.Apply(ctx, c.Set, t, p); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// OpenScopes returns the flags of the marker regions and passes opened in
// the relative events [from, to] and still open after to, outermost first.
// Scopes opened before from are ignored.
func (b *BakedList) OpenScopes(from, to api.EventID) []api.ActionFlags {
	var stack []api.ActionFlags
	for e := from; e <= to && e <= b.Count(); e++ {
		f := b.Cmd(e).CmdFlags()
		switch {
		case f.IsPushMarker():
			stack = append(stack, api.PushMarker)
		case f.IsBeginPass():
			stack = append(stack, api.BeginPass)
		case f.IsPopMarker():
			if n := len(stack); n > 0 && stack[n-1] == api.PushMarker {
				stack = stack[:n-1]
			}
		case f.IsEndPass():
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == api.BeginPass {
					stack = stack[:i]
					break
				}
			}
		}
	}
	return stack
}

// BundleAt returns the span of the inlined bundle containing the relative
// event rel, not counting the ExecuteBundle command itself.
func (b *BakedList) BundleAt(rel api.EventID) (api.Span, bool) {
	var out api.Span
	found := false
	b.Root.Walk(func(n *api.ActionNode) bool {
		if n.Flags.IsExecuteBundle() && n.EventID != rel && n.Span.Contains(rel) {
			out, found = api.Span{First: n.EventID + 1, Last: n.Span.Last}, true
			return false
		}
		return true
	})
	return out, found
}

type scope struct {
	node      *api.ActionNode
	pending   api.EventID
	remaining int
}

type builder struct {
	ctx   context.Context
	list  api.ListID
	stack []*scope
}

func (b *builder) top() *scope { return b.stack[len(b.stack)-1] }

func (b *builder) push(n *api.ActionNode, remaining int) {
	b.stack = append(b.stack, &scope{node: n, pending: n.EventID + 1, remaining: remaining})
}

// close pops the innermost scope, ending its span at last.
func (b *builder) close(last api.EventID) {
	s := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	s.node.Span.Last = last
	parent := b.top()
	parent.node.Children = append(parent.node.Children, s.node)
	parent.pending = last + 1
}

// closeTo closes scopes until the scope at depth is closed. Scopes other
// than the one at depth are closed with a warning.
func (b *builder) closeTo(depth int, last api.EventID) {
	for len(b.stack)-1 > depth {
		log.W(b.ctx, "%v: %s at %v was not closed", b.list, b.top().node.Name, b.top().node.EventID)
		b.close(last)
	}
	b.close(last)
}

// find returns the depth of the innermost scope with any of flags, or -1.
func (b *builder) find(flags api.ActionFlags) int {
	for i := len(b.stack) - 1; i > 0; i-- {
		if b.stack[i].node.Flags&flags != 0 {
			return i
		}
	}
	return -1
}

func (b *builder) leaf(id api.EventID, cmd api.Cmd, name string, data *api.ActionData) {
	s := b.top()
	s.node.Children = append(s.node.Children, &api.ActionNode{
		EventID: id,
		Span:    api.Span{First: s.pending, Last: id},
		Flags:   cmd.CmdFlags(),
		Name:    name,
		Data:    data,
	})
	s.pending = id + 1
}

// Bake builds the action tree of a closed list.
//
// Each action spans the state setting events since the previous action in
// the same group. Marker regions, passes and inlined bundles become groups.
// Groups left open at the end of the list are closed at its last event.
func Bake(ctx context.Context, id api.BakedID, list api.ListID, cmds []api.Cmd, callstacks [][]uint64) *BakedList {
	count := api.EventID(len(cmds))
	root := &api.ActionNode{Span: api.Span{First: 1, Last: count}, Name: list.String()}
	b := &builder{ctx: ctx, list: list}
	b.stack = []*scope{{node: root, pending: 1, remaining: -1}}

	rs := api.RenderState{}
	for i, cmd := range cmds {
		e := api.EventID(i + 1)
		flags := cmd.CmdFlags()
		if s, ok := cmd.(StateCmd); ok {
			s.Bind(&rs)
		}
		opened := false
		switch {
		case flags.IsPushMarker():
			name := cmd.CmdName()
			if m, ok := cmd.(*PushMarker); ok {
				name = m.Name
			}
			b.push(&api.ActionNode{EventID: e, Span: api.Span{First: e}, Flags: flags, Name: name}, -1)
		case flags.IsPopMarker():
			if d := b.find(api.PushMarker | api.BeginPass | api.ExecuteBundle); d > 0 && b.stack[d].node.Flags.IsPushMarker() {
				b.close(e)
			} else {
				log.W(ctx, "%v: %v pops a marker that was not pushed", list, e)
			}
		case flags.IsSetMarker():
			name := cmd.CmdName()
			if m, ok := cmd.(*SetMarker); ok {
				name = m.Name
			}
			b.leaf(e, cmd, name, nil)
		case flags.IsBeginPass():
			b.push(&api.ActionNode{EventID: e, Span: api.Span{First: e}, Flags: flags, Name: cmd.CmdName()}, -1)
		case flags.IsEndPass():
			if d := b.find(api.BeginPass | api.ExecuteBundle); d > 0 && b.stack[d].node.Flags.IsBeginPass() {
				b.closeTo(d, e)
			} else {
				log.W(ctx, "%v: %v ends a pass that was not begun", list, e)
			}
		case flags.IsExecuteBundle():
			n := 0
			if c, ok := cmd.(*ExecuteBundle); ok {
				n = int(c.Count)
			}
			b.push(&api.ActionNode{EventID: e, Span: api.Span{First: e}, Flags: flags, Name: cmd.CmdName()}, n)
			opened = true
			if n == 0 {
				b.close(e)
			}
		case flags.IsAction():
			b.leaf(e, cmd, cmd.CmdName(), &api.ActionData{State: rs.Clone()})
		}
		if !opened {
			if d := b.find(api.ExecuteBundle); d > 0 {
				s := b.stack[d]
				if s.remaining--; s.remaining <= 0 {
					b.closeTo(d, e)
				}
			}
		}
	}
	for len(b.stack) > 1 {
		log.W(ctx, "%v: %s at %v still open at the end of the list", list, b.top().node.Name, b.top().node.EventID)
		b.close(count)
	}
	return &BakedList{ID: id, List: list, Cmds: cmds, Callstacks: callstacks, Root: root}
}
