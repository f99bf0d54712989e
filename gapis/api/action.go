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

package api

import (
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/math/interval"
)

// Span is an inclusive range of events.
type Span struct {
	First EventID
	Last  EventID
}

// Contains returns true if e is within the span.
func (s Span) Contains(e EventID) bool { return s.First <= e && e <= s.Last }

// Offset returns the span moved by delta events.
func (s Span) Offset(delta EventID) Span { return Span{s.First + delta, s.Last + delta} }

func (s Span) String() string { return fmt.Sprintf("[%v..%v]", s.First, s.Last) }

// ActionNode is one node of the action tree. Leaf nodes are GPU visible
// actions, inner nodes are marker regions, passes, bundles and submissions.
type ActionNode struct {
	// EventID is the event of the action itself. For grouping nodes it is the
	// event that opened the group.
	EventID EventID
	// Span covers every event that belongs to this node, including the state
	// setting events that preceded the action.
	Span     Span
	Flags    ActionFlags
	Name     string
	Data     *ActionData
	Children []*ActionNode
	// AliasOf is the event of the same action in the primary execution when
	// this node belongs to a resubmission alias, otherwise NoEvent.
	AliasOf EventID
}

// ActionData is the per action data captured once per baked list and shared
// between every execution of that list.
type ActionData struct {
	State RenderState
	Usage []ResourceUse
}

// Rebase returns a deep copy of the node with every event shifted by base.
// If alias is true, each copied node records the event of the matching node
// shifted by primary in AliasOf instead. ActionData is shared, not copied.
func (n *ActionNode) Rebase(base EventID, alias bool, primary EventID) *ActionNode {
	out := &ActionNode{
		EventID: n.EventID + base,
		Span:    n.Span.Offset(base),
		Flags:   n.Flags,
		Name:    n.Name,
		Data:    n.Data,
	}
	if alias {
		out.AliasOf = n.EventID + primary
	}
	if len(n.Children) > 0 {
		out.Children = make([]*ActionNode, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Rebase(base, alias, primary)
		}
	}
	return out
}

// IsLeaf returns true if the node has no children.
func (n *ActionNode) IsLeaf() bool { return len(n.Children) == 0 }

// children implements interval.List over the spans of a node's children.
type children []*ActionNode

func (l children) Length() int { return len(l) }
func (l children) GetSpan(i int) interval.U64Span {
	return interval.U64Span{Start: uint64(l[i].Span.First), End: uint64(l[i].Span.Last) + 1}
}

// FindAction returns the deepest node whose span contains e, or nil if e is
// outside the span of n.
func (n *ActionNode) FindAction(e EventID) *ActionNode {
	if !n.Span.Contains(e) {
		return nil
	}
	for {
		i := interval.IndexOf(children(n.Children), uint64(e))
		if i < 0 {
			return n
		}
		n = n.Children[i]
	}
}

// Walk calls cb for n and every descendant in depth first order, stopping
// when cb returns false.
func (n *ActionNode) Walk(cb func(*ActionNode) bool) bool {
	if !cb(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(cb) {
			return false
		}
	}
	return true
}

// CountActions returns the number of GPU visible actions below and including n.
func (n *ActionNode) CountActions() int {
	count := 0
	n.Walk(func(c *ActionNode) bool {
		if c.Flags.IsAction() {
			count++
		}
		return true
	})
	return count
}

func (n *ActionNode) String() string {
	return fmt.Sprintf("%v %s %v (%v)", n.EventID, n.Name, n.Span, n.Flags)
}

// Usage is the way an action uses a resource.
type Usage uint32

const (
	UsageNone Usage = iota
	UsageVertexBuffer
	UsageIndexBuffer
	UsageConstants
	UsageShaderResource
	UsageUnorderedAccess
	UsageColorTarget
	UsageDepthTarget
	UsageIndirect
	UsageCopySrc
	UsageCopyDst
	UsageResolveSrc
	UsageResolveDst
	UsageClear
	UsageBarrier
	UsageQuery
	UsagePresent
)

var usageNames = []string{
	"None", "VertexBuffer", "IndexBuffer", "Constants", "ShaderResource",
	"UnorderedAccess", "ColorTarget", "DepthTarget", "Indirect", "CopySrc",
	"CopyDst", "ResolveSrc", "ResolveDst", "Clear", "Barrier", "Query", "Present",
}

func (u Usage) String() string {
	if int(u) < len(usageNames) {
		return usageNames[u]
	}
	return fmt.Sprintf("Usage<%d>", uint32(u))
}

// ResourceUse is a resource used by an action.
type ResourceUse struct {
	Resource ResourceID
	Usage    Usage
}

// EventUsage is one use of a resource at an event.
type EventUsage struct {
	Event EventID
	Usage Usage
}

// RootKind is the kind of a root parameter binding.
type RootKind uint8

const (
	RootTable RootKind = iota
	RootCBV
	RootSRV
	RootUAV
)

// RootBinding is the value bound to one root parameter.
type RootBinding struct {
	Param   uint32
	Kind    RootKind
	Table   DescriptorHandle
	Count   uint32
	Address uint64
}

// BufferBinding is a vertex or index buffer bound by GPU address.
type BufferBinding struct {
	Slot    uint32
	Address uint64
	Size    uint64
}

// Viewport is the bound viewport.
type Viewport struct {
	X, Y, Width, Height float32
}

// RenderState is the bound pipeline state of a list at an action.
type RenderState struct {
	Pipeline      uint64
	Heaps         []ResourceID
	Roots         []RootBinding
	VertexBuffers []BufferBinding
	IndexBuffer   *BufferBinding
	RenderTargets []DescriptorHandle
	DepthTarget   DescriptorHandle
	Viewport      Viewport
	PassActive    bool
}

// Clone returns a deep copy of the state.
func (s RenderState) Clone() RenderState {
	out := s
	out.Heaps = append([]ResourceID(nil), s.Heaps...)
	out.Roots = append([]RootBinding(nil), s.Roots...)
	out.VertexBuffers = append([]BufferBinding(nil), s.VertexBuffers...)
	out.RenderTargets = append([]DescriptorHandle(nil), s.RenderTargets...)
	if s.IndexBuffer != nil {
		ib := *s.IndexBuffer
		out.IndexBuffer = &ib
	}
	return out
}

// SetRoot binds b to its parameter, replacing any earlier binding.
func (s *RenderState) SetRoot(b RootBinding) {
	for i := range s.Roots {
		if s.Roots[i].Param == b.Param {
			s.Roots[i] = b
			return
		}
	}
	s.Roots = append(s.Roots, b)
}

// SetVertexBuffer binds b to its slot, replacing any earlier binding.
func (s *RenderState) SetVertexBuffer(b BufferBinding) {
	for i := range s.VertexBuffers {
		if s.VertexBuffers[i].Slot == b.Slot {
			s.VertexBuffers[i] = b
			return
		}
	}
	s.VertexBuffers = append(s.VertexBuffers, b)
}
