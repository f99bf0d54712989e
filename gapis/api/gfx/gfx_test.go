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

package gfx_test

import (
	"context"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
)

var rtv = api.DescriptorHandle{Heap: 20, Index: 0}

func listA() []api.Cmd {
	return []api.Cmd{
		&gfx.SetPipeline{Pipeline: 7},
		&gfx.SetVertexBuffer{Slot: 0, Address: 0x1000, Size: 256},
		&gfx.Draw{VertexCount: 3, InstanceCount: 1},
		&gfx.PushMarker{Name: "shadow"},
		&gfx.SetIndexBuffer{Address: 0x1100, Size: 64},
		&gfx.DrawIndexed{IndexCount: 6, InstanceCount: 1},
		&gfx.PopMarker{},
		&gfx.Barrier{Set: api.BarrierSet{Legacy: []api.LegacyTransition{{
			Resource: 2, Subresource: api.AllSubresources,
			Before: api.StateCommon, After: api.StateRenderTarget,
		}}}},
		&gfx.BeginPass{Targets: []api.DescriptorHandle{rtv}},
		&gfx.Draw{VertexCount: 3, InstanceCount: 1},
	}
}

func listB() []api.Cmd {
	return []api.Cmd{
		&gfx.Dispatch{X: 1, Y: 1, Z: 1},
		&gfx.CopyBuffer{Dst: 1, Src: 3, Size: 16},
	}
}

func timeline(ctx context.Context) (*gfx.Timeline, error) {
	lists := map[api.BakedID]*gfx.BakedList{
		1: gfx.Bake(ctx, 1, 100, listA(), nil),
		2: gfx.Bake(ctx, 2, 101, listB(), nil),
	}
	root := []api.Cmd{
		&gfx.CreateResource{ID: 1, Desc: api.BufferDesc(0x200), Address: 0x1000},
		&gfx.CreateResource{ID: 2, Desc: api.Texture2DDesc(4, 4, api.FormatR8G8B8A8Unorm, api.AllowRenderTarget)},
		&gfx.CreateResource{ID: 3, Desc: api.BufferDesc(0x100), Address: 0x2000},
		&gfx.CreateHeap{ID: 20, Kind: descriptor.HeapRTV, Count: 1},
		&gfx.CreateView{Dst: rtv, View: descriptor.RTVView{Resource: 2}},
		&gfx.ExecuteLists{Queue: 1, Lists: []api.BakedID{1, 2}},
		&gfx.Present{Queue: 1, Backbuffer: 2},
		&gfx.ExecuteLists{Queue: 1, Lists: []api.BakedID{1}},
	}
	return gfx.BuildTimeline(ctx, root, lists, memory.Permissive)
}

type node struct {
	event api.EventID
	span  api.Span
	name  string
}

func TestBake(t *testing.T) {
	ctx := log.Testing(t)
	b := gfx.Bake(ctx, 1, 100, listA(), nil)
	assert.For(ctx, "count").That(b.Count()).Equals(api.EventID(10))
	assert.For(ctx, "root span").That(b.Root.Span).Equals(api.Span{First: 1, Last: 10})

	got := []node{}
	for _, c := range b.Root.Children {
		got = append(got, node{c.EventID, c.Span, c.Name})
	}
	assert.For(ctx, "top level").ThatSlice(got).Equals([]node{
		{3, api.Span{First: 1, Last: 3}, "Draw"},
		{4, api.Span{First: 4, Last: 7}, "shadow"},
		{8, api.Span{First: 8, Last: 8}, "Barrier"},
		{9, api.Span{First: 9, Last: 10}, "BeginPass"},
	})

	for _, test := range []struct {
		event    api.EventID
		expected api.EventID
	}{
		{1, 3}, {3, 3}, {4, 4}, {5, 6}, {7, 4}, {9, 9}, {10, 10},
	} {
		n := b.Root.FindAction(test.event)
		if assert.For(ctx, "FindAction(%v)", test.event).That(n).IsNotNil() {
			assert.For(ctx, "FindAction(%v)", test.event).That(n.EventID).Equals(test.expected)
		}
	}

	draw := b.Root.FindAction(6)
	assert.For(ctx, "state pipeline").That(draw.Data.State.Pipeline).Equals(uint64(7))
	assert.For(ctx, "state index").That(draw.Data.State.IndexBuffer.Address).Equals(uint64(0x1100))
	last := b.Root.FindAction(10)
	assert.For(ctx, "pass active").ThatBoolean(last.Data.State.PassActive).IsTrue()
	assert.For(ctx, "first draw").ThatBoolean(b.Root.FindAction(3).Data.State.IndexBuffer == nil).IsTrue()

	assert.For(ctx, "open at end").ThatSlice(b.OpenScopes(1, 10)).Equals([]api.ActionFlags{api.BeginPass})
	assert.For(ctx, "open in marker").ThatSlice(b.OpenScopes(1, 5)).Equals([]api.ActionFlags{api.PushMarker})
	assert.For(ctx, "closed").ThatSlice(b.OpenScopes(1, 8)).Equals([]api.ActionFlags(nil))
}

func TestBakeBundle(t *testing.T) {
	ctx := log.Testing(t)
	b := gfx.Bake(ctx, 2, 100, []api.Cmd{
		&gfx.ExecuteBundle{Bundle: 5, Count: 2},
		&gfx.Draw{VertexCount: 3},
		&gfx.Draw{VertexCount: 3},
		&gfx.PopMarker{},
		&gfx.Draw{VertexCount: 3},
	}, nil)
	assert.For(ctx, "children").ThatInteger(len(b.Root.Children)).Equals(2)
	bundle := b.Root.Children[0]
	assert.For(ctx, "bundle span").That(bundle.Span).Equals(api.Span{First: 1, Last: 3})
	assert.For(ctx, "bundle children").ThatInteger(len(bundle.Children)).Equals(2)
	assert.For(ctx, "after").That(b.Root.Children[1].Span).Equals(api.Span{First: 4, Last: 5})

	span, ok := b.BundleAt(3)
	assert.For(ctx, "in bundle").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "bundle at").That(span).Equals(api.Span{First: 2, Last: 3})
	_, ok = b.BundleAt(5)
	assert.For(ctx, "outside bundle").ThatBoolean(ok).IsFalse()
	_, ok = b.BundleAt(1)
	assert.For(ctx, "bundle cmd").ThatBoolean(ok).IsFalse()
}

func TestTimeline(t *testing.T) {
	ctx := log.Testing(t)
	tl, err := timeline(ctx)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "max").That(tl.Max).Equals(api.EventID(30))
	assert.For(ctx, "root events").ThatSlice(tl.RootEvents).Equals([]api.EventID{1, 2, 3, 4, 5, 6, 19, 20})
	assert.For(ctx, "executions").ThatInteger(len(tl.Executions)).Equals(3)
	assert.For(ctx, "alias").ThatBoolean(tl.Executions[2].IsAlias()).IsTrue()

	for _, test := range []struct {
		event api.EventID
		root  int
		exec  int
		rel   api.EventID
	}{
		{1, 0, -1, 0},
		{6, 5, -1, 0},
		{7, 5, 0, 1},
		{16, 5, 0, 10},
		{17, 5, 1, 1},
		{18, 5, 1, 2},
		{19, 6, -1, 0},
		{25, 7, 2, 5},
	} {
		loc, ok := tl.Locate(test.event)
		assert.For(ctx, "Locate(%v)", test.event).ThatBoolean(ok).IsTrue()
		assert.For(ctx, "Locate(%v).Root", test.event).ThatInteger(loc.Root).Equals(test.root)
		assert.For(ctx, "Locate(%v).Rel", test.event).That(loc.Rel).Equals(test.rel)
		if test.exec < 0 {
			assert.For(ctx, "Locate(%v).Exec", test.event).That(loc.Exec).IsNil()
		} else {
			assert.For(ctx, "Locate(%v).Exec", test.event).That(loc.Exec).Equals(tl.Executions[test.exec])
		}
	}
	_, ok := tl.Locate(31)
	assert.For(ctx, "Locate past max").ThatBoolean(ok).IsFalse()
	_, ok = tl.Locate(0)
	assert.For(ctx, "Locate zero").ThatBoolean(ok).IsFalse()
}

func TestTimelineActions(t *testing.T) {
	ctx := log.Testing(t)
	tl, _ := timeline(ctx)
	for _, test := range []struct {
		event    api.EventID
		expected api.EventID
		alias    api.EventID
	}{
		{9, 9, 0},
		{12, 12, 0},
		{17, 17, 0},
		{19, 19, 0},
		{23, 23, 9},
		{26, 26, 12},
		{30, 30, 16},
	} {
		n := tl.Actions.FindAction(test.event)
		if assert.For(ctx, "FindAction(%v)", test.event).That(n).IsNotNil() {
			assert.For(ctx, "FindAction(%v)", test.event).That(n.EventID).Equals(test.expected)
			assert.For(ctx, "AliasOf(%v)", test.event).That(n.AliasOf).Equals(test.alias)
		}
	}
	primary, alias := tl.Actions.FindAction(12), tl.Actions.FindAction(26)
	assert.For(ctx, "shared data").ThatBoolean(primary.Data == alias.Data).IsTrue()
	assert.For(ctx, "submission").That(tl.Actions.FindAction(6).Flags).Equals(api.Submission)
	assert.For(ctx, "submission span").That(tl.Actions.Children[0].Span).Equals(api.Span{First: 1, Last: 18})
}

func TestTimelineUsage(t *testing.T) {
	ctx := log.Testing(t)
	tl, _ := timeline(ctx)
	assert.For(ctx, "R1").ThatSlice(tl.Usage(1)).Equals([]api.EventUsage{
		{Event: 9, Usage: api.UsageVertexBuffer},
		{Event: 12, Usage: api.UsageVertexBuffer},
		{Event: 12, Usage: api.UsageIndexBuffer},
		{Event: 16, Usage: api.UsageVertexBuffer},
		{Event: 18, Usage: api.UsageCopyDst},
		{Event: 23, Usage: api.UsageVertexBuffer},
		{Event: 26, Usage: api.UsageVertexBuffer},
		{Event: 26, Usage: api.UsageIndexBuffer},
		{Event: 30, Usage: api.UsageVertexBuffer},
	})
	assert.For(ctx, "R2").ThatSlice(tl.Usage(2)).Equals([]api.EventUsage{
		{Event: 14, Usage: api.UsageBarrier},
		{Event: 16, Usage: api.UsageColorTarget},
		{Event: 19, Usage: api.UsagePresent},
		{Event: 28, Usage: api.UsageBarrier},
		{Event: 30, Usage: api.UsageColorTarget},
	})
	assert.For(ctx, "R3").ThatSlice(tl.Usage(3)).Equals([]api.EventUsage{
		{Event: 18, Usage: api.UsageCopySrc},
	})
	assert.For(ctx, "unused").ThatInteger(len(tl.Usage(99))).Equals(0)
}

func TestStatesAt(t *testing.T) {
	ctx := log.Testing(t)
	tl, _ := timeline(ctx)
	rt := api.LegacyState{States: api.StateRenderTarget}
	for _, test := range []struct {
		event    api.EventID
		expected api.SubresourceState
	}{
		{13, api.CommonLegacy},
		{14, rt},
		{20, rt},
		{30, rt},
	} {
		table := tl.StatesAt(ctx, test.event)
		assert.For(ctx, "StatesAt(%v)", test.event).ThatSlice(table.Get(2)).Equals([]api.SubresourceState{test.expected})
	}
	assert.For(ctx, "before create").ThatBoolean(tl.StatesAt(ctx, 1).Has(2)).IsFalse()
}

func TestUnknownList(t *testing.T) {
	ctx := log.Testing(t)
	_, err := gfx.BuildTimeline(ctx, []api.Cmd{&gfx.ExecuteLists{Lists: []api.BakedID{9}}}, nil, memory.Permissive)
	assert.For(ctx, "err").ThatError(err).HasCause(gfx.ErrUnknownList)
}

func TestDeviceCmds(t *testing.T) {
	ctx := log.Testing(t)
	s := gfx.NewState()
	create := &gfx.CreateResource{ID: 1, Desc: api.BufferDesc(64), Address: 0x4000, Hint: api.FormatR32Float}
	assert.For(ctx, "create").ThatError(create.Mutate(ctx, 1, s)).Succeeded()
	assert.For(ctx, "create again").ThatError(create.Mutate(ctx, 2, s)).HasCause(gfx.ErrDuplicateID)
	id, offset, ok := s.Addresses.Resolve(0x4010, memory.Strict)
	assert.For(ctx, "resolve ok").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "resolve id").That(id).Equals(api.ResourceID(1))
	assert.For(ctx, "resolve offset").That(offset).Equals(uint64(0x10))
	hint, _ := s.FormatHint(1)
	assert.For(ctx, "hint").That(hint).Equals(api.FormatR32Float)

	heap := &gfx.CreateHeap{ID: 10, Kind: descriptor.HeapCBVSRVUAV, Count: 2}
	assert.For(ctx, "heap").ThatError(heap.Mutate(ctx, 3, s)).Succeeded()
	view := &gfx.CreateView{Dst: api.DescriptorHandle{Heap: 10, Index: 1}, View: descriptor.SRVView{Resource: 1}}
	assert.For(ctx, "view").ThatError(view.Mutate(ctx, 4, s)).Succeeded()
	bad := &gfx.CreateView{Dst: api.DescriptorHandle{Heap: 11}, View: descriptor.SRVView{Resource: 1}}
	assert.For(ctx, "bad heap").ThatError(bad.Mutate(ctx, 5, s)).HasCause(gfx.ErrUnknownHeap)
	cp := &gfx.CopyDescriptors{Dst: api.DescriptorHandle{Heap: 10}, Src: api.DescriptorHandle{Heap: 10, Index: 1}, Count: 1}
	assert.For(ctx, "copy").ThatError(cp.Mutate(ctx, 6, s)).Succeeded()
	assert.For(ctx, "copied").ThatSlice(s.DescriptorResources(api.DescriptorHandle{Heap: 10})).Equals([]api.ResourceID{1})

	destroy := &gfx.DestroyResource{ID: 1}
	assert.For(ctx, "destroy").ThatError(destroy.Mutate(ctx, 7, s)).Succeeded()
	_, _, ok = s.Addresses.Resolve(0x4010, memory.Permissive)
	assert.For(ctx, "unmapped").ThatBoolean(ok).IsFalse()
	assert.For(ctx, "untracked").ThatBoolean(s.States.Has(1)).IsFalse()
	assert.For(ctx, "destroy again").ThatError(destroy.Mutate(ctx, 8, s)).HasCause(gfx.ErrUnknownResource)
}

func TestCmdCodec(t *testing.T) {
	ctx := log.Testing(t)
	for _, cmd := range append(append(listA(), listB()...),
		&gfx.CreateResource{ID: 4, Desc: api.Texture2DDesc(8, 8, api.FormatR24G8Typeless, api.AllowDepthStencil),
			Initial: api.LayoutState{Layout: api.LayoutDepthStencilWrite}, Hint: api.FormatD24UnormS8Uint},
		&gfx.CreateView{Dst: rtv, View: descriptor.CBVView{Address: 0x1000, Size: 256}},
		&gfx.WriteBuffer{Resource: 1, Offset: 4, Data: []byte{1, 2, 3}},
		&gfx.ExecuteLists{Queue: 2, Lists: []api.BakedID{1, 2, 1}},
		&gfx.ExecuteIndirect{Kind: gfx.IndirectDrawIndexed, ArgAddress: 0x3000, MaxCount: 4},
		&gfx.ClearView{View: rtv, Value: [4]float32{0, 0.5, 1, 1}},
		&gfx.DrawIndexed{IndexCount: 3, BaseVertex: -2},
		&gfx.SetViewport{Viewport: api.Viewport{Width: 640, Height: 480}},
		&gfx.Nop{Of: "Draw"},
	) {
		chunk := pack.Chunk{Tag: cmd.CmdKind(), Data: api.EncodeCmd(cmd)}
		got, err := api.DecodeCmd(chunk)
		assert.For(ctx, "%s err", cmd.CmdName()).ThatError(err).Succeeded()
		assert.For(ctx, "%s", cmd.CmdName()).That(got).DeepEquals(cmd)
	}
}

func TestRestoreState(t *testing.T) {
	ctx := log.Testing(t)
	rs := api.RenderState{
		Pipeline:      3,
		Roots:         []api.RootBinding{{Param: 0, Kind: api.RootTable, Table: api.DescriptorHandle{Heap: 10}, Count: 2}},
		VertexBuffers: []api.BufferBinding{{Slot: 1, Address: 0x1000, Size: 16}},
		RenderTargets: []api.DescriptorHandle{rtv},
		PassActive:    true,
	}
	cmds := gfx.RestoreState(rs)
	names := []string{}
	got := api.RenderState{}
	for _, c := range cmds {
		names = append(names, c.CmdName())
		c.(gfx.StateCmd).Bind(&got)
	}
	assert.For(ctx, "cmds").ThatSlice(names).Equals([]string{
		"SetPipeline", "SetRootTable", "SetVertexBuffer", "SetViewport", "BeginPass",
	})
	assert.For(ctx, "state").That(got).DeepEquals(rs)

	closing := gfx.CloseScopes([]api.ActionFlags{api.BeginPass, api.PushMarker})
	assert.For(ctx, "close").ThatInteger(len(closing)).Equals(2)
	assert.For(ctx, "close marker first").ThatString(closing[0].CmdName()).Equals("PopMarker")

	assert.For(ctx, "neutralise draw").ThatString(gfx.Neutralise(&gfx.Draw{}).CmdName()).Equals("Nop")
	barrier := &gfx.Barrier{}
	assert.For(ctx, "keep barrier").That(gfx.Neutralise(barrier)).Equals(barrier)

	moved := gfx.RemapAddresses(&gfx.SetVertexBuffer{Address: 0x1000}, func(a uint64) uint64 { return a + 0x100 })
	assert.For(ctx, "remap").That(moved.(*gfx.SetVertexBuffer).Address).Equals(uint64(0x1100))
}
