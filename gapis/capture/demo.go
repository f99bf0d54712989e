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

package capture

import (
	"context"

	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
)

// Resources, heaps and lists of the demo frame.
const (
	DemoVertices   = api.ResourceID(1)
	DemoBackbuffer = api.ResourceID(2)
	DemoUpload     = api.ResourceID(3)
	DemoRTVHeap    = api.ResourceID(10)
	DemoSRVHeap    = api.ResourceID(11)
	DemoQueue      = api.QueueID(1)
	DemoList       = api.ListID(100)
	DemoBundle     = api.ListID(101)
)

// Demo records a small frame: an upload copy wrapped in barriers, a render
// pass with a marker region and a bundle, a present, and a resubmission of
// the same list.
func Demo(ctx context.Context) (*Capture, error) {
	return RecordDemo(ctx, false)
}

// RecordDemo is Demo with optional callstack recording.
func RecordDemo(ctx context.Context, callstacks bool) (*Capture, error) {
	r := New(Options{Callstacks: callstacks, Metadata: Metadata{
		Name:   "demo",
		API:    "D3D12",
		Device: "soft",
		Frame:  1,
		Width:  64,
		Height: 64,
	}})

	for _, cmd := range []gfx.DeviceCmd{
		&gfx.CreateResource{ID: DemoVertices, Desc: api.BufferDesc(0x400), Address: 0x10000},
		&gfx.CreateResource{
			ID:   DemoBackbuffer,
			Desc: api.Texture2DDesc(64, 64, api.FormatR8G8B8A8Typeless, api.AllowRenderTarget),
			Hint: api.FormatR8G8B8A8Unorm,
		},
		&gfx.CreateResource{ID: DemoUpload, Desc: api.BufferDesc(0x100), Address: 0x20000, Backing: 0x200},
		&gfx.CreateHeap{ID: DemoRTVHeap, Kind: descriptor.HeapRTV, Count: 1},
		&gfx.CreateView{Dst: api.DescriptorHandle{Heap: DemoRTVHeap}, View: descriptor.RTVView{Resource: DemoBackbuffer}},
		&gfx.CreateHeap{ID: DemoSRVHeap, Kind: descriptor.HeapCBVSRVUAV, Count: 2},
		&gfx.CreateView{Dst: api.DescriptorHandle{Heap: DemoSRVHeap}, View: descriptor.SRVView{Resource: DemoUpload}},
		&gfx.WriteBuffer{Resource: DemoVertices, Data: []byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0}},
	} {
		if err := r.Device(ctx, cmd); err != nil {
			return nil, err
		}
	}

	if err := r.BeginList(ctx, DemoBundle, true); err != nil {
		return nil, err
	}
	if err := r.RecordCall(ctx, DemoBundle, &gfx.Draw{VertexCount: 6, InstanceCount: 1}); err != nil {
		return nil, err
	}
	bundle, err := r.CloseList(ctx, DemoBundle)
	if err != nil {
		return nil, err
	}

	rtv := api.DescriptorHandle{Heap: DemoRTVHeap}
	if err := r.BeginList(ctx, DemoList, false); err != nil {
		return nil, err
	}
	for _, cmd := range []api.Cmd{
		transition(DemoUpload, api.StateCommon, api.StateCopyDest),
		&gfx.CopyBuffer{Dst: DemoUpload, Src: DemoVertices, Size: 0x100},
		transition(DemoUpload, api.StateCopyDest, api.StateCommon),
		transition(DemoBackbuffer, api.StateCommon, api.StateRenderTarget),
		&gfx.BeginPass{Targets: []api.DescriptorHandle{rtv}},
		&gfx.SetPipeline{Pipeline: 1},
		&gfx.SetDescriptorHeaps{Heaps: []api.ResourceID{DemoSRVHeap}},
		&gfx.SetRootTable{Param: 0, Table: api.DescriptorHandle{Heap: DemoSRVHeap}, Count: 1},
		&gfx.SetVertexBuffer{Slot: 0, Address: 0x10000, Size: 0x400},
		&gfx.PushMarker{Name: "geometry"},
		&gfx.Draw{VertexCount: 3, InstanceCount: 1},
		&gfx.ExecuteBundle{Bundle: bundle.ID},
		&gfx.PopMarker{},
		&gfx.EndPass{},
		transition(DemoBackbuffer, api.StateRenderTarget, api.StateCommon),
	} {
		if err := r.RecordCall(ctx, DemoList, cmd); err != nil {
			return nil, err
		}
	}
	list, err := r.CloseList(ctx, DemoList)
	if err != nil {
		return nil, err
	}

	if err := r.Execute(ctx, DemoQueue, []api.BakedID{list.ID}); err != nil {
		return nil, err
	}
	r.Present(ctx, DemoQueue, DemoBackbuffer)
	if err := r.Execute(ctx, DemoQueue, []api.BakedID{list.ID}); err != nil {
		return nil, err
	}
	return r.Capture(), nil
}

func transition(id api.ResourceID, before, after api.ResourceStates) *gfx.Barrier {
	return &gfx.Barrier{Set: api.BarrierSet{Legacy: []api.LegacyTransition{{
		Resource: id, Subresource: api.AllSubresources, Before: before, After: after,
	}}}}
}
