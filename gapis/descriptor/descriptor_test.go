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

package descriptor_test

import (
	"context"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
)

type resources struct {
	live  map[api.ResourceID]api.ResourceDesc
	hints map[api.ResourceID]api.Format
}

func (r resources) Resource(id api.ResourceID) (api.ResourceDesc, bool) {
	d, ok := r.live[id]
	return d, ok
}

func (r resources) FormatHint(id api.ResourceID) (api.Format, bool) {
	f, ok := r.hints[id]
	return f, ok
}

type device map[api.DescriptorHandle]descriptor.View

func (d device) CreateView(ctx context.Context, h api.DescriptorHandle, v descriptor.View) error {
	d[h] = v
	return nil
}

func newResources() resources {
	return resources{
		live: map[api.ResourceID]api.ResourceDesc{
			1: api.Texture2DDesc(4, 4, api.FormatR8G8B8A8Unorm, api.AllowRenderTarget),
			2: api.Texture2DDesc(4, 4, api.FormatB8G8R8A8Typeless, api.AllowRenderTarget),
			3: api.Texture2DDesc(4, 4, api.FormatR16G16B16A16Typeless, 0),
			4: api.Texture2DDesc(4, 4, api.FormatNV12, 0),
			5: api.Texture2DDesc(4, 4, api.FormatR24G8Typeless, api.AllowDepthStencil),
		},
		hints: map[api.ResourceID]api.Format{2: api.FormatB8G8R8A8UnormSRGB},
	}
}

func TestHeapSlots(t *testing.T) {
	ctx := log.Testing(t)
	heap := descriptor.NewHeap(10, descriptor.HeapCBVSRVUAV, 4)
	assert.For(ctx, "len").That(heap.Len()).Equals(uint32(4))
	assert.For(ctx, "kind").That(heap.Kind()).Equals(descriptor.HeapCBVSRVUAV)
	assert.For(ctx, "out of range").That(heap.Slot(4)).IsNil()

	slot := heap.Slot(2)
	assert.For(ctx, "handle").That(slot.Handle()).Equals(api.DescriptorHandle{Heap: 10, Index: 2})
	assert.For(ctx, "undefined").That(slot.Type()).Equals(descriptor.Undefined)

	assert.For(ctx, "init srv").ThatError(slot.Init(descriptor.SRVView{Resource: 1})).Succeeded()
	assert.For(ctx, "type").That(slot.Type()).Equals(descriptor.SRV)
	assert.For(ctx, "init rtv").ThatError(slot.Init(descriptor.RTVView{Resource: 1})).HasCause(descriptor.ErrWrongHeap)
	assert.For(ctx, "unchanged").That(slot.Type()).Equals(descriptor.SRV)

	slot.Reset()
	assert.For(ctx, "reset").That(slot.View()).IsNil()
}

func TestCopyKeepsIdentity(t *testing.T) {
	ctx := log.Testing(t)
	a := descriptor.NewHeap(10, descriptor.HeapCBVSRVUAV, 4)
	b := descriptor.NewHeap(11, descriptor.HeapCBVSRVUAV, 4)
	a.Slot(0).Init(descriptor.CBVView{Address: 0x1000, Size: 256})
	a.Slot(1).Init(descriptor.SRVView{Resource: 1})

	b.Slot(3).CopyFrom(a.Slot(1))
	assert.For(ctx, "copied").ThatBoolean(b.Slot(3).Equal(a.Slot(1))).IsTrue()
	assert.For(ctx, "identity").That(b.Slot(3).Handle()).Equals(api.DescriptorHandle{Heap: 11, Index: 3})

	assert.For(ctx, "range").ThatError(b.Copy(1, a, 0, 2)).Succeeded()
	assert.For(ctx, "range 0").That(b.Slot(1).View()).Equals(descriptor.CBVView{Address: 0x1000, Size: 256})
	assert.For(ctx, "range 1").That(b.Slot(2).Handle()).Equals(api.DescriptorHandle{Heap: 11, Index: 2})
	assert.For(ctx, "overflow").ThatError(b.Copy(3, a, 0, 2)).HasCause(descriptor.ErrOutOfRange)

	// Overlapping copy within one heap.
	assert.For(ctx, "overlap").ThatError(a.Copy(1, a, 0, 2)).Succeeded()
	assert.For(ctx, "overlap 1").That(a.Slot(1).View()).Equals(descriptor.CBVView{Address: 0x1000, Size: 256})
	assert.For(ctx, "overlap 2").That(a.Slot(2).View()).Equals(descriptor.SRVView{Resource: 1})

	rtv := descriptor.NewHeap(12, descriptor.HeapRTV, 1)
	assert.For(ctx, "wrong kind").ThatError(rtv.Copy(0, a, 0, 1)).HasCause(descriptor.ErrWrongHeap)
}

func TestRealize(t *testing.T) {
	ctx := log.Testing(t)
	res := newResources()
	heap := descriptor.NewHeap(10, descriptor.HeapCBVSRVUAV, 8)
	for _, test := range []struct {
		name     string
		view     descriptor.View
		expected descriptor.View
	}{
		{"plain",
			descriptor.SRVView{Resource: 1, Format: api.FormatR8G8B8A8Unorm, Dimension: api.DimTexture2D},
			descriptor.SRVView{Resource: 1, Format: api.FormatR8G8B8A8Unorm, Dimension: api.DimTexture2D}},
		{"dead resource",
			descriptor.SRVView{Resource: 99, Format: api.FormatR32Float, Dimension: api.DimTexture2D},
			descriptor.Null(descriptor.SRV)},
		{"format from resource",
			descriptor.SRVView{Resource: 1, Dimension: api.DimTexture2D},
			descriptor.SRVView{Resource: 1, Format: api.FormatR8G8B8A8Unorm, Dimension: api.DimTexture2D}},
		{"typeless with hint",
			descriptor.SRVView{Resource: 2, Dimension: api.DimTexture2D},
			descriptor.SRVView{Resource: 2, Format: api.FormatB8G8R8A8UnormSRGB, Dimension: api.DimTexture2D}},
		{"typeless without hint",
			descriptor.UAVView{Resource: 3, Format: api.FormatR16G16B16A16Typeless, Dimension: api.DimTexture2D},
			descriptor.UAVView{Resource: 3, Format: api.FormatR16G16B16A16Float, Dimension: api.DimTexture2D}},
		{"chroma plane",
			descriptor.SRVView{Resource: 4, Format: api.FormatR8G8Unorm, Dimension: api.DimTexture2D},
			descriptor.SRVView{Resource: 4, Format: api.FormatR8G8Unorm, Dimension: api.DimTexture2D,
				Subresources: descriptor.Subresources{PlaneSlice: 1}}},
		{"stencil plane",
			descriptor.SRVView{Resource: 5, Format: api.FormatX24TypelessG8Uint, Dimension: api.DimTexture2D},
			descriptor.SRVView{Resource: 5, Format: api.FormatX24TypelessG8Uint, Dimension: api.DimTexture2D,
				Subresources: descriptor.Subresources{PlaneSlice: 1}}},
		{"dead counter",
			descriptor.UAVView{Resource: 1, Counter: 98, Format: api.FormatR8G8B8A8Unorm},
			descriptor.UAVView{Resource: 1, Format: api.FormatR8G8B8A8Unorm}},
		{"constants",
			descriptor.CBVView{Address: 0x1000, Size: 256},
			descriptor.CBVView{Address: 0x1000, Size: 256}},
	} {
		dev := device{}
		slot := heap.Slot(0)
		assert.For(ctx, "%s init", test.name).ThatError(slot.Init(test.view)).Succeeded()
		got, err := slot.Realize(ctx, dev, res)
		assert.For(ctx, "%s err", test.name).ThatError(err).Succeeded()
		assert.For(ctx, "%s view", test.name).That(got).Equals(test.expected)
		assert.For(ctx, "%s native", test.name).That(dev[slot.Handle()]).Equals(test.expected)
		assert.For(ctx, "%s logical kept", test.name).That(slot.View()).Equals(test.view)
	}
}

func TestRealizeDepth(t *testing.T) {
	ctx := log.Testing(t)
	heap := descriptor.NewHeap(20, descriptor.HeapDSV, 1)
	heap.Slot(0).Init(descriptor.DSVView{Resource: 5, Dimension: api.DimTexture2D})
	got, _ := heap.Slot(0).Realize(ctx, device{}, newResources())
	assert.For(ctx, "dsv").That(got).Equals(descriptor.DSVView{Resource: 5, Format: api.FormatD24UnormS8Uint, Dimension: api.DimTexture2D})

	dev := device{}
	heap.Slot(0).Reset()
	got, err := heap.Slot(0).Realize(ctx, dev, newResources())
	assert.For(ctx, "undefined err").ThatError(err).Succeeded()
	assert.For(ctx, "undefined").That(got).IsNil()
	assert.For(ctx, "nothing created").ThatInteger(len(dev)).Equals(0)
}

func TestViewCodec(t *testing.T) {
	ctx := log.Testing(t)
	for _, v := range []descriptor.View{
		nil,
		descriptor.SamplerView{Filter: 1, AddressMode: 2, MaxAnisotropy: 16, MipLODBias: 0.5},
		descriptor.CBVView{Address: 0xdead0000, Size: 512},
		descriptor.SRVView{Resource: 3, Format: api.FormatR32Float, Dimension: api.DimTexture2D,
			Subresources: descriptor.Subresources{Mip: 1, MipCount: 2, SliceCount: 1}},
		descriptor.UAVView{Resource: 3, Counter: 4, Format: api.FormatR32Uint, Dimension: api.DimBuffer},
		descriptor.RTVView{Resource: 5, Format: api.FormatB8G8R8A8Unorm, Dimension: api.DimTexture2D},
		descriptor.DSVView{Resource: 6, Format: api.FormatD32Float, Dimension: api.DimTexture2D, ReadOnly: true},
	} {
		e := pack.NewEncoder()
		descriptor.EncodeView(e, v)
		d := pack.NewDecoder(e.Bytes())
		got := descriptor.DecodeView(d)
		assert.For(ctx, "%v err", descriptor.TypeOf(v)).ThatError(d.Err()).Succeeded()
		assert.For(ctx, "%v", descriptor.TypeOf(v)).That(got).Equals(v)
	}
	assert.For(ctx, "resources").ThatSlice(descriptor.ViewResources(descriptor.UAVView{Resource: 3, Counter: 4})).
		Equals([]api.ResourceID{3, 4})
}
