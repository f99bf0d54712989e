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

package soft_test

import (
	"context"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/baldurk/renderdoc-sub019/gapis/replay/soft"
)

const (
	vertices = api.ResourceID(1)
	target   = api.ResourceID(2)
	staging  = api.ResourceID(3)
	rtvHeap  = api.ResourceID(10)
	queries  = api.ResourceID(20)
	queue    = api.QueueID(1)
)

var rtv = api.DescriptorHandle{Heap: rtvHeap}

// setup creates a vertex buffer holding data, a staging buffer and a render
// target with its view.
func setup(ctx context.Context, d *soft.Device, data []byte) {
	for _, cmd := range []gfx.DeviceCmd{
		&gfx.CreateResource{ID: vertices, Desc: api.BufferDesc(0x100), Address: 0x10000},
		&gfx.CreateResource{ID: staging, Desc: api.BufferDesc(0x100), Address: 0x20000},
		&gfx.CreateResource{ID: target, Desc: api.Texture2DDesc(4, 4, api.FormatR8G8B8A8Unorm, api.AllowRenderTarget)},
		&gfx.CreateHeap{ID: rtvHeap, Kind: descriptor.HeapRTV, Count: 1},
		&gfx.CreateView{Dst: rtv, View: descriptor.RTVView{Resource: target}},
		&gfx.WriteBuffer{Resource: vertices, Data: data},
	} {
		assert.For(ctx, "apply %s", cmd.CmdName()).ThatError(d.Apply(ctx, cmd)).Succeeded()
	}
}

func draw(ctx context.Context, d *soft.Device) []byte {
	addr, ok := d.Address(vertices)
	assert.For(ctx, "vertex address").ThatBoolean(ok).IsTrue()
	err := d.Submit(ctx, queue, []api.Cmd{
		&gfx.BeginPass{Targets: []api.DescriptorHandle{rtv}},
		&gfx.SetPipeline{Pipeline: 7},
		&gfx.SetVertexBuffer{Address: addr, Size: 0x100},
		&gfx.Draw{VertexCount: 3, InstanceCount: 1},
		&gfx.EndPass{},
	})
	assert.For(ctx, "submit").ThatError(err).Succeeded()
	assert.For(ctx, "wait").ThatError(d.Wait(ctx)).Succeeded()
	out, err := d.Read(ctx, target)
	assert.For(ctx, "read").ThatError(err).Succeeded()
	return out
}

func TestAddresses(t *testing.T) {
	ctx := log.Testing(t)
	d := soft.New()
	setup(ctx, d, nil)

	a, ok := d.Address(vertices)
	assert.For(ctx, "vertices").ThatBoolean(ok).IsTrue()
	b, ok := d.Address(staging)
	assert.For(ctx, "staging").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "device range").ThatBoolean(a >= soft.Base && b >= soft.Base).IsTrue()
	assert.For(ctx, "distinct").That(a).NotEquals(b)
	assert.For(ctx, "aligned").That(a % 256).Equals(uint64(0))
	_, ok = d.Address(target)
	assert.For(ctx, "texture").ThatBoolean(ok).IsFalse()

	assert.For(ctx, "destroy").ThatError(d.Apply(ctx, &gfx.DestroyResource{ID: staging})).Succeeded()
	_, ok = d.Address(staging)
	assert.For(ctx, "destroyed").ThatBoolean(ok).IsFalse()
	_, err := d.Read(ctx, staging)
	assert.For(ctx, "read destroyed").ThatError(err).HasCause(soft.ErrNoData)
}

func TestCopy(t *testing.T) {
	ctx := log.Testing(t)
	d := soft.New()
	setup(ctx, d, []byte{1, 2, 3, 4})
	err := d.Submit(ctx, queue, []api.Cmd{
		&gfx.CopyBuffer{Dst: staging, DstOffset: 2, Src: vertices, Size: 4},
	})
	assert.For(ctx, "submit").ThatError(err).Succeeded()
	out, err := d.Read(ctx, staging)
	assert.For(ctx, "read").ThatError(err).Succeeded()
	assert.For(ctx, "copied").ThatSlice(out[:6]).Equals([]byte{0, 0, 1, 2, 3, 4})
	stats := d.Stats()
	assert.For(ctx, "submits").ThatInteger(stats.Submits).Equals(1)
	assert.For(ctx, "actions").ThatInteger(stats.Actions).Equals(1)
}

func TestDrawDeterministic(t *testing.T) {
	ctx := log.Testing(t)
	a, b, c := soft.New(), soft.New(), soft.New()
	setup(ctx, a, []byte{1, 2, 3})
	setup(ctx, b, []byte{1, 2, 3})
	setup(ctx, c, []byte{3, 2, 1})

	first := draw(ctx, a)
	assert.For(ctx, "same inputs").ThatSlice(draw(ctx, b)).Equals(first)
	assert.For(ctx, "other vertices").That(string(draw(ctx, c))).NotEquals(string(first))
	assert.For(ctx, "unresolved").ThatInteger(a.Stats().Unresolved).Equals(0)

	assert.For(ctx, "reset").ThatError(a.Reset(ctx)).Succeeded()
	setup(ctx, a, []byte{1, 2, 3})
	assert.For(ctx, "after reset").ThatSlice(draw(ctx, a)).Equals(first)
}

func TestUnbalanced(t *testing.T) {
	ctx := log.Testing(t)
	d := soft.New()
	setup(ctx, d, nil)
	for _, test := range []struct {
		name string
		cmds []api.Cmd
	}{
		{"open marker", []api.Cmd{&gfx.PushMarker{Name: "m"}}},
		{"extra pop", []api.Cmd{&gfx.PopMarker{}}},
		{"open pass", []api.Cmd{&gfx.BeginPass{Targets: []api.DescriptorHandle{rtv}}}},
		{"nested pass", []api.Cmd{&gfx.BeginPass{}, &gfx.BeginPass{}, &gfx.EndPass{}}},
		{"extra end", []api.Cmd{&gfx.EndPass{}}},
	} {
		err := d.Submit(ctx, queue, test.cmds)
		assert.For(ctx, test.name).ThatError(err).HasCause(soft.ErrUnbalanced)
	}
}

func TestQueries(t *testing.T) {
	ctx := log.Testing(t)
	d := soft.New()
	setup(ctx, d, nil)
	err := d.Submit(ctx, queue, []api.Cmd{
		&gfx.EndQuery{Heap: queries, Index: 0, Type: gfx.QueryTimestamp},
		&gfx.BeginQuery{Heap: queries, Index: 2, Type: gfx.QueryOcclusion},
		&gfx.Draw{VertexCount: 3, InstanceCount: 2},
		&gfx.EndQuery{Heap: queries, Index: 2, Type: gfx.QueryOcclusion},
		&gfx.EndQuery{Heap: queries, Index: 1, Type: gfx.QueryTimestamp},
	})
	assert.For(ctx, "submit").ThatError(err).Succeeded()
	res, err := d.QueryResults(ctx, queries)
	assert.For(ctx, "results").ThatError(err).Succeeded()
	assert.For(ctx, "count").ThatSlice(res).IsLength(3)
	assert.For(ctx, "samples").That(res[2]).Equals(uint64(6))
	assert.For(ctx, "elapsed").That(res[1] - res[0]).Equals(4 * soft.Tick)
	assert.For(ctx, "frequency").That(d.TimestampFrequency()).Equals(soft.Frequency)
}

func TestFail(t *testing.T) {
	ctx := log.Testing(t)
	d := soft.New()
	setup(ctx, d, nil)
	d.Fail(replay.ErrDeviceLost)
	assert.For(ctx, "submit").ThatError(d.Submit(ctx, queue, nil)).HasCause(replay.ErrDeviceLost)
	assert.For(ctx, "wait").ThatError(d.Wait(ctx)).HasCause(replay.ErrDeviceLost)
	_, err := d.Read(ctx, target)
	assert.For(ctx, "read").ThatError(err).HasCause(replay.ErrDeviceLost)
	d.Fail(nil)
	assert.For(ctx, "cleared").ThatError(d.Submit(ctx, queue, nil)).Succeeded()
}

func TestOutOfMemory(t *testing.T) {
	ctx := log.Testing(t)
	d := soft.New()
	err := d.Apply(ctx, &gfx.CreateResource{ID: vertices, Desc: api.BufferDesc(16), Address: 0x10000, Backing: soft.Size + 1})
	assert.For(ctx, "alloc").ThatError(err).HasCause(replay.ErrOutOfMemory)
}

func TestDestroyedViewResource(t *testing.T) {
	ctx := log.Testing(t)
	d := soft.New()
	const (
		texture = api.ResourceID(5)
		srvHeap = api.ResourceID(11)
	)
	srv := api.DescriptorHandle{Heap: srvHeap}
	for _, cmd := range []gfx.DeviceCmd{
		&gfx.CreateResource{ID: texture, Desc: api.Texture2DDesc(4, 4, api.FormatR8G8B8A8Unorm, 0)},
		&gfx.CreateHeap{ID: srvHeap, Kind: descriptor.HeapCBVSRVUAV, Count: 1},
		&gfx.CreateView{Dst: srv, View: descriptor.SRVView{Resource: texture, Format: api.FormatR8G8B8A8Unorm}},
	} {
		assert.For(ctx, "apply %s", cmd.CmdName()).ThatError(d.Apply(ctx, cmd)).Succeeded()
	}
	dispatch := []api.Cmd{
		&gfx.SetDescriptorHeaps{Heaps: []api.ResourceID{srvHeap}},
		&gfx.SetRootTable{Param: 0, Table: srv, Count: 1},
		&gfx.Dispatch{X: 1, Y: 1, Z: 1},
	}

	assert.For(ctx, "first dispatch").ThatError(d.Submit(ctx, queue, dispatch)).Succeeded()
	v, ok := d.View(srv)
	assert.For(ctx, "realized").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "live view").That(v.(descriptor.SRVView).Resource).Equals(texture)

	assert.For(ctx, "destroy").ThatError(d.Apply(ctx, &gfx.DestroyResource{ID: texture})).Succeeded()
	assert.For(ctx, "second dispatch").ThatError(d.Submit(ctx, queue, dispatch)).Succeeded()
	v, _ = d.View(srv)
	assert.For(ctx, "null view").That(v).DeepEquals(descriptor.Null(descriptor.SRV))
	assert.For(ctx, "realized twice").That(d.Stats().Realized).Equals(2)

	assert.For(ctx, "third dispatch").ThatError(d.Submit(ctx, queue, dispatch)).Succeeded()
	assert.For(ctx, "cached").That(d.Stats().Realized).Equals(2)
}
