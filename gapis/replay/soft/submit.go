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

package soft

import (
	"context"
	"hash/fnv"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
	"github.com/pkg/errors"
)

// executor runs one submission.
type executor struct {
	ctx     context.Context
	d       *Device
	queue   api.QueueID
	rs      api.RenderState
	markers int
}

// Submit implements replay.Device.
func (d *Device) Submit(ctx context.Context, queue api.QueueID, cmds []api.Cmd) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.fault != nil {
		return d.fault
	}
	d.stats.Submits++
	x := &executor{ctx: ctx, d: d, queue: queue}
	for _, cmd := range cmds {
		if err := x.exec(cmd); err != nil {
			return errors.Wrapf(err, "%s on %v", cmd.CmdName(), queue)
		}
		d.stats.Commands++
		d.clock += Tick
	}
	if x.markers != 0 || x.rs.PassActive {
		return errors.Wrapf(ErrUnbalanced, "%d markers open, pass open: %v", x.markers, x.rs.PassActive)
	}
	return nil
}

func (x *executor) exec(cmd api.Cmd) error {
	if s, ok := cmd.(gfx.StateCmd); ok {
		if _, begin := cmd.(*gfx.BeginPass); begin && x.rs.PassActive {
			return errors.Wrap(ErrUnbalanced, "pass already active")
		}
		if _, end := cmd.(*gfx.EndPass); end && !x.rs.PassActive {
			return errors.Wrap(ErrUnbalanced, "no active pass")
		}
		s.Bind(&x.rs)
		return nil
	}
	if cmd.CmdFlags().IsAction() && !cmd.CmdFlags().IsBarrier() {
		x.d.stats.Actions++
	}
	switch c := cmd.(type) {
	case *gfx.PushMarker:
		x.markers++
	case *gfx.PopMarker:
		if x.markers == 0 {
			return errors.Wrap(ErrUnbalanced, "no open marker")
		}
		x.markers--
	case *gfx.Draw:
		x.draw(uint64(c.VertexCount), uint64(c.InstanceCount), uint64(c.FirstVertex))
	case *gfx.DrawIndexed:
		x.draw(uint64(c.IndexCount), uint64(c.InstanceCount), uint64(c.FirstIndex))
	case *gfx.Dispatch:
		x.tables()
	case *gfx.ExecuteIndirect:
		if _, _, ok := x.resolve(c.ArgAddress); !ok {
			x.d.stats.Unresolved++
		}
		if c.Kind == gfx.IndirectDispatch {
			x.tables()
		} else {
			x.draw(uint64(c.MaxCount), 1, 0)
		}
	case *gfx.CopyBuffer:
		src, dst := x.d.data[c.Src], x.d.data[c.Dst]
		if c.SrcOffset < uint64(len(src)) && c.DstOffset < uint64(len(dst)) {
			end := c.SrcOffset + c.Size
			if end > uint64(len(src)) {
				end = uint64(len(src))
			}
			copy(dst[c.DstOffset:], src[c.SrcOffset:end])
		}
	case *gfx.CopyResource:
		copy(x.d.data[c.Dst], x.d.data[c.Src])
	case *gfx.Resolve:
		copy(x.d.data[c.Dst], x.d.data[c.Src])
	case *gfx.ClearView:
		if id, ok := x.viewResource(c.View); ok {
			fill(x.d.data[id], byte(c.Value[0]*255))
		}
	case *gfx.BeginQuery:
		if c.Type == gfx.QueryOcclusion {
			x.d.active[queryKey{c.Heap, c.Index}] = 0
		}
	case *gfx.EndQuery:
		k := queryKey{c.Heap, c.Index}
		value := x.d.clock
		if c.Type == gfx.QueryOcclusion {
			value = x.d.active[k]
			delete(x.d.active, k)
		}
		x.d.result(k, value)
	}
	return nil
}

func (d *Device) result(k queryKey, value uint64) {
	res := d.queries[k.heap]
	for uint32(len(res)) <= k.index {
		res = append(res, 0)
	}
	res[k.index] = value
	d.queries[k.heap] = res
}

// draw writes to every bound render target bytes derived from the draw,
// the pipeline and the bound vertex data.
func (x *executor) draw(count, instances, first uint64) {
	x.tables()
	for k := range x.d.active {
		x.d.active[k] += count * instances
	}
	h := fnv.New64a()
	word := func(v uint64) {
		var b [8]byte
		for i := range b {
			b[i] = byte(v >> (8 * uint(i)))
		}
		h.Write(b[:])
	}
	word(x.rs.Pipeline)
	word(count)
	word(instances)
	word(first)
	for _, vb := range x.rs.VertexBuffers {
		id, offset, ok := x.resolve(vb.Address)
		if !ok {
			x.d.stats.Unresolved++
			continue
		}
		data := x.d.data[id]
		if offset < uint64(len(data)) {
			h.Write(data[offset:])
		}
	}
	seed := h.Sum64()
	for _, rt := range x.rs.RenderTargets {
		id, ok := x.viewResource(rt)
		if !ok {
			continue
		}
		data := x.d.data[id]
		for i := range data {
			data[i] = data[i]*31 + byte(seed>>(8*uint(i%8)))
		}
	}
}

// tables realizes the descriptors bound through root tables. Slots whose
// contents are unchanged since they were last realized are skipped.
func (x *executor) tables() {
	for _, root := range x.rs.Roots {
		if root.Kind != api.RootTable {
			if _, _, ok := x.resolve(root.Address); !ok {
				x.d.stats.Unresolved++
			}
			continue
		}
		for i := uint32(0); i < root.Count; i++ {
			h := root.Table.Offset(i)
			slot := x.d.state.Descriptor(h)
			if slot == nil {
				log.W(x.ctx, "Root table %v: no descriptor at %v", root.Param, h)
				continue
			}
			if prev, ok := x.d.realized[h]; ok && prev.Equal(slot) {
				continue
			}
			if _, err := slot.Realize(x.ctx, views{x.d}, x.d.state); err != nil {
				log.W(x.ctx, "Realizing %v: %v", h, err)
				continue
			}
			cached := &descriptor.Descriptor{}
			cached.CopyFrom(slot)
			x.d.realized[h] = cached
		}
	}
}

func (x *executor) resolve(addr uint64) (api.ResourceID, uint64, bool) {
	return x.d.state.Addresses.Resolve(addr, memory.Strict)
}

func (x *executor) viewResource(h api.DescriptorHandle) (api.ResourceID, bool) {
	slot := x.d.state.Descriptor(h)
	if slot == nil {
		return 0, false
	}
	switch v := slot.View().(type) {
	case descriptor.RTVView:
		return v.Resource, v.Resource != 0
	case descriptor.DSVView:
		return v.Resource, v.Resource != 0
	case descriptor.UAVView:
		return v.Resource, v.Resource != 0
	}
	return 0, false
}

func fill(data []byte, v byte) {
	for i := range data {
		data[i] = v
	}
}
