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

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
)

type usageSet struct {
	seen map[api.ResourceUse]bool
	out  []api.ResourceUse
}

func (u *usageSet) add(id api.ResourceID, usage api.Usage) {
	if id == 0 {
		return
	}
	use := api.ResourceUse{Resource: id, Usage: usage}
	if u.seen == nil {
		u.seen = map[api.ResourceUse]bool{}
	}
	if !u.seen[use] {
		u.seen[use] = true
		u.out = append(u.out, use)
	}
}

type usageResolver struct {
	ctx    context.Context
	s      *State
	policy memory.Policy
	set    usageSet
}

func (r *usageResolver) address(addr uint64, usage api.Usage) {
	if addr == 0 {
		return
	}
	id, _, ok := r.s.Addresses.Resolve(addr, r.policy)
	if !ok {
		log.D(r.ctx, "Address 0x%x does not resolve to a live resource", addr)
		return
	}
	r.set.add(id, usage)
}

func (r *usageResolver) view(h api.DescriptorHandle, usage api.Usage) {
	d := r.s.Descriptor(h)
	if d == nil {
		return
	}
	switch v := d.View().(type) {
	case descriptor.CBVView:
		r.address(v.Address, api.UsageConstants)
	case descriptor.SRVView:
		r.set.add(v.Resource, pick(usage, api.UsageShaderResource))
	case descriptor.UAVView:
		u := pick(usage, api.UsageUnorderedAccess)
		r.set.add(v.Resource, u)
		r.set.add(v.Counter, u)
	case descriptor.RTVView:
		r.set.add(v.Resource, pick(usage, api.UsageColorTarget))
	case descriptor.DSVView:
		r.set.add(v.Resource, pick(usage, api.UsageDepthTarget))
	}
}

func pick(override, def api.Usage) api.Usage {
	if override != api.UsageNone {
		return override
	}
	return def
}

func (r *usageResolver) roots(rs *api.RenderState) {
	for _, b := range rs.Roots {
		switch b.Kind {
		case api.RootTable:
			for i := uint32(0); i < b.Count; i++ {
				r.view(b.Table.Offset(i), api.UsageNone)
			}
		case api.RootCBV:
			r.address(b.Address, api.UsageConstants)
		case api.RootSRV:
			r.address(b.Address, api.UsageShaderResource)
		case api.RootUAV:
			r.address(b.Address, api.UsageUnorderedAccess)
		}
	}
}

func (r *usageResolver) draw(rs *api.RenderState, indexed bool) {
	for _, vb := range rs.VertexBuffers {
		r.address(vb.Address, api.UsageVertexBuffer)
	}
	if indexed && rs.IndexBuffer != nil {
		r.address(rs.IndexBuffer.Address, api.UsageIndexBuffer)
	}
	r.roots(rs)
	for _, rt := range rs.RenderTargets {
		r.view(rt, api.UsageColorTarget)
	}
	if !rs.DepthTarget.IsNull() {
		r.view(rs.DepthTarget, api.UsageDepthTarget)
	}
}

// ResolveUsage returns the resources used by cmd when executed with the
// render state rs, resolving descriptors and addresses against s.
// Each resource and usage pair is listed once, in first use order.
func ResolveUsage(ctx context.Context, s *State, cmd api.Cmd, rs *api.RenderState, policy memory.Policy) []api.ResourceUse {
	r := &usageResolver{ctx: ctx, s: s, policy: policy}
	switch c := cmd.(type) {
	case *Draw:
		r.draw(rs, false)
	case *DrawIndexed:
		r.draw(rs, true)
	case *Dispatch:
		r.roots(rs)
	case *ExecuteIndirect:
		r.address(c.ArgAddress, api.UsageIndirect)
		if c.Kind == IndirectDispatch {
			r.roots(rs)
		} else {
			r.draw(rs, c.Kind == IndirectDrawIndexed)
		}
	case *CopyBuffer:
		r.set.add(c.Src, api.UsageCopySrc)
		r.set.add(c.Dst, api.UsageCopyDst)
	case *CopyResource:
		r.set.add(c.Src, api.UsageCopySrc)
		r.set.add(c.Dst, api.UsageCopyDst)
	case *Resolve:
		r.set.add(c.Src, api.UsageResolveSrc)
		r.set.add(c.Dst, api.UsageResolveDst)
	case *ClearView:
		r.view(c.View, api.UsageClear)
	case *Barrier:
		for _, id := range c.Set.Resources() {
			r.set.add(id, api.UsageBarrier)
		}
	case *Present:
		r.set.add(c.Backbuffer, api.UsagePresent)
	}
	return r.set.out
}
