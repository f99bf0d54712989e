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

import "github.com/baldurk/renderdoc-sub019/gapis/api"

// RestoreState returns the commands that rebind rs on a fresh list.
// If rs has an active pass, the pass is begun last.
func RestoreState(rs api.RenderState) []api.Cmd {
	out := []api.Cmd{&SetPipeline{Pipeline: rs.Pipeline}}
	if len(rs.Heaps) > 0 {
		out = append(out, &SetDescriptorHeaps{Heaps: append([]api.ResourceID(nil), rs.Heaps...)})
	}
	for _, r := range rs.Roots {
		if r.Kind == api.RootTable {
			out = append(out, &SetRootTable{Param: r.Param, Table: r.Table, Count: r.Count})
		} else {
			out = append(out, &SetRootView{Param: r.Param, Kind: r.Kind, Address: r.Address})
		}
	}
	for _, vb := range rs.VertexBuffers {
		out = append(out, &SetVertexBuffer{Slot: vb.Slot, Address: vb.Address, Size: vb.Size})
	}
	if ib := rs.IndexBuffer; ib != nil {
		out = append(out, &SetIndexBuffer{Address: ib.Address, Size: ib.Size})
	}
	out = append(out, &SetViewport{Viewport: rs.Viewport})
	targets := append([]api.DescriptorHandle(nil), rs.RenderTargets...)
	switch {
	case rs.PassActive:
		out = append(out, &BeginPass{Targets: targets, Depth: rs.DepthTarget})
	case len(targets) > 0 || !rs.DepthTarget.IsNull():
		out = append(out, &SetRenderTargets{Targets: targets, Depth: rs.DepthTarget})
	}
	return out
}

// CloseScopes returns the commands closing the scopes returned by
// BakedList.OpenScopes, innermost first.
func CloseScopes(open []api.ActionFlags) []api.Cmd {
	out := make([]api.Cmd, 0, len(open))
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == api.BeginPass {
			out = append(out, &EndPass{})
		} else {
			out = append(out, &PopMarker{})
		}
	}
	return out
}

// Neutralise returns the command to replay in place of cmd when its work
// must be skipped. Barriers and state changes are kept so that the list
// leaves resources and bindings as recorded.
func Neutralise(cmd api.Cmd) api.Cmd {
	f := cmd.CmdFlags()
	if f.IsBarrier() || f.IsStateChange() || !f.IsAction() {
		return cmd
	}
	return &Nop{Of: cmd.CmdName()}
}

// RemapAddresses returns cmd with every GPU address translated by f.
// Commands without addresses are returned unchanged.
func RemapAddresses(cmd api.Cmd, f func(uint64) uint64) api.Cmd {
	if a, ok := cmd.(AddressedCmd); ok {
		return a.Remap(f)
	}
	return cmd
}
