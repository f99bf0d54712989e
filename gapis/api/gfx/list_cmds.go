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
	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
)

const maxBindings = 1 << 10

// Barrier records a set of resource state transitions.
type Barrier struct {
	Set api.BarrierSet
}

// SetPipeline binds a pipeline state object.
type SetPipeline struct {
	Pipeline uint64
}

// SetDescriptorHeaps binds the shader visible descriptor heaps.
type SetDescriptorHeaps struct {
	Heaps []api.ResourceID
}

// SetRootTable binds Count descriptors starting at Table to a root parameter.
type SetRootTable struct {
	Param uint32
	Table api.DescriptorHandle
	Count uint32
}

// SetRootView binds a buffer by GPU address to a root parameter.
type SetRootView struct {
	Param   uint32
	Kind    api.RootKind
	Address uint64
}

// SetRenderTargets binds render target and depth descriptors.
type SetRenderTargets struct {
	Targets []api.DescriptorHandle
	Depth   api.DescriptorHandle
}

// SetViewport sets the viewport.
type SetViewport struct {
	Viewport api.Viewport
}

// SetVertexBuffer binds a vertex buffer by GPU address.
type SetVertexBuffer struct {
	Slot    uint32
	Address uint64
	Size    uint64
}

// SetIndexBuffer binds the index buffer by GPU address.
type SetIndexBuffer struct {
	Address uint64
	Size    uint64
}

// Draw is a non-indexed draw.
type Draw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// DrawIndexed is an indexed draw.
type DrawIndexed struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Dispatch is a compute dispatch.
type Dispatch struct {
	X, Y, Z uint32
}

// IndirectKind is the kind of work an ExecuteIndirect performs.
type IndirectKind uint8

const (
	IndirectDraw IndirectKind = iota
	IndirectDrawIndexed
	IndirectDispatch
)

// ExecuteIndirect performs up to MaxCount draws or dispatches whose arguments
// are read from ArgAddress.
type ExecuteIndirect struct {
	Kind       IndirectKind
	ArgAddress uint64
	MaxCount   uint32
}

// CopyBuffer copies Size bytes between buffers.
type CopyBuffer struct {
	Dst       api.ResourceID
	DstOffset uint64
	Src       api.ResourceID
	SrcOffset uint64
	Size      uint64
}

// CopyResource copies the whole of Src into Dst.
type CopyResource struct {
	Dst api.ResourceID
	Src api.ResourceID
}

// ClearView clears the resource behind a render target, depth or unordered
// access descriptor.
type ClearView struct {
	View  api.DescriptorHandle
	Value [4]float32
}

// Resolve resolves a multisampled resource.
type Resolve struct {
	Dst    api.ResourceID
	Src    api.ResourceID
	Format api.Format
}

// QueryType is the type of a GPU query.
type QueryType uint8

const (
	QueryTimestamp QueryType = iota
	QueryOcclusion
)

// BeginQuery starts a query.
type BeginQuery struct {
	Heap  api.ResourceID
	Index uint32
	Type  QueryType
}

// EndQuery ends a query, or writes a timestamp.
type EndQuery struct {
	Heap  api.ResourceID
	Index uint32
	Type  QueryType
}

// PushMarker opens a named marker region.
type PushMarker struct {
	Name string
}

// PopMarker closes the innermost marker region.
type PopMarker struct{}

// SetMarker records a single named marker.
type SetMarker struct {
	Name string
}

// BeginPass begins a render pass on the given targets.
type BeginPass struct {
	Targets []api.DescriptorHandle
	Depth   api.DescriptorHandle
}

// EndPass ends the current render pass.
type EndPass struct{}

// ExecuteBundle executes a baked bundle. The bundle's Count commands are
// inlined immediately after it in the owning list.
type ExecuteBundle struct {
	Bundle api.BakedID
	Count  uint32
}

// Nop takes the place of a command that is not replayed.
type Nop struct {
	Of string
}

func (*Barrier) CmdName() string            { return "Barrier" }
func (*SetPipeline) CmdName() string        { return "SetPipeline" }
func (*SetDescriptorHeaps) CmdName() string { return "SetDescriptorHeaps" }
func (*SetRootTable) CmdName() string       { return "SetRootTable" }
func (*SetRootView) CmdName() string        { return "SetRootView" }
func (*SetRenderTargets) CmdName() string   { return "SetRenderTargets" }
func (*SetViewport) CmdName() string        { return "SetViewport" }
func (*SetVertexBuffer) CmdName() string    { return "SetVertexBuffer" }
func (*SetIndexBuffer) CmdName() string     { return "SetIndexBuffer" }
func (*Draw) CmdName() string               { return "Draw" }
func (*DrawIndexed) CmdName() string        { return "DrawIndexed" }
func (*Dispatch) CmdName() string           { return "Dispatch" }
func (*ExecuteIndirect) CmdName() string    { return "ExecuteIndirect" }
func (*CopyBuffer) CmdName() string         { return "CopyBuffer" }
func (*CopyResource) CmdName() string       { return "CopyResource" }
func (*ClearView) CmdName() string          { return "ClearView" }
func (*Resolve) CmdName() string            { return "Resolve" }
func (*BeginQuery) CmdName() string         { return "BeginQuery" }
func (*EndQuery) CmdName() string           { return "EndQuery" }
func (*PushMarker) CmdName() string         { return "PushMarker" }
func (*PopMarker) CmdName() string          { return "PopMarker" }
func (*SetMarker) CmdName() string          { return "SetMarker" }
func (*BeginPass) CmdName() string          { return "BeginPass" }
func (*EndPass) CmdName() string            { return "EndPass" }
func (*ExecuteBundle) CmdName() string      { return "ExecuteBundle" }
func (*Nop) CmdName() string                { return "Nop" }

func (*Barrier) CmdFlags() api.ActionFlags            { return api.Barrier }
func (*SetPipeline) CmdFlags() api.ActionFlags        { return api.StateChange }
func (*SetDescriptorHeaps) CmdFlags() api.ActionFlags { return api.StateChange }
func (*SetRootTable) CmdFlags() api.ActionFlags       { return api.StateChange }
func (*SetRootView) CmdFlags() api.ActionFlags        { return api.StateChange }
func (*SetRenderTargets) CmdFlags() api.ActionFlags   { return api.StateChange }
func (*SetViewport) CmdFlags() api.ActionFlags        { return api.StateChange }
func (*SetVertexBuffer) CmdFlags() api.ActionFlags    { return api.StateChange }
func (*SetIndexBuffer) CmdFlags() api.ActionFlags     { return api.StateChange }
func (*Draw) CmdFlags() api.ActionFlags               { return api.Draw }
func (*DrawIndexed) CmdFlags() api.ActionFlags        { return api.Draw | api.Indexed }
func (*Dispatch) CmdFlags() api.ActionFlags           { return api.Dispatch }
func (*CopyBuffer) CmdFlags() api.ActionFlags         { return api.Copy }
func (*CopyResource) CmdFlags() api.ActionFlags       { return api.Copy }
func (*ClearView) CmdFlags() api.ActionFlags          { return api.Clear }
func (*Resolve) CmdFlags() api.ActionFlags            { return api.Resolve }
func (*BeginQuery) CmdFlags() api.ActionFlags         { return 0 }
func (*EndQuery) CmdFlags() api.ActionFlags           { return api.Query }
func (*PushMarker) CmdFlags() api.ActionFlags         { return api.PushMarker }
func (*PopMarker) CmdFlags() api.ActionFlags          { return api.PopMarker }
func (*SetMarker) CmdFlags() api.ActionFlags          { return api.SetMarker }
func (*BeginPass) CmdFlags() api.ActionFlags          { return api.BeginPass | api.StateChange }
func (*EndPass) CmdFlags() api.ActionFlags            { return api.EndPass | api.StateChange }
func (*ExecuteBundle) CmdFlags() api.ActionFlags      { return api.ExecuteBundle }
func (*Nop) CmdFlags() api.ActionFlags                { return 0 }

func (c *ExecuteIndirect) CmdFlags() api.ActionFlags {
	switch c.Kind {
	case IndirectDispatch:
		return api.Dispatch | api.Indirect
	case IndirectDrawIndexed:
		return api.Draw | api.Indexed | api.Indirect
	default:
		return api.Draw | api.Indirect
	}
}

func (*Barrier) CmdKind() uint32            { return kindBarrier }
func (*SetPipeline) CmdKind() uint32        { return kindSetPipeline }
func (*SetDescriptorHeaps) CmdKind() uint32 { return kindSetDescriptorHeaps }
func (*SetRootTable) CmdKind() uint32       { return kindSetRootTable }
func (*SetRootView) CmdKind() uint32        { return kindSetRootView }
func (*SetRenderTargets) CmdKind() uint32   { return kindSetRenderTargets }
func (*SetViewport) CmdKind() uint32        { return kindSetViewport }
func (*SetVertexBuffer) CmdKind() uint32    { return kindSetVertexBuffer }
func (*SetIndexBuffer) CmdKind() uint32     { return kindSetIndexBuffer }
func (*Draw) CmdKind() uint32               { return kindDraw }
func (*DrawIndexed) CmdKind() uint32        { return kindDrawIndexed }
func (*Dispatch) CmdKind() uint32           { return kindDispatch }
func (*ExecuteIndirect) CmdKind() uint32    { return kindExecuteIndirect }
func (*CopyBuffer) CmdKind() uint32         { return kindCopyBuffer }
func (*CopyResource) CmdKind() uint32       { return kindCopyResource }
func (*ClearView) CmdKind() uint32          { return kindClearView }
func (*Resolve) CmdKind() uint32            { return kindResolve }
func (*BeginQuery) CmdKind() uint32         { return kindBeginQuery }
func (*EndQuery) CmdKind() uint32           { return kindEndQuery }
func (*PushMarker) CmdKind() uint32         { return kindPushMarker }
func (*PopMarker) CmdKind() uint32          { return kindPopMarker }
func (*SetMarker) CmdKind() uint32          { return kindSetMarker }
func (*BeginPass) CmdKind() uint32          { return kindBeginPass }
func (*EndPass) CmdKind() uint32            { return kindEndPass }
func (*ExecuteBundle) CmdKind() uint32      { return kindExecuteBundle }
func (*Nop) CmdKind() uint32                { return kindNop }

// Bind implements StateCmd.
func (c *SetPipeline) Bind(rs *api.RenderState) { rs.Pipeline = c.Pipeline }

// Bind implements StateCmd.
func (c *SetDescriptorHeaps) Bind(rs *api.RenderState) {
	rs.Heaps = append([]api.ResourceID(nil), c.Heaps...)
}

// Bind implements StateCmd.
func (c *SetRootTable) Bind(rs *api.RenderState) {
	rs.SetRoot(api.RootBinding{Param: c.Param, Kind: api.RootTable, Table: c.Table, Count: c.Count})
}

// Bind implements StateCmd.
func (c *SetRootView) Bind(rs *api.RenderState) {
	rs.SetRoot(api.RootBinding{Param: c.Param, Kind: c.Kind, Address: c.Address})
}

// Bind implements StateCmd.
func (c *SetRenderTargets) Bind(rs *api.RenderState) {
	rs.RenderTargets = append([]api.DescriptorHandle(nil), c.Targets...)
	rs.DepthTarget = c.Depth
}

// Bind implements StateCmd.
func (c *SetViewport) Bind(rs *api.RenderState) { rs.Viewport = c.Viewport }

// Bind implements StateCmd.
func (c *SetVertexBuffer) Bind(rs *api.RenderState) {
	rs.SetVertexBuffer(api.BufferBinding{Slot: c.Slot, Address: c.Address, Size: c.Size})
}

// Bind implements StateCmd.
func (c *SetIndexBuffer) Bind(rs *api.RenderState) {
	rs.IndexBuffer = &api.BufferBinding{Address: c.Address, Size: c.Size}
}

// Bind implements StateCmd.
func (c *BeginPass) Bind(rs *api.RenderState) {
	rs.RenderTargets = append([]api.DescriptorHandle(nil), c.Targets...)
	rs.DepthTarget = c.Depth
	rs.PassActive = true
}

// Bind implements StateCmd.
func (c *EndPass) Bind(rs *api.RenderState) { rs.PassActive = false }

// Remap implements AddressedCmd.
func (c *SetRootView) Remap(f func(uint64) uint64) api.Cmd {
	out := *c
	out.Address = f(c.Address)
	return &out
}

// Remap implements AddressedCmd.
func (c *SetVertexBuffer) Remap(f func(uint64) uint64) api.Cmd {
	out := *c
	out.Address = f(c.Address)
	return &out
}

// Remap implements AddressedCmd.
func (c *SetIndexBuffer) Remap(f func(uint64) uint64) api.Cmd {
	out := *c
	out.Address = f(c.Address)
	return &out
}

// Remap implements AddressedCmd.
func (c *ExecuteIndirect) Remap(f func(uint64) uint64) api.Cmd {
	out := *c
	out.ArgAddress = f(c.ArgAddress)
	return &out
}

// Remap implements AddressedCmd.
func (c *CreateView) Remap(f func(uint64) uint64) api.Cmd {
	out := *c
	if v, ok := c.View.(descriptor.CBVView); ok {
		v.Address = f(v.Address)
		out.View = v
	}
	return &out
}

func encodeHandles(e *pack.Encoder, hs []api.DescriptorHandle) {
	e.Uint(uint64(len(hs)))
	for _, h := range hs {
		encodeHandle(e, h)
	}
}

func decodeHandles(d *pack.Decoder) []api.DescriptorHandle {
	n := d.Count(maxBindings)
	if n == 0 {
		return nil
	}
	out := make([]api.DescriptorHandle, n)
	for i := range out {
		out[i] = decodeHandle(d)
	}
	return out
}

func (c *Barrier) Encode(e *pack.Encoder) { c.Set.Encode(e) }
func (c *Barrier) Decode(d *pack.Decoder) { c.Set.Decode(d) }

func (c *SetPipeline) Encode(e *pack.Encoder) { e.Uint(c.Pipeline) }
func (c *SetPipeline) Decode(d *pack.Decoder) { c.Pipeline = d.Uint() }

func (c *SetDescriptorHeaps) Encode(e *pack.Encoder) {
	e.Uint(uint64(len(c.Heaps)))
	for _, h := range c.Heaps {
		e.Uint(uint64(h))
	}
}

func (c *SetDescriptorHeaps) Decode(d *pack.Decoder) {
	n := d.Count(maxBindings)
	c.Heaps = nil
	for i := 0; i < n; i++ {
		c.Heaps = append(c.Heaps, api.ResourceID(d.Uint()))
	}
}

func (c *SetRootTable) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Param))
	encodeHandle(e, c.Table)
	e.Uint(uint64(c.Count))
}

func (c *SetRootTable) Decode(d *pack.Decoder) {
	c.Param = d.Uint32()
	c.Table = decodeHandle(d)
	c.Count = d.Uint32()
}

func (c *SetRootView) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Param)).Uint(uint64(c.Kind)).Uint(c.Address)
}

func (c *SetRootView) Decode(d *pack.Decoder) {
	c.Param = d.Uint32()
	c.Kind = api.RootKind(d.Uint())
	c.Address = d.Uint()
}

func (c *SetRenderTargets) Encode(e *pack.Encoder) {
	encodeHandles(e, c.Targets)
	encodeHandle(e, c.Depth)
}

func (c *SetRenderTargets) Decode(d *pack.Decoder) {
	c.Targets = decodeHandles(d)
	c.Depth = decodeHandle(d)
}

func (c *SetViewport) Encode(e *pack.Encoder) {
	v := c.Viewport
	e.Float(v.X).Float(v.Y).Float(v.Width).Float(v.Height)
}

func (c *SetViewport) Decode(d *pack.Decoder) {
	c.Viewport = api.Viewport{X: d.Float(), Y: d.Float(), Width: d.Float(), Height: d.Float()}
}

func (c *SetVertexBuffer) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Slot)).Uint(c.Address).Uint(c.Size)
}

func (c *SetVertexBuffer) Decode(d *pack.Decoder) {
	c.Slot = d.Uint32()
	c.Address = d.Uint()
	c.Size = d.Uint()
}

func (c *SetIndexBuffer) Encode(e *pack.Encoder) { e.Uint(c.Address).Uint(c.Size) }
func (c *SetIndexBuffer) Decode(d *pack.Decoder) {
	c.Address = d.Uint()
	c.Size = d.Uint()
}

func (c *Draw) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.VertexCount)).Uint(uint64(c.InstanceCount)).
		Uint(uint64(c.FirstVertex)).Uint(uint64(c.FirstInstance))
}

func (c *Draw) Decode(d *pack.Decoder) {
	c.VertexCount = d.Uint32()
	c.InstanceCount = d.Uint32()
	c.FirstVertex = d.Uint32()
	c.FirstInstance = d.Uint32()
}

func (c *DrawIndexed) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.IndexCount)).Uint(uint64(c.InstanceCount)).Uint(uint64(c.FirstIndex)).
		Int(int64(c.BaseVertex)).Uint(uint64(c.FirstInstance))
}

func (c *DrawIndexed) Decode(d *pack.Decoder) {
	c.IndexCount = d.Uint32()
	c.InstanceCount = d.Uint32()
	c.FirstIndex = d.Uint32()
	c.BaseVertex = int32(d.Int())
	c.FirstInstance = d.Uint32()
}

func (c *Dispatch) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.X)).Uint(uint64(c.Y)).Uint(uint64(c.Z))
}

func (c *Dispatch) Decode(d *pack.Decoder) {
	c.X = d.Uint32()
	c.Y = d.Uint32()
	c.Z = d.Uint32()
}

func (c *ExecuteIndirect) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Kind)).Uint(c.ArgAddress).Uint(uint64(c.MaxCount))
}

func (c *ExecuteIndirect) Decode(d *pack.Decoder) {
	c.Kind = IndirectKind(d.Uint())
	c.ArgAddress = d.Uint()
	c.MaxCount = d.Uint32()
}

func (c *CopyBuffer) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Dst)).Uint(c.DstOffset).Uint(uint64(c.Src)).Uint(c.SrcOffset).Uint(c.Size)
}

func (c *CopyBuffer) Decode(d *pack.Decoder) {
	c.Dst = api.ResourceID(d.Uint())
	c.DstOffset = d.Uint()
	c.Src = api.ResourceID(d.Uint())
	c.SrcOffset = d.Uint()
	c.Size = d.Uint()
}

func (c *CopyResource) Encode(e *pack.Encoder) { e.Uint(uint64(c.Dst)).Uint(uint64(c.Src)) }
func (c *CopyResource) Decode(d *pack.Decoder) {
	c.Dst = api.ResourceID(d.Uint())
	c.Src = api.ResourceID(d.Uint())
}

func (c *ClearView) Encode(e *pack.Encoder) {
	encodeHandle(e, c.View)
	for _, v := range c.Value {
		e.Float(v)
	}
}

func (c *ClearView) Decode(d *pack.Decoder) {
	c.View = decodeHandle(d)
	for i := range c.Value {
		c.Value[i] = d.Float()
	}
}

func (c *Resolve) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Dst)).Uint(uint64(c.Src)).Uint(uint64(c.Format))
}

func (c *Resolve) Decode(d *pack.Decoder) {
	c.Dst = api.ResourceID(d.Uint())
	c.Src = api.ResourceID(d.Uint())
	c.Format = api.Format(d.Uint32())
}

func (c *BeginQuery) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Heap)).Uint(uint64(c.Index)).Uint(uint64(c.Type))
}

func (c *BeginQuery) Decode(d *pack.Decoder) {
	c.Heap = api.ResourceID(d.Uint())
	c.Index = d.Uint32()
	c.Type = QueryType(d.Uint())
}

func (c *EndQuery) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Heap)).Uint(uint64(c.Index)).Uint(uint64(c.Type))
}

func (c *EndQuery) Decode(d *pack.Decoder) {
	c.Heap = api.ResourceID(d.Uint())
	c.Index = d.Uint32()
	c.Type = QueryType(d.Uint())
}

func (c *PushMarker) Encode(e *pack.Encoder) { e.String(c.Name) }
func (c *PushMarker) Decode(d *pack.Decoder) { c.Name = d.String() }

func (*PopMarker) Encode(*pack.Encoder) {}
func (*PopMarker) Decode(*pack.Decoder) {}

func (c *SetMarker) Encode(e *pack.Encoder) { e.String(c.Name) }
func (c *SetMarker) Decode(d *pack.Decoder) { c.Name = d.String() }

func (c *BeginPass) Encode(e *pack.Encoder) {
	encodeHandles(e, c.Targets)
	encodeHandle(e, c.Depth)
}

func (c *BeginPass) Decode(d *pack.Decoder) {
	c.Targets = decodeHandles(d)
	c.Depth = decodeHandle(d)
}

func (*EndPass) Encode(*pack.Encoder) {}
func (*EndPass) Decode(*pack.Decoder) {}

func (c *ExecuteBundle) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Bundle)).Uint(uint64(c.Count))
}

func (c *ExecuteBundle) Decode(d *pack.Decoder) {
	c.Bundle = api.BakedID(d.Uint())
	c.Count = d.Uint32()
}

func (c *Nop) Encode(e *pack.Encoder) { e.String(c.Of) }
func (c *Nop) Decode(d *pack.Decoder) { c.Of = d.String() }
