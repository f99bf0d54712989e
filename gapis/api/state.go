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
	"strings"

	"github.com/baldurk/renderdoc-sub019/core/data/pack"
)

// ResourceStates is the legacy access state bitfield of a subresource.
type ResourceStates uint32

const (
	StateCommon                  ResourceStates = 0
	StateVertexAndConstantBuffer ResourceStates = 0x1
	StateIndexBuffer             ResourceStates = 0x2
	StateRenderTarget            ResourceStates = 0x4
	StateUnorderedAccess         ResourceStates = 0x8
	StateDepthWrite              ResourceStates = 0x10
	StateDepthRead               ResourceStates = 0x20
	StateNonPixelShaderResource  ResourceStates = 0x40
	StatePixelShaderResource     ResourceStates = 0x80
	StateStreamOut               ResourceStates = 0x100
	StateIndirectArgument        ResourceStates = 0x200
	StateCopyDest                ResourceStates = 0x400
	StateCopySource              ResourceStates = 0x800
	StateResolveDest             ResourceStates = 0x1000
	StateResolveSource           ResourceStates = 0x2000

	StatePresent     = StateCommon
	StateGenericRead = StateVertexAndConstantBuffer | StateIndexBuffer | StateNonPixelShaderResource |
		StatePixelShaderResource | StateIndirectArgument | StateCopySource
)

var stateNames = []string{
	"VertexAndConstantBuffer", "IndexBuffer", "RenderTarget", "UnorderedAccess",
	"DepthWrite", "DepthRead", "NonPixelShaderResource", "PixelShaderResource",
	"StreamOut", "IndirectArgument", "CopyDest", "CopySource", "ResolveDest",
	"ResolveSource",
}

func (s ResourceStates) String() string {
	if s == StateCommon {
		return "Common"
	}
	parts := []string{}
	for i, n := range stateNames {
		if s&(1<<uint(i)) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}

// Layout is the memory layout of a subresource under layout based barriers.
type Layout uint32

const (
	LayoutCommon Layout = iota
	LayoutPresent
	LayoutGenericRead
	LayoutRenderTarget
	LayoutUnorderedAccess
	LayoutDepthStencilWrite
	LayoutDepthStencilRead
	LayoutShaderResource
	LayoutCopySource
	LayoutCopyDest
	LayoutResolveSource
	LayoutResolveDest

	// LayoutUndefined is the layout of a subresource whose contents have
	// not been defined since creation or aliasing.
	LayoutUndefined Layout = 0xffffffff
)

var layoutNames = []string{
	"Common", "Present", "GenericRead", "RenderTarget", "UnorderedAccess",
	"DepthStencilWrite", "DepthStencilRead", "ShaderResource", "CopySource",
	"CopyDest", "ResolveSource", "ResolveDest",
}

func (l Layout) String() string {
	if l == LayoutUndefined {
		return "Undefined"
	}
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("Layout<%d>", uint32(l))
}

// Access is the access bitfield of a layout based barrier.
type Access uint32

const (
	AccessCommon            Access = 0
	AccessVertexBuffer      Access = 0x1
	AccessConstantBuffer    Access = 0x2
	AccessIndexBuffer       Access = 0x4
	AccessRenderTarget      Access = 0x8
	AccessUnorderedAccess   Access = 0x10
	AccessDepthStencilWrite Access = 0x20
	AccessDepthStencilRead  Access = 0x40
	AccessShaderResource    Access = 0x80
	AccessIndirectArgument  Access = 0x200
	AccessCopyDest          Access = 0x400
	AccessCopySource        Access = 0x800
	AccessResolveDest       Access = 0x1000
	AccessResolveSource     Access = 0x2000
	AccessNoAccess          Access = 0x80000000
)

// Sync is the synchronization scope bitfield of a layout based barrier.
type Sync uint32

const (
	SyncNone            Sync = 0
	SyncAll             Sync = 0x1
	SyncDraw            Sync = 0x2
	SyncIndexInput      Sync = 0x4
	SyncVertexShading   Sync = 0x8
	SyncPixelShading    Sync = 0x10
	SyncDepthStencil    Sync = 0x20
	SyncRenderTarget    Sync = 0x40
	SyncComputeShading  Sync = 0x80
	SyncCopy            Sync = 0x400
	SyncResolve         Sync = 0x800
	SyncExecuteIndirect Sync = 0x1000
)

// SubresourceState is the tracked state of one subresource.
// It is either a LegacyState or a LayoutState; both are comparable with ==.
type SubresourceState interface {
	isSubresourceState()
	// IsCommon returns true if the state is the universal common state of
	// its form.
	IsCommon() bool
	String() string
}

// LegacyState is a subresource tracked with legacy state bits.
type LegacyState struct {
	States ResourceStates
}

// LayoutState is a subresource tracked with a layout, access and sync scope.
type LayoutState struct {
	Layout Layout
	Access Access
	Sync   Sync
}

func (LegacyState) isSubresourceState() {}
func (LayoutState) isSubresourceState() {}

// IsCommon returns true if the states are the common state.
func (s LegacyState) IsCommon() bool { return s.States == StateCommon }

// IsCommon returns true if the layout is the common layout.
func (s LayoutState) IsCommon() bool { return s.Layout == LayoutCommon }

func (s LegacyState) String() string { return s.States.String() }
func (s LayoutState) String() string {
	return fmt.Sprintf("%v(access: %#x, sync: %#x)", s.Layout, uint32(s.Access), uint32(s.Sync))
}

// CommonLegacy is the legacy form of the universal common state.
var CommonLegacy = LegacyState{StateCommon}

// CommonLayout is the layout form of the universal common state.
var CommonLayout = LayoutState{Layout: LayoutCommon, Access: AccessCommon, Sync: SyncNone}

const (
	stateTagLegacy = 1
	stateTagLayout = 2
)

// EncodeState writes s to e.
func EncodeState(e *pack.Encoder, s SubresourceState) {
	switch s := s.(type) {
	case LegacyState:
		e.Uint(stateTagLegacy).Uint(uint64(s.States))
	case LayoutState:
		e.Uint(stateTagLayout).Uint(uint64(s.Layout)).Uint(uint64(s.Access)).Uint(uint64(s.Sync))
	default:
		e.Uint(0)
	}
}

// DecodeState reads a state written by EncodeState.
// A nil state is returned, and d put into the error state, for unknown forms.
func DecodeState(d *pack.Decoder) SubresourceState {
	switch d.Uint() {
	case stateTagLegacy:
		return LegacyState{ResourceStates(d.Uint32())}
	case stateTagLayout:
		return LayoutState{Layout(d.Uint32()), Access(d.Uint32()), Sync(d.Uint32())}
	default:
		d.Fail(pack.ErrMalformed)
		return nil
	}
}
