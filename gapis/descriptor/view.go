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

package descriptor

import (
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
)

// Type is the kind of view held by a descriptor slot.
type Type uint8

const (
	Undefined Type = iota
	Sampler
	CBV
	SRV
	UAV
	RTV
	DSV
)

var typeNames = []string{"Undefined", "Sampler", "CBV", "SRV", "UAV", "RTV", "DSV"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type<%d>", uint8(t))
}

// View is the logical contents of a descriptor slot. It is one of
// SamplerView, CBVView, SRVView, UAVView, RTVView or DSVView; a nil View is
// an undefined slot. Every View is comparable with ==.
type View interface {
	isView()
	// Type returns the kind of the view.
	Type() Type
}

// SamplerView is a sampler.
type SamplerView struct {
	Filter        uint32
	AddressMode   uint32
	MaxAnisotropy uint32
	MipLODBias    float32
}

// CBVView is a constant buffer view, addressed by GPU virtual address.
type CBVView struct {
	Address uint64
	Size    uint32
}

// Subresources selects the mips, array slices and plane a view covers.
type Subresources struct {
	Mip        uint32
	MipCount   uint32
	FirstSlice uint32
	SliceCount uint32
	PlaneSlice uint32
}

// SRVView is a shader resource view.
type SRVView struct {
	Resource  api.ResourceID
	Format    api.Format
	Dimension api.Dimension
	Subresources
}

// UAVView is an unordered access view.
type UAVView struct {
	Resource  api.ResourceID
	Counter   api.ResourceID
	Format    api.Format
	Dimension api.Dimension
	Subresources
}

// RTVView is a render target view.
type RTVView struct {
	Resource  api.ResourceID
	Format    api.Format
	Dimension api.Dimension
	Subresources
}

// DSVView is a depth stencil view.
type DSVView struct {
	Resource  api.ResourceID
	Format    api.Format
	Dimension api.Dimension
	ReadOnly  bool
	Subresources
}

func (SamplerView) isView() {}
func (CBVView) isView()     {}
func (SRVView) isView()     {}
func (UAVView) isView()     {}
func (RTVView) isView()     {}
func (DSVView) isView()     {}

func (SamplerView) Type() Type { return Sampler }
func (CBVView) Type() Type     { return CBV }
func (SRVView) Type() Type     { return SRV }
func (UAVView) Type() Type     { return UAV }
func (RTVView) Type() Type     { return RTV }
func (DSVView) Type() Type     { return DSV }

// TypeOf returns the type of v, Undefined for nil.
func TypeOf(v View) Type {
	if v == nil {
		return Undefined
	}
	return v.Type()
}

// ViewResources returns the resources referenced by v by id. Constant buffer
// views reference memory by address and return nothing.
func ViewResources(v View) []api.ResourceID {
	switch v := v.(type) {
	case SRVView:
		return []api.ResourceID{v.Resource}
	case UAVView:
		if v.Counter != 0 {
			return []api.ResourceID{v.Resource, v.Counter}
		}
		return []api.ResourceID{v.Resource}
	case RTVView:
		return []api.ResourceID{v.Resource}
	case DSVView:
		return []api.ResourceID{v.Resource}
	default:
		return nil
	}
}

// Null returns the view used in place of a view of type t whose resource
// no longer exists.
func Null(t Type) View {
	switch t {
	case SRV:
		return SRVView{Format: api.FormatR8G8B8A8Unorm, Dimension: api.DimTexture2D, Subresources: Subresources{MipCount: 1, SliceCount: 1}}
	case UAV:
		return UAVView{Format: api.FormatR8G8B8A8Unorm, Dimension: api.DimTexture2D, Subresources: Subresources{MipCount: 1, SliceCount: 1}}
	case RTV:
		return RTVView{Format: api.FormatR8G8B8A8Unorm, Dimension: api.DimTexture2D, Subresources: Subresources{MipCount: 1, SliceCount: 1}}
	case DSV:
		return DSVView{Format: api.FormatD32Float, Dimension: api.DimTexture2D, Subresources: Subresources{MipCount: 1, SliceCount: 1}}
	case CBV:
		return CBVView{}
	case Sampler:
		return SamplerView{}
	default:
		return nil
	}
}

func encodeSubresources(e *pack.Encoder, s Subresources) {
	e.Uint(uint64(s.Mip)).Uint(uint64(s.MipCount)).Uint(uint64(s.FirstSlice)).
		Uint(uint64(s.SliceCount)).Uint(uint64(s.PlaneSlice))
}

func decodeSubresources(d *pack.Decoder) Subresources {
	return Subresources{
		Mip:        d.Uint32(),
		MipCount:   d.Uint32(),
		FirstSlice: d.Uint32(),
		SliceCount: d.Uint32(),
		PlaneSlice: d.Uint32(),
	}
}

// EncodeView writes v to e.
func EncodeView(e *pack.Encoder, v View) {
	e.Uint(uint64(TypeOf(v)))
	switch v := v.(type) {
	case SamplerView:
		e.Uint(uint64(v.Filter)).Uint(uint64(v.AddressMode)).Uint(uint64(v.MaxAnisotropy)).Float(v.MipLODBias)
	case CBVView:
		e.Uint(v.Address).Uint(uint64(v.Size))
	case SRVView:
		e.Uint(uint64(v.Resource)).Uint(uint64(v.Format)).Uint(uint64(v.Dimension))
		encodeSubresources(e, v.Subresources)
	case UAVView:
		e.Uint(uint64(v.Resource)).Uint(uint64(v.Counter)).Uint(uint64(v.Format)).Uint(uint64(v.Dimension))
		encodeSubresources(e, v.Subresources)
	case RTVView:
		e.Uint(uint64(v.Resource)).Uint(uint64(v.Format)).Uint(uint64(v.Dimension))
		encodeSubresources(e, v.Subresources)
	case DSVView:
		e.Uint(uint64(v.Resource)).Uint(uint64(v.Format)).Uint(uint64(v.Dimension)).Bool(v.ReadOnly)
		encodeSubresources(e, v.Subresources)
	}
}

// DecodeView reads a view written by EncodeView.
func DecodeView(d *pack.Decoder) View {
	switch Type(d.Uint()) {
	case Undefined:
		return nil
	case Sampler:
		return SamplerView{Filter: d.Uint32(), AddressMode: d.Uint32(), MaxAnisotropy: d.Uint32(), MipLODBias: d.Float()}
	case CBV:
		return CBVView{Address: d.Uint(), Size: d.Uint32()}
	case SRV:
		return SRVView{Resource: api.ResourceID(d.Uint()), Format: api.Format(d.Uint32()),
			Dimension: api.Dimension(d.Uint()), Subresources: decodeSubresources(d)}
	case UAV:
		return UAVView{Resource: api.ResourceID(d.Uint()), Counter: api.ResourceID(d.Uint()),
			Format: api.Format(d.Uint32()), Dimension: api.Dimension(d.Uint()), Subresources: decodeSubresources(d)}
	case RTV:
		return RTVView{Resource: api.ResourceID(d.Uint()), Format: api.Format(d.Uint32()),
			Dimension: api.Dimension(d.Uint()), Subresources: decodeSubresources(d)}
	case DSV:
		return DSVView{Resource: api.ResourceID(d.Uint()), Format: api.Format(d.Uint32()),
			Dimension: api.Dimension(d.Uint()), ReadOnly: d.Bool(), Subresources: decodeSubresources(d)}
	default:
		d.Fail(pack.ErrMalformed)
		return nil
	}
}
