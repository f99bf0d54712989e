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

import "github.com/baldurk/renderdoc-sub019/core/data/pack"

// Dimension is the shape of a resource.
type Dimension uint8

const (
	DimBuffer Dimension = iota
	DimTexture1D
	DimTexture2D
	DimTexture3D
)

// ResourceFlags are the usage permissions of a resource.
type ResourceFlags uint32

const (
	AllowRenderTarget ResourceFlags = 1 << iota
	AllowDepthStencil
	AllowUnorderedAccess
)

// ResourceDesc describes a resource at creation.
type ResourceDesc struct {
	Dimension        Dimension
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           Format
	Flags            ResourceFlags
}

// BufferDesc returns the description of a buffer of the given size.
func BufferDesc(size uint64) ResourceDesc {
	return ResourceDesc{Dimension: DimBuffer, Width: size, Height: 1, DepthOrArraySize: 1, MipLevels: 1}
}

// Texture2DDesc returns the description of a single mip 2D texture.
func Texture2DDesc(width, height uint32, format Format, flags ResourceFlags) ResourceDesc {
	return ResourceDesc{
		Dimension:        DimTexture2D,
		Width:            uint64(width),
		Height:           height,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           format,
		Flags:            flags,
	}
}

func (d ResourceDesc) mips() uint32 {
	if d.MipLevels == 0 {
		return 1
	}
	return uint32(d.MipLevels)
}

func (d ResourceDesc) arraySize() uint32 {
	if d.Dimension == DimTexture3D || d.DepthOrArraySize == 0 {
		return 1
	}
	return uint32(d.DepthOrArraySize)
}

// Subresources returns the number of independently stateful subresources.
func (d ResourceDesc) Subresources() uint32 {
	if d.Dimension == DimBuffer {
		return 1
	}
	return d.mips() * d.arraySize() * uint32(d.Format.Planes())
}

// Subresource returns the flat subresource index of a mip, array slice and
// plane.
func (d ResourceDesc) Subresource(mip, slice, plane uint32) uint32 {
	return mip + slice*d.mips() + plane*d.mips()*d.arraySize()
}

// ByteSize returns the size of the resource's backing store, counting every
// mip, slice and plane at full size.
func (d ResourceDesc) ByteSize() uint64 {
	if d.Dimension == DimBuffer {
		return d.Width
	}
	h := uint64(d.Height)
	if h == 0 {
		h = 1
	}
	depth := uint64(1)
	if d.Dimension == DimTexture3D {
		depth = uint64(d.DepthOrArraySize)
	}
	texel := d.Format.BytesPerTexel()
	if texel == 0 {
		texel = 4
	}
	return d.Width * h * depth * texel * uint64(d.mips()*d.arraySize()) * uint64(d.Format.Planes())
}

// Encode writes the description to e.
func (d ResourceDesc) Encode(e *pack.Encoder) {
	e.Uint(uint64(d.Dimension)).Uint(d.Width).Uint(uint64(d.Height)).
		Uint(uint64(d.DepthOrArraySize)).Uint(uint64(d.MipLevels)).
		Uint(uint64(d.Format)).Uint(uint64(d.Flags))
}

// Decode reads a description written by Encode.
func (d *ResourceDesc) Decode(dec *pack.Decoder) {
	d.Dimension = Dimension(dec.Uint())
	d.Width = dec.Uint()
	d.Height = dec.Uint32()
	d.DepthOrArraySize = uint16(dec.Uint())
	d.MipLevels = uint16(dec.Uint())
	d.Format = Format(dec.Uint32())
	d.Flags = ResourceFlags(dec.Uint32())
}
