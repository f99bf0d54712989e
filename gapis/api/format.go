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

import "fmt"

// Format is a texel format.
type Format uint32

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8Typeless
	FormatR8G8B8A8Unorm
	FormatR8G8B8A8UnormSRGB
	FormatB8G8R8A8Typeless
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8UnormSRGB
	FormatR10G10B10A2Typeless
	FormatR10G10B10A2Unorm
	FormatR16G16B16A16Typeless
	FormatR16G16B16A16Float
	FormatR32Typeless
	FormatR32Float
	FormatR32Uint
	FormatR24G8Typeless
	FormatD24UnormS8Uint
	FormatR24UnormX8Typeless
	FormatX24TypelessG8Uint
	FormatD32Float
	FormatR8Unorm
	FormatR8G8Unorm
	FormatR16Unorm
	FormatR16G16Unorm
	FormatNV12
	FormatP010
	formatCount
)

type formatInfo struct {
	name   string
	bytes  uint64 // bytes per texel of the first plane
	typed  Format // default typed format for typeless formats
	planes []Format
}

var formats = [formatCount]formatInfo{
	FormatUnknown:              {"Unknown", 0, 0, nil},
	FormatR8G8B8A8Typeless:     {"R8G8B8A8_TYPELESS", 4, FormatR8G8B8A8Unorm, nil},
	FormatR8G8B8A8Unorm:        {"R8G8B8A8_UNORM", 4, 0, nil},
	FormatR8G8B8A8UnormSRGB:    {"R8G8B8A8_UNORM_SRGB", 4, 0, nil},
	FormatB8G8R8A8Typeless:     {"B8G8R8A8_TYPELESS", 4, FormatB8G8R8A8Unorm, nil},
	FormatB8G8R8A8Unorm:        {"B8G8R8A8_UNORM", 4, 0, nil},
	FormatB8G8R8A8UnormSRGB:    {"B8G8R8A8_UNORM_SRGB", 4, 0, nil},
	FormatR10G10B10A2Typeless:  {"R10G10B10A2_TYPELESS", 4, FormatR10G10B10A2Unorm, nil},
	FormatR10G10B10A2Unorm:     {"R10G10B10A2_UNORM", 4, 0, nil},
	FormatR16G16B16A16Typeless: {"R16G16B16A16_TYPELESS", 8, FormatR16G16B16A16Float, nil},
	FormatR16G16B16A16Float:    {"R16G16B16A16_FLOAT", 8, 0, nil},
	FormatR32Typeless:          {"R32_TYPELESS", 4, FormatR32Float, nil},
	FormatR32Float:             {"R32_FLOAT", 4, 0, nil},
	FormatR32Uint:              {"R32_UINT", 4, 0, nil},
	FormatR24G8Typeless:        {"R24G8_TYPELESS", 4, FormatD24UnormS8Uint, []Format{FormatR24UnormX8Typeless, FormatX24TypelessG8Uint}},
	FormatD24UnormS8Uint:       {"D24_UNORM_S8_UINT", 4, 0, []Format{FormatR24UnormX8Typeless, FormatX24TypelessG8Uint}},
	FormatR24UnormX8Typeless:   {"R24_UNORM_X8_TYPELESS", 4, 0, nil},
	FormatX24TypelessG8Uint:    {"X24_TYPELESS_G8_UINT", 4, 0, nil},
	FormatD32Float:             {"D32_FLOAT", 4, 0, nil},
	FormatR8Unorm:              {"R8_UNORM", 1, 0, nil},
	FormatR8G8Unorm:            {"R8G8_UNORM", 2, 0, nil},
	FormatR16Unorm:             {"R16_UNORM", 2, 0, nil},
	FormatR16G16Unorm:          {"R16G16_UNORM", 4, 0, nil},
	FormatNV12:                 {"NV12", 1, 0, []Format{FormatR8Unorm, FormatR8G8Unorm}},
	FormatP010:                 {"P010", 2, 0, []Format{FormatR16Unorm, FormatR16G16Unorm}},
}

func (f Format) info() formatInfo {
	if f < formatCount {
		return formats[f]
	}
	return formatInfo{name: fmt.Sprintf("Format<%d>", uint32(f))}
}

func (f Format) String() string { return f.info().name }

// IsTypeless returns true if the format needs a typed view format before
// it can be sampled or rendered.
func (f Format) IsTypeless() bool { return f.info().typed != FormatUnknown }

// Typed returns the default typed format for a typeless format, or f itself.
func (f Format) Typed() Format {
	if t := f.info().typed; t != FormatUnknown {
		return t
	}
	return f
}

// Planes returns the number of planes of the format.
func (f Format) Planes() int {
	if p := len(f.info().planes); p > 0 {
		return p
	}
	return 1
}

// PlaneFor returns the plane of a planar format that a view of the given
// format reads, and true if view selects a plane of f.
func (f Format) PlaneFor(view Format) (int, bool) {
	for i, p := range f.info().planes {
		if p == view {
			return i, true
		}
	}
	return 0, false
}

// BytesPerTexel returns the size of a texel of the first plane.
func (f Format) BytesPerTexel() uint64 { return f.info().bytes }
