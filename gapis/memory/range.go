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

package memory

import (
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/math/interval"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
)

// Range is a GPU virtual address interval owned by a resource.
type Range struct {
	// Start is the address of the first byte of the resource.
	Start uint64
	// RealEnd is one byte beyond the logical end of the resource.
	RealEnd uint64
	// OOBEnd is one byte beyond the end of the resource's backing store.
	// It is never less than RealEnd.
	OOBEnd uint64
	// Resource is the owner of the range.
	Resource api.ResourceID
}

// NewRange returns the range of a resource of size bytes at start, backed by
// backing bytes. A backing smaller than size is treated as size.
func NewRange(id api.ResourceID, start, size, backing uint64) Range {
	if backing < size {
		backing = size
	}
	return Range{Start: start, RealEnd: start + size, OOBEnd: start + backing, Resource: id}
}

// Size returns the logical size of the range in bytes.
func (r Range) Size() uint64 { return r.RealEnd - r.Start }

// Span returns the logical extent of the range as a U64Span.
func (r Range) Span() interval.U64Span {
	return interval.U64Span{Start: r.Start, End: r.RealEnd}
}

func (r Range) String() string {
	return fmt.Sprintf("%v[0x%.16x-0x%.16x/0x%.16x]", r.Resource, r.Start, r.RealEnd, r.OOBEnd)
}

// Policy selects which extent of a range an address must fall within to
// resolve.
type Policy int

const (
	// Strict resolves addresses within the logical extent only.
	Strict Policy = iota
	// Permissive also resolves addresses past the logical end that fall
	// within the backing store.
	Permissive
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Permissive:
		return "permissive"
	default:
		return fmt.Sprintf("Policy<%d>", int(p))
	}
}

// ParsePolicy returns the policy with the given name.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "strict":
		return Strict, nil
	case "permissive", "":
		return Permissive, nil
	default:
		return Strict, fmt.Errorf("Unknown address policy %q", name)
	}
}
