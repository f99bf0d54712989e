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
	"sort"

	"github.com/baldurk/renderdoc-sub019/core/data/pack"
)

// AllSubresources targets every subresource of a resource.
const AllSubresources = 0xffffffff

// BarrierType is the kind of a legacy barrier.
type BarrierType uint8

const (
	// TransitionBarrier changes the state of a subresource.
	TransitionBarrier BarrierType = iota
	// UAVBarrier orders unordered access without changing state.
	UAVBarrier
	// AliasingBarrier switches between placed resources sharing memory.
	AliasingBarrier
)

// Split marks one half of a split legacy barrier.
type Split uint8

const (
	SplitNone Split = iota
	SplitBeginOnly
	SplitEndOnly
)

// LegacyTransition is a legacy state transition of one subresource, or of
// every subresource when Subresource is AllSubresources.
type LegacyTransition struct {
	Type        BarrierType
	Resource    ResourceID
	Subresource uint32
	Before      ResourceStates
	After       ResourceStates
	Split       Split
}

// LayoutTransition is a layout based transition of one subresource, or of
// every subresource when Subresource is AllSubresources.
type LayoutTransition struct {
	Resource     ResourceID
	Subresource  uint32
	LayoutBefore Layout
	LayoutAfter  Layout
	AccessBefore Access
	AccessAfter  Access
	SyncBefore   Sync
	SyncAfter    Sync
	Discard      bool
}

func (t LegacyTransition) String() string {
	return fmt.Sprintf("%v[%s]: %v -> %v", t.Resource, subString(t.Subresource), t.Before, t.After)
}

func (t LayoutTransition) String() string {
	return fmt.Sprintf("%v[%s]: %v -> %v", t.Resource, subString(t.Subresource), t.LayoutBefore, t.LayoutAfter)
}

func subString(s uint32) string {
	if s == AllSubresources {
		return "all"
	}
	return fmt.Sprint(s)
}

// BarrierSet is an ordered batch of transitions. Legacy entries are applied
// in order, followed by the layout entries in order.
type BarrierSet struct {
	Legacy []LegacyTransition
	Layout []LayoutTransition
}

// IsEmpty returns true if the set holds no entries.
func (b BarrierSet) IsEmpty() bool { return len(b.Legacy) == 0 && len(b.Layout) == 0 }

// Len returns the number of entries in the set.
func (b BarrierSet) Len() int { return len(b.Legacy) + len(b.Layout) }

// Append adds the entries of o after the entries of b.
func (b *BarrierSet) Append(o BarrierSet) {
	b.Legacy = append(b.Legacy, o.Legacy...)
	b.Layout = append(b.Layout, o.Layout...)
}

// Resources returns the sorted, unique list of resources the set touches.
func (b BarrierSet) Resources() []ResourceID {
	seen := map[ResourceID]bool{}
	out := []ResourceID{}
	add := func(id ResourceID) {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, t := range b.Legacy {
		add(t.Resource)
	}
	for _, t := range b.Layout {
		add(t.Resource)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Encode writes the set to e.
func (b BarrierSet) Encode(e *pack.Encoder) {
	e.Uint(uint64(len(b.Legacy)))
	for _, t := range b.Legacy {
		e.Uint(uint64(t.Type)).Uint(uint64(t.Resource)).Uint(uint64(t.Subresource)).
			Uint(uint64(t.Before)).Uint(uint64(t.After)).Uint(uint64(t.Split))
	}
	e.Uint(uint64(len(b.Layout)))
	for _, t := range b.Layout {
		e.Uint(uint64(t.Resource)).Uint(uint64(t.Subresource)).
			Uint(uint64(t.LayoutBefore)).Uint(uint64(t.LayoutAfter)).
			Uint(uint64(t.AccessBefore)).Uint(uint64(t.AccessAfter)).
			Uint(uint64(t.SyncBefore)).Uint(uint64(t.SyncAfter)).Bool(t.Discard)
	}
}

// maxBarriers bounds the entry counts read by Decode.
const maxBarriers = 1 << 16

// Decode reads a set written by Encode.
func (b *BarrierSet) Decode(d *pack.Decoder) {
	b.Legacy, b.Layout = nil, nil
	if n := d.Count(maxBarriers); n > 0 {
		b.Legacy = make([]LegacyTransition, n)
	}
	for i := range b.Legacy {
		b.Legacy[i] = LegacyTransition{
			Type:        BarrierType(d.Uint()),
			Resource:    ResourceID(d.Uint()),
			Subresource: d.Uint32(),
			Before:      ResourceStates(d.Uint32()),
			After:       ResourceStates(d.Uint32()),
			Split:       Split(d.Uint()),
		}
	}
	if n := d.Count(maxBarriers); n > 0 {
		b.Layout = make([]LayoutTransition, n)
	}
	for i := range b.Layout {
		b.Layout[i] = LayoutTransition{
			Resource:     ResourceID(d.Uint()),
			Subresource:  d.Uint32(),
			LayoutBefore: Layout(d.Uint32()),
			LayoutAfter:  Layout(d.Uint32()),
			AccessBefore: Access(d.Uint32()),
			AccessAfter:  Access(d.Uint32()),
			SyncBefore:   Sync(d.Uint32()),
			SyncAfter:    Sync(d.Uint32()),
			Discard:      d.Bool(),
		}
	}
}
