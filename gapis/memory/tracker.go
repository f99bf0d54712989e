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
	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/core/math/interval"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/pkg/errors"
)

// ErrNoRange is returned by Remove when no range matches.
const ErrNoRange = fault.Const("No matching address range")

// ranges is a list of Range sorted by Start.
type ranges []Range

func (l ranges) Length() int                        { return len(l) }
func (l ranges) GetSpan(index int) interval.U64Span { return l[index].Span() }
func (l ranges) Copy(to, from, count int)           { copy(l[to:to+count], l[from:from+count]) }
func (l *ranges) Resize(length int) {
	if cap(*l) > length {
		*l = (*l)[:length]
	} else {
		old := *l
		*l = make(ranges, length, length*2)
		copy(*l, old)
	}
}

// Tracker maps GPU virtual addresses to the resources that own them.
//
// Ranges of live resources never overlap, but a freed resource's address
// may be reused before the free is seen, so several ranges can share a
// start address.
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	ranges ranges
}

// Len returns the number of tracked ranges.
func (t *Tracker) Len() int { return len(t.ranges) }

// Add inserts r, keeping the ranges sorted by start address.
func (t *Tracker) Add(r Range) {
	// Insert after any existing range with the same start.
	i := interval.Search(t.ranges, func(s interval.U64Span) bool { return s.Start > r.Start })
	interval.Insert(&t.ranges, i)
	t.ranges[i] = r
}

// Remove removes the range starting at start owned by id.
func (t *Tracker) Remove(start uint64, id api.ResourceID) error {
	i := interval.Search(t.ranges, func(s interval.U64Span) bool { return s.Start >= start })
	for ; i < len(t.ranges) && t.ranges[i].Start == start; i++ {
		if t.ranges[i].Resource == id {
			interval.Remove(&t.ranges, i)
			return nil
		}
	}
	return errors.Wrapf(ErrNoRange, "%v at 0x%x", id, start)
}

// Resolve returns the resource owning addr and the offset of addr within
// it. ok is false if no range contains addr under the policy.
func (t *Tracker) Resolve(addr uint64, policy Policy) (id api.ResourceID, offset uint64, ok bool) {
	// Walk back over ranges with the same start so a stale range does not
	// hide a live one.
	for i := interval.LastStartingAt(t.ranges, addr); i >= 0; i-- {
		r := t.ranges[i]
		end := r.RealEnd
		if policy == Permissive {
			end = r.OOBEnd
		}
		if addr < end {
			return r.Resource, addr - r.Start, true
		}
		if i > 0 && t.ranges[i-1].Start != r.Start {
			break
		}
	}
	return 0, 0, false
}

// Lookup returns the range owned by id.
func (t *Tracker) Lookup(id api.ResourceID) (Range, bool) {
	for _, r := range t.ranges {
		if r.Resource == id {
			return r, true
		}
	}
	return Range{}, false
}

// Ranges returns a copy of the tracked ranges in address order.
func (t *Tracker) Ranges() []Range {
	return append([]Range(nil), t.ranges...)
}

// Clone returns an independent copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	return &Tracker{ranges: append(ranges(nil), t.ranges...)}
}
