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

// Package barrier tracks the state of every subresource and reconciles
// state tables with barriers.
package barrier

import (
	"sort"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/pkg/errors"
)

const (
	// ErrExists is returned when creating a resource that is already tracked.
	ErrExists = fault.Const("Resource already tracked")
	// ErrNotTracked is returned when setting the state of an unknown resource.
	ErrNotTracked = fault.Const("Resource not tracked")
	// ErrBadSubresource is returned for a subresource index out of range.
	ErrBadSubresource = fault.Const("Subresource out of range")
)

// Table holds the state of every subresource of every tracked resource.
// A tracked resource always has exactly one state per subresource.
//
// Table is not safe for concurrent use.
type Table struct {
	states map[api.ResourceID][]api.SubresourceState
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{states: map[api.ResourceID][]api.SubresourceState{}}
}

// Create starts tracking a resource with count subresources, each in the
// initial state.
func (t *Table) Create(id api.ResourceID, count uint32, initial api.SubresourceState) error {
	if _, ok := t.states[id]; ok {
		return errors.Wrapf(ErrExists, "creating %v", id)
	}
	if count == 0 {
		count = 1
	}
	if initial == nil {
		initial = api.CommonLegacy
	}
	s := make([]api.SubresourceState, count)
	for i := range s {
		s[i] = initial
	}
	t.states[id] = s
	return nil
}

// Destroy stops tracking a resource, returning false if it was not tracked.
func (t *Table) Destroy(id api.ResourceID) bool {
	_, ok := t.states[id]
	delete(t.states, id)
	return ok
}

// Has returns true if the resource is tracked.
func (t *Table) Has(id api.ResourceID) bool {
	_, ok := t.states[id]
	return ok
}

// Get returns a copy of the subresource states of id, or nil if the
// resource is not tracked.
func (t *Table) Get(id api.ResourceID) []api.SubresourceState {
	s, ok := t.states[id]
	if !ok {
		return nil
	}
	return append([]api.SubresourceState(nil), s...)
}

// Set overwrites the state of a subresource, or of every subresource when
// sub is api.AllSubresources.
func (t *Table) Set(id api.ResourceID, sub uint32, state api.SubresourceState) error {
	s, ok := t.states[id]
	if !ok {
		return errors.Wrapf(ErrNotTracked, "setting %v", id)
	}
	if sub == api.AllSubresources {
		for i := range s {
			s[i] = state
		}
		return nil
	}
	if int(sub) >= len(s) {
		return errors.Wrapf(ErrBadSubresource, "%v[%d] of %d", id, sub, len(s))
	}
	s[sub] = state
	return nil
}

// Resources returns the tracked resources in ascending order.
func (t *Table) Resources() []api.ResourceID {
	out := make([]api.ResourceID, 0, len(t.states))
	for id := range t.states {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of tracked resources.
func (t *Table) Len() int { return len(t.states) }

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{states: make(map[api.ResourceID][]api.SubresourceState, len(t.states))}
	for id, s := range t.states {
		out.states[id] = append([]api.SubresourceState(nil), s...)
	}
	return out
}

// Equal returns true if both tables track the same resources in the same
// states.
func (t *Table) Equal(o *Table) bool {
	if len(t.states) != len(o.states) {
		return false
	}
	for id, a := range t.states {
		b, ok := o.states[id]
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}
