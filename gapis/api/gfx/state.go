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
	"context"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/barrier"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
)

const (
	// ErrDuplicateID is returned when creating an object whose id is live.
	ErrDuplicateID = fault.Const("Object id already in use")
	// ErrUnknownResource is returned when referencing a resource that is not live.
	ErrUnknownResource = fault.Const("Unknown resource")
	// ErrUnknownHeap is returned when referencing a heap that does not exist.
	ErrUnknownHeap = fault.Const("Unknown descriptor heap")
	// ErrUnknownList is returned when executing a baked list that does not exist.
	ErrUnknownList = fault.Const("Unknown baked command list")
)

// Resource is a live resource in the device registry.
type Resource struct {
	ID      api.ResourceID
	Desc    api.ResourceDesc
	Address uint64
	Backing uint64
}

// State is the registry of every device level object, keyed by id.
type State struct {
	Resources map[api.ResourceID]*Resource
	Heaps     map[api.ResourceID]*descriptor.Heap
	Hints     map[api.ResourceID]api.Format
	Addresses *memory.Tracker
	States    *barrier.Table
}

// NewState returns an empty registry.
func NewState() *State {
	return &State{
		Resources: map[api.ResourceID]*Resource{},
		Heaps:     map[api.ResourceID]*descriptor.Heap{},
		Hints:     map[api.ResourceID]api.Format{},
		Addresses: &memory.Tracker{},
		States:    barrier.NewTable(),
	}
}

// Resource implements descriptor.Resources.
func (s *State) Resource(id api.ResourceID) (api.ResourceDesc, bool) {
	if r, ok := s.Resources[id]; ok {
		return r.Desc, true
	}
	return api.ResourceDesc{}, false
}

// FormatHint implements descriptor.Resources.
func (s *State) FormatHint(id api.ResourceID) (api.Format, bool) {
	f, ok := s.Hints[id]
	return f, ok
}

// Descriptor returns the slot at h, or nil if h does not name a slot.
func (s *State) Descriptor(h api.DescriptorHandle) *descriptor.Descriptor {
	heap, ok := s.Heaps[h.Heap]
	if !ok {
		return nil
	}
	return heap.Slot(h.Index)
}

// DescriptorResources returns the resources referenced by the view at h.
func (s *State) DescriptorResources(h api.DescriptorHandle) []api.ResourceID {
	if d := s.Descriptor(h); d != nil {
		return descriptor.ViewResources(d.View())
	}
	return nil
}

// DeviceCmd is a command that creates, destroys or updates device level
// objects.
type DeviceCmd interface {
	api.Cmd
	// Mutate applies the command to the registry s. id is the event of the
	// command.
	Mutate(ctx context.Context, id api.EventID, s *State) error
}

// StateCmd is a list command that changes the bound render state.
type StateCmd interface {
	api.Cmd
	// Bind applies the command to rs.
	Bind(rs *api.RenderState)
}

// AddressedCmd is a command holding GPU virtual addresses.
type AddressedCmd interface {
	api.Cmd
	// Remap returns a copy of the command with every address replaced by
	// f(address).
	Remap(f func(uint64) uint64) api.Cmd
}
