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

	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
	"github.com/pkg/errors"
)

// CreateResource creates a resource, optionally at a GPU virtual address.
type CreateResource struct {
	ID      api.ResourceID
	Desc    api.ResourceDesc
	Initial api.SubresourceState
	// Address is the GPU virtual address of the resource, 0 if it has none.
	Address uint64
	// Backing is the size of the backing store, at least the resource size.
	Backing uint64
	// Hint is the typed format for views of a typeless resource.
	Hint api.Format
}

// DestroyResource destroys a resource.
type DestroyResource struct {
	ID api.ResourceID
}

// CreateHeap creates a descriptor heap.
type CreateHeap struct {
	ID    api.ResourceID
	Kind  descriptor.HeapKind
	Count uint32
}

// CreateView writes a view to a descriptor slot.
type CreateView struct {
	Dst  api.DescriptorHandle
	View descriptor.View
}

// CopyDescriptors copies Count descriptor slots.
type CopyDescriptors struct {
	Dst   api.DescriptorHandle
	Src   api.DescriptorHandle
	Count uint32
}

// WriteBuffer uploads data into a resource.
type WriteBuffer struct {
	Resource api.ResourceID
	Offset   uint64
	Data     []byte
}

func (*CreateResource) CmdName() string  { return "CreateResource" }
func (*DestroyResource) CmdName() string { return "DestroyResource" }
func (*CreateHeap) CmdName() string      { return "CreateHeap" }
func (*CreateView) CmdName() string      { return "CreateView" }
func (*CopyDescriptors) CmdName() string { return "CopyDescriptors" }
func (*WriteBuffer) CmdName() string     { return "WriteBuffer" }

func (*CreateResource) CmdFlags() api.ActionFlags  { return 0 }
func (*DestroyResource) CmdFlags() api.ActionFlags { return 0 }
func (*CreateHeap) CmdFlags() api.ActionFlags      { return 0 }
func (*CreateView) CmdFlags() api.ActionFlags      { return 0 }
func (*CopyDescriptors) CmdFlags() api.ActionFlags { return 0 }
func (*WriteBuffer) CmdFlags() api.ActionFlags     { return 0 }

func (*CreateResource) CmdKind() uint32  { return kindCreateResource }
func (*DestroyResource) CmdKind() uint32 { return kindDestroyResource }
func (*CreateHeap) CmdKind() uint32      { return kindCreateHeap }
func (*CreateView) CmdKind() uint32      { return kindCreateView }
func (*CopyDescriptors) CmdKind() uint32 { return kindCopyDescriptors }
func (*WriteBuffer) CmdKind() uint32     { return kindWriteBuffer }

// Mutate implements DeviceCmd.
func (c *CreateResource) Mutate(ctx context.Context, id api.EventID, s *State) error {
	if _, ok := s.Resources[c.ID]; ok {
		return errors.Wrapf(ErrDuplicateID, "%v: creating %v", id, c.ID)
	}
	initial := c.Initial
	if initial == nil {
		initial = api.CommonLegacy
	}
	if err := s.States.Create(c.ID, c.Desc.Subresources(), initial); err != nil {
		return errors.Wrapf(err, "%v", id)
	}
	s.Resources[c.ID] = &Resource{ID: c.ID, Desc: c.Desc, Address: c.Address, Backing: c.Backing}
	if c.Address != 0 {
		s.Addresses.Add(memory.NewRange(c.ID, c.Address, c.Desc.ByteSize(), c.Backing))
	}
	if c.Hint != api.FormatUnknown {
		s.Hints[c.ID] = c.Hint
	}
	return nil
}

// Mutate implements DeviceCmd.
func (c *DestroyResource) Mutate(ctx context.Context, id api.EventID, s *State) error {
	r, ok := s.Resources[c.ID]
	if !ok {
		return errors.Wrapf(ErrUnknownResource, "%v: destroying %v", id, c.ID)
	}
	if r.Address != 0 {
		if err := s.Addresses.Remove(r.Address, r.ID); err != nil {
			log.W(ctx, "%v: %v", id, err)
		}
	}
	s.States.Destroy(c.ID)
	delete(s.Resources, c.ID)
	delete(s.Hints, c.ID)
	return nil
}

// Mutate implements DeviceCmd.
func (c *CreateHeap) Mutate(ctx context.Context, id api.EventID, s *State) error {
	if _, ok := s.Heaps[c.ID]; ok {
		return errors.Wrapf(ErrDuplicateID, "%v: creating heap %v", id, c.ID)
	}
	s.Heaps[c.ID] = descriptor.NewHeap(c.ID, c.Kind, c.Count)
	return nil
}

// Mutate implements DeviceCmd.
func (c *CreateView) Mutate(ctx context.Context, id api.EventID, s *State) error {
	heap, ok := s.Heaps[c.Dst.Heap]
	if !ok {
		return errors.Wrapf(ErrUnknownHeap, "%v: writing %v", id, c.Dst)
	}
	slot := heap.Slot(c.Dst.Index)
	if slot == nil {
		return errors.Wrapf(descriptor.ErrOutOfRange, "%v: writing %v", id, c.Dst)
	}
	return slot.Init(c.View)
}

// Mutate implements DeviceCmd.
func (c *CopyDescriptors) Mutate(ctx context.Context, id api.EventID, s *State) error {
	dst, ok := s.Heaps[c.Dst.Heap]
	if !ok {
		return errors.Wrapf(ErrUnknownHeap, "%v: copying to %v", id, c.Dst)
	}
	src, ok := s.Heaps[c.Src.Heap]
	if !ok {
		return errors.Wrapf(ErrUnknownHeap, "%v: copying from %v", id, c.Src)
	}
	return dst.Copy(c.Dst.Index, src, c.Src.Index, c.Count)
}

// Mutate implements DeviceCmd.
func (c *WriteBuffer) Mutate(ctx context.Context, id api.EventID, s *State) error {
	r, ok := s.Resources[c.Resource]
	if !ok {
		return errors.Wrapf(ErrUnknownResource, "%v: writing %v", id, c.Resource)
	}
	if c.Offset+uint64(len(c.Data)) > r.Desc.ByteSize() {
		log.W(ctx, "%v: write of %d bytes at %d overflows %v", id, len(c.Data), c.Offset, c.Resource)
	}
	return nil
}

func encodeHandle(e *pack.Encoder, h api.DescriptorHandle) {
	e.Uint(uint64(h.Heap)).Uint(uint64(h.Index))
}

func decodeHandle(d *pack.Decoder) api.DescriptorHandle {
	return api.DescriptorHandle{Heap: api.ResourceID(d.Uint()), Index: d.Uint32()}
}

func (c *CreateResource) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.ID))
	c.Desc.Encode(e)
	if c.Initial == nil {
		api.EncodeState(e, api.CommonLegacy)
	} else {
		api.EncodeState(e, c.Initial)
	}
	e.Uint(c.Address).Uint(c.Backing).Uint(uint64(c.Hint))
}

func (c *CreateResource) Decode(d *pack.Decoder) {
	c.ID = api.ResourceID(d.Uint())
	c.Desc.Decode(d)
	c.Initial = api.DecodeState(d)
	c.Address = d.Uint()
	c.Backing = d.Uint()
	c.Hint = api.Format(d.Uint32())
}

func (c *DestroyResource) Encode(e *pack.Encoder) { e.Uint(uint64(c.ID)) }
func (c *DestroyResource) Decode(d *pack.Decoder) { c.ID = api.ResourceID(d.Uint()) }

func (c *CreateHeap) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.ID)).Uint(uint64(c.Kind)).Uint(uint64(c.Count))
}

func (c *CreateHeap) Decode(d *pack.Decoder) {
	c.ID = api.ResourceID(d.Uint())
	c.Kind = descriptor.HeapKind(d.Uint())
	c.Count = d.Uint32()
}

func (c *CreateView) Encode(e *pack.Encoder) {
	encodeHandle(e, c.Dst)
	descriptor.EncodeView(e, c.View)
}

func (c *CreateView) Decode(d *pack.Decoder) {
	c.Dst = decodeHandle(d)
	c.View = descriptor.DecodeView(d)
}

func (c *CopyDescriptors) Encode(e *pack.Encoder) {
	encodeHandle(e, c.Dst)
	encodeHandle(e, c.Src)
	e.Uint(uint64(c.Count))
}

func (c *CopyDescriptors) Decode(d *pack.Decoder) {
	c.Dst = decodeHandle(d)
	c.Src = decodeHandle(d)
	c.Count = d.Uint32()
}

func (c *WriteBuffer) Encode(e *pack.Encoder) {
	e.Uint(uint64(c.Resource)).Uint(c.Offset).Data(c.Data)
}

func (c *WriteBuffer) Decode(d *pack.Decoder) {
	c.Resource = api.ResourceID(d.Uint())
	c.Offset = d.Uint()
	c.Data = d.Data()
}
