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

// Package soft implements a deterministic software replay device.
//
// The device executes no shaders. Draws, copies and clears write bytes
// derived from their arguments and inputs to their outputs, so two replays
// of the same commands leave identical contents.
package soft

import (
	"context"
	"sync"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/pkg/errors"
)

const (
	// ErrUnbalanced is returned when a submission leaves a marker or pass
	// open, or closes one that is not open.
	ErrUnbalanced = fault.Const("Unbalanced marker or pass")
	// ErrNoData is returned when reading a resource that does not exist.
	ErrNoData = fault.Const("Resource has no contents")
)

const (
	// Base is the first device address handed out.
	Base = uint64(0x1_0000_0000)
	// Size is the size of the device address space.
	Size = uint64(1 << 32)
	// Frequency is the timestamp frequency.
	Frequency = uint64(1e9)
	// Tick is the number of timestamp ticks each command takes.
	Tick = uint64(1000)

	alignment = 256
)

// Stats counts the work done by a device.
type Stats struct {
	Submits    int
	Commands   int
	Actions    int
	Presents   int
	Realized   int
	Unresolved int
}

type queryKey struct {
	heap  api.ResourceID
	index uint32
}

// Device is a software replay device.
type Device struct {
	mutex    sync.Mutex
	state    *gfx.State
	alloc    memory.Allocator
	data     map[api.ResourceID][]byte
	views    map[api.DescriptorHandle]descriptor.View
	realized map[api.DescriptorHandle]*descriptor.Descriptor
	queries  map[api.ResourceID][]uint64
	active   map[queryKey]uint64
	clock    uint64
	stats    Stats
	fault    error
}

var _ replay.Device = (*Device)(nil)

// New returns a new, empty device.
func New() *Device {
	d := &Device{}
	d.reset()
	return d
}

func (d *Device) reset() {
	d.state = gfx.NewState()
	d.alloc = memory.NewBasicAllocator(Base, Size)
	d.data = map[api.ResourceID][]byte{}
	d.views = map[api.DescriptorHandle]descriptor.View{}
	d.realized = map[api.DescriptorHandle]*descriptor.Descriptor{}
	d.queries = map[api.ResourceID][]uint64{}
	d.active = map[queryKey]uint64{}
}

// Fail makes every following call return err. Fail(nil) clears it.
func (d *Device) Fail(err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.fault = err
}

// Stats returns the work done since the device was created.
func (d *Device) Stats() Stats {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.stats
}

// View returns the view created at h.
func (d *Device) View(h api.DescriptorHandle) (descriptor.View, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	v, ok := d.views[h]
	return v, ok
}

// Reset implements replay.Device.
func (d *Device) Reset(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.fault != nil {
		return d.fault
	}
	d.reset()
	return nil
}

// CreateView implements descriptor.Device.
func (d *Device) CreateView(ctx context.Context, h api.DescriptorHandle, v descriptor.View) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return views{d}.CreateView(ctx, h, v)
}

// views creates views with d.mutex held.
type views struct{ d *Device }

func (v views) CreateView(ctx context.Context, h api.DescriptorHandle, view descriptor.View) error {
	if v.d.fault != nil {
		return v.d.fault
	}
	v.d.views[h] = view
	v.d.stats.Realized++
	return nil
}

// Apply implements replay.Device.
func (d *Device) Apply(ctx context.Context, cmd gfx.DeviceCmd) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.fault != nil {
		return d.fault
	}
	switch c := cmd.(type) {
	case *gfx.CreateResource:
		out := *c
		if c.Address != 0 {
			size := c.Backing
			if s := c.Desc.ByteSize(); s > size {
				size = s
			}
			addr, err := d.alloc.Alloc(size, alignment)
			if err != nil {
				return errors.Wrapf(replay.ErrOutOfMemory, "%v: %v", c.ID, err)
			}
			out.Address, out.Backing = addr, size
		}
		if err := out.Mutate(ctx, 0, d.state); err != nil {
			return err
		}
		d.data[c.ID] = make([]byte, c.Desc.ByteSize())
		d.invalidate(c.ID)
		return nil
	case *gfx.DestroyResource:
		if r, ok := d.state.Resources[c.ID]; ok && r.Address != 0 {
			if err := d.alloc.Free(r.Address); err != nil {
				log.W(ctx, "Freeing %v: %v", c.ID, err)
			}
		}
		delete(d.data, c.ID)
		d.invalidate(c.ID)
	case *gfx.WriteBuffer:
		if data, ok := d.data[c.Resource]; ok && c.Offset < uint64(len(data)) {
			copy(data[c.Offset:], c.Data)
		}
	case *gfx.CreateView:
		delete(d.realized, c.Dst)
	case *gfx.CopyDescriptors:
		for i := uint32(0); i < c.Count; i++ {
			delete(d.realized, c.Dst.Offset(i))
		}
	}
	return cmd.Mutate(ctx, 0, d.state)
}

// invalidate drops the realized views that reference id, so the next use of
// their slots creates them again against the resource's current liveness.
// d.mutex must be held.
func (d *Device) invalidate(id api.ResourceID) {
	for h, slot := range d.realized {
		for _, r := range descriptor.ViewResources(slot.View()) {
			if r == id {
				delete(d.realized, h)
				break
			}
		}
	}
}

// Address implements replay.Device.
func (d *Device) Address(id api.ResourceID) (uint64, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	r, ok := d.state.Resources[id]
	if !ok || r.Address == 0 {
		return 0, false
	}
	return r.Address, true
}

// Present implements replay.Device.
func (d *Device) Present(ctx context.Context, queue api.QueueID, backbuffer api.ResourceID) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.fault != nil {
		return d.fault
	}
	if _, ok := d.data[backbuffer]; !ok {
		log.W(ctx, "Presenting %v on %v: not a live resource", backbuffer, queue)
	}
	d.stats.Presents++
	d.clock += Tick
	return nil
}

// Wait implements replay.Device.
func (d *Device) Wait(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.fault
}

// Read implements replay.Device.
func (d *Device) Read(ctx context.Context, id api.ResourceID) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.fault != nil {
		return nil, d.fault
	}
	data, ok := d.data[id]
	if !ok {
		return nil, errors.Wrapf(ErrNoData, "%v", id)
	}
	return append([]byte(nil), data...), nil
}

// QueryResults implements replay.Device.
func (d *Device) QueryResults(ctx context.Context, heap api.ResourceID) ([]uint64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.fault != nil {
		return nil, d.fault
	}
	return append([]uint64(nil), d.queries[heap]...), nil
}

// TimestampFrequency implements replay.Device.
func (d *Device) TimestampFrequency() uint64 { return Frequency }
