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
	"context"
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/pkg/errors"
)

// Descriptor is one slot of a heap. Its heap and index are fixed when the
// heap is created; only its view changes.
type Descriptor struct {
	heap  api.ResourceID
	index uint32
	kind  HeapKind
	view  View
}

// Handle returns the slot's identity.
func (d *Descriptor) Handle() api.DescriptorHandle {
	return api.DescriptorHandle{Heap: d.heap, Index: d.index}
}

// Type returns the kind of view held by the slot.
func (d *Descriptor) Type() Type { return TypeOf(d.view) }

// View returns the logical view held by the slot, nil if undefined.
func (d *Descriptor) View() View { return d.view }

// Init stores v in the slot. It does not touch any native object.
func (d *Descriptor) Init(v View) error {
	if !d.kind.Accepts(TypeOf(v)) {
		return errors.Wrapf(ErrWrongHeap, "%v in %v heap", TypeOf(v), d.kind)
	}
	d.view = v
	return nil
}

// Reset returns the slot to the undefined state.
func (d *Descriptor) Reset() { d.view = nil }

// CopyFrom copies the view of o into d, keeping d's heap and index.
func (d *Descriptor) CopyFrom(o *Descriptor) { d.view = o.view }

// Equal returns true if both slots hold the same view.
func (d *Descriptor) Equal(o *Descriptor) bool { return d.view == o.view }

func (d *Descriptor) String() string {
	return fmt.Sprintf("%v: %v %+v", d.Handle(), d.Type(), d.view)
}

// Device creates native views.
type Device interface {
	// CreateView creates the native view v at the slot h, replacing any view
	// already there.
	CreateView(ctx context.Context, h api.DescriptorHandle, v View) error
}

// Resources answers queries about the live resources a view may reference.
type Resources interface {
	// Resource returns the description of a live resource.
	Resource(id api.ResourceID) (api.ResourceDesc, bool)
	// FormatHint returns the typed format to use for views of a resource
	// created with a typeless format, if one is known.
	FormatHint(id api.ResourceID) (api.Format, bool)
}

// Resolve returns the view that would be created natively for the slot.
//
// A view of a resource that is no longer live is replaced by Null. A
// missing or typeless view format is taken from the resource, then from
// the resource's format hint, then from the typeless format's default typed
// format. A view of one plane of a planar resource has its plane slice set
// to match its format.
func (d *Descriptor) Resolve(ctx context.Context, res Resources) View {
	switch v := d.view.(type) {
	case SRVView:
		desc, ok := liveResource(ctx, d, res, v.Resource)
		if !ok {
			return Null(SRV)
		}
		v.Format = viewFormat(ctx, res, v.Resource, v.Format, desc)
		v.PlaneSlice = planeSlice(desc, v.Format, v.PlaneSlice)
		return v
	case UAVView:
		desc, ok := liveResource(ctx, d, res, v.Resource)
		if !ok {
			return Null(UAV)
		}
		if v.Counter != 0 {
			if _, live := res.Resource(v.Counter); !live {
				log.W(ctx, "Descriptor %v: counter %v is not live, dropping it", d.Handle(), v.Counter)
				v.Counter = 0
			}
		}
		v.Format = viewFormat(ctx, res, v.Resource, v.Format, desc)
		v.PlaneSlice = planeSlice(desc, v.Format, v.PlaneSlice)
		return v
	case RTVView:
		desc, ok := liveResource(ctx, d, res, v.Resource)
		if !ok {
			return Null(RTV)
		}
		v.Format = viewFormat(ctx, res, v.Resource, v.Format, desc)
		v.PlaneSlice = planeSlice(desc, v.Format, v.PlaneSlice)
		return v
	case DSVView:
		desc, ok := liveResource(ctx, d, res, v.Resource)
		if !ok {
			return Null(DSV)
		}
		v.Format = viewFormat(ctx, res, v.Resource, v.Format, desc)
		return v
	default:
		return d.view
	}
}

// Realize creates the native view for the slot on dev, substituting
// defaults as described by Resolve. An undefined slot creates nothing.
// It returns the view that was created.
func (d *Descriptor) Realize(ctx context.Context, dev Device, res Resources) (View, error) {
	v := d.Resolve(ctx, res)
	if v == nil {
		return nil, nil
	}
	if err := dev.CreateView(ctx, d.Handle(), v); err != nil {
		return nil, log.Errf(ctx, err, "Creating view for %v", d.Handle())
	}
	return v, nil
}

func liveResource(ctx context.Context, d *Descriptor, res Resources, id api.ResourceID) (api.ResourceDesc, bool) {
	desc, ok := res.Resource(id)
	if !ok {
		log.W(ctx, "Descriptor %v: %v is not live, using a null view", d.Handle(), id)
	}
	return desc, ok
}

func viewFormat(ctx context.Context, res Resources, id api.ResourceID, f api.Format, desc api.ResourceDesc) api.Format {
	if f == api.FormatUnknown {
		f = desc.Format
	}
	if !f.IsTypeless() {
		return f
	}
	if hint, ok := res.FormatHint(id); ok && !hint.IsTypeless() {
		return hint
	}
	log.W(ctx, "No typed format known for %v (%v), using %v", id, f, f.Typed())
	return f.Typed()
}

func planeSlice(desc api.ResourceDesc, f api.Format, plane uint32) uint32 {
	if desc.Format.Planes() < 2 {
		return plane
	}
	if p, ok := desc.Format.PlaneFor(f); ok {
		return uint32(p)
	}
	return plane
}
