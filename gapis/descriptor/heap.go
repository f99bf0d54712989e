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

// Package descriptor holds the logical contents of descriptor heaps,
// independent of any native heap, and realizes them into native views on
// demand.
package descriptor

import (
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/pkg/errors"
)

const (
	// ErrOutOfRange is returned when addressing a slot past the end of a heap.
	ErrOutOfRange = fault.Const("Descriptor index out of range")
	// ErrWrongHeap is returned when a view is written to a heap of the wrong kind.
	ErrWrongHeap = fault.Const("View type not valid for heap")
)

// HeapKind is the kind of views a heap holds.
type HeapKind uint8

const (
	HeapCBVSRVUAV HeapKind = iota
	HeapSampler
	HeapRTV
	HeapDSV
)

var heapKindNames = []string{"CBV_SRV_UAV", "Sampler", "RTV", "DSV"}

func (k HeapKind) String() string {
	if int(k) < len(heapKindNames) {
		return heapKindNames[k]
	}
	return fmt.Sprintf("HeapKind<%d>", uint8(k))
}

// Accepts returns true if views of type t can be stored in heaps of kind k.
func (k HeapKind) Accepts(t Type) bool {
	switch t {
	case Undefined:
		return true
	case CBV, SRV, UAV:
		return k == HeapCBVSRVUAV
	case Sampler:
		return k == HeapSampler
	case RTV:
		return k == HeapRTV
	case DSV:
		return k == HeapDSV
	}
	return false
}

// Heap owns a fixed number of descriptor slots for its whole lifetime.
type Heap struct {
	id    api.ResourceID
	kind  HeapKind
	slots []Descriptor
}

// NewHeap returns a heap of count undefined slots.
func NewHeap(id api.ResourceID, kind HeapKind, count uint32) *Heap {
	h := &Heap{id: id, kind: kind, slots: make([]Descriptor, count)}
	for i := range h.slots {
		h.slots[i] = Descriptor{heap: id, index: uint32(i), kind: kind}
	}
	return h
}

// ID returns the heap's identifier.
func (h *Heap) ID() api.ResourceID { return h.id }

// Kind returns the kind of views the heap holds.
func (h *Heap) Kind() HeapKind { return h.kind }

// Len returns the number of slots.
func (h *Heap) Len() uint32 { return uint32(len(h.slots)) }

// Slot returns the descriptor at index, or nil if index is out of range.
func (h *Heap) Slot(index uint32) *Descriptor {
	if int(index) >= len(h.slots) {
		return nil
	}
	return &h.slots[index]
}

// Copy copies count descriptors from src starting at srcIndex into this
// heap starting at dstIndex. Overlapping copies within one heap behave as
// if the source was first copied to a temporary.
func (h *Heap) Copy(dstIndex uint32, src *Heap, srcIndex, count uint32) error {
	if uint64(dstIndex)+uint64(count) > uint64(len(h.slots)) {
		return errors.Wrapf(ErrOutOfRange, "copy to %v[%d..+%d]", h.id, dstIndex, count)
	}
	if uint64(srcIndex)+uint64(count) > uint64(len(src.slots)) {
		return errors.Wrapf(ErrOutOfRange, "copy from %v[%d..+%d]", src.id, srcIndex, count)
	}
	if src.kind != h.kind {
		return errors.Wrapf(ErrWrongHeap, "copy from %v heap to %v heap", src.kind, h.kind)
	}
	views := make([]View, count)
	for i := range views {
		views[i] = src.slots[srcIndex+uint32(i)].view
	}
	for i, v := range views {
		h.slots[dstIndex+uint32(i)].view = v
	}
	return nil
}
