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

// Package api holds the types shared by capture and replay: identifiers,
// action flags, subresource states, barriers, the action tree and the
// command interface.
package api

import "fmt"

// EventID is the global sequence number of one recorded call.
// Event 0 is the point before the first recorded call.
type EventID uint32

// NoEvent is used when you have to pass an EventID, but don't have one to use.
const NoEvent = EventID(0)

// ResourceID identifies a resource, heap or pipeline in the device registry.
type ResourceID uint64

// ListID identifies a logical command list.
type ListID uint64

// QueueID identifies a command queue.
type QueueID uint64

// BakedID identifies one closed recording of a command list.
type BakedID uint64

func (id EventID) String() string    { return fmt.Sprintf("E%d", uint32(id)) }
func (id ResourceID) String() string { return fmt.Sprintf("R%d", uint64(id)) }
func (id ListID) String() string     { return fmt.Sprintf("L%d", uint64(id)) }
func (id QueueID) String() string    { return fmt.Sprintf("Q%d", uint64(id)) }
func (id BakedID) String() string    { return fmt.Sprintf("B%d", uint64(id)) }

// DescriptorHandle addresses one slot of a descriptor heap.
type DescriptorHandle struct {
	Heap  ResourceID
	Index uint32
}

// IsNull returns true if the handle does not refer to a heap.
func (h DescriptorHandle) IsNull() bool { return h.Heap == 0 }

// Offset returns the handle n slots after h.
func (h DescriptorHandle) Offset(n uint32) DescriptorHandle {
	return DescriptorHandle{h.Heap, h.Index + n}
}

func (h DescriptorHandle) String() string {
	if h.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%v[%d]", h.Heap, h.Index)
}
