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

package replay

import (
	"context"
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/pkg/errors"
)

const (
	// ErrDeviceLost is returned by a device that was removed. It is fatal to
	// the session.
	ErrDeviceLost = fault.Const("Replay device lost")
	// ErrOutOfMemory is returned by a device that could not allocate a
	// resource. It is fatal to the session.
	ErrOutOfMemory = fault.Const("Replay device out of memory")
	// ErrInvalidRange is returned for a replay range whose start is after its
	// end.
	ErrInvalidRange = fault.Const("Invalid replay range")
	// ErrUnknownOutput is returned when reading an output that was never
	// bound.
	ErrUnknownOutput = fault.Const("Unknown output handle")
)

// UnknownEventError is returned when a request names an event that is not
// in the capture.
type UnknownEventError struct {
	Event api.EventID
	Max   api.EventID
}

func (e UnknownEventError) Error() string {
	return fmt.Sprintf("Event %v is not in the capture (last event %v)", e.Event, e.Max)
}

// IsFatal returns true if err leaves the device unusable.
func IsFatal(err error) bool {
	switch errors.Cause(err) {
	case ErrDeviceLost, ErrOutOfMemory:
		return true
	}
	return false
}

// Device is a GPU that replays commands.
//
// The engine serializes every call to a device.
type Device interface {
	descriptor.Device

	// Reset destroys every object on the device.
	Reset(ctx context.Context) error
	// Apply performs a device level command. CreateResource commands carry
	// the captured address of the resource; the device picks its own.
	Apply(ctx context.Context, cmd gfx.DeviceCmd) error
	// Submit executes list commands on queue. Addresses have already been
	// translated with Address.
	Submit(ctx context.Context, queue api.QueueID, cmds []api.Cmd) error
	// Present presents the backbuffer on queue.
	Present(ctx context.Context, queue api.QueueID, backbuffer api.ResourceID) error
	// Wait blocks until all submitted work has completed.
	Wait(ctx context.Context) error
	// Address returns the device address of a resource.
	Address(id api.ResourceID) (uint64, bool)
	// Read returns the contents of a resource. Call Wait first.
	Read(ctx context.Context, id api.ResourceID) ([]byte, error)
	// QueryResults returns the results written to a query heap. Call Wait
	// first.
	QueryResults(ctx context.Context, heap api.ResourceID) ([]uint64, error)
	// TimestampFrequency returns the number of timestamp ticks per second.
	TimestampFrequency() uint64
}
