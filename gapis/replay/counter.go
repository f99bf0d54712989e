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

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
)

// CounterID identifies a GPU counter.
type CounterID uint32

// CounterType is the type of a counter's values.
type CounterType int

const (
	// Float counters hold float64 values.
	Float CounterType = iota
	// Uint counters hold uint64 values.
	Uint
)

// CounterUnit is the unit of a counter's values.
type CounterUnit int

const (
	Absolute CounterUnit = iota
	Seconds
	Percentage
	Bytes
)

var unitNames = []string{"Absolute", "Seconds", "Percentage", "Bytes"}

func (u CounterUnit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("Unit<%d>", int(u))
}

// CounterDesc describes a counter.
type CounterDesc struct {
	ID          CounterID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Unit        CounterUnit `json:"unit"`
	Type        CounterType `json:"type"`
	ByteWidth   uint32      `json:"byteWidth"`
}

// CounterValue is one counter value. Which field is set depends on the
// counter's type.
type CounterValue struct {
	F float64 `json:"f,omitempty"`
	U uint64  `json:"u,omitempty"`
}

// CounterResult is the value of one counter for one event.
type CounterResult struct {
	Event   api.EventID  `json:"event"`
	Counter CounterID    `json:"counter"`
	Value   CounterValue `json:"value"`
}

// CounterProvider measures counters by replaying the capture with a hook.
type CounterProvider interface {
	// EnumerateCounters returns the counters the provider supports.
	EnumerateCounters() []CounterID
	// DescribeCounter returns the description of a counter.
	DescribeCounter(id CounterID) (CounterDesc, error)
	// FetchCounters measures the counters for every action of the capture.
	FetchCounters(ctx context.Context, ids []CounterID, r Replayer) ([]CounterResult, error)
}

// Replayer is the part of an engine a counter provider drives.
type Replayer interface {
	// Replay replays the whole capture with h installed.
	Replay(ctx context.Context, h Hook) error
	// QueryResults waits for the device and returns the results of a query
	// heap.
	QueryResults(ctx context.Context, heap api.ResourceID) ([]uint64, error)
	// TimestampFrequency returns the device's timestamp ticks per second.
	TimestampFrequency() uint64
}

// FetchCounters measures counters with p, replaying the whole capture.
func (e *Engine) FetchCounters(ctx context.Context, p CounterProvider, ids []CounterID) ([]CounterResult, error) {
	ctx = log.Enter(ctx, "FetchCounters")
	if len(ids) == 0 {
		ids = p.EnumerateCounters()
	}
	return p.FetchCounters(ctx, ids, replayer{e})
}

type replayer struct{ e *Engine }

func (r replayer) Replay(ctx context.Context, h Hook) error {
	e := r.e
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.replayRange(ctx, 0, e.timeline.Max, Full, h)
}

func (r replayer) QueryResults(ctx context.Context, heap api.ResourceID) ([]uint64, error) {
	e := r.e
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if err := e.device.Wait(ctx); err != nil {
		return nil, e.fail(ctx, err)
	}
	res, err := e.device.QueryResults(ctx, heap)
	if err != nil {
		return nil, e.fail(ctx, err)
	}
	return res, nil
}

func (r replayer) TimestampFrequency() uint64 { return r.e.device.TimestampFrequency() }
