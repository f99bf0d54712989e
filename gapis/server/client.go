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

package server

import (
	"context"

	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"google.golang.org/grpc"
)

// NewClient returns a Server that forwards every call over conn.
// conn must use the JSON codec, as connections from grpcutil.Dial do.
func NewClient(conn *grpc.ClientConn) Server {
	return client{conn}
}

type client struct {
	conn *grpc.ClientConn
}

func (c client) invoke(ctx context.Context, method string, req, res interface{}) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, res)
}

func (c client) GetMaxEventID(ctx context.Context) (api.EventID, error) {
	res := &EventResponse{}
	err := c.invoke(ctx, "GetMaxEventID", &Empty{}, res)
	return res.Event, err
}

func (c client) GetActionForEvent(ctx context.Context, e api.EventID) (*Action, error) {
	res := &Action{}
	if err := c.invoke(ctx, "GetActionForEvent", &EventRequest{Event: e}, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c client) GetResourceUsage(ctx context.Context, id api.ResourceID) ([]Usage, error) {
	res := &UsageResponse{}
	err := c.invoke(ctx, "GetResourceUsage", &ResourceRequest{Resource: id}, res)
	return res.Usage, err
}

func (c client) GetState(ctx context.Context, id api.ResourceID) ([]string, error) {
	res := &StateResponse{}
	err := c.invoke(ctx, "GetState", &ResourceRequest{Resource: id}, res)
	return res.States, err
}

func (c client) ReplayRange(ctx context.Context, start, end api.EventID, mode replay.Mode) error {
	return c.invoke(ctx, "ReplayRange", &ReplayRequest{Start: start, End: end, Mode: mode}, &Empty{})
}

func (c client) GetOutputWindowData(ctx context.Context, handle uint64) ([]byte, error) {
	res := &OutputResponse{}
	err := c.invoke(ctx, "GetOutputWindowData", &OutputRequest{Handle: handle}, res)
	return res.Data, err
}

func (c client) FetchCounters(ctx context.Context, ids []replay.CounterID) ([]replay.CounterResult, error) {
	res := &CountersResponse{}
	err := c.invoke(ctx, "FetchCounters", &CountersRequest{Counters: ids}, res)
	return res.Results, err
}
