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

package server_test

import (
	"context"
	"net"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/core/net/grpcutil"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
	"github.com/baldurk/renderdoc-sub019/gapis/config"
	"github.com/baldurk/renderdoc-sub019/gapis/counters"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/baldurk/renderdoc-sub019/gapis/replay/soft"
	"github.com/baldurk/renderdoc-sub019/gapis/server"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func connect(ctx context.Context, p replay.CounterProvider) (server.Server, func()) {
	c, err := capture.Demo(ctx)
	assert.For(ctx, "demo").ThatError(err).Succeeded()
	e, err := replay.NewEngine(ctx, c, soft.New(), config.Default().Replay)
	assert.For(ctx, "engine").ThatError(err).Succeeded()
	e.BindOutput(1, capture.DemoBackbuffer)

	ctx, cancel := context.WithCancel(ctx)
	l := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() { done <- server.NewWithListener(ctx, l, server.New(e, p), nil) }()

	conn, err := grpcutil.Dial(ctx, "bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return l.DialContext(ctx)
	}))
	assert.For(ctx, "dial").ThatError(err).Succeeded()
	return server.NewClient(conn), func() {
		conn.Close()
		cancel()
		<-done
	}
}

func code(err error) codes.Code {
	s, _ := status.FromError(err)
	return s.Code()
}

func TestQueries(t *testing.T) {
	ctx := log.Testing(t)
	s, stop := connect(ctx, counters.Queries{})
	defer stop()

	max, err := s.GetMaxEventID(ctx)
	assert.For(ctx, "max").ThatError(err).Succeeded()
	assert.For(ctx, "max").That(max).Equals(api.EventID(43))

	a, err := s.GetActionForEvent(ctx, 40)
	assert.For(ctx, "action").ThatError(err).Succeeded()
	assert.For(ctx, "event").That(a.Event).Equals(api.EventID(40))
	assert.For(ctx, "alias of").That(a.AliasOf).Equals(api.EventID(22))

	_, err = s.GetActionForEvent(ctx, 44)
	assert.For(ctx, "unknown").That(code(err)).Equals(codes.NotFound)

	u, err := s.GetResourceUsage(ctx, capture.DemoUpload)
	assert.For(ctx, "usage").ThatError(err).Succeeded()
	assert.For(ctx, "usage").ThatSlice(u).IsNotEmpty()
}

func TestReplay(t *testing.T) {
	ctx := log.Testing(t)
	s, stop := connect(ctx, nil)
	defer stop()

	assert.For(ctx, "replay").ThatError(s.ReplayRange(ctx, 0, 20, replay.Full)).Succeeded()
	st, err := s.GetState(ctx, capture.DemoBackbuffer)
	assert.For(ctx, "state").ThatError(err).Succeeded()
	assert.For(ctx, "state").ThatSlice(st).Equals([]string{api.LegacyState{States: api.StateRenderTarget}.String()})

	data, err := s.GetOutputWindowData(ctx, 1)
	assert.For(ctx, "output").ThatError(err).Succeeded()
	assert.For(ctx, "output size").ThatInteger(len(data)).Equals(64 * 64 * 4)

	err = s.ReplayRange(ctx, 20, 10, replay.Full)
	assert.For(ctx, "inverted").That(code(err)).Equals(codes.InvalidArgument)
	_, err = s.GetOutputWindowData(ctx, 7)
	assert.For(ctx, "unbound").That(code(err)).Equals(codes.FailedPrecondition)
	_, err = s.FetchCounters(ctx, nil)
	assert.For(ctx, "no counters").That(code(err)).Equals(codes.FailedPrecondition)
}

func TestFetchCounters(t *testing.T) {
	ctx := log.Testing(t)
	s, stop := connect(ctx, counters.Queries{})
	defer stop()

	res, err := s.FetchCounters(ctx, []replay.CounterID{counters.SamplesPassed})
	assert.For(ctx, "fetch").ThatError(err).Succeeded()
	assert.For(ctx, "results").ThatInteger(len(res)).Equals(6)
	assert.For(ctx, "first").That(res[0]).Equals(replay.CounterResult{Event: 11, Counter: counters.SamplesPassed})
}
