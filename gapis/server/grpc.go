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
	"fmt"
	"net"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/core/net/grpcutil"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the grpc name of the replay service.
const ServiceName = "gpucap.Replay"

// Messages of the replay service.
type (
	Empty           struct{}
	EventRequest    struct{ Event api.EventID }
	EventResponse   struct{ Event api.EventID }
	ResourceRequest struct{ Resource api.ResourceID }
	UsageResponse   struct{ Usage []Usage }
	StateResponse   struct{ States []string }
	ReplayRequest   struct {
		Start, End api.EventID
		Mode       replay.Mode
	}
	OutputRequest    struct{ Handle uint64 }
	OutputResponse   struct{ Data []byte }
	CountersRequest  struct{ Counters []replay.CounterID }
	CountersResponse struct{ Results []replay.CounterResult }
)

// Listen starts a new grpc server listening on addr.
// This is a blocking call.
func Listen(ctx context.Context, addr string, s Server) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return log.Errf(ctx, err, "Could not start grpc server at %v", addr)
	}
	return NewWithListener(ctx, listener, s, nil)
}

// NewWithListener starts a new grpc server listening on l.
// This is a blocking call.
func NewWithListener(ctx context.Context, l net.Listener, s Server, srvChan chan<- *grpc.Server) error {
	return grpcutil.ServeWithListener(ctx, l, func(ctx context.Context, listener net.Listener, server *grpc.Server) error {
		if addr, ok := listener.Addr().(*net.TCPAddr); ok {
			fmt.Printf("Bound on port '%d'\n", addr.Port)
		}
		Register(server, s)
		if srvChan != nil {
			srvChan <- server
		}
		return nil
	})
}

// Register adds the replay service backed by s to a grpc server.
func Register(server *grpc.Server, s Server) {
	server.RegisterService(&serviceDesc, s)
}

// toStatus converts replay errors to grpc status errors.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	cause := errors.Cause(err)
	code := codes.Internal
	switch {
	case replay.IsFatal(err):
		code = codes.Unavailable
	case cause == replay.ErrInvalidRange:
		code = codes.InvalidArgument
	case cause == replay.ErrUnknownOutput, cause == ErrNoCounters:
		code = codes.FailedPrecondition
	default:
		if _, ok := cause.(replay.UnknownEventError); ok {
			code = codes.NotFound
		}
	}
	return status.Error(code, err.Error())
}

// unary returns a method that decodes a Req and calls f.
func unary[Req any](name string, f func(s Server, ctx context.Context, req *Req) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req interface{}) (interface{}, error) {
				ctx = log.Enter(ctx, name)
				res, err := f(srv.(Server), ctx, req.(*Req))
				return res, toStatus(err)
			}
			if interceptor == nil {
				return call(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, req, info, call)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetMaxEventID", func(s Server, ctx context.Context, req *Empty) (interface{}, error) {
			e, err := s.GetMaxEventID(ctx)
			return &EventResponse{Event: e}, err
		}),
		unary("GetActionForEvent", func(s Server, ctx context.Context, req *EventRequest) (interface{}, error) {
			return s.GetActionForEvent(ctx, req.Event)
		}),
		unary("GetResourceUsage", func(s Server, ctx context.Context, req *ResourceRequest) (interface{}, error) {
			u, err := s.GetResourceUsage(ctx, req.Resource)
			return &UsageResponse{Usage: u}, err
		}),
		unary("GetState", func(s Server, ctx context.Context, req *ResourceRequest) (interface{}, error) {
			st, err := s.GetState(ctx, req.Resource)
			return &StateResponse{States: st}, err
		}),
		unary("ReplayRange", func(s Server, ctx context.Context, req *ReplayRequest) (interface{}, error) {
			return &Empty{}, s.ReplayRange(ctx, req.Start, req.End, req.Mode)
		}),
		unary("GetOutputWindowData", func(s Server, ctx context.Context, req *OutputRequest) (interface{}, error) {
			data, err := s.GetOutputWindowData(ctx, req.Handle)
			return &OutputResponse{Data: data}, err
		}),
		unary("FetchCounters", func(s Server, ctx context.Context, req *CountersRequest) (interface{}, error) {
			res, err := s.FetchCounters(ctx, req.Counters)
			return &CountersResponse{Results: res}, err
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gpucap/replay",
}
