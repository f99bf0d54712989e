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

// Package server implements the replay service queried by debugger clients.
package server

import (
	"context"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
)

// ErrNoCounters is returned by FetchCounters on a server without a counter
// provider.
const ErrNoCounters = fault.Const("No counter provider")

// Server is the interface to a replay session, served over grpc and
// implemented by the client returned by NewClient.
type Server interface {
	GetMaxEventID(ctx context.Context) (api.EventID, error)
	GetActionForEvent(ctx context.Context, e api.EventID) (*Action, error)
	GetResourceUsage(ctx context.Context, id api.ResourceID) ([]Usage, error)
	GetState(ctx context.Context, id api.ResourceID) ([]string, error)
	ReplayRange(ctx context.Context, start, end api.EventID, mode replay.Mode) error
	GetOutputWindowData(ctx context.Context, handle uint64) ([]byte, error)
	FetchCounters(ctx context.Context, ids []replay.CounterID) ([]replay.CounterResult, error)
}

// Action is an action tree node without its children.
type Action struct {
	Event    api.EventID `json:"event"`
	First    api.EventID `json:"first"`
	Last     api.EventID `json:"last"`
	Name     string      `json:"name"`
	Flags    string      `json:"flags"`
	AliasOf  api.EventID `json:"aliasOf,omitempty"`
	Children int         `json:"children"`
}

// Usage is one use of a resource.
type Usage struct {
	Event api.EventID `json:"event"`
	Usage string      `json:"usage"`
}

// New returns a Server for the engine e. Counters are fetched with p.
func New(e *replay.Engine, p replay.CounterProvider) Server {
	return &server{e, p}
}

type server struct {
	engine   *replay.Engine
	counters replay.CounterProvider
}

func (s *server) GetMaxEventID(ctx context.Context) (api.EventID, error) {
	return s.engine.GetMaxEventID(), nil
}

func (s *server) GetActionForEvent(ctx context.Context, e api.EventID) (*Action, error) {
	n, err := s.engine.GetActionForEvent(e)
	if err != nil {
		return nil, err
	}
	return &Action{
		Event:    n.EventID,
		First:    n.Span.First,
		Last:     n.Span.Last,
		Name:     n.Name,
		Flags:    n.Flags.String(),
		AliasOf:  n.AliasOf,
		Children: len(n.Children),
	}, nil
}

func (s *server) GetResourceUsage(ctx context.Context, id api.ResourceID) ([]Usage, error) {
	usage := s.engine.GetResourceUsage(id)
	out := make([]Usage, len(usage))
	for i, u := range usage {
		out[i] = Usage{Event: u.Event, Usage: u.Usage.String()}
	}
	return out, nil
}

func (s *server) GetState(ctx context.Context, id api.ResourceID) ([]string, error) {
	states := s.engine.GetState(ctx, id)
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = st.String()
	}
	return out, nil
}

func (s *server) ReplayRange(ctx context.Context, start, end api.EventID, mode replay.Mode) error {
	return s.engine.ReplayRange(ctx, start, end, mode)
}

func (s *server) GetOutputWindowData(ctx context.Context, handle uint64) ([]byte, error) {
	return s.engine.GetOutputWindowData(ctx, handle)
}

func (s *server) FetchCounters(ctx context.Context, ids []replay.CounterID) ([]replay.CounterResult, error) {
	if s.counters == nil {
		return nil, ErrNoCounters
	}
	return s.engine.FetchCounters(ctx, s.counters, ids)
}
