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

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
)

// Hook instruments the actions of re-recorded lists.
//
// Only draws, dispatches, copies, clears and resolves are hooked. Lists are
// re-recorded when a replay ends inside them, or always if RecordAll
// returns true.
type Hook interface {
	// PreAction is called before the action at event e is issued. It returns
	// commands to issue first, and the command to issue in place of cmd, or
	// nil to issue cmd.
	PreAction(ctx context.Context, e api.EventID, cmd api.Cmd) (prologue []api.Cmd, substitute api.Cmd)
	// PostAction is called after the action is issued. It returns commands to
	// issue next, and a command to issue as a redo of the action, or nil for
	// no redo.
	PostAction(ctx context.Context, e api.EventID, cmd api.Cmd) (epilogue []api.Cmd, redo api.Cmd)
	// PostRedo is called after a redo was issued.
	PostRedo(ctx context.Context, e api.EventID) []api.Cmd
	// AliasEvent is called for each action of a resubmitted list whose
	// primary execution was hooked in the same replay. The alias is not
	// issued.
	AliasEvent(ctx context.Context, primary, alias api.EventID)
	// RecordAll returns true if every list must be re-recorded.
	RecordAll() bool
}

// NoHook implements Hook doing nothing. Embed it to implement part of Hook.
type NoHook struct{}

func (NoHook) PreAction(context.Context, api.EventID, api.Cmd) ([]api.Cmd, api.Cmd)  { return nil, nil }
func (NoHook) PostAction(context.Context, api.EventID, api.Cmd) ([]api.Cmd, api.Cmd) { return nil, nil }
func (NoHook) PostRedo(context.Context, api.EventID) []api.Cmd                       { return nil }
func (NoHook) AliasEvent(context.Context, api.EventID, api.EventID)                  {}
func (NoHook) RecordAll() bool                                                       { return false }

func hookedFlags(f api.ActionFlags) bool {
	return f&(api.Draw|api.Dispatch|api.Copy|api.Clear|api.Resolve) != 0
}

// phase is the progress of one hooked action.
type phase int

const (
	notStarted phase = iota
	preHookRun
	issued
	postHookRun
	resolved
)

var phaseNames = []string{"NotStarted", "PreHookRun", "Issued", "PostHookRun", "Resolved"}

func (p phase) String() string { return phaseNames[p] }

// action drives one hooked action from notStarted to resolved, collecting
// the commands to issue.
type action struct {
	event api.EventID
	cmd   api.Cmd
	issue api.Cmd
	redo  api.Cmd
	phase phase
	out   []api.Cmd
}

func (a *action) step(ctx context.Context, h Hook) {
	switch a.phase {
	case notStarted:
		prologue, sub := h.PreAction(ctx, a.event, a.cmd)
		a.out = append(a.out, prologue...)
		a.issue = a.cmd
		if sub != nil {
			a.issue = sub
		}
		a.phase = preHookRun
	case preHookRun:
		a.out = append(a.out, a.issue)
		a.phase = issued
	case issued:
		epilogue, redo := h.PostAction(ctx, a.event, a.issue)
		a.out = append(a.out, epilogue...)
		a.redo = redo
		a.phase = postHookRun
	case postHookRun:
		if a.redo != nil {
			a.out = append(a.out, a.redo)
			a.out = append(a.out, h.PostRedo(ctx, a.event)...)
		}
		a.phase = resolved
	default:
		log.W(ctx, "Hooked action %v stepped in phase %v", a.event, a.phase)
	}
}

// run returns the commands issued for cmd at event e under h.
func run(ctx context.Context, h Hook, e api.EventID, cmd api.Cmd) []api.Cmd {
	a := &action{event: e, cmd: cmd}
	for a.phase != resolved {
		a.step(ctx, h)
	}
	return a.out
}
