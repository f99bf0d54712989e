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

package api

import "strings"

// ActionFlags is a bitfield describing characteristics of a command or
// action.
type ActionFlags uint32

const (
	Draw ActionFlags = 1 << iota
	Dispatch
	Copy
	Clear
	Resolve
	Barrier
	Query
	Present
	Indexed
	Indirect
	PushMarker
	PopMarker
	SetMarker
	BeginPass
	EndPass
	ExecuteBundle
	Submission
	StateChange
)

// actionMask holds the flags that make a command an action.
const actionMask = Draw | Dispatch | Copy | Clear | Resolve | Barrier | Query | Present

var flagNames = []string{
	"Draw", "Dispatch", "Copy", "Clear", "Resolve", "Barrier", "Query", "Present",
	"Indexed", "Indirect", "PushMarker", "PopMarker", "SetMarker", "BeginPass",
	"EndPass", "ExecuteBundle", "Submission", "StateChange",
}

// IsAction returns true if the command performs GPU visible work that gets
// its own node in the action tree.
func (f ActionFlags) IsAction() bool { return (f & actionMask) != 0 }

// IsDraw returns true if the command is a draw call.
func (f ActionFlags) IsDraw() bool { return (f & Draw) != 0 }

// IsDispatch returns true if the command is a compute dispatch.
func (f ActionFlags) IsDispatch() bool { return (f & Dispatch) != 0 }

// IsCopy returns true if the command copies between resources.
func (f ActionFlags) IsCopy() bool { return (f & Copy) != 0 }

// IsClear returns true if the command is a clear call.
func (f ActionFlags) IsClear() bool { return (f & Clear) != 0 }

// IsResolve returns true if the command is a multisample resolve.
func (f ActionFlags) IsResolve() bool { return (f & Resolve) != 0 }

// IsBarrier returns true if the command declares resource transitions.
func (f ActionFlags) IsBarrier() bool { return (f & Barrier) != 0 }

// IsQuery returns true if the command ends a GPU query.
func (f ActionFlags) IsQuery() bool { return (f & Query) != 0 }

// IsPresent returns true if the command presents a backbuffer.
func (f ActionFlags) IsPresent() bool { return (f & Present) != 0 }

// IsIndirect returns true if the command reads its arguments from a buffer.
func (f ActionFlags) IsIndirect() bool { return (f & Indirect) != 0 }

// IsPushMarker returns true if the command opens a user marker region.
func (f ActionFlags) IsPushMarker() bool { return (f & PushMarker) != 0 }

// IsPopMarker returns true if the command closes the last pushed user marker.
func (f ActionFlags) IsPopMarker() bool { return (f & PopMarker) != 0 }

// IsSetMarker returns true if the command is a non-grouping user marker.
func (f ActionFlags) IsSetMarker() bool { return (f & SetMarker) != 0 }

// IsBeginPass returns true if the command opens a render pass.
func (f ActionFlags) IsBeginPass() bool { return (f & BeginPass) != 0 }

// IsEndPass returns true if the command closes the open render pass.
func (f ActionFlags) IsEndPass() bool { return (f & EndPass) != 0 }

// IsExecuteBundle returns true if the command executes a recorded bundle.
func (f ActionFlags) IsExecuteBundle() bool { return (f & ExecuteBundle) != 0 }

// IsSubmission returns true if the command submits lists to a queue.
func (f ActionFlags) IsSubmission() bool { return (f & Submission) != 0 }

// IsStateChange returns true if the command only changes bound state.
func (f ActionFlags) IsStateChange() bool { return (f & StateChange) != 0 }

func (f ActionFlags) String() string {
	parts := []string{}
	for i, n := range flagNames {
		if f&(1<<uint(i)) != 0 {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "|")
}
