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

package main

import (
	"github.com/baldurk/renderdoc-sub019/core/app/flags"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
)

type (
	// ConfigFlags selects the YAML configuration.
	ConfigFlags struct {
		Config string `help:"path of the YAML configuration, defaults are used if empty"`
	}
	// RangeFlags selects the events to replay.
	RangeFlags struct {
		Start uint64 `help:"first event to replay, 0 or 1 replays from the start"`
		End   uint64 `help:"last event to replay, 0 replays the whole capture"`
	}
	// OutputFlags selects the resource read back after a replay.
	OutputFlags struct {
		Resource uint64 `help:"resource to read back, 0 picks the last presented backbuffer"`
		File     string `help:"file to write the read back bytes to"`
	}
)

// Mode is a replay.Mode that can be chosen on the command line.
type Mode replay.Mode

var modeNames = map[Mode]string{
	Mode(replay.Full):        "full",
	Mode(replay.WithoutDraw): "withoutdraw",
	Mode(replay.OnlyDraw):    "onlydraw",
}

func (m *Mode) Choose(c interface{}) {
	*m = c.(Mode)
}
func (m Mode) String() string {
	return modeNames[m]
}

var _ flags.Enum = (*Mode)(nil)
