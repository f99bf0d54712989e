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
	"bytes"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/app/flags"
	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
	"github.com/baldurk/renderdoc-sub019/gapis/config"
	"github.com/baldurk/renderdoc-sub019/gapis/counters"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
)

func TestLastBackbuffer(t *testing.T) {
	ctx := log.Testing(t)
	c, err := capture.Demo(ctx)
	assert.For(ctx, "demo").ThatError(err).Succeeded()
	assert.For(ctx, "backbuffer").That(lastBackbuffer(c)).Equals(capture.DemoBackbuffer)
	assert.For(ctx, "empty").That(lastBackbuffer(&capture.Capture{})).Equals(api.ResourceID(0))
}

func TestModeChoices(t *testing.T) {
	ctx := log.Testing(t)
	m := Mode(replay.Full)
	c := flags.ForEnum(&m)
	assert.For(ctx, "choices").ThatSlice(c.Choices).IsLength(3)
	assert.For(ctx, "set").ThatError(c.Set("OnlyDraw")).Succeeded()
	assert.For(ctx, "mode").That(replay.Mode(m)).Equals(replay.OnlyDraw)
	assert.For(ctx, "unknown").ThatError(c.Set("partial")).Failed()
}

func TestReplayDemoFile(t *testing.T) {
	ctx := log.Testing(t)
	c, err := capture.Demo(ctx)
	assert.For(ctx, "demo").ThatError(err).Succeeded()
	buf := &bytes.Buffer{}
	assert.For(ctx, "write").ThatError(capture.Write(ctx, c, buf)).Succeeded()
	read, err := capture.Read(ctx, buf)
	assert.For(ctx, "read").ThatError(err).Succeeded()

	e, dev, err := newEngine(capture.Put(ctx, read), config.Default(), OutputFlags{})
	assert.For(ctx, "engine").ThatError(err).Succeeded()
	assert.For(ctx, "replay").ThatError(e.ReplayRange(ctx, 0, e.GetMaxEventID(), replay.Full)).Succeeded()
	data, err := e.GetOutputWindowData(ctx, outputHandle)
	assert.For(ctx, "output").ThatError(err).Succeeded()
	assert.For(ctx, "bytes").ThatSlice(data).IsNotEmpty()
	assert.For(ctx, "presents").ThatInteger(dev.Stats().Presents).Equals(1)
}

func TestSelectCounters(t *testing.T) {
	ctx := log.Testing(t)
	p := counters.Queries{}
	var names flags.StringSlice
	assert.For(ctx, "parse").ThatError(names.Set("[samples passed, GPUDuration]")).Succeeded()
	ids, descs, err := selectCounters(p, names)
	assert.For(ctx, "select").ThatError(err).Succeeded()
	assert.For(ctx, "ids").ThatSlice(ids).Equals([]replay.CounterID{counters.SamplesPassed, counters.GPUDuration})
	assert.For(ctx, "descs").That(len(descs)).Equals(2)

	ids, _, err = selectCounters(p, []string{"All"})
	assert.For(ctx, "all").ThatError(err).Succeeded()
	assert.For(ctx, "every counter").ThatSlice(ids).Equals(p.EnumerateCounters())

	_, _, err = selectCounters(p, []string{"frames"})
	assert.For(ctx, "unknown").ThatError(err).HasCause(counters.ErrUnknownCounter)
}
