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

package replay_test

import (
	"context"
	"sync"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
	"github.com/baldurk/renderdoc-sub019/gapis/config"
	"github.com/baldurk/renderdoc-sub019/gapis/descriptor"
	"github.com/baldurk/renderdoc-sub019/gapis/replay"
	"github.com/baldurk/renderdoc-sub019/gapis/replay/soft"
	"golang.org/x/sync/errgroup"
)

// Events of the demo frame.
const (
	copyEvent      = api.EventID(11)
	firstDraw      = api.EventID(20)
	executeBundle  = api.EventID(21)
	bundleDraw     = api.EventID(22)
	endOfList      = api.EventID(25)
	present        = api.EventID(26)
	aliasCopy      = api.EventID(29)
	aliasFirstDraw = api.EventID(38)
	aliasDraw      = api.EventID(40)
	lastEvent      = api.EventID(43)
)

const backbuffer = uint64(1)

func newEngine(ctx context.Context, cfg config.Replay) (*replay.Engine, *soft.Device) {
	c, err := capture.Demo(ctx)
	assert.For(ctx, "demo").ThatError(err).Succeeded()
	dev := soft.New()
	e, err := replay.NewEngine(ctx, c, dev, cfg)
	assert.For(ctx, "engine").ThatError(err).Succeeded()
	e.BindOutput(backbuffer, capture.DemoBackbuffer)
	return e, dev
}

func output(ctx context.Context, e *replay.Engine) []byte {
	data, err := e.GetOutputWindowData(ctx, backbuffer)
	assert.For(ctx, "output").ThatError(err).Succeeded()
	return data
}

func zero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// counting records the hook calls it receives.
type counting struct {
	replay.NoHook
	all     bool
	mutex   sync.Mutex
	pre     []api.EventID
	post    []api.EventID
	aliases map[api.EventID]api.EventID
}

func (h *counting) PreAction(ctx context.Context, e api.EventID, cmd api.Cmd) ([]api.Cmd, api.Cmd) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.pre = append(h.pre, e)
	return nil, nil
}

func (h *counting) PostAction(ctx context.Context, e api.EventID, cmd api.Cmd) ([]api.Cmd, api.Cmd) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.post = append(h.post, e)
	return nil, nil
}

func (h *counting) AliasEvent(ctx context.Context, primary, alias api.EventID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.aliases == nil {
		h.aliases = map[api.EventID]api.EventID{}
	}
	h.aliases[alias] = primary
}

func (h *counting) RecordAll() bool { return h.all }

func TestReplayDeterministic(t *testing.T) {
	ctx := log.Testing(t)
	a, devA := newEngine(ctx, config.Default().Replay)
	b, _ := newEngine(ctx, config.Default().Replay)

	assert.For(ctx, "replay a").ThatError(a.ReplayRange(ctx, 0, lastEvent, replay.Full)).Succeeded()
	assert.For(ctx, "replay b").ThatError(b.ReplayRange(ctx, 0, lastEvent, replay.Full)).Succeeded()
	first := output(ctx, a)
	assert.For(ctx, "drawn").ThatBoolean(zero(first)).IsFalse()
	assert.For(ctx, "same device").ThatSlice(output(ctx, b)).Equals(first)

	assert.For(ctx, "again").ThatError(a.ReplayRange(ctx, 0, lastEvent, replay.Full)).Succeeded()
	assert.For(ctx, "repeatable").ThatSlice(output(ctx, a)).Equals(first)
	assert.For(ctx, "addresses translated").ThatInteger(devA.Stats().Unresolved).Equals(0)
	assert.For(ctx, "presents").ThatInteger(devA.Stats().Presents).Equals(2)
}

func TestReplayQueries(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)

	assert.For(ctx, "max").That(e.GetMaxEventID()).Equals(lastEvent)
	n, err := e.GetActionForEvent(bundleDraw)
	assert.For(ctx, "action").ThatError(err).Succeeded()
	assert.For(ctx, "draw").That(n.EventID).Equals(bundleDraw)
	_, err = e.GetActionForEvent(lastEvent + 1)
	assert.For(ctx, "past end").ThatError(err).Equals(replay.UnknownEventError{Event: lastEvent + 1, Max: lastEvent})
	_, err = e.GetActionForEvent(0)
	assert.For(ctx, "event 0").ThatError(err).Failed()

	usage := e.GetResourceUsage(capture.DemoUpload)
	assert.For(ctx, "usage").ThatSlice(usage).IsNotEmpty()
	for i := 1; i < len(usage); i++ {
		assert.For(ctx, "usage order").ThatBoolean(usage[i-1].Event <= usage[i].Event).IsTrue()
	}

	assert.For(ctx, "state before replay").ThatSlice(e.GetState(ctx, capture.DemoBackbuffer)).IsEmpty()
}

func TestReplayErrors(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)

	err := e.ReplayRange(ctx, 0, lastEvent+1, replay.Full)
	assert.For(ctx, "unknown event").ThatError(err).Equals(replay.UnknownEventError{Event: lastEvent + 1, Max: lastEvent})
	err = e.ReplayRange(ctx, 10, 5, replay.Full)
	assert.For(ctx, "inverted range").ThatError(err).HasCause(replay.ErrInvalidRange)
	_, err = e.GetOutputWindowData(ctx, 99)
	assert.For(ctx, "unknown output").ThatError(err).HasCause(replay.ErrUnknownOutput)
	assert.For(ctx, "not fatal").ThatError(e.Status()).Succeeded()
}

func TestReplayDeviceLost(t *testing.T) {
	ctx := log.Testing(t)
	e, dev := newEngine(ctx, config.Default().Replay)

	dev.Fail(replay.ErrDeviceLost)
	err := e.ReplayRange(ctx, 0, firstDraw, replay.Full)
	assert.For(ctx, "lost").ThatError(err).HasCause(replay.ErrDeviceLost)
	assert.For(ctx, "status").ThatError(e.Status()).HasCause(replay.ErrDeviceLost)

	dev.Fail(nil)
	err = e.ReplayRange(ctx, 0, firstDraw, replay.Full)
	assert.For(ctx, "sticky").ThatError(err).HasCause(replay.ErrDeviceLost)
	_, err = e.GetOutputWindowData(ctx, backbuffer)
	assert.For(ctx, "sticky output").ThatError(err).HasCause(replay.ErrDeviceLost)
}

func TestReplayCutState(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)
	rt := []api.SubresourceState{api.LegacyState{States: api.StateRenderTarget}}
	common := []api.SubresourceState{api.CommonLegacy}

	assert.For(ctx, "cut").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.Full)).Succeeded()
	assert.For(ctx, "state at cut").ThatSlice(e.GetState(ctx, capture.DemoBackbuffer)).DeepEquals(rt)
	assert.For(ctx, "cursor").That(e.Cursor()).Equals(replay.CursorPrimary)

	assert.For(ctx, "rest").ThatError(e.ReplayRange(ctx, firstDraw+1, present, replay.Full)).Succeeded()
	assert.For(ctx, "state at present").ThatSlice(e.GetState(ctx, capture.DemoBackbuffer)).DeepEquals(common)
	assert.For(ctx, "cursor at root").That(e.Cursor()).Equals(replay.CursorNone)
	partial := output(ctx, e)

	f, _ := newEngine(ctx, config.Default().Replay)
	assert.For(ctx, "whole").ThatError(f.ReplayRange(ctx, 0, present, replay.Full)).Succeeded()
	assert.For(ctx, "split matches whole").ThatSlice(partial).Equals(output(ctx, f))
}

func TestReplayImplicitBase(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)
	f, _ := newEngine(ctx, config.Default().Replay)

	assert.For(ctx, "partial").ThatError(e.ReplayRange(ctx, bundleDraw, endOfList, replay.Full)).Succeeded()
	assert.For(ctx, "whole").ThatError(f.ReplayRange(ctx, 0, endOfList, replay.Full)).Succeeded()
	assert.For(ctx, "same output").ThatSlice(output(ctx, e)).Equals(output(ctx, f))

	// Going back over device level commands replays from the start.
	assert.For(ctx, "backwards").ThatError(e.ReplayRange(ctx, 5, firstDraw, replay.Full)).Succeeded()
	assert.For(ctx, "to draw").ThatError(f.ReplayRange(ctx, 0, firstDraw, replay.Full)).Succeeded()
	assert.For(ctx, "same after backwards").ThatSlice(output(ctx, e)).Equals(output(ctx, f))
}

func TestReplayModes(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)

	assert.For(ctx, "full").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.Full)).Succeeded()
	full := output(ctx, e)
	assert.For(ctx, "full drew").ThatBoolean(zero(full)).IsFalse()

	assert.For(ctx, "without").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.WithoutDraw)).Succeeded()
	assert.For(ctx, "without drew nothing").ThatBoolean(zero(output(ctx, e))).IsTrue()

	assert.For(ctx, "only").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.OnlyDraw)).Succeeded()
	assert.For(ctx, "only draw").ThatSlice(output(ctx, e)).Equals(full)
	assert.For(ctx, "only state").ThatSlice(e.GetState(ctx, capture.DemoBackbuffer)).DeepEquals(
		[]api.SubresourceState{api.LegacyState{States: api.StateRenderTarget}})
}

func TestReplayCursor(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)
	for _, test := range []struct {
		end    api.EventID
		expect replay.Cursor
	}{
		{firstDraw, replay.CursorPrimary},
		{bundleDraw, replay.CursorSecondary},
		{endOfList, replay.CursorNone},
		{present, replay.CursorNone},
		{aliasFirstDraw, replay.CursorPrimary},
		{lastEvent, replay.CursorNone},
	} {
		ctx := log.Enter(ctx, test.end.String())
		assert.For(ctx, "replay").ThatError(e.ReplayRange(ctx, 0, test.end, replay.Full)).Succeeded()
		assert.For(ctx, "cursor").That(e.Cursor()).Equals(test.expect)
	}
}

func TestReplayHook(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)

	h := &counting{}
	e.SetHook(h)
	assert.For(ctx, "whole lists").ThatError(e.ReplayRange(ctx, 0, lastEvent, replay.Full)).Succeeded()
	assert.For(ctx, "not re-recorded").ThatSlice(h.pre).IsEmpty()

	assert.For(ctx, "cut").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.Full)).Succeeded()
	assert.For(ctx, "cut pre").ThatSlice(h.pre).Equals([]api.EventID{copyEvent, firstDraw})
	assert.For(ctx, "cut post").ThatSlice(h.post).Equals([]api.EventID{copyEvent, firstDraw})
}

func TestReplayHookAliases(t *testing.T) {
	ctx := log.Testing(t)
	e, dev := newEngine(ctx, config.Default().Replay)

	h := &counting{all: true}
	e.SetHook(h)
	assert.For(ctx, "replay").ThatError(e.ReplayRange(ctx, 0, lastEvent, replay.Full)).Succeeded()
	assert.For(ctx, "primary actions").ThatSlice(h.pre).Equals([]api.EventID{copyEvent, firstDraw, bundleDraw})
	assert.For(ctx, "aliases").That(h.aliases).DeepEquals(map[api.EventID]api.EventID{
		aliasCopy:      copyEvent,
		aliasFirstDraw: firstDraw,
		aliasDraw:      bundleDraw,
	})
	// The copy and both draws run once; the alias only submits barriers.
	assert.For(ctx, "actions").ThatInteger(dev.Stats().Actions).Equals(3)
}

func TestReplayAliasResubmit(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		resubmit bool
		end      api.EventID
		mode     replay.Mode
		actions  int
	}{
		{true, lastEvent, replay.Full, 6},
		{false, lastEvent, replay.Full, 3},
		{true, aliasDraw, replay.Full, 6},
		{false, aliasDraw, replay.Full, 3},
		{true, aliasDraw, replay.WithoutDraw, 5},
		{false, aliasDraw, replay.WithoutDraw, 3},
	} {
		cfg := config.Default().Replay
		cfg.ResubmitAliases = test.resubmit
		e, dev := newEngine(ctx, cfg)
		assert.For(ctx, "replay").ThatError(e.ReplayRange(ctx, 0, test.end, test.mode)).Succeeded()
		assert.For(ctx, "actions resubmit:%v end:%v mode:%v", test.resubmit, test.end, test.mode).
			ThatInteger(dev.Stats().Actions).Equals(test.actions)
	}
}

func TestReplayCutCache(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)

	assert.For(ctx, "prefetch").ThatError(e.Prefetch(ctx, []api.EventID{firstDraw, executeBundle, aliasDraw, present})).Succeeded()
	cached, built := replay.CutStats(e)
	assert.For(ctx, "prefetched").ThatInteger(built).Equals(3)
	assert.For(ctx, "cached").ThatInteger(cached).Equals(3)

	assert.For(ctx, "replay").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.Full)).Succeeded()
	assert.For(ctx, "replay again").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.Full)).Succeeded()
	_, built = replay.CutStats(e)
	assert.For(ctx, "reused").ThatInteger(built).Equals(3)

	cfg := config.Default().Replay
	cfg.PartialCache = 1
	assert.For(ctx, "config").ThatError(e.SetConfig(ctx, cfg)).Succeeded()
	cached, _ = replay.CutStats(e)
	assert.For(ctx, "invalidated").ThatInteger(cached).Equals(0)

	assert.For(ctx, "first").ThatError(e.ReplayRange(ctx, 0, firstDraw, replay.Full)).Succeeded()
	assert.For(ctx, "second").ThatError(e.ReplayRange(ctx, 0, bundleDraw, replay.Full)).Succeeded()
	cached, built = replay.CutStats(e)
	assert.For(ctx, "bounded").ThatInteger(cached).Equals(1)
	assert.For(ctx, "rebuilt").ThatInteger(built).Equals(5)
}

func TestReplayStrictBarriers(t *testing.T) {
	ctx := log.Testing(t)
	cfg := config.Default().Replay
	cfg.BarrierPolicy = "strict"
	e, _ := newEngine(ctx, cfg)

	for _, end := range []api.EventID{firstDraw, bundleDraw, lastEvent, executeBundle} {
		assert.For(ctx, "replay to %v", end).ThatError(e.ReplayRange(ctx, 0, end, replay.Full)).Succeeded()
	}
	assert.For(ctx, "partial").ThatError(e.ReplayRange(ctx, bundleDraw, lastEvent, replay.Full)).Succeeded()
}

func TestReplayConcurrent(t *testing.T) {
	ctx := log.Testing(t)
	e, _ := newEngine(ctx, config.Default().Replay)

	g, gctx := errgroup.WithContext(ctx)
	for end := api.EventID(1); end <= lastEvent; end++ {
		end := end
		g.Go(func() error { return e.ReplayRange(gctx, 0, end, replay.Full) })
		g.Go(func() error {
			_, err := e.GetActionForEvent(end)
			return err
		})
	}
	assert.For(ctx, "concurrent").ThatError(g.Wait()).Succeeded()
}

func TestReplayRecordAllMatchesPlain(t *testing.T) {
	ctx := log.Testing(t)
	plain, _ := newEngine(ctx, config.Default().Replay)
	hooked, _ := newEngine(ctx, config.Default().Replay)
	hooked.SetHook(&counting{all: true})

	assert.For(ctx, "plain").ThatError(plain.ReplayRange(ctx, 0, present, replay.Full)).Succeeded()
	assert.For(ctx, "hooked").ThatError(hooked.ReplayRange(ctx, 0, present, replay.Full)).Succeeded()
	assert.For(ctx, "same").ThatSlice(output(ctx, hooked)).Equals(output(ctx, plain))
}

// destroyedViewCapture records a list that dispatches through an SRV of a
// texture, executes it, destroys the texture and executes the list again.
func destroyedViewCapture(ctx context.Context) (*capture.Capture, api.DescriptorHandle) {
	const (
		texture = api.ResourceID(5)
		heap    = api.ResourceID(11)
		list    = api.ListID(100)
		queue   = api.QueueID(1)
	)
	srv := api.DescriptorHandle{Heap: heap}
	r := capture.New(capture.Options{Metadata: capture.Metadata{Name: "destroyed view", API: "D3D12"}})
	for _, cmd := range []gfx.DeviceCmd{
		&gfx.CreateResource{ID: texture, Desc: api.Texture2DDesc(4, 4, api.FormatR8G8B8A8Unorm, 0)},
		&gfx.CreateHeap{ID: heap, Kind: descriptor.HeapCBVSRVUAV, Count: 1},
		&gfx.CreateView{Dst: srv, View: descriptor.SRVView{Resource: texture, Format: api.FormatR8G8B8A8Unorm}},
	} {
		assert.For(ctx, "record %s", cmd.CmdName()).ThatError(r.Device(ctx, cmd)).Succeeded()
	}
	assert.For(ctx, "begin").ThatError(r.BeginList(ctx, list, false)).Succeeded()
	for _, cmd := range []api.Cmd{
		&gfx.SetDescriptorHeaps{Heaps: []api.ResourceID{heap}},
		&gfx.SetRootTable{Param: 0, Table: srv, Count: 1},
		&gfx.Dispatch{X: 1, Y: 1, Z: 1},
	} {
		assert.For(ctx, "record %s", cmd.CmdName()).ThatError(r.RecordCall(ctx, list, cmd)).Succeeded()
	}
	baked, err := r.CloseList(ctx, list)
	assert.For(ctx, "close").ThatError(err).Succeeded()
	assert.For(ctx, "execute").ThatError(r.Execute(ctx, queue, []api.BakedID{baked.ID})).Succeeded()
	assert.For(ctx, "destroy").ThatError(r.Device(ctx, &gfx.DestroyResource{ID: texture})).Succeeded()
	assert.For(ctx, "execute again").ThatError(r.Execute(ctx, queue, []api.BakedID{baked.ID})).Succeeded()
	return r.Capture(), srv
}

func TestReplayDestroyedViewResource(t *testing.T) {
	ctx := log.Testing(t)
	c, srv := destroyedViewCapture(ctx)
	dev := soft.New()
	e, err := replay.NewEngine(ctx, c, dev, config.Default().Replay)
	assert.For(ctx, "engine").ThatError(err).Succeeded()

	assert.For(ctx, "replay").ThatError(e.ReplayRange(ctx, 0, e.GetMaxEventID(), replay.Full)).Succeeded()
	v, ok := dev.View(srv)
	assert.For(ctx, "realized").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "null view").That(v).DeepEquals(descriptor.Null(descriptor.SRV))
	assert.For(ctx, "dispatches").ThatInteger(dev.Stats().Actions).Equals(2)
}
