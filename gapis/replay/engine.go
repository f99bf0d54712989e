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

// Package replay replays captures, in whole or in part, on a replay device.
package replay

import (
	"context"
	"fmt"
	"sync"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/barrier"
	"github.com/baldurk/renderdoc-sub019/gapis/capture"
	"github.com/baldurk/renderdoc-sub019/gapis/config"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Mode selects what ReplayRange replays.
type Mode int

const (
	// Full replays every event of the range.
	Full Mode = iota
	// WithoutDraw replays the range with the action at its end skipped.
	WithoutDraw
	// OnlyDraw replays only the action at the end of the range, with the
	// render state it was recorded with.
	OnlyDraw
)

var modeNames = []string{"Full", "WithoutDraw", "OnlyDraw"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode<%d>", int(m))
}

// Cursor is where the last replay stopped.
type Cursor int

const (
	// CursorNone is outside of any list.
	CursorNone Cursor = iota
	// CursorPrimary is part way through a list.
	CursorPrimary
	// CursorSecondary is part way through a bundle inside a list.
	CursorSecondary
)

var cursorNames = []string{"None", "Primary", "Secondary"}

func (c Cursor) String() string { return cursorNames[c] }

// Engine is a replay session of one capture on one device.
//
// Engine is safe for concurrent use; requests are serialized.
type Engine struct {
	capture *capture.Capture
	device  Device
	cuts    *cuts

	mutex    sync.Mutex
	cfg      config.Replay
	timeline *gfx.Timeline
	hook     Hook
	status   error
	// state mirrors the device: its objects keyed by captured ids and
	// addresses, and the resource states the device is actually in.
	state *gfx.State
	// applied is the number of root commands whose device level effects
	// are on the device.
	applied  int
	started  bool
	replayed api.EventID
	cursor   Cursor
	outputs  map[uint64]api.ResourceID
}

// NewEngine returns a replay session for c on dev.
func NewEngine(ctx context.Context, c *capture.Capture, dev Device, cfg config.Replay) (*Engine, error) {
	tl, err := c.Timeline(ctx, cfg.Addresses())
	if err != nil {
		return nil, err
	}
	return &Engine{
		capture:  c,
		device:   dev,
		cuts:     newCuts(cfg.PartialCache),
		cfg:      cfg,
		timeline: tl,
		state:    gfx.NewState(),
		outputs:  map[uint64]api.ResourceID{},
	}, nil
}

// SetHook installs h for subsequent replays. nil removes the hook.
func (e *Engine) SetHook(h Hook) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.hook = h
}

// SetConfig applies a new configuration. Cached cuts are dropped.
func (e *Engine) SetConfig(ctx context.Context, cfg config.Replay) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if cfg.Addresses() != e.cfg.Addresses() {
		tl, err := e.capture.Timeline(ctx, cfg.Addresses())
		if err != nil {
			return err
		}
		e.timeline = tl
	}
	e.cfg = cfg
	e.cuts.reset(cfg.PartialCache)
	log.D(ctx, "Replay configuration changed: %+v", cfg)
	return nil
}

// Status returns the fatal error that ended the session, or nil.
func (e *Engine) Status() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.status
}

// Cursor returns where the last replay stopped.
func (e *Engine) Cursor() Cursor {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.cursor
}

// GetMaxEventID returns the last event of the capture.
func (e *Engine) GetMaxEventID() api.EventID {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.timeline.Max
}

// GetActionForEvent returns the deepest action tree node holding ev.
func (e *Engine) GetActionForEvent(ev api.EventID) (*api.ActionNode, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if ev < 1 || ev > e.timeline.Max {
		return nil, UnknownEventError{Event: ev, Max: e.timeline.Max}
	}
	return e.timeline.Actions.FindAction(ev), nil
}

// GetResourceUsage returns every use of a resource across all executions,
// ordered by event.
func (e *Engine) GetResourceUsage(id api.ResourceID) []api.EventUsage {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.timeline.Usage(id)
}

// GetState returns the states of a resource's subresources after the last
// replayed event, as they were at capture time.
func (e *Engine) GetState(ctx context.Context, id api.ResourceID) []api.SubresourceState {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.timeline.StatesAt(ctx, e.replayed).Get(id)
}

// BindOutput associates an output handle with a resource.
func (e *Engine) BindOutput(handle uint64, id api.ResourceID) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.outputs[handle] = id
}

// GetOutputWindowData waits for the device and returns the contents of the
// resource bound to handle.
func (e *Engine) GetOutputWindowData(ctx context.Context, handle uint64) ([]byte, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.status != nil {
		return nil, e.status
	}
	id, ok := e.outputs[handle]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOutput, "%d", handle)
	}
	if err := e.device.Wait(ctx); err != nil {
		return nil, e.fail(ctx, err)
	}
	data, err := e.device.Read(ctx, id)
	if err != nil {
		return nil, e.fail(ctx, err)
	}
	return data, nil
}

// ReplayRange replays the events [start, end] in the given mode.
//
// A start of 0 or 1 replays from a freshly reset device. Any other start
// continues from the device's current contents, first bringing resource
// states to where the capture had them at start-1.
func (e *Engine) ReplayRange(ctx context.Context, start, end api.EventID, mode Mode) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.replayRange(log.Enter(ctx, "ReplayRange"), start, end, mode, e.hook)
}

// Prefetch builds, in parallel, the cut lists needed to replay up to each
// of the given events.
func (e *Engine) Prefetch(ctx context.Context, ends []api.EventID) error {
	e.mutex.Lock()
	tl := e.timeline
	e.mutex.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, end := range ends {
		loc, ok := tl.Locate(end)
		if !ok {
			return UnknownEventError{Event: end, Max: tl.Max}
		}
		if loc.Exec == nil || loc.Rel == loc.Exec.List.Count() {
			continue
		}
		l, k := loc.Exec.List, cutKey{List: loc.Exec.List.ID, From: 1, To: loc.Rel}
		g.Go(func() error {
			e.cuts.get(gctx, l, k)
			return nil
		})
	}
	return g.Wait()
}

// fail records err as the session status if it is fatal.
// e.mutex must be held.
func (e *Engine) fail(ctx context.Context, err error) error {
	if IsFatal(err) {
		log.W(ctx, "Replay session stopped: %v", err)
		e.status = err
	}
	return err
}

// replayRange validates and performs a request.
// e.mutex must be held.
func (e *Engine) replayRange(ctx context.Context, start, end api.EventID, mode Mode, hook Hook) error {
	if e.status != nil {
		return e.status
	}
	if end < 1 || end > e.timeline.Max {
		return UnknownEventError{Event: end, Max: e.timeline.Max}
	}
	if start > end {
		return errors.Wrapf(ErrInvalidRange, "[%v..%v]", start, end)
	}
	log.D(ctx, "Replaying [%v..%v] %v", start, end, mode)

	var err error
	switch {
	case mode == OnlyDraw:
		err = e.onlyDraw(ctx, end, hook)
	case start <= 1:
		if err = e.reset(ctx); err == nil {
			err = e.run(ctx, 1, end, mode, hook)
		}
	default:
		if err = e.prepare(ctx, start); err == nil {
			err = e.run(ctx, start, end, mode, hook)
		}
	}
	if err != nil {
		// The device is somewhere inside the range. Start again next time.
		e.started = false
		return e.fail(ctx, err)
	}
	e.started, e.replayed = true, end
	e.cursor = e.cursorAt(end)
	return nil
}

func (e *Engine) reset(ctx context.Context) error {
	if err := e.device.Reset(ctx); err != nil {
		return err
	}
	e.state = gfx.NewState()
	e.applied = 0
	return nil
}

// prepare brings the device to the capture's state after start-1: device
// level objects as of start, and resource states as recorded.
func (e *Engine) prepare(ctx context.Context, start api.EventID) error {
	if !e.started || e.deviceAhead(start) {
		log.D(ctx, "Base replay of [1..%v]", start-1)
		if err := e.reset(ctx); err != nil {
			return err
		}
		if err := e.run(ctx, 1, start-1, Full, nil); err != nil {
			return err
		}
	}
	tl := e.timeline
	for ; e.applied < len(tl.Root) && tl.RootEvents[e.applied] < start; e.applied++ {
		if c, ok := tl.Root[e.applied].(gfx.DeviceCmd); ok {
			if err := e.apply(ctx, tl.RootEvents[e.applied], c); err != nil {
				return err
			}
		}
	}
	required := tl.StatesAt(ctx, start-1)
	if set := barrier.Diff(e.state.States, required); !set.IsEmpty() {
		log.D(ctx, "Reconciling %d transitions before %v", set.Len(), start)
		return e.submit(ctx, e.queueAt(start), []api.Cmd{&gfx.Barrier{Set: set}})
	}
	return nil
}

// deviceAhead returns true if a device level command at or after start is
// already on the device.
func (e *Engine) deviceAhead(start api.EventID) bool {
	tl := e.timeline
	for i := e.applied - 1; i >= 0 && tl.RootEvents[i] >= start; i-- {
		if _, ok := tl.Root[i].(gfx.DeviceCmd); ok {
			return true
		}
	}
	return false
}

// run replays the root commands and executions intersecting [from, to].
func (e *Engine) run(ctx context.Context, from, to api.EventID, mode Mode, hook Hook) error {
	tl := e.timeline
	hooked := map[api.BakedID]api.Span{}
	for i, cmd := range tl.Root {
		ev := tl.RootEvents[i]
		if ev > to {
			break
		}
		if x, ok := cmd.(*gfx.ExecuteLists); ok {
			for _, exec := range tl.ExecutionsOf(i) {
				span := exec.Span()
				if span.Last < from || span.First > to {
					continue
				}
				lo, hi := span.First, span.Last
				if from > lo {
					lo = from
				}
				if to < hi {
					hi = to
				}
				neutral := mode == WithoutDraw && hi == to
				if err := e.execute(ctx, exec, lo-exec.Base, hi-exec.Base, neutral, hook, hooked); err != nil {
					return errors.Wrapf(err, "%v of %v", exec, x.CmdName())
				}
			}
		}
		if ev < from || i < e.applied {
			continue
		}
		switch c := cmd.(type) {
		case gfx.DeviceCmd:
			if err := e.apply(ctx, ev, c); err != nil {
				return err
			}
		case *gfx.Present:
			if mode == WithoutDraw && ev == to {
				break
			}
			if err := e.device.Present(ctx, c.Queue, c.Backbuffer); err != nil {
				return err
			}
		}
		e.applied = i + 1
	}
	return nil
}

// apply performs a device level command.
func (e *Engine) apply(ctx context.Context, ev api.EventID, cmd gfx.DeviceCmd) error {
	if err := cmd.Mutate(ctx, ev, e.state); err != nil {
		return log.Errf(ctx, err, "Replaying %v %s", ev, cmd.CmdName())
	}
	if a, ok := cmd.(gfx.AddressedCmd); ok {
		cmd = a.Remap(e.translate(ctx)).(gfx.DeviceCmd)
	}
	return e.device.Apply(ctx, cmd)
}

// execute replays the relative events [lo, hi] of one execution.
// hooked holds the ranges of primary executions run through the hook.
func (e *Engine) execute(ctx context.Context, x *gfx.Execution, lo, hi api.EventID, neutral bool, hook Hook, hooked map[api.BakedID]api.Span) error {
	l := x.List
	recordAll := hook != nil && hook.RecordAll()
	var cmds []api.Cmd
	switch {
	case x.IsAlias() && hook != nil && covers(hooked, l.ID, lo, hi):
		for rel := lo; rel <= hi; rel++ {
			if hookedFlags(l.Cmd(rel).CmdFlags()) {
				hook.AliasEvent(ctx, x.Primary.Global(rel), x.Global(rel))
			}
		}
		cmds = barriers(l, lo, hi)

	case x.IsAlias() && hook == nil && !e.cfg.ResubmitAliases:
		cmds = barriers(l, lo, hi)

	case lo == 1 && hi == l.Count() && !neutral && !recordAll:
		if x.IsAlias() && !e.cfg.ResubmitAliases {
			cmds = barriers(l, lo, hi)
		} else {
			cmds = l.Cmds
		}

	default:
		c := e.cuts.get(ctx, l, cutKey{List: l.ID, From: lo, To: hi, Neutral: neutral})
		if hook == nil {
			cmds = c.cmds()
			break
		}
		cmds = append(cmds, c.Prefix...)
		for i, cmd := range c.Body {
			if hookedFlags(cmd.CmdFlags()) {
				cmds = append(cmds, run(ctx, hook, x.Global(c.event(i)), cmd)...)
			} else {
				cmds = append(cmds, cmd)
			}
		}
		cmds = append(cmds, c.Suffix...)
		if !x.IsAlias() {
			hooked[l.ID] = api.Span{First: lo, Last: hi}
		}
	}

	if hi < l.Count() {
		cmds = append(cmds, e.restore(ctx, l, cmds, hi)...)
	}
	if len(cmds) == 0 {
		return nil
	}
	return e.submit(ctx, x.Queue, cmds)
}

func covers(hooked map[api.BakedID]api.Span, id api.BakedID, lo, hi api.EventID) bool {
	s, ok := hooked[id]
	return ok && s.First <= lo && hi <= s.Last
}

// barriers returns the barrier commands of the relative events [lo, hi].
func barriers(l *gfx.BakedList, lo, hi api.EventID) []api.Cmd {
	var out []api.Cmd
	for rel := lo; rel <= hi; rel++ {
		if b, ok := l.Cmd(rel).(*gfx.Barrier); ok {
			out = append(out, b)
		}
	}
	return out
}

// restore returns the barrier taking every resource from its state after
// cmds to the state the whole of l would have left it in.
func (e *Engine) restore(ctx context.Context, l *gfx.BakedList, cmds []api.Cmd, hi api.EventID) []api.Cmd {
	atCut := e.state.States.Clone()
	for _, cmd := range cmds {
		if b, ok := cmd.(*gfx.Barrier); ok {
			barrier.Apply(ctx, b.Set, atCut, barrier.Silent)
		}
	}
	atEnd := atCut.Clone()
	l.ApplyBarriers(ctx, atEnd, hi+1, l.Count(), barrier.Silent)
	set := barrier.Diff(atCut, atEnd)
	if set.IsEmpty() {
		return nil
	}
	return []api.Cmd{&gfx.Barrier{Set: set}}
}

// onlyDraw replays the single event end on top of the capture's state
// before it.
func (e *Engine) onlyDraw(ctx context.Context, end api.EventID, hook Hook) error {
	if end <= 1 {
		if err := e.reset(ctx); err != nil {
			return err
		}
	} else if err := e.prepare(ctx, end); err != nil {
		return err
	}
	loc, _ := e.timeline.Locate(end)
	if loc.Exec == nil {
		return e.run(ctx, end, end, Full, hook)
	}
	l := loc.Exec.List
	rs, open := scan(l, loc.Rel-1)
	rs.PassActive = false
	cmds := append(gfx.RestoreState(rs), open...)
	if cmd := l.Cmd(loc.Rel); cmd.CmdFlags().IsAction() {
		if hook != nil && hookedFlags(cmd.CmdFlags()) {
			cmds = append(cmds, run(ctx, hook, end, cmd)...)
		} else {
			cmds = append(cmds, cmd)
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		if _, ok := open[i].(*gfx.BeginPass); ok {
			cmds = append(cmds, &gfx.EndPass{})
		} else {
			cmds = append(cmds, &gfx.PopMarker{})
		}
	}
	return e.submit(ctx, loc.Exec.Queue, cmds)
}

// submit applies the barriers of cmds to the device states, translates
// addresses and submits cmds to the device.
func (e *Engine) submit(ctx context.Context, queue api.QueueID, cmds []api.Cmd) error {
	translate := e.translate(ctx)
	out := make([]api.Cmd, len(cmds))
	for i, cmd := range cmds {
		if b, ok := cmd.(*gfx.Barrier); ok {
			if err := barrier.Apply(ctx, b.Set, e.state.States, e.cfg.Barriers()); err != nil {
				return err
			}
		}
		out[i] = gfx.RemapAddresses(cmd, translate)
	}
	return e.device.Submit(ctx, queue, out)
}

// translate returns the function mapping captured addresses to device
// addresses. Unresolved addresses are kept.
func (e *Engine) translate(ctx context.Context) func(uint64) uint64 {
	policy := e.cfg.Addresses()
	return func(addr uint64) uint64 {
		if addr == 0 {
			return 0
		}
		id, offset, ok := e.state.Addresses.Resolve(addr, policy)
		if !ok {
			log.W(ctx, "Address 0x%x is not in any resource", addr)
			return addr
		}
		base, ok := e.device.Address(id)
		if !ok {
			log.W(ctx, "%v has no address on the device", id)
			return addr
		}
		return base + offset
	}
}

// queueAt returns the queue to reconcile states on before start.
func (e *Engine) queueAt(start api.EventID) api.QueueID {
	var queue api.QueueID
	for _, x := range e.timeline.Executions {
		queue = x.Queue
		if x.Span().Last >= start {
			break
		}
	}
	return queue
}

func (e *Engine) cursorAt(end api.EventID) Cursor {
	loc, ok := e.timeline.Locate(end)
	if !ok || loc.Exec == nil || loc.Rel == loc.Exec.List.Count() {
		return CursorNone
	}
	if _, in := loc.Exec.List.BundleAt(loc.Rel); in {
		return CursorSecondary
	}
	return CursorPrimary
}
