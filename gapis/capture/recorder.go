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

package capture

import (
	"context"
	"runtime"
	"sync"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/baldurk/renderdoc-sub019/gapis/barrier"
	"github.com/pkg/errors"
)

const (
	// ErrListNotBegun is returned when recording to or closing a list that
	// is not open.
	ErrListNotBegun = fault.Const("Command list was never begun")
	// ErrListNotClosed is returned when executing a baked list that was never
	// produced by CloseList.
	ErrListNotClosed = fault.Const("Command list was not closed")
	// ErrListOpen is returned when beginning a list that is already open.
	ErrListOpen = fault.Const("Command list is already open")
	// ErrNestedBundle is returned when a bundle executes another bundle.
	ErrNestedBundle = fault.Const("Bundles cannot execute bundles")
	// ErrNotBundle is returned when ExecuteBundle names a list that was not
	// recorded as a bundle.
	ErrNotBundle = fault.Const("Executed list is not a bundle")
)

const maxCallstackDepth = 32

// Options controls what the recorder stores.
type Options struct {
	// Callstacks stores the CPU callstack of every recorded command.
	Callstacks bool
	// Metadata is copied into every capture produced by the recorder.
	Metadata Metadata
}

type recording struct {
	bundle bool
	cmds   []api.Cmd
	stacks [][]uint64
}

type baked struct {
	list     *gfx.BakedList
	bundle   bool
	executed bool
}

// Recorder intercepts command list and queue calls and builds a capture.
//
// Each list is recorded by a single goroutine at a time. Queue submissions
// may come from any goroutine; submissions to one queue are serialized.
type Recorder struct {
	opts Options

	mutex   sync.Mutex
	open    map[api.ListID]*recording
	baked   map[api.BakedID]*baked
	latest  map[api.ListID]api.BakedID
	queues  map[api.QueueID]*sync.Mutex
	root    []api.Cmd
	stacks  [][]uint64
	state   *gfx.State
	nextID  api.BakedID
	nextEvt api.EventID
}

// New returns a new recorder.
func New(opts Options) *Recorder {
	return &Recorder{
		opts:    opts,
		open:    map[api.ListID]*recording{},
		baked:   map[api.BakedID]*baked{},
		latest:  map[api.ListID]api.BakedID{},
		queues:  map[api.QueueID]*sync.Mutex{},
		state:   gfx.NewState(),
		nextID:  1,
		nextEvt: 1,
	}
}

func (r *Recorder) callstack() []uint64 {
	if !r.opts.Callstacks {
		return nil
	}
	pcs := make([]uintptr, maxCallstackDepth)
	n := runtime.Callers(3, pcs)
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(pcs[i])
	}
	return out
}

// discard drops the last baked list of list if it was never executed.
// r.mutex must be held.
func (r *Recorder) discard(list api.ListID) {
	if id, ok := r.latest[list]; ok {
		if b := r.baked[id]; b != nil && !b.executed {
			delete(r.baked, id)
		}
		delete(r.latest, list)
	}
}

// BeginList starts recording list. A bundle can only be executed from
// other lists with ExecuteBundle.
func (r *Recorder) BeginList(ctx context.Context, list api.ListID, bundle bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.open[list]; ok {
		log.W(ctx, "BeginList(%v): %v", list, ErrListOpen)
		return errors.Wrapf(ErrListOpen, "%v", list)
	}
	r.discard(list)
	r.open[list] = &recording{bundle: bundle}
	return nil
}

func (r *Recorder) recording(ctx context.Context, list api.ListID, op string) (*recording, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	rec, ok := r.open[list]
	if !ok {
		log.W(ctx, "%s(%v): %v", op, list, ErrListNotBegun)
		return nil, errors.Wrapf(ErrListNotBegun, "%v", list)
	}
	return rec, nil
}

// RecordCall appends cmd to the open list. Executing a bundle inlines the
// bundle's commands after the ExecuteBundle command.
func (r *Recorder) RecordCall(ctx context.Context, list api.ListID, cmd api.Cmd) error {
	rec, err := r.recording(ctx, list, "RecordCall")
	if err != nil {
		return err
	}
	stack := r.callstack()
	if eb, ok := cmd.(*gfx.ExecuteBundle); ok {
		if rec.bundle {
			log.W(ctx, "RecordCall(%v): %v", list, ErrNestedBundle)
			return errors.Wrapf(ErrNestedBundle, "%v executes %v", list, eb.Bundle)
		}
		b, err := r.bundle(ctx, eb.Bundle)
		if err != nil {
			return err
		}
		rec.cmds = append(rec.cmds, &gfx.ExecuteBundle{Bundle: eb.Bundle, Count: uint32(len(b.Cmds))})
		rec.cmds = append(rec.cmds, b.Cmds...)
		if r.opts.Callstacks {
			rec.stacks = append(rec.stacks, stack)
			for range b.Cmds {
				rec.stacks = append(rec.stacks, stack)
			}
		}
		return nil
	}
	rec.cmds = append(rec.cmds, cmd)
	if r.opts.Callstacks {
		rec.stacks = append(rec.stacks, stack)
	}
	return nil
}

func (r *Recorder) bundle(ctx context.Context, id api.BakedID) (*gfx.BakedList, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	b, ok := r.baked[id]
	switch {
	case !ok:
		log.W(ctx, "ExecuteBundle(%v): %v", id, ErrListNotClosed)
		return nil, errors.Wrapf(ErrListNotClosed, "bundle %v", id)
	case !b.bundle:
		log.W(ctx, "ExecuteBundle(%v): %v", id, ErrNotBundle)
		return nil, errors.Wrapf(ErrNotBundle, "%v", id)
	}
	b.executed = true
	return b.list, nil
}

// CloseList freezes the open list into a new baked list. Recording to the
// same list id again starts a new, independent baked list.
func (r *Recorder) CloseList(ctx context.Context, list api.ListID) (*gfx.BakedList, error) {
	r.mutex.Lock()
	rec, ok := r.open[list]
	if !ok {
		r.mutex.Unlock()
		log.W(ctx, "CloseList(%v): %v", list, ErrListNotBegun)
		return nil, errors.Wrapf(ErrListNotBegun, "%v", list)
	}
	delete(r.open, list)
	id := r.nextID
	r.nextID++
	r.mutex.Unlock()

	b := gfx.Bake(ctx, id, list, rec.cmds, rec.stacks)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.baked[id] = &baked{list: b, bundle: rec.bundle}
	r.latest[list] = id
	return b, nil
}

// FreeList releases the list. Its last baked list is dropped unless it was
// executed.
func (r *Recorder) FreeList(ctx context.Context, list api.ListID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.open, list)
	r.discard(list)
}

func (r *Recorder) queue(q api.QueueID) *sync.Mutex {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	m, ok := r.queues[q]
	if !ok {
		m = &sync.Mutex{}
		r.queues[q] = m
	}
	return m
}

// Execute records the submission of baked lists to queue. The barriers of
// each list are applied to the recorder's resource states in order.
func (r *Recorder) Execute(ctx context.Context, queue api.QueueID, lists []api.BakedID) error {
	q := r.queue(queue)
	q.Lock()
	defer q.Unlock()

	stack := r.callstack()
	r.mutex.Lock()
	defer r.mutex.Unlock()
	count := api.EventID(0)
	for _, id := range lists {
		b, ok := r.baked[id]
		if !ok || b.bundle {
			log.W(ctx, "Execute(%v): %v is not a closed list", queue, id)
			return errors.Wrapf(ErrListNotClosed, "%v on %v", id, queue)
		}
		count += b.list.Count()
	}
	for _, id := range lists {
		b := r.baked[id]
		b.executed = true
		if err := b.list.ApplyBarriers(ctx, r.state.States, 1, b.list.Count(), barrier.Lenient); err != nil {
			log.W(ctx, "Execute(%v): %v", id, err)
		}
	}
	r.appendRoot(&gfx.ExecuteLists{Queue: queue, Lists: append([]api.BakedID(nil), lists...)}, stack, count)
	return nil
}

// Present records a present of backbuffer on queue.
func (r *Recorder) Present(ctx context.Context, queue api.QueueID, backbuffer api.ResourceID) {
	q := r.queue(queue)
	q.Lock()
	defer q.Unlock()
	stack := r.callstack()
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.appendRoot(&gfx.Present{Queue: queue, Backbuffer: backbuffer}, stack, 0)
}

// Device records a device level command, applying it to the recorder's
// registry. A command the registry rejects is not recorded.
func (r *Recorder) Device(ctx context.Context, cmd gfx.DeviceCmd) error {
	stack := r.callstack()
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := cmd.Mutate(ctx, r.nextEvt, r.state); err != nil {
		log.W(ctx, "%s: %v", cmd.CmdName(), err)
		return err
	}
	r.appendRoot(cmd, stack, 0)
	return nil
}

// appendRoot appends a root command taking 1+inner events.
// r.mutex must be held.
func (r *Recorder) appendRoot(cmd api.Cmd, stack []uint64, inner api.EventID) {
	r.root = append(r.root, cmd)
	if r.opts.Callstacks {
		r.stacks = append(r.stacks, stack)
	}
	r.nextEvt += 1 + inner
}

// States returns a copy of the resource states as of the last submission.
func (r *Recorder) States() *barrier.Table {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.state.States.Clone()
}

// Capture returns a snapshot of everything recorded so far. Only executed
// lists are included.
func (r *Recorder) Capture() *Capture {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	c := &Capture{
		Metadata: r.opts.Metadata,
		Root:     append([]api.Cmd(nil), r.root...),
		Lists:    map[api.BakedID]*gfx.BakedList{},
	}
	c.Metadata.Callstacks = r.opts.Callstacks
	if r.opts.Callstacks {
		c.RootCallstacks = append([][]uint64(nil), r.stacks...)
	}
	for _, cmd := range c.Root {
		if x, ok := cmd.(*gfx.ExecuteLists); ok {
			for _, id := range x.Lists {
				c.Lists[id] = r.baked[id].list
			}
		}
	}
	return c
}
