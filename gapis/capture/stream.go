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
	"bytes"
	"context"
	"io"

	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/api/gfx"
	"github.com/pkg/errors"
)

// Chunk tags below 16 are reserved for the container. Command kinds start
// at 16.
const (
	tagMetadata  uint32 = 1
	tagListBegin uint32 = 2
	tagCallstack uint32 = 3
	tagListEnd   uint32 = 4
)

const maxCallstack = 1 << 10

type encoder struct {
	w *pack.Writer
}

func (e *encoder) chunk(tag uint32, data []byte) error {
	_, err := e.w.Chunk(tag, data)
	return err
}

func (e *encoder) cmds(cmds []api.Cmd, stacks [][]uint64) error {
	for i, cmd := range cmds {
		if err := e.chunk(cmd.CmdKind(), api.EncodeCmd(cmd)); err != nil {
			return err
		}
		if i < len(stacks) && stacks[i] != nil {
			enc := pack.NewEncoder().Uint(uint64(len(stacks[i])))
			for _, pc := range stacks[i] {
				enc.Uint(pc)
			}
			if err := e.chunk(tagCallstack, enc.Bytes()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write writes c to w as a chunk stream: the metadata, every baked list
// in id order, then the root timeline.
func Write(ctx context.Context, c *Capture, w io.Writer) error {
	pw, err := pack.NewWriter(w)
	if err != nil {
		return log.Err(ctx, err, "Writing capture header")
	}
	e := &encoder{w: pw}
	meta := &bytes.Buffer{}
	if err := WriteMetadata(ctx, c.Metadata, meta); err != nil {
		return err
	}
	if err := e.chunk(tagMetadata, meta.Bytes()); err != nil {
		return log.Err(ctx, err, "Writing capture metadata")
	}
	for _, id := range c.ListIDs() {
		l := c.Lists[id]
		begin := pack.NewEncoder().Uint(uint64(l.ID)).Uint(uint64(l.List)).Uint(uint64(len(l.Cmds)))
		if err := e.chunk(tagListBegin, begin.Bytes()); err != nil {
			return log.Errf(ctx, err, "Writing %v", l.ID)
		}
		if err := e.cmds(l.Cmds, l.Callstacks); err != nil {
			return log.Errf(ctx, err, "Writing %v", l.ID)
		}
		if err := e.chunk(tagListEnd, nil); err != nil {
			return log.Errf(ctx, err, "Writing %v", l.ID)
		}
	}
	if err := e.cmds(c.Root, c.RootCallstacks); err != nil {
		return log.Err(ctx, err, "Writing root timeline")
	}
	return nil
}

type openList struct {
	id     api.BakedID
	list   api.ListID
	count  int
	cmds   []api.Cmd
	stacks [][]uint64
}

type decoder struct {
	ctx    context.Context
	c      *Capture
	open   *openList
	stacks bool
}

func (d *decoder) chunk(ch pack.Chunk) error {
	switch ch.Tag {
	case tagMetadata:
		m, err := ReadMetadata(d.ctx, bytes.NewReader(ch.Data))
		if err != nil {
			return errors.Wrapf(pack.ErrMalformed, "metadata at offset %d: %v", ch.Offset, err)
		}
		d.c.Metadata = m
	case tagListBegin:
		if d.open != nil {
			return errors.Wrapf(pack.ErrMalformed, "%v not ended at offset %d", d.open.id, ch.Offset)
		}
		dec := pack.NewDecoder(ch.Data)
		l := &openList{id: api.BakedID(dec.Uint()), list: api.ListID(dec.Uint()), count: int(dec.Uint())}
		if err := dec.Err(); err != nil {
			return errors.Wrapf(err, "list header at offset %d", ch.Offset)
		}
		if _, dup := d.c.Lists[l.id]; dup {
			return errors.Wrapf(pack.ErrMalformed, "%v written twice", l.id)
		}
		d.open = l
	case tagListEnd:
		l := d.open
		if l == nil || len(l.cmds) != l.count {
			return errors.Wrapf(pack.ErrMalformed, "unexpected list end at offset %d", ch.Offset)
		}
		var stacks [][]uint64
		if d.stacks {
			stacks = l.stacks
		}
		d.c.Lists[l.id] = gfx.Bake(d.ctx, l.id, l.list, l.cmds, stacks)
		d.open = nil
	case tagCallstack:
		dec := pack.NewDecoder(ch.Data)
		pcs := make([]uint64, dec.Count(maxCallstack))
		for i := range pcs {
			pcs[i] = dec.Uint()
		}
		if err := dec.Err(); err != nil {
			return errors.Wrapf(err, "callstack at offset %d", ch.Offset)
		}
		if !d.setStack(pcs) {
			return errors.Wrapf(pack.ErrMalformed, "callstack without command at offset %d", ch.Offset)
		}
	default:
		cmd, err := api.DecodeCmd(ch)
		if err != nil {
			return err
		}
		if l := d.open; l != nil {
			l.cmds = append(l.cmds, cmd)
			l.stacks = append(l.stacks, nil)
		} else {
			d.c.Root = append(d.c.Root, cmd)
			d.c.RootCallstacks = append(d.c.RootCallstacks, nil)
		}
	}
	return nil
}

// setStack attaches pcs to the last decoded command.
func (d *decoder) setStack(pcs []uint64) bool {
	d.stacks = true
	if l := d.open; l != nil {
		if len(l.stacks) == 0 {
			return false
		}
		l.stacks[len(l.stacks)-1] = pcs
		return true
	}
	if len(d.c.RootCallstacks) == 0 {
		return false
	}
	d.c.RootCallstacks[len(d.c.RootCallstacks)-1] = pcs
	return true
}

// Read reads a capture written by Write. Baked lists are re-baked from
// their commands.
func Read(ctx context.Context, r io.Reader) (*Capture, error) {
	pr, err := pack.NewReader(r)
	if err != nil {
		return nil, err
	}
	d := &decoder{ctx: ctx, c: &Capture{Lists: map[api.BakedID]*gfx.BakedList{}}}
	if err := pr.ReadAll(d.chunk); err != nil {
		return nil, err
	}
	if d.open != nil {
		return nil, errors.Wrapf(pack.ErrTruncated, "%v not ended", d.open.id)
	}
	if !d.stacks {
		d.c.RootCallstacks = nil
	}
	for _, cmd := range d.c.Root {
		if x, ok := cmd.(*gfx.ExecuteLists); ok {
			for _, id := range x.Lists {
				if _, ok := d.c.Lists[id]; !ok {
					return nil, errors.Wrapf(pack.ErrMalformed, "%v executed but not written", id)
				}
			}
		}
	}
	return d.c, nil
}
