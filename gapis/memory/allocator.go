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

package memory

import (
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/math/interval"
)

// Allocator hands out GPU virtual address ranges.
type Allocator interface {
	// Alloc allocates count bytes at an address that is a multiple of align.
	Alloc(count, align uint64) (uint64, error)

	// Free marks the block starting at the given address as free.
	Free(base uint64) error
}

// NewBasicAllocator returns a first fit allocator over the addresses
// [base, base+size).
func NewBasicAllocator(base, size uint64) Allocator {
	return &basicAllocator{
		free:        interval.U64SpanList{{Start: base, End: base + size}},
		allocations: map[uint64]uint64{},
	}
}

type basicAllocator struct {
	free        interval.U64SpanList
	allocations map[uint64]uint64
}

// Alloc implements Allocator.
func (c *basicAllocator) Alloc(count, align uint64) (uint64, error) {
	if count == 0 {
		count = 1
	}
	if align == 0 {
		align = 1
	}
	for i, chunk := range c.free {
		pad := align - chunk.Start%align
		if pad == align {
			pad = 0
		}
		base := chunk.Start + pad
		if base+count > chunk.End {
			continue
		}
		tail := interval.U64Span{Start: base + count, End: chunk.End}
		switch {
		case pad == 0 && tail.Start == tail.End:
			interval.Remove(&c.free, i)
		case pad == 0:
			c.free[i] = tail
		case tail.Start == tail.End:
			c.free[i].End = base
		default:
			c.free[i].End = base
			interval.Insert(&c.free, i+1)
			c.free[i+1] = tail
		}
		c.allocations[base] = count
		return base, nil
	}
	return 0, fmt.Errorf("Not enough contiguous free space to allocate %d bytes", count)
}

// Free implements Allocator.
func (c *basicAllocator) Free(base uint64) error {
	size, ok := c.allocations[base]
	if !ok {
		return fmt.Errorf("Attempted to free with an unknown address 0x%x", base)
	}
	delete(c.allocations, base)
	span := interval.U64Span{Start: base, End: base + size}
	i := interval.Search(c.free, func(s interval.U64Span) bool { return s.Start > base })
	interval.Insert(&c.free, i)
	c.free[i] = span
	// Merge with the neighbours.
	if i+1 < len(c.free) && c.free[i].End == c.free[i+1].Start {
		c.free[i].End = c.free[i+1].End
		interval.Remove(&c.free, i+1)
	}
	if i > 0 && c.free[i-1].End == c.free[i].Start {
		c.free[i-1].End = c.free[i].End
		interval.Remove(&c.free, i)
	}
	return nil
}
