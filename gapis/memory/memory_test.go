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

package memory_test

import (
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
	"github.com/baldurk/renderdoc-sub019/gapis/memory"
)

func newTracker() *memory.Tracker {
	t := &memory.Tracker{}
	t.Add(memory.NewRange(3, 0x3000, 0x100, 0x200))
	t.Add(memory.NewRange(1, 0x1000, 0x100, 0))
	t.Add(memory.NewRange(2, 0x2000, 0x80, 0x100))
	return t
}

func TestResolve(t *testing.T) {
	ctx := log.Testing(t)
	tracker := newTracker()
	for _, test := range []struct {
		name   string
		addr   uint64
		policy memory.Policy
		id     api.ResourceID
		offset uint64
		ok     bool
	}{
		{"start", 0x1000, memory.Strict, 1, 0, true},
		{"last byte", 0x10ff, memory.Strict, 1, 0xff, true},
		{"real end", 0x1100, memory.Strict, 0, 0, false},
		{"real end permissive no backing", 0x1100, memory.Permissive, 0, 0, false},
		{"past real end strict", 0x2080, memory.Strict, 0, 0, false},
		{"past real end permissive", 0x2080, memory.Permissive, 2, 0x80, true},
		{"oob end permissive", 0x2100, memory.Permissive, 0, 0, false},
		{"before first", 0x0fff, memory.Permissive, 0, 0, false},
		{"gap", 0x2800, memory.Permissive, 0, 0, false},
		{"last range", 0x31ff, memory.Permissive, 3, 0x1ff, true},
	} {
		id, offset, ok := tracker.Resolve(test.addr, test.policy)
		assert.For(ctx, "%s ok", test.name).ThatBoolean(ok).Equals(test.ok)
		assert.For(ctx, "%s id", test.name).That(id).Equals(test.id)
		assert.For(ctx, "%s offset", test.name).That(offset).Equals(test.offset)
	}
}

func TestOrdering(t *testing.T) {
	ctx := log.Testing(t)
	tracker := newTracker()
	got := []api.ResourceID{}
	for _, r := range tracker.Ranges() {
		got = append(got, r.Resource)
	}
	assert.For(ctx, "order").ThatSlice(got).Equals([]api.ResourceID{1, 2, 3})
	r, ok := tracker.Lookup(2)
	assert.For(ctx, "lookup").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "lookup range").That(r).Equals(memory.Range{Start: 0x2000, RealEnd: 0x2080, OOBEnd: 0x2100, Resource: 2})
}

func TestReusedAddress(t *testing.T) {
	ctx := log.Testing(t)
	tracker := newTracker()
	// Resource 4 reuses the address of 1 before 1's removal is seen.
	tracker.Add(memory.NewRange(4, 0x1000, 0x200, 0))
	assert.For(ctx, "len").ThatInteger(tracker.Len()).Equals(4)

	id, _, ok := tracker.Resolve(0x1180, memory.Strict)
	assert.For(ctx, "reused ok").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "reused id").That(id).Equals(api.ResourceID(4))

	assert.For(ctx, "remove wrong id").ThatError(tracker.Remove(0x1000, 9)).HasCause(memory.ErrNoRange)
	assert.For(ctx, "remove wrong start").ThatError(tracker.Remove(0x1001, 1)).HasCause(memory.ErrNoRange)
	assert.For(ctx, "remove old").ThatError(tracker.Remove(0x1000, 1)).Succeeded()

	id, offset, ok := tracker.Resolve(0x1000, memory.Strict)
	assert.For(ctx, "after remove ok").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "after remove id").That(id).Equals(api.ResourceID(4))
	assert.For(ctx, "after remove offset").That(offset).Equals(uint64(0))
	_, found := tracker.Lookup(1)
	assert.For(ctx, "old gone").ThatBoolean(found).IsFalse()
}

func TestAllocator(t *testing.T) {
	ctx := log.Testing(t)
	a := memory.NewBasicAllocator(0x10000, 0x1000)
	first, err := a.Alloc(0x100, 0x100)
	assert.For(ctx, "first err").ThatError(err).Succeeded()
	assert.For(ctx, "first").That(first).Equals(uint64(0x10000))
	second, _ := a.Alloc(0x10, 0x100)
	assert.For(ctx, "second").That(second).Equals(uint64(0x10100))
	third, _ := a.Alloc(0x10, 0x100)
	assert.For(ctx, "third").That(third).Equals(uint64(0x10200))

	assert.For(ctx, "free").ThatError(a.Free(second)).Succeeded()
	assert.For(ctx, "double free").ThatError(a.Free(second)).Failed()
	again, _ := a.Alloc(0x20, 0x100)
	assert.For(ctx, "reuse").That(again).Equals(uint64(0x10100))

	_, err = a.Alloc(0x2000, 1)
	assert.For(ctx, "too big").ThatError(err).Failed()
}
