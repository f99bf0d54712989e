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

package interval_test

import (
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/core/math/interval"
)

var spans = interval.U64SpanList{{0, 10}, {10, 20}, {40, 50}, {50, 51}}

func TestIndexOf(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		value    uint64
		expected int
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{19, 1},
		{20, -1},
		{39, -1},
		{40, 2},
		{50, 3},
		{51, -1},
		{1000, -1},
	} {
		assert.For(ctx, "IndexOf(%d)", test.value).
			ThatInteger(interval.IndexOf(spans, test.value)).Equals(test.expected)
	}
}

func TestLastStartingAt(t *testing.T) {
	ctx := log.Testing(t)
	assert.For(ctx, "before first").ThatInteger(interval.LastStartingAt(spans[2:], 5)).Equals(-1)
	assert.For(ctx, "in gap").ThatInteger(interval.LastStartingAt(spans, 30)).Equals(1)
	assert.For(ctx, "past end").ThatInteger(interval.LastStartingAt(spans, 900)).Equals(3)
}

func TestSearch(t *testing.T) {
	ctx := log.Testing(t)
	i := interval.Search(spans, func(s interval.U64Span) bool { return s.Start >= 40 })
	assert.For(ctx, "first start >= 40").ThatInteger(i).Equals(2)
	i = interval.Search(spans, func(s interval.U64Span) bool { return s.Start >= 100 })
	assert.For(ctx, "none").ThatInteger(i).Equals(len(spans))
}

func TestInsertRemove(t *testing.T) {
	ctx := log.Testing(t)
	l := interval.U64SpanList{{0, 1}, {5, 6}}
	interval.Insert(&l, 1)
	l[1] = interval.U64Span{2, 3}
	interval.Insert(&l, 3)
	l[3] = interval.U64Span{8, 9}
	interval.Insert(&l, 0)
	l[0] = interval.U64Span{0, 0}
	assert.For(ctx, "after insert").ThatSlice(l).Equals(
		interval.U64SpanList{{0, 0}, {0, 1}, {2, 3}, {5, 6}, {8, 9}})
	interval.Remove(&l, 2)
	interval.Remove(&l, 0)
	interval.Remove(&l, 2)
	assert.For(ctx, "after remove").ThatSlice(l).Equals(interval.U64SpanList{{0, 1}, {5, 6}})
}
