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

package interval

// U64SpanList implements MutableList for a slice of U64Span intervals.
type U64SpanList []U64Span

func (l U64SpanList) Length() int               { return len(l) }
func (l U64SpanList) GetSpan(index int) U64Span { return l[index] }
func (l U64SpanList) Copy(to, from, count int)  { copy(l[to:to+count], l[from:from+count]) }
func (l *U64SpanList) Resize(length int) {
	if cap(*l) >= length {
		*l = (*l)[:length]
		return
	}
	old := *l
	capacity := cap(*l) * 2
	if capacity < length {
		capacity = length
	}
	*l = make(U64SpanList, length, capacity)
	copy(*l, old)
}
