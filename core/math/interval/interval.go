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

// Package interval provides binary search and ordered insertion over sorted
// lists of half open uint64 spans.
package interval

import "sort"

// U64Span is a half open interval that includes the lower bound, but not the
// upper.
type U64Span struct {
	Start uint64 // the value at which the interval begins
	End   uint64 // the next value not included in the interval.
}

// Contains returns true if v lies within the span.
func (s U64Span) Contains(v uint64) bool { return s.Start <= v && v < s.End }

// List is the interface to an object that can be used as a sorted list of
// spans by the functions in this package.
type List interface {
	// Length returns the number of spans in the list.
	Length() int
	// GetSpan returns the span at index.
	GetSpan(index int) U64Span
}

// MutableList is a List that can grow and shrink.
type MutableList interface {
	List
	// Copy count entries from the from index to the to index.
	Copy(to, from, count int)
	// Resize adjusts the length of the list.
	Resize(length int)
}

// Predicate is used as the condition for a Search.
type Predicate func(test U64Span) bool

// Search returns the index of the first span for which t returns true.
// The list must be partitioned so that t is false for a prefix of the list
// and true for the rest. If no span matches, it returns the list length.
func Search(l List, t Predicate) int {
	i, j := 0, l.Length()
	for i < j {
		h := i + (j-i)/2
		if !t(l.GetSpan(h)) {
			i = h + 1
		} else {
			j = h
		}
	}
	return i
}

// LastStartingAt returns the index of the last span whose start is less than
// or equal to value, or -1 if there is no such span.
func LastStartingAt(l List, value uint64) int {
	return sort.Search(l.Length(), func(at int) bool {
		return value < l.GetSpan(at).Start
	}) - 1
}

// IndexOf returns the index of the span that contains value, or -1.
// The spans in l must not overlap.
func IndexOf(l List, value uint64) int {
	index := LastStartingAt(l, value)
	if index >= 0 && value < l.GetSpan(index).End {
		return index
	}
	return -1
}

// Insert makes room for one entry at index, shifting the following entries
// up. The caller fills the new entry.
func Insert(l MutableList, index int) { adjust(l, index, 1) }

// Remove deletes the entry at index, shifting the following entries down.
func Remove(l MutableList, index int) { adjust(l, index, -1) }

// adjust grows or shrinks the list by delta entries at the index at.
// Growing opens a gap of delta entries starting at at; shrinking removes
// -delta entries starting at at.
func adjust(l MutableList, at, delta int) {
	if delta == 0 {
		return
	}
	oldLen := l.Length()
	if delta > 0 {
		l.Resize(oldLen + delta)
		if n := oldLen - at; n > 0 {
			l.Copy(at+delta, at, n)
		}
		return
	}
	if n := oldLen - (at - delta); n > 0 {
		l.Copy(at, at-delta, n)
	}
	l.Resize(oldLen + delta)
}
