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

package flags_test

import (
	"testing"
	"time"

	"github.com/baldurk/renderdoc-sub019/core/app/flags"
	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/log"
)

type policy int

const (
	lenient policy = iota
	strict
	silent
)

var policyNames = []string{"lenient", "strict", "silent"}

func (p policy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return ""
}

func (p *policy) Choose(v interface{}) { *p = v.(policy) }

type rangeFlags struct {
	Start  uint64 `help:"first event"`
	End    uint64 `help:"last event"`
	Frames uint32 `name:"frame"`
}

type replayFlags struct {
	Range   rangeFlags
	Policy  policy
	Events  flags.U64Slice
	Outputs []string
	Timeout time.Duration `fullname:"deadline"`
	Verbose bool
	hidden  int
}

func bind(t *testing.T, args ...string) (replayFlags, []string, error) {
	v := replayFlags{Timeout: time.Second}
	s := flags.Set{}
	s.Bind("", &v, "")
	err := s.Parse(nil, args...)
	return v, s.Args(), err
}

func TestBind(t *testing.T) {
	ctx := log.Testing(t)
	v, rest, err := bind(t,
		"-range-start", "5",
		"-range-end", "20",
		"-range-frame", "3",
		"-policy", "Strict",
		"-events", "[11, 20,22]",
		"-outputs", "a", "-outputs", "b",
		"-deadline", "2s",
		"-verbose",
		"capture.gpucap")
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "start").That(v.Range.Start).Equals(uint64(5))
	assert.For(ctx, "end").That(v.Range.End).Equals(uint64(20))
	assert.For(ctx, "frame").That(v.Range.Frames).Equals(uint32(3))
	assert.For(ctx, "policy").That(v.Policy).Equals(strict)
	assert.For(ctx, "events").ThatSlice(v.Events).Equals(flags.U64Slice{11, 20, 22})
	assert.For(ctx, "outputs").ThatSlice(v.Outputs).Equals([]string{"a", "b"})
	assert.For(ctx, "deadline").That(v.Timeout).Equals(2 * time.Second)
	assert.For(ctx, "verbose").ThatBoolean(v.Verbose).IsTrue()
	assert.For(ctx, "rest").ThatSlice(rest).Equals([]string{"capture.gpucap"})
}

func TestBindDefaults(t *testing.T) {
	ctx := log.Testing(t)
	v, rest, err := bind(t)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "policy").That(v.Policy).Equals(lenient)
	assert.For(ctx, "deadline").That(v.Timeout).Equals(time.Second)
	assert.For(ctx, "events").ThatSlice(v.Events).IsEmpty()
	assert.For(ctx, "rest").ThatSlice(rest).IsEmpty()
}

func TestBindErrors(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		name string
		args []string
	}{
		{"unknown choice", []string{"-policy", "never"}},
		{"bad event", []string{"-events", "[1, x]"}},
		{"bad uint32", []string{"-range-frame", "-1"}},
		{"unknown flag", []string{"-nope"}},
		{"unexported", []string{"-hidden", "1"}},
	} {
		_, _, err := bind(t, test.args...)
		assert.For(ctx, test.name).ThatError(err).Failed()
	}
}

func TestU64Slice(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		in       string
		expected flags.U64Slice
	}{
		{"7", flags.U64Slice{7}},
		{"[1,2, 3]", flags.U64Slice{1, 2, 3}},
		{"", flags.U64Slice{}},
	} {
		var v flags.U64Slice
		assert.For(ctx, test.in).ThatError(v.Set(test.in)).Succeeded()
		assert.For(ctx, test.in).ThatSlice(v).Equals(test.expected)
	}
	for _, in := range []string{"-1", "[3, -1]", "x"} {
		var v flags.U64Slice
		assert.For(ctx, in).ThatError(v.Set(in)).Failed()
	}
}

func TestStringSlice(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		in       string
		expected flags.StringSlice
	}{
		{"all", flags.StringSlice{"all"}},
		{"[a, b c ,d]", flags.StringSlice{"a", "b c", "d"}},
		{"", flags.StringSlice{}},
	} {
		var v flags.StringSlice
		assert.For(ctx, test.in).ThatError(v.Set(test.in)).Succeeded()
		assert.For(ctx, test.in).ThatSlice(v).Equals(test.expected)
	}
}

func TestUsage(t *testing.T) {
	ctx := log.Testing(t)
	v := replayFlags{}
	s := flags.Set{}
	s.Bind("", &v, "")
	usage := s.Usage(false)
	assert.For(ctx, "start").ThatString(usage).Contains("-range-start")
	assert.For(ctx, "help").ThatString(usage).Contains("first event")
	assert.For(ctx, "choices").ThatString(usage).Contains(`"lenient", "strict", "silent"`)
}
