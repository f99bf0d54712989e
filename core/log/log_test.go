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

package log_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/log"
)

func capture(ctx context.Context) (context.Context, *[]*log.Message) {
	out := &[]*log.Message{}
	h := log.NewHandler(func(m *log.Message) { *out = append(*out, m) }, nil)
	return log.PutHandler(ctx, h), out
}

func TestMessageFields(t *testing.T) {
	ctx, msgs := capture(context.Background())
	ctx = log.PutTag(ctx, "replay")
	ctx = log.Enter(ctx, "outer")
	ctx = log.Enter(ctx, "inner")
	ctx = log.V{"event": 7, "list": "a"}.Bind(ctx)
	ctx = log.V{"event": 9}.Bind(ctx)

	log.W(ctx, "state mismatch on %d", 3)

	if len(*msgs) != 1 {
		t.Fatalf("got %d messages, expected 1", len(*msgs))
	}
	m := (*msgs)[0]
	if m.Text != "state mismatch on 3" {
		t.Errorf("text was %q", m.Text)
	}
	if m.Severity != log.Warning {
		t.Errorf("severity was %v", m.Severity)
	}
	if m.Tag != "replay" {
		t.Errorf("tag was %q", m.Tag)
	}
	if fmt.Sprint(m.Trace) != "[outer inner]" {
		t.Errorf("trace was %v", m.Trace)
	}
	if len(m.Values) != 2 || m.Values[0].Name != "event" || m.Values[0].Value != 9 {
		t.Errorf("values were %v", m.Values)
	}
}

func TestFilter(t *testing.T) {
	ctx, msgs := capture(context.Background())
	ctx = log.PutFilter(ctx, log.SeverityFilter(log.Warning))
	log.D(ctx, "dropped")
	log.I(ctx, "dropped")
	log.W(ctx, "kept")
	log.E(ctx, "kept")
	if len(*msgs) != 2 {
		t.Errorf("got %d messages, expected 2", len(*msgs))
	}
}

func TestErr(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("boom")
	err := log.Errf(ctx, cause, "replay of %d failed", 4)
	if !strings.HasPrefix(err.Error(), "replay of 4 failed") {
		t.Errorf("error text was %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Errorf("error does not unwrap to its cause")
	}
	if c, ok := err.(interface{ Cause() error }); !ok || c.Cause() != cause {
		t.Errorf("error does not expose its cause")
	}
}

func TestWriterSplitsLines(t *testing.T) {
	ctx, msgs := capture(context.Background())
	w := log.From(ctx).Writer(log.Info)
	fmt.Fprint(w, "one\ntwo\nthr")
	fmt.Fprint(w, "ee")
	w.Close()
	got := []string{}
	for _, m := range *msgs {
		got = append(got, m.Text)
	}
	if strings.Join(got, ",") != "one,two,three" {
		t.Errorf("lines were %v", got)
	}
}

func TestParseSeverity(t *testing.T) {
	for _, test := range []struct {
		name     string
		expected log.Severity
	}{
		{"debug", log.Debug},
		{"WARNING", log.Warning},
		{"Fatal", log.Fatal},
	} {
		got, err := log.ParseSeverity(test.name)
		if err != nil || got != test.expected {
			t.Errorf("ParseSeverity(%q) = %v, %v", test.name, got, err)
		}
	}
	if _, err := log.ParseSeverity("loud"); err == nil {
		t.Errorf("expected an error for an unknown severity")
	}
}
