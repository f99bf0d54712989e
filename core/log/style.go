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

package log

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"
)

// Style provides customization for printing messages.
type Style struct {
	Name      string // Name of the style.
	Timestamp bool   // If true, the timestamp will be printed if part of the message.
	Tag       bool   // If true, the tag will be printed if part of the message.
	Trace     bool   // If true, the trace will be printed if part of the message.
	Severity  bool   // If true, the single character severity will be printed.
	Values    bool   // If true, the values will be printed on a single line.
}

var (
	// Brief prints just the message text.
	Brief = Style{Name: "brief"}
	// Normal prints the severity, tag, trace and message values.
	Normal = Style{Name: "normal", Tag: true, Trace: true, Severity: true, Values: true}
	// Detailed prints everything Normal does along with a timestamp.
	Detailed = Style{Name: "detailed", Timestamp: true, Tag: true, Trace: true, Severity: true, Values: true}
)

// Writer is a function that writes out a formatted log message.
type Writer func(text string, severity Severity)

// Std returns a Writer that writes to stdout if the message severity is less
// than an error, otherwise it writes to stderr.
func Std() Writer {
	return func(text string, severity Severity) {
		out := os.Stdout
		if severity >= Error {
			out = os.Stderr
		}
		out.WriteString(text)
		out.WriteString("\n")
	}
}

// Buffer returns a Writer that writes to the returned buffer.
func Buffer() (Writer, *bytes.Buffer) {
	buf, nl := &bytes.Buffer{}, false
	return func(text string, severity Severity) {
		if nl {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
		nl = true
	}, buf
}

// Handler returns a new Handler that formats messages with the style s and
// passes them to w.
func (s Style) Handler(w Writer) Handler {
	return handler{
		handle: func(msg *Message) { w(s.Print(msg), msg.Severity) },
		close:  func() {},
	}
}

// Print returns the message msg printed with the style s.
func (s Style) Print(msg *Message) string {
	var m []string
	if s.Timestamp && !msg.Time.IsZero() {
		m = append(m, HHMMSSsss(msg.Time))
	}
	if s.Severity {
		m = append(m, msg.Severity.Short()+":")
	}
	if s.Trace && len(msg.Trace) > 0 {
		m = append(m, fmt.Sprintf("%v", msg.Trace))
	}
	if s.Tag && msg.Tag != "" {
		m = append(m, fmt.Sprintf("[%s]", msg.Tag))
	}
	m = append(m, msg.Text)
	if s.Values && len(msg.Values) > 0 {
		t := make([]string, len(msg.Values))
		for i, v := range msg.Values {
			t[i] = fmt.Sprintf("%v: %v", v.Name, v.Value)
		}
		m = append(m, fmt.Sprintf("(%v)", strings.Join(t, ", ")))
	}
	return strings.Join(m, " ")
}

func (s Style) String() string { return s.Name }

// HHMMSSsss prints the time as a HH:MM:SS.sss
func HHMMSSsss(t time.Time) string {
	return fmt.Sprintf("%.2d:%.2d:%.2d.%.3d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e6)
}
