// Copyright (C) 2017 Google Inc.
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

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/baldurk/renderdoc-sub019/core/app/flags"
	"github.com/baldurk/renderdoc-sub019/core/log"
)

// LogHandler is the primary application logger target.
// It is assigned to the main context on startup and is closed on shutdown.
var LogHandler log.Handler

// LogFlags controls the application logging.
type LogFlags struct {
	Level Severity `help:"the minimum severity to log"`
	Style Style    `help:"the formatting of log messages"`
	File  string   `help:"_also write the log to this file"`
}

// Severity is a log.Severity that can be chosen on the command line.
type Severity log.Severity

func (s Severity) String() string        { return log.Severity(s).String() }
func (s *Severity) Choose(v interface{}) { *s = v.(Severity) }

// Chooser returns a chooser for every log severity.
func (s *Severity) Chooser() flags.Chooser {
	c := flags.Chooser{Value: s}
	for v := log.Verbose; v <= log.Fatal; v++ {
		c.Choices = append(c.Choices, Severity(v))
	}
	return c
}

// Style is a log.Style that can be chosen on the command line.
type Style log.Style

func (s Style) String() string        { return s.Name }
func (s *Style) Choose(v interface{}) { *s = v.(Style) }

// Chooser returns a chooser for the predefined log styles.
func (s *Style) Chooser() flags.Chooser {
	return flags.Chooser{
		Value:   s,
		Choices: flags.Choices{Style(log.Brief), Style(log.Normal), Style(log.Detailed)},
	}
}

func logDefaults() LogFlags {
	return LogFlags{
		Level: Severity(log.Info),
		Style: Style(log.Normal),
	}
}

func wrapHandler(to log.Handler) log.Handler {
	to = log.Synchronized(to)
	return log.NewHandler(func(m *log.Message) {
		to.Handle(m)
		if m.StopProcess {
			to.Close()
			panic(FatalExit)
		}
	}, to.Close)
}

func prepareContext(flags *LogFlags) context.Context {
	LogHandler = wrapHandler(log.Style(flags.Style).Handler(log.Std()))
	ctx := context.Background()
	ctx = log.PutTag(ctx, Name)
	ctx = log.PutFilter(ctx, log.SeverityFilter(flags.Level))
	ctx = log.PutHandler(ctx, LogHandler)
	return ctx
}

// updateContext applies the parsed log flags to ctx.
func updateContext(ctx context.Context, flags *LogFlags) context.Context {
	ctx = log.PutFilter(ctx, log.SeverityFilter(flags.Level))
	handlers := []log.Handler{log.Style(flags.Style).Handler(log.Std())}
	if flags.File != "" {
		if file := createLogFile(ctx, flags); file != nil {
			handlers = append(handlers, log.Style(flags.Style).Handler(func(s string, _ log.Severity) {
				file.WriteString(s)
				file.WriteString("\n")
			}))
			handlers = append(handlers, log.NewHandler(func(*log.Message) {}, func() { file.Close() }))
		}
	}
	LogHandler = wrapHandler(log.Broadcast(handlers...))
	return log.PutHandler(ctx, LogHandler)
}

func createLogFile(ctx context.Context, flags *LogFlags) *os.File {
	path, err := filepath.Abs(flags.File)
	if err != nil {
		log.E(ctx, "Failed to create log file %s: %v", flags.File, err)
		return nil
	}
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" {
		name, ext = Name, ".log"
		path = filepath.Join(dir, name+ext)
	}

	os.MkdirAll(dir, 0755)
	for i := 0; i < 10; i++ {
		file, err := os.Create(path)
		if err == nil {
			log.I(ctx, "Logging to: %v", path)
			return file
		}
		// Try a different path next.
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", name, i, ext))
	}

	log.E(ctx, "Failed to create log file %s", flags.File)
	return nil
}
