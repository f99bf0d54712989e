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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/baldurk/renderdoc-sub019/core/log"
)

var (
	// Name is the full name of the application
	Name string
	// ExitFuncForTesting can be set to change the behaviour when there is a command line parsing failure.
	// It defaults to os.Exit
	ExitFuncForTesting = os.Exit
	// ShortHelp should be set to add a help message to the usage text.
	ShortHelp = ""
	// ShortUsage is usage text for the additional non-flag arguments.
	ShortUsage = ""
	// UsageFooter is printed at the bottom of the usage text
	UsageFooter = ""
	// Version is reported by the -version flag when not empty.
	Version = ""
)

// Task is the signature of the application main function.
type Task func(ctx context.Context) error

// AppFlags are the flags common to every application.
type AppFlags struct {
	Log      LogFlags
	Version  bool `help:"print the version and exit"`
	FullHelp bool
}

func init() {
	Name = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
}

// Run performs all the work needed to start up an application.
// It parses the main command line arguments, builds a primary context that
// is cancelled on exit or interrupt, runs the provided task, then waits for
// the cleanup functions registered with AddCleanup.
func Run(main Task) {
	defer func() {
		switch cause := recover().(type) {
		case nil:
		case ExitCode:
			ExitFuncForTesting(int(cause))
		default:
			panic(cause)
		}
	}()
	flags := &AppFlags{Log: logDefaults()}

	rootCtx := prepareContext(&flags.Log)

	verbMainPrepare(flags)
	switch err := globalVerbs.Flags.Parse(&flags.FullHelp, os.Args[1:]...); {
	case err == flag.ErrHelp:
		autoHelp(rootCtx)
	case err != nil:
		Usage(rootCtx, "%v", err)
	case flags.FullHelp:
		autoHelp(rootCtx, "full")
	}

	if flags.Version {
		fmt.Fprint(os.Stdout, Name, " version ", Version, "\n")
		return
	}

	ctx, cancel := context.WithCancel(rootCtx)
	ctx = updateContext(ctx, &flags.Log)

	shutdownOnce := sync.Once{}
	shutdown := func() {
		shutdownOnce.Do(func() {
			cancel()
			if !WaitForCleanup(rootCtx) {
				fmt.Fprint(os.Stderr, "Timeout waiting for cleanup")
			}
			LogHandler.Close()
		})
	}
	defer shutdown()

	handleAbortSignals(cancel)

	if err := main(ctx); err != nil {
		log.F(ctx, true, "Main failed\nError: %v", err)
	}
}
