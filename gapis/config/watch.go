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

package config

import (
	"context"
	"path/filepath"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration file at path whenever it changes and
// calls onChange with every configuration that loads and validates.
// Invalid files are logged and ignored. Watching stops when ctx is done.
//
// The file's directory is watched so that editors replacing the file are
// seen.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return log.Err(ctx, err, "Creating configuration watcher")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return log.Errf(ctx, err, "Watching %s", path)
	}
	ctx = log.Enter(ctx, "config.Watch")
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				c, err := Load(ctx, path)
				if err != nil {
					log.W(ctx, "Ignoring configuration change: %v", err)
					continue
				}
				log.I(ctx, "Configuration %s reloaded", path)
				onChange(c)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.W(ctx, "Watcher error: %v", err)
			}
		}
	}()
	return nil
}
