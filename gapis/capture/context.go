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

package capture

import (
	"context"

	"github.com/baldurk/renderdoc-sub019/core/log"
)

type contextKeyTy string

const contextKey = contextKeyTy("capture")

// Put attaches a capture to a Context. Messages logged with the returned
// context carry the capture name.
func Put(ctx context.Context, c *Capture) context.Context {
	ctx = log.V{"capture": c.Metadata.Name}.Bind(ctx)
	return context.WithValue(ctx, contextKey, c)
}

// Find returns the capture attached to ctx by Put, or nil.
func Find(ctx context.Context) *Capture {
	c, _ := ctx.Value(contextKey).(*Capture)
	return c
}

// Get retrieves the capture from a context previously annotated by Put.
func Get(ctx context.Context) *Capture {
	val := ctx.Value(contextKey)
	if val == nil {
		panic(string(contextKey) + " not present")
	}
	return val.(*Capture)
}
