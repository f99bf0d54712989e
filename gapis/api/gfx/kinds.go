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

// Package gfx holds the concrete graphics command set, the device object
// registry and the builders for baked lists and the capture timeline.
package gfx

import "github.com/baldurk/renderdoc-sub019/gapis/api"

// Command kinds are stable chunk tags. Never renumber them.
const (
	kindCreateResource uint32 = 16 + iota
	kindDestroyResource
	kindCreateHeap
	kindCreateView
	kindCopyDescriptors
	kindWriteBuffer
	kindExecuteLists
	kindPresent
	kindBarrier
	kindSetPipeline
	kindSetDescriptorHeaps
	kindSetRootTable
	kindSetRootView
	kindSetRenderTargets
	kindSetViewport
	kindSetVertexBuffer
	kindSetIndexBuffer
	kindDraw
	kindDrawIndexed
	kindDispatch
	kindExecuteIndirect
	kindCopyBuffer
	kindCopyResource
	kindClearView
	kindResolve
	kindBeginQuery
	kindEndQuery
	kindPushMarker
	kindPopMarker
	kindSetMarker
	kindBeginPass
	kindEndPass
	kindExecuteBundle
	kindNop
)

func init() {
	for _, f := range []func() api.Cmd{
		func() api.Cmd { return &CreateResource{} },
		func() api.Cmd { return &DestroyResource{} },
		func() api.Cmd { return &CreateHeap{} },
		func() api.Cmd { return &CreateView{} },
		func() api.Cmd { return &CopyDescriptors{} },
		func() api.Cmd { return &WriteBuffer{} },
		func() api.Cmd { return &ExecuteLists{} },
		func() api.Cmd { return &Present{} },
		func() api.Cmd { return &Barrier{} },
		func() api.Cmd { return &SetPipeline{} },
		func() api.Cmd { return &SetDescriptorHeaps{} },
		func() api.Cmd { return &SetRootTable{} },
		func() api.Cmd { return &SetRootView{} },
		func() api.Cmd { return &SetRenderTargets{} },
		func() api.Cmd { return &SetViewport{} },
		func() api.Cmd { return &SetVertexBuffer{} },
		func() api.Cmd { return &SetIndexBuffer{} },
		func() api.Cmd { return &Draw{} },
		func() api.Cmd { return &DrawIndexed{} },
		func() api.Cmd { return &Dispatch{} },
		func() api.Cmd { return &ExecuteIndirect{} },
		func() api.Cmd { return &CopyBuffer{} },
		func() api.Cmd { return &CopyResource{} },
		func() api.Cmd { return &ClearView{} },
		func() api.Cmd { return &Resolve{} },
		func() api.Cmd { return &BeginQuery{} },
		func() api.Cmd { return &EndQuery{} },
		func() api.Cmd { return &PushMarker{} },
		func() api.Cmd { return &PopMarker{} },
		func() api.Cmd { return &SetMarker{} },
		func() api.Cmd { return &BeginPass{} },
		func() api.Cmd { return &EndPass{} },
		func() api.Cmd { return &ExecuteBundle{} },
		func() api.Cmd { return &Nop{} },
	} {
		api.RegisterCmd(f().CmdKind(), f)
	}
}
