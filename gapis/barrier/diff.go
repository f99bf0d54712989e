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

package barrier

import "github.com/baldurk/renderdoc-sub019/gapis/api"

// Diff returns the barriers that take every resource tracked by both src
// and dst from its state in src to its state in dst.
//
// Subresources already in the destination state get no transition. A
// subresource moving between the legacy and layout forms goes through the
// common state: legacy to layout emits a legacy transition to common
// followed by a layout transition from common, while layout to legacy
// emits only the legacy transition from common, as Apply performs the
// layout half implicitly. When every subresource of a resource needs the
// same transition it is emitted once for api.AllSubresources.
//
// Resources are visited in ascending id order.
func Diff(src, dst *Table) api.BarrierSet {
	out := api.BarrierSet{}
	for _, id := range src.Resources() {
		from, to := src.states[id], dst.states[id]
		if to == nil {
			continue
		}
		n := len(from)
		if len(to) < n {
			n = len(to)
		}
		var legacy []api.LegacyTransition
		var layout []api.LayoutTransition
		changed := 0
		for i := 0; i < n; i++ {
			a, b := from[i], to[i]
			if a == b {
				continue
			}
			changed++
			sub := uint32(i)
			switch b := b.(type) {
			case api.LegacyState:
				before := api.StateCommon
				if a, ok := a.(api.LegacyState); ok {
					before = a.States
				}
				legacy = append(legacy, api.LegacyTransition{
					Resource: id, Subresource: sub, Before: before, After: b.States,
				})
			case api.LayoutState:
				before := api.CommonLayout
				switch a := a.(type) {
				case api.LayoutState:
					before = a
				case api.LegacyState:
					if !a.IsCommon() {
						legacy = append(legacy, api.LegacyTransition{
							Resource: id, Subresource: sub, Before: a.States, After: api.StateCommon,
						})
					}
				}
				layout = append(layout, api.LayoutTransition{
					Resource:     id,
					Subresource:  sub,
					LayoutBefore: before.Layout,
					LayoutAfter:  b.Layout,
					AccessBefore: before.Access,
					AccessAfter:  b.Access,
					SyncBefore:   before.Sync,
					SyncAfter:    b.Sync,
				})
			}
		}
		if changed == len(from) && changed == len(to) && changed > 1 {
			legacy, layout = collapse(legacy, layout, changed)
		}
		out.Legacy = append(out.Legacy, legacy...)
		out.Layout = append(out.Layout, layout...)
	}
	return out
}

// collapse replaces per subresource transitions with single all
// subresource transitions if every subresource has the same transitions.
func collapse(legacy []api.LegacyTransition, layout []api.LayoutTransition, count int) ([]api.LegacyTransition, []api.LayoutTransition) {
	if (len(legacy) != 0 && len(legacy) != count) || (len(layout) != 0 && len(layout) != count) {
		return legacy, layout
	}
	for i := range legacy {
		a := legacy[i]
		a.Subresource = legacy[0].Subresource
		if a != legacy[0] {
			return legacy, layout
		}
	}
	for i := range layout {
		a := layout[i]
		a.Subresource = layout[0].Subresource
		if a != layout[0] {
			return legacy, layout
		}
	}
	if len(legacy) > 0 {
		all := legacy[0]
		all.Subresource = api.AllSubresources
		legacy = []api.LegacyTransition{all}
	}
	if len(layout) > 0 {
		all := layout[0]
		all.Subresource = api.AllSubresources
		layout = []api.LayoutTransition{all}
	}
	return legacy, layout
}
