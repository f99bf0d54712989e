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

import (
	"context"
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/baldurk/renderdoc-sub019/core/log"
	"github.com/baldurk/renderdoc-sub019/gapis/api"
)

// Policy controls how a before state that does not match the tracked state
// is reported. The transition is applied regardless of the policy.
type Policy int

const (
	// Lenient logs a warning for each mismatch.
	Lenient Policy = iota
	// Strict returns the mismatches as an error.
	Strict
	// Silent ignores mismatches.
	Silent
)

func (p Policy) String() string {
	switch p {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	case Silent:
		return "silent"
	default:
		return fmt.Sprintf("Policy<%d>", int(p))
	}
}

// ParsePolicy returns the policy with the given name.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "lenient", "":
		return Lenient, nil
	case "strict":
		return Strict, nil
	case "silent":
		return Silent, nil
	default:
		return Lenient, fmt.Errorf("Unknown barrier policy %q", name)
	}
}

// MismatchError reports a transition whose before state did not match the
// tracked state.
type MismatchError struct {
	Resource    api.ResourceID
	Subresource uint32
	Tracked     api.SubresourceState
	Before      api.SubresourceState
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("%v[%d] is %v, barrier expected %v", e.Resource, e.Subresource, e.Tracked, e.Before)
}

type applier struct {
	ctx    context.Context
	table  *Table
	policy Policy
	errs   fault.List
}

// subresources returns the tracked states a transition applies to.
func (a *applier) subresources(id api.ResourceID, sub uint32) ([]api.SubresourceState, uint32) {
	s, ok := a.table.states[id]
	if !ok {
		log.W(a.ctx, "Barrier on untracked resource %v", id)
		return nil, 0
	}
	if sub == api.AllSubresources {
		return s, 0
	}
	if int(sub) >= len(s) {
		log.W(a.ctx, "Barrier on %v[%d] which has %d subresources", id, sub, len(s))
		return nil, 0
	}
	return s[sub : sub+1], sub
}

func (a *applier) mismatch(id api.ResourceID, sub uint32, tracked, before api.SubresourceState) {
	switch a.policy {
	case Lenient:
		log.W(a.ctx, "Barrier mismatch: %v[%d] is %v, barrier expected %v", id, sub, tracked, before)
	case Strict:
		a.errs.Collect(MismatchError{id, sub, tracked, before})
	}
}

func (a *applier) legacy(t api.LegacyTransition) {
	if t.Type != api.TransitionBarrier || t.Split == api.SplitBeginOnly {
		return
	}
	states, first := a.subresources(t.Resource, t.Subresource)
	before := api.LegacyState{States: t.Before}
	for i, cur := range states {
		// A layout tracked subresource goes through the common state, which
		// matches any before state.
		if cur, ok := cur.(api.LegacyState); ok && cur != before && !cur.IsCommon() {
			a.mismatch(t.Resource, first+uint32(i), cur, before)
		}
		states[i] = api.LegacyState{States: t.After}
	}
}

func (a *applier) layout(t api.LayoutTransition) {
	states, first := a.subresources(t.Resource, t.Subresource)
	for i, cur := range states {
		if cur, ok := cur.(api.LayoutState); ok &&
			cur.Layout != t.LayoutBefore && !cur.IsCommon() && t.LayoutBefore != api.LayoutUndefined {
			a.mismatch(t.Resource, first+uint32(i), cur, api.LayoutState{
				Layout: t.LayoutBefore, Access: t.AccessBefore, Sync: t.SyncBefore,
			})
		}
		states[i] = api.LayoutState{Layout: t.LayoutAfter, Access: t.AccessAfter, Sync: t.SyncAfter}
	}
}

// Apply applies every transition of set to table in order: the legacy
// transitions first, then the layout transitions.
// Transitions on untracked resources are skipped with a warning. Before
// state mismatches are reported according to policy; in Strict mode the
// returned error is a fault.List of MismatchError.
func Apply(ctx context.Context, set api.BarrierSet, table *Table, policy Policy) error {
	a := applier{ctx: ctx, table: table, policy: policy}
	for _, t := range set.Legacy {
		a.legacy(t)
	}
	for _, t := range set.Layout {
		a.layout(t)
	}
	return a.errs.Err()
}
