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

package assert

import (
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// deepDiff returns a unified diff of the dumped forms of got and expect, or
// an empty string if they are deeply equal.
func deepDiff(got, expect interface{}) string {
	if reflect.DeepEqual(got, expect) {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(dumper.Sdump(expect)),
		B:        difflib.SplitLines(dumper.Sdump(got)),
		FromFile: "Expect",
		ToFile:   "Got",
		Context:  2,
	})
	if err != nil || diff == "" {
		return "values differ"
	}
	return diff
}

// TestDeepEqual adds a diff of value against expect to the output and
// commits if they are not deeply equal.
func (a *Assertion) TestDeepEqual(value, expect interface{}) bool {
	diff := deepDiff(value, expect)
	if diff == "" {
		return true
	}
	a.Add("Diff", "\n"+diff)
	a.Commit()
	return false
}
