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

package fault_test

import (
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/fault"
)

const (
	anError      = fault.Const("Some message")
	anotherError = fault.Const("another")
)

func TestList(t *testing.T) {
	list := fault.List{}
	if list.Err() != nil || list.First() != nil {
		t.Errorf("empty list should not be an error")
	}
	list.Collect(nil)
	if len(list) != 0 {
		t.Errorf("Collect(nil) grew the list")
	}
	list.Collect(anError)
	if list.Err() != anError {
		t.Errorf("single entry list should return that entry, got %v", list.Err())
	}
	list.Collect(anotherError)
	if list.First() != anError {
		t.Errorf("First did not return the first error")
	}
	if got := list.Err().Error(); got != "Some message\nanother" {
		t.Errorf("joined message was %q", got)
	}
}

func TestOne(t *testing.T) {
	one := fault.One{}
	if one.First() != nil {
		t.Errorf("First on empty collector did not return nil")
	}
	one.Collect(nil)
	one.Collect(anError)
	one.Collect(anotherError)
	if one.First() != anError {
		t.Errorf("First did not return the first error, got %v", one.First())
	}
}
