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

package api

import (
	"fmt"
	"sync"

	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/core/fault"
	"github.com/pkg/errors"
)

// ErrUnknownCmd is returned when decoding a chunk whose tag is not a
// registered command kind.
const ErrUnknownCmd = fault.Const("Unknown command kind")

// Cmd is the interface implemented by all recorded graphics commands.
type Cmd interface {
	// CmdName returns the name of the command.
	CmdName() string

	// CmdFlags returns the action flags of the command.
	CmdFlags() ActionFlags

	// CmdKind returns the stable chunk tag of the command.
	CmdKind() uint32

	// Encode writes the command's fields to e.
	Encode(e *pack.Encoder)

	// Decode reads the command's fields from d.
	Decode(d *pack.Decoder)
}

var registry = struct {
	sync.RWMutex
	factories map[uint32]func() Cmd
}{factories: map[uint32]func() Cmd{}}

// RegisterCmd registers the factory for commands of the given kind.
// It panics if the kind is already registered.
func RegisterCmd(kind uint32, factory func() Cmd) {
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.factories[kind]; dup {
		panic(fmt.Errorf("Command kind %d registered twice", kind))
	}
	registry.factories[kind] = factory
}

// NewCmd returns a zero command of the given kind, or nil if the kind is not
// registered.
func NewCmd(kind uint32) Cmd {
	registry.RLock()
	defer registry.RUnlock()
	if f, ok := registry.factories[kind]; ok {
		return f()
	}
	return nil
}

// EncodeCmd returns the chunk body of cmd.
func EncodeCmd(cmd Cmd) []byte {
	e := pack.NewEncoder()
	cmd.Encode(e)
	return e.Bytes()
}

// DecodeCmd decodes a command chunk written with the body from EncodeCmd.
func DecodeCmd(c pack.Chunk) (Cmd, error) {
	cmd := NewCmd(c.Tag)
	if cmd == nil {
		return nil, errors.Wrapf(ErrUnknownCmd, "tag %d at offset %d", c.Tag, c.Offset)
	}
	d := pack.NewDecoder(c.Data)
	cmd.Decode(d)
	if err := d.Err(); err != nil {
		return nil, errors.Wrapf(err, "decoding %s at offset %d", cmd.CmdName(), c.Offset)
	}
	return cmd, nil
}
