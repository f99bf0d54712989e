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

package pack

import (
	"math"

	"github.com/golang/protobuf/proto"
)

// Encoder builds a chunk body field by field.
type Encoder struct {
	pb *proto.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{proto.NewBuffer(make([]byte, 0, 64))}
}

// Bytes returns the encoded body.
func (e *Encoder) Bytes() []byte { return e.pb.Bytes() }

// Uint appends an unsigned integer.
func (e *Encoder) Uint(v uint64) *Encoder { e.pb.EncodeVarint(v); return e }

// Int appends a signed integer.
func (e *Encoder) Int(v int64) *Encoder { e.pb.EncodeZigzag64(uint64(v)); return e }

// Bool appends a boolean.
func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		return e.Uint(1)
	}
	return e.Uint(0)
}

// Float appends a 32 bit float.
func (e *Encoder) Float(v float32) *Encoder {
	e.pb.EncodeFixed32(uint64(math.Float32bits(v)))
	return e
}

// String appends a length prefixed string.
func (e *Encoder) String(v string) *Encoder { e.pb.EncodeStringBytes(v); return e }

// Data appends a length prefixed byte slice.
func (e *Encoder) Data(v []byte) *Encoder { e.pb.EncodeRawBytes(v); return e }

// Decoder reads back the fields written by an Encoder.
// The first failure is sticky: once a read fails every later read returns
// a zero value and Err reports the failure.
type Decoder struct {
	pb  *proto.Buffer
	err error
}

// NewDecoder returns a Decoder reading from data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{pb: proto.NewBuffer(data)}
}

// Err returns the first error encountered while decoding.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail() { d.Fail(ErrTruncated) }

// Fail puts the decoder into the error state with err, unless it already
// holds an error.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Uint reads an unsigned integer.
func (d *Decoder) Uint() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.pb.DecodeVarint()
	if err != nil {
		d.fail()
	}
	return v
}

// Uint32 reads an unsigned integer that must fit in 32 bits.
func (d *Decoder) Uint32() uint32 {
	v := d.Uint()
	if v > math.MaxUint32 {
		d.fail()
		return 0
	}
	return uint32(v)
}

// Int reads a signed integer.
func (d *Decoder) Int() int64 {
	if d.err != nil {
		return 0
	}
	v, err := d.pb.DecodeZigzag64()
	if err != nil {
		d.fail()
	}
	return int64(v)
}

// Bool reads a boolean.
func (d *Decoder) Bool() bool { return d.Uint() != 0 }

// Float reads a 32 bit float.
func (d *Decoder) Float() float32 {
	if d.err != nil {
		return 0
	}
	v, err := d.pb.DecodeFixed32()
	if err != nil {
		d.fail()
	}
	return math.Float32frombits(uint32(v))
}

// String reads a length prefixed string.
func (d *Decoder) String() string {
	if d.err != nil {
		return ""
	}
	v, err := d.pb.DecodeStringBytes()
	if err != nil {
		d.fail()
	}
	return v
}

// Data reads a length prefixed byte slice.
func (d *Decoder) Data() []byte {
	if d.err != nil {
		return nil
	}
	v, err := d.pb.DecodeRawBytes(true)
	if err != nil {
		d.fail()
	}
	return v
}

// Count reads a slice length, failing if it is larger than limit.
func (d *Decoder) Count(limit int) int {
	v := d.Uint()
	if v > uint64(limit) {
		d.fail()
		return 0
	}
	return int(v)
}
