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

package pack_test

import (
	"bytes"
	"testing"

	"github.com/baldurk/renderdoc-sub019/core/assert"
	"github.com/baldurk/renderdoc-sub019/core/data/pack"
	"github.com/baldurk/renderdoc-sub019/core/log"
)

func TestReaderWriter(t *testing.T) {
	ctx := log.Testing(t)
	buf := &bytes.Buffer{}

	data := []struct {
		tag  uint32
		body []byte
	}{
		{1, pack.NewEncoder().Uint(7).String("draw").Bytes()},
		{300, nil},
		{2, pack.NewEncoder().Int(-12).Float(0.5).Bool(true).Data([]byte{1, 2, 3}).Bytes()},
		{3, make([]byte, 5000)},
	}

	w, err := pack.NewWriter(buf)
	assert.For(ctx, "NewWriter").ThatError(err).Succeeded()
	offsets := []uint64{}
	for _, d := range data {
		offset, err := w.Chunk(d.tag, d.body)
		assert.For(ctx, "Chunk(%d)", d.tag).ThatError(err).Succeeded()
		offsets = append(offsets, offset)
	}

	r, err := pack.NewReader(buf)
	assert.For(ctx, "NewReader").ThatError(err).Succeeded()
	i := 0
	err = r.ReadAll(func(c pack.Chunk) error {
		assert.For(ctx, "tag %d", i).That(c.Tag).Equals(data[i].tag)
		assert.For(ctx, "offset %d", i).That(c.Offset).Equals(offsets[i])
		assert.For(ctx, "size %d", i).ThatInteger(len(c.Data)).Equals(len(data[i].body))
		i++
		return nil
	})
	assert.For(ctx, "ReadAll").ThatError(err).Succeeded()
	assert.For(ctx, "chunks").ThatInteger(i).Equals(len(data))
}

func TestDecoder(t *testing.T) {
	ctx := log.Testing(t)
	body := pack.NewEncoder().Int(-12).Float(0.5).Bool(true).String("x").Data([]byte{1, 2, 3}).Bytes()
	d := pack.NewDecoder(body)
	assert.For(ctx, "int").That(d.Int()).Equals(int64(-12))
	assert.For(ctx, "float").That(d.Float()).Equals(float32(0.5))
	assert.For(ctx, "bool").ThatBoolean(d.Bool()).IsTrue()
	assert.For(ctx, "string").ThatString(d.String()).Equals("x")
	assert.For(ctx, "data").ThatSlice(d.Data()).Equals([]byte{1, 2, 3})
	assert.For(ctx, "err").ThatError(d.Err()).Succeeded()

	d.Uint()
	assert.For(ctx, "read past end").ThatError(d.Err()).Equals(pack.ErrTruncated)
	assert.For(ctx, "sticky").That(d.Uint()).Equals(uint64(0))
}

func TestBadStreams(t *testing.T) {
	ctx := log.Testing(t)
	_, err := pack.NewReader(bytes.NewReader([]byte("not a pack file!")))
	assert.For(ctx, "magic").ThatError(err).Equals(pack.ErrIncorrectMagic)

	_, err = pack.NewReader(bytes.NewReader([]byte("ChunkPack\r\n7.0\n\x00")))
	assert.For(ctx, "version").ThatError(err).Equals(pack.ErrUnsupportedVersion{Version: pack.Version{Major: 7}})

	buf := &bytes.Buffer{}
	w, _ := pack.NewWriter(buf)
	w.Chunk(1, []byte{1, 2, 3, 4})
	truncated := buf.Bytes()[:buf.Len()-2]
	r, err := pack.NewReader(bytes.NewReader(truncated))
	assert.For(ctx, "NewReader").ThatError(err).Succeeded()
	_, err = r.Next()
	assert.For(ctx, "truncated").ThatError(err).Equals(pack.ErrTruncated)

	for _, test := range []struct {
		name  string
		chunk []byte
		err   error
	}{
		{"size overflow", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, pack.ErrMalformed},
		{"size too big", []byte{0x80, 0x80, 0x80, 0x80, 0x08}, pack.ErrMalformed},
		{"size unterminated", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, pack.ErrMalformed},
		{"size cut short", []byte{0xff, 0xff}, pack.ErrTruncated},
		{"empty chunk", []byte{0x00}, pack.ErrMalformed},
		{"body missing", []byte{0x80, 0x80, 0x40, 0x01}, pack.ErrTruncated},
		{"tag overflow", []byte{0x06, 0xff, 0xff, 0xff, 0xff, 0x7f, 0x00}, pack.ErrMalformed},
	} {
		stream := append(append([]byte{}, "ChunkPack\r\n1.0\n\x00"...), test.chunk...)
		r, err := pack.NewReader(bytes.NewReader(stream))
		assert.For(ctx, "%s header", test.name).ThatError(err).Succeeded()
		_, err = r.Next()
		assert.For(ctx, "%s", test.name).ThatError(err).Equals(test.err)
	}
}
