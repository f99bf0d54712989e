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
	"bufio"
	"io"
	"math"

	"github.com/golang/protobuf/proto"
)

// Reader is the type for a pack stream reader.
// They should only be constructed by NewReader.
type Reader struct {
	from    *bufio.Reader
	offset  uint64
	version Version
}

// NewReader returns a reader that reads chunks from the supplied stream.
// This function will read and validate the header from the stream.
func NewReader(from io.Reader) (*Reader, error) {
	r := &Reader{from: bufio.NewReaderSize(from, initalBufferSize)}
	b := make([]byte, headerSize)
	if _, err := io.ReadFull(r.from, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrIncorrectMagic
		}
		return nil, err
	}
	v, err := parseHeader(b)
	if err != nil {
		return nil, err
	}
	r.version = v
	return r, nil
}

// Version returns the version of the stream being read.
func (r *Reader) Version() Version { return r.version }

// Next returns the next chunk in the stream.
// It returns io.EOF when the stream ends cleanly between chunks, and
// ErrTruncated if it ends inside one.
func (r *Reader) Next() (Chunk, error) {
	// Peek as many bytes as a varint could take, but don't fail if the eof is
	// within that range.
	peek, err := r.from.Peek(maxVarintSize)
	if len(peek) == 0 {
		if err == nil || err == io.EOF {
			return Chunk{}, io.EOF
		}
		return Chunk{}, err
	}
	size, n := proto.DecodeVarint(peek)
	switch {
	case n == 0 && len(peek) < maxVarintSize:
		return Chunk{}, ErrTruncated
	case n == 0, size == 0, size > MaxChunkSize:
		return Chunk{}, ErrMalformed
	}
	r.from.Discard(n)
	at := r.offset
	r.offset += uint64(n) + size

	// The body grows as it is read so a bogus size cannot allocate more than
	// the stream holds.
	body, err := io.ReadAll(io.LimitReader(r.from, int64(size)))
	if err != nil {
		return Chunk{}, err
	}
	if uint64(len(body)) < size {
		return Chunk{}, ErrTruncated
	}
	tag, n := proto.DecodeVarint(body)
	if n == 0 || tag > math.MaxUint32 {
		return Chunk{}, ErrMalformed
	}
	return Chunk{Tag: uint32(tag), Offset: at, Data: body[n:]}, nil
}

// ReadAll reads chunks until the end of the stream, calling cb for each one.
func (r *Reader) ReadAll(cb func(Chunk) error) error {
	for {
		c, err := r.Next()
		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return err
		}
		if err := cb(c); err != nil {
			return err
		}
	}
}
