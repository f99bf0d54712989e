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
	"io"

	"github.com/golang/protobuf/proto"
)

// Writer is the type for a pack stream writer.
// They should only be constructed by NewWriter.
type Writer struct {
	buf     *proto.Buffer
	sizebuf *proto.Buffer
	to      io.Writer
	offset  uint64
}

// NewWriter constructs and returns a new Writer that writes to the supplied
// output stream.
// This method will write the magic header to the underlying stream.
func NewWriter(to io.Writer) (*Writer, error) {
	w := &Writer{
		buf:     proto.NewBuffer(make([]byte, 0, initalBufferSize)),
		sizebuf: proto.NewBuffer(make([]byte, 0, maxVarintSize)),
		to:      to,
	}
	if _, err := to.Write(header); err != nil {
		return nil, err
	}
	return w, nil
}

// Offset returns the offset the next chunk will be written at.
func (w *Writer) Offset() uint64 { return w.offset }

// Chunk writes a chunk with the given tag and body, returning the offset it
// was written at.
func (w *Writer) Chunk(tag uint32, data []byte) (uint64, error) {
	if len(data) >= MaxChunkSize-maxVarintSize {
		return 0, ErrTooLarge
	}
	if err := w.buf.EncodeVarint(uint64(tag)); err != nil {
		return 0, err
	}
	w.buf.SetBuf(append(w.buf.Bytes(), data...))
	return w.flushChunk()
}

func (w *Writer) flushChunk() (uint64, error) {
	at := w.offset
	size := len(w.buf.Bytes())
	if err := w.sizebuf.EncodeVarint(uint64(size)); err != nil {
		return 0, err
	}
	n, err := w.to.Write(w.sizebuf.Bytes())
	w.offset += uint64(n)
	w.sizebuf.Reset()
	if err != nil {
		return 0, err
	}
	n, err = w.to.Write(w.buf.Bytes())
	w.offset += uint64(n)
	w.buf.Reset()
	return at, err
}
