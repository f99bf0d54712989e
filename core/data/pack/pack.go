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
	"fmt"

	"github.com/baldurk/renderdoc-sub019/core/fault"
)

const (
	// ErrIncorrectMagic is the error returned when the file header is not matched.
	ErrIncorrectMagic = fault.Const("Incorrect pack magic header")
	// ErrTruncated is the error returned when a chunk ends before its declared size.
	ErrTruncated = fault.Const("Truncated chunk")
	// ErrMalformed is the error returned when a chunk body holds an invalid value.
	ErrMalformed = fault.Const("Malformed chunk")
	// ErrTooLarge is the error returned when writing a chunk over MaxChunkSize.
	ErrTooLarge = fault.Const("Chunk too large")

	initalBufferSize = 4096
	maxVarintSize    = 10
	headerSize       = 16
)

// MaxChunkSize is the largest chunk, tag included, a stream may hold.
const MaxChunkSize = 1 << 28

var (
	// MinMajorVersion is the current minimum supported major version of pack files.
	MinMajorVersion = 1
	// MaxMajorVersion is the current maximum supported major version of pack files.
	MaxMajorVersion = 1

	// header is the header written by this package including the version.
	header = []byte("ChunkPack\r\n1.0\n\x00")
)

// Version is a pack format version.
type Version struct {
	Major int // Major version is incremented for format breaking changes.
	Minor int // Minor version is incremented backwards compatible changes.
}

// ErrUnsupportedVersion is the error returned when the header version is one
// this package cannot handle.
type ErrUnsupportedVersion struct{ Version Version }

func (e ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("Unsupported pack file version: %v.%v", e.Version.Major, e.Version.Minor)
}

// Chunk is a single tagged record of a stream.
type Chunk struct {
	Tag    uint32 // Tag identifies the kind of the body.
	Offset uint64 // Offset is the position of the chunk's length prefix, relative to the end of the header.
	Data   []byte // Data is the chunk body, excluding the tag.
}

func parseHeader(b []byte) (Version, error) {
	if len(b) != headerSize ||
		string(b[0:11]) != "ChunkPack\r\n" ||
		b[11] < '0' || b[11] > '9' ||
		b[12] != '.' ||
		b[13] < '0' || b[13] > '9' ||
		b[14] != '\n' ||
		b[15] != 0 {
		return Version{}, ErrIncorrectMagic
	}
	v := Version{Major: int(b[11] - '0'), Minor: int(b[13] - '0')}
	if v.Major < MinMajorVersion || v.Major > MaxMajorVersion {
		return v, ErrUnsupportedVersion{v}
	}
	return v, nil
}
