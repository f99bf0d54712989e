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

// Package pack reads and writes chunk streams.
//
// A stream consists of a 16 byte magic marker carrying the format version,
// followed by a repeated sequence of chunks. Each chunk is a uvarint length
// followed by that many bytes; the first field of the payload is a uvarint
// chunk tag and the rest is the tag-specific body. Chunk bodies are built
// with Encoder and read back with Decoder.
package pack
