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

package capture

import (
	"context"
	"io"

	"github.com/baldurk/renderdoc-sub019/core/log"
	"gopkg.in/yaml.v3"
)

// Metadata describes the frame and API properties of a capture. It is
// stored alongside the command stream.
type Metadata struct {
	Name       string            `yaml:"name"`
	API        string            `yaml:"api"`
	Device     string            `yaml:"device,omitempty"`
	Frame      uint32            `yaml:"frame"`
	Width      uint32            `yaml:"width,omitempty"`
	Height     uint32            `yaml:"height,omitempty"`
	Callstacks bool              `yaml:"callstacks"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// WriteMetadata writes m as YAML to w.
func WriteMetadata(ctx context.Context, m Metadata, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return log.Err(ctx, err, "Writing capture metadata")
	}
	return enc.Close()
}

// ReadMetadata reads YAML metadata written by WriteMetadata.
func ReadMetadata(ctx context.Context, r io.Reader) (Metadata, error) {
	m := Metadata{}
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return Metadata{}, log.Err(ctx, err, "Reading capture metadata")
	}
	return m, nil
}
