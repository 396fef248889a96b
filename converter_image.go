// Copyright 2026 Markify Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package markify

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultDescriberPrompt is the captioning prompt used when neither the
// engine nor the request supplies one.
const DefaultDescriberPrompt = "Write a detailed caption for this image."

// imageConverter handles raster images. It emits exiftool metadata when
// available and a model-written caption when a Describer is configured;
// without one it leaves an instructional placeholder instead.
type imageConverter struct{}

func newImageConverter() *imageConverter {
	return &imageConverter{}
}

var imageMetadataFields = []string{
	"ImageSize", "Title", "Caption", "Description", "Keywords", "Artist",
	"Author", "DateTimeOriginal", "CreateDate", "GPSPosition",
}

func (c *imageConverter) Accepts(ctx ConversionContext) bool {
	switch ctx.FileExtension {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (c *imageConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	meta, err := runExiftool(ctx.ExiftoolPath, localPath)
	if err != nil {
		return nil, err
	}

	var md strings.Builder
	md.WriteString(renderMetadataFields(meta, imageMetadataFields))

	if ctx.Describer != nil {
		caption, err := c.describe(localPath, ctx)
		if err != nil {
			return nil, fmt.Errorf("describe image: %w", err)
		}
		if caption != "" {
			md.WriteString("\n# Description:\n")
			md.WriteString(strings.TrimSpace(caption))
			md.WriteString("\n")
		}
	} else {
		md.WriteString("\n[Image description unavailable: no captioning model is configured.]\n")
	}

	return &DocumentConverterResult{Markdown: md.String()}, nil
}

func (c *imageConverter) describe(localPath string, ctx ConversionContext) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	prompt := ctx.DescriberPrompt
	if prompt == "" {
		prompt = DefaultDescriberPrompt
	}

	mimeType := mimeFromExtension(ctx.FileExtension)
	return ctx.Describer.Describe(context.Background(), data, mimeType, prompt)
}
