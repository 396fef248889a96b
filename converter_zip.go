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
	"archive/zip"
	"fmt"
	"path/filepath"
	"strings"
)

// zipConverter converts each archive member through the engine and
// concatenates the results under per-file headings. Members that fail to
// convert are skipped rather than failing the archive.
type zipConverter struct{}

func newZipConverter() *zipConverter {
	return &zipConverter{}
}

func (c *zipConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".zip"
}

func (c *zipConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	if ctx.Engine == nil {
		return nil, fmt.Errorf("zip conversion requires an engine")
	}

	zr, err := zip.OpenReader(localPath)
	if err != nil {
		return nil, fmt.Errorf("open ZIP: %w", err)
	}
	defer zr.Close()

	filename := ctx.Filename
	if filename == "" {
		filename = filepath.Base(localPath)
	}

	var md strings.Builder
	fmt.Fprintf(&md, "Content from the zip file `%s`:\n\n", filename)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}

		result, err := ctx.Engine.ConvertReader(rc,
			WithExtensionHint(strings.ToLower(filepath.Ext(f.Name))),
			WithFilenameHint(filepath.Base(f.Name)),
		)
		rc.Close()
		if err != nil {
			// Unconvertible members are omitted, not fatal.
			continue
		}

		if strings.TrimSpace(result.Markdown) != "" {
			fmt.Fprintf(&md, "## File: %s\n", f.Name)
			md.WriteString(result.Markdown)
			md.WriteString("\n\n")
		}
	}

	return &DocumentConverterResult{Markdown: md.String()}, nil
}
