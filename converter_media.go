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
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// runExiftool shells out to exiftool and returns the flattened JSON metadata
// for one file. Returns nil (no error) when exiftoolPath is empty so callers
// can degrade to metadata-free output.
func runExiftool(exiftoolPath, localPath string) (map[string]any, error) {
	if exiftoolPath == "" {
		slog.Warn("exiftool path not set, skipping metadata extraction",
			"hint", "set EXIFTOOL_PATH or WithExiftoolPath")
		return nil, nil
	}

	out, err := exec.Command(exiftoolPath, "-json", localPath).Output()
	if err != nil {
		return nil, fmt.Errorf("run exiftool: %w", err)
	}

	var entries []map[string]any
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, fmt.Errorf("parse exiftool output: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// renderMetadataFields renders the selected metadata fields, in order, as
// "Field: value" lines. Missing fields are skipped.
func renderMetadataFields(meta map[string]any, fields []string) string {
	if meta == nil {
		return ""
	}
	var b strings.Builder
	for _, field := range fields {
		v, ok := meta[field]
		if !ok {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s != "" {
			fmt.Fprintf(&b, "%s: %s\n", field, s)
		}
	}
	return b.String()
}

// mediaConverter handles audio files. Output is whatever exiftool metadata
// is available; transcription is out of scope.
type mediaConverter struct{}

func newMediaConverter() *mediaConverter {
	return &mediaConverter{}
}

var mediaMetadataFields = []string{
	"Title", "Artist", "Author", "Band", "Album", "Genre", "Track",
	"DateTimeOriginal", "CreateDate", "Duration",
}

func (c *mediaConverter) Accepts(ctx ConversionContext) bool {
	switch ctx.FileExtension {
	case ".mp3", ".wav", ".m4a":
		return true
	}
	return false
}

func (c *mediaConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	meta, err := runExiftool(ctx.ExiftoolPath, localPath)
	if err != nil {
		return nil, err
	}

	md := renderMetadataFields(meta, mediaMetadataFields)
	return &DocumentConverterResult{Markdown: md}, nil
}
