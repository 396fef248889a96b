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

import "context"

// ConversionContext carries the per-attempt parameters handed to a converter.
// It is a value type: the dispatch engine gives every (extension, converter)
// attempt its own copy, so converters can never leak state into later
// attempts.
type ConversionContext struct {
	// FileExtension is the candidate extension under test, lowercased and
	// including the leading dot. Empty on the no-extension fallback pass.
	FileExtension string

	// Charset is an optional charset hint (e.g. from a Content-Type header).
	Charset string

	// URL is the source URL when the input was fetched remotely.
	URL string

	// Filename is the original file name, when known.
	Filename string

	// StyleMap customizes DOCX style-to-heading mapping.
	StyleMap string

	// ExiftoolPath points at the exiftool binary used for image and audio
	// metadata. Metadata extraction is skipped when empty.
	ExiftoolPath string

	// Describer, DescriberModel and DescriberPrompt configure optional
	// image captioning. When Describer is nil the image converter emits an
	// instructional placeholder instead.
	Describer       Describer
	DescriberModel  string
	DescriberPrompt string

	// Engine is the dispatch engine that issued this attempt. Converters
	// for nested formats (archives, embedded HTML tables) call back into it
	// to convert sub-content.
	Engine *MarkItDown
}

// DocumentConverterResult holds the output of a conversion.
type DocumentConverterResult struct {
	Markdown string
	Title    string
}

// DocumentConverter is the interface all format converters implement.
type DocumentConverter interface {
	// Accepts reports whether this converter applies to the candidate
	// extension in ctx. It must be cheap and side-effect free: a false
	// return is the expected "decline" signal that drives dispatch.
	Accepts(ctx ConversionContext) bool

	// Convert transforms the file at localPath into Markdown. An error
	// means the format was accepted but parsing failed; dispatch records
	// it and keeps trying other candidates.
	Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error)
}

// Describer produces a natural-language caption for an image. Implementations
// wrap a multimodal model; see the describe package.
type Describer interface {
	Describe(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}
