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

import "net/http"

// Option configures the engine at construction time.
type Option func(*MarkItDown)

// WithMode selects the PDF conversion strategy. Defaults to ModeSimple.
func WithMode(mode Mode) Option {
	return func(m *MarkItDown) { m.mode = mode }
}

// WithHTTPClient replaces the client used by ConvertURL.
func WithHTTPClient(c *http.Client) Option {
	return func(m *MarkItDown) { m.httpClient = c }
}

// WithKeepDataURIs keeps data: URIs in HTML output instead of truncating
// them.
func WithKeepDataURIs(keep bool) Option {
	return func(m *MarkItDown) { m.keepDataURIs = keep }
}

// WithDescriber installs an image captioner used by the image converter.
func WithDescriber(d Describer) Option {
	return func(m *MarkItDown) { m.defaults.Describer = d }
}

// WithDescriberModel sets the model name reported alongside captions.
func WithDescriberModel(model string) Option {
	return func(m *MarkItDown) { m.defaults.DescriberModel = model }
}

// WithDescriberPrompt overrides the default captioning prompt.
func WithDescriberPrompt(prompt string) Option {
	return func(m *MarkItDown) { m.defaults.DescriberPrompt = prompt }
}

// WithStyleMap sets the default DOCX style map.
func WithStyleMap(styleMap string) Option {
	return func(m *MarkItDown) { m.defaults.StyleMap = styleMap }
}

// WithExiftoolPath sets the exiftool binary location. When unset the engine
// falls back to the EXIFTOOL_PATH environment variable.
func WithExiftoolPath(path string) Option {
	return func(m *MarkItDown) { m.defaults.ExiftoolPath = path }
}

// ConvertOption configures a single conversion request. Request-level values
// take precedence over engine defaults; defaults fill in only what the
// request leaves unset.
type ConvertOption func(*convertRequest)

type convertRequest struct {
	hints SourceHints
	base  ConversionContext
}

// WithExtensionHint forces an extension to the front of the candidate list.
func WithExtensionHint(ext string) ConvertOption {
	return func(r *convertRequest) { r.hints.Extension = ext }
}

// WithURLHint records the source URL for inputs fetched by the caller.
func WithURLHint(u string) ConvertOption {
	return func(r *convertRequest) {
		r.hints.URL = u
		r.base.URL = u
	}
}

// WithContentTypeHint supplies a MIME type for the input.
func WithContentTypeHint(contentType string) ConvertOption {
	return func(r *convertRequest) { r.hints.ContentType = contentType }
}

// WithCharsetHint supplies a charset for text decoding.
func WithCharsetHint(charset string) ConvertOption {
	return func(r *convertRequest) {
		r.hints.Charset = charset
		r.base.Charset = charset
	}
}

// WithFilenameHint records the original file name of the input.
func WithFilenameHint(name string) ConvertOption {
	return func(r *convertRequest) {
		r.hints.Filename = name
		r.base.Filename = name
	}
}

// WithStyleMapOverride overrides the engine's DOCX style map for this
// request only.
func WithStyleMapOverride(styleMap string) ConvertOption {
	return func(r *convertRequest) { r.base.StyleMap = styleMap }
}

// WithPromptOverride overrides the image captioning prompt for this request
// only.
func WithPromptOverride(prompt string) ConvertOption {
	return func(r *convertRequest) { r.base.DescriberPrompt = prompt }
}
