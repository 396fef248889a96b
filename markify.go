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

// Package markify converts documents of many formats (Office files, PDF,
// HTML, notebooks, feeds, archives, images, audio) to Markdown. The engine
// guesses candidate extensions for an input, then walks its converter
// registry until one accepts and succeeds.
package markify

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
)

// Mode selects the PDF conversion strategy.
type Mode string

const (
	// ModeSimple extracts PDF text with a pure-Go parser.
	ModeSimple Mode = "simple"
	// ModeAdvanced renders PDFs through an embedded PDFium runtime.
	ModeAdvanced Mode = "advanced"
	// ModeCloud delegates PDFs to a hosted OCR service. Not yet implemented.
	ModeCloud Mode = "cloud"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSimple, "":
		return ModeSimple, nil
	case ModeAdvanced:
		return ModeAdvanced, nil
	case ModeCloud:
		return ModeCloud, nil
	}
	return "", fmt.Errorf("unknown conversion mode %q", s)
}

// MarkItDown is the conversion engine. Construct it with New, optionally
// register extra converters, then call one of the Convert methods. The
// engine is safe for concurrent Convert calls once registration is done.
type MarkItDown struct {
	mode         Mode
	registry     converterRegistry
	httpClient   *http.Client
	defaults     ConversionContext
	keepDataURIs bool
}

// New builds an engine with the built-in converters for the selected mode.
func New(opts ...Option) *MarkItDown {
	m := &MarkItDown{
		mode:       ModeSimple,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.defaults.ExiftoolPath == "" {
		m.defaults.ExiftoolPath = os.Getenv("EXIFTOOL_PATH")
	}
	m.registerBuiltins()
	return m
}

// RegisterConverter adds a converter ahead of all previously registered
// ones. Converters registered later win ties, so callers can shadow a
// built-in with a more specific implementation. Call before converting.
func (m *MarkItDown) RegisterConverter(name string, c DocumentConverter) {
	m.registry.register(name, c)
}

// registerBuiltins installs the stock converters, least specific first.
// Registration prepends, so the generic plain-text converter ends up as the
// last resort and the archive converters are consulted first.
func (m *MarkItDown) registerBuiltins() {
	m.RegisterConverter("plaintext", newPlainTextConverter())
	m.RegisterConverter("html", newHTMLConverter(m.keepDataURIs))
	m.RegisterConverter("csv", newCSVConverter())
	m.RegisterConverter("rss", newRSSConverter())
	m.RegisterConverter("docx", newDocxConverter())
	m.RegisterConverter("xlsx", newXLSXConverter())
	m.RegisterConverter("xls", newXLSConverter())
	m.RegisterConverter("pptx", newPPTXConverter())
	m.RegisterConverter("media", newMediaConverter())
	m.RegisterConverter("image", newImageConverter())
	m.RegisterConverter("ipynb", newIpynbConverter())
	m.RegisterConverter("epub", newEpubConverter())
	switch m.mode {
	case ModeAdvanced:
		m.RegisterConverter("pdf", newAdvancedPDFConverter())
	case ModeCloud:
		m.RegisterConverter("pdf", newCloudPDFConverter())
	default:
		m.RegisterConverter("pdf", newSimplePDFConverter())
	}
	m.RegisterConverter("zip", newZipConverter())
}

// Convert routes a source string: http(s) URLs are fetched, anything else is
// treated as a local path.
func (m *MarkItDown) Convert(source string, opts ...ConvertOption) (*DocumentConverterResult, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return m.ConvertURL(source, opts...)
	}
	return m.ConvertFile(source, opts...)
}

// ConvertFile converts a local file to Markdown.
func (m *MarkItDown) ConvertFile(path string, opts ...ConvertOption) (*DocumentConverterResult, error) {
	req := newRequest(opts)
	return m.dispatch(path, req)
}

// ConvertReader spools a stream to a temporary file and converts it. The
// temporary file is removed before returning, even on failure.
func (m *MarkItDown) ConvertReader(r io.Reader, opts ...ConvertOption) (*DocumentConverterResult, error) {
	tmp, err := os.CreateTemp("", "markify-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("spooling stream: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("spooling stream: %w", closeErr)
	}

	req := newRequest(opts)
	return m.dispatch(tmp.Name(), req)
}

// ConvertURL fetches a URL and converts the response body. Response headers
// feed the extension guesser: Content-Type, Content-Disposition and the
// final post-redirect URL all contribute candidates.
func (m *MarkItDown) ConvertURL(rawURL string, opts ...ConvertOption) (*DocumentConverterResult, error) {
	resp, err := m.httpClient.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", rawURL, resp.Status)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	headerOpts := []ConvertOption{WithURLHint(finalURL)}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		headerOpts = append(headerOpts, WithContentTypeHint(ct))
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if cs := params["charset"]; cs != "" {
				headerOpts = append(headerOpts, WithCharsetHint(cs))
			}
		}
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		headerOpts = append(headerOpts, func(r *convertRequest) { r.hints.ContentDisposition = cd })
	}

	// Header-derived options go first so explicit caller options win.
	return m.ConvertReader(resp.Body, append(headerOpts, opts...)...)
}

func newRequest(opts []ConvertOption) convertRequest {
	var req convertRequest
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// dispatch is the core loop: for each candidate extension (most confident
// first, plus a final no-extension pass) ask each registered converter in
// turn. The first accepted, successful conversion wins and is normalized.
// Converters that accept but fail are recorded; the distinction between
// "nothing accepted" and "everything that accepted failed" is preserved in
// the returned error type.
func (m *MarkItDown) dispatch(path string, req convertRequest) (*DocumentConverterResult, error) {
	candidates := GuessExtensions(path, req.hints)
	passes := make([]string, 0, len(candidates)+1)
	passes = append(passes, candidates...)
	passes = append(passes, "") // no-extension fallback

	converters := m.registry.snapshot()
	var attempts []FailedAttempt
	for _, ext := range passes {
		for _, rc := range converters {
			ctx := m.attemptContext(ext, req)
			if !rc.converter.Accepts(ctx) {
				continue
			}
			res, err := rc.converter.Convert(path, ctx)
			if err != nil {
				attempts = append(attempts, FailedAttempt{Extension: ext, Converter: rc.name, Err: err})
				continue
			}
			if res == nil {
				// Late decline, e.g. content inspection ruled the format out.
				continue
			}
			res.Markdown = normalizeOutput(res.Markdown)
			return res, nil
		}
	}

	if len(attempts) > 0 {
		return nil, &FileConversionError{Path: path, Candidates: candidates, Attempts: attempts}
	}
	return nil, &UnsupportedFormatError{Path: path, Candidates: candidates}
}

// attemptContext builds the per-attempt context: a fresh copy of the request
// overrides with engine defaults filled into whatever the request left
// unset. Each attempt gets its own value, so a converter mutating its copy
// cannot contaminate the next attempt.
func (m *MarkItDown) attemptContext(ext string, req convertRequest) ConversionContext {
	ctx := req.base
	ctx.FileExtension = strings.ToLower(ext)
	ctx.Engine = m
	if ctx.StyleMap == "" {
		ctx.StyleMap = m.defaults.StyleMap
	}
	if ctx.ExiftoolPath == "" {
		ctx.ExiftoolPath = m.defaults.ExiftoolPath
	}
	if ctx.Describer == nil {
		ctx.Describer = m.defaults.Describer
	}
	if ctx.DescriberModel == "" {
		ctx.DescriberModel = m.defaults.DescriberModel
	}
	if ctx.DescriberPrompt == "" {
		ctx.DescriberPrompt = m.defaults.DescriberPrompt
	}
	return ctx
}
