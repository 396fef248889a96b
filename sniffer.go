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
	"bytes"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SourceHints carries everything the caller knows about an input besides its
// bytes: an explicit extension override and any header-derived metadata from
// the service layer that fetched it.
type SourceHints struct {
	Extension          string // explicit override, tried first
	ContentType        string // e.g. "text/html; charset=utf-8"
	ContentDisposition string // raw Content-Disposition header value
	URL                string // final source URL after redirects
	Charset            string
	Filename           string
}

var reDispositionFilename = regexp.MustCompile(`filename=([^;]+)`)

// GuessExtensions produces the ordered extension-candidate list for a local
// file: explicit hint, then path and URL suffixes, then header-derived
// guesses, then magic-byte sniffing. Order encodes confidence; duplicates are
// allowed (dispatch tolerates repeats), blanks are dropped. Sniffing failures
// are swallowed: an unreadable file simply contributes no magic guesses.
func GuessExtensions(path string, hints SourceHints) []string {
	var exts []string

	appendExtension(&exts, hints.Extension)
	appendExtension(&exts, filepath.Ext(path))

	if hints.URL != "" {
		if u, err := url.Parse(hints.URL); err == nil {
			appendExtension(&exts, filepath.Ext(u.Path))
		}
	}

	if hints.ContentType != "" {
		mediaType := strings.TrimSpace(strings.Split(hints.ContentType, ";")[0])
		appendExtension(&exts, extensionForMIME(mediaType))
	}

	if hints.ContentDisposition != "" {
		if m := reDispositionFilename.FindStringSubmatch(hints.ContentDisposition); m != nil {
			name := strings.Trim(strings.TrimSpace(m[1]), `"'`)
			appendExtension(&exts, filepath.Ext(name))
		}
	}

	for _, g := range sniffMagic(path) {
		appendExtension(&exts, g)
	}

	return exts
}

// appendExtension appends a normalized non-empty extension.
func appendExtension(exts *[]string, ext string) {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	*exts = append(*exts, strings.ToLower(ext))
}

// sniffLimit bounds how much of the file content-based detection reads.
const sniffLimit = 8192

// sniffMagic inspects leading bytes against known file-format signatures.
// If the first pass yields nothing, it retries once after skipping leading
// ASCII whitespace (some XML/HTML documents open with blank lines that
// defeat signature matching).
func sniffMagic(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	buf := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	data := buf[:n]

	guesses := magicExtensions(data)
	if len(guesses) == 0 {
		trimmed := bytes.TrimLeft(data, " \t\n\r\v\f")
		if len(trimmed) > 0 && len(trimmed) < len(data) {
			guesses = magicExtensions(trimmed)
		}
	}
	return guesses
}

// magicExtensions collects the detected type's extension plus the extensions
// of its ancestors (e.g. .docx is also a .zip), deduplicated in encounter
// order.
func magicExtensions(data []byte) []string {
	var exts []string
	seen := make(map[string]bool)
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is("application/octet-stream") {
			continue
		}
		ext := strings.ToLower(strings.TrimSpace(mt.Extension()))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}

// mimeByExtension maps extensions to MIME types. Converters use it for
// extension-class accept predicates (the plain-text converter accepts any
// extension whose type is text/* or application/json).
var mimeByExtension = map[string]string{
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":      "application/vnd.ms-excel",
	".html":     "text/html",
	".htm":      "text/html",
	".csv":      "text/csv",
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".json":     "application/json",
	".jsonl":    "application/jsonl",
	".xml":      "text/xml",
	".rss":      "application/rss+xml",
	".atom":     "application/atom+xml",
	".epub":     "application/epub+zip",
	".zip":      "application/zip",
	".ipynb":    "application/x-ipynb+json",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".png":      "image/png",
	".mp3":      "audio/mpeg",
	".wav":      "audio/wav",
	".m4a":      "audio/mp4",
}

// mimeFromExtension returns the MIME type for an extension, or
// application/octet-stream when unknown.
func mimeFromExtension(ext string) string {
	if m, ok := mimeByExtension[strings.ToLower(ext)]; ok {
		return m
	}
	return "application/octet-stream"
}

// extensionForMIME is the reverse lookup used for Content-Type hints.
func extensionForMIME(mediaType string) string {
	mediaType = strings.ToLower(mediaType)
	switch mediaType {
	// Prefer canonical extensions where several map to the same type.
	case "text/plain":
		return ".txt"
	case "text/html", "application/xhtml+xml":
		return ".html"
	case "text/markdown":
		return ".md"
	case "image/jpeg":
		return ".jpg"
	case "application/xml":
		return ".xml"
	case "audio/x-wav":
		return ".wav"
	}
	for ext, m := range mimeByExtension {
		if m == mediaType {
			return ext
		}
	}
	return ""
}
