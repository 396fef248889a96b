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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeConverter accepts a fixed extension set and replays a canned outcome.
type fakeConverter struct {
	accepts map[string]bool
	result  *DocumentConverterResult
	err     error

	converted []string // extensions Convert was called with
}

func (f *fakeConverter) Accepts(ctx ConversionContext) bool {
	return f.accepts[ctx.FileExtension]
}

func (f *fakeConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	f.converted = append(f.converted, ctx.FileExtension)
	return f.result, f.err
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertFilePlainText(t *testing.T) {
	m := New()
	path := writeTempFile(t, "note.txt", []byte("hello from a text file\n"))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if !strings.Contains(result.Markdown, "hello from a text file") {
		t.Errorf("unexpected output: %q", result.Markdown)
	}
}

func TestConvertFileUppercaseExtension(t *testing.T) {
	m := New()
	path := writeTempFile(t, "REPORT.TXT", []byte("case insensitive dispatch"))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if !strings.Contains(result.Markdown, "case insensitive dispatch") {
		t.Errorf("unexpected output: %q", result.Markdown)
	}
}

func TestConvertFileCSV(t *testing.T) {
	m := New()
	path := writeTempFile(t, "people.csv", []byte("name,age\nalice,30\nbob,25\n"))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	for _, want := range []string{"| name | age |", "| alice | 30 |", "| bob | 25 |"} {
		if !strings.Contains(result.Markdown, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, result.Markdown)
		}
	}
}

func TestConvertFileHTML(t *testing.T) {
	m := New()
	html := `<html><head><title>Test Page</title><script>ignored()</script></head>` +
		`<body><h1>Welcome</h1><p>Some <strong>bold</strong> text.</p></body></html>`
	path := writeTempFile(t, "page.html", []byte(html))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if result.Title != "Test Page" {
		t.Errorf("Title = %q, want %q", result.Title, "Test Page")
	}
	if !strings.Contains(result.Markdown, "# Welcome") {
		t.Errorf("expected heading in output, got:\n%s", result.Markdown)
	}
	if !strings.Contains(result.Markdown, "**bold**") {
		t.Errorf("expected bold text in output, got:\n%s", result.Markdown)
	}
	if strings.Contains(result.Markdown, "ignored()") {
		t.Errorf("script content leaked into output:\n%s", result.Markdown)
	}
}

func TestConvertFileNotebook(t *testing.T) {
	m := New()
	nb := `{
  "metadata": {"kernelspec": {"language": "python"}},
  "cells": [
    {"cell_type": "markdown", "source": ["# My Notebook\n"]},
    {"cell_type": "code", "source": ["print('hi')\n"], "outputs": [{"output_type": "stream", "text": ["hi\n"]}]}
  ]
}`
	path := writeTempFile(t, "analysis.ipynb", []byte(nb))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if result.Title != "My Notebook" {
		t.Errorf("Title = %q, want %q", result.Title, "My Notebook")
	}
	for _, want := range []string{"# My Notebook", "```python", "print('hi')"} {
		if !strings.Contains(result.Markdown, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, result.Markdown)
		}
	}
}

func TestConvertFileZip(t *testing.T) {
	m := New()

	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("zipped text content")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	for _, want := range []string{"bundle.zip", "## File: readme.txt", "zipped text content"} {
		if !strings.Contains(result.Markdown, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, result.Markdown)
		}
	}
}

func TestConvertFileRSS(t *testing.T) {
	m := New()
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <title>Example Feed</title>
  <description>Feed description</description>
  <item><title>First Post</title><description>Post body</description></item>
</channel></rss>`
	path := writeTempFile(t, "feed.xml", []byte(feed))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	for _, want := range []string{"# Example Feed", "## First Post", "Post body"} {
		if !strings.Contains(result.Markdown, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, result.Markdown)
		}
	}
}

func TestDispatchExtensionHintWins(t *testing.T) {
	m := New()
	fake := &fakeConverter{
		accepts: map[string]bool{".foo": true},
		result:  &DocumentConverterResult{Markdown: "converted by fake"},
	}
	m.RegisterConverter("fake", fake)

	path := writeTempFile(t, "data.bin", []byte{0x00, 0x01, 0x02, 0x03})

	result, err := m.ConvertFile(path, WithExtensionHint("foo"))
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if result.Markdown != "converted by fake" {
		t.Errorf("unexpected output: %q", result.Markdown)
	}
	if len(fake.converted) != 1 || fake.converted[0] != ".foo" {
		t.Errorf("fake converted with extensions %v, want [.foo]", fake.converted)
	}
}

func TestDispatchAcceptedFailureFallsThrough(t *testing.T) {
	m := New()
	failing := &fakeConverter{
		accepts: map[string]bool{".txt": true},
		err:     errors.New("boom"),
	}
	// Registered last, so it is consulted before the built-in plain text
	// converter and its failure must not mask the later success.
	m.RegisterConverter("failing", failing)

	path := writeTempFile(t, "note.txt", []byte("recovered content"))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if !strings.Contains(result.Markdown, "recovered content") {
		t.Errorf("unexpected output: %q", result.Markdown)
	}
	if len(failing.converted) == 0 {
		t.Error("failing converter was never tried")
	}
}

func TestDispatchLateDecline(t *testing.T) {
	m := New()
	declining := &fakeConverter{
		accepts: map[string]bool{".txt": true},
		// nil result, nil error: content inspection ruled the format out.
	}
	m.RegisterConverter("declining", declining)

	path := writeTempFile(t, "note.txt", []byte("still converted"))

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if !strings.Contains(result.Markdown, "still converted") {
		t.Errorf("unexpected output: %q", result.Markdown)
	}
}

func TestDispatchAllAttemptsFail(t *testing.T) {
	m := New()
	first := &fakeConverter{
		accepts: map[string]bool{".qux": true},
		err:     errors.New("first failure"),
	}
	second := &fakeConverter{
		accepts: map[string]bool{".qux": true},
		err:     errors.New("second failure"),
	}
	m.RegisterConverter("first", first)
	m.RegisterConverter("second", second) // tried before "first"

	path := writeTempFile(t, "input.qux", []byte{0x00, 0x01})

	_, err := m.ConvertFile(path)
	if err == nil {
		t.Fatal("expected error")
	}

	var convErr *FileConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("error type = %T, want *FileConversionError", err)
	}
	if len(convErr.Attempts) != 2 {
		t.Fatalf("recorded %d attempts, want 2", len(convErr.Attempts))
	}
	if convErr.Attempts[0].Converter != "second" {
		t.Errorf("first attempt by %q, want %q", convErr.Attempts[0].Converter, "second")
	}
	if got := errors.Unwrap(err); got == nil || got.Error() != "first failure" {
		t.Errorf("Unwrap() = %v, want last attempt's error", got)
	}
	if IsUnsupportedFormat(err) {
		t.Error("conversion failure misreported as unsupported format")
	}
}

func TestDispatchUnsupportedFormat(t *testing.T) {
	m := New()
	path := writeTempFile(t, "input.xyz", []byte{0x00, 0x01, 0x02, 0x03})

	_, err := m.ConvertFile(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsUnsupportedFormat(err) {
		t.Errorf("error type = %T, want *UnsupportedFormatError", err)
	}
}

func TestDispatchNoExtensionFallback(t *testing.T) {
	m := New()
	catchall := &fakeConverter{
		accepts: map[string]bool{"": true},
		result:  &DocumentConverterResult{Markdown: "caught by fallback"},
	}
	m.RegisterConverter("catchall", catchall)

	path := writeTempFile(t, "blob", []byte{0x00, 0x01, 0x02, 0x03})

	result, err := m.ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile error: %v", err)
	}
	if result.Markdown != "caught by fallback" {
		t.Errorf("unexpected output: %q", result.Markdown)
	}
}

func TestConvertReaderWithHints(t *testing.T) {
	m := New()

	result, err := m.ConvertReader(strings.NewReader("streamed content"),
		WithExtensionHint(".txt"))
	if err != nil {
		t.Fatalf("ConvertReader error: %v", err)
	}
	if !strings.Contains(result.Markdown, "streamed content") {
		t.Errorf("unexpected output: %q", result.Markdown)
	}
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trailing whitespace",
			input: "hello   \nworld \t \n",
			want:  "hello\nworld\n",
		},
		{
			name:  "multiple newlines",
			input: "hello\n\n\n\n\nworld",
			want:  "hello\n\nworld",
		},
		{
			name:  "crlf",
			input: "hello\r\nworld",
			want:  "hello\nworld",
		},
		{
			name:  "already clean",
			input: "hello\n\nworld",
			want:  "hello\n\nworld",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeOutput(tt.input)
			if got != tt.want {
				t.Errorf("normalizeOutput(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := normalizeOutput(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestConverterAccepts(t *testing.T) {
	tests := []struct {
		name      string
		converter DocumentConverter
		ext       string
		want      bool
	}{
		{"plaintext txt", newPlainTextConverter(), ".txt", true},
		{"plaintext json", newPlainTextConverter(), ".json", true},
		{"plaintext md", newPlainTextConverter(), ".md", true},
		{"plaintext pdf", newPlainTextConverter(), ".pdf", false},
		{"csv", newCSVConverter(), ".csv", true},
		{"csv wrong ext", newCSVConverter(), ".txt", false},
		{"html", newHTMLConverter(false), ".html", true},
		{"html htm", newHTMLConverter(false), ".htm", true},
		{"rss", newRSSConverter(), ".rss", true},
		{"rss xml", newRSSConverter(), ".xml", true},
		{"ipynb", newIpynbConverter(), ".ipynb", true},
		{"docx", newDocxConverter(), ".docx", true},
		{"pptx", newPPTXConverter(), ".pptx", true},
		{"xlsx", newXLSXConverter(), ".xlsx", true},
		{"xls", newXLSConverter(), ".xls", true},
		{"epub", newEpubConverter(), ".epub", true},
		{"zip", newZipConverter(), ".zip", true},
		{"pdf simple", newSimplePDFConverter(), ".pdf", true},
		{"pdf cloud", newCloudPDFConverter(), ".pdf", true},
		{"image jpg", newImageConverter(), ".jpg", true},
		{"image png", newImageConverter(), ".png", true},
		{"media mp3", newMediaConverter(), ".mp3", true},
		{"media wav", newMediaConverter(), ".wav", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.converter.Accepts(ConversionContext{FileExtension: tt.ext})
			if got != tt.want {
				t.Errorf("Accepts(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestCloudPDFNotImplemented(t *testing.T) {
	m := New(WithMode(ModeCloud))
	path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4\n%fake"))

	_, err := m.ConvertFile(path)
	if err == nil {
		t.Fatal("expected error")
	}
	// The cloud stub accepts PDFs, so the failure must surface as a
	// conversion error carrying ErrNotImplemented, not as unsupported format.
	if IsUnsupportedFormat(err) {
		t.Error("cloud mode misreported PDF as unsupported")
	}
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented in chain, got: %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeSimple, false},
		{"simple", ModeSimple, false},
		{"advanced", ModeAdvanced, false},
		{"cloud", ModeCloud, false},
		{"Advanced", ModeAdvanced, false},
		{"turbo", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
