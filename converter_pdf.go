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
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// simplePDFConverter extracts PDF text with a pure-Go parser. It is the
// ModeSimple strategy: fast and dependency-light, but layout-naive.
type simplePDFConverter struct{}

func newSimplePDFConverter() *simplePDFConverter {
	return &simplePDFConverter{}
}

func (c *simplePDFConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".pdf"
}

// pdfTitleFromContext derives a document title from the original file name
// when one is known.
func pdfTitleFromContext(ctx ConversionContext, localPath string) string {
	name := ctx.Filename
	if name == "" {
		name = filepath.Base(localPath)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (c *simplePDFConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	f, pdfReader, err := pdf.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	var md strings.Builder
	numPages := pdfReader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text := strings.TrimSpace(extractPageText(page))
		if text == "" {
			continue
		}

		md.WriteString(text)
		md.WriteString("\n\n")
	}

	result := md.String()
	if strings.TrimSpace(result) == "" {
		result = "[No readable text content found in PDF]"
	}

	return &DocumentConverterResult{
		Markdown: result,
		Title:    pdfTitleFromContext(ctx, localPath),
	}, nil
}

// pdfTextElement represents a positioned text element on a PDF page.
type pdfTextElement struct {
	x    float64
	y    float64
	text string
	size float64
}

// pdfLine represents a line of text on a PDF page.
type pdfLine struct {
	y        float64
	elements []pdfTextElement
}

// extractPageText extracts text from a single PDF page using GetTextByRow,
// falling back to position-based extraction from Content().Text.
func extractPageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var result strings.Builder
		for _, row := range rows {
			var lineText strings.Builder
			prevWasEmpty := false
			for _, word := range row.Content {
				s := word.S
				if s == "" {
					prevWasEmpty = true
					continue
				}
				if lineText.Len() > 0 && prevWasEmpty {
					// Empty string between non-empty strings = word boundary
					last := lineText.String()
					if len(last) > 0 && last[len(last)-1] != ' ' {
						lineText.WriteString(" ")
					}
				}
				lineText.WriteString(s)
				prevWasEmpty = false
			}
			text := strings.TrimSpace(lineText.String())
			if text != "" {
				result.WriteString(text)
				result.WriteString("\n")
			}
		}
		text := result.String()
		if strings.TrimSpace(text) != "" {
			return text
		}
	}

	// Fallback: character-level extraction with position data
	content := page.Content()
	if len(content.Text) == 0 {
		return ""
	}

	var elements []pdfTextElement
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		elements = append(elements, pdfTextElement{
			x:    t.X,
			y:    t.Y,
			text: t.S,
			size: t.FontSize,
		})
	}

	if len(elements) == 0 {
		return ""
	}

	// Group into lines based on Y proximity
	yTolerance := 3.0
	if elements[0].size > 0 {
		yTolerance = elements[0].size * 0.3
	}

	var lines []pdfLine
	for _, elem := range elements {
		found := false
		for i := range lines {
			if pdfAbs(lines[i].y-elem.y) < yTolerance {
				lines[i].elements = append(lines[i].elements, elem)
				found = true
				break
			}
		}
		if !found {
			lines = append(lines, pdfLine{y: elem.y, elements: []pdfTextElement{elem}})
		}
	}

	// Y descending = top to bottom in PDF coordinates
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	var result strings.Builder
	for _, ln := range lines {
		sort.Slice(ln.elements, func(i, j int) bool {
			return ln.elements[i].x < ln.elements[j].x
		})

		var lineText strings.Builder
		var lastX float64
		var lastWidth float64
		first := true

		for _, elem := range ln.elements {
			if !first {
				gap := elem.x - (lastX + lastWidth)
				// Font-size-relative threshold for word spacing
				threshold := elem.size * 0.2
				if threshold < 1.0 {
					threshold = 1.0
				}
				if gap > threshold {
					lineText.WriteString(" ")
				}
			}
			lineText.WriteString(elem.text)
			lastX = elem.x
			lastWidth = float64(len([]rune(elem.text))) * elem.size * 0.55
			first = false
		}

		text := lineText.String()
		if strings.TrimSpace(text) != "" {
			result.WriteString(text)
			result.WriteString("\n")
		}
	}

	return result.String()
}

func pdfAbs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// cloudPDFConverter is the ModeCloud strategy. It accepts PDFs so that
// dispatch reports a conversion failure (rather than an unsupported format)
// until the hosted OCR backend lands.
type cloudPDFConverter struct{}

func newCloudPDFConverter() *cloudPDFConverter {
	return &cloudPDFConverter{}
}

func (c *cloudPDFConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".pdf"
}

func (c *cloudPDFConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	return nil, fmt.Errorf("cloud PDF conversion: %w", ErrNotImplemented)
}
