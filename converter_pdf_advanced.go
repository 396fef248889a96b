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
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/responses"
	"github.com/klippa-app/go-pdfium/webassembly"
)

var (
	pdfiumPool     pdfium.Pool
	pdfiumPoolOnce sync.Once
	pdfiumPoolErr  error
)

func initPdfiumPool() {
	pdfiumPool, pdfiumPoolErr = webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
}

// advancedPDFConverter is the ModeAdvanced strategy: it extracts positioned
// text with font metadata through PDFium (compiled to WebAssembly) and
// reconstructs Markdown structure, turning oversized or bold lines into
// headings and monospace runs into code spans.
type advancedPDFConverter struct{}

func newAdvancedPDFConverter() *advancedPDFConverter {
	return &advancedPDFConverter{}
}

func (c *advancedPDFConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".pdf"
}

func (c *advancedPDFConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	pdfiumPoolOnce.Do(initPdfiumPool)
	if pdfiumPoolErr != nil {
		return nil, fmt.Errorf("init pdfium: %w", pdfiumPoolErr)
	}

	instance, err := pdfiumPool.GetInstance(30 * time.Second)
	if err != nil {
		return nil, fmt.Errorf("get pdfium instance: %w", err)
	}
	defer instance.Close()

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		return nil, fmt.Errorf("get page count: %w", err)
	}

	var md strings.Builder

	for i := 0; i < pageCountResp.PageCount; i++ {
		text := extractStructuredPage(instance, doc, i)
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

// pdfRect represents a text rectangle with font metadata from PDFium.
type pdfRect struct {
	text     string
	left     float64
	top      float64
	right    float64
	bottom   float64
	fontSize float64
	fontName string
}

// pdfTextLine represents a line of text built from grouped rects.
type pdfTextLine struct {
	rects    []pdfRect
	top      float64
	bottom   float64
	left     float64
	fontSize float64 // dominant font size on this line
	fontName string  // dominant font name on this line
}

func (l *pdfTextLine) text() string {
	var b strings.Builder
	for _, r := range l.rects {
		b.WriteString(r.text)
	}
	return b.String()
}

// extractStructuredPage extracts text from a page with markdown formatting.
func extractStructuredPage(instance pdfium.Pdfium, doc *responses.OpenDocument, pageIdx int) string {
	structured, err := instance.GetPageTextStructured(&requests.GetPageTextStructured{
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: doc.Document,
				Index:    pageIdx,
			},
		},
		Mode:                   requests.GetPageTextStructuredModeRects,
		CollectFontInformation: true,
	})
	if err != nil || len(structured.Rects) == 0 {
		return extractPlainPage(instance, doc, pageIdx)
	}

	var rects []pdfRect
	for _, r := range structured.Rects {
		text := r.Text
		if strings.TrimSpace(text) == "" {
			continue
		}
		pr := pdfRect{
			text:   text,
			left:   r.PointPosition.Left,
			top:    r.PointPosition.Top,
			right:  r.PointPosition.Right,
			bottom: r.PointPosition.Bottom,
		}
		if r.FontInformation != nil {
			pr.fontSize = r.FontInformation.Size
			pr.fontName = r.FontInformation.Name
		}
		rects = append(rects, pr)
	}

	if len(rects) == 0 {
		return ""
	}

	lines := groupRectsIntoLines(rects)
	bodySize := detectBodyFontSize(lines)

	return renderMarkdownFromLines(lines, bodySize)
}

// extractPlainPage is the fallback plain text extractor.
func extractPlainPage(instance pdfium.Pdfium, doc *responses.OpenDocument, pageIdx int) string {
	textResp, err := instance.GetPageText(&requests.GetPageText{
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: doc.Document,
				Index:    pageIdx,
			},
		},
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(textResp.Text)
}

// groupRectsIntoLines groups rects by their vertical position into lines,
// sorted top-to-bottom, with rects within each line sorted left-to-right.
func groupRectsIntoLines(rects []pdfRect) []pdfTextLine {
	// Top of page has the highest top coordinate in PDF space.
	sort.Slice(rects, func(i, j int) bool {
		if math.Abs(rects[i].top-rects[j].top) < 2 {
			return rects[i].left < rects[j].left
		}
		return rects[i].top > rects[j].top
	})

	var lines []pdfTextLine
	for _, r := range rects {
		merged := false
		for i := range lines {
			if math.Abs(lines[i].top-r.top) < 3 {
				lines[i].rects = append(lines[i].rects, r)
				if r.left < lines[i].left {
					lines[i].left = r.left
				}
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, pdfTextLine{
				rects:  []pdfRect{r},
				top:    r.top,
				bottom: r.bottom,
				left:   r.left,
			})
		}
	}

	sort.Slice(lines, func(i, j int) bool {
		return lines[i].top > lines[j].top
	})

	for i := range lines {
		sort.Slice(lines[i].rects, func(a, b int) bool {
			return lines[i].rects[a].left < lines[i].rects[b].left
		})
		lines[i].fontSize, lines[i].fontName = dominantFont(lines[i].rects)
	}

	return lines
}

// dominantFont returns the font size and name covering the most text in a
// line.
func dominantFont(rects []pdfRect) (float64, string) {
	type fontKey struct {
		size float64
		name string
	}
	counts := map[fontKey]int{}
	for _, r := range rects {
		k := fontKey{size: math.Round(r.fontSize*10) / 10, name: r.fontName}
		counts[k] += len(r.text)
	}
	var bestKey fontKey
	bestCount := 0
	for k, c := range counts {
		if c > bestCount {
			bestCount = c
			bestKey = k
		}
	}
	return bestKey.size, bestKey.name
}

// detectBodyFontSize finds the most common font size across all lines,
// weighted by character count. That size is the body text.
func detectBodyFontSize(lines []pdfTextLine) float64 {
	sizeCounts := map[float64]int{}
	for _, l := range lines {
		for _, r := range l.rects {
			rounded := math.Round(r.fontSize*10) / 10
			sizeCounts[rounded] += len(strings.TrimSpace(r.text))
		}
	}

	var bodySize float64
	maxCount := 0
	for size, count := range sizeCounts {
		if count > maxCount {
			maxCount = count
			bodySize = size
		}
	}
	return bodySize
}

// fontIsBold returns true if the font name suggests bold weight.
func fontIsBold(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "bold") ||
		strings.Contains(lower, "medi") || // e.g. NimbusRomNo9L-Medi
		strings.HasSuffix(lower, "-bd") ||
		strings.HasSuffix(lower, "bd")
}

// fontIsItalic returns true if the font name suggests italic style.
func fontIsItalic(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "ital") ||
		strings.Contains(lower, "obli") ||
		strings.HasSuffix(lower, "-it")
}

// allRectsAreBold returns true if all non-whitespace rects use a bold font.
func allRectsAreBold(rects []pdfRect) bool {
	for _, r := range rects {
		if strings.TrimSpace(r.text) == "" {
			continue
		}
		if !fontIsBold(r.fontName) {
			return false
		}
	}
	return true
}

// fontIsMono returns true if the font name suggests a monospace font.
func fontIsMono(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "mono") ||
		strings.Contains(lower, "courier") ||
		strings.Contains(lower, "consola") ||
		strings.HasPrefix(lower, "cmtt") || // Computer Modern Typewriter
		strings.Contains(lower, "typewriter")
}

// headingLevel determines the markdown heading level from the line's font
// size relative to the body size. Returns 0 for body text.
func headingLevel(fontSize, bodySize float64, isBold bool) int {
	if bodySize <= 0 {
		return 0
	}
	ratio := fontSize / bodySize
	switch {
	case ratio >= 2.0:
		return 1
	case ratio >= 1.5:
		return 2
	case ratio >= 1.1:
		if isBold {
			return 3
		}
		return 4
	default:
		return 0
	}
}

// renderMarkdownFromLines converts structured PDF lines into markdown text.
func renderMarkdownFromLines(lines []pdfTextLine, bodySize float64) string {
	var md strings.Builder
	prevWasHeading := false

	for i, line := range lines {
		rawText := strings.TrimSpace(line.text())
		if rawText == "" {
			continue
		}

		// Drop tiny standalone annotations (footnote markers and the like).
		if line.fontSize > 0 && bodySize > 0 && line.fontSize < bodySize*0.75 {
			if line.fontSize < bodySize*0.6 && len(rawText) <= 3 {
				continue
			}
		}

		isBold := fontIsBold(line.fontName)
		level := headingLevel(line.fontSize, bodySize, isBold)

		// Standalone short bold lines at body size are likely subheadings
		// (e.g. "References", "Acknowledgements").
		if level == 0 && isBold && line.fontSize >= bodySize && allRectsAreBold(line.rects) {
			if len(rawText) < 80 {
				level = 4
			}
		}

		lineMarkdown := strings.TrimSpace(buildLineMarkdown(line.rects, bodySize))
		if lineMarkdown == "" {
			continue
		}

		if level > 0 {
			if md.Len() > 0 {
				md.WriteString("\n")
			}
			md.WriteString(strings.Repeat("#", level))
			md.WriteString(" ")
			// The heading itself implies emphasis.
			md.WriteString(stripMarkdownFormatting(lineMarkdown))
			md.WriteString("\n\n")
			prevWasHeading = true
		} else {
			if i > 0 && !prevWasHeading {
				prevLine := lines[i-1]
				gap := prevLine.bottom - line.top
				lineHeight := line.top - line.bottom
				if lineHeight <= 0 {
					lineHeight = bodySize
				}
				// Gap larger than ~1.5x line height suggests a paragraph break
				if gap > lineHeight*1.5 {
					md.WriteString("\n")
				}
			}

			md.WriteString(lineMarkdown)
			md.WriteString("\n")
			prevWasHeading = false
		}
	}

	return md.String()
}

// buildLineMarkdown renders a line's rects with inline markdown formatting
// (bold, italic, code) based on font properties.
func buildLineMarkdown(rects []pdfRect, bodySize float64) string {
	// Merge consecutive rects with the same formatting to avoid split markers
	type fmtRun struct {
		text   string
		bold   bool
		italic bool
		mono   bool
	}

	var runs []fmtRun
	for _, r := range rects {
		text := r.text
		if strings.TrimSpace(text) == "" {
			continue
		}

		// Skip superscript footnote markers
		if r.fontSize > 0 && bodySize > 0 && r.fontSize < bodySize*0.6 && len(strings.TrimSpace(text)) <= 3 {
			continue
		}

		run := fmtRun{
			text:   text,
			bold:   fontIsBold(r.fontName),
			italic: fontIsItalic(r.fontName),
			mono:   fontIsMono(r.fontName),
		}

		if len(runs) > 0 {
			prev := &runs[len(runs)-1]
			if prev.bold == run.bold && prev.italic == run.italic && prev.mono == run.mono {
				prev.text += text
				continue
			}
		}
		runs = append(runs, run)
	}

	var b strings.Builder
	for _, run := range runs {
		text := run.text
		switch {
		case run.mono:
			b.WriteString("`")
			b.WriteString(strings.TrimSpace(text))
			b.WriteString("`")
			if strings.HasSuffix(text, " ") {
				b.WriteString(" ")
			}
		case run.bold && run.italic:
			writeEmphasized(&b, text, "***")
		case run.bold:
			writeEmphasized(&b, text, "**")
		case run.italic:
			writeEmphasized(&b, text, "*")
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

// writeEmphasized wraps text in an emphasis marker, keeping any trailing
// space outside the marker.
func writeEmphasized(b *strings.Builder, text, marker string) {
	trimmed := strings.TrimRight(text, " ")
	b.WriteString(marker)
	b.WriteString(trimmed)
	b.WriteString(marker)
	if len(text) > len(trimmed) {
		b.WriteString(" ")
	}
}

// stripMarkdownFormatting removes inline markdown markers for use in headings.
func stripMarkdownFormatting(s string) string {
	s = strings.ReplaceAll(s, "***", "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
