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
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/markifyhq/markify/internal/ooxml"
)

// docxConverter converts Word documents. It walks document.xml into an HTML
// intermediate (headings from styles, runs with formatting, hyperlinks,
// tables, embedded images as data URIs, comment annotations) and hands that
// to the HTML pipeline.
type docxConverter struct{}

func newDocxConverter() *docxConverter {
	return &docxConverter{}
}

func (c *docxConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".docx"
}

func (c *docxConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	zrc, err := zip.OpenReader(localPath)
	if err != nil {
		return nil, fmt.Errorf("open DOCX ZIP: %w", err)
	}
	defer zrc.Close()
	zr := &zrc.Reader

	rels, _ := ooxml.ParseRelationships(zr, "word/_rels/document.xml.rels")
	numbering := parseNumbering(zr)
	comments := parseComments(zr)
	styles := parseStyles(zr)
	styleMap := parseStyleMap(ctx.StyleMap)

	docData, err := ooxml.ReadFileFromZip(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %w", err)
	}

	htmlStr := documentToHTML(docData, rels, numbering, comments, styles, styleMap, zr)

	md, err := convertHTMLFragment(ctx.Engine, htmlStr)
	if err != nil {
		return nil, fmt.Errorf("convert DOCX HTML to markdown: %w", err)
	}

	return &DocumentConverterResult{Markdown: md}, nil
}

// styleInfo holds style information for a document style.
type styleInfo struct {
	name    string
	styleID string
}

// numberingLevel holds numbering level info.
type numberingLevel struct {
	numFmt string
	start  int
}

// numberingDef holds a numbering definition.
type numberingDef struct {
	abstractNumID string
	levels        map[int]numberingLevel
}

// parseStyleMap parses style map lines of the form
//
//	Style Name => h2
//
// mapping a Word paragraph style (by ID or display name, case-insensitive)
// to a heading level. Malformed lines are ignored.
func parseStyleMap(styleMap string) map[string]int {
	mapping := make(map[string]int)
	for _, line := range strings.Split(styleMap, "\n") {
		parts := strings.SplitN(line, "=>", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		target := strings.ToLower(strings.TrimSpace(parts[1]))
		if name == "" || len(target) != 2 || target[0] != 'h' {
			continue
		}
		level := int(target[1] - '0')
		if level >= 1 && level <= 6 {
			mapping[name] = level
		}
	}
	return mapping
}

func parseStyles(zr *zip.Reader) map[string]styleInfo {
	styles := make(map[string]styleInfo)
	data, err := ooxml.ReadFileFromZip(zr, "word/styles.xml")
	if err != nil {
		return styles
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var currentStyleID string
	var inStyle bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if local == "style" {
				inStyle = true
				for _, attr := range t.Attr {
					if attr.Name.Local == "styleId" {
						currentStyleID = attr.Value
					}
				}
			} else if inStyle && local == "name" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						styles[currentStyleID] = styleInfo{
							name:    attr.Value,
							styleID: currentStyleID,
						}
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				inStyle = false
				currentStyleID = ""
			}
		}
	}
	return styles
}

func parseNumbering(zr *zip.Reader) map[string]numberingDef {
	numbering := make(map[string]numberingDef)
	data, err := ooxml.ReadFileFromZip(zr, "word/numbering.xml")
	if err != nil {
		return numbering
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var currentNumID string
	var inNum bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "num" {
				inNum = true
				for _, attr := range t.Attr {
					if attr.Name.Local == "numId" {
						currentNumID = attr.Value
					}
				}
			} else if inNum && t.Name.Local == "abstractNumId" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						numbering[currentNumID] = numberingDef{abstractNumID: attr.Value}
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "num" {
				inNum = false
			}
		}
	}
	return numbering
}

type docxComment struct {
	id     string
	author string
	text   string
}

func parseComments(zr *zip.Reader) map[string]docxComment {
	comments := make(map[string]docxComment)
	data, err := ooxml.ReadFileFromZip(zr, "word/comments.xml")
	if err != nil {
		return comments
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var current docxComment
	var inComment bool
	var textBuf strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "comment" {
				inComment = true
				textBuf.Reset()
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "id":
						current.id = attr.Value
					case "author":
						current.author = attr.Value
					}
				}
			}
		case xml.CharData:
			if inComment {
				textBuf.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "comment" && inComment {
				current.text = strings.TrimSpace(textBuf.String())
				comments[current.id] = current
				inComment = false
				current = docxComment{}
			}
		}
	}
	return comments
}

// documentToHTML converts the document.xml content to HTML.
func documentToHTML(docData []byte, rels map[string]ooxml.Relationship, numbering map[string]numberingDef, comments map[string]docxComment, styles map[string]styleInfo, styleMap map[string]int, zr *zip.Reader) string {
	var html strings.Builder
	html.WriteString("<html><body>")

	decoder := xml.NewDecoder(bytes.NewReader(docData))

	type state struct {
		inRun       bool
		inText      bool
		inTableCell bool
		bold        bool
		italic      bool
		underline   bool
		strike      bool
		styleID     string
		hyperRef    string
		inHyper     bool
		listNumID   string
		listLevel   int
		inList      bool
	}

	var s state
	var textBuf strings.Builder
	var paragraphs []string
	var currentPara strings.Builder
	var tableRows [][]string
	var currentRow []string
	var cellContent strings.Builder
	var commentRefs []string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			switch local {
			case "p":
				currentPara.Reset()
				s.bold = false
				s.italic = false
				s.underline = false
				s.strike = false
				s.styleID = ""
				s.listNumID = ""
				s.listLevel = 0
				s.inList = false
				commentRefs = nil

			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						s.styleID = attr.Value
					}
				}

			case "numPr":
				s.inList = true

			case "numId":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						s.listNumID = attr.Value
					}
				}

			case "ilvl":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						level := 0
						fmt.Sscanf(attr.Value, "%d", &level)
						s.listLevel = level
					}
				}

			case "r":
				s.inRun = true
				s.bold = false
				s.italic = false
				s.underline = false
				s.strike = false

			case "b":
				if s.inRun {
					s.bold = true
					// val="0" means explicitly not bold
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" && attr.Value == "0" {
							s.bold = false
						}
					}
				}

			case "i":
				if s.inRun {
					s.italic = true
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" && attr.Value == "0" {
							s.italic = false
						}
					}
				}

			case "u":
				if s.inRun {
					s.underline = true
				}

			case "strike":
				if s.inRun {
					s.strike = true
				}

			case "t":
				s.inText = true
				textBuf.Reset()

			case "tab":
				if s.inRun {
					currentPara.WriteString("\t")
				}

			case "br":
				if s.inRun {
					currentPara.WriteString("<br/>")
				}

			case "hyperlink":
				s.inHyper = true
				for _, attr := range t.Attr {
					if attr.Name.Space == ooxml.NSRelDoc && attr.Name.Local == "id" {
						if rel, ok := rels[attr.Value]; ok {
							s.hyperRef = rel.Target
						}
					}
				}

			case "tbl":
				tableRows = nil

			case "tr":
				currentRow = nil

			case "tc":
				s.inTableCell = true
				cellContent.Reset()

			case "commentReference":
				for _, attr := range t.Attr {
					if attr.Name.Local == "id" {
						commentRefs = append(commentRefs, attr.Value)
					}
				}

			case "drawing", "pict":
				imgData := extractDocxImage(decoder, rels, zr)
				if imgData != "" {
					if s.inTableCell {
						cellContent.WriteString(imgData)
					} else {
						currentPara.WriteString(imgData)
					}
				}
			}

		case xml.CharData:
			if s.inText {
				textBuf.Write(t)
			}

		case xml.EndElement:
			local := t.Name.Local
			switch local {
			case "t":
				if s.inText {
					text := escapeHTMLText(textBuf.String())

					if s.bold {
						text = "<b>" + text + "</b>"
					}
					if s.italic {
						text = "<i>" + text + "</i>"
					}
					if s.strike {
						text = "<s>" + text + "</s>"
					}

					if s.inHyper && s.hyperRef != "" {
						text = `<a href="` + escapeHTMLAttr(s.hyperRef) + `">` + text + "</a>"
					}

					if s.inTableCell {
						cellContent.WriteString(text)
					} else {
						currentPara.WriteString(text)
					}
					s.inText = false
				}

			case "r":
				s.inRun = false
				s.bold = false
				s.italic = false

			case "hyperlink":
				s.inHyper = false
				s.hyperRef = ""

			case "p":
				paraText := currentPara.String()

				for _, commentID := range commentRefs {
					if comment, ok := comments[commentID]; ok {
						paraText += fmt.Sprintf(" [comment by %s: %s]", comment.author, comment.text)
					}
				}

				if s.inTableCell {
					cellContent.WriteString(paraText)
				} else {
					level := docxHeadingLevel(s.styleID, styles, styleMap)

					if level > 0 {
						tag := fmt.Sprintf("h%d", level)
						paraText = "<" + tag + ">" + paraText + "</" + tag + ">"
					} else if s.inList && s.listNumID != "0" {
						paraText = "<li>" + paraText + "</li>"
					} else if paraText != "" {
						paraText = "<p>" + paraText + "</p>"
					}

					if paraText != "" {
						paragraphs = append(paragraphs, paraText)
					}
				}
				s.styleID = ""

			case "tc":
				currentRow = append(currentRow, cellContent.String())
				s.inTableCell = false

			case "tr":
				tableRows = append(tableRows, currentRow)

			case "tbl":
				if len(tableRows) > 0 {
					var tableBuf strings.Builder
					tableBuf.WriteString("<table>")
					for i, row := range tableRows {
						tableBuf.WriteString("<tr>")
						tag := "td"
						if i == 0 {
							tag = "th"
						}
						for _, cell := range row {
							tableBuf.WriteString("<" + tag + ">" + cell + "</" + tag + ">")
						}
						tableBuf.WriteString("</tr>")
					}
					tableBuf.WriteString("</table>")
					paragraphs = append(paragraphs, tableBuf.String())
				}
			}
		}
	}

	for _, p := range paragraphs {
		html.WriteString(p)
		html.WriteString("\n")
	}

	html.WriteString("</body></html>")
	return html.String()
}

// docxHeadingLevel returns the heading level (1-6) for a paragraph style.
// A caller-supplied style map takes precedence over the built-in
// "Heading N" conventions. Returns 0 for body styles.
func docxHeadingLevel(styleID string, styles map[string]styleInfo, styleMap map[string]int) int {
	if styleID == "" {
		return 0
	}

	lower := strings.ToLower(styleID)

	if level, ok := styleMap[lower]; ok {
		return level
	}
	if si, ok := styles[styleID]; ok {
		if level, ok := styleMap[strings.ToLower(si.name)]; ok {
			return level
		}
	}

	// Built-in patterns: "Heading1", "heading 1"
	for i := 1; i <= 6; i++ {
		if lower == fmt.Sprintf("heading%d", i) || lower == fmt.Sprintf("heading %d", i) {
			return i
		}
	}

	if si, ok := styles[styleID]; ok {
		nameLower := strings.ToLower(si.name)
		for i := 1; i <= 6; i++ {
			if nameLower == fmt.Sprintf("heading %d", i) {
				return i
			}
		}
	}

	return 0
}

// extractDocxImage consumes a drawing/pict element and renders any embedded
// image as an inline <img> with a data URI source.
func extractDocxImage(decoder *xml.Decoder, rels map[string]ooxml.Relationship, zr *zip.Reader) string {
	depth := 1
	var embedID string
	var altText string

	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			// blip carries the embedded image relationship ID
			if t.Name.Local == "blip" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "embed" {
						embedID = attr.Value
					}
				}
			}
			// docPr carries the alt text
			if t.Name.Local == "docPr" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "descr" {
						altText = attr.Value
					}
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if embedID == "" {
		return ""
	}

	rel, ok := rels[embedID]
	if !ok {
		return ""
	}

	imgPath := "word/" + rel.Target
	imgData, err := ooxml.ReadFileFromZip(zr, imgPath)
	if err != nil {
		imgData, err = ooxml.ReadFileFromZip(zr, rel.Target)
		if err != nil {
			return ""
		}
	}

	ext := strings.ToLower(path.Ext(rel.Target))
	contentType := "image/png"
	switch ext {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".gif":
		contentType = "image/gif"
	case ".bmp":
		contentType = "image/bmp"
	case ".svg":
		contentType = "image/svg+xml"
	}

	b64 := base64.StdEncoding.EncodeToString(imgData)
	src := fmt.Sprintf("data:%s;base64,%s", contentType, b64)

	if altText == "" {
		altText = path.Base(rel.Target)
	}

	return fmt.Sprintf(`<img src="%s" alt="%s"/>`, src, escapeHTMLAttr(altText))
}

func escapeHTMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeHTMLAttr(s string) string {
	s = escapeHTMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
