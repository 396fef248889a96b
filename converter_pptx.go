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
	"encoding/xml"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/markifyhq/markify/internal/ooxml"
)

// pptxConverter converts PowerPoint decks slide by slide. Shapes are ordered
// top-to-bottom then left-to-right; titles become H1, tables go through the
// HTML pipeline, charts are flattened to a category-by-series table, and
// speaker notes follow each slide.
type pptxConverter struct{}

func newPPTXConverter() *pptxConverter {
	return &pptxConverter{}
}

func (c *pptxConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".pptx"
}

func (c *pptxConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	zrc, err := zip.OpenReader(localPath)
	if err != nil {
		return nil, fmt.Errorf("open PPTX ZIP: %w", err)
	}
	defer zrc.Close()
	zr := &zrc.Reader

	slideOrder, err := getSlideOrder(zr)
	if err != nil {
		return nil, fmt.Errorf("get slide order: %w", err)
	}

	var md strings.Builder

	for slideNum, slidePath := range slideOrder {
		fmt.Fprintf(&md, "\n\n<!-- Slide number: %d -->\n", slideNum+1)

		slideData, err := ooxml.ReadFileFromZip(zr, slidePath)
		if err != nil {
			continue
		}

		md.WriteString(parseSlide(slideData, slidePath, zr, ctx.Engine))

		notesPath := getNotesPath(slidePath, zr)
		if notesPath != "" {
			notesData, err := ooxml.ReadFileFromZip(zr, notesPath)
			if err == nil {
				notes := extractNotesText(notesData)
				if strings.TrimSpace(notes) != "" {
					md.WriteString("\n\n### Notes:\n")
					md.WriteString(notes)
				}
			}
		}
	}

	return &DocumentConverterResult{
		Markdown: strings.TrimSpace(md.String()),
	}, nil
}

// getSlideOrder returns slide file paths in presentation order, falling back
// to lexical order of ppt/slides/*.xml when the rels are unusable.
func getSlideOrder(zr *zip.Reader) ([]string, error) {
	presData, err := ooxml.ReadFileFromZip(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}

	rels, _ := ooxml.ParseRelationships(zr, "ppt/_rels/presentation.xml.rels")

	decoder := xml.NewDecoder(bytes.NewReader(presData))
	var slideRIDs []string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local == "sldId" {
				for _, attr := range se.Attr {
					if attr.Name.Local == "id" && strings.Contains(attr.Name.Space, "relationships") {
						slideRIDs = append(slideRIDs, attr.Value)
					}
				}
			}
		}
	}

	var slidePaths []string
	for _, rid := range slideRIDs {
		if rel, ok := rels[rid]; ok {
			slidePaths = append(slidePaths, ooxml.ResolveTarget("ppt/presentation.xml", rel.Target))
		}
	}

	if len(slidePaths) == 0 {
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
				slidePaths = append(slidePaths, f.Name)
			}
		}
		sort.Strings(slidePaths)
	}

	return slidePaths, nil
}

type pptxShape struct {
	top     int64
	left    int64
	text    string
	isTitle bool
	isTable bool
	table   [][]string
	isPic   bool
	altText string
	picName string
	isChart bool
	chartID string
}

// parseSlide extracts shapes from a slide and formats them as markdown.
func parseSlide(slideData []byte, slidePath string, zr *zip.Reader, engine *MarkItDown) string {
	shapes := extractShapes(slideData)

	sort.SliceStable(shapes, func(i, j int) bool {
		if shapes[i].top != shapes[j].top {
			return shapes[i].top < shapes[j].top
		}
		return shapes[i].left < shapes[j].left
	})

	slideRels, _ := ooxml.ParseRelationships(zr, ooxml.RelsPathFor(slidePath))

	var md strings.Builder
	for _, shape := range shapes {
		switch {
		case shape.isPic:
			alt := shape.altText
			if alt == "" {
				alt = shape.picName
			}
			fmt.Fprintf(&md, "\n![%s](%s)\n", sanitizeAltText(alt), picturePlaceholder(shape.picName))
		case shape.isChart:
			md.WriteString(chartToMarkdown(zr, slidePath, slideRels, shape.chartID))
		case shape.isTable && len(shape.table) > 0:
			md.WriteString(tableToMarkdown(shape.table, engine))
		case shape.isTitle:
			text := strings.TrimSpace(shape.text)
			if text != "" {
				md.WriteString("# " + text + "\n")
			}
		case shape.text != "":
			md.WriteString(shape.text + "\n")
		}
	}

	return md.String()
}

var reNonWord = regexp.MustCompile(`\W`)

// picturePlaceholder builds a stand-in image target from the shape name,
// since the actual image bytes are not extracted.
func picturePlaceholder(shapeName string) string {
	return reNonWord.ReplaceAllString(shapeName, "") + ".jpg"
}

// sanitizeAltText cleans alt text for markdown image syntax.
func sanitizeAltText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "[", " ")
	s = strings.ReplaceAll(s, "]", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// extractShapes parses slide XML into a generic tree and collects shapes.
func extractShapes(slideData []byte) []pptxShape {
	var root xmlNode
	if err := xml.Unmarshal(slideData, &root); err != nil {
		return nil
	}

	var shapes []pptxShape
	walkShapeTree(&root, &shapes)
	return shapes
}

// xmlNode is a generic XML tree node.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Content  string     `xml:",chardata"`
}

func (n *xmlNode) getAttr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) findChild(local string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *xmlNode) findAll(local string) []*xmlNode {
	var result []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			result = append(result, &n.Children[i])
		}
	}
	return result
}

// findDeep finds the first descendant with the given local name.
func (n *xmlNode) findDeep(local string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
		if found := n.Children[i].findDeep(local); found != nil {
			return found
		}
	}
	return nil
}

// findAllDeep finds all descendants with the given local name.
func (n *xmlNode) findAllDeep(local string) []*xmlNode {
	var result []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			result = append(result, &n.Children[i])
		}
		result = append(result, n.Children[i].findAllDeep(local)...)
	}
	return result
}

// allText extracts all text content recursively.
func (n *xmlNode) allText() string {
	if n.Content != "" {
		return n.Content
	}
	var parts []string
	for i := range n.Children {
		if t := n.Children[i].allText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "")
}

// walkShapeTree walks the XML tree and extracts shapes.
func walkShapeTree(node *xmlNode, shapes *[]pptxShape) {
	switch node.XMLName.Local {
	case "sp":
		if shape := extractSP(node); shape != nil {
			*shapes = append(*shapes, *shape)
		}
	case "pic":
		if shape := extractPic(node); shape != nil {
			*shapes = append(*shapes, *shape)
		}
	case "graphicFrame":
		if shape := extractGraphicFrame(node); shape != nil {
			*shapes = append(*shapes, *shape)
		}
	default:
		// grpSp and everything else: recurse
		for i := range node.Children {
			walkShapeTree(&node.Children[i], shapes)
		}
	}
}

// extractSP extracts a text shape.
func extractSP(node *xmlNode) *pptxShape {
	shape := &pptxShape{
		top:  math.MaxInt64,
		left: math.MaxInt64,
	}

	if nvSpPr := node.findChild("nvSpPr"); nvSpPr != nil {
		if nvPr := nvSpPr.findChild("nvPr"); nvPr != nil {
			if ph := nvPr.findChild("ph"); ph != nil {
				phType := ph.getAttr("type")
				if phType == "title" || phType == "ctrTitle" {
					shape.isTitle = true
				}
			}
		}
	}

	extractPosition(node, shape)

	if txBody := node.findChild("txBody"); txBody != nil {
		shape.text = extractTextFromTxBody(txBody)
	}

	if strings.TrimSpace(shape.text) == "" {
		return nil
	}

	return shape
}

// extractPic extracts a picture element.
func extractPic(node *xmlNode) *pptxShape {
	shape := &pptxShape{
		top:   math.MaxInt64,
		left:  math.MaxInt64,
		isPic: true,
	}

	if nvPicPr := node.findChild("nvPicPr"); nvPicPr != nil {
		if cNvPr := nvPicPr.findChild("cNvPr"); cNvPr != nil {
			shape.altText = cNvPr.getAttr("descr")
			shape.picName = cNvPr.getAttr("name")
		}
	}

	extractPosition(node, shape)

	if shape.altText == "" && shape.picName == "" {
		return nil
	}

	return shape
}

// extractGraphicFrame extracts a graphic frame (tables and charts).
func extractGraphicFrame(node *xmlNode) *pptxShape {
	shape := &pptxShape{
		top:  math.MaxInt64,
		left: math.MaxInt64,
	}

	extractPosition(node, shape)

	if tbl := node.findDeep("tbl"); tbl != nil {
		shape.isTable = true
		shape.table = extractTable(tbl)
		if len(shape.table) > 0 {
			return shape
		}
		return nil
	}

	if chart := node.findDeep("chart"); chart != nil {
		for _, a := range chart.Attrs {
			if a.Name.Local == "id" && strings.Contains(a.Name.Space, "relationships") {
				shape.isChart = true
				shape.chartID = a.Value
				return shape
			}
		}
	}

	return nil
}

// extractPosition extracts position from spPr/xfrm/off (or xfrm/off for
// graphic frames).
func extractPosition(node *xmlNode, shape *pptxShape) {
	xfrm := node.findDeep("xfrm")
	if xfrm == nil {
		return
	}
	off := xfrm.findChild("off")
	if off == nil {
		return
	}
	if x := off.getAttr("x"); x != "" {
		var v int64
		fmt.Sscanf(x, "%d", &v)
		shape.left = v
	}
	if y := off.getAttr("y"); y != "" {
		var v int64
		fmt.Sscanf(y, "%d", &v)
		shape.top = v
	}
}

// extractTextFromTxBody extracts paragraph text from a txBody element.
func extractTextFromTxBody(txBody *xmlNode) string {
	var parts []string
	for _, p := range txBody.findAll("p") {
		var lineText []string
		for _, r := range p.findAllDeep("t") {
			if t := r.allText(); t != "" {
				lineText = append(lineText, t)
			}
		}
		if len(lineText) > 0 {
			parts = append(parts, strings.Join(lineText, ""))
		}
	}
	return strings.Join(parts, "\n")
}

// extractTable extracts a table from a tbl element.
func extractTable(tbl *xmlNode) [][]string {
	var rows [][]string
	for _, tr := range tbl.findAll("tr") {
		var row []string
		for _, tc := range tr.findAll("tc") {
			if txBody := tc.findChild("txBody"); txBody != nil {
				row = append(row, strings.TrimSpace(extractTextFromTxBody(txBody)))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// tableToMarkdown converts a 2D table to markdown through the HTML pipeline
// so cell content gets proper escaping, falling back to a plain table.
func tableToMarkdown(rows [][]string, engine *MarkItDown) string {
	if len(rows) == 0 {
		return ""
	}

	var htmlBuf strings.Builder
	htmlBuf.WriteString("<html><body><table>")
	for i, row := range rows {
		htmlBuf.WriteString("<tr>")
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		for _, cell := range row {
			htmlBuf.WriteString("<" + tag + ">" + escapeHTMLText(cell) + "</" + tag + ">")
		}
		htmlBuf.WriteString("</tr>")
	}
	htmlBuf.WriteString("</table></body></html>")

	md, err := convertHTMLFragment(engine, htmlBuf.String())
	if err != nil {
		return renderMarkdownTable(rows)
	}
	return strings.TrimSpace(md) + "\n"
}

// chartToMarkdown resolves a chart part by relationship ID and renders its
// cached plot data as a heading plus a category-by-series table.
func chartToMarkdown(zr *zip.Reader, slidePath string, slideRels map[string]ooxml.Relationship, chartID string) string {
	rel, ok := slideRels[chartID]
	if !ok {
		return ""
	}

	chartPath := ooxml.ResolveTarget(slidePath, rel.Target)
	data, err := ooxml.ReadFileFromZip(zr, chartPath)
	if err != nil {
		return ""
	}

	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return ""
	}

	heading := "Chart"
	if title := root.findDeep("title"); title != nil {
		if t := strings.TrimSpace(title.allText()); t != "" {
			heading = "Chart: " + t
		}
	}

	series := root.findAllDeep("ser")
	if len(series) == 0 {
		return ""
	}

	var categories []string
	names := make([]string, 0, len(series))
	values := make([][]string, 0, len(series))

	for i, ser := range series {
		name := fmt.Sprintf("Series %d", i+1)
		if tx := ser.findChild("tx"); tx != nil {
			if v := tx.findDeep("v"); v != nil && strings.TrimSpace(v.allText()) != "" {
				name = strings.TrimSpace(v.allText())
			}
		}
		names = append(names, name)

		// Categories come from the first series that has any.
		if len(categories) == 0 {
			if cat := ser.findChild("cat"); cat != nil {
				for _, pt := range cat.findAllDeep("pt") {
					if v := pt.findChild("v"); v != nil {
						categories = append(categories, strings.TrimSpace(v.allText()))
					}
				}
			}
		}

		var vals []string
		if val := ser.findChild("val"); val != nil {
			for _, pt := range val.findAllDeep("pt") {
				if v := pt.findChild("v"); v != nil {
					vals = append(vals, strings.TrimSpace(v.allText()))
				}
			}
		}
		values = append(values, vals)
	}

	if len(categories) == 0 {
		return ""
	}

	rows := [][]string{append([]string{"Category"}, names...)}
	for ci, cat := range categories {
		row := []string{cat}
		for si := range series {
			cell := ""
			if ci < len(values[si]) {
				cell = values[si][ci]
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}

	return "\n### " + heading + "\n\n" + renderMarkdownTable(rows) + "\n"
}

// getNotesPath returns the notes slide path for a given slide, if any.
func getNotesPath(slidePath string, zr *zip.Reader) string {
	rels, err := ooxml.ParseRelationships(zr, ooxml.RelsPathFor(slidePath))
	if err != nil {
		return ""
	}

	for _, rel := range rels {
		if strings.Contains(rel.Type, "notesSlide") {
			return ooxml.ResolveTarget(slidePath, rel.Target)
		}
	}
	return ""
}

// extractNotesText extracts text content from a notes slide.
func extractNotesText(data []byte) string {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return ""
	}

	var parts []string
	for _, txBody := range root.findAllDeep("txBody") {
		if text := strings.TrimSpace(extractTextFromTxBody(txBody)); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n")
}
