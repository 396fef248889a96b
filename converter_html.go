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
	"os"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// htmlConverter turns HTML documents into Markdown. Other converters reuse
// its string entry point for HTML fragments they synthesize (slide tables,
// chapter bodies).
type htmlConverter struct {
	keepDataURIs bool
}

func newHTMLConverter(keepDataURIs bool) *htmlConverter {
	return &htmlConverter{keepDataURIs: keepDataURIs}
}

func (c *htmlConverter) Accepts(ctx ConversionContext) bool {
	switch ctx.FileExtension {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

func (c *htmlConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return c.convertString(decodeText(data, ctx.Charset))
}

// convertString converts an HTML string to Markdown.
func (c *htmlConverter) convertString(htmlStr string) (*DocumentConverterResult, error) {
	title := extractHTMLTitle(htmlStr)

	// Script and style bodies would otherwise leak into the output as text.
	htmlStr = removeScriptAndStyle(htmlStr)

	md, err := convertHTMLToMarkdown(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("convert HTML to markdown: %w", err)
	}

	if !c.keepDataURIs {
		md = truncateDataURIs(md)
	}

	return &DocumentConverterResult{
		Markdown: md,
		Title:    title,
	}, nil
}

// convertHTMLToMarkdown runs html-to-markdown with ATX headings and table
// support.
func convertHTMLToMarkdown(htmlStr string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
			table.NewTablePlugin(),
		),
	)

	return conv.ConvertString(htmlStr)
}

var (
	reScript  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	reStyle   = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	reDataURI = regexp.MustCompile(`(data:[a-zA-Z0-9/+.-]+;base64,)[A-Za-z0-9+/=]{64,}`)
)

// removeScriptAndStyle removes <script> and <style> tags and their content.
func removeScriptAndStyle(htmlStr string) string {
	htmlStr = reScript.ReplaceAllString(htmlStr, "")
	htmlStr = reStyle.ReplaceAllString(htmlStr, "")
	return htmlStr
}

// truncateDataURIs shortens large base64 data URIs to data:mime/type;base64...
func truncateDataURIs(md string) string {
	return reDataURI.ReplaceAllString(md, "${1}...")
}

// extractHTMLTitle extracts the <title> text from an HTML document.
func extractHTMLTitle(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var title string
	var findTitle func(*html.Node)
	findTitle = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findTitle(c)
			if title != "" {
				return
			}
		}
	}
	findTitle(doc)

	return strings.TrimSpace(title)
}

// convertHTMLFragment is the shared helper nested-format converters use to
// turn synthesized HTML into Markdown through the engine's HTML settings.
func convertHTMLFragment(engine *MarkItDown, fragment string) (string, error) {
	keep := false
	if engine != nil {
		keep = engine.keepDataURIs
	}
	res, err := (&htmlConverter{keepDataURIs: keep}).convertString(fragment)
	if err != nil {
		return "", err
	}
	return res.Markdown, nil
}
