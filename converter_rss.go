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
	"strings"

	"github.com/mmcdole/gofeed"
)

// rssConverter handles RSS and Atom feeds. It also volunteers for generic
// .xml inputs; non-feed XML fails to parse and dispatch moves on.
type rssConverter struct{}

func newRSSConverter() *rssConverter {
	return &rssConverter{}
}

func (c *rssConverter) Accepts(ctx ConversionContext) bool {
	switch ctx.FileExtension {
	case ".rss", ".atom", ".xml":
		return true
	}
	return false
}

func (c *rssConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var b strings.Builder
	title := feed.Title

	if feed.Title != "" {
		fmt.Fprintf(&b, "# %s\n", feed.Title)
	}
	if feed.Description != "" {
		fmt.Fprintf(&b, "%s\n", feed.Description)
	}
	b.WriteString("\n")

	for _, item := range feed.Items {
		if item.Title != "" {
			fmt.Fprintf(&b, "## %s\n", item.Title)
		}

		if item.Published != "" {
			fmt.Fprintf(&b, "Published: %s\n\n", item.Published)
		} else if item.Updated != "" {
			fmt.Fprintf(&b, "Updated: %s\n\n", item.Updated)
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content != "" {
			// Feed bodies are frequently HTML even when not declared as such.
			if strings.Contains(content, "<") && strings.Contains(content, ">") {
				if md, err := convertHTMLToMarkdown(content); err == nil {
					content = md
				}
			}
			b.WriteString(content)
			b.WriteString("\n")
		}

		b.WriteString("\n")
	}

	return &DocumentConverterResult{
		Markdown: b.String(),
		Title:    title,
	}, nil
}
