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
	"path"
	"strings"

	"github.com/markifyhq/markify/internal/ooxml"
)

// epubConverter renders an EPUB as its Dublin Core metadata followed by the
// spine's HTML chapters in reading order.
type epubConverter struct{}

func newEpubConverter() *epubConverter {
	return &epubConverter{}
}

func (c *epubConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".epub"
}

func (c *epubConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	zrc, err := zip.OpenReader(localPath)
	if err != nil {
		return nil, fmt.Errorf("open EPUB ZIP: %w", err)
	}
	defer zrc.Close()
	zr := &zrc.Reader

	opfPath, err := findOPFPath(zr)
	if err != nil {
		return nil, fmt.Errorf("find OPF: %w", err)
	}

	metadata, manifest, spine, err := parseOPF(zr, opfPath)
	if err != nil {
		return nil, fmt.Errorf("parse OPF: %w", err)
	}

	var md strings.Builder

	if metadata.title != "" {
		fmt.Fprintf(&md, "# %s\n\n", metadata.title)
	}
	if len(metadata.authors) > 0 {
		fmt.Fprintf(&md, "**Authors:** %s\n\n", strings.Join(metadata.authors, ", "))
	}
	if metadata.language != "" {
		fmt.Fprintf(&md, "**Language:** %s\n\n", metadata.language)
	}
	if metadata.publisher != "" {
		fmt.Fprintf(&md, "**Publisher:** %s\n\n", metadata.publisher)
	}
	if metadata.date != "" {
		fmt.Fprintf(&md, "**Date:** %s\n\n", metadata.date)
	}
	if metadata.description != "" {
		fmt.Fprintf(&md, "**Description:** %s\n\n", metadata.description)
	}

	opfDir := path.Dir(opfPath)

	for _, itemRef := range spine {
		item, ok := manifest[itemRef]
		if !ok {
			continue
		}

		filePath := item.href
		if opfDir != "." && !strings.HasPrefix(filePath, "/") {
			filePath = opfDir + "/" + filePath
		}

		fileData, err := ooxml.ReadFileFromZip(zr, filePath)
		if err != nil {
			continue
		}

		ext := strings.ToLower(path.Ext(filePath))
		isHTML := ext == ".html" || ext == ".htm" || ext == ".xhtml" ||
			strings.Contains(item.mediaType, "html") || strings.Contains(item.mediaType, "xhtml")
		if !isHTML {
			continue
		}

		chapter, err := convertHTMLFragment(ctx.Engine, string(fileData))
		if err == nil && strings.TrimSpace(chapter) != "" {
			md.WriteString(chapter)
			md.WriteString("\n\n")
		}
	}

	return &DocumentConverterResult{
		Markdown: md.String(),
		Title:    metadata.title,
	}, nil
}

type epubMetadata struct {
	title       string
	authors     []string
	language    string
	publisher   string
	date        string
	description string
	identifier  string
}

type manifestItem struct {
	id        string
	href      string
	mediaType string
}

// findOPFPath locates the package document via META-INF/container.xml.
func findOPFPath(zr *zip.Reader) (string, error) {
	data, err := ooxml.ReadFileFromZip(zr, "META-INF/container.xml")
	if err != nil {
		return "", err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local == "rootfile" {
				for _, attr := range se.Attr {
					if attr.Name.Local == "full-path" {
						return attr.Value, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("rootfile not found in container.xml")
}

// parseOPF extracts metadata, the manifest and the spine from the package
// document.
func parseOPF(zr *zip.Reader, opfPath string) (epubMetadata, map[string]manifestItem, []string, error) {
	data, err := ooxml.ReadFileFromZip(zr, opfPath)
	if err != nil {
		return epubMetadata{}, nil, nil, err
	}

	var meta epubMetadata
	manifest := make(map[string]manifestItem)
	var spine []string

	decoder := xml.NewDecoder(bytes.NewReader(data))

	var inMetadata bool
	var currentTag string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "metadata":
				inMetadata = true

			case "title", "creator", "language", "publisher", "date", "description", "identifier":
				if inMetadata {
					currentTag = t.Name.Local
				}

			case "item":
				var item manifestItem
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "id":
						item.id = attr.Value
					case "href":
						item.href = attr.Value
					case "media-type":
						item.mediaType = attr.Value
					}
				}
				if item.id != "" {
					manifest[item.id] = item
				}

			case "itemref":
				for _, attr := range t.Attr {
					if attr.Name.Local == "idref" {
						spine = append(spine, attr.Value)
					}
				}
			}

		case xml.CharData:
			if inMetadata {
				text := strings.TrimSpace(string(t))
				if text == "" {
					continue
				}
				switch currentTag {
				case "title":
					meta.title = text
				case "creator":
					if text != "" {
						meta.authors = append(meta.authors, text)
					}
				case "language":
					meta.language = text
				case "publisher":
					meta.publisher = text
				case "date":
					meta.date = text
				case "description":
					meta.description = text
				case "identifier":
					meta.identifier = text
				}
			}

		case xml.EndElement:
			if t.Name.Local == "metadata" {
				inMetadata = false
			}
			currentTag = ""
		}
	}

	return meta, manifest, spine, nil
}
