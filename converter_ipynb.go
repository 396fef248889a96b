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
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ipynbConverter handles Jupyter notebooks: markdown cells pass through,
// code cells become fenced blocks tagged with the kernel language, and text
// outputs follow their cell as plain fenced blocks.
type ipynbConverter struct{}

func newIpynbConverter() *ipynbConverter {
	return &ipynbConverter{}
}

func (c *ipynbConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".ipynb"
}

type notebook struct {
	Metadata notebookMetadata `json:"metadata"`
	Cells    []notebookCell   `json:"cells"`
}

type notebookMetadata struct {
	KernelSpec *kernelSpec `json:"kernelspec"`
}

type kernelSpec struct {
	Language string `json:"language"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
	Outputs  []cellOutput    `json:"outputs"`
}

type cellOutput struct {
	OutputType string                     `json:"output_type"`
	Text       json.RawMessage            `json:"text"`
	Data       map[string]json.RawMessage `json:"data"`
}

func (c *ipynbConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook JSON: %w", err)
	}

	language := "python"
	if nb.Metadata.KernelSpec != nil && nb.Metadata.KernelSpec.Language != "" {
		language = nb.Metadata.KernelSpec.Language
	}

	var sections []string
	var title string

	for _, cell := range nb.Cells {
		source := parseCellSource(cell.Source)

		switch cell.CellType {
		case "markdown":
			sections = append(sections, source)
			// First H1 in a markdown cell becomes the document title.
			if title == "" {
				for _, line := range strings.Split(source, "\n") {
					line = strings.TrimSpace(line)
					if strings.HasPrefix(line, "# ") {
						title = strings.TrimPrefix(line, "# ")
						break
					}
				}
			}

		case "code":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, fmt.Sprintf("```%s\n%s\n```", language, source))
			}
			for _, output := range cell.Outputs {
				if text := parseOutputText(output); text != "" {
					sections = append(sections, fmt.Sprintf("```\n%s\n```", text))
				}
			}

		case "raw":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, fmt.Sprintf("```\n%s\n```", source))
			}
		}
	}

	return &DocumentConverterResult{
		Markdown: strings.Join(sections, "\n\n"),
		Title:    title,
	}, nil
}

// parseCellSource handles both encodings the notebook format allows: a
// single string or an array of line strings.
func parseCellSource(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return strings.Join(arr, "")
	}
	return ""
}

// parseOutputText extracts text output from a cell output.
func parseOutputText(output cellOutput) string {
	if output.Text != nil {
		if text := parseCellSource(output.Text); text != "" {
			return strings.TrimRight(text, "\n")
		}
	}
	if raw, ok := output.Data["text/plain"]; ok {
		if text := parseCellSource(raw); text != "" {
			return strings.TrimRight(text, "\n")
		}
	}
	return ""
}
