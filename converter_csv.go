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
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// csvConverter renders CSV files as a Markdown table with the first record
// as the header row.
type csvConverter struct{}

func newCSVConverter() *csvConverter {
	return &csvConverter{}
}

func (c *csvConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".csv"
}

func (c *csvConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	text := decodeText(data, ctx.Charset)

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1 // allow ragged rows
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}

	if len(records) == 0 {
		return &DocumentConverterResult{Markdown: ""}, nil
	}

	return &DocumentConverterResult{Markdown: renderMarkdownTable(records)}, nil
}

// renderMarkdownTable renders rows as a Markdown table. Column count follows
// the header; short rows are padded with empty cells, long rows truncated.
func renderMarkdownTable(records [][]string) string {
	if len(records) == 0 {
		return ""
	}

	numCols := len(records[0])

	var b strings.Builder

	b.WriteString("| ")
	for i := 0; i < numCols; i++ {
		if i < len(records[0]) {
			b.WriteString(records[0][i])
		}
		b.WriteString(" | ")
	}
	b.WriteString("\n")

	b.WriteString("| ")
	for i := 0; i < numCols; i++ {
		b.WriteString("---")
		b.WriteString(" | ")
	}
	b.WriteString("\n")

	for _, row := range records[1:] {
		b.WriteString("| ")
		for i := 0; i < numCols; i++ {
			if i < len(row) {
				b.WriteString(row[i])
			}
			b.WriteString(" | ")
		}
		b.WriteString("\n")
	}

	return b.String()
}
