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
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxConverter renders each sheet of an XLSX workbook as an H2 heading
// followed by a Markdown table. Empty sheets are skipped.
type xlsxConverter struct{}

func newXLSXConverter() *xlsxConverter {
	return &xlsxConverter{}
}

func (c *xlsxConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".xlsx"
}

func (c *xlsxConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	f, err := excelize.OpenFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("open XLSX: %w", err)
	}
	defer f.Close()

	var md strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&md, "## %s\n", sheet)
		md.WriteString(renderMarkdownTable(rows))
		md.WriteString("\n")
	}

	return &DocumentConverterResult{Markdown: md.String()}, nil
}
