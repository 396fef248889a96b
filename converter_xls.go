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

	"github.com/extrame/xls"
)

// xlsConverter handles legacy binary Excel workbooks, one H2 plus Markdown
// table per non-empty sheet.
type xlsConverter struct{}

func newXLSConverter() *xlsConverter {
	return &xlsConverter{}
}

func (c *xlsConverter) Accepts(ctx ConversionContext) bool {
	return ctx.FileExtension == ".xls"
}

func (c *xlsConverter) Convert(localPath string, ctx ConversionContext) (*DocumentConverterResult, error) {
	wb, err := xls.Open(localPath, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open XLS: %w", err)
	}

	var md strings.Builder

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		var rows [][]string
		maxRow := int(sheet.MaxRow)
		for rowIdx := 0; rowIdx <= maxRow; rowIdx++ {
			row := sheet.Row(rowIdx)
			if row == nil {
				continue
			}

			var cells []string
			lastCol := row.LastCol()
			for colIdx := 0; colIdx < lastCol; colIdx++ {
				cells = append(cells, row.Col(colIdx))
			}
			rows = append(rows, cells)
		}

		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&md, "## %s\n", sheetName)
		md.WriteString(renderMarkdownTable(rows))
		md.WriteString("\n")
	}

	return &DocumentConverterResult{Markdown: md.String()}, nil
}
