package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser turns every non-empty spreadsheet row into a section. With
// Column set, the row's cell under the header of that name is the text and
// the header row itself is skipped; otherwise all cells are joined.
type XLSXParser struct {
	Column string
}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx", "xlsm"} }

func (p *XLSXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var sections []Section
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		col, first := -1, 0
		if p.Column != "" && len(rows) > 0 {
			for i, h := range rows[0] {
				if strings.EqualFold(strings.TrimSpace(h), p.Column) {
					col = i
					break
				}
			}
			if col < 0 {
				return nil, fmt.Errorf("sheet %q has no column %q", sheet, p.Column)
			}
			first = 1
		}

		for i := first; i < len(rows); i++ {
			var text string
			if col >= 0 {
				if col < len(rows[i]) {
					text = strings.TrimSpace(rows[i][col])
				}
			} else {
				text = joinCells(rows[i])
			}
			if text == "" {
				continue
			}
			sections = append(sections, Section{
				Heading: sheet,
				Content: text,
				Row:     i + 1,
				Type:    "row",
				Metadata: map[string]string{
					"sheet_name": sheet,
				},
			})
		}
	}

	return &ParseResult{
		Sections: sections,
		Method:   "native",
	}, nil
}

func joinCells(row []string) string {
	var cells []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return strings.Join(cells, " ")
}
