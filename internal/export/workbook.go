// Package export builds the office's xlsx downloads. Every sheet gets a bold white header row
// on a coloured fill and column widths sized to the longest value (capped at 50).
package export

import (
	"bytes"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxColWidth = 50

	blueFill  = "4472C4"
	greenFill = "27AE60"
)

type Sheet struct {
	Name       string
	HeaderFill string
	Headers    []string
	Rows       [][]interface{}
}

// Build writes sheets in order into a new workbook.
func Build(sheets ...Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, s); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.Name, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, s Sheet) error {
	fill := s.HeaderFill
	if fill == "" {
		fill = blueFill
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	widths := make([]int, len(s.Headers))
	for i, header := range s.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(s.Name, cell, header); err != nil {
			return err
		}
		widths[i] = utf8.RuneCountInString(header)
	}
	if len(s.Headers) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 1)
		last, _ := excelize.CoordinatesToCellName(len(s.Headers), 1)
		if err := f.SetCellStyle(s.Name, first, last, style); err != nil {
			return err
		}
	}

	for r, row := range s.Rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(s.Name, cell, value); err != nil {
				return err
			}
			if c < len(widths) {
				if n := utf8.RuneCountInString(fmt.Sprint(value)); n > widths[c] {
					widths[c] = n
				}
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(s.Name, col, col, float64(ColumnWidth(w))); err != nil {
			return err
		}
	}
	return nil
}

// ColumnWidth is min(longest + 2, 50).
func ColumnWidth(longest int) int {
	if longest+2 > maxColWidth {
		return maxColWidth
	}
	return longest + 2
}

// Write streams the workbook as an attachment.
func Write(w http.ResponseWriter, filename string, f *excelize.File) error {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, err = w.Write(buf.Bytes())
	return err
}

// Bytes renders the workbook, used by tests and tools.
func Bytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
