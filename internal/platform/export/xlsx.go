package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"aper/internal/domain/evaluation"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const listSheet = "Evaluations"

var listHeaders = []string{"ID", "Employee", "Stage", "Status", "Due", "Submitted"}

// RenderXLSX writes list items to a single-sheet workbook.
func RenderXLSX(items []evaluation.ListItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", listSheet); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range listHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(listSheet, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(listSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for idx, item := range items {
		row := idx + 2
		submitted := ""
		if item.SubmittedAt != nil {
			submitted = item.SubmittedAt.Format("2006-01-02")
		}
		values := []any{item.ID, item.EmployeeName, string(item.Stage), string(item.Status), item.DueAt.Format("2006-01-02"), submitted}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetCellValue(listSheet, fmt.Sprintf("%s%d", col, row), v); err != nil {
				return nil, err
			}
		}
	}

	widths := []float64{38, 24, 24, 16, 12, 12}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(listSheet, col, col, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
