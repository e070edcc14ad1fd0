package export

import (
	"bytes"
	"fmt"

	gospreadsheet "github.com/VantageDataChat/GoExcel"

	"rapidreport/report"
)

// ExcelService renders report models to an Excel workbook using GoExcel
// (pure Go): one sheet per group table plus a summary sheet.
type ExcelService struct{}

// NewExcelService creates a new Excel render service
func NewExcelService() *ExcelService {
	return &ExcelService{}
}

func excelHeaderStyle() *gospreadsheet.Style {
	return gospreadsheet.NewStyle().
		SetFont(&gospreadsheet.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
			Name:  "Calibri",
		}).
		SetFill(&gospreadsheet.Fill{
			Type:  "solid",
			Color: "4472C4",
		}).
		SetAlignment(&gospreadsheet.Alignment{
			Horizontal: gospreadsheet.AlignCenter,
			Vertical:   gospreadsheet.AlignMiddle,
		})
}

func excelDataStyle() *gospreadsheet.Style {
	return gospreadsheet.NewStyle().
		SetFont(&gospreadsheet.Font{
			Size: 10,
			Name: "Calibri",
		}).
		SetAlignment(&gospreadsheet.Alignment{
			Horizontal: gospreadsheet.AlignLeft,
			Vertical:   gospreadsheet.AlignMiddle,
		})
}

// RenderReport serializes a report model into XLSX bytes. Chart slides are
// written as label/value tables; a workbook has no slide geometry.
func (s *ExcelService) RenderReport(m *report.Model) ([]byte, error) {
	wb := gospreadsheet.New()

	headerStyle := excelHeaderStyle()
	dataStyle := excelDataStyle()

	sheetIndex := 0
	usedNames := make(map[string]bool)
	nextSheet := func(name string) (*gospreadsheet.Worksheet, error) {
		name = sheetName(name, usedNames)
		if sheetIndex == 0 {
			sheetIndex++
			ws := wb.GetActiveSheet()
			ws.SetTitle(name)
			return ws, nil
		}
		sheetIndex++
		return wb.AddSheet(name)
	}

	for _, spec := range m.Slides {
		switch spec.Kind {
		case report.SlideTitle:
			// The workbook title lives in document properties, not a sheet.
		case report.SlideTable:
			ws, err := nextSheet(spec.Title)
			if err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", spec.Title, err)
			}
			if err := writeGrid(ws, spec.Columns, spec.Rows, headerStyle, dataStyle); err != nil {
				return nil, err
			}
		case report.SlideChart:
			ws, err := nextSheet(spec.Title)
			if err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", spec.Title, err)
			}
			rows := make([][]string, 0, len(spec.Bars))
			for _, bar := range spec.Bars {
				rows = append(rows, []string{bar.Label, bar.Display})
			}
			if err := writeGrid(ws, []string{"Label", spec.Subtitle}, rows, headerStyle, dataStyle); err != nil {
				return nil, err
			}
		case report.SlideSummary:
			ws, err := nextSheet(spec.Title)
			if err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", spec.Title, err)
			}
			rows := make([][]string, 0, len(spec.Totals)+1)
			for _, total := range spec.Totals {
				rows = append(rows, []string{"Total " + total.Role, total.Display, fmt.Sprintf("%d", total.Count)})
			}
			rows = append(rows, []string{"Data rows", fmt.Sprintf("%d", spec.RowCount), ""})
			if err := writeGrid(ws, []string{"Aggregate", "Value", "Count"}, rows, headerStyle, dataStyle); err != nil {
				return nil, err
			}
		default:
			return nil, &InvariantError{Kind: string(spec.Kind)}
		}
	}

	wb.Properties.Title = m.Title
	wb.Properties.Creator = "RapidReport"
	wb.Properties.Description = "Generated by RapidReport"

	var buf bytes.Buffer
	writer := gospreadsheet.NewXLSXWriter()
	if err := writer.Write(wb, &buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// writeGrid writes one header row plus data rows starting at A1.
func writeGrid(ws *gospreadsheet.Worksheet, cols []string, rows [][]string, headerStyle, dataStyle *gospreadsheet.Style) error {
	for i, col := range cols {
		cellName, err := gospreadsheet.CellName(0, i)
		if err != nil {
			return fmt.Errorf("failed to address header cell %d: %w", i, err)
		}
		ws.SetCellValue(cellName, col)
		ws.SetCellStyle(cellName, headerStyle)

		width := float64(len([]rune(col))) * 2.5
		if width < 12 {
			width = 12
		}
		if width > 60 {
			width = 60
		}
		ws.SetColumnWidth(i, width)
	}
	ws.SetRowHeight(0, 25)

	for rowIdx, rowData := range rows {
		for colIdx, cell := range rowData {
			cellName, err := gospreadsheet.CellName(rowIdx+1, colIdx)
			if err != nil {
				return fmt.Errorf("failed to address cell %d,%d: %w", rowIdx+1, colIdx, err)
			}
			ws.SetCellValue(cellName, cell)
			ws.SetCellStyle(cellName, dataStyle)
		}
	}

	ws.FreezePane("A2")
	return nil
}

// sheetName clips a group name to Excel's 31-char sheet limit and keeps it
// unique within the workbook.
func sheetName(name string, used map[string]bool) string {
	if name == "" {
		name = "Sheet"
	}
	runes := []rune(name)
	if len(runes) > 28 {
		name = string(runes[:28])
	}
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	used[candidate] = true
	return candidate
}
