package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"golang.org/x/text/encoding/charmap"
)

// parseXLS reads the first sheet of a legacy BIFF workbook.
func parseXLS(raw []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return nil, &ValidationError{
			Kind:   ErrMalformedFile,
			Detail: fmt.Sprintf("not parseable as xls: %v", err),
		}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &ValidationError{Kind: ErrMalformedFile, Detail: "workbook has no sheets"}
	}

	var grid [][]string
	for ri := 0; ri <= int(sheet.MaxRow); ri++ {
		row := sheet.Row(ri)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		last := row.LastCol()
		cells := make([]string, last)
		for c := row.FirstCol(); c < last; c++ {
			cells[c] = xlsToUTF8(row.Col(c))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// xlsToUTF8 repairs cell text from workbooks written with a single-byte
// codepage. Valid UTF-8 passes through untouched.
func xlsToUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "�")
	}
	return decoded
}
