package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first sheet of an xlsx workbook. Only the first sheet
// is considered; the report schema describes a single table.
func parseXLSX(raw []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ValidationError{
			Kind:   ErrMalformedFile,
			Detail: fmt.Sprintf("not parseable as xlsx: %v", err),
		}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ValidationError{Kind: ErrMalformedFile, Detail: "workbook has no sheets"}
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ValidationError{
			Kind:   ErrMalformedFile,
			Detail: fmt.Sprintf("failed to read sheet %q: %v", sheets[0], err),
		}
	}
	return grid, nil
}
