package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseCSV reads the whole upload as comma-separated text. Excel exports
// prefix a UTF-8 BOM which is stripped before parsing. Ragged rows are a
// MalformedFile error; the reader's field-count check enforces that.
func parseCSV(raw []byte) ([][]string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	grid, err := reader.ReadAll()
	if err != nil {
		detail := "not parseable as CSV"
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			if errors.Is(parseErr.Err, csv.ErrFieldCount) {
				detail = fmt.Sprintf("row %d has an inconsistent column count", parseErr.Line-1)
			} else {
				detail = fmt.Sprintf("parse error at line %d: %v", parseErr.Line, parseErr.Err)
			}
		}
		return nil, &ValidationError{Kind: ErrMalformedFile, Detail: detail}
	}
	return grid, nil
}
