package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rapidreport/schema"
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	ErrMalformedFile ErrorKind = "MalformedFile"
	ErrMissingColumn ErrorKind = "MissingColumn"
	ErrInvalidValue  ErrorKind = "InvalidValue"
)

// ValidationError is a user-input error: the uploaded file cannot be turned
// into a dataset. It carries enough detail to fix the source file.
type ValidationError struct {
	Kind   ErrorKind
	Role   string // role name for MissingColumn / InvalidValue
	Row    int    // 1-based data row index for InvalidValue
	Value  string // offending raw cell text for InvalidValue
	Detail string // free-form detail for MalformedFile
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMissingColumn:
		return fmt.Sprintf("missing required column for role %s", e.Role)
	case ErrInvalidValue:
		return fmt.Sprintf("invalid value %q for role %s at row %d", e.Value, e.Role, e.Row)
	default:
		return fmt.Sprintf("malformed file: %s", e.Detail)
	}
}

// Value is one typed cell, keyed in a Row by its role name.
type Value struct {
	Type   schema.ValueType
	Text   string
	Number float64
	Date   time.Time
}

// String renders the value the way slides display it.
func (v Value) String() string {
	switch v.Type {
	case schema.TypeNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case schema.TypeDate:
		return v.Date.Format("2006-01-02")
	default:
		return v.Text
	}
}

// Row maps role names to typed values. Optional roles with empty cells are
// simply absent.
type Row map[string]Value

// Dataset is the validated in-memory table. Invariant: every required role
// is present and type-conformant in every row, or construction failed as a
// whole. A header-only upload yields a dataset with zero rows.
type Dataset struct {
	Schema *schema.Definition
	Roles  []schema.RoleDefinition // mapped roles in header order
	Rows   []Row
	Source string // declared upload filename
}

// dateLayouts are tried in order when coercing a date cell.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
	time.RFC3339,
}

// Validate parses the raw upload into a table and enforces the schema's
// required-column and type constraints. The declared filename selects the
// parser (.csv, .xlsx, .xls). The input is read exactly once; any failure
// discards the whole file, no partial datasets.
func Validate(raw []byte, filename string, def *schema.Definition) (*Dataset, error) {
	var (
		grid [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", "":
		grid, err = parseCSV(raw)
	case ".xlsx":
		grid, err = parseXLSX(raw)
	case ".xls":
		grid, err = parseXLS(raw)
	default:
		return nil, &ValidationError{
			Kind:   ErrMalformedFile,
			Detail: fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)),
		}
	}
	if err != nil {
		return nil, err
	}
	return validateTable(grid, filename, def)
}

// validateTable maps the header through the schema registry and coerces
// every data row. Spreadsheet parsers may deliver rows shorter than the
// header (trailing empty cells are trimmed on read); those are padded here.
// Rows wider than the header are malformed.
func validateTable(grid [][]string, source string, def *schema.Definition) (*Dataset, error) {
	if len(grid) == 0 {
		return nil, &ValidationError{Kind: ErrMalformedFile, Detail: "file has no header row"}
	}

	header := grid[0]
	hasHeader := false
	for _, cell := range header {
		if strings.TrimSpace(cell) != "" {
			hasHeader = true
			break
		}
	}
	if !hasHeader {
		return nil, &ValidationError{Kind: ErrMalformedFile, Detail: "header row is empty"}
	}

	// Map header cells to roles. First occurrence wins on duplicates.
	type mappedRole struct {
		def schema.RoleDefinition
		col int
	}
	var mapped []mappedRole
	seen := make(map[string]bool)
	for i, cell := range header {
		role, ok := def.Lookup(strings.TrimSpace(cell))
		if !ok || seen[role.Role] {
			continue
		}
		seen[role.Role] = true
		mapped = append(mapped, mappedRole{def: role, col: i})
	}

	for _, req := range def.Required() {
		if !seen[req.Role] {
			return nil, &ValidationError{Kind: ErrMissingColumn, Role: req.Role}
		}
	}

	ds := &Dataset{
		Schema: def,
		Source: source,
		Rows:   make([]Row, 0, len(grid)-1),
	}
	for _, m := range mapped {
		ds.Roles = append(ds.Roles, m.def)
	}

	for ri, raw := range grid[1:] {
		rowNum := ri + 1 // 1-based data row index, as reported to the user
		if len(raw) > len(header) {
			return nil, &ValidationError{
				Kind:   ErrMalformedFile,
				Detail: fmt.Sprintf("row %d has %d columns, header has %d", rowNum, len(raw), len(header)),
			}
		}
		if len(raw) < len(header) {
			padded := make([]string, len(header))
			copy(padded, raw)
			raw = padded
		}

		row := make(Row, len(mapped))
		for _, m := range mapped {
			cell := strings.TrimSpace(raw[m.col])
			if cell == "" {
				if m.def.Required && m.def.Type != schema.TypeText {
					return nil, &ValidationError{
						Kind:  ErrInvalidValue,
						Role:  m.def.Role,
						Row:   rowNum,
						Value: cell,
					}
				}
				if !m.def.Required {
					continue
				}
			}
			val, err := coerce(cell, m.def.Type)
			if err != nil {
				return nil, &ValidationError{
					Kind:  ErrInvalidValue,
					Role:  m.def.Role,
					Row:   rowNum,
					Value: cell,
				}
			}
			row[m.def.Role] = val
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

// coerce turns trimmed cell text into a typed value.
func coerce(cell string, t schema.ValueType) (Value, error) {
	switch t {
	case schema.TypeNumber:
		n, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: schema.TypeNumber, Text: cell, Number: n}, nil
	case schema.TypeDate:
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, cell); err == nil {
				return Value{Type: schema.TypeDate, Text: cell, Date: d}, nil
			}
		}
		return Value{}, fmt.Errorf("unrecognized date %q", cell)
	default:
		return Value{Type: schema.TypeText, Text: cell}, nil
	}
}
