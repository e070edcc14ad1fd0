package export

import "fmt"

// Output formats accepted by Render.
const (
	FormatPPTX = "pptx"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// InvariantError reports a slide variant the renderer does not know. This
// is a programming defect, not bad input: it must be logged and must abort
// the request, never be reported as a user-input problem.
type InvariantError struct {
	Kind string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violation: unknown slide kind %q", e.Kind)
}
