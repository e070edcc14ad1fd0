package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"rapidreport/ingest"
	"rapidreport/report"
	"rapidreport/schema"
)

func sampleModel(t *testing.T) *report.Model {
	t.Helper()
	csv := "Region,Revenue,Units\nEast,100,5\nWest,200,7\nEast,50,2\n"
	ds, err := ingest.Validate([]byte(csv), "sample.csv", schema.Default())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return report.Build(ds, report.Options{
		Now: func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) },
	})
}

func TestPPTService_RenderReport(t *testing.T) {
	data, err := NewPPTService().RenderReport(sampleModel(t))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty PPTX bytes")
	}
	// PPTX is a zip container.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("expected zip magic at start of PPTX output")
	}
}

func TestPPTService_RenderEmptyReport(t *testing.T) {
	ds, err := ingest.Validate([]byte("Region,Revenue\n"), "empty.csv", schema.Default())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	m := report.Build(ds, report.Options{})

	data, err := NewPPTService().RenderReport(m)
	if err != nil {
		t.Fatalf("render of empty dataset must succeed, got %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty PPTX bytes")
	}
}

func TestPPTService_RenderChartStyle(t *testing.T) {
	csv := "Region,Revenue\nEast,100\nEast,50\nWest,200\n"
	ds, err := ingest.Validate([]byte(csv), "chart.csv", schema.Default())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	m := report.Build(ds, report.Options{GroupStyle: report.GroupStyleChart})

	data, err := NewPPTService().RenderReport(m)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("expected zip magic at start of PPTX output")
	}
}

func TestPPTService_UnknownSlideKindIsInvariantViolation(t *testing.T) {
	m := sampleModel(t)
	m.Slides = append(m.Slides, report.SlideSpec{Kind: "hologram"})

	_, err := NewPPTService().RenderReport(m)
	var inv *InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
	if inv.Kind != "hologram" {
		t.Errorf("expected offending kind in error, got %q", inv.Kind)
	}
}

func TestPDFService_RenderReport(t *testing.T) {
	data, err := NewPDFService().RenderReport(sampleModel(t))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected PDF magic at start of output")
	}
}

func TestPDFService_RenderChartStyle(t *testing.T) {
	csv := "Region,Revenue\nEast,100\nWest,50\n"
	ds, err := ingest.Validate([]byte(csv), "chart.csv", schema.Default())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	m := report.Build(ds, report.Options{GroupStyle: report.GroupStyleChart})

	data, err := NewPDFService().RenderReport(m)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected PDF magic at start of output")
	}
}

func TestChartBarLine_StaysWithinCoreFontEncoding(t *testing.T) {
	// The core PDF fonts are cp1252; any rune above ASCII risks a
	// substitute glyph, so the bar rule must be plain ASCII.
	bars := []report.BarSpec{
		{Label: "East 1", Value: 100, Display: "100", Fraction: 1.0},
		{Label: "West 2", Value: 1, Display: "1", Fraction: 0.003},
	}
	for _, bar := range bars {
		line := chartBarLine(bar)
		for _, r := range line {
			if r > 127 {
				t.Fatalf("bar line contains non-ASCII rune %q: %s", r, line)
			}
		}
		if !strings.Contains(line, "#") {
			t.Errorf("expected at least one fill character, got %q", line)
		}
		if !strings.Contains(line, bar.Display) {
			t.Errorf("expected the value text in %q", line)
		}
	}
}

func TestPDFService_UnknownSlideKindIsInvariantViolation(t *testing.T) {
	m := sampleModel(t)
	m.Slides = append(m.Slides, report.SlideSpec{Kind: "hologram"})

	_, err := NewPDFService().RenderReport(m)
	var inv *InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
}

func TestExcelService_RenderReport(t *testing.T) {
	data, err := NewExcelService().RenderReport(sampleModel(t))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("expected zip magic at start of XLSX output")
	}
}

func TestSheetName_ClipsAndDeduplicates(t *testing.T) {
	used := make(map[string]bool)

	long := sheetName("A very long sheet name that exceeds the Excel limit", used)
	if len([]rune(long)) > 31 {
		t.Errorf("sheet name too long: %q", long)
	}

	a := sheetName("East", used)
	b := sheetName("East", used)
	if a == b {
		t.Errorf("expected deduplicated names, got %q twice", a)
	}
	if sheetName("", used) == "" {
		t.Error("empty input must still produce a name")
	}
}
