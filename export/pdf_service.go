package export

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"rapidreport/report"
)

// PDFService renders report models to PDF using maroto. The PPTX renderer
// is the primary artifact; PDF is the print-friendly alternate.
type PDFService struct{}

// NewPDFService creates a new PDF render service
func NewPDFService() *PDFService {
	return &PDFService{}
}

var (
	pdfBlue  = &props.Color{Red: 59, Green: 130, Blue: 246}
	pdfDark  = &props.Color{Red: 30, Green: 64, Blue: 175}
	pdfGray  = &props.Color{Red: 100, Green: 116, Blue: 139}
	pdfBlack = &props.Color{Red: 51, Green: 65, Blue: 85}
)

// RenderReport serializes a report model into PDF bytes.
func (s *PDFService) RenderReport(rm *report.Model) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithDefaultFont(&props.Font{
			Family: fontfamily.Arial,
			Size:   10,
		}).
		Build()

	m := maroto.New(cfg)

	for _, spec := range rm.Slides {
		switch spec.Kind {
		case report.SlideTitle:
			s.addTitle(m, rm, spec)
		case report.SlideTable:
			s.addTable(m, spec)
		case report.SlideChart:
			s.addChart(m, spec)
		case report.SlideSummary:
			s.addSummary(m, spec)
		default:
			return nil, &InvariantError{Kind: string(spec.Kind)}
		}
	}

	document, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return document.GetBytes(), nil
}

func (s *PDFService) addTitle(m core.Maroto, rm *report.Model, spec report.SlideSpec) {
	m.AddRow(20,
		col.New(12).Add(
			text.New(spec.Title, props.Text{
				Family: fontfamily.Arial,
				Size:   18,
				Style:  fontstyle.Bold,
				Align:  align.Center,
				Color:  pdfBlue,
			}),
		),
	)
	if spec.Subtitle != "" {
		m.AddRow(8,
			col.New(12).Add(
				text.New("Source: "+spec.Subtitle, props.Text{
					Family: fontfamily.Arial,
					Size:   10,
					Align:  align.Center,
					Color:  pdfGray,
				}),
			),
		)
	}
	m.AddRow(8,
		col.New(12).Add(
			text.New(fmt.Sprintf("Generated: %s", rm.GeneratedAt.Format("2006-01-02 15:04")), props.Text{
				Family: fontfamily.Arial,
				Size:   9,
				Align:  align.Center,
				Color:  pdfGray,
			}),
		),
	)
	m.AddRow(5)
}

func (s *PDFService) sectionHeading(m core.Maroto, heading string) {
	m.AddRow(10,
		col.New(12).Add(
			text.New(heading, props.Text{
				Family: fontfamily.Arial,
				Size:   13,
				Style:  fontstyle.Bold,
				Color:  pdfDark,
			}),
		),
	)
}

func (s *PDFService) addTable(m core.Maroto, spec report.SlideSpec) {
	s.sectionHeading(m, spec.Title)

	m.AddRow(7,
		col.New(12).Add(
			text.New(strings.Join(spec.Columns, "  |  "), props.Text{
				Family: fontfamily.Arial,
				Size:   9,
				Style:  fontstyle.Bold,
				Color:  pdfBlack,
			}),
		),
	)
	for _, row := range spec.Rows {
		m.AddRow(6,
			col.New(12).Add(
				text.New(strings.Join(row, "  |  "), props.Text{
					Family: fontfamily.Arial,
					Size:   9,
					Color:  pdfBlack,
				}),
			),
		)
	}
	m.AddRow(4)
}

func (s *PDFService) addChart(m core.Maroto, spec report.SlideSpec) {
	heading := spec.Title
	if spec.Subtitle != "" {
		heading = fmt.Sprintf("%s / %s", spec.Title, spec.Subtitle)
	}
	s.sectionHeading(m, heading)

	for _, bar := range spec.Bars {
		m.AddRow(6,
			col.New(12).Add(
				text.New(chartBarLine(bar), props.Text{
					Family: fontfamily.Arial,
					Size:   9,
					Color:  pdfBlack,
				}),
			),
		)
	}
	m.AddRow(4)
}

// chartBarLine prints one bar as a proportional rule; maroto has no
// primitive shape API like the slide renderer. The rule must stay within
// cp1252, the encoding of the core fonts, so plain '#' runs are used.
func chartBarLine(bar report.BarSpec) string {
	blocks := int(bar.Fraction * 30)
	if blocks < 1 {
		blocks = 1
	}
	return fmt.Sprintf("%-24s %s %s", bar.Label, strings.Repeat("#", blocks), bar.Display)
}

func (s *PDFService) addSummary(m core.Maroto, spec report.SlideSpec) {
	s.sectionHeading(m, spec.Title)

	for _, total := range spec.Totals {
		m.AddRow(7,
			col.New(6).Add(
				text.New("Total "+total.Role, props.Text{
					Family: fontfamily.Arial,
					Size:   10,
					Color:  pdfBlack,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("%s (%d values)", total.Display, total.Count), props.Text{
					Family: fontfamily.Arial,
					Size:   10,
					Style:  fontstyle.Bold,
					Align:  align.Right,
					Color:  pdfDark,
				}),
			),
		)
	}
	m.AddRow(7,
		col.New(12).Add(
			text.New(fmt.Sprintf("%d data rows", spec.RowCount), props.Text{
				Family: fontfamily.Arial,
				Size:   9,
				Align:  align.Right,
				Color:  pdfGray,
			}),
		),
	)
}
