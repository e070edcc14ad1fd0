package export

import (
	"bytes"
	"fmt"

	ppt "github.com/VantageDataChat/GoPPT"

	"rapidreport/report"
)

// PPTService renders report models to PowerPoint using GoPPT (pure Go).
type PPTService struct{}

// NewPPTService creates a new PPT render service
func NewPPTService() *PPTService {
	return &PPTService{}
}

// Slide layout constants, 16:9 widescreen.
const (
	emuPerInch = 914400

	// page margins (EMU)
	pptMarginLeft = int64(0.4 * emuPerInch)

	// content area (EMU)
	pptContentWidth = int64(9.2 * emuPerInch)
	pptSlideWidth   = int64(10.0 * emuPerInch)

	// font sizes (pt)
	pptFontTitle     = 36
	pptFontSubtitle  = 20
	pptFontHeading   = 28
	pptFontSmall     = 12
	pptFontTableHead = 11
	pptFontTableCell = 10
	pptFontFooter    = 9

	// pagination limits per native slide
	maxTableRowsPerSlide = 14
	maxTableCols         = 6
	maxBarsPerSlide      = 10
)

// helper: create a solid fill
func solidFill(argb string) *ppt.Fill {
	return ppt.NewFill().SetSolid(ppt.NewColor(argb))
}

// helper: set paragraph alignment to center
func alignCenter(p *ppt.Paragraph) {
	p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
}

// helper: set paragraph alignment to right
func alignRight(p *ppt.Paragraph) {
	p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalRight))
}

// RenderReport serializes a report model into PPTX bytes. Each SlideSpec
// variant maps to a native layout; an unknown variant is an internal
// invariant violation, never a user-input error.
func (s *PPTService) RenderReport(m *report.Model) ([]byte, error) {
	p := ppt.New()
	p.GetDocumentProperties().Title = m.Title
	p.GetDocumentProperties().Creator = "RapidReport"

	first := true
	nextSlide := func() *ppt.Slide {
		if first {
			first = false
			return p.GetActiveSlide()
		}
		return p.CreateSlide()
	}

	for _, spec := range m.Slides {
		switch spec.Kind {
		case report.SlideTitle:
			s.addTitleSlide(nextSlide(), m, spec)
		case report.SlideTable:
			s.addTableSlides(nextSlide, spec)
		case report.SlideChart:
			s.addChartSlides(nextSlide, spec)
		case report.SlideSummary:
			s.addSummarySlide(nextSlide(), spec)
		default:
			return nil, &InvariantError{Kind: string(spec.Kind)}
		}
	}

	w, err := ppt.NewWriter(p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("failed to create PPT writer: %w", err)
	}

	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to save PPT: %w", err)
	}

	return buf.Bytes(), nil
}

// addTitleSlide renders the opening slide: decor bars, report title, source
// file subtitle and the stamped generation time.
func (s *PPTService) addTitleSlide(slide *ppt.Slide, m *report.Model, spec report.SlideSpec) {
	topBar := slide.CreateRichTextShape()
	topBar.SetOffsetX(0).SetOffsetY(0)
	topBar.SetWidth(pptSlideWidth).SetHeight(int64(0.15 * emuPerInch))
	topBar.SetFill(solidFill("FF3B82F6"))

	titleShape := slide.CreateRichTextShape()
	titleShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(1.6 * emuPerInch))
	titleShape.SetWidth(pptContentWidth).SetHeight(int64(1.0 * emuPerInch))
	tr := titleShape.CreateTextRun(spec.Title)
	tr.GetFont().SetSize(pptFontTitle).SetBold(true).SetColor(ppt.NewColor("FF1E40AF"))
	alignCenter(titleShape.GetActiveParagraph())

	if spec.Subtitle != "" {
		srcShape := slide.CreateRichTextShape()
		srcShape.SetOffsetX(int64(1.0 * emuPerInch)).SetOffsetY(int64(2.8 * emuPerInch))
		srcShape.SetWidth(int64(8.0 * emuPerInch)).SetHeight(int64(0.8 * emuPerInch))
		srcShape.SetFill(solidFill("FFF8FAFC"))
		srcTr := srcShape.CreateTextRun("Source: " + spec.Subtitle)
		srcTr.GetFont().SetSize(pptFontSubtitle).SetColor(ppt.NewColor("FF475569"))
		alignCenter(srcShape.GetActiveParagraph())
	}

	// The timestamp comes from the model, not the clock, so rendering a
	// given model stays deterministic.
	tsShape := slide.CreateRichTextShape()
	tsShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(4.0 * emuPerInch))
	tsShape.SetWidth(pptContentWidth).SetHeight(int64(0.4 * emuPerInch))
	tsTr := tsShape.CreateTextRun(m.GeneratedAt.Format("2006-01-02 15:04"))
	tsTr.GetFont().SetSize(pptFontSmall).SetColor(ppt.NewColor("FF94A3B8"))
	alignCenter(tsShape.GetActiveParagraph())

	footerShape := slide.CreateRichTextShape()
	footerShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(4.8 * emuPerInch))
	footerShape.SetWidth(pptContentWidth).SetHeight(int64(0.3 * emuPerInch))
	ftTr := footerShape.CreateTextRun("Generated by RapidReport")
	ftTr.GetFont().SetSize(pptFontFooter).SetColor(ppt.NewColor("FF94A3B8"))
	alignCenter(footerShape.GetActiveParagraph())

	bottomBar := slide.CreateRichTextShape()
	bottomBar.SetOffsetX(0).SetOffsetY(int64(5.5 * emuPerInch))
	bottomBar.SetWidth(pptSlideWidth).SetHeight(int64(0.125 * emuPerInch))
	bottomBar.SetFill(solidFill("FF3B82F6"))
}

// addSlideHeader adds a consistent header to content slides
func (s *PPTService) addSlideHeader(slide *ppt.Slide, title string) {
	topBar := slide.CreateRichTextShape()
	topBar.SetOffsetX(0).SetOffsetY(0)
	topBar.SetWidth(pptSlideWidth).SetHeight(int64(0.08 * emuPerInch))
	topBar.SetFill(solidFill("FF3B82F6"))

	titleShape := slide.CreateRichTextShape()
	titleShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(0.3 * emuPerInch))
	titleShape.SetWidth(pptContentWidth).SetHeight(int64(0.6 * emuPerInch))
	tr := titleShape.CreateTextRun(title)
	tr.GetFont().SetSize(pptFontHeading).SetBold(true).SetColor(ppt.NewColor("FF1E40AF"))
}

// addTableSlides renders one table spec, paginating across native slides
// when the group exceeds the per-slide row limit.
func (s *PPTService) addTableSlides(nextSlide func() *ppt.Slide, spec report.SlideSpec) {
	cols := spec.Columns
	colsTruncated := len(cols) > maxTableCols
	if colsTruncated {
		cols = cols[:maxTableCols]
	}

	totalRows := len(spec.Rows)
	if totalRows == 0 {
		s.createTableSlide(nextSlide(), spec.Title, cols, nil, 1, 0, 0, 0, colsTruncated)
		return
	}

	slideNum := 1
	for start := 0; start < totalRows; start += maxTableRowsPerSlide {
		end := start + maxTableRowsPerSlide
		if end > totalRows {
			end = totalRows
		}
		s.createTableSlide(nextSlide(), spec.Title, cols, spec.Rows[start:end],
			slideNum, start, end, totalRows, colsTruncated)
		slideNum++
	}
}

// createTableSlide creates a single table slide
func (s *PPTService) createTableSlide(slide *ppt.Slide, title string, cols []string, rows [][]string, slideNum, startRow, endRow, totalRows int, colsTruncated bool) {
	if slideNum > 1 {
		title = fmt.Sprintf("%s (page %d)", title, slideNum)
	}
	s.addSlideHeader(slide, title)

	tableStartY := 1.0
	tableWidth := 9.2
	colWidth := tableWidth / float64(len(cols))
	headerHeight := 0.35
	rowHeight := 0.28

	headerShape := slide.CreateRichTextShape()
	headerShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(tableStartY * emuPerInch))
	headerShape.SetWidth(int64(tableWidth * emuPerInch)).SetHeight(int64(headerHeight * emuPerInch))
	headerShape.SetFill(solidFill("FF3B82F6"))

	headerText := ""
	for i, col := range cols {
		if i > 0 {
			headerText += "    │    "
		}
		headerText += clipCell(col, colWidth)
	}
	headerTr := headerShape.CreateTextRun(headerText)
	headerTr.GetFont().SetSize(pptFontTableHead).SetBold(true).SetColor(ppt.ColorWhite)
	alignCenter(headerShape.GetActiveParagraph())

	currentY := tableStartY + headerHeight
	for rowIdx, rowData := range rows {
		rowShape := slide.CreateRichTextShape()
		rowShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(currentY * emuPerInch))
		rowShape.SetWidth(int64(tableWidth * emuPerInch)).SetHeight(int64(rowHeight * emuPerInch))

		if rowIdx%2 == 0 {
			rowShape.SetFill(solidFill("FFF8FAFC"))
		} else {
			rowShape.SetFill(solidFill("FFF1F5F9"))
		}

		rowText := ""
		for i := 0; i < len(cols) && i < len(rowData); i++ {
			if i > 0 {
				rowText += "    │    "
			}
			rowText += clipCell(rowData[i], colWidth)
		}
		rowTr := rowShape.CreateTextRun(rowText)
		rowTr.GetFont().SetSize(pptFontTableCell).SetColor(ppt.NewColor("FF334155"))
		alignCenter(rowShape.GetActiveParagraph())

		currentY += rowHeight
	}

	if totalRows > 0 {
		infoShape := slide.CreateRichTextShape()
		infoShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(5.2 * emuPerInch))
		infoShape.SetWidth(pptContentWidth).SetHeight(int64(0.25 * emuPerInch))

		infoText := fmt.Sprintf("rows %d-%d of %d", startRow+1, endRow, totalRows)
		if colsTruncated {
			infoText += " (columns truncated)"
		}
		infoTr := infoShape.CreateTextRun(infoText)
		infoTr.GetFont().SetSize(pptFontFooter).SetColor(ppt.NewColor("FF94A3B8"))
		alignRight(infoShape.GetActiveParagraph())
	}
}

// addChartSlides renders one chart spec as horizontal bars, paginated.
func (s *PPTService) addChartSlides(nextSlide func() *ppt.Slide, spec report.SlideSpec) {
	title := spec.Title
	if spec.Subtitle != "" {
		title = fmt.Sprintf("%s / %s", spec.Title, spec.Subtitle)
	}

	bars := spec.Bars
	if len(bars) == 0 {
		s.addSlideHeader(nextSlide(), title)
		return
	}

	slideNum := 1
	for start := 0; start < len(bars); start += maxBarsPerSlide {
		end := start + maxBarsPerSlide
		if end > len(bars) {
			end = len(bars)
		}
		pageTitle := title
		if slideNum > 1 {
			pageTitle = fmt.Sprintf("%s (page %d)", title, slideNum)
		}
		s.createChartSlide(nextSlide(), pageTitle, bars[start:end])
		slideNum++
	}
}

// createChartSlide draws labelled bars whose width follows the pre-scaled
// fraction carried by the model.
func (s *PPTService) createChartSlide(slide *ppt.Slide, title string, bars []report.BarSpec) {
	s.addSlideHeader(slide, title)

	labelWidth := 2.0
	maxBarWidth := 5.8
	startY := 1.1
	barHeight := 0.32
	gap := 0.1

	for i, bar := range bars {
		y := startY + float64(i)*(barHeight+gap)

		labelShape := slide.CreateRichTextShape()
		labelShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(y * emuPerInch))
		labelShape.SetWidth(int64(labelWidth * emuPerInch)).SetHeight(int64(barHeight * emuPerInch))
		labelTr := labelShape.CreateTextRun(bar.Label)
		labelTr.GetFont().SetSize(pptFontSmall).SetColor(ppt.NewColor("FF334155"))

		width := bar.Fraction * maxBarWidth
		if width < 0.05 {
			width = 0.05
		}
		barShape := slide.CreateRichTextShape()
		barShape.SetOffsetX(int64((0.5 + labelWidth) * emuPerInch)).SetOffsetY(int64(y * emuPerInch))
		barShape.SetWidth(int64(width * emuPerInch)).SetHeight(int64(barHeight * emuPerInch))
		barShape.SetFill(solidFill("FF3B82F6"))

		valueShape := slide.CreateRichTextShape()
		valueShape.SetOffsetX(int64((0.6 + labelWidth + width) * emuPerInch)).SetOffsetY(int64(y * emuPerInch))
		valueShape.SetWidth(int64(1.2 * emuPerInch)).SetHeight(int64(barHeight * emuPerInch))
		valueTr := valueShape.CreateTextRun(bar.Display)
		valueTr.GetFont().SetSize(pptFontSmall).SetBold(true).SetColor(ppt.NewColor("FF1E40AF"))
	}
}

// addSummarySlide renders the aggregate totals in a metric grid.
func (s *PPTService) addSummarySlide(slide *ppt.Slide, spec report.SlideSpec) {
	s.addSlideHeader(slide, spec.Title)

	cols := 3
	if len(spec.Totals) <= 4 {
		cols = 2
	}

	startY := 1.1
	startX := 0.4
	spacing := 0.15
	boxWidth := (9.2 - float64(cols-1)*spacing) / float64(cols)
	boxHeight := 1.4

	for i, total := range spec.Totals {
		row := i / cols
		col := i % cols

		x := startX + float64(col)*(boxWidth+spacing)
		y := startY + float64(row)*(boxHeight+spacing)

		box := slide.CreateRichTextShape()
		box.SetOffsetX(int64(x * emuPerInch)).SetOffsetY(int64(y * emuPerInch))
		box.SetWidth(int64(boxWidth * emuPerInch)).SetHeight(int64(boxHeight * emuPerInch))
		box.SetFill(solidFill("FFF8FAFC"))

		titleTr := box.CreateTextRun("Total " + total.Role)
		titleTr.GetFont().SetSize(pptFontSmall).SetColor(ppt.NewColor("FF64748B"))
		alignCenter(box.GetActiveParagraph())

		box.CreateParagraph()
		valueTr := box.CreateTextRun(total.Display)
		valueTr.GetFont().SetSize(28).SetBold(true).SetColor(ppt.NewColor("FF1E40AF"))
		alignCenter(box.GetActiveParagraph())

		box.CreateParagraph()
		countTr := box.CreateTextRun(fmt.Sprintf("%d values", total.Count))
		countTr.GetFont().SetSize(pptFontSmall).SetColor(ppt.NewColor("FF64748B"))
		alignCenter(box.GetActiveParagraph())
	}

	footShape := slide.CreateRichTextShape()
	footShape.SetOffsetX(pptMarginLeft).SetOffsetY(int64(5.0 * emuPerInch))
	footShape.SetWidth(pptContentWidth).SetHeight(int64(0.3 * emuPerInch))
	footTr := footShape.CreateTextRun(fmt.Sprintf("%d data rows", spec.RowCount))
	footTr.GetFont().SetSize(pptFontFooter).SetColor(ppt.NewColor("FF94A3B8"))
	alignRight(footShape.GetActiveParagraph())
}

// clipCell truncates cell text to what fits in a column of the given width.
func clipCell(text string, colWidth float64) string {
	runes := []rune(text)
	maxLen := int(colWidth * 3.5)
	if maxLen < 12 {
		maxLen = 12
	}
	if len(runes) > maxLen {
		return string(runes[:maxLen-2]) + ".."
	}
	return text
}
