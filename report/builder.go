package report

import (
	"fmt"
	"time"

	"rapidreport/ingest"
	"rapidreport/schema"
)

// SlideKind tags a SlideSpec variant.
type SlideKind string

const (
	SlideTitle   SlideKind = "title"
	SlideTable   SlideKind = "table"
	SlideChart   SlideKind = "chart"
	SlideSummary SlideKind = "summary"
)

// GroupStyle selects how a category group is laid out.
const (
	GroupStyleTable = "table"
	GroupStyleChart = "chart"
)

// BarSpec is one bar of a chart slide: a label with its metric value,
// pre-scaled against the largest value on the slide.
type BarSpec struct {
	Label    string
	Value    float64
	Display  string  // formatted value text
	Fraction float64 // 0..1 of the slide's largest bar
}

// TotalSpec is one aggregate line of the summary slide.
type TotalSpec struct {
	Role    string
	Sum     float64
	Count   int // rows carrying a value for this role
	Display string
}

// SlideSpec describes one output slide prior to rendering. Kind selects the
// variant; only the fields of that variant are populated.
type SlideSpec struct {
	Kind     SlideKind
	Title    string
	Subtitle string

	// table and chart slides
	Category string
	Columns  []string
	Rows     [][]string
	Bars     []BarSpec

	// summary slide
	Totals   []TotalSpec
	RowCount int
}

// Model is the ordered slide sequence for one report. Built once per
// request, immutable thereafter. GeneratedAt is the only wall-clock content
// and is excluded from equality in tests.
type Model struct {
	Title       string
	Source      string
	GeneratedAt time.Time
	Slides      []SlideSpec
}

// Options tune the builder. Zero values fall back to defaults.
type Options struct {
	Title      string // report title; default "Business Review Report"
	GroupStyle string // GroupStyleTable (default) or GroupStyleChart
	Now        func() time.Time
}

// Build transforms a validated dataset into a report model. It is total
// over the validated domain: zero rows yield a title slide plus a summary
// slide with zero-valued aggregates, and it never fails.
func Build(ds *ingest.Dataset, opts Options) *Model {
	title := opts.Title
	if title == "" {
		title = "Business Review Report"
	}
	style := opts.GroupStyle
	if style != GroupStyleChart {
		style = GroupStyleTable
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	m := &Model{
		Title:       title,
		Source:      ds.Source,
		GeneratedAt: now(),
	}

	m.Slides = append(m.Slides, SlideSpec{
		Kind:     SlideTitle,
		Title:    title,
		Subtitle: ds.Source,
	})

	metricRoles := ds.Schema.MetricRoles()

	// Group by the category role in first-seen order. Rows with an empty
	// category fall into "Unknown", placed where first encountered, so the
	// source ordering stays deterministic.
	if catRole, ok := ds.Schema.CategoryRole(); ok {
		var order []string
		groups := make(map[string][]ingest.Row)
		for _, row := range ds.Rows {
			cat := row[catRole.Role].Text
			if cat == "" {
				cat = "Unknown"
			}
			if _, seen := groups[cat]; !seen {
				order = append(order, cat)
			}
			groups[cat] = append(groups[cat], row)
		}

		for _, cat := range order {
			if style == GroupStyleChart {
				m.Slides = append(m.Slides, buildChartSlide(cat, groups[cat], metricRoles))
			} else {
				m.Slides = append(m.Slides, buildTableSlide(cat, groups[cat], ds.Roles))
			}
		}
	} else if len(ds.Rows) > 0 {
		// No category role: one table slide over the whole dataset.
		m.Slides = append(m.Slides, buildTableSlide("All Rows", ds.Rows, ds.Roles))
	}

	m.Slides = append(m.Slides, buildSummarySlide(ds, metricRoles))
	return m
}

func buildTableSlide(category string, rows []ingest.Row, roles []schema.RoleDefinition) SlideSpec {
	spec := SlideSpec{
		Kind:     SlideTable,
		Title:    category,
		Category: category,
	}
	for _, role := range roles {
		spec.Columns = append(spec.Columns, role.Role)
	}
	for _, row := range rows {
		cells := make([]string, 0, len(roles))
		for _, role := range roles {
			if v, ok := row[role.Role]; ok {
				cells = append(cells, v.String())
			} else {
				cells = append(cells, "")
			}
		}
		spec.Rows = append(spec.Rows, cells)
	}
	return spec
}

// buildChartSlide renders one bar per row, using the first metric role as
// the bar value. Bars are scaled against the group's largest value.
func buildChartSlide(category string, rows []ingest.Row, metricRoles []schema.RoleDefinition) SlideSpec {
	spec := SlideSpec{
		Kind:     SlideChart,
		Title:    category,
		Category: category,
	}
	if len(metricRoles) == 0 {
		return spec
	}
	metric := metricRoles[0]
	spec.Subtitle = metric.Role

	max := 0.0
	for _, row := range rows {
		if v, ok := row[metric.Role]; ok && v.Number > max {
			max = v.Number
		}
	}
	for i, row := range rows {
		v, ok := row[metric.Role]
		if !ok {
			continue
		}
		frac := 0.0
		if max > 0 {
			frac = v.Number / max
		}
		spec.Bars = append(spec.Bars, BarSpec{
			Label:    fmt.Sprintf("%s %d", category, i+1),
			Value:    v.Number,
			Display:  v.String(),
			Fraction: frac,
		})
	}
	return spec
}

func buildSummarySlide(ds *ingest.Dataset, metricRoles []schema.RoleDefinition) SlideSpec {
	spec := SlideSpec{
		Kind:     SlideSummary,
		Title:    "Summary",
		RowCount: len(ds.Rows),
	}
	for _, role := range metricRoles {
		total := TotalSpec{Role: role.Role}
		for _, row := range ds.Rows {
			if v, ok := row[role.Role]; ok {
				total.Sum += v.Number
				total.Count++
			}
		}
		total.Display = ingest.Value{Type: schema.TypeNumber, Number: total.Sum}.String()
		spec.Totals = append(spec.Totals, total)
	}
	return spec
}
