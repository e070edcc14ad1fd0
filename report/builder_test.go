package report

import (
	"reflect"
	"testing"
	"time"

	"rapidreport/ingest"
	"rapidreport/schema"
)

func mustDataset(t *testing.T, csv string) *ingest.Dataset {
	t.Helper()
	ds, err := ingest.Validate([]byte(csv), "test.csv", schema.Default())
	if err != nil {
		t.Fatalf("dataset construction failed: %v", err)
	}
	return ds
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestBuild_SlideSequence(t *testing.T) {
	ds := mustDataset(t, "Region,Revenue\nEast,100\nWest,200\n")
	m := Build(ds, Options{Now: fixedNow})

	if len(m.Slides) != 4 {
		t.Fatalf("expected 4 slides (title, 2 groups, summary), got %d", len(m.Slides))
	}
	if m.Slides[0].Kind != SlideTitle {
		t.Errorf("expected title slide first, got %s", m.Slides[0].Kind)
	}
	if m.Slides[1].Category != "East" || m.Slides[2].Category != "West" {
		t.Errorf("expected groups in first-seen order East, West; got %s, %s",
			m.Slides[1].Category, m.Slides[2].Category)
	}
	last := m.Slides[len(m.Slides)-1]
	if last.Kind != SlideSummary {
		t.Errorf("expected summary slide last, got %s", last.Kind)
	}
	if last.Totals[0].Role != "Revenue" || last.Totals[0].Sum != 300 {
		t.Errorf("expected Revenue total 300, got %s=%v", last.Totals[0].Role, last.Totals[0].Sum)
	}
}

func TestBuild_FirstSeenOrderNotSorted(t *testing.T) {
	ds := mustDataset(t, "Region,Revenue\nZulu,1\nAlpha,2\nZulu,3\n")
	m := Build(ds, Options{Now: fixedNow})

	if len(m.Slides) != 4 {
		t.Fatalf("expected 4 slides, got %d", len(m.Slides))
	}
	if m.Slides[1].Category != "Zulu" || m.Slides[2].Category != "Alpha" {
		t.Errorf("groups must keep source order, got %s then %s",
			m.Slides[1].Category, m.Slides[2].Category)
	}
	if len(m.Slides[1].Rows) != 2 {
		t.Errorf("expected 2 rows in Zulu group, got %d", len(m.Slides[1].Rows))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	csv := "Region,Revenue,Units\nEast,100,5\nWest,200,7\nEast,50,1\n"
	a := Build(mustDataset(t, csv), Options{})
	b := Build(mustDataset(t, csv), Options{})

	// Equality up to the generation timestamp.
	a.GeneratedAt = time.Time{}
	b.GeneratedAt = time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Error("two builds over equal datasets must produce equal models")
	}
}

func TestBuild_ZeroRows(t *testing.T) {
	ds := mustDataset(t, "Region,Revenue\n")
	m := Build(ds, Options{Now: fixedNow})

	if len(m.Slides) != 2 {
		t.Fatalf("expected title + summary, got %d slides", len(m.Slides))
	}
	summary := m.Slides[1]
	if summary.Kind != SlideSummary {
		t.Fatalf("expected summary slide, got %s", summary.Kind)
	}
	if summary.RowCount != 0 {
		t.Errorf("expected row count 0, got %d", summary.RowCount)
	}
	for _, total := range summary.Totals {
		if total.Sum != 0 || total.Count != 0 {
			t.Errorf("expected zero-valued aggregate for %s, got sum=%v count=%d",
				total.Role, total.Sum, total.Count)
		}
	}
}

func TestBuild_SingleRow(t *testing.T) {
	ds := mustDataset(t, "Region,Revenue\nNorth,42.5\n")
	m := Build(ds, Options{Now: fixedNow})

	if len(m.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(m.Slides))
	}
	summary := m.Slides[2]
	if summary.Totals[0].Sum != 42.5 {
		t.Errorf("expected total 42.5, got %v", summary.Totals[0].Sum)
	}
	if summary.Totals[0].Display != "42.5" {
		t.Errorf("expected display 42.5, got %q", summary.Totals[0].Display)
	}
}

func TestBuild_EmptyCategoryFallsIntoUnknown(t *testing.T) {
	ds := mustDataset(t, "Region,Revenue\nEast,100\n,50\nWest,25\n")
	m := Build(ds, Options{Now: fixedNow})

	if len(m.Slides) != 5 {
		t.Fatalf("expected 5 slides, got %d", len(m.Slides))
	}
	if m.Slides[2].Category != "Unknown" {
		t.Errorf("expected Unknown group where first encountered, got %s", m.Slides[2].Category)
	}
}

func TestBuild_ChartStyle(t *testing.T) {
	ds := mustDataset(t, "Region,Revenue\nEast,100\nEast,50\nWest,200\n")
	m := Build(ds, Options{GroupStyle: GroupStyleChart, Now: fixedNow})

	east := m.Slides[1]
	if east.Kind != SlideChart {
		t.Fatalf("expected chart slide, got %s", east.Kind)
	}
	if len(east.Bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(east.Bars))
	}
	if east.Bars[0].Fraction != 1.0 {
		t.Errorf("largest bar must scale to 1.0, got %v", east.Bars[0].Fraction)
	}
	if east.Bars[1].Fraction != 0.5 {
		t.Errorf("expected fraction 0.5, got %v", east.Bars[1].Fraction)
	}
}

func TestBuild_TableSlideCells(t *testing.T) {
	ds := mustDataset(t, "Region,Revenue,Owner\nEast,100,Ana\n")
	m := Build(ds, Options{Now: fixedNow})

	table := m.Slides[1]
	if got := table.Columns; len(got) != 3 || got[0] != "Region" || got[1] != "Revenue" || got[2] != "Owner" {
		t.Fatalf("unexpected columns %v", got)
	}
	if got := table.Rows[0]; got[0] != "East" || got[1] != "100" || got[2] != "Ana" {
		t.Errorf("unexpected cells %v", got)
	}
}
