package report

import (
	"context"
	"errors"
	"testing"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// recordingSink logs calls and can fail on demand.
type recordingSink struct {
	calls    []string
	capacity int
	used     int
	failOn   string
}

var errSinkFull = errors.New("sink rejected write")

func (s *recordingSink) Heading(h Heading) error {
	if s.failOn == "heading" {
		return errSinkFull
	}
	s.calls = append(s.calls, "heading:"+h.Title)
	s.used++
	return nil
}

func (s *recordingSink) Table(t *Table) error {
	if s.failOn == "table" {
		return errSinkFull
	}
	s.calls = append(s.calls, "table:"+t.Title)
	s.used += len(t.Rows)
	return nil
}

func (s *recordingSink) Overflowed() bool { return s.capacity > 0 && s.used >= s.capacity }

func (s *recordingSink) PageBreak() error {
	s.calls = append(s.calls, "break")
	s.used = 0
	return nil
}

func staticTable(title string, rows int) TableBuilder {
	return TableFunc(func(context.Context) (*Table, error) {
		if rows == 0 {
			return nil, nil
		}
		t := &Table{Title: title, Header: []string{"a"}}
		for i := 0; i < rows; i++ {
			t.Rows = append(t.Rows, []string{"x"})
		}
		return t, nil
	})
}

func equalCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want %v", got, want)
		}
	}
}

func TestAssembleSkipsEmptySections(t *testing.T) {
	sink := &recordingSink{}
	a := NewAssembler(sink)
	err := a.Assemble(context.Background(), []Section{
		{Title: "empty", Tables: []TableBuilder{staticTable("none", 0)}},
		{Title: "full", Tables: []TableBuilder{staticTable("t1", 2), staticTable("none", 0)}},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	equalCalls(t, sink.calls, "heading:full", "table:t1")
	if a.Emitted() != 1 {
		t.Errorf("Emitted() = %d, want 1", a.Emitted())
	}
}

func TestAssembleNothingEmitted(t *testing.T) {
	sink := &recordingSink{}
	err := NewAssembler(sink).Assemble(context.Background(), []Section{
		{Title: "empty", Tables: []TableBuilder{staticTable("none", 0)}},
	})
	if !errors.Is(err, domain.ErrNoMatchingRows) {
		t.Fatalf("err = %v, want ErrNoMatchingRows", err)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("sink received %v for an empty result", sink.calls)
	}
}

func TestAssembleBreaksOnOverflow(t *testing.T) {
	sink := &recordingSink{capacity: 5}
	err := NewAssembler(sink).Assemble(context.Background(), []Section{
		{Title: "one", Tables: []TableBuilder{staticTable("big", 6), staticTable("next", 1)}},
		{Title: "two", Tables: []TableBuilder{staticTable("small", 1)}},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	equalCalls(t, sink.calls,
		"heading:one", "table:big", "break", "table:next",
		"heading:two", "table:small",
	)
}

func TestAssembleHeadingNeverStartsOnFullPage(t *testing.T) {
	sink := &recordingSink{capacity: 3, used: 3}
	err := NewAssembler(sink).Assemble(context.Background(), []Section{
		{Title: "one", Tables: []TableBuilder{staticTable("t1", 1)}},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	equalCalls(t, sink.calls, "break", "heading:one", "table:t1")
}

func TestAssembleSinkErrorPropagates(t *testing.T) {
	sink := &recordingSink{failOn: "table"}
	err := NewAssembler(sink).Assemble(context.Background(), []Section{
		{Title: "one", Tables: []TableBuilder{staticTable("t", 1)}},
	})
	if err != errSinkFull {
		t.Fatalf("err = %v, want the sink error unmodified", err)
	}
}

func TestComposeDetails(t *testing.T) {
	detail := func(id string, active bool) Detail {
		return Detail{
			EntityID: id,
			Build: func(context.Context) ([]Section, bool) {
				if !active {
					return nil, false
				}
				return []Section{
					{Title: id + " empty", Tables: []TableBuilder{staticTable("none", 0)}},
					{Title: id, Tables: []TableBuilder{staticTable(id + " rows", 1)}},
				}, true
			},
		}
	}
	c := Composition{
		Global:  []Section{{Title: "summary", Tables: []TableBuilder{staticTable("board", 2)}}},
		Details: []Detail{detail("S1", true), detail("S2", false), detail("S3", true)},
	}

	sink := &recordingSink{}
	if err := NewAssembler(sink).Compose(context.Background(), c); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	equalCalls(t, sink.calls,
		"heading:summary", "table:board",
		"break", "heading:S1", "table:S1 rows",
		"break", "heading:S3", "table:S3 rows",
	)

	c.SummaryOnly = true
	sink = &recordingSink{}
	if err := NewAssembler(sink).Compose(context.Background(), c); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	equalCalls(t, sink.calls, "heading:summary", "table:board")
}

func TestComposeStopsBetweenSections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := Composition{
		Global: []Section{{Title: "summary", Tables: []TableBuilder{staticTable("board", 1)}}},
		Details: []Detail{{
			EntityID: "S1",
			Build: func(context.Context) ([]Section, bool) {
				cancel()
				return []Section{{Title: "S1", Tables: []TableBuilder{staticTable("rows", 1)}}}, true
			},
		}},
	}
	sink := &recordingSink{}
	err := NewAssembler(sink).Compose(ctx, c)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	equalCalls(t, sink.calls, "heading:summary", "table:board")
}

func TestDocumentSinkPagination(t *testing.T) {
	doc := &Document{}
	sink := NewDocumentSink(doc, 4)
	if err := sink.PageBreak(); err != nil || len(doc.Blocks) != 0 {
		t.Fatalf("break on an empty page added %v", doc.Blocks)
	}
	_ = sink.Heading(Heading{Title: "h"})
	if sink.Overflowed() {
		t.Fatal("overflowed after one line")
	}
	_ = sink.Table(&Table{Header: []string{"a"}, Rows: [][]string{{"1"}, {"2"}}})
	if !sink.Overflowed() {
		t.Fatal("expected overflow after 5 lines")
	}
	_ = sink.PageBreak()
	if doc.Pages() != 2 {
		t.Fatalf("Pages() = %d, want 2", doc.Pages())
	}
}

func TestTableSpecTotalsFromSums(t *testing.T) {
	spec := TableSpec[string]{
		Current: func() *analytics.Accumulator[string] {
			acc := analytics.NewAccumulator[string]()
			acc.Add("A", analytics.Measures{Sales: 100, Trans: 1})
			acc.Add("B", analytics.Measures{Sales: 100, Trans: 9})
			acc.Add("C", analytics.Measures{Sales: 10, Trans: 1})
			return acc
		},
		Less:  func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
		Limit: 2,
		Columns: []Column[string]{
			{Header: "#", Label: true, Cell: func(r Row[string]) string { return Amount(float64(r.Rank)) }},
			{Header: "Key", Label: true, Cell: func(r Row[string]) string { return r.Key }},
			{Header: "Avg", Cell: func(r Row[string]) string {
				return Amount(analytics.AvgTicket(r.Current.Sales, r.Current.Trans))
			}},
			{Header: "Share", Cell: func(r Row[string]) string {
				return Percent(analytics.ContributionShare(r.Current.Sales, r.Group.Current.Sales))
			}},
		},
		Totals: true,
	}
	tbl, err := spec.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %v, want the limit of 2", tbl.Rows)
	}
	assertRow(t, tbl.Rows[0], "1", "A", "100", "47.6%")
	assertRow(t, tbl.Rows[1], "2", "B", "11", "47.6%")
	// 210 / 11 = 19, not the mean of the row averages (40).
	assertRow(t, tbl.Totals, "Total", "", "19", "100.0%")
}

func TestTableSpecFixedKeys(t *testing.T) {
	spec := TableSpec[string]{
		Keys: []string{"2026-01-02", "2026-01-01"},
		Current: func() *analytics.Accumulator[string] {
			acc := analytics.NewAccumulator[string]()
			acc.Add("2026-01-01", analytics.Measures{Sales: 5})
			acc.Add("2026-01-09", analytics.Measures{Sales: 7})
			return acc
		},
		Columns: []Column[string]{
			{Header: "Date", Label: true, Cell: func(r Row[string]) string { return r.Key }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
		},
	}
	tbl, err := spec.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "2026-01-02" || tbl.Rows[0][1] != "0" || tbl.Rows[1][1] != "5" {
		t.Fatalf("rows = %v", tbl.Rows)
	}
	if tbl.Totals != nil {
		t.Fatalf("unexpected totals %v", tbl.Totals)
	}
}
