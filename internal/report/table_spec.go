package report

import (
	"context"
	"sort"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
)

// Group carries the sums of every included row of a table.
type Group struct {
	Current analytics.Measures
	Compare analytics.Measures
}

// Row is one grouped result handed to column renderers. Compare holds the
// comparison period (last year, yesterday) when the table has one.
type Row[K comparable] struct {
	Key     K
	Rank    int
	Current analytics.Measures
	Compare analytics.Measures
	Group   *Group
	Totals  bool
}

// Column renders one cell per row. Label columns are blanked in the totals
// row except the first, which carries the totals label.
type Column[K comparable] struct {
	Header string
	Label  bool
	Cell   func(r Row[K]) string
}

// TableBuilder produces a table or nil when it has no rows.
type TableBuilder interface {
	Build(ctx context.Context) (*Table, error)
}

// TableFunc adapts a plain function to TableBuilder.
type TableFunc func(ctx context.Context) (*Table, error)

func (f TableFunc) Build(ctx context.Context) (*Table, error) { return f(ctx) }

// TableSpec declares a table as aggregation passes plus presentation:
// Current (and optional Compare) run as independent passes, rows are
// filtered, sorted, limited and rendered, and a totals row re-derives every
// column from the summed measures.
type TableSpec[K comparable] struct {
	Title        string
	Caveat       string
	HeaderGroups []HeaderGroup

	Current func() *analytics.Accumulator[K]
	Compare func() *analytics.Accumulator[K]
	// Keys fixes the row domain (e.g. every date of a period). When nil the
	// keys of the Current pass are used.
	Keys []K

	Include func(r Row[K]) bool
	Columns []Column[K]
	Less    func(a, b Row[K]) bool
	Limit   int

	Totals      bool
	TotalsLabel string
}

func (s TableSpec[K]) Build(ctx context.Context) (*Table, error) {
	var cur, cmp *analytics.Accumulator[K]
	err := analytics.RunPasses(ctx,
		func(context.Context) error {
			cur = runPass(s.Current)
			return nil
		},
		func(context.Context) error {
			cmp = runPass(s.Compare)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	keys := s.Keys
	if keys == nil {
		keys = cur.Keys()
	}

	group := &Group{}
	rows := make([]Row[K], 0, len(keys))
	for _, k := range keys {
		r := Row[K]{Key: k, Group: group}
		r.Current, _ = cur.Get(k)
		r.Compare, _ = cmp.Get(k)
		if s.Include != nil && !s.Include(r) {
			continue
		}
		group.Current.Add(r.Current)
		group.Compare.Add(r.Compare)
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if s.Less != nil {
		sort.SliceStable(rows, func(i, j int) bool { return s.Less(rows[i], rows[j]) })
	}
	if s.Limit > 0 && len(rows) > s.Limit {
		rows = rows[:s.Limit]
	}

	t := &Table{
		Title:        s.Title,
		Caveat:       s.Caveat,
		HeaderGroups: s.HeaderGroups,
		Header:       make([]string, len(s.Columns)),
		Rows:         make([][]string, 0, len(rows)),
	}
	for i, c := range s.Columns {
		t.Header[i] = c.Header
	}
	for i := range rows {
		rows[i].Rank = i + 1
		t.Rows = append(t.Rows, s.render(rows[i]))
	}

	if s.Totals {
		t.Totals = s.totalsRow(group)
	}
	return t, nil
}

func (s TableSpec[K]) render(r Row[K]) []string {
	cells := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cells[i] = c.Cell(r)
	}
	return cells
}

// totalsRow runs the same column renderers over the group sums, so ratio
// columns are recomputed from totals rather than averaged.
func (s TableSpec[K]) totalsRow(group *Group) []string {
	label := s.TotalsLabel
	if label == "" {
		label = "Total"
	}
	r := Row[K]{Current: group.Current, Compare: group.Compare, Group: group, Totals: true}

	cells := make([]string, len(s.Columns))
	labelled := false
	for i, c := range s.Columns {
		switch {
		case c.Label && !labelled:
			cells[i] = label
			labelled = true
		case c.Label:
			cells[i] = ""
		default:
			cells[i] = c.Cell(r)
		}
	}
	return cells
}

func runPass[K comparable](pass func() *analytics.Accumulator[K]) *analytics.Accumulator[K] {
	if pass == nil {
		return analytics.NewAccumulator[K]()
	}
	if acc := pass(); acc != nil {
		return acc
	}
	return analytics.NewAccumulator[K]()
}
