package report

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// buildTargetSetting compares each store's last-year month with the new
// targets supplied in the request.
func buildTargetSetting(ctx context.Context, e env) (*Document, error) {
	month := time.Date(e.asOf.Year(), e.asOf.Month(), 1, 0, 0, 0, 0, e.location())
	if e.req.Month != "" {
		m, err := analytics.ParseMonth(e.req.Month)
		if err != nil {
			return nil, fmt.Errorf("%w: month %q", domain.ErrInvalidRequest, e.req.Month)
		}
		month = m
	}
	ly := analytics.Month(month.AddDate(-1, 0, 0))

	excluded := setOf(e.opts.ExcludedStoreIDs)
	var stores []string
	for _, sid := range e.visibleStores(e.req.Filters) {
		if _, skip := excluded[sid]; !skip {
			stores = append(stores, sid)
		}
	}
	set := setOf(stores)
	st := e.store

	spec := TableSpec[string]{
		Keys: stores,
		Current: func() *analytics.Accumulator[string] {
			return analytics.Aggregate(st.Streams(), analytics.ByEntity, scoped(set, ly))
		},
		Compare: func() *analytics.Accumulator[string] {
			acc := analytics.NewAccumulator[string]()
			for _, sid := range stores {
				if v, ok := e.req.Targets[sid]; ok {
					acc.Add(sid, analytics.Measures{Target: v})
				}
			}
			return acc
		},
		Less: func(a, b Row[string]) bool { return st.StoreName(a.Key) < st.StoreName(b.Key) },
		Columns: []Column[string]{
			{Header: "Store ID", Label: true, Cell: func(r Row[string]) string { return r.Key }},
			{Header: "Store", Label: true, Cell: func(r Row[string]) string { return st.StoreName(r.Key) }},
			{Header: "LY Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			{Header: "LY Target", Cell: func(r Row[string]) string { return Amount(r.Current.Target) }},
			{Header: "LY Visitors", Cell: func(r Row[string]) string { return Amount(r.Current.Visitors) }},
			{Header: "LY Customer Value", Cell: func(r Row[string]) string {
				return Amount(analytics.CustomerValue(r.Current.Sales, r.Current.Visitors))
			}},
			{Header: "New Target", Cell: func(r Row[string]) string { return Amount(r.Compare.Target) }},
			{Header: "Growth", Cell: func(r Row[string]) string { return GrowthCell(r.Compare.Target, r.Current.Sales) }},
		},
		Totals: true,
	}

	label := month.Format("2006-01")
	doc := e.newDocument(
		domain.ReportKindLabel(domain.ReportTargetSetting),
		fmt.Sprintf("Targets_%s.xlsx", label),
		FormatXLSX,
		"Target month: "+label,
		fmt.Sprintf("Compared with: %s to %s", ly.Start, ly.End),
		e.exportLine(),
	)
	return e.compose(ctx, doc, Composition{Global: []Section{{Title: "Targets " + label, Tables: []TableBuilder{spec}}}})
}
