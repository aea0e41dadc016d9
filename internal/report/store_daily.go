package report

import (
	"context"
	"fmt"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// showrooms returns the visible stores of type Showroom.
func (e env) showrooms() []string {
	var out []string
	for _, id := range e.visibleStores(e.req.Filters) {
		if e.meta(id).Type == domain.StoreTypeShowroom {
			out = append(out, id)
		}
	}
	return out
}

// buildStoreDaily is the month-to-date store report: a leaderboard over
// every showroom followed by one daily page per active store.
func buildStoreDaily(ctx context.Context, e env) (*Document, error) {
	mtd := analytics.MonthToDate(e.asOf)
	ly := mtd.ShiftYears(-1)
	stores := e.showrooms()
	set := setOf(stores)
	st := e.store

	// 1. Leaderboard: one row per store, current vs last year.
	leaderboard := TableSpec[string]{
		Title: "Store Leaderboard",
		Current: func() *analytics.Accumulator[string] {
			return analytics.Aggregate(st.Streams(), analytics.ByEntity, scoped(set, mtd))
		},
		Compare: func() *analytics.Accumulator[string] {
			return analytics.Aggregate(st.Streams(), analytics.ByEntity, scoped(set, ly))
		},
		Include: func(r Row[string]) bool { return hasActivity(r.Current) },
		Less:    func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
		Columns: []Column[string]{
			{Header: "#", Label: true, Cell: func(r Row[string]) string { return fmt.Sprint(r.Rank) }},
			{Header: "Store", Label: true, Cell: func(r Row[string]) string { return st.StoreName(r.Key) }},
			{Header: "Manager", Label: true, Cell: func(r Row[string]) string { return e.meta(r.Key).Manager }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			{Header: "Target", Cell: func(r Row[string]) string { return Amount(r.Current.Target) }},
			{Header: "Achievement", Cell: func(r Row[string]) string {
				return Percent(analytics.Achievement(r.Current.Sales, r.Current.Target))
			}},
			{Header: "Sales LY", Cell: func(r Row[string]) string { return Amount(r.Compare.Sales) }},
			{Header: "Growth", Cell: func(r Row[string]) string { return GrowthCell(r.Current.Sales, r.Compare.Sales) }},
			{Header: "Trans", Cell: func(r Row[string]) string { return Amount(r.Current.Trans) }},
			{Header: "Avg Ticket", Cell: func(r Row[string]) string {
				return Amount(analytics.AvgTicket(r.Current.Sales, r.Current.Trans))
			}},
			{Header: "Conversion", Cell: func(r Row[string]) string {
				return Percent(analytics.ConversionRate(r.Current.Trans, r.Current.Visitors))
			}},
		},
		Totals: true,
	}

	// 2. Detail pages, one per store with activity in the period.
	daysLeft := analytics.DaysLeftIncluding(e.asOf)
	details := make([]Detail, 0, len(stores))
	for _, sid := range stores {
		details = append(details, Detail{
			EntityID: sid,
			Build: func(ctx context.Context) ([]Section, bool) {
				return e.storeDailyDetail(sid, mtd, ly, daysLeft)
			},
		})
	}

	doc := e.newDocument(
		domain.ReportKindLabel(domain.ReportStoreDaily),
		fmt.Sprintf("Sales_Report_%s.pdf", analytics.FormatDate(e.asOf)),
		FormatPDF,
		fmt.Sprintf("Period: %s to %s", mtd.Start, mtd.End),
		e.exportLine(),
	)
	return e.compose(ctx, doc, Composition{
		Global:      []Section{{Title: "Sales Summary", Lines: []string{fmt.Sprintf("Stores: %d", len(stores))}, Tables: []TableBuilder{leaderboard}}},
		Details:     details,
		SummaryOnly: e.req.SummaryOnly,
	})
}

func (e env) storeDailyDetail(sid string, mtd, ly analytics.Period, daysLeft int) ([]Section, bool) {
	st := e.store
	only := setOf([]string{sid})

	cur := analytics.Aggregate(st.Streams(), analytics.ByDate, scoped(only, mtd))
	total := cur.Total()
	if !hasActivity(total) {
		return nil, false
	}
	// Last year's dates are keyed by the matching current-year date.
	cmp := analytics.Aggregate(st.Streams(), analytics.ShiftedKey(analytics.ByDate, 1), scoped(only, ly))

	remaining := analytics.Remaining(total.Target, total.Sales)
	lines := []string{
		"Manager: " + e.meta(sid).Manager,
		fmt.Sprintf("Period: %s to %s", mtd.Start, mtd.End),
		fmt.Sprintf("Target: %s | Achievement: %s | Remaining: %s",
			Amount(total.Target), Percent(analytics.Achievement(total.Sales, total.Target)), Amount(remaining)),
		fmt.Sprintf("Daily required: %s (%d days left)", Amount(analytics.DailyRequired(remaining, daysLeft)), daysLeft),
	}

	daily := TableSpec[string]{
		Title:   "Daily Performance",
		Keys:    mtd.Dates(),
		Current: func() *analytics.Accumulator[string] { return cur },
		Compare: func() *analytics.Accumulator[string] { return cmp },
		Columns: []Column[string]{
			{Header: "Date", Label: true, Cell: func(r Row[string]) string { return r.Key }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			{Header: "Sales LY", Cell: func(r Row[string]) string { return Amount(r.Compare.Sales) }},
			{Header: "Growth", Cell: func(r Row[string]) string { return GrowthCell(r.Current.Sales, r.Compare.Sales) }},
			{Header: "Trans", Cell: func(r Row[string]) string { return Amount(r.Current.Trans) }},
			{Header: "Avg Ticket", Cell: func(r Row[string]) string {
				return Amount(analytics.AvgTicket(r.Current.Sales, r.Current.Trans))
			}},
			{Header: "Customer Value", Cell: func(r Row[string]) string {
				return Amount(analytics.CustomerValue(r.Current.Sales, r.Current.Visitors))
			}},
			{Header: "Visitors", Cell: func(r Row[string]) string { return Amount(r.Current.Visitors) }},
			{Header: "Visitors LY", Cell: func(r Row[string]) string { return Amount(r.Compare.Visitors) }},
			{Header: "Conversion", Cell: func(r Row[string]) string {
				return Percent(analytics.ConversionRate(r.Current.Trans, r.Current.Visitors))
			}},
		},
		Totals: true,
	}

	return []Section{{Title: st.StoreName(sid), Lines: lines, Tables: []TableBuilder{daily}}}, true
}
