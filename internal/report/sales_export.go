package report

import (
	"context"
	"fmt"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

func hasActivity(m analytics.Measures) bool {
	return m.Sales != 0 || m.Trans != 0 || m.Visitors != 0
}

// buildStoreSales is the date x store spreadsheet.
func buildStoreSales(ctx context.Context, e env) (*Document, error) {
	period := e.req.rangeOrMTD(e.asOf)
	sel := e.req.Filters
	sel.Start, sel.End = period.Start, period.End

	stores := setOf(e.visibleStores(sel))
	pred := scoped(stores, period)
	st := e.store

	spec := TableSpec[analytics.DateEntity]{
		Current: func() *analytics.Accumulator[analytics.DateEntity] {
			return analytics.Aggregate(st.Streams(), analytics.ByDateEntity, pred)
		},
		Include: func(r Row[analytics.DateEntity]) bool { return hasActivity(r.Current) },
		Less: func(a, b Row[analytics.DateEntity]) bool {
			if a.Key.Date != b.Key.Date {
				return a.Key.Date < b.Key.Date
			}
			return st.StoreName(a.Key.EntityID) < st.StoreName(b.Key.EntityID)
		},
		Columns: []Column[analytics.DateEntity]{
			{Header: "Date", Label: true, Cell: func(r Row[analytics.DateEntity]) string { return r.Key.Date }},
			{Header: "Store", Label: true, Cell: func(r Row[analytics.DateEntity]) string { return st.StoreName(r.Key.EntityID) }},
			{Header: "City", Label: true, Cell: func(r Row[analytics.DateEntity]) string { return e.meta(r.Key.EntityID).City }},
			{Header: "Manager", Label: true, Cell: func(r Row[analytics.DateEntity]) string { return e.meta(r.Key.EntityID).Manager }},
			{Header: "Sales", Cell: func(r Row[analytics.DateEntity]) string { return Amount(r.Current.Sales) }},
			{Header: "Transactions", Cell: func(r Row[analytics.DateEntity]) string { return Amount(r.Current.Trans) }},
			{Header: "Visitors", Cell: func(r Row[analytics.DateEntity]) string { return Amount(r.Current.Visitors) }},
			{Header: "Avg Ticket", Cell: func(r Row[analytics.DateEntity]) string {
				return Amount(analytics.AvgTicket(r.Current.Sales, r.Current.Trans))
			}},
			{Header: "Conversion", Cell: func(r Row[analytics.DateEntity]) string {
				return Percent(analytics.ConversionRate(r.Current.Trans, r.Current.Visitors))
			}},
		},
		Totals: true,
	}

	doc := e.newDocument(
		domain.ReportKindLabel(domain.ReportStoreSales),
		fmt.Sprintf("Store_Sales_%s_%s.xlsx", period.Start, period.End),
		FormatXLSX,
		fmt.Sprintf("Period: %s to %s", period.Start, period.End),
		e.exportLine(),
	)
	return e.compose(ctx, doc, Composition{Global: []Section{{Title: "Store Sales", Tables: []TableBuilder{spec}}}})
}

// employeeDayKey groups employee activity by date, store and employee.
type employeeDayKey struct {
	Date       string
	StoreID    string
	EmployeeID string
}

// buildEmployeeSales is the date x store x employee spreadsheet.
func buildEmployeeSales(ctx context.Context, e env) (*Document, error) {
	period := e.req.rangeOrMTD(e.asOf)
	stores := e.visibleStores(e.req.Filters)
	st := e.store
	resolver := e.resolver()

	names := make(map[string]string)
	pass := func() *analytics.Accumulator[employeeDayKey] {
		acc := analytics.NewAccumulator[employeeDayKey]()
		history := st.EmployeeHistory()
		for _, sid := range stores {
			for _, rec := range history[sid] {
				if !period.Contains(rec.Date) {
					continue
				}
				ident := resolver.Resolve(rec.RawKey)
				if resolver.IsReturn(ident) {
					continue
				}
				if _, ok := names[ident.ID]; !ok {
					names[ident.ID] = ident.Name
				}
				acc.Add(employeeDayKey{Date: rec.Date, StoreID: sid, EmployeeID: ident.ID},
					analytics.Measures{Sales: rec.Sales, Trans: rec.Transactions, Items: rec.Items})
			}
		}
		return acc
	}

	spec := TableSpec[employeeDayKey]{
		Current: pass,
		Include: func(r Row[employeeDayKey]) bool { return r.Current.Sales != 0 || r.Current.Trans != 0 },
		Less: func(a, b Row[employeeDayKey]) bool {
			if a.Key.Date != b.Key.Date {
				return a.Key.Date < b.Key.Date
			}
			if sa, sb := st.StoreName(a.Key.StoreID), st.StoreName(b.Key.StoreID); sa != sb {
				return sa < sb
			}
			return names[a.Key.EmployeeID] < names[b.Key.EmployeeID]
		},
		Columns: []Column[employeeDayKey]{
			{Header: "Date", Label: true, Cell: func(r Row[employeeDayKey]) string { return r.Key.Date }},
			{Header: "Store", Label: true, Cell: func(r Row[employeeDayKey]) string { return st.StoreName(r.Key.StoreID) }},
			{Header: "Employee ID", Label: true, Cell: func(r Row[employeeDayKey]) string { return r.Key.EmployeeID }},
			{Header: "Employee", Label: true, Cell: func(r Row[employeeDayKey]) string { return names[r.Key.EmployeeID] }},
			{Header: "Sales", Cell: func(r Row[employeeDayKey]) string { return Amount(r.Current.Sales) }},
			{Header: "Transactions", Cell: func(r Row[employeeDayKey]) string { return Amount(r.Current.Trans) }},
			{Header: "Items", Cell: func(r Row[employeeDayKey]) string { return Amount(r.Current.Items) }},
			{Header: "Avg Ticket", Cell: func(r Row[employeeDayKey]) string {
				return Amount(analytics.AvgTicket(r.Current.Sales, r.Current.Trans))
			}},
		},
		Totals: true,
	}

	doc := e.newDocument(
		domain.ReportKindLabel(domain.ReportEmployeeSales),
		fmt.Sprintf("Employee_Sales_%s_%s.xlsx", period.Start, period.End),
		FormatXLSX,
		fmt.Sprintf("Period: %s to %s", period.Start, period.End),
		e.exportLine(),
	)
	return e.compose(ctx, doc, Composition{Global: []Section{{Title: "Employee Sales", Tables: []TableBuilder{spec}}}})
}
