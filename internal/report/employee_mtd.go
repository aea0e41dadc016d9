package report

import (
	"context"
	"fmt"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// buildEmployeeMTD ranks employees month-to-date and lists each store's
// staff on its own page. Every employee is attributed to one primary store.
func buildEmployeeMTD(ctx context.Context, e env) (*Document, error) {
	mtd := analytics.MonthToDate(e.asOf)
	yesterday := e.asOf.AddDate(0, 0, -1)
	latest := analytics.FormatDate(yesterday)
	st := e.store

	dir := e.resolver().BuildDirectory(st.EmployeeHistory(), st.EntityIDs(), analytics.Periods{
		Current:  mtd,
		Previous: mtd.ShiftYears(-1),
		Latest:   analytics.Period{Start: latest, End: latest},
	})

	stores := e.visibleStores(e.req.Filters)
	visible := setOf(stores)
	employees := make(map[string]analytics.EmployeeIdentity, dir.Len())
	for _, emp := range dir.All() {
		if _, ok := visible[emp.PrimaryStore]; ok {
			employees[emp.ID] = emp
		}
	}

	leaderboard := TableSpec[string]{
		Title: "Employee Leaderboard",
		Current: func() *analytics.Accumulator[string] {
			acc := analytics.NewAccumulator[string]()
			for _, emp := range dir.All() {
				if _, ok := employees[emp.ID]; ok {
					acc.Add(emp.ID, emp.Current)
				}
			}
			return acc
		},
		Compare: func() *analytics.Accumulator[string] {
			acc := analytics.NewAccumulator[string]()
			for id, emp := range employees {
				acc.Add(id, emp.Previous)
			}
			return acc
		},
		Include: func(r Row[string]) bool { return r.Current.Active() },
		Less:    func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
		Columns: []Column[string]{
			{Header: "#", Label: true, Cell: func(r Row[string]) string { return fmt.Sprint(r.Rank) }},
			{Header: "Employee", Label: true, Cell: func(r Row[string]) string { return employees[r.Key].Name }},
			{Header: "Store", Label: true, Cell: func(r Row[string]) string { return st.StoreName(employees[r.Key].PrimaryStore) }},
			{Header: "MTD Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			{Header: "LY Sales", Cell: func(r Row[string]) string { return Amount(r.Compare.Sales) }},
			{Header: "Growth", Cell: func(r Row[string]) string { return GrowthCell(r.Current.Sales, r.Compare.Sales) }},
			{Header: "Trans", Cell: func(r Row[string]) string { return Amount(r.Current.Trans) }},
			{Header: "Avg Ticket", Cell: func(r Row[string]) string {
				return Amount(analytics.AvgTicket(r.Current.Sales, r.Current.Trans))
			}},
		},
		Totals: true,
	}

	daysLeft := analytics.DaysLeftAfter(yesterday)
	details := make([]Detail, 0, len(stores))
	for _, sid := range stores {
		details = append(details, Detail{
			EntityID: sid,
			Build: func(context.Context) ([]Section, bool) {
				return e.employeeStoreDetail(sid, dir.ForStore(sid), mtd, daysLeft)
			},
		})
	}

	doc := e.newDocument(
		domain.ReportKindLabel(domain.ReportEmployeeMTD),
		fmt.Sprintf("Employees_Report_%s.pdf", analytics.FormatDate(e.asOf)),
		FormatPDF,
		fmt.Sprintf("Period: %s to %s", mtd.Start, mtd.End),
		e.exportLine(),
	)
	return e.compose(ctx, doc, Composition{
		Global:      []Section{{Title: "Employee Summary", Tables: []TableBuilder{leaderboard}}},
		Details:     details,
		SummaryOnly: e.req.SummaryOnly,
	})
}

func (e env) employeeStoreDetail(sid string, staff []analytics.EmployeeIdentity, mtd analytics.Period, daysLeft int) ([]Section, bool) {
	byID := make(map[string]analytics.EmployeeIdentity, len(staff))
	cur := analytics.NewAccumulator[string]()
	latest := analytics.NewAccumulator[string]()
	for _, emp := range staff {
		if !emp.Current.Active() {
			continue
		}
		byID[emp.ID] = emp
		m := emp.Current
		m.Target = e.store.EmployeeTarget(emp.ID)
		cur.Add(emp.ID, m)
		latest.Add(emp.ID, emp.Latest)
	}
	if cur.Len() == 0 {
		return nil, false
	}

	table := TableSpec[string]{
		HeaderGroups: []HeaderGroup{{Label: "", Span: 2}, {Label: "Yesterday", Span: 2}, {Label: "Month to date", Span: 9}},
		Current:      func() *analytics.Accumulator[string] { return cur },
		Compare:      func() *analytics.Accumulator[string] { return latest },
		Less:         func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
		Columns: []Column[string]{
			{Header: "ID", Label: true, Cell: func(r Row[string]) string { return r.Key }},
			{Header: "Employee", Label: true, Cell: func(r Row[string]) string { return byID[r.Key].Name }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Compare.Sales) }},
			{Header: "Trans", Cell: func(r Row[string]) string { return Amount(r.Compare.Trans) }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			{Header: "Trans", Cell: func(r Row[string]) string { return Amount(r.Current.Trans) }},
			{Header: "Items", Cell: func(r Row[string]) string { return Amount(r.Current.Items) }},
			{Header: "Avg Ticket", Cell: func(r Row[string]) string {
				return Amount(analytics.AvgTicket(r.Current.Sales, r.Current.Trans))
			}},
			{Header: "Contribution", Cell: func(r Row[string]) string {
				return Percent(analytics.ContributionShare(r.Current.Sales, r.Group.Current.Sales))
			}},
			{Header: "Target", Cell: func(r Row[string]) string { return Amount(r.Current.Target) }},
			{Header: "Achievement", Cell: func(r Row[string]) string {
				if r.Totals && r.Current.Target == 0 {
					return "-"
				}
				return Percent(analytics.Achievement(r.Current.Sales, r.Current.Target))
			}},
			{Header: "Remaining", Cell: func(r Row[string]) string {
				return Amount(analytics.Remaining(r.Current.Target, r.Current.Sales))
			}},
			{Header: "Daily Required", Cell: func(r Row[string]) string {
				return Amount(analytics.DailyRequired(analytics.Remaining(r.Current.Target, r.Current.Sales), daysLeft))
			}},
		},
		Totals: true,
	}

	lines := []string{
		"Manager: " + e.meta(sid).Manager,
		fmt.Sprintf("Period: %s to %s", mtd.Start, mtd.End),
		fmt.Sprintf("Employees: %d", cur.Len()),
	}
	return []Section{{Title: e.store.StoreName(sid), Lines: lines, Tables: []TableBuilder{table}}}, true
}
