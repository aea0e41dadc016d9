package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
)

const (
	topItemsLimit = 20
	basketLimit   = 15
	missedLimit   = 15
	catalogLimit  = 20
	catalogCaveat = "Item figures come from the all-store catalog and are not specific to this store."
)

// productScope is the set of stores a product section reports on.
type productScope struct {
	period domain.ProductPeriod
	stores []string
	single bool
	parts  Sections
}

// buildProductAnalysis reports category, item and basket performance for
// one store or every store in the selection.
func buildProductAnalysis(ctx context.Context, e env) (*Document, error) {
	period, ok := e.store.ProductPeriod(e.req.Mode)
	if !ok {
		if len(e.store.ProductModes()) == 0 {
			return nil, domain.ErrDataUnavailable
		}
		return nil, fmt.Errorf("%w: unknown product mode %q", domain.ErrInvalidRequest, e.req.Mode)
	}

	single := e.req.StoreID != analytics.All
	var stores []string
	if single {
		stores = []string{e.req.StoreID}
	} else {
		pred := e.storePredicate(e.req.Filters)
		for sid := range period.Stores {
			if pred(sid) {
				stores = append(stores, sid)
			}
		}
		facts.SortIDs(stores)
	}

	global := productScope{period: period, stores: stores, single: single, parts: *e.req.Sections}

	var details []Detail
	if !single && e.req.Detailed {
		parts := global.parts
		parts.StoreBreakdown = false
		for _, sid := range stores {
			scope := productScope{period: period, stores: []string{sid}, single: true, parts: parts}
			details = append(details, Detail{
				EntityID: sid,
				Build: func(context.Context) ([]Section, bool) {
					if !scope.active() {
						return nil, false
					}
					secs := e.productSections(scope)
					if len(secs) > 0 {
						secs[0].Title = e.productStoreName(period, scope.stores[0]) + " - " + secs[0].Title
					}
					return secs, true
				},
			})
		}
	}

	name := "Product_Analysis_All_%s.pdf"
	scopeLine := "Scope: all stores"
	if single {
		name = "Product_Analysis_" + e.req.StoreID + "_%s.pdf"
		scopeLine = "Scope: " + e.productStoreName(period, e.req.StoreID)
	}
	doc := e.newDocument(
		domain.ReportKindLabel(domain.ReportProductAnalysis),
		fmt.Sprintf(name, analytics.FormatDate(e.asOf)),
		FormatPDF,
		scopeLine,
		"Period: "+e.req.Mode,
		e.exportLine(),
	)
	return e.compose(ctx, doc, Composition{
		Global:      e.productSections(global),
		Details:     details,
		SummaryOnly: e.req.SummaryOnly,
	})
}

func (e env) productStoreName(period domain.ProductPeriod, sid string) string {
	if sc, ok := period.Stores[sid]; ok && sc.StoreName != "" {
		return sc.StoreName
	}
	return e.store.StoreName(sid)
}

func (s productScope) active() bool {
	for _, sid := range s.stores {
		for _, c := range s.period.Stores[sid].Categories {
			if c.Amount != 0 || c.Qty != 0 {
				return true
			}
		}
	}
	return false
}

// categories sums category aggregates over the scope's stores.
func (s productScope) categories() *analytics.Accumulator[string] {
	acc := analytics.NewAccumulator[string]()
	for _, sid := range s.stores {
		for _, c := range s.period.Stores[sid].Categories {
			acc.Add(c.Category, analytics.Measures{Sales: c.Amount, Items: c.Qty})
		}
	}
	return acc
}

func (e env) productSections(s productScope) []Section {
	var out []Section
	if s.parts.Performance {
		out = append(out, Section{Title: "Performance", Tables: []TableBuilder{e.topItemsTable(s), categoryTable(s)}})
	}
	if s.parts.Advanced {
		out = append(out, Section{Title: "Advanced Analysis", Tables: []TableBuilder{e.basketTable(s), e.missedTable(s)}})
	}
	if s.parts.StoreBreakdown && len(s.stores) > 1 {
		out = append(out, Section{Title: "Store Breakdown", NewPage: true, Tables: []TableBuilder{e.storeBreakdownTable(s)}})
	}
	if s.parts.CategoryDetails {
		out = append(out, Section{Title: "Category Details", NewPage: true, Tables: catalogTables(s)})
	}
	return out
}

func (e env) topItemsTable(s productScope) TableBuilder {
	names := make(map[string]string)
	cats := make(map[string]string)
	return TableSpec[string]{
		Title: "Top Items",
		Current: func() *analytics.Accumulator[string] {
			acc := analytics.NewAccumulator[string]()
			for _, sid := range s.stores {
				for _, c := range s.period.Stores[sid].Categories {
					it := c.TopItem
					key := it.ID
					if key == "" {
						key = it.Name
					}
					if key == "" {
						continue
					}
					if _, ok := names[key]; !ok {
						names[key], cats[key] = it.Name, c.Category
					}
					acc.Add(key, analytics.Measures{Sales: it.Amount, Items: it.Qty})
				}
			}
			return acc
		},
		Less:  func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
		Limit: topItemsLimit,
		Columns: []Column[string]{
			{Header: "#", Label: true, Cell: func(r Row[string]) string { return strconv.Itoa(r.Rank) }},
			{Header: "Item", Label: true, Cell: func(r Row[string]) string { return names[r.Key] }},
			{Header: "Item ID", Label: true, Cell: func(r Row[string]) string { return r.Key }},
			{Header: "Category", Label: true, Cell: func(r Row[string]) string { return cats[r.Key] }},
			{Header: "Qty", Cell: func(r Row[string]) string { return Amount(r.Current.Items) }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
		},
	}
}

func categoryTable(s productScope) TableBuilder {
	return TableSpec[string]{
		Title:   "Category Performance",
		Current: s.categories,
		Less:    func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
		Columns: []Column[string]{
			{Header: "Category", Label: true, Cell: func(r Row[string]) string { return r.Key }},
			{Header: "Qty", Cell: func(r Row[string]) string { return Amount(r.Current.Items) }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			{Header: "Share", Cell: func(r Row[string]) string {
				return Percent(analytics.ContributionShare(r.Current.Sales, r.Group.Current.Sales))
			}},
		},
		Totals: true,
	}
}

func (e env) basketTable(s productScope) TableBuilder {
	key := domain.BasketAllKey
	if s.single {
		key = s.stores[0]
	}
	return TableFunc(func(context.Context) (*Table, error) {
		pairs := append([]domain.BasketPair(nil), e.store.Basket(key)...)
		if len(pairs) == 0 {
			return nil, nil
		}
		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Frequency > pairs[j].Frequency })
		if len(pairs) > basketLimit {
			pairs = pairs[:basketLimit]
		}
		t := &Table{Title: "Frequently Bought Together", Header: []string{"#", "Item A", "Item B", "Frequency"}}
		for i, p := range pairs {
			t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), p.ItemA, p.ItemB, strconv.Itoa(p.Frequency)})
		}
		return t, nil
	})
}

func (e env) missedTable(s productScope) TableBuilder {
	return TableFunc(func(context.Context) (*Table, error) {
		type record struct {
			store string
			domain.MissedOpportunity
		}
		var recs []record
		for _, sid := range s.stores {
			for _, m := range s.period.MissedOpportunities[sid] {
				recs = append(recs, record{store: sid, MissedOpportunity: m})
			}
		}
		if len(recs) == 0 {
			return nil, nil
		}
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].TotalCount > recs[j].TotalCount })
		if len(recs) > missedLimit {
			recs = recs[:missedLimit]
		}

		header := []string{"#", "Sold Item", "Employee", "Missed Item", "Count"}
		if !s.single {
			header = append(header, "Store")
		}
		t := &Table{Title: "Missed Opportunities", Header: header}
		for i, r := range recs {
			row := []string{strconv.Itoa(i + 1), r.SoldItem, r.EmployeeName, r.FirstMissed(), strconv.Itoa(r.TotalCount)}
			if !s.single {
				row = append(row, e.productStoreName(s.period, r.store))
			}
			t.Rows = append(t.Rows, row)
		}
		return t, nil
	})
}

func (e env) storeBreakdownTable(s productScope) TableBuilder {
	topCategory := make(map[string]string, len(s.stores))
	return TableSpec[string]{
		Title: "Store Breakdown",
		Current: func() *analytics.Accumulator[string] {
			acc := analytics.NewAccumulator[string]()
			for _, sid := range s.stores {
				best := domain.CategoryAggregate{}
				for i, c := range s.period.Stores[sid].Categories {
					acc.Add(sid, analytics.Measures{Sales: c.Amount, Items: c.Qty})
					if i == 0 || c.Amount > best.Amount {
						best = c
					}
				}
				topCategory[sid] = best.Category
			}
			return acc
		},
		Include: func(r Row[string]) bool { return r.Current.Sales != 0 || r.Current.Items != 0 },
		Less:    func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
		Columns: []Column[string]{
			{Header: "#", Label: true, Cell: func(r Row[string]) string { return strconv.Itoa(r.Rank) }},
			{Header: "Store", Label: true, Cell: func(r Row[string]) string { return e.productStoreName(s.period, r.Key) }},
			{Header: "Qty", Cell: func(r Row[string]) string { return Amount(r.Current.Items) }},
			{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			{Header: "Share", Cell: func(r Row[string]) string {
				return Percent(analytics.ContributionShare(r.Current.Sales, r.Group.Current.Sales))
			}},
			{Header: "Top Category", Label: true, Cell: func(r Row[string]) string { return topCategory[r.Key] }},
		},
		Totals: true,
	}
}

// catalogTables lists the catalog items of each category in the scope,
// largest category first. The catalog has no store dimension.
func catalogTables(s productScope) []TableBuilder {
	cats := s.categories()
	keys := cats.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		a, _ := cats.Get(keys[i])
		b, _ := cats.Get(keys[j])
		return a.Sales > b.Sales
	})

	caveat := ""
	if s.single {
		caveat = catalogCaveat
	}
	out := make([]TableBuilder, 0, len(keys))
	for _, cat := range keys {
		items := s.period.Catalog[cat]
		out = append(out, TableSpec[string]{
			Title:  cat,
			Caveat: caveat,
			Current: func() *analytics.Accumulator[string] {
				acc := analytics.NewAccumulator[string]()
				for _, it := range items {
					acc.Add(it.Name, analytics.Measures{Sales: it.Amount, Items: it.Qty})
				}
				return acc
			},
			Less:  func(a, b Row[string]) bool { return a.Current.Sales > b.Current.Sales },
			Limit: catalogLimit,
			Columns: []Column[string]{
				{Header: "#", Label: true, Cell: func(r Row[string]) string { return strconv.Itoa(r.Rank) }},
				{Header: "Item", Label: true, Cell: func(r Row[string]) string { return r.Key }},
				{Header: "Qty", Cell: func(r Row[string]) string { return Amount(r.Current.Items) }},
				{Header: "Sales", Cell: func(r Row[string]) string { return Amount(r.Current.Sales) }},
			},
		})
	}
	return out
}
