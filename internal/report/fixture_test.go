package report

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
)

const testAsOf = "2026-01-11"

func tuple(date, id string, v float64) domain.FactTuple {
	return domain.FactTuple{Date: date, EntityID: id, Value: v}
}

func record(date, key string, sales, trans, items float64) domain.EmployeeRecord {
	return domain.EmployeeRecord{Date: date, RawKey: key, Sales: sales, Transactions: trans, Items: items}
}

func fixtureStore() *facts.Store {
	return facts.New(facts.Dataset{
		Streams: domain.FactStreams{
			Sales: []domain.FactTuple{
				tuple("2026-01-01", "S1", 100),
				tuple("2026-01-02", "S1", 200),
				tuple("2026-01-01", "S2", 50),
				tuple("2025-01-01", "S1", 80),
				tuple("2026-01-03", "S3", 999),
			},
			Transactions: []domain.FactTuple{
				tuple("2026-01-01", "S1", 5),
				tuple("2026-01-02", "S1", 10),
				tuple("2026-01-01", "S2", 5),
			},
			Visitors: []domain.FactTuple{
				tuple("2026-01-01", "S1", 20),
				tuple("2026-01-02", "S1", 20),
				tuple("2026-01-01", "S2", 10),
			},
			Targets: []domain.FactTuple{
				tuple("2026-01-01", "S1", 3000),
				tuple("2026-01-01", "S2", 1000),
			},
		},
		Stores: map[string]string{"S4": "Empty Store", "9999": "Online"},
		StoreMeta: map[string]domain.StoreMeta{
			"S1": {Name: "Riyadh Park", Manager: "Sara", City: "Riyadh", Type: domain.StoreTypeShowroom, Region: "Central"},
			"S2": {Name: "Jeddah Mall", Manager: "Omar", City: "Jeddah", Type: domain.StoreTypeShowroom, Region: "West"},
			"S3": {Name: "Warehouse", Manager: "Omar", City: "Jeddah", Type: "Warehouse", Region: "West"},
		},
		EmployeeHistory: map[string][]domain.EmployeeRecord{
			"S1": {
				record("2026-01-01", "101-Ali", 100, 5, 7),
				record("2026-01-02", "102-Mona", 200, 10, 12),
				record("2026-01-02", "0-مرتجع", -30, 1, 1),
				record("2025-01-03", "101-Ali", 40, 2, 2),
			},
			"S2": {
				record("2026-01-01", "103-Huda", 50, 5, 3),
				record("2026-01-10", "104-Zaid", 0, 0, 0),
			},
		},
		EmployeeNames:   map[string]string{"101": "Ali Hassan"},
		EmployeeTargets: map[string]float64{"102": 400},
		MarketBasket: map[string][]domain.BasketPair{
			domain.BasketAllKey: {{ItemA: "Oud", ItemB: "Musk", Frequency: 4}, {ItemA: "Oud", ItemB: "Amber", Frequency: 9}},
			"S1":                {{ItemA: "Oud", ItemB: "Amber", Frequency: 2}},
		},
		Products: map[string]domain.ProductPeriod{
			"mtd": {
				Stores: map[string]domain.StoreCategories{
					"S1": {StoreName: "Riyadh Park", Categories: []domain.CategoryAggregate{
						{Category: "Perfume", Qty: 10, Amount: 500, TopItem: domain.TopItem{ID: "P1", Name: "Oud", Qty: 4, Amount: 300}},
						{Category: "Incense", Qty: 5, Amount: 100, TopItem: domain.TopItem{ID: "I1", Name: "Bakhoor", Qty: 5, Amount: 100}},
					}},
					"S2": {StoreName: "Jeddah Mall", Categories: []domain.CategoryAggregate{
						{Category: "Perfume", Qty: 2, Amount: 80, TopItem: domain.TopItem{ID: "P2", Name: "Musk", Qty: 2, Amount: 80}},
					}},
				},
				Catalog: domain.Catalog{
					"Perfume": {{Name: "Oud", Qty: 4, Amount: 300}, {Name: "Musk", Qty: 2, Amount: 80}, {Name: "Amber", Qty: 6, Amount: 200}},
					"Incense": {{Name: "Bakhoor", Qty: 5, Amount: 100}},
				},
				MissedOpportunities: map[string][]domain.MissedOpportunity{
					"S1": {{SoldItem: "Oud", EmployeeName: "Ali", MissedItems: []domain.MissedItem{{Name: "Musk"}}, TotalCount: 3}},
				},
			},
		},
	})
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ReturnToken = "مرتجع"
	opts.Now = func() time.Time { return time.Date(2026, 1, 11, 9, 30, 0, 0, time.UTC) }
	return opts
}

func generate(t *testing.T, req Request) *Document {
	t.Helper()
	if req.AsOf == "" {
		req.AsOf = testAsOf
	}
	doc, err := Generate(context.Background(), fixtureStore(), req, testOptions())
	if err != nil {
		t.Fatalf("Generate(%s) error = %v", req.Kind, err)
	}
	return doc
}

func findTable(t *testing.T, doc *Document, title string) *Table {
	t.Helper()
	for _, tbl := range doc.Tables() {
		if tbl.Title == title {
			return tbl
		}
	}
	t.Fatalf("table %q not found", title)
	return nil
}

func headings(doc *Document) []string {
	var out []string
	for _, b := range doc.Blocks {
		if b.Kind == BlockHeading {
			out = append(out, b.Heading.Title)
		}
	}
	return out
}

func assertRow(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("row = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %q, want %q (row %v)", i, got[i], want[i], got)
		}
	}
}
