package analytics

import (
	"testing"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name  string
		names map[string]string
		raw   string
		want  Identity
	}{
		{"id and name", nil, "3628-Ashjan Alashwan", Identity{ID: "3628", Name: "Ashjan Alashwan"}},
		{"dictionary wins", map[string]string{"3628": "Ashjan A."}, "3628-Ashjan Alashwan", Identity{ID: "3628", Name: "Ashjan A."}},
		{"split on first separator", nil, "12 - Al-Harbi ", Identity{ID: "12", Name: "Al-Harbi"}},
		{"unknown prefix", nil, "unknownWalkIn", Identity{ID: "unknownWalkIn", Name: "WalkIn"}},
		{"unknown prefix any case", nil, "UNKNOWN Guest", Identity{ID: "UNKNOWN Guest", Name: "Guest"}},
		{"bare id", nil, "4410", Identity{ID: "4410", Name: "4410"}},
		{"bare id with dictionary", map[string]string{"4410": "Noura"}, "4410", Identity{ID: "4410", Name: "Noura"}},
		{"empty id falls back to raw", nil, "-Orphan", Identity{ID: "-Orphan", Name: "-Orphan", Malformed: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewEntityIDResolver(tc.names, "").Resolve(tc.raw)
			if got != tc.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestIsReturn(t *testing.T) {
	r := NewEntityIDResolver(nil, "Returns")
	if !r.IsReturn(r.Resolve("0-Returns")) {
		t.Errorf("expected return marker to be detected")
	}
	if r.IsReturn(r.Resolve("12-Noura")) {
		t.Errorf("regular employee flagged as return")
	}
	if NewEntityIDResolver(nil, "").IsReturn(Identity{Name: ""}) {
		t.Errorf("empty token must never match")
	}
}

func TestBuildDirectoryPrimaryStoreLatestActivity(t *testing.T) {
	history := map[string][]domain.EmployeeRecord{
		"A": {{Date: "2026-01-10", RawKey: "7-Lama", Sales: 100, Transactions: 2}},
		"B": {
			{Date: "2026-01-05", RawKey: "7-Lama", Sales: 900, Transactions: 9},
			{Date: "2026-01-12", RawKey: "7-Lama", Sales: 0, Transactions: 0},
		},
	}
	periods := Periods{Current: Period{Start: "2026-01-01", End: "2026-01-31"}}

	dir := NewEntityIDResolver(nil, "").BuildDirectory(history, []string{"B", "A"}, periods)
	e, ok := dir.Get("7")
	if !ok {
		t.Fatalf("employee 7 missing")
	}
	if e.PrimaryStore != "A" {
		t.Errorf("primary store = %q, want A", e.PrimaryStore)
	}
	if e.Current.Sales != 1000 || e.Current.Trans != 11 {
		t.Errorf("current totals = %+v, want sales 1000 trans 11", e.Current)
	}
	if e.PerStore["B"].Sales != 900 {
		t.Errorf("per-store B sales = %v, want 900", e.PerStore["B"].Sales)
	}
	if got := dir.ForStore("A"); len(got) != 1 || got[0].ID != "7" {
		t.Errorf("ForStore(A) = %+v", got)
	}
	if got := dir.ForStore("B"); len(got) != 0 {
		t.Errorf("employee must not be attributed twice, ForStore(B) = %+v", got)
	}
}

func TestBuildDirectoryPrimaryStoreFallback(t *testing.T) {
	history := map[string][]domain.EmployeeRecord{
		"A": {{Date: "2025-12-10", RawKey: "7-Lama", Sales: 100}},
		"B": {{Date: "2025-12-11", RawKey: "7-Lama", Sales: 300}},
		"C": {{Date: "2025-12-12", RawKey: "8-Reem", Sales: 50}},
		"D": {{Date: "2025-12-12", RawKey: "8-Reem", Sales: 50}},
	}
	periods := Periods{Current: Period{Start: "2026-01-01", End: "2026-01-31"}}

	dir := NewEntityIDResolver(nil, "").BuildDirectory(history, nil, periods)
	if e, _ := dir.Get("7"); e.PrimaryStore != "B" {
		t.Errorf("fallback should pick the store with most sales, got %q", e.PrimaryStore)
	}
	if e, _ := dir.Get("8"); e.PrimaryStore != "C" {
		t.Errorf("ties should keep the first store visited, got %q", e.PrimaryStore)
	}
}

func TestBuildDirectorySkipsReturns(t *testing.T) {
	history := map[string][]domain.EmployeeRecord{
		"A": {
			{Date: "2026-01-02", RawKey: "0-Returns", Sales: -300, Transactions: 1},
			{Date: "2026-01-02", RawKey: "5", Sales: 200, Transactions: 4},
		},
	}
	periods := Periods{
		Current:  Period{Start: "2026-01-01", End: "2026-01-31"},
		Previous: Period{Start: "2025-01-01", End: "2025-01-31"},
		Latest:   Period{Start: "2026-01-02", End: "2026-01-02"},
	}
	dir := NewEntityIDResolver(map[string]string{"5": "Huda"}, "Returns").BuildDirectory(history, nil, periods)

	if dir.Len() != 1 {
		t.Fatalf("expected only the real employee, got %d", dir.Len())
	}
	e, _ := dir.Get("5")
	if e.Name != "Huda" || e.Latest.Sales != 200 || e.Previous.Sales != 0 {
		t.Errorf("unexpected identity: %+v", e)
	}
}
