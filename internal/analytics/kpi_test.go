package analytics

import (
	"math"
	"testing"
	"time"
)

func TestKPIZeroDenominators(t *testing.T) {
	if got := AvgTicket(100, 0); got != 0 {
		t.Errorf("AvgTicket = %v", got)
	}
	if got := CustomerValue(100, 0); got != 0 {
		t.Errorf("CustomerValue = %v", got)
	}
	if got := ConversionRate(5, 0); got != 0 {
		t.Errorf("ConversionRate = %v", got)
	}
	if got := ContributionShare(5, 0); got != 0 {
		t.Errorf("ContributionShare = %v", got)
	}
	if got := Achievement(5, 0); got != 0 {
		t.Errorf("Achievement = %v", got)
	}
	if _, ok := Growth(100, 0); ok {
		t.Errorf("growth on a zero base must be undefined")
	}
	if _, ok := Growth(0, 0); ok {
		t.Errorf("growth on a zero base must be undefined")
	}
}

func TestGrowth(t *testing.T) {
	pct, ok := Growth(150, 100)
	if !ok || pct != 50 {
		t.Errorf("Growth(150, 100) = %v, %v", pct, ok)
	}
	pct, ok = Growth(50, 100)
	if !ok || pct != -50 {
		t.Errorf("Growth(50, 100) = %v, %v", pct, ok)
	}
}

func TestDailyRequired(t *testing.T) {
	cases := []struct {
		name     string
		target   float64
		sales    float64
		daysLeft int
		want     float64
	}{
		{"target met", 1000, 1000, 5, 0},
		{"target exceeded", 1000, 1500, 5, 0},
		{"spread over days", 1000, 400, 6, 100},
		{"no days left", 1000, 400, 0, 0},
		{"negative days", 1000, 400, -3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remaining := Remaining(tc.target, tc.sales)
			if got := DailyRequired(remaining, tc.daysLeft); got != tc.want {
				t.Errorf("DailyRequired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTotalsAreNotAveragesOfRows(t *testing.T) {
	rows := []Measures{
		{Sales: 100, Trans: 1},
		{Sales: 100, Trans: 9},
	}
	var sum Measures
	mean := 0.0
	for _, r := range rows {
		sum.Add(r)
		mean += Derive(r).AvgTicket / float64(len(rows))
	}

	total := Derive(sum).AvgTicket
	if total != 20 {
		t.Fatalf("totals avg ticket = %v, want 20", total)
	}
	if math.Abs(total-mean) < 1e-9 {
		t.Errorf("totals KPI must be recomputed from sums, got the row mean %v", mean)
	}
}

func TestPeriods(t *testing.T) {
	asOf := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	mtd := MonthToDate(asOf)
	if mtd.Start != "2026-03-01" || mtd.End != "2026-03-14" {
		t.Errorf("MonthToDate = %+v", mtd)
	}
	if got := MonthToDate(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)); got.Start != "2026-02-01" || got.End != "2026-02-28" {
		t.Errorf("MonthToDate on the 1st = %+v", got)
	}
	if got := mtd.ShiftYears(-1); got.Start != "2025-03-01" || got.End != "2025-03-14" {
		t.Errorf("ShiftYears = %+v", got)
	}
	if n := len(mtd.Dates()); n != 14 {
		t.Errorf("Dates len = %d", n)
	}
	if got := DaysLeftIncluding(time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)); got != 1 {
		t.Errorf("DaysLeftIncluding on the last day = %d", got)
	}
	if got := DaysLeftAfter(time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("DaysLeftAfter on the last day = %d", got)
	}
}
