package analytics

import "time"

const isoDate = "2006-01-02"

// Period is an inclusive ISO date range. Empty bounds are open.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (p Period) Contains(date string) bool {
	return DateInRange(date, p.Start, p.End)
}

// Valid reports whether both bounds are set and ordered.
func (p Period) Valid() bool {
	return p.Start != "" && p.End != "" && p.Start <= p.End
}

// ShiftYears moves both bounds by whole years.
func (p Period) ShiftYears(years int) Period {
	out := p
	if s, ok := ShiftDate(p.Start, years); ok {
		out.Start = s
	}
	if e, ok := ShiftDate(p.End, years); ok {
		out.End = e
	}
	return out
}

// Dates lists every date of the period in order. Invalid periods yield nil.
func (p Period) Dates() []string {
	start, err := time.Parse(isoDate, p.Start)
	if err != nil {
		return nil
	}
	end, err := time.Parse(isoDate, p.End)
	if err != nil || end.Before(start) {
		return nil
	}
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(isoDate))
	}
	return out
}

// Yesterday returns the day before asOf as an ISO date.
func Yesterday(asOf time.Time) string {
	return asOf.AddDate(0, 0, -1).Format(isoDate)
}

// MonthToDate runs from the first of the month of yesterday through
// yesterday, so on the 1st it covers the whole previous month.
func MonthToDate(asOf time.Time) Period {
	y := asOf.AddDate(0, 0, -1)
	first := time.Date(y.Year(), y.Month(), 1, 0, 0, 0, 0, y.Location())
	return Period{Start: first.Format(isoDate), End: y.Format(isoDate)}
}

// Month returns the calendar month containing t.
func Month(t time.Time) Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return Period{Start: first.Format(isoDate), End: last.Format(isoDate)}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (time.Time, error) {
	return time.Parse("2006-01", s)
}

// DaysInMonth returns the number of days of t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// DaysLeftAfter counts the days of the month after date's day.
func DaysLeftAfter(date time.Time) int {
	return DaysInMonth(date) - date.Day()
}

// DaysLeftIncluding counts today and the remaining days of the month,
// never less than 1.
func DaysLeftIncluding(today time.Time) int {
	n := DaysInMonth(today) - today.Day() + 1
	if n < 1 {
		return 1
	}
	return n
}

// ParseDate parses an ISO date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(isoDate, s)
}

// FormatDate renders t as an ISO date.
func FormatDate(t time.Time) string {
	return t.Format(isoDate)
}
