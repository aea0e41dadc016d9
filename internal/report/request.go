package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// Sections toggles the parts of a product analysis.
type Sections struct {
	Performance     bool `json:"performance"`
	Advanced        bool `json:"advanced"`
	StoreBreakdown  bool `json:"store_breakdown"`
	CategoryDetails bool `json:"category_details"`
}

// AllSections enables every product analysis part.
func AllSections() Sections {
	return Sections{Performance: true, Advanced: true, StoreBreakdown: true, CategoryDetails: true}
}

// Request describes one report generation.
type Request struct {
	Kind    domain.ReportKind         `json:"kind"`
	Filters analytics.FilterSelection `json:"filters"`
	// StoreID scopes product analysis to one store; empty or "all" means
	// every store passing Filters.
	StoreID     string             `json:"store_id,omitempty"`
	Mode        string             `json:"mode,omitempty"`
	Detailed    bool               `json:"detailed,omitempty"`
	SummaryOnly bool               `json:"summary_only,omitempty"`
	Sections    *Sections          `json:"sections,omitempty"`
	User        domain.User        `json:"user"`
	Targets     map[string]float64 `json:"targets,omitempty"`
	Month       string             `json:"month,omitempty"`
	AsOf        string             `json:"as_of,omitempty"`
}

// DefaultProductMode is the product period used when none is requested.
const DefaultProductMode = "mtd"

// normalize fills defaults and resolves the reference date.
func (r Request) normalize(now time.Time, loc *time.Location) (Request, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	r.Filters = r.Filters.Normalize()
	r.StoreID = strings.TrimSpace(r.StoreID)
	if r.StoreID == "" || strings.EqualFold(r.StoreID, analytics.All) {
		r.StoreID = analytics.All
	}
	if r.Mode == "" {
		r.Mode = DefaultProductMode
	}
	if r.Sections == nil {
		all := AllSections()
		r.Sections = &all
	}

	asOf := now.In(loc)
	if r.AsOf != "" {
		t, err := time.ParseInLocation("2006-01-02", r.AsOf, loc)
		if err != nil {
			return r, time.Time{}, fmt.Errorf("%w: as_of %q is not an ISO date", domain.ErrInvalidRequest, r.AsOf)
		}
		asOf = t
	}
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, loc)

	if (r.Filters.Start == "") != (r.Filters.End == "") {
		return r, time.Time{}, fmt.Errorf("%w: start and end must be given together", domain.ErrInvalidRequest)
	}
	if r.Filters.Start != "" {
		if _, err := analytics.ParseDate(r.Filters.Start); err != nil {
			return r, time.Time{}, fmt.Errorf("%w: start %q is not an ISO date", domain.ErrInvalidRequest, r.Filters.Start)
		}
		if _, err := analytics.ParseDate(r.Filters.End); err != nil {
			return r, time.Time{}, fmt.Errorf("%w: end %q is not an ISO date", domain.ErrInvalidRequest, r.Filters.End)
		}
		if r.Filters.Start > r.Filters.End {
			return r, time.Time{}, fmt.Errorf("%w: start is after end", domain.ErrInvalidRequest)
		}
	}
	if r.Month != "" {
		if _, err := analytics.ParseMonth(r.Month); err != nil {
			return r, time.Time{}, fmt.Errorf("%w: month %q is not YYYY-MM", domain.ErrInvalidRequest, r.Month)
		}
	}
	return r, asOf, nil
}

// rangeOrMTD returns the requested range, or month-to-date when none.
func (r Request) rangeOrMTD(asOf time.Time) analytics.Period {
	if r.Filters.Start != "" {
		return analytics.Period{Start: r.Filters.Start, End: r.Filters.End}
	}
	return analytics.MonthToDate(asOf)
}
