package analytics

import "math"

// All KPI functions are pure and guard their denominators: a zero
// denominator yields the documented default instead of Inf or NaN.

// AvgTicket = sales / transactions, 0 without transactions.
func AvgTicket(sales, trans float64) float64 {
	return safeDiv(sales, trans)
}

// CustomerValue = sales / visitors, 0 without visitors.
func CustomerValue(sales, visitors float64) float64 {
	return safeDiv(sales, visitors)
}

// ConversionRate = transactions / visitors x 100, 0 without visitors.
func ConversionRate(trans, visitors float64) float64 {
	return safeDiv(trans, visitors) * 100
}

// Growth = (current - base) / base x 100. A zero base has no defined
// growth: ok is false and callers render a dash, whatever current is.
func Growth(current, base float64) (pct float64, ok bool) {
	if base == 0 {
		return 0, false
	}
	return (current - base) / base * 100, true
}

// ContributionShare = part / total x 100, 0 when total is 0.
func ContributionShare(part, total float64) float64 {
	return safeDiv(part, total) * 100
}

// Achievement = sales / target x 100, 0 without a target.
func Achievement(sales, target float64) float64 {
	return safeDiv(sales, target) * 100
}

// Remaining = max(0, target - sales).
func Remaining(target, sales float64) float64 {
	return math.Max(0, target-sales)
}

// DailyRequired spreads remaining over daysLeft; 0 when no days are left.
func DailyRequired(remaining float64, daysLeft int) float64 {
	if daysLeft <= 0 {
		return 0
	}
	return remaining / float64(daysLeft)
}

// KPIs is the ratio set derived from one Measures record.
type KPIs struct {
	AvgTicket     float64 `json:"avg_ticket"`
	CustomerValue float64 `json:"customer_value"`
	Conversion    float64 `json:"conversion"`
	Achievement   float64 `json:"achievement"`
	Remaining     float64 `json:"remaining"`
}

// Derive computes KPIs from sums. Totals rows must call it on summed
// measures, never average per-row KPIs.
func Derive(m Measures) KPIs {
	return KPIs{
		AvgTicket:     AvgTicket(m.Sales, m.Trans),
		CustomerValue: CustomerValue(m.Sales, m.Visitors),
		Conversion:    ConversionRate(m.Trans, m.Visitors),
		Achievement:   Achievement(m.Sales, m.Target),
		Remaining:     Remaining(m.Target, m.Sales),
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
