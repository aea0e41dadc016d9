package report

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{0, 0, "0"},
		{999.6, 0, "1,000"},
		{1234.5, 1, "1,234.5"},
		{1234567.891, 0, "1,234,568"},
		{-45210.25, 0, "-45,210"},
		{-0.04, 1, "0.0"},
		{12.346, 2, "12.35"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.v, tt.decimals); got != tt.want {
			t.Errorf("formatNumber(%v, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
		}
	}
}

func TestGrowthCell(t *testing.T) {
	tests := []struct {
		cur, base float64
		want      string
	}{
		{120, 100, "+20.0%"},
		{80, 100, "-20.0%"},
		{100, 100, "0.0%"},
		{500, 0, NotApplicable},
		{0, 0, NotApplicable},
	}
	for _, tt := range tests {
		if got := GrowthCell(tt.cur, tt.base); got != tt.want {
			t.Errorf("GrowthCell(%v, %v) = %q, want %q", tt.cur, tt.base, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat(" PDF "); !ok || f != FormatPDF {
		t.Errorf("ParseFormat(PDF) = %q, %v", f, ok)
	}
	if _, ok := ParseFormat("csv"); ok {
		t.Error("csv accepted")
	}
}
