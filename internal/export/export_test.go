package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/xuri/excelize/v2"
)

func sampleDocument() *report.Document {
	return &report.Document{
		Kind:     domain.ReportStoreDaily,
		Title:    "Store Daily Sales",
		Meta:     []string{"Period: 2026-01-01 to 2026-01-10"},
		FileName: "Sales_Report_2026-01-11.pdf",
		Format:   report.FormatPDF,
		Blocks: []report.Block{
			{Kind: report.BlockHeading, Heading: &report.Heading{Title: "Sales Summary"}},
			{Kind: report.BlockTable, Table: &report.Table{
				Title:  "Store Leaderboard",
				Header: []string{"#", "Store", "Sales", "Growth"},
				Rows:   [][]string{{"1", "Riyadh Park", "1,300", "+25.0%"}, {"2", "Jeddah Mall", "50", report.NotApplicable}},
				Totals: []string{"Total", "", "1,350", "+68.8%"},
			}},
			{Kind: report.BlockPageBreak},
			{Kind: report.BlockHeading, Heading: &report.Heading{Title: "Riyadh Park", Lines: []string{"Manager: Sara"}}},
			{Kind: report.BlockTable, Table: &report.Table{
				HeaderGroups: []report.HeaderGroup{{Label: "", Span: 1}, {Label: "Month to date", Span: 2}},
				Header:       []string{"Date", "Sales", "Trans"},
				Rows:         [][]string{{"2026-01-01", "100", "5"}},
			}},
			{Kind: report.BlockHeading, Heading: &report.Heading{Title: "Riyadh Park"}},
		},
	}
}

func TestSpreadsheetRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (SpreadsheetRenderer{}).Render(&buf, sampleDocument()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Sales Summary", "Riyadh Park", "Riyadh Park (2)"}
	if strings.Join(sheets, "|") != strings.Join(want, "|") {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}

	rows, err := f.GetRows("Sales Summary")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	found := false
	for _, r := range rows {
		if len(r) == 4 && r[1] == "Riyadh Park" {
			found = true
			if r[2] != "1300" || r[3] != "+25.0%" {
				t.Errorf("leaderboard row = %v", r)
			}
		}
	}
	if !found {
		t.Fatalf("leaderboard row missing from %v", rows)
	}

	v, err := f.GetCellValue("Sales Summary", "A1")
	if err != nil || v != "Store Daily Sales" {
		t.Errorf("A1 = %q, %v", v, err)
	}
}

func TestPDFRenderer(t *testing.T) {
	var buf bytes.Buffer
	doc := sampleDocument()
	doc.Landscape = true
	if err := (PDFRenderer{}).Render(&buf, doc); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header: %q", buf.Bytes()[:8])
	}
}

func TestRenderArtifact(t *testing.T) {
	a, err := Render(sampleDocument(), report.FormatJSON, Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if a.FileName != "Sales_Report_2026-01-11.json" || a.ContentType != "application/json" {
		t.Errorf("artifact = %s %s", a.FileName, a.ContentType)
	}
	if !bytes.Contains(a.Data, []byte(`"file_name": "Sales_Report_2026-01-11.pdf"`)) {
		t.Errorf("json output missing file name: %s", a.Data)
	}

	if _, err := Render(sampleDocument(), "csv", Options{}); err == nil {
		t.Error("csv format accepted")
	}
}

func TestCellValue(t *testing.T) {
	tests := map[string]interface{}{
		"1,234":      float64(1234),
		"-45":        float64(-45),
		"2026-01-01": "2026-01-01",
		"25.0%":      "25.0%",
		"007":        "007",
		"-":          "-",
		"Inf":        "Inf",
	}
	for in, want := range tests {
		if got := cellValue(in); got != want {
			t.Errorf("cellValue(%q) = %#v, want %#v", in, got, want)
		}
	}
}
