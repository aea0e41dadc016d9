package report

import "github.com/andresuchdata/storepulse/backend-go/internal/domain"

// Format is the natural output format of a document.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// ParseFormat accepts xlsx, pdf and json (case-insensitive).
func ParseFormat(s string) (Format, bool) {
	switch Format(lower(s)) {
	case FormatXLSX:
		return FormatXLSX, true
	case FormatPDF:
		return FormatPDF, true
	case FormatJSON:
		return FormatJSON, true
	}
	return "", false
}

// HeaderGroup spans Span columns above the header row.
type HeaderGroup struct {
	Label string `json:"label"`
	Span  int    `json:"span"`
}

// Table is a matrix of formatted cells with a header row and an optional
// totals row.
type Table struct {
	Title        string        `json:"title,omitempty"`
	Caveat       string        `json:"caveat,omitempty"`
	HeaderGroups []HeaderGroup `json:"header_groups,omitempty"`
	Header       []string      `json:"header"`
	Rows         [][]string    `json:"rows"`
	Totals       []string      `json:"totals,omitempty"`
}

// Lines is the number of printed lines the table occupies.
func (t *Table) Lines() int {
	n := 1 + len(t.Rows)
	if t.Title != "" {
		n++
	}
	if t.Caveat != "" {
		n++
	}
	if len(t.HeaderGroups) > 0 {
		n++
	}
	if t.Totals != nil {
		n++
	}
	return n
}

// Heading opens a section.
type Heading struct {
	Title string   `json:"title"`
	Lines []string `json:"lines,omitempty"`
}

func (h Heading) lineCount() int { return 1 + len(h.Lines) }

type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockTable     BlockKind = "table"
	BlockPageBreak BlockKind = "page_break"
)

// Block is one element of the document stream.
type Block struct {
	Kind    BlockKind `json:"kind"`
	Heading *Heading  `json:"heading,omitempty"`
	Table   *Table    `json:"table,omitempty"`
}

// Document is the assembled, render-ready report.
type Document struct {
	Kind      domain.ReportKind `json:"kind"`
	Title     string            `json:"title"`
	Meta      []string          `json:"meta,omitempty"`
	FileName  string            `json:"file_name"`
	Format    Format            `json:"format"`
	Landscape bool              `json:"landscape"`
	Blocks    []Block           `json:"blocks"`
}

// Tables returns every table in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.Blocks {
		if b.Kind == BlockTable {
			out = append(out, b.Table)
		}
	}
	return out
}

// Pages counts pages as separated by page-break markers.
func (d *Document) Pages() int {
	if len(d.Blocks) == 0 {
		return 0
	}
	n := 1
	for _, b := range d.Blocks {
		if b.Kind == BlockPageBreak {
			n++
		}
	}
	return n
}

// RowCount sums data rows across tables.
func (d *Document) RowCount() int {
	n := 0
	for _, t := range d.Tables() {
		n += len(t.Rows)
	}
	return n
}
