package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/xuri/excelize/v2"
)

const (
	maxSheetName = 31
	defaultSheet = "Sheet1"
)

// SpreadsheetRenderer writes one worksheet per document section.
type SpreadsheetRenderer struct{}

func (SpreadsheetRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (SpreadsheetRenderer) Extension() string { return "xlsx" }

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	row    int
	bold   int
	header int
	used   map[string]bool
}

func (SpreadsheetRenderer) Render(w io.Writer, doc *report.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	sw := &sheetWriter{f: f, used: make(map[string]bool)}
	var err error
	if sw.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return err
	}
	sw.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	for _, b := range doc.Blocks {
		switch b.Kind {
		case report.BlockHeading:
			if err := sw.startSheet(doc, b.Heading); err != nil {
				return err
			}
		case report.BlockTable:
			if sw.sheet == "" {
				if err := sw.startSheet(doc, &report.Heading{Title: doc.Title}); err != nil {
					return err
				}
			}
			if err := sw.table(b.Table); err != nil {
				return err
			}
		case report.BlockPageBreak:
			if sw.sheet != "" && sw.row > 1 {
				cell, _ := excelize.CoordinatesToCellName(1, sw.row)
				if err := f.InsertPageBreak(sw.sheet, cell); err != nil {
					return err
				}
			}
		}
	}

	if sw.sheet == "" {
		if err := sw.startSheet(doc, &report.Heading{Title: doc.Title}); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// startSheet opens a worksheet for a section and writes the document
// header and the section heading.
func (sw *sheetWriter) startSheet(doc *report.Document, h *report.Heading) error {
	name := sw.uniqueName(h.Title)
	if _, err := sw.f.NewSheet(name); err != nil {
		return err
	}
	sw.sheet, sw.row = name, 1

	if err := sw.line(doc.Title, sw.bold); err != nil {
		return err
	}
	for _, m := range doc.Meta {
		if err := sw.line(m, 0); err != nil {
			return err
		}
	}
	sw.row++
	if err := sw.line(h.Title, sw.bold); err != nil {
		return err
	}
	for _, l := range h.Lines {
		if err := sw.line(l, 0); err != nil {
			return err
		}
	}
	sw.row++
	return sw.f.SetColWidth(name, "A", "Z", 16)
}

func (sw *sheetWriter) line(text string, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, sw.row)
	if err != nil {
		return err
	}
	if err := sw.f.SetCellValue(sw.sheet, cell, text); err != nil {
		return err
	}
	if style != 0 {
		if err := sw.f.SetCellStyle(sw.sheet, cell, cell, style); err != nil {
			return err
		}
	}
	sw.row++
	return nil
}

func (sw *sheetWriter) table(t *report.Table) error {
	if t.Title != "" {
		if err := sw.line(t.Title, sw.bold); err != nil {
			return err
		}
	}
	if t.Caveat != "" {
		if err := sw.line(t.Caveat, 0); err != nil {
			return err
		}
	}
	if len(t.HeaderGroups) > 0 {
		col := 1
		for _, g := range t.HeaderGroups {
			first, _ := excelize.CoordinatesToCellName(col, sw.row)
			last, _ := excelize.CoordinatesToCellName(col+g.Span-1, sw.row)
			if err := sw.f.SetCellValue(sw.sheet, first, g.Label); err != nil {
				return err
			}
			if g.Span > 1 {
				if err := sw.f.MergeCell(sw.sheet, first, last); err != nil {
					return err
				}
			}
			if err := sw.f.SetCellStyle(sw.sheet, first, last, sw.header); err != nil {
				return err
			}
			col += g.Span
		}
		sw.row++
	}
	if err := sw.cells(t.Header, sw.header); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if err := sw.cells(r, 0); err != nil {
			return err
		}
	}
	if t.Totals != nil {
		if err := sw.cells(t.Totals, sw.bold); err != nil {
			return err
		}
	}
	sw.row++
	return nil
}

func (sw *sheetWriter) cells(values []string, style int) error {
	if len(values) == 0 {
		return nil
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = cellValue(v)
	}
	first, _ := excelize.CoordinatesToCellName(1, sw.row)
	if err := sw.f.SetSheetRow(sw.sheet, first, &row); err != nil {
		return err
	}
	if style != 0 {
		last, _ := excelize.CoordinatesToCellName(len(values), sw.row)
		if err := sw.f.SetCellStyle(sw.sheet, first, last, style); err != nil {
			return err
		}
	}
	sw.row++
	return nil
}

// cellValue stores plain formatted numbers ("1,234") as numbers so the
// sheet can be summed. Dates, percentages, dashes and zero-padded ids stay
// text.
func cellValue(s string) interface{} {
	plain := strings.ReplaceAll(s, ",", "")
	digits := strings.TrimPrefix(plain, "-")
	if digits == "" || strings.Trim(digits, "0123456789.") != "" {
		return s
	}
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return s
	}
	if v, err := strconv.ParseFloat(plain, 64); err == nil {
		return v
	}
	return s
}

// uniqueName turns a title into a valid, unused sheet name.
func (sw *sheetWriter) uniqueName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return ' '
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" || strings.EqualFold(name, defaultSheet) {
		name = "Report"
	}

	base := truncateRunes(name, maxSheetName)
	name = base
	for i := 2; sw.used[strings.ToLower(name)]; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	sw.used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
