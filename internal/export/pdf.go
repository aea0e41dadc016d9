package export

import (
	"io"

	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 10.0
	pdfLineHeight = 6.0
	pdfFontSize   = 8.0
	defaultFamily = "Helvetica"
)

// PDFRenderer draws the document page by page, honoring the page breaks
// the assembler placed.
type PDFRenderer struct {
	opts Options
}

func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Extension() string { return "pdf" }

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	width  float64
}

func (r PDFRenderer) Render(w io.Writer, doc *report.Document) error {
	orientation := "P"
	if doc.Landscape {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(doc.Title, true)

	pw := &pdfWriter{pdf: pdf, family: defaultFamily, tr: func(s string) string { return s }}
	if r.opts.FontPath != "" {
		pw.family = r.opts.FontFamily
		if pw.family == "" {
			pw.family = "Report"
		}
		pdf.AddUTF8Font(pw.family, "", r.opts.FontPath)
		pdf.AddUTF8Font(pw.family, "B", r.opts.FontPath)
	} else {
		pw.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pageWidth, _ := pdf.GetPageSize()
	pw.width = pageWidth - 2*pdfMargin

	pdf.AddPage()
	pw.title(doc)
	for _, b := range doc.Blocks {
		switch b.Kind {
		case report.BlockHeading:
			pw.heading(b.Heading)
		case report.BlockTable:
			pw.table(b.Table)
		case report.BlockPageBreak:
			pdf.AddPage()
		}
		if err := pdf.Error(); err != nil {
			return err
		}
	}
	return pdf.Output(w)
}

func (pw *pdfWriter) title(doc *report.Document) {
	pw.pdf.SetFont(pw.family, "B", 14)
	pw.pdf.CellFormat(pw.width, 8, pw.tr(doc.Title), "", 1, "L", false, 0, "")
	pw.pdf.SetFont(pw.family, "", pdfFontSize)
	for _, m := range doc.Meta {
		pw.pdf.CellFormat(pw.width, 5, pw.tr(m), "", 1, "L", false, 0, "")
	}
	pw.pdf.Ln(3)
}

func (pw *pdfWriter) heading(h *report.Heading) {
	pw.pdf.SetFont(pw.family, "B", 11)
	pw.pdf.CellFormat(pw.width, 7, pw.tr(h.Title), "", 1, "L", false, 0, "")
	pw.pdf.SetFont(pw.family, "", pdfFontSize)
	for _, l := range h.Lines {
		pw.pdf.CellFormat(pw.width, 5, pw.tr(l), "", 1, "L", false, 0, "")
	}
	pw.pdf.Ln(2)
}

func (pw *pdfWriter) table(t *report.Table) {
	if len(t.Header) == 0 {
		return
	}
	colWidth := pw.width / float64(len(t.Header))

	if t.Title != "" {
		pw.pdf.SetFont(pw.family, "B", 9)
		pw.pdf.CellFormat(pw.width, pdfLineHeight, pw.tr(t.Title), "", 1, "L", false, 0, "")
	}
	if t.Caveat != "" {
		pw.pdf.SetFont(pw.family, "", 7)
		pw.pdf.CellFormat(pw.width, 5, pw.tr(t.Caveat), "", 1, "L", false, 0, "")
	}

	pw.pdf.SetFont(pw.family, "B", pdfFontSize)
	pw.pdf.SetFillColor(217, 225, 242)
	if len(t.HeaderGroups) > 0 {
		for _, g := range t.HeaderGroups {
			pw.pdf.CellFormat(colWidth*float64(g.Span), pdfLineHeight, pw.tr(g.Label), "1", 0, "C", true, 0, "")
		}
		pw.pdf.Ln(-1)
	}
	pw.row(t.Header, colWidth, true)

	pw.pdf.SetFont(pw.family, "", pdfFontSize)
	for _, r := range t.Rows {
		pw.row(r, colWidth, false)
	}
	if t.Totals != nil {
		pw.pdf.SetFont(pw.family, "B", pdfFontSize)
		pw.row(t.Totals, colWidth, true)
		pw.pdf.SetFont(pw.family, "", pdfFontSize)
	}
	pw.pdf.Ln(3)
}

func (pw *pdfWriter) row(cells []string, colWidth float64, fill bool) {
	for _, c := range cells {
		pw.pdf.CellFormat(colWidth, pdfLineHeight, pw.tr(c), "1", 0, "C", fill, 0, "")
	}
	pw.pdf.Ln(-1)
}
