// Package export renders assembled report documents into files.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andresuchdata/storepulse/backend-go/internal/report"
)

// Renderer writes a document in one output format.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, doc *report.Document) error
}

// Options configure the renderers.
type Options struct {
	// FontPath points at a UTF-8 TrueType font for PDF output. Without it
	// the core Helvetica font is used, which cannot draw Arabic text.
	FontPath   string
	FontFamily string
}

// For returns the renderer for format.
func For(format report.Format, opts Options) (Renderer, error) {
	switch format {
	case report.FormatXLSX:
		return SpreadsheetRenderer{}, nil
	case report.FormatPDF:
		return PDFRenderer{opts: opts}, nil
	case report.FormatJSON:
		return JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// Artifact is a rendered file.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
	Pages       int
}

// Render renders doc in format into memory. The file name keeps the
// document's base name with the extension of format.
func Render(doc *report.Document, format report.Format, opts Options) (*Artifact, error) {
	r, err := For(format, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return &Artifact{
		FileName:    FileName(doc.FileName, r.Extension()),
		ContentType: r.ContentType(),
		Data:        buf.Bytes(),
		Rows:        doc.RowCount(),
		Pages:       doc.Pages(),
	}, nil
}

// FileName swaps the extension of name for ext.
func FileName(name, ext string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i] + "." + ext
		}
		if name[i] == '/' {
			break
		}
	}
	return name + "." + ext
}
