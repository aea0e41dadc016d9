package export

import (
	"io"

	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/goccy/go-json"
)

// JSONRenderer emits the document structure itself.
type JSONRenderer struct{}

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Extension() string { return "json" }

func (JSONRenderer) Render(w io.Writer, doc *report.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
