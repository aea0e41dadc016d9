package report

// Sink receives the assembled blocks in order. Overflowed reports whether
// the current page has reached its capacity.
type Sink interface {
	Heading(h Heading) error
	Table(t *Table) error
	Overflowed() bool
	PageBreak() error
}

// DocumentSink records blocks into a Document and tracks page usage in
// printed lines.
type DocumentSink struct {
	doc      *Document
	capacity int
	used     int
}

// NewDocumentSink records into doc. A capacity <= 0 disables overflow.
func NewDocumentSink(doc *Document, capacity int) *DocumentSink {
	return &DocumentSink{doc: doc, capacity: capacity}
}

func (s *DocumentSink) Heading(h Heading) error {
	s.doc.Blocks = append(s.doc.Blocks, Block{Kind: BlockHeading, Heading: &h})
	s.used += h.lineCount()
	return nil
}

func (s *DocumentSink) Table(t *Table) error {
	s.doc.Blocks = append(s.doc.Blocks, Block{Kind: BlockTable, Table: t})
	s.used += t.Lines() + 1
	return nil
}

func (s *DocumentSink) Overflowed() bool {
	return s.capacity > 0 && s.used >= s.capacity
}

// PageBreak starts a new page. Breaking an empty page is a no-op.
func (s *DocumentSink) PageBreak() error {
	if s.used == 0 {
		return nil
	}
	s.doc.Blocks = append(s.doc.Blocks, Block{Kind: BlockPageBreak})
	s.used = 0
	return nil
}
