package report

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
)

// Options are the engine settings shared by every report.
type Options struct {
	PageCapacity     int
	ReturnToken      string
	ExcludedStoreIDs []string
	Location         *time.Location
	Now              func() time.Time
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		PageCapacity:     38,
		ExcludedStoreIDs: []string{"0", "9999"},
		Location:         time.UTC,
		Now:              time.Now,
	}
}

// env is what a builder reads: one Store snapshot for the whole generation.
type env struct {
	store *facts.Store
	opts  Options
	asOf  time.Time
	req   Request
}

type builder func(ctx context.Context, e env) (*Document, error)

var builders = map[domain.ReportKind]builder{
	domain.ReportStoreSales:      buildStoreSales,
	domain.ReportEmployeeSales:   buildEmployeeSales,
	domain.ReportStoreDaily:      buildStoreDaily,
	domain.ReportEmployeeMTD:     buildEmployeeMTD,
	domain.ReportProductAnalysis: buildProductAnalysis,
	domain.ReportTargetSetting:   buildTargetSetting,
}

// Generate assembles the document for req from store. It returns
// ErrDataUnavailable without a store and ErrNoMatchingRows when the
// selection is empty; no partial document is returned with an error.
func Generate(ctx context.Context, store *facts.Store, req Request, opts Options) (*Document, error) {
	b, ok := builders[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownReport, req.Kind)
	}
	if store == nil {
		return nil, domain.ErrDataUnavailable
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	norm, asOf, err := req.normalize(opts.Now(), opts.Location)
	if err != nil {
		return nil, err
	}

	doc, err := b(ctx, env{store: store, opts: opts, asOf: asOf, req: norm})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (e env) newDocument(title, fileName string, format Format, meta ...string) *Document {
	return &Document{
		Kind:      e.req.Kind,
		Title:     title,
		Meta:      meta,
		FileName:  fileName,
		Format:    format,
		Landscape: format == FormatPDF,
	}
}

// compose assembles c into doc through a page-tracking sink.
func (e env) compose(ctx context.Context, doc *Document, c Composition) (*Document, error) {
	a := NewAssembler(NewDocumentSink(doc, e.opts.PageCapacity))
	if err := a.Compose(ctx, c); err != nil {
		return nil, err
	}
	return doc, nil
}

func (e env) resolver() *analytics.EntityIDResolver {
	return analytics.NewEntityIDResolver(e.store.EmployeeNames(), e.opts.ReturnToken)
}

func (e env) exportLine() string {
	line := "Exported: " + analytics.FormatDate(e.opts.Now().In(e.location()))
	if e.req.User.Name != "" {
		line += " | User: " + e.req.User.Name
	}
	return line
}

func (e env) meta(id string) domain.StoreMeta {
	m, _ := e.store.Meta(id)
	return m
}

func (e env) location() *time.Location {
	if e.opts.Location == nil {
		return time.UTC
	}
	return e.opts.Location
}

// visibleStores applies the filters and, for non-admin users with a name,
// restricts to the stores they manage. Stores without metadata only pass
// when every dimension filter is "all".
func (e env) visibleStores(sel analytics.FilterSelection) []string {
	return analytics.FilterEntities(e.store.EntityIDs(), e.storePredicate(sel))
}

func (e env) storePredicate(sel analytics.FilterSelection) analytics.EntityPredicate {
	if !e.req.User.IsAdmin() && e.req.User.Name != "" {
		sel.Manager = e.req.User.Name
	}
	return analytics.BuildEntityPredicate(sel, e.store.StoreMeta())
}

func setOf(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// scoped builds a predicate over a fixed entity set and period.
func scoped(set map[string]struct{}, p analytics.Period) analytics.Predicate {
	return func(id, date string) bool {
		if !p.Contains(date) {
			return false
		}
		_, ok := set[id]
		return ok
	}
}
