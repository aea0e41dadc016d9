package pipeline

import (
	"context"
	"fmt"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
)

// Orchestrator plans the daily report set over the loaded facts and runs
// it through a Runner.
type Orchestrator struct {
	cfg   BatchConfig
	makeR func(exporter Exporter, writer *ArtifactWriter, cfg BatchConfig) *Runner
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg BatchConfig) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		makeR: NewRunner,
	}
}

// Plan lists the daily jobs: the store and employee documents, the
// all-store product analysis and one product analysis per store that has
// product data.
func Plan(store *facts.Store, asOf string, user domain.User) []Job {
	base := report.Request{AsOf: asOf, User: user}

	var jobs []Job
	add := func(req report.Request, format report.Format) {
		jobs = append(jobs, Job{ID: len(jobs) + 1, Request: req, Format: format})
	}

	for _, kind := range []domain.ReportKind{domain.ReportStoreDaily, domain.ReportEmployeeMTD, domain.ReportProductAnalysis} {
		req := base
		req.Kind = kind
		add(req, report.FormatPDF)
	}

	if period, ok := store.ProductPeriod(report.DefaultProductMode); ok {
		ids := make([]string, 0, len(period.Stores))
		for id := range period.Stores {
			ids = append(ids, id)
		}
		facts.SortIDs(ids)
		for _, id := range ids {
			req := base
			req.Kind = domain.ReportProductAnalysis
			req.StoreID = id
			add(req, report.FormatPDF)
		}
	}

	sales := base
	sales.Kind = domain.ReportStoreSales
	add(sales, report.FormatXLSX)
	return jobs
}

// Run executes jobs and writes artefacts into the configured output dir.
func (o *Orchestrator) Run(ctx context.Context, exporter Exporter, jobs []Job) ([]Outcome, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	runner := o.makeR(exporter, NewArtifactWriter(o.cfg), o.cfg)
	outcomes, err := runner.Run(ctx, jobs)
	if err != nil {
		return outcomes, fmt.Errorf("batch %s: %w", o.cfg.Name, err)
	}
	return outcomes, nil
}
