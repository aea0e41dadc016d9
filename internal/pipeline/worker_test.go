package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/export"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
)

type fakeExporter struct {
	mu    sync.Mutex
	calls map[domain.ReportKind]int
	errs  map[domain.ReportKind]error
}

func (f *fakeExporter) Export(ctx context.Context, req report.Request, format report.Format) (*export.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[domain.ReportKind]int)
	}
	f.calls[req.Kind]++
	if err := f.errs[req.Kind]; err != nil {
		return nil, err
	}
	name := string(req.Kind)
	if req.StoreID != "" {
		name += "_" + req.StoreID
	}
	return &export.Artifact{FileName: name + "." + string(format), Data: []byte("data"), Rows: 3}, nil
}

func testConfig(t *testing.T) BatchConfig {
	cfg := DefaultBatchConfig("test")
	cfg.OutputDir = t.TempDir()
	cfg.WorkerCount = 3
	cfg.BatchSize = 2
	cfg.RetryAttempts = 2
	cfg.RetryBackoff = 0
	return cfg
}

func TestRunnerOutcomes(t *testing.T) {
	cfg := testConfig(t)
	exp := &fakeExporter{errs: map[domain.ReportKind]error{
		domain.ReportEmployeeMTD:   domain.ErrNoMatchingRows,
		domain.ReportTargetSetting: errors.New("render failed"),
		domain.ReportStoreSales:    domain.ErrInvalidRequest,
	}}
	jobs := []Job{
		{ID: 1, Request: report.Request{Kind: domain.ReportStoreDaily}, Format: report.FormatPDF},
		{ID: 2, Request: report.Request{Kind: domain.ReportEmployeeMTD}, Format: report.FormatPDF},
		{ID: 3, Request: report.Request{Kind: domain.ReportTargetSetting}, Format: report.FormatXLSX},
		{ID: 4, Request: report.Request{Kind: domain.ReportStoreSales}, Format: report.FormatXLSX},
		{ID: 5, Request: report.Request{Kind: domain.ReportProductAnalysis, StoreID: "S1"}, Format: report.FormatPDF},
	}

	outcomes, err := NewRunner(exp, NewArtifactWriter(cfg), cfg).Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []domain.RunStatus{domain.RunCompleted, domain.RunEmpty, domain.RunFailed, domain.RunFailed, domain.RunCompleted}
	for i, o := range outcomes {
		if o.Job.ID != jobs[i].ID || o.Status != want[i] {
			t.Errorf("outcome %d = job %d %s, want job %d %s", i, o.Job.ID, o.Status, jobs[i].ID, want[i])
		}
	}
	if outcomes[2].Attempts != 2 {
		t.Errorf("transient failure attempts = %d, want 2", outcomes[2].Attempts)
	}
	if outcomes[3].Attempts != 1 {
		t.Errorf("invalid request attempts = %d, want 1", outcomes[3].Attempts)
	}

	for _, name := range []string{"store_daily.pdf", "product_analysis_S1.pdf"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Errorf("artefact %s not written: %v", name, err)
		}
	}
	if got := outcomes[4].Path; got != filepath.Join(cfg.OutputDir, "product_analysis_S1.pdf") {
		t.Errorf("Path = %q", got)
	}

	manifests, _ := filepath.Glob(filepath.Join(cfg.OutputDir, "manifest_*.csv"))
	if len(manifests) != 1 {
		t.Fatalf("manifests = %v", manifests)
	}
	raw, _ := os.ReadFile(manifests[0])
	if lines := strings.Count(string(raw), "\n"); lines != len(jobs)+1 {
		t.Errorf("manifest has %d lines, want %d", lines, len(jobs)+1)
	}

	m := Summarize(outcomes)
	if m.Completed != 2 || m.Empty != 1 || m.Failed != 2 || m.Rows != 6 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := testConfig(t)
	jobs := []Job{{ID: 1, Request: report.Request{Kind: domain.ReportStoreDaily}, Format: report.FormatPDF}}

	outcomes, err := NewRunner(&fakeExporter{}, nil, cfg).Run(ctx, jobs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if outcomes[0].Status != domain.RunFailed {
		t.Errorf("status = %s, want failed", outcomes[0].Status)
	}
}

func TestPlan(t *testing.T) {
	store := facts.New(facts.Dataset{
		Products: map[string]domain.ProductPeriod{
			report.DefaultProductMode: {Stores: map[string]domain.StoreCategories{"12": {}, "3": {}}},
		},
	})
	jobs := Plan(store, "2026-01-11", domain.User{Role: domain.RoleAdmin})

	var labels []string
	for i, j := range jobs {
		if j.ID != i+1 || j.Request.AsOf != "2026-01-11" {
			t.Errorf("job %d = %+v", i, j)
		}
		labels = append(labels, j.Label())
	}
	want := "store_daily|employee_mtd|product_analysis|product_analysis/3|product_analysis/12|store_sales"
	if got := strings.Join(labels, "|"); got != want {
		t.Errorf("plan = %s, want %s", got, want)
	}
}
