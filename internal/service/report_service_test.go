package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/cache"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/export"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/andresuchdata/storepulse/backend-go/internal/repository"
	"github.com/andresuchdata/storepulse/backend-go/internal/storage"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	gets    int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]*cache.Entry{}} }

func (c *mapCache) Get(_ context.Context, key string) (*cache.Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, e *cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

func (c *mapCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*cache.Entry{}
	return nil
}

type memoryArchive struct {
	keys []string
}

func (m *memoryArchive) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for _, k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: 1})
		}
	}
	return out, nil
}

func (m *memoryArchive) OpenObject(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryArchive) UploadObject(_ context.Context, key string, _ []byte, _ string) error {
	m.keys = append(m.keys, key)
	return nil
}

func testStore() *facts.Store {
	return facts.New(facts.Dataset{
		Streams: domain.FactStreams{
			Sales: []domain.FactTuple{
				{Date: "2026-01-01", EntityID: "S1", Value: 100},
				{Date: "2026-01-02", EntityID: "S2", Value: 40},
			},
			Transactions: []domain.FactTuple{
				{Date: "2026-01-01", EntityID: "S1", Value: 4},
			},
		},
		StoreMeta: map[string]domain.StoreMeta{
			"S1": {Name: "Riyadh Park", Manager: "Sara", City: "Riyadh", Type: domain.StoreTypeShowroom},
			"S2": {Name: "Jeddah Mall", Manager: "Omar", City: "Jeddah", Type: domain.StoreTypeShowroom},
		},
	})
}

func newTestService(t *testing.T, store *facts.Store) (*ReportService, *mapCache, repository.ReportRunRepository) {
	t.Helper()
	holder := facts.NewHolder(nil)
	if store != nil {
		holder.Set(store)
	}
	opts := report.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC) }
	c := newMapCache()
	runs := repository.NewMemoryReportRunRepository(0)
	return NewReportService(holder, c, runs, opts, export.Options{}), c, runs
}

func TestExportUsesNaturalFormatAndCaches(t *testing.T) {
	svc, c, runs := newTestService(t, testStore())
	archive := &memoryArchive{}
	svc.WithArchive(archive, "reports/")
	ctx := context.Background()
	req := report.Request{Kind: domain.ReportStoreSales}

	first, err := svc.Export(ctx, req, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if first.FileName != "Store_Sales_2026-01-01_2026-01-10.xlsx" {
		t.Fatalf("file name = %q", first.FileName)
	}
	if first.Rows != 2 {
		t.Fatalf("rows = %d, want 2", first.Rows)
	}
	if !bytes.HasPrefix(first.Data, []byte("PK")) {
		t.Fatalf("expected a zip container")
	}
	if len(archive.keys) != 1 || archive.keys[0] != "reports/store_sales/Store_Sales_2026-01-01_2026-01-10.xlsx" {
		t.Fatalf("archive keys = %v", archive.keys)
	}

	second, err := svc.Export(ctx, req, "")
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatalf("cached artefact differs")
	}
	if len(c.entries) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(c.entries))
	}
	if len(archive.keys) != 1 {
		t.Fatalf("cache hit must not re-archive, keys = %v", archive.keys)
	}

	recent, err := runs.ListRecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("runs = %d, want 2", len(recent))
	}
	cached := 0
	for _, r := range recent {
		if r.Status != domain.RunCompleted || r.Format != "xlsx" {
			t.Errorf("run %+v not completed as xlsx", r)
		}
		if r.Cached {
			cached++
		}
	}
	if cached != 1 {
		t.Fatalf("cached runs = %d, want 1", cached)
	}
}

func TestExportFormatOverride(t *testing.T) {
	svc, _, _ := newTestService(t, testStore())
	art, err := svc.Export(context.Background(), report.Request{Kind: domain.ReportStoreSales}, "JSON")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if art.FileName != "Store_Sales_2026-01-01_2026-01-10.json" || art.ContentType != "application/json" {
		t.Fatalf("artefact = %s %s", art.FileName, art.ContentType)
	}
}

func TestExportErrors(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newTestService(t, nil)
	if _, err := svc.Export(ctx, report.Request{Kind: domain.ReportStoreSales}, ""); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}

	svc, _, runs := newTestService(t, testStore())
	if _, err := svc.Export(ctx, report.Request{Kind: domain.ReportStoreSales}, "docx"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}

	req := report.Request{Kind: domain.ReportStoreSales, Filters: analytics.FilterSelection{Manager: "Nobody"}}
	if _, err := svc.Export(ctx, req, ""); !errors.Is(err, domain.ErrNoMatchingRows) {
		t.Fatalf("err = %v, want ErrNoMatchingRows", err)
	}
	recent, _ := runs.ListRecentRuns(ctx, 1)
	if len(recent) != 1 || recent[0].Status != domain.RunEmpty {
		t.Fatalf("runs = %+v, want one empty run", recent)
	}
}

func TestListings(t *testing.T) {
	svc, _, _ := newTestService(t, testStore())

	managers, err := svc.Managers()
	if err != nil {
		t.Fatalf("managers: %v", err)
	}
	if len(managers) != 2 || managers[0] != "Omar" || managers[1] != "Sara" {
		t.Fatalf("managers = %v", managers)
	}

	stores, err := svc.Stores()
	if err != nil {
		t.Fatalf("stores: %v", err)
	}
	if len(stores) != 2 || stores[0].ID != "S1" || stores[0].Name != "Riyadh Park" || stores[1].City != "Jeddah" {
		t.Fatalf("stores = %+v", stores)
	}
}

func TestArchiveAndFilterOptions(t *testing.T) {
	svc, _, _ := newTestService(t, testStore())
	ctx := context.Background()

	if list, err := svc.Archived(ctx, ""); err != nil || len(list) != 0 {
		t.Fatalf("without archive: %v %v", list, err)
	}

	archive := &memoryArchive{}
	svc.WithArchive(archive, "")
	if _, err := svc.Export(ctx, report.Request{Kind: domain.ReportStoreSales}, ""); err != nil {
		t.Fatalf("export: %v", err)
	}

	list, err := svc.Archived(ctx, domain.ReportStoreSales)
	if err != nil || len(list) != 1 {
		t.Fatalf("archived = %v, %v", list, err)
	}
	if list, _ := svc.Archived(ctx, domain.ReportStoreDaily); len(list) != 0 {
		t.Fatalf("other kind listed: %v", list)
	}

	opts, err := svc.FilterOptions()
	if err != nil {
		t.Fatalf("filter options: %v", err)
	}
	if len(opts.Cities) != 2 || opts.Cities[0] != "Jeddah" || len(opts.Regions) != 0 || opts.ProductModes == nil {
		t.Fatalf("options = %+v", opts)
	}
}
