package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/cache"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/export"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/andresuchdata/storepulse/backend-go/internal/repository"
	"github.com/andresuchdata/storepulse/backend-go/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const cacheVersion = "v1"

// StoreSummary is one row of the store listing.
type StoreSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Manager string `json:"manager,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Type    string `json:"type,omitempty"`
}

// FilterOptions are the values a client can offer in its filter controls.
type FilterOptions struct {
	Managers       []string  `json:"managers"`
	Regions        []string  `json:"regions"`
	Cities         []string  `json:"cities"`
	ProductModes   []string  `json:"product_modes"`
	DatasetVersion string    `json:"dataset_version"`
	LoadedAt       time.Time `json:"loaded_at"`
}

// ArchivedReport is one artefact in the object storage archive.
type ArchivedReport struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ReportService turns requests into rendered reports. The dataset comes from
// the holder; rendered artefacts are cached, archived and audited.
type ReportService struct {
	holder        *facts.Holder
	cache         cache.ReportCache
	runs          repository.ReportRunRepository
	archive       storage.ObjectStorage
	archivePrefix string
	opts          report.Options
	exportOpts    export.Options
}

func NewReportService(holder *facts.Holder, cacheImpl cache.ReportCache, runs repository.ReportRunRepository, opts report.Options, exportOpts export.Options) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	if runs == nil {
		runs = repository.NewMemoryReportRunRepository(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &ReportService{
		holder:     holder,
		cache:      cacheImpl,
		runs:       runs,
		opts:       opts,
		exportOpts: exportOpts,
	}
}

// WithArchive uploads every freshly rendered artefact under prefix.
func (s *ReportService) WithArchive(store storage.ObjectStorage, prefix string) *ReportService {
	if prefix == "" {
		prefix = "reports/"
	}
	s.archive = store
	s.archivePrefix = prefix
	return s
}

// Generate assembles the document without rendering it.
func (s *ReportService) Generate(ctx context.Context, req report.Request) (*report.Document, error) {
	store, err := s.holder.Current()
	if err != nil {
		return nil, err
	}
	return report.Generate(ctx, store, s.pin(req), s.opts)
}

// Export renders req in format, serving from cache when possible. An empty
// format selects the document's natural one.
func (s *ReportService) Export(ctx context.Context, req report.Request, format report.Format) (*export.Artifact, error) {
	if format != "" {
		f, ok := report.ParseFormat(string(format))
		if !ok {
			return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidRequest, format)
		}
		format = f
	}

	store, err := s.holder.Current()
	if err != nil {
		return nil, err
	}
	req = s.pin(req)

	run := &domain.ReportRun{
		ID:             uuid.NewString(),
		Kind:           req.Kind,
		Format:         string(format),
		Status:         domain.RunRunning,
		StoreIDs:       runStoreIDs(req),
		UserName:       req.User.Name,
		DatasetVersion: store.Version(),
		StartedAt:      time.Now(),
	}
	s.createRun(ctx, run)

	artifact, err := s.export(ctx, store, req, format, run)
	switch {
	case errors.Is(err, domain.ErrNoMatchingRows):
		run.Finish(domain.RunEmpty, err)
	case err != nil:
		run.Finish(domain.RunFailed, err)
	default:
		run.FileName = artifact.FileName
		run.Rows = artifact.Rows
		run.Pages = artifact.Pages
		run.Finish(domain.RunCompleted, nil)
	}
	s.updateRun(ctx, run)

	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (s *ReportService) export(ctx context.Context, store *facts.Store, req report.Request, format report.Format, run *domain.ReportRun) (*export.Artifact, error) {
	key, err := cache.BuildReportKey(string(req.Kind), string(format), cacheVersion+":"+store.Version(), req)
	if err != nil {
		log.Warn().Err(err).Msg("report: cache key failed")
	}

	if key != "" {
		if entry, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			run.Cached = true
			run.Format = strings.TrimPrefix(path.Ext(entry.FileName), ".")
			return &export.Artifact{
				FileName:    entry.FileName,
				ContentType: entry.ContentType,
				Data:        entry.Data,
				Rows:        entry.Rows,
			}, nil
		} else if err != nil {
			log.Warn().Err(err).Str("kind", string(req.Kind)).Msg("report: cache get failed")
		}
	}

	doc, err := report.Generate(ctx, store, req, s.opts)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = doc.Format
	}
	run.Format = string(format)

	artifact, err := export.Render(doc, format, s.exportOpts)
	if err != nil {
		return nil, err
	}

	if key != "" {
		entry := &cache.Entry{
			FileName:    artifact.FileName,
			ContentType: artifact.ContentType,
			Rows:        artifact.Rows,
			Data:        artifact.Data,
		}
		if err := s.cache.Set(ctx, key, entry); err != nil {
			log.Warn().Err(err).Str("kind", string(req.Kind)).Msg("report: cache set failed")
		}
	}

	if s.archive != nil {
		objectKey := path.Join(s.archivePrefix, string(req.Kind), artifact.FileName)
		if err := s.archive.UploadObject(ctx, objectKey, artifact.Data, artifact.ContentType); err != nil {
			log.Warn().Err(err).Str("key", objectKey).Msg("report: archive upload failed")
		} else {
			run.ObjectKey = objectKey
		}
	}

	return artifact, nil
}

// pin fixes the reference date so the cache key of a request is stable
// within a day and changes across days.
func (s *ReportService) pin(req report.Request) report.Request {
	if req.AsOf == "" {
		req.AsOf = s.opts.Now().In(s.opts.Location).Format("2006-01-02")
	}
	return req
}

func (s *ReportService) createRun(ctx context.Context, run *domain.ReportRun) {
	if err := s.runs.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("run", run.ID).Msg("report: record run failed")
	}
}

func (s *ReportService) updateRun(ctx context.Context, run *domain.ReportRun) {
	// The request context may already be cancelled; the audit row should still land.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("run", run.ID).Msg("report: update run failed")
	}
}

func runStoreIDs(req report.Request) []string {
	switch {
	case req.StoreID != "" && req.StoreID != analytics.All:
		return []string{req.StoreID}
	case req.Filters.Branch != "" && req.Filters.Branch != analytics.All:
		return []string{req.Filters.Branch}
	}
	return nil
}

// Runs lists recent report runs, newest first.
func (s *ReportService) Runs(ctx context.Context, limit int) ([]domain.ReportRun, error) {
	return s.runs.ListRecentRuns(ctx, limit)
}

// Managers lists the distinct store managers of the current dataset.
func (s *ReportService) Managers() ([]string, error) {
	store, err := s.holder.Current()
	if err != nil {
		return nil, err
	}
	return store.Managers(), nil
}

// FilterOptions lists the distinct filter values of the current dataset.
func (s *ReportService) FilterOptions() (*FilterOptions, error) {
	store, err := s.holder.Current()
	if err != nil {
		return nil, err
	}
	return &FilterOptions{
		Managers:       nonNil(store.Managers()),
		Regions:        nonNil(store.Regions()),
		Cities:         nonNil(store.Cities()),
		ProductModes:   nonNil(store.ProductModes()),
		DatasetVersion: store.Version(),
		LoadedAt:       store.LoadedAt(),
	}, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// Archived lists archived artefacts, optionally for one kind. It returns an
// empty list when no archive is configured.
func (s *ReportService) Archived(ctx context.Context, kind domain.ReportKind) ([]ArchivedReport, error) {
	if s.archive == nil {
		return []ArchivedReport{}, nil
	}
	prefix := s.archivePrefix
	if kind != "" {
		prefix = path.Join(prefix, string(kind)) + "/"
	}
	objects, err := s.archive.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	out := make([]ArchivedReport, 0, len(objects))
	for _, o := range objects {
		out = append(out, ArchivedReport{Key: o.Key, Size: o.Size})
	}
	return out, nil
}

// Stores lists every known store in id order.
func (s *ReportService) Stores() ([]StoreSummary, error) {
	store, err := s.holder.Current()
	if err != nil {
		return nil, err
	}
	ids := store.StoreIDs()
	out := make([]StoreSummary, 0, len(ids))
	for _, id := range ids {
		meta, _ := store.Meta(id)
		out = append(out, StoreSummary{
			ID:      id,
			Name:    store.StoreName(id),
			Manager: meta.Manager,
			City:    meta.City,
			Region:  meta.Region,
			Type:    meta.Type,
		})
	}
	return out, nil
}

// Reload re-reads the fact files and drops cached artefacts of the previous
// dataset.
func (s *ReportService) Reload(ctx context.Context) (string, error) {
	store, err := s.holder.Reload(ctx)
	if err != nil {
		return "", err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("report: cache invalidate failed")
	}
	log.Info().Str("version", store.Version()).Int("stores", len(store.StoreIDs())).Msg("facts reloaded")
	return store.Version(), nil
}
