package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/cache"
	"github.com/andresuchdata/storepulse/backend-go/internal/config"
	"github.com/andresuchdata/storepulse/backend-go/internal/drive"
	"github.com/andresuchdata/storepulse/backend-go/internal/export"
	"github.com/andresuchdata/storepulse/backend-go/internal/facts"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/andresuchdata/storepulse/backend-go/internal/repository"
	"github.com/andresuchdata/storepulse/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/storepulse/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Components are the long-lived dependencies built from configuration.
type Components struct {
	Holder  *facts.Holder
	Reports *ReportService
	closers []func() error
}

// Close releases the database pool and cache connections.
func (c *Components) Close() {
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			log.Warn().Err(err).Msg("close component")
		}
	}
}

// NewFactSource builds the source named by cfg.Facts.Source.
func NewFactSource(ctx context.Context, cfg *config.Config) (facts.Source, error) {
	switch strings.ToLower(cfg.Facts.Source) {
	case "", "dir":
		return facts.DirSource{Dir: cfg.Facts.Dir}, nil
	case "s3":
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		return facts.ObjectSource{Storage: client, Prefix: cfg.Storage.FactsPrefix}, nil
	case "drive":
		creds := []byte(cfg.Drive.CredentialsJSON)
		if len(creds) == 0 && cfg.Drive.CredentialsFile != "" {
			b, err := os.ReadFile(cfg.Drive.CredentialsFile)
			if err != nil {
				return nil, fmt.Errorf("read drive credentials: %w", err)
			}
			creds = b
		}
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, err
		}
		return drive.NewFileSource(ctx, svc, cfg.Drive.FolderID, cfg.Drive.FolderPath)
	}
	return nil, fmt.Errorf("unknown facts source %q", cfg.Facts.Source)
}

// ReportOptions maps the report section of cfg to engine options.
func ReportOptions(cfg *config.Config) report.Options {
	opts := report.DefaultOptions()
	if cfg.Report.PageCapacity > 0 {
		opts.PageCapacity = cfg.Report.PageCapacity
	}
	if cfg.Report.ReturnToken != "" {
		opts.ReturnToken = cfg.Report.ReturnToken
	}
	if len(cfg.Report.ExcludedStoreIDs) > 0 {
		opts.ExcludedStoreIDs = cfg.Report.ExcludedStoreIDs
	}
	if cfg.Report.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Report.Timezone)
		if err != nil {
			log.Warn().Err(err).Str("timezone", cfg.Report.Timezone).Msg("unknown timezone, using UTC")
		} else {
			opts.Location = loc
		}
	}
	return opts
}

// Bootstrap wires the holder, cache, run repository and archive from cfg and
// performs the first dataset load. A failed first load is logged and the
// holder stays empty until a reload succeeds.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Components, error) {
	source, err := NewFactSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	files := facts.Files{
		Management: cfg.Facts.ManagementFile,
		Employees:  cfg.Facts.EmployeesFile,
		Product:    cfg.Facts.ProductFile,
	}
	holder := facts.NewHolder(facts.NewLoader(source, files))
	comp := &Components{Holder: holder}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, report cache disabled")
		reportCache = cache.NewNoopReportCache()
	}

	var runs repository.ReportRunRepository
	if cfg.Database.Enabled || cfg.Database.URL != "" {
		var db *postgres.DB
		if cfg.Database.URL != "" {
			db, err = postgres.Open(cfg.Database.URL)
		} else {
			db, err = postgres.NewDB(&cfg.Database)
		}
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		comp.closers = append(comp.closers, db.Close)
		runs = postgres.NewReportRunRepository(db)
	} else {
		runs = repository.NewMemoryReportRunRepository(0)
	}

	exportOpts := export.Options{FontPath: cfg.Report.FontPath, FontFamily: cfg.Report.FontFamily}
	comp.Reports = NewReportService(holder, reportCache, runs, ReportOptions(cfg), exportOpts)

	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("object storage unavailable, archive disabled")
		} else {
			comp.Reports.WithArchive(client, cfg.Storage.ReportsPrefix)
		}
	}

	if _, err := holder.Reload(ctx); err != nil {
		log.Error().Err(err).Str("source", source.Name()).Msg("initial fact load failed")
	}
	return comp, nil
}
