package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
	"github.com/andresuchdata/storepulse/backend-go/internal/config"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/pipeline"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
	"github.com/andresuchdata/storepulse/backend-go/internal/service"
	"github.com/andresuchdata/storepulse/backend-go/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
)

const (
	kindStoreSales      = domain.ReportStoreSales
	kindEmployeeSales   = domain.ReportEmployeeSales
	kindStoreDaily      = domain.ReportStoreDaily
	kindEmployeeMTD     = domain.ReportEmployeeMTD
	kindProductAnalysis = domain.ReportProductAnalysis
	kindTargetSetting   = domain.ReportTargetSetting
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Usage:   "Fact source: dir, s3 or drive",
			Value:   "dir",
			EnvVars: []string{"FACTS_SOURCE"},
		},
		&cli.StringFlag{
			Name:    "facts-dir",
			Usage:   "Directory holding the fact files when --source=dir",
			Value:   "./data/facts",
			EnvVars: []string{"FACTS_DIR"},
		},
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "Database connection string for run tracking (optional)",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "console",
			EnvVars: []string{"LOG_FORMAT"},
		},
	}
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "as-of", Usage: "Reference date (YYYY-MM-DD), defaults to today", EnvVars: []string{"REPORT_AS_OF"}},
		&cli.StringFlag{Name: "start", Usage: "Range start (YYYY-MM-DD)", EnvVars: []string{"REPORT_START"}},
		&cli.StringFlag{Name: "end", Usage: "Range end (YYYY-MM-DD)", EnvVars: []string{"REPORT_END"}},
		&cli.StringFlag{Name: "branch", Usage: "Store id filter", EnvVars: []string{"REPORT_BRANCH"}},
		&cli.StringFlag{Name: "manager", Usage: "Manager filter", EnvVars: []string{"REPORT_MANAGER"}},
		&cli.StringFlag{Name: "city", Usage: "City filter", EnvVars: []string{"REPORT_CITY"}},
		&cli.StringFlag{Name: "type", Usage: "Store type filter", EnvVars: []string{"REPORT_STORE_TYPE"}},
		&cli.StringFlag{Name: "region", Usage: "Region filter", EnvVars: []string{"REPORT_REGION"}},
		&cli.StringFlag{Name: "user", Usage: "Requesting user name", EnvVars: []string{"REPORT_USER"}},
		&cli.StringFlag{Name: "role", Usage: "Requesting user role", Value: string(domain.RoleAdmin), EnvVars: []string{"REPORT_ROLE"}},
		&cli.BoolFlag{Name: "summary-only", Usage: "Skip per-entity detail pages", EnvVars: []string{"REPORT_SUMMARY_ONLY"}},
		&cli.StringFlag{Name: "format", Usage: "xlsx, pdf or json; defaults to the report's own format", EnvVars: []string{"REPORT_FORMAT"}},
		&cli.StringFlag{Name: "output-dir", Usage: "Directory for rendered files", Value: "./data/reports", EnvVars: []string{"APP_OUTPUT_DIR"}},
	}
}

// loadConfig applies the command-line overrides on top of the environment.
func loadConfig(c *cli.Context) *config.Config {
	cfg := config.Load()
	cfg.Facts.Source = c.String("source")
	cfg.Facts.Dir = c.String("facts-dir")
	if v := c.String("db-url"); v != "" {
		cfg.Database.URL = v
	}
	if c.IsSet("output-dir") {
		cfg.App.OutputDir = c.String("output-dir")
	}
	return cfg
}

func bootstrap(c *cli.Context) (*service.Components, *config.Config, error) {
	cfg := loadConfig(c)
	comp, err := service.Bootstrap(c.Context, cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := comp.Holder.Current(); err != nil {
		comp.Close()
		return nil, nil, fmt.Errorf("facts from %s: %w", cfg.Facts.Source, err)
	}
	return comp, cfg, nil
}

func requestFromFlags(c *cli.Context, kind domain.ReportKind) (report.Request, error) {
	req := report.Request{
		Kind: kind,
		Filters: analytics.FilterSelection{
			Branch:  c.String("branch"),
			Manager: c.String("manager"),
			City:    c.String("city"),
			Type:    c.String("type"),
			Region:  c.String("region"),
			Start:   c.String("start"),
			End:     c.String("end"),
		},
		SummaryOnly: c.Bool("summary-only"),
		User:        domain.User{Name: c.String("user"), Role: domain.Role(c.String("role"))},
		AsOf:        c.String("as-of"),
	}

	switch kind {
	case kindProductAnalysis:
		req.StoreID = c.String("store")
		req.Mode = c.String("mode")
		req.Detailed = c.Bool("detailed")
		sections := report.AllSections()
		for _, name := range c.StringSlice("skip") {
			switch strings.ReplaceAll(strings.ToLower(name), "_", "-") {
			case "performance":
				sections.Performance = false
			case "advanced":
				sections.Advanced = false
			case "store-breakdown":
				sections.StoreBreakdown = false
			case "category-details":
				sections.CategoryDetails = false
			default:
				return req, fmt.Errorf("unknown section %q", name)
			}
		}
		req.Sections = &sections
	case kindTargetSetting:
		req.Month = c.String("month")
		if path := c.Path("targets-file"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return req, fmt.Errorf("read targets: %w", err)
			}
			if err := json.Unmarshal(b, &req.Targets); err != nil {
				return req, fmt.Errorf("parse targets %s: %w", path, err)
			}
		}
	}
	return req, nil
}

func formatFlag(c *cli.Context) (report.Format, error) {
	raw := c.String("format")
	if raw == "" {
		return "", nil
	}
	f, ok := report.ParseFormat(raw)
	if !ok {
		return "", fmt.Errorf("unsupported format %q", raw)
	}
	return f, nil
}

func reportAction(kind domain.ReportKind) cli.ActionFunc {
	return func(c *cli.Context) error {
		req, err := requestFromFlags(c, kind)
		if err != nil {
			return err
		}
		format, err := formatFlag(c)
		if err != nil {
			return err
		}

		comp, cfg, err := bootstrap(c)
		if err != nil {
			return err
		}
		defer comp.Close()

		start := time.Now()
		artifact, err := comp.Reports.Export(c.Context, req, format)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.App.OutputDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		path := filepath.Join(cfg.App.OutputDir, artifact.FileName)
		if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		logger.Log.Info().
			Str("kind", string(kind)).
			Str("file", path).
			Int("rows", artifact.Rows).
			Int("pages", artifact.Pages).
			Dur("elapsed", time.Since(start)).
			Msg("report written")
		return nil
	}
}

func runBatch(c *cli.Context) error {
	comp, cfg, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer comp.Close()

	store, err := comp.Holder.Current()
	if err != nil {
		return err
	}

	batchCfg := pipeline.DefaultBatchConfig("daily")
	batchCfg.OutputDir = cfg.App.OutputDir
	if n := c.Int("workers"); n > 0 {
		batchCfg.WorkerCount = n
	}
	if d := c.Duration("job-timeout"); d > 0 {
		batchCfg.JobTimeout = d
	} else if cfg.Report.TimeoutSeconds > 0 {
		batchCfg.JobTimeout = time.Duration(cfg.Report.TimeoutSeconds) * time.Second
	}

	user := domain.User{Name: c.String("user"), Role: domain.Role(c.String("role"))}
	jobs := pipeline.Plan(store, c.String("as-of"), user)

	start := time.Now()
	outcomes, err := pipeline.NewOrchestrator(batchCfg).Run(c.Context, comp.Reports, jobs)
	metrics := pipeline.Summarize(outcomes)
	logger.Log.Info().
		Int("jobs", len(jobs)).
		Int("completed", metrics.Completed).
		Int("empty", metrics.Empty).
		Int("failed", metrics.Failed).
		Int("rows", metrics.Rows).
		Dur("elapsed", time.Since(start)).
		Msg("batch finished")
	if err != nil {
		return err
	}
	if metrics.Failed > 0 {
		return fmt.Errorf("%d of %d reports failed", metrics.Failed, len(jobs))
	}
	return nil
}

func listManagers(c *cli.Context) error {
	comp, _, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer comp.Close()

	managers, err := comp.Reports.Managers()
	if err != nil {
		return err
	}
	for _, m := range managers {
		fmt.Fprintln(c.App.Writer, m)
	}
	return nil
}
