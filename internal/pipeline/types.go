package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/export"
	"github.com/andresuchdata/storepulse/backend-go/internal/report"
)

// Exporter generates and renders one report.
type Exporter interface {
	Export(ctx context.Context, req report.Request, format report.Format) (*export.Artifact, error)
}

// BatchConfig holds configuration for a batch run
type BatchConfig struct {
	Name           string
	BatchSize      int           // Number of artefacts to buffer before flushing
	BatchSizeBytes int64         // Size in bytes to buffer before flushing
	WorkerCount    int           // Number of concurrent workers
	OutputDir      string        // Directory for rendered files
	JobTimeout     time.Duration // Per-report deadline, 0 for none
	RetryAttempts  int           // Attempts per job on failure
	RetryBackoff   time.Duration // Backoff duration between attempts
}

// DefaultBatchConfig returns sensible defaults
func DefaultBatchConfig(name string) BatchConfig {
	return BatchConfig{
		Name:           name,
		BatchSize:      5,
		BatchSizeBytes: 10 * 1024 * 1024, // 10MB
		WorkerCount:    4,
		OutputDir:      "output/" + name,
		JobTimeout:     time.Minute,
		RetryAttempts:  1,
		RetryBackoff:   2 * time.Second,
	}
}

// Job is one report to produce.
type Job struct {
	ID      int
	Request report.Request
	Format  report.Format
}

// Label names the job in logs and manifests.
func (j Job) Label() string {
	label := string(j.Request.Kind)
	if j.Request.StoreID != "" && j.Request.StoreID != "all" {
		label += "/" + j.Request.StoreID
	}
	return label
}

// Outcome is the result of one job.
type Outcome struct {
	Job      Job
	Status   domain.RunStatus
	FileName string
	Path     string
	Rows     int
	Attempts int
	Duration time.Duration
	Err      error
}

// BatchMetrics holds metrics for monitoring
type BatchMetrics struct {
	Completed int
	Empty     int
	Failed    int
	Rows      int
	Bytes     int64
	Elapsed   time.Duration
}

// Summarize folds outcomes into metrics.
func Summarize(outcomes []Outcome) BatchMetrics {
	var m BatchMetrics
	for _, o := range outcomes {
		switch o.Status {
		case domain.RunCompleted:
			m.Completed++
		case domain.RunEmpty:
			m.Empty++
		case domain.RunFailed:
			m.Failed++
		}
		m.Rows += o.Rows
	}
	return m
}
