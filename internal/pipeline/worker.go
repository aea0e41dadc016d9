package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/pkg/logger"
	"github.com/rs/zerolog"
)

// Runner produces report jobs with a bounded worker pool. Every job runs
// its own aggregation passes; only the fact store is shared.
type Runner struct {
	exporter Exporter
	writer   *ArtifactWriter
	config   BatchConfig
	log      zerolog.Logger
}

// NewRunner creates a runner writing through writer. A nil writer keeps
// artefacts in memory only.
func NewRunner(exporter Exporter, writer *ArtifactWriter, config BatchConfig) *Runner {
	return &Runner{
		exporter: exporter,
		writer:   writer,
		config:   config,
		log:      logger.Component("batch").With().Str("batch", config.Name).Logger(),
	}
}

// Run processes jobs and returns one outcome per job in job order. Failed
// and empty reports do not stop the batch; a cancelled ctx does.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	start := time.Now()
	outcomes := make([]Outcome, len(jobs))

	workerCount := r.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan int, len(jobs))
	errChan := make(chan error, workerCount)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobChan {
				outcomes[idx] = r.process(ctx, jobs[idx])
				if o := outcomes[idx]; o.Status == domain.RunFailed {
					r.log.Error().Err(o.Err).Int("worker", workerID).Str("report", o.Job.Label()).Msg("report failed")
					if errors.Is(o.Err, context.Canceled) {
						select {
						case errChan <- o.Err:
						default:
						}
					}
				}
			}
		}(i)
	}

	// Enqueue jobs
	var enqueueErr error
	queued := 0
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			enqueueErr = err
			break
		}
		jobChan <- i
		queued++
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	for i := queued; i < len(jobs); i++ {
		outcomes[i] = Outcome{Job: jobs[i], Status: domain.RunFailed, Err: enqueueErr}
	}

	if r.writer != nil {
		manifest, err := r.writer.Finalize(outcomes)
		if err != nil {
			return outcomes, err
		}
		r.log.Info().Str("manifest", manifest).Msg("manifest written")
	}

	m := Summarize(outcomes)
	r.log.Info().
		Int("completed", m.Completed).
		Int("empty", m.Empty).
		Int("failed", m.Failed).
		Int("rows", m.Rows).
		Dur("elapsed", time.Since(start)).
		Msg("batch finished")

	if enqueueErr != nil {
		return outcomes, enqueueErr
	}
	if err := <-errChan; err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (r *Runner) process(ctx context.Context, job Job) Outcome {
	start := time.Now()
	out := Outcome{Job: job}

	attempts := r.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for out.Attempts < attempts {
		out.Attempts++
		err := r.attempt(ctx, job, &out)
		if err == nil {
			out.Status = domain.RunCompleted
			break
		}
		out.Err = err
		if errors.Is(err, domain.ErrNoMatchingRows) {
			out.Status, out.Err = domain.RunEmpty, nil
			break
		}
		out.Status = domain.RunFailed
		if !retryable(err) || out.Attempts >= attempts {
			break
		}
		r.log.Warn().Err(err).Str("report", job.Label()).Int("attempt", out.Attempts).Msg("retrying report")
		select {
		case <-ctx.Done():
			out.Err = ctx.Err()
			out.Duration = time.Since(start)
			return out
		case <-time.After(r.config.RetryBackoff):
		}
	}

	out.Duration = time.Since(start)
	return out
}

func (r *Runner) attempt(ctx context.Context, job Job, out *Outcome) error {
	if r.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.JobTimeout)
		defer cancel()
	}

	a, err := r.exporter.Export(ctx, job.Request, job.Format)
	if err != nil {
		return err
	}
	out.FileName, out.Rows = a.FileName, a.Rows

	if r.writer != nil {
		path, err := r.writer.Add(a)
		if err != nil {
			return err
		}
		out.Path = path
		files, size := r.writer.BufferStats()
		r.log.Debug().Str("report", job.Label()).Int("buffered_files", files).Int64("buffered_bytes", size).Msg("artefact queued")
	}
	return nil
}

// retryable excludes failures that repeat deterministically.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnknownReport),
		errors.Is(err, domain.ErrDataUnavailable):
		return false
	}
	return true
}
