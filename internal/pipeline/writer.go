package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/export"
	"github.com/andresuchdata/storepulse/backend-go/pkg/logger"
	"github.com/rs/zerolog"
)

// ArtifactWriter buffers rendered reports and flushes them to the output
// directory in batches.
type ArtifactWriter struct {
	config     BatchConfig
	buffer     []*export.Artifact
	bufferSize int64
	written    map[string]string // file name -> path
	mu         sync.Mutex
	log        zerolog.Logger
}

// NewArtifactWriter creates a writer for config.OutputDir.
func NewArtifactWriter(config BatchConfig) *ArtifactWriter {
	return &ArtifactWriter{
		config:  config,
		buffer:  make([]*export.Artifact, 0, config.BatchSize),
		written: make(map[string]string),
		log:     logger.Component("artifact-writer").With().Str("batch", config.Name).Logger(),
	}
}

// Add buffers an artefact and flushes when the batch is full. It returns
// the path the artefact will be written to.
func (w *ArtifactWriter) Add(a *export.Artifact) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffer = append(w.buffer, a)
	w.bufferSize += int64(len(a.Data))

	shouldFlush := len(w.buffer) >= w.config.BatchSize ||
		w.bufferSize >= w.config.BatchSizeBytes

	path := filepath.Join(w.config.OutputDir, a.FileName)
	if shouldFlush {
		return path, w.flushLocked()
	}
	return path, nil
}

// Finalize flushes the remaining buffer and writes the run manifest.
func (w *ArtifactWriter) Finalize(outcomes []Outcome) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushLocked(); err != nil {
		return "", err
	}
	return w.writeManifest(outcomes)
}

// flushLocked writes the current buffer to disk.
// Must be called with w.mu locked
func (w *ArtifactWriter) flushLocked() error {
	if len(w.buffer) == 0 {
		return nil
	}

	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, a := range w.buffer {
		path := filepath.Join(w.config.OutputDir, a.FileName)
		if err := writeFileAtomic(path, a.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.FileName, err)
		}
		w.written[a.FileName] = path
	}

	w.log.Info().Int("files", len(w.buffer)).Int64("bytes", w.bufferSize).Msg("flushed artefacts")

	w.buffer = w.buffer[:0]
	w.bufferSize = 0
	return nil
}

// writeManifest lists every outcome in a CSV next to the artefacts.
func (w *ArtifactWriter) writeManifest(outcomes []Outcome) (string, error) {
	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(w.config.OutputDir, fmt.Sprintf("manifest_%s.csv", time.Now().Format("20060102_150405")))

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"job", "report", "status", "file", "rows", "attempts", "duration_ms", "error"}); err != nil {
		return "", err
	}
	for _, o := range outcomes {
		msg := ""
		if o.Err != nil {
			msg = o.Err.Error()
		}
		record := []string{
			strconv.Itoa(o.Job.ID),
			o.Job.Label(),
			string(o.Status),
			o.FileName,
			strconv.Itoa(o.Rows),
			strconv.Itoa(o.Attempts),
			strconv.FormatInt(o.Duration.Milliseconds(), 10),
			msg,
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return path, writer.Error()
}

// BufferStats returns current buffer statistics
func (w *ArtifactWriter) BufferStats() (fileCount int, byteSize int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer), w.bufferSize
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
