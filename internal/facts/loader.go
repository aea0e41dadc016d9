package facts

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/andresuchdata/storepulse/backend-go/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Source opens raw fact files by name. A missing file must be reported with
// an error wrapping fs.ErrNotExist.
type Source interface {
	Name() string
	Open(ctx context.Context, file string) (io.ReadCloser, error)
}

// Files names the fact files inside a Source.
type Files struct {
	Management string
	Employees  string
	Product    string
}

// DefaultFiles matches the export names of the upstream data job.
func DefaultFiles() Files {
	return Files{
		Management: "management_data.json",
		Employees:  "employees_data.json",
		Product:    "product_data.json",
	}
}

// Loader reads and decodes a full Dataset from a Source.
type Loader struct {
	source Source
	files  Files
	log    zerolog.Logger
}

func NewLoader(source Source, files Files) *Loader {
	if files.Management == "" {
		files = DefaultFiles()
	}
	return &Loader{
		source: source,
		files:  files,
		log:    log.With().Str("component", "facts").Str("source", source.Name()).Logger(),
	}
}

// Load fetches the three fact files concurrently and decodes them. The
// management file is required; employee and product files are optional.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	start := time.Now()
	names := []string{l.files.Management, l.files.Employees, l.files.Product}
	payloads := make([][]byte, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		if name == "" {
			continue
		}
		g.Go(func() error {
			b, err := l.read(gctx, name)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && i > 0 {
					l.log.Warn().Str("file", name).Msg("optional fact file missing")
					return nil
				}
				return err
			}
			payloads[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}
		return nil, fmt.Errorf("load facts: %w", err)
	}

	var ds Dataset
	if err := decodeManagement(payloads[0], &ds); err != nil {
		return nil, err
	}
	if payloads[1] != nil {
		if err := decodeEmployees(payloads[1], &ds); err != nil {
			return nil, err
		}
	}
	if payloads[2] != nil {
		if err := decodeProducts(payloads[2], &ds); err != nil {
			return nil, err
		}
	}

	store := New(ds).withVersion(contentVersion(payloads))

	l.log.Info().
		Int("tuples", ds.Streams.Len()).
		Int("stores", len(store.storeIDs)).
		Int("employee_stores", len(ds.EmployeeHistory)).
		Int("product_modes", len(ds.Products)).
		Str("version", store.Version()).
		Dur("took", time.Since(start)).
		Msg("fact data loaded")

	return store, nil
}

func (l *Loader) read(ctx context.Context, name string) ([]byte, error) {
	rc, err := l.source.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func contentVersion(payloads [][]byte) string {
	h := sha1.New()
	for _, p := range payloads {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// DirSource reads fact files from a local directory.
type DirSource struct {
	Dir string
}

func (d DirSource) Name() string { return "dir:" + d.Dir }

func (d DirSource) Open(_ context.Context, file string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.Dir, file))
}

// ObjectSource reads fact files from an S3-compatible bucket under Prefix.
type ObjectSource struct {
	Storage storage.ObjectStorage
	Prefix  string
}

func (o ObjectSource) Name() string { return "s3:" + o.Prefix }

func (o ObjectSource) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	return o.Storage.OpenObject(ctx, o.Prefix+file)
}
