package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// ReportRunRepository records report generations.
type ReportRunRepository interface {
	CreateRun(ctx context.Context, run *domain.ReportRun) error
	UpdateRun(ctx context.Context, run *domain.ReportRun) error
	GetRun(ctx context.Context, id string) (*domain.ReportRun, error)
	ListRecentRuns(ctx context.Context, limit int) ([]domain.ReportRun, error)
}

const defaultMemoryRuns = 200

// memoryReportRunRepository keeps the latest runs in process memory. It is
// used when no database is configured.
type memoryReportRunRepository struct {
	mu       sync.RWMutex
	runs     map[string]domain.ReportRun
	order    []string
	capacity int
}

// NewMemoryReportRunRepository keeps at most capacity runs.
func NewMemoryReportRunRepository(capacity int) ReportRunRepository {
	if capacity <= 0 {
		capacity = defaultMemoryRuns
	}
	return &memoryReportRunRepository{
		runs:     make(map[string]domain.ReportRun),
		capacity: capacity,
	}
}

func (r *memoryReportRunRepository) CreateRun(ctx context.Context, run *domain.ReportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		r.order = append(r.order, run.ID)
	}
	r.runs[run.ID] = *run

	for len(r.order) > r.capacity {
		delete(r.runs, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *memoryReportRunRepository) UpdateRun(ctx context.Context, run *domain.ReportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return domain.ErrRunNotFound
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *memoryReportRunRepository) GetRun(ctx context.Context, id string) (*domain.ReportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return &run, nil
}

func (r *memoryReportRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]domain.ReportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ReportRun, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.runs[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
