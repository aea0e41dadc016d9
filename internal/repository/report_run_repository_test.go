package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

func TestMemoryReportRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReportRunRepository(2)
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		run := &domain.ReportRun{ID: id, Kind: domain.ReportStoreDaily, Status: domain.RunRunning, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.CreateRun(ctx, run); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	if _, err := repo.GetRun(ctx, "a"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected oldest run to be evicted, got %v", err)
	}

	run, err := repo.GetRun(ctx, "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	run.Finish(domain.RunCompleted, nil)
	run.Rows = 12
	if err := repo.UpdateRun(ctx, run); err != nil {
		t.Fatalf("update: %v", err)
	}

	runs, err := repo.ListRecentRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[1].Status != domain.RunCompleted || runs[1].Rows != 12 || runs[1].CompletedAt == nil {
		t.Fatalf("update not applied: %+v", runs[1])
	}

	limited, _ := repo.ListRecentRuns(ctx, 1)
	if len(limited) != 1 || limited[0].ID != "c" {
		t.Fatalf("limit not applied: %+v", limited)
	}

	if err := repo.UpdateRun(ctx, &domain.ReportRun{ID: "missing"}); !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
