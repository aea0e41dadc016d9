package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/config"
	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/lib/pq"
)

func TestStoreIDsArray(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"nil binds empty array", nil, "{}"},
		{"empty", []string{}, "{}"},
		{"ids", []string{"S1", "10"}, `{"S1","10"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := storeIDsArray(tt.ids).Value()
			if err != nil {
				t.Fatalf("Value() error = %v", err)
			}
			if v != tt.want {
				t.Errorf("Value() = %v, want %s", v, tt.want)
			}
		})
	}
}

func TestRunRowToDomain(t *testing.T) {
	started := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)
	done := started.Add(2 * time.Second)
	row := runRow{
		ID:             "run-1",
		Kind:           "store_sales",
		Format:         "xlsx",
		Status:         "completed",
		FileName:       sql.NullString{String: "Store_Sales.xlsx", Valid: true},
		StoreIDs:       pq.StringArray{"S1"},
		Rows:           4,
		Pages:          1,
		DatasetVersion: sql.NullString{String: "abc", Valid: true},
		StartedAt:      started,
		CompletedAt:    sql.NullTime{Time: done, Valid: true},
	}

	run := row.toDomain()
	if run.Kind != domain.ReportStoreSales || run.Status != domain.RunCompleted {
		t.Errorf("kind = %s status = %s", run.Kind, run.Status)
	}
	if run.FileName != "Store_Sales.xlsx" || run.DatasetVersion != "abc" || run.UserName != "" {
		t.Errorf("nullable fields = %+v", run)
	}
	if len(run.StoreIDs) != 1 || run.StoreIDs[0] != "S1" {
		t.Errorf("StoreIDs = %v", run.StoreIDs)
	}
	if run.CompletedAt == nil || !run.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt = %v, want %v", run.CompletedAt, done)
	}

	row.CompletedAt = sql.NullTime{}
	if got := row.toDomain(); got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil for a running row", got.CompletedAt)
	}
}

func TestDSN(t *testing.T) {
	got := DSN(&config.DatabaseConfig{
		Host: "db", Port: "5432", User: "pulse", Password: "secret", DBName: "storepulse", SSLMode: "disable",
	})
	want := "host=db port=5432 user=pulse password=secret dbname=storepulse sslmode=disable"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
