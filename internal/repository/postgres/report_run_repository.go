package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const defaultRunLimit = 50

type reportRunRepository struct {
	db *DB
}

func NewReportRunRepository(db *DB) *reportRunRepository {
	return &reportRunRepository{db: db}
}

// runRow mirrors the report_runs table.
type runRow struct {
	ID             string         `db:"id"`
	Kind           string         `db:"kind"`
	Format         string         `db:"format"`
	Status         string         `db:"status"`
	FileName       sql.NullString `db:"file_name"`
	StoreIDs       pq.StringArray `db:"store_ids"`
	UserName       sql.NullString `db:"user_name"`
	Rows           int            `db:"row_count"`
	Pages          int            `db:"page_count"`
	DatasetVersion sql.NullString `db:"dataset_version"`
	ObjectKey      sql.NullString `db:"object_key"`
	Cached         bool           `db:"cached"`
	ErrorMessage   sql.NullString `db:"error_message"`
	StartedAt      time.Time      `db:"started_at"`
	CompletedAt    sql.NullTime   `db:"completed_at"`
}

func (r runRow) toDomain() domain.ReportRun {
	run := domain.ReportRun{
		ID:             r.ID,
		Kind:           domain.ReportKind(r.Kind),
		Format:         r.Format,
		Status:         domain.RunStatus(r.Status),
		FileName:       r.FileName.String,
		StoreIDs:       []string(r.StoreIDs),
		UserName:       r.UserName.String,
		Rows:           r.Rows,
		Pages:          r.Pages,
		DatasetVersion: r.DatasetVersion.String,
		ObjectKey:      r.ObjectKey.String,
		Cached:         r.Cached,
		ErrorMessage:   r.ErrorMessage.String,
		StartedAt:      r.StartedAt,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		run.CompletedAt = &t
	}
	return run
}

// storeIDsArray binds an empty array for nil ids; store_ids is NOT NULL.
func storeIDsArray(ids []string) pq.StringArray {
	if ids == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ids)
}

const selectRunColumns = `
	SELECT id, kind, format, status, file_name, store_ids, user_name,
	       row_count, page_count, dataset_version, object_key, cached,
	       error_message, started_at, completed_at
	FROM report_runs`

func (r *reportRunRepository) CreateRun(ctx context.Context, run *domain.ReportRun) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO report_runs (
				id, kind, format, status, file_name, store_ids, user_name,
				dataset_version, started_at
			) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), $9)
			RETURNING started_at
		`
		err := tx.QueryRowContext(ctx, query,
			run.ID,
			string(run.Kind),
			run.Format,
			string(run.Status),
			run.FileName,
			storeIDsArray(run.StoreIDs),
			run.UserName,
			run.DatasetVersion,
			run.StartedAt,
		).Scan(&run.StartedAt)
		if err != nil {
			return fmt.Errorf("failed to insert report run: %w", err)
		}
		return nil
	})
}

func (r *reportRunRepository) UpdateRun(ctx context.Context, run *domain.ReportRun) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE report_runs SET
				status = $2,
				file_name = NULLIF($3, ''),
				row_count = $4,
				page_count = $5,
				object_key = NULLIF($6, ''),
				cached = $7,
				error_message = NULLIF($8, ''),
				completed_at = $9
			WHERE id = $1
		`
		res, err := tx.ExecContext(ctx, query,
			run.ID,
			string(run.Status),
			run.FileName,
			run.Rows,
			run.Pages,
			run.ObjectKey,
			run.Cached,
			run.ErrorMessage,
			run.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update report run: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrRunNotFound
		}
		return nil
	})
}

func (r *reportRunRepository) GetRun(ctx context.Context, id string) (*domain.ReportRun, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, selectRunColumns+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run := row.toDomain()
	return &run, nil
}

func (r *reportRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]domain.ReportRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}

	var rows []runRow
	query := selectRunColumns + ` ORDER BY started_at DESC LIMIT $1`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, limit); err != nil {
		return nil, err
	}

	runs := make([]domain.ReportRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toDomain())
	}
	return runs, nil
}
