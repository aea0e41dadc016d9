package domain

import "time"

// ReportRun is the audit record of one report generation.
type ReportRun struct {
	ID             string     `json:"id" db:"id"`
	Kind           ReportKind `json:"kind" db:"kind"`
	Format         string     `json:"format" db:"format"`
	Status         RunStatus  `json:"status" db:"status"`
	FileName       string     `json:"file_name,omitempty" db:"file_name"`
	StoreIDs       []string   `json:"store_ids,omitempty" db:"-"`
	UserName       string     `json:"user_name,omitempty" db:"user_name"`
	Rows           int        `json:"rows" db:"row_count"`
	Pages          int        `json:"pages" db:"page_count"`
	DatasetVersion string     `json:"dataset_version,omitempty" db:"dataset_version"`
	ObjectKey      string     `json:"object_key,omitempty" db:"object_key"`
	Cached         bool       `json:"cached" db:"cached"`
	ErrorMessage   string     `json:"error_message,omitempty" db:"error_message"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Finish stamps the terminal state of the run.
func (r *ReportRun) Finish(status RunStatus, err error) {
	now := time.Now()
	r.Status = status
	r.CompletedAt = &now
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}
