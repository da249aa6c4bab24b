package loader

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Giomelox/Be-Analytic-ETL/internal/db"
)

// LoadEntry represents a row in the load_log table.
type LoadEntry struct {
	ID              int64      `json:"id"`
	Dataset         string     `json:"dataset"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ResourcesTotal  int        `json:"resources_total"`
	ResourcesFailed int        `json:"resources_failed"`
	FactsWritten    int64      `json:"facts_written"`
	RowsRejected    int        `json:"rows_rejected"`
	Error           string     `json:"error,omitempty"`
}

// LoadLog provides read/write access to the load_log run-history table.
type LoadLog struct {
	pool db.Pool
}

func NewLoadLog(pool db.Pool) *LoadLog {
	return &LoadLog{pool: pool}
}

// Start records the beginning of a run and returns its ID.
func (l *LoadLog) Start(ctx context.Context, dataset string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO load_log (dataset, status, started_at)
		 VALUES ($1, 'running', now()) RETURNING id`,
		dataset,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "loadlog: start run for %s", dataset)
	}
	return id, nil
}

// Complete marks a run as finished and stores its summary counts.
func (l *LoadLog) Complete(ctx context.Context, runID int64, summary *RunSummary) error {
	status := "complete"
	if !summary.Success() {
		status = "failed"
	}

	_, err := l.pool.Exec(ctx,
		`UPDATE load_log
		 SET status = $1, completed_at = now(), resources_total = $2,
		     resources_failed = $3, facts_written = $4, rows_rejected = $5
		 WHERE id = $6`,
		status, summary.Attempted, summary.Failed,
		summary.FactsWritten, summary.RowsRejected, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "loadlog: complete run %d", runID)
	}
	return nil
}

// Fail marks a run that aborted before producing a summary, e.g. when the
// catalog itself was unreachable.
func (l *LoadLog) Fail(ctx context.Context, runID int64, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE load_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "loadlog: fail run %d", runID)
	}
	return nil
}

// ListRecent returns the most recent run entries, newest first.
func (l *LoadLog) ListRecent(ctx context.Context, limit int) ([]LoadEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, dataset, status, started_at, completed_at,
		        resources_total, resources_failed, facts_written, rows_rejected, error
		 FROM load_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "loadlog: list recent")
	}
	defer rows.Close()

	var entries []LoadEntry
	for rows.Next() {
		var e LoadEntry
		var completedAt *time.Time
		var errStr *string
		if err := rows.Scan(&e.ID, &e.Dataset, &e.Status, &e.StartedAt, &completedAt,
			&e.ResourcesTotal, &e.ResourcesFailed, &e.FactsWritten, &e.RowsRejected, &errStr); err != nil {
			return nil, eris.Wrap(err, "loadlog: scan entry")
		}
		e.CompletedAt = completedAt
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
