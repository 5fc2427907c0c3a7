package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// DBTX is satisfied by both [sql.DB] and [sql.Tx].
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs the history queries against a database handle.
type Queries struct {
	db DBTX
}

// New wraps a database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const runColumns = `id, name, version, kind, inputs, output, status, files, bytes, digest, compared, error, started_at, finished_at`

const insertRun = `-- name: InsertRun :exec
insert into runs (` + runColumns + `)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertRun adds a run.
func (q *Queries) InsertRun(ctx context.Context, arg Run) error {
	inputs, err := encodeJSON(arg.Inputs, len(arg.Inputs), "[]")
	if err != nil {
		return err
	}
	compared, err := encodeJSON(arg.Compared, len(arg.Compared), "{}")
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, insertRun,
		arg.ID,
		arg.Name,
		arg.Version,
		arg.Kind,
		inputs,
		arg.Output,
		arg.Status,
		arg.Files,
		arg.Bytes,
		arg.Digest,
		compared,
		arg.Error,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return err
}

const getRun = `-- name: GetRun :one
select ` + runColumns + `
from runs
where id = ?
`

// GetRun returns the run with the given ID.
func (q *Queries) GetRun(ctx context.Context, id uint64) (Run, error) {
	return scanRun(q.db.QueryRowContext(ctx, getRun, id))
}

const listRuns = `-- name: ListRuns :many
select ` + runColumns + `
from runs
where (?1 = '' or name = ?1)
order by started_at desc, id desc
limit ?2
`

// ListRunsParams are the arguments to ListRuns.
type ListRunsParams struct {
	Name  string
	Limit int64
}

// ListRuns returns the most recent runs first.
func (q *Queries) ListRuns(ctx context.Context, arg ListRunsParams) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, arg.Name, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRunsBefore = `-- name: DeleteRunsBefore :execrows
delete from runs
where started_at < ?
`

// DeleteRunsBefore removes runs started before the given time.
func (q *Queries) DeleteRunsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRunsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		inputs   string
		compared string
	)
	err := row.Scan(
		&run.ID,
		&run.Name,
		&run.Version,
		&run.Kind,
		&inputs,
		&run.Output,
		&run.Status,
		&run.Files,
		&run.Bytes,
		&run.Digest,
		&compared,
		&run.Error,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return run, err
	}
	if err = json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return run, fmt.Errorf("failed to decode inputs of run %d: %w", run.ID, err)
	}
	if err = json.Unmarshal([]byte(compared), &run.Compared); err != nil {
		return run, fmt.Errorf("failed to decode compared of run %d: %w", run.ID, err)
	}
	if len(run.Inputs) == 0 {
		run.Inputs = nil
	}
	if len(run.Compared) == 0 {
		run.Compared = nil
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return run, nil
}

// encodeJSON writes nil and empty values as the column default.
func encodeJSON(val any, size int, empty string) (string, error) {
	if size == 0 {
		return empty, nil
	}
	text, err := json.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("failed to encode run column: %w", err)
	}
	return string(text), nil
}
