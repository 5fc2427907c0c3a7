package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/influxdata/influxdb/pkg/snowflake"

	"github.com/stolasapp/forge/internal/build"
	"github.com/stolasapp/forge/internal/storage/db"
)

// DB is a [Store] backed by a SQLite database.
type DB struct {
	ids     *snowflake.Generator
	db      *sql.DB
	queries *db.Queries
}

// NewDB opens the history database at path, creating and migrating it as
// needed.
func NewDB(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	handle, err := db.Open(ctx, logger, path)
	if err != nil {
		return nil, err
	}
	return &DB{
		ids:     snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:      handle,
		queries: db.New(handle),
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// CreateRun satisfies the [Runs] interface.
func (d *DB) CreateRun(ctx context.Context, run db.Run) (db.Run, error) {
	if run.ID == 0 {
		run.ID = d.ids.Next()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	if err := d.queries.InsertRun(ctx, run); err != nil {
		return run, fmt.Errorf("%w: failed to insert run: %w", ErrInternal, err)
	}
	return run, nil
}

// GetRun satisfies the [Runs] interface.
func (d *DB) GetRun(ctx context.Context, runID uint64) (db.Run, error) {
	run, err := d.queries.GetRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return run, ErrNotFound
	}
	return run, err
}

// ListRuns satisfies the [Runs] interface.
func (d *DB) ListRuns(ctx context.Context, name string, limit int32) ([]db.Run, error) {
	return d.queries.ListRuns(ctx, db.ListRunsParams{
		Name:  name,
		Limit: int64(limit),
	})
}

// PruneRuns satisfies the [Runs] interface.
func (d *DB) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	return d.queries.DeleteRunsBefore(ctx, before.UTC())
}

// Record satisfies [build.Recorder], storing a coordinator run record.
func (d *DB) Record(ctx context.Context, rec build.Record) (uint64, error) {
	run, err := d.CreateRun(ctx, db.Run{
		ID:         rec.ID,
		Name:       rec.Name,
		Version:    rec.Version,
		Kind:       string(rec.Kind),
		Inputs:     rec.Inputs,
		Output:     rec.Output,
		Status:     string(rec.Status),
		Files:      int64(rec.Files),
		Bytes:      rec.Bytes,
		Digest:     rec.Digest,
		Compared:   rec.Compared,
		Error:      rec.Error,
		StartedAt:  rec.Start,
		FinishedAt: rec.End,
	})
	return run.ID, err
}

var (
	_ Store          = (*DB)(nil)
	_ build.Recorder = (*DB)(nil)
)
