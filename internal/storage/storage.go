// Package storage provides the build history: a record of every build run.
package storage

import (
	"context"
	"time"

	"github.com/stolasapp/forge/internal/storage/db"
)

const (
	// ErrNotFound is returned when a run cannot be found.
	ErrNotFound Error = "not found"
	// ErrInternal is returned for any other type of error.
	ErrInternal Error = "internal error"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Runs are the methods on a storage implementation that are responsible for
// accessing and modifying run records.
type Runs interface {
	// CreateRun stores a run, assigning it an ID if it has none. The stored
	// run is returned.
	CreateRun(ctx context.Context, run db.Run) (db.Run, error)
	// GetRun returns a single run with the specified ID. An [ErrNotFound] is
	// returned if the run does not exist.
	GetRun(ctx context.Context, runID uint64) (db.Run, error)
	// ListRuns returns the most recent runs first, up to limit records. If
	// name is not empty, only runs of that build are returned.
	ListRuns(ctx context.Context, name string, limit int32) ([]db.Run, error)
	// PruneRuns deletes every run started before the given time, returning
	// the number of runs removed.
	PruneRuns(ctx context.Context, before time.Time) (int64, error)
}

// Store is the combination interface for [Runs] and its lifecycle.
type Store interface {
	Runs
	// Close releases any resources held by the store. An error is returned if
	// the store cannot be cleanly closed.
	Close() error
}
