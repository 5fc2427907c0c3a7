package build

import (
	"context"
	"time"
)

// Status is the outcome of a build.
type Status string

// Build outcomes.
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Record describes one build run.
type Record struct {
	// ID is assigned by the [Recorder], if any.
	ID      uint64
	Name    string
	Version string
	Kind    Kind
	Inputs  []string
	Output  string
	Start   time.Time
	End     time.Time
	Status  Status
	Files   int
	Bytes   int64
	Digest  string
	// Compared holds the outcome of compare modifiers, keyed by match.
	Compared map[string]bool
	Error    string
}

// Elapsed is the duration of the run.
func (r Record) Elapsed() time.Duration { return r.End.Sub(r.Start) }

// Summary aggregates every run of one coordinator invocation.
type Summary struct {
	Start   time.Time
	End     time.Time
	Records []Record
}

// Elapsed is the duration of all runs.
func (s Summary) Elapsed() time.Duration { return s.End.Sub(s.Start) }

// Failed counts the failed runs.
func (s Summary) Failed() int {
	var count int
	for _, rec := range s.Records {
		if rec.Status == StatusFailed {
			count++
		}
	}
	return count
}

// Recorder persists run records.
type Recorder interface {
	// Record stores rec and returns its assigned ID.
	Record(ctx context.Context, rec Record) (uint64, error)
}
