package db

import (
	"time"
)

// Run is a row of the runs table.
type Run struct {
	ID         uint64
	Name       string
	Version    string
	Kind       string
	Inputs     []string
	Output     string
	Status     string
	Files      int64
	Bytes      int64
	Digest     string
	Compared   map[string]bool
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
