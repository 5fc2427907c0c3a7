package db

import (
	"time"
)

// Elapsed returns how long the run took.
func (r Run) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

