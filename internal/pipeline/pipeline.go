// Package pipeline runs a single build configuration: it reads the inputs in
// order, streams them through the transform engine, optionally minifies the
// assembled text and atomically commits the output.
//
// A [Builder] run is split into two stages connected by an [io.Pipe]:
//
//	sources → engine ─pipe─→ (minifier) → temp file → rename(output)
//
// The producer blocks until the consumer has taken each chunk, so bytes reach
// the output in exactly the order the sources were declared.
package pipeline

import (
	"context"
)

const (
	// ErrSourceUnreadable is returned when an input cannot be opened or read.
	ErrSourceUnreadable Error = "source unreadable"
	// ErrMinification is returned when the minifier rejects the assembled
	// text. No output is written.
	ErrMinification Error = "minification failed"
	// ErrSinkWrite is returned when the output cannot be written or
	// committed.
	ErrSinkWrite Error = "output unwritable"
)

// Error is an error type returned by pipeline runs.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Runner produces the output of one build configuration.
type Runner interface {
	// Run executes the build to completion. A failed run leaves any
	// previously committed output in place.
	Run(ctx context.Context) (Result, error)
}

// Result describes a committed output.
type Result struct {
	// Output is the path that was written, or the destination directory for
	// copy and move runs.
	Output string
	// Files is the number of files committed.
	Files int
	// Bytes is the total size of the committed files.
	Bytes int64
	// Digest is the hex BLAKE3 digest of the output. Empty for copy and
	// move runs.
	Digest string
	// Compared holds the outcome of compare modifiers, keyed by match.
	Compared map[string]bool
}
