package pipeline

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// outputPerms are applied to committed outputs; temp files start as 0600.
const outputPerms = 0o644

// atomicFile writes to a temporary file next to path and renames it over path
// on commit. Writes are hashed and counted as they pass through.
type atomicFile struct {
	path   string
	tmp    *os.File
	hasher hash.Hash
	size   int64
	done   bool
}

func createAtomic(path string) (*atomicFile, error) {
	dir := filepath.Dir(path)
	const dirPerms = 0o755
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %w", ErrSinkWrite, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp file for %s: %w", ErrSinkWrite, path, err)
	}
	return &atomicFile{path: path, tmp: tmp, hasher: blake3.New()}, nil
}

// Write satisfies [io.Writer]. Failures are reported as [ErrSinkWrite].
func (f *atomicFile) Write(data []byte) (int, error) {
	n, err := f.tmp.Write(data)
	f.hasher.Write(data[:n])
	f.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: %s: %w", ErrSinkWrite, f.path, err)
	}
	return n, nil
}

// Commit flushes the temp file and renames it over the destination.
func (f *atomicFile) Commit() error {
	if f.done {
		return nil
	}
	f.done = true
	err := errors.Join(
		f.tmp.Sync(),
		f.tmp.Chmod(outputPerms),
		f.tmp.Close(),
	)
	if err == nil {
		err = os.Rename(f.tmp.Name(), f.path)
	}
	if err != nil {
		_ = os.Remove(f.tmp.Name())
		return fmt.Errorf("%w: failed to commit %s: %w", ErrSinkWrite, f.path, err)
	}
	return nil
}

// Abort discards the temp file. It is a no-op after Commit.
func (f *atomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.tmp.Close()
	_ = os.Remove(f.tmp.Name())
}

// Digest returns the hex digest of everything written so far.
func (f *atomicFile) Digest() string {
	return hex.EncodeToString(f.hasher.Sum(nil))
}

// Size returns the number of bytes written so far.
func (f *atomicFile) Size() int64 { return f.size }
