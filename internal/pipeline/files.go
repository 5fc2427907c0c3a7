package pipeline

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stolasapp/forge/internal/source"
)

// Copier copies each source into a destination directory, keeping file names.
type Copier struct {
	sources []source.Source
	dir     string
	replace bool
	logger  *slog.Logger
}

// NewCopier returns a [Copier]. When replace is false, an existing file in dir
// with the same name fails the run.
func NewCopier(sources []source.Source, dir string, replace bool, logger *slog.Logger) *Copier {
	return &Copier{
		sources: sources,
		dir:     dir,
		replace: replace,
		logger:  logger.With(slog.String("output", dir)),
	}
}

// Run satisfies [Runner].
func (c *Copier) Run(ctx context.Context) (Result, error) {
	res := Result{Output: c.dir}
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dest := filepath.Join(c.dir, filepath.Base(src.Path))
		if !c.replace {
			if _, err := os.Lstat(dest); err == nil {
				return res, fmt.Errorf("%w: %s: %w", ErrSinkWrite, dest, fs.ErrExist)
			}
		}
		size, err := copyFile(src.Path, dest)
		if err != nil {
			return res, err
		}
		c.logger.DebugContext(ctx, "copied", slog.String("source", src.Path), slog.String("dest", dest))
		res.Files++
		res.Bytes += size
	}
	return res, nil
}

func copyFile(from, dest string) (int64, error) {
	src, err := os.Open(from)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, from, err)
	}
	defer func() { _ = src.Close() }()

	sink, err := createAtomic(dest)
	if err != nil {
		return 0, err
	}
	defer sink.Abort()

	if _, err = io.Copy(sink, &sourceReader{src: source.Source{Path: from}, reader: src}); err != nil {
		return 0, err
	}
	if err = sink.Commit(); err != nil {
		return 0, err
	}
	return sink.Size(), nil
}

// Mover moves each source into a destination directory. The rename replaces
// files of the same name; sources already in the directory are left alone.
type Mover struct {
	sources []source.Source
	dir     string
	logger  *slog.Logger
}

// NewMover returns a [Mover].
func NewMover(sources []source.Source, dir string, logger *slog.Logger) *Mover {
	return &Mover{
		sources: sources,
		dir:     dir,
		logger:  logger.With(slog.String("output", dir)),
	}
}

// Run satisfies [Runner].
func (m *Mover) Run(ctx context.Context) (Result, error) {
	res := Result{Output: m.dir}
	const dirPerms = 0o755
	if err := os.MkdirAll(m.dir, dirPerms); err != nil {
		return res, fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		info, err := os.Stat(src.Path)
		if err != nil {
			return res, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, src.Path, err)
		}
		dest := filepath.Join(m.dir, filepath.Base(src.Path))
		if filepath.Clean(dest) == filepath.Clean(src.Path) {
			m.logger.DebugContext(ctx, "already in place", slog.String("source", src.Path))
			res.Files++
			res.Bytes += info.Size()
			continue
		}
		if err = os.Rename(src.Path, dest); err != nil {
			return res, fmt.Errorf("%w: failed to move %s: %w", ErrSinkWrite, src.Path, err)
		}
		m.logger.DebugContext(ctx, "moved", slog.String("source", src.Path), slog.String("dest", dest))
		res.Files++
		res.Bytes += info.Size()
	}
	return res, nil
}
