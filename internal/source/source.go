// Package source resolves and opens the inputs of a build.
//
// A [Descriptor] names one or more files (a glob may expand to many) and the
// fragment processing they need before they enter the transform engine.
// [Expand] turns descriptors into an ordered list of [Source] values, and
// [Source.Open] yields each one as a UTF-8 byte stream.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoMatch is returned when a glob pattern matches no files.
var ErrNoMatch = errors.New("pattern matched no files")

// Descriptor describes one input entry of a build configuration.
type Descriptor struct {
	// Path is a file path or a glob pattern. Relative paths are resolved
	// against the base directory passed to Expand.
	Path string
	// Tag is an optional label used when reporting, e.g. start, content or
	// end for HTML assembly.
	Tag string
	// Select keeps only the inner HTML of the first element matching this CSS
	// selector.
	Select string
	// Markdown renders the file from Markdown to HTML.
	Markdown bool
	// Sanitize strips unsafe markup from the (rendered) HTML.
	Sanitize bool
	// Charset overrides encoding detection.
	Charset string
}

// Validate reports descriptor fields that can never work.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return errors.New("input path is empty")
	}
	if d.Select != "" {
		if _, err := compileSelector(d.Select); err != nil {
			return err
		}
	}
	return nil
}

func (d Descriptor) fragment() (Transformer, error) {
	var chain []Transformer
	if d.Markdown {
		chain = append(chain, MarkdownToHTML())
	}
	if d.Select != "" {
		selectHTML, err := SelectHTML(d.Select)
		if err != nil {
			return nil, err
		}
		chain = append(chain, selectHTML)
	}
	if d.Sanitize {
		chain = append(chain, SanitizeHTML())
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return Chain(chain...), nil
}

// Source is a single input file ready to be opened.
type Source struct {
	Path    string
	Tag     string
	charset string

	fragment Transformer
}

// String satisfies [fmt.Stringer].
func (s Source) String() string {
	if s.Tag == "" {
		return s.Path
	}
	return s.Tag + ":" + s.Path
}

// IsGlob reports whether path contains glob metacharacters.
func IsGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// Expand resolves descriptors into sources, preserving declaration order.
// Glob matches are sorted so that builds are deterministic.
func Expand(baseDir string, descriptors []Descriptor) ([]Source, error) {
	var sources []Source
	for _, desc := range descriptors {
		if err := desc.Validate(); err != nil {
			return nil, err
		}
		fragment, err := desc.fragment()
		if err != nil {
			return nil, err
		}

		path := desc.Path
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		paths := []string{path}
		if IsGlob(path) {
			if paths, err = doublestar.FilepathGlob(path, doublestar.WithFilesOnly()); err != nil {
				return nil, fmt.Errorf("bad glob %q: %w", desc.Path, err)
			}
			if len(paths) == 0 {
				return nil, fmt.Errorf("%w: %s", ErrNoMatch, desc.Path)
			}
			slices.Sort(paths)
		}

		for _, match := range paths {
			sources = append(sources, Source{
				Path:     match,
				Tag:      desc.Tag,
				charset:  desc.Charset,
				fragment: fragment,
			})
		}
	}
	return sources, nil
}

// Paths returns the path of every source, in order.
func Paths(sources []Source) []string {
	paths := make([]string, len(sources))
	for idx, src := range sources {
		paths[idx] = src.Path
	}
	return paths
}

// Open opens the source as a UTF-8 stream. Plain files are streamed; sources
// with fragment processing are read and transformed in full first.
func (s Source) Open(logger *slog.Logger) (io.ReadCloser, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	decoded, err := NewUTF8Reader(file, s.contentType(), s.charset, logger)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", s.Path, err)
	}
	if s.fragment == nil {
		return readCloser{Reader: decoded, Closer: file}, nil
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, err
	}
	if data, err = s.fragment.Transform(data); err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", s.Path, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s Source) contentType() string {
	// Only the media type is kept; a charset from the system mime table would
	// mask BOM and meta tag detection.
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(filepath.Ext(s.Path)))
	if err != nil || mediaType == "" {
		return "text/plain"
	}
	return mediaType
}

type readCloser struct {
	io.Reader
	io.Closer
}
