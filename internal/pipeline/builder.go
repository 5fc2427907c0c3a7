package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/forge/internal/minify"
	"github.com/stolasapp/forge/internal/modifier"
	"github.com/stolasapp/forge/internal/source"
	"github.com/stolasapp/forge/internal/transform"
)

// Options configure a [Builder]. They are read once at construction.
type Options struct {
	// Name labels the build in logs.
	Name string
	// Sources are concatenated in order.
	Sources []source.Source
	// Output is the destination file.
	Output string
	// Type selects the minifier.
	Type minify.Type
	// Minify enables minification of the assembled text.
	Minify bool
	// Gzip is reserved and currently has no effect.
	Gzip bool
	// SpanInputs lets a match span the end of one source and the start of
	// the next. By default each source is transformed in isolation.
	SpanInputs bool
	// Modifiers are applied in order.
	Modifiers []*modifier.Modifier
	// OnState, if set, is called on every state transition.
	OnState func(State)
}

// Builder concatenates, transforms and optionally minifies its sources into a
// single output file. A Builder runs once.
type Builder struct {
	opts   Options
	logger *slog.Logger
	engine *transform.Engine
	state  atomic.Int32
}

// NewBuilder validates opts and prepares the transform engine. Modifier
// contents are resolved here, so an unreadable contents file fails with
// [modifier.ErrContentUnreadable] before any output is touched.
func NewBuilder(opts Options, logger *slog.Logger) (*Builder, error) {
	if opts.Output == "" {
		return nil, errors.New("output path is required")
	}
	engine, err := transform.New(opts.Modifiers...)
	if err != nil {
		return nil, err
	}
	return &Builder{
		opts:   opts,
		logger: logger.With(slog.String("build", opts.Name), slog.String("output", opts.Output)),
		engine: engine,
	}, nil
}

// State returns the current state of the run.
func (b *Builder) State() State { return State(b.state.Load()) }

func (b *Builder) transition(next State) {
	prev := State(b.state.Swap(int32(next)))
	if prev == next {
		return
	}
	b.logger.Debug("build state", slog.String("from", prev.String()), slog.String("to", next.String()))
	if b.opts.OnState != nil {
		b.opts.OnState(next)
	}
}

// Run satisfies [Runner].
func (b *Builder) Run(ctx context.Context) (res Result, err error) {
	if b.State() != StateInit {
		return res, fmt.Errorf("build %q already ran", b.opts.Name)
	}
	defer func() {
		if err != nil {
			b.transition(StateFailed)
		}
	}()

	if b.opts.Gzip {
		b.logger.WarnContext(ctx, "gzip output is not supported yet; writing uncompressed output")
	}

	sink, err := createAtomic(b.opts.Output)
	if err != nil {
		return res, err
	}
	defer sink.Abort()

	pipeReader, pipeWriter := io.Pipe()
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		err := b.produce(grpCtx, pipeWriter)
		_ = pipeWriter.CloseWithError(err)
		return err
	})
	grp.Go(func() error {
		err := b.consume(sink, pipeReader)
		_ = pipeReader.CloseWithError(err)
		return err
	})
	if err = grp.Wait(); err != nil {
		return res, err
	}

	b.transition(StateWriting)
	if err = sink.Commit(); err != nil {
		return res, err
	}
	b.transition(StateDone)

	compared := b.engine.Compared()
	for match, seen := range compared {
		b.logger.InfoContext(ctx, "compare", slog.String("match", match), slog.Bool("found", seen))
	}
	return Result{
		Output:   b.opts.Output,
		Files:    1,
		Bytes:    sink.Size(),
		Digest:   sink.Digest(),
		Compared: compared,
	}, nil
}

// produce streams every source through the engine into dst.
func (b *Builder) produce(ctx context.Context, dst io.Writer) error {
	b.transition(StateReading)
	writer := b.engine.Writer(dst)
	for idx, src := range b.opts.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.copySource(writer, src); err != nil {
			return err
		}
		if !b.opts.SpanInputs && idx < len(b.opts.Sources)-1 {
			if err := writer.Flush(); err != nil {
				return err
			}
		}
	}
	b.transition(StateAssembling)
	return writer.Close()
}

func (b *Builder) copySource(dst io.Writer, src source.Source) error {
	reader, err := src.Open(b.logger)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, src.Path, err)
	}
	defer func() { _ = reader.Close() }()

	b.logger.Debug("reading source", slog.String("source", src.String()))
	_, err = io.Copy(dst, &sourceReader{src: src, reader: reader})
	return err
}

// consume drains the transformed stream into the sink, minifying it first if
// enabled.
func (b *Builder) consume(sink io.Writer, src io.Reader) error {
	if !b.opts.Minify {
		_, err := io.Copy(sink, src)
		return err
	}

	assembled, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	b.transition(StateMinifying)
	minified, err := minify.Minify(assembled, b.opts.Type)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMinification, b.opts.Output, err)
	}
	b.logger.Debug("minified",
		slog.String("type", b.opts.Type.String()),
		slog.Int("before", len(assembled)),
		slog.Int("after", len(minified)))
	_, err = sink.Write(minified)
	return err
}

// sourceReader tags read failures with the source they came from.
type sourceReader struct {
	src    source.Source
	reader io.Reader
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, r.src.Path, err)
	}
	return n, err
}
