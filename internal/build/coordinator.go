package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stolasapp/forge/internal/config"
	"github.com/stolasapp/forge/internal/pipeline"
	"github.com/stolasapp/forge/internal/source"
)

// Options configure a [Coordinator].
type Options struct {
	// Report enables the build report for builds that do not override it.
	Report bool
	// Banner prints the banner when the report begins.
	Banner bool
	// Out receives the build report. Reporting is disabled when nil.
	Out io.Writer
	// ContinueOnError runs the remaining builds after one fails.
	ContinueOnError bool
	// Recorder, if set, stores a record of every run.
	Recorder Recorder
	// Now overrides the clock.
	Now func() time.Time
}

// Coordinator runs builds sequentially, in declaration order.
type Coordinator struct {
	opts     Options
	logger   *slog.Logger
	reporter *Reporter
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts Options, logger *slog.Logger) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	coord := &Coordinator{
		opts:   opts,
		logger: logger,
	}
	if opts.Out != nil {
		coord.reporter = NewReporter(opts.Out, opts.Banner)
	}
	return coord
}

// Run executes every build in order. It stops at the first failure unless
// ContinueOnError is set. Each failure is wrapped in a [*RunError]; the
// returned error joins all of them.
func (c *Coordinator) Run(ctx context.Context, builds []config.Build) (Summary, error) {
	summary := Summary{Start: c.opts.Now()}
	reporter := c.reporterFor(c.opts.Report)
	reporter.Begin(summary.Start)

	var errs []error
	for _, build := range builds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rec, err := c.runOne(ctx, build)
		if c.opts.Recorder != nil {
			id, recErr := c.opts.Recorder.Record(ctx, rec)
			if recErr != nil {
				c.logger.WarnContext(ctx, "failed to record build", slog.String("build", rec.Name), slog.Any("error", recErr))
			}
			rec.ID = id
		}
		summary.Records = append(summary.Records, rec)
		c.reporterFor(build.LoggerEnabled(c.opts.Report)).Run(rec)
		if err != nil {
			errs = append(errs, err)
			if !c.opts.ContinueOnError {
				break
			}
		}
	}

	summary.End = c.opts.Now()
	reporter.End(summary)
	c.logger.InfoContext(ctx, "builds finished",
		slog.Int("runs", len(summary.Records)),
		slog.Int("failed", summary.Failed()),
		slog.Duration("elapsed", summary.Elapsed()),
	)
	return summary, errors.Join(errs...)
}

func (c *Coordinator) reporterFor(enabled bool) *Reporter {
	if !enabled {
		return nil
	}
	return c.reporter
}

func (c *Coordinator) runOne(ctx context.Context, build config.Build) (rec Record, err error) {
	rec = Record{
		Name:    build.Label(),
		Version: build.Version,
		Output:  build.Output,
		Start:   c.opts.Now(),
		Status:  StatusFailed,
	}
	defer func() {
		rec.End = c.opts.Now()
		if err != nil {
			rec.Error = err.Error()
			err = &RunError{Name: rec.Name, Err: err}
			c.logger.ErrorContext(ctx, "build failed", slog.String("build", rec.Name), slog.Any("error", err))
		}
	}()

	runner, kind, sources, err := c.Prepare(build)
	rec.Kind = kind
	rec.Inputs = source.Paths(sources)
	if err != nil {
		return rec, err
	}

	c.logger.DebugContext(ctx, "running build",
		slog.String("build", rec.Name),
		slog.String("kind", string(kind)),
		slog.Int("inputs", len(sources)),
	)
	res, err := runner.Run(ctx)
	if err != nil {
		return rec, err
	}
	rec.Status = StatusSucceeded
	rec.Files = res.Files
	rec.Bytes = res.Bytes
	rec.Digest = res.Digest
	rec.Compared = res.Compared
	return rec, nil
}

// Prepare infers the build's kind, expands its inputs and constructs the
// runner for it. Nothing is written.
func (c *Coordinator) Prepare(build config.Build) (pipeline.Runner, Kind, []source.Source, error) {
	kind, err := InferKind(build.Type, build.Output)
	if err != nil {
		return nil, "", nil, err
	}
	mods, err := build.BuildModifiers()
	if err != nil {
		return nil, kind, nil, err
	}
	sources, err := source.Expand("", build.Descriptors())
	if errors.Is(err, source.ErrNoMatch) {
		return nil, kind, nil, fmt.Errorf("%w: %w", pipeline.ErrSourceUnreadable, err)
	} else if err != nil {
		return nil, kind, nil, err
	}

	logger := c.logger.With(slog.String("kind", string(kind)))
	if len(mods) > 0 && kind.IsFileOp() {
		logger.Warn("modifiers are ignored by file operations", slog.String("build", build.Label()))
	}
	switch kind {
	case KindCopy:
		return pipeline.NewCopier(sources, build.Output, build.ReplaceExisting(), logger), kind, sources, nil
	case KindMove:
		return pipeline.NewMover(sources, build.Output, logger), kind, sources, nil
	}
	runner, err := pipeline.NewBuilder(pipeline.Options{
		Name:       build.Label(),
		Sources:    sources,
		Output:     build.Output,
		Type:       kind.MinifyType(),
		Minify:     build.Minify,
		Gzip:       build.Gzip,
		SpanInputs: build.SpanInputs,
		Modifiers:  mods,
	}, logger)
	if err != nil {
		return nil, kind, sources, err
	}
	return runner, kind, sources, nil
}
