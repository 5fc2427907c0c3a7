package build

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const banner = `
   ___                 
  / _/__  _______ ____ 
 / _/ _ \/ __/ _ '/ -_)
/_/ \___/_/  \_, /\__/ 
            /___/      
`

// Reporter writes the human-readable build report. It never affects the
// outcome of a build; write errors are ignored.
type Reporter struct {
	out    io.Writer
	banner bool
}

// NewReporter creates a Reporter writing to out. A nil Reporter reports
// nothing.
func NewReporter(out io.Writer, banner bool) *Reporter {
	return &Reporter{out: out, banner: banner}
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Begin reports the start of a sequence of builds.
func (r *Reporter) Begin(start time.Time) {
	if r == nil {
		return
	}
	if r.banner {
		r.printf("%s\n", banner)
	}
	r.printf("Build started: %s\n\n", start.Format(time.DateTime))
}

// Run reports a single finished build.
func (r *Reporter) Run(rec Record) {
	if r == nil {
		return
	}
	name := rec.Name
	if rec.Version != "" {
		name += " - V" + rec.Version
	}
	r.printf("%s\n", name)
	r.printf("- INPUT\n")
	for _, in := range rec.Inputs {
		r.printf("  %s\n", in)
	}
	r.printf("- OUTPUT\n  %s\n", rec.Output)
	r.printf("- STATUS\n  %s [%s]\n", strings.ToUpper(string(rec.Status)), formatElapsed(rec.Elapsed()))
	if rec.Error != "" {
		r.printf("  %s\n", rec.Error)
	}
	r.printf("\n")
}

// End reports the end of a sequence of builds.
func (r *Reporter) End(summary Summary) {
	if r == nil {
		return
	}
	r.printf("Build finished: %s [%s]\n", summary.End.Format(time.DateTime), formatElapsed(summary.Elapsed()))
	if failed := summary.Failed(); failed > 0 {
		r.printf("%d of %d builds failed\n", failed, len(summary.Records))
	}
}

// formatElapsed renders d as HH:MM:SS.mmm.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}
