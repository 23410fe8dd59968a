package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jsonleex/wr-exporter/exporter"
	"github.com/jsonleex/wr-exporter/models"
	"github.com/mattn/go-isatty"
)

// Reporter prints export progress on a single updating status line and keeps
// a snapshot of the run for the status API. It is safe for concurrent use.
type Reporter struct {
	out io.Writer
	tty bool

	info    *color.Color
	warn    *color.Color
	fail    *color.Color
	success *color.Color

	mu      sync.RWMutex
	status  models.ExportStatus
	started time.Time
}

// New creates a Reporter writing to out. Carriage-return updates and colors
// are used only when out is a terminal.
func New(out io.Writer, runID, bookID string) *Reporter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	r := &Reporter{
		out:     out,
		tty:     tty,
		info:    color.New(color.FgCyan),
		warn:    color.New(color.FgMagenta),
		fail:    color.New(color.FgRed),
		success: color.New(color.FgGreen, color.Bold),
		status: models.ExportStatus{
			RunID:  runID,
			BookID: bookID,
			State:  models.StateStarting,
		},
		started: time.Now(),
	}
	if !tty {
		for _, c := range []*color.Color{r.info, r.warn, r.fail, r.success} {
			c.DisableColor()
		}
	}
	return r
}

// Start marks the beginning of the capture loop.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.status.State = models.StateRunning
	r.started = time.Now()
	r.mu.Unlock()
}

// OnCapture implements exporter.Observer.
func (r *Reporter) OnCapture(a exporter.Artifact, v exporter.Verdict, emptyRun int) {
	r.mu.Lock()
	r.status.Pages = a.Index
	r.status.EmptyRun = emptyRun
	r.status.LastArtifact = a.Name
	r.status.LastSize = v.Size
	r.mu.Unlock()

	if r.tty {
		r.info.Fprintf(r.out, "\r⏳ Exporting... %d", a.Index)
		return
	}
	r.info.Fprintf(r.out, "⏳ Exporting... %d\n", a.Index)
}

// Finish prints the outcome and the summary line.
func (r *Reporter) Finish(report *exporter.Report, err error) {
	if r.tty {
		fmt.Fprintln(r.out)
	}

	state := models.StateCompleted
	switch {
	case err != nil:
		state = models.StateFailed
		r.fail.Fprintf(r.out, "🔴 Export failed: %v\n", err)
	case report.Reason == exporter.ReasonContentExhausted:
		r.warn.Fprintln(r.out, "🟣 Too many empty pages. Maybe the book is finished.")
	case report.Reason == exporter.ReasonUserCancelled:
		state = models.StateCancelled
		fmt.Fprintln(r.out, "----------------")
		r.fail.Fprintln(r.out, "🔴 User Cancelled.")
	}

	pages, empty := 0, 0
	if report != nil {
		pages, empty = report.Pages, report.EmptyRun
	}
	r.success.Fprintf(r.out, "✅ Exported %d images (empty %d)\n", pages, empty)

	r.mu.Lock()
	r.status.State = state
	r.status.Pages = pages
	r.status.EmptyRun = empty
	r.status.Error = models.DetailOf(err)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current run status.
func (r *Reporter) Snapshot() models.ExportStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.status
	s.Elapsed = time.Since(r.started).Round(time.Second).String()
	return s
}
