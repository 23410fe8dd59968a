package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsonleex/wr-exporter/models"
)

// Control is a located page-turn element.
type Control interface {
	String() string
}

// Session is the prepared reader page the loop drives. It must already be
// authenticated, loaded, styled and sized for capture.
type Session interface {
	// Screenshot renders the current viewport to an image.
	Screenshot(ctx context.Context) ([]byte, error)

	// NextPageControl locates the page-turn control without waiting for it.
	NextPageControl(ctx context.Context) (Control, error)

	// Click triggers the control. The page turn completes asynchronously.
	Click(ctx context.Context, c Control) error
}

// Sink persists artifacts. Write must flush before returning so that Stat
// sees the final size, and must never overwrite an existing artifact.
type Sink interface {
	Stater
	Write(name string, data []byte) (string, error)
}

// Artifact is one persisted screenshot.
type Artifact struct {
	Index int
	Name  string
	Path  string
	Size  int64
}

// Observer is notified after every classified capture. It is called from
// the loop goroutine.
type Observer interface {
	OnCapture(a Artifact, v Verdict, emptyRun int)
}

// Reason is why a run ended without error.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonUserCancelled    Reason = "user-cancelled"
	ReasonContentExhausted Reason = "content-exhausted"
)

// Report summarises a run. Pages counts completed captures.
type Report struct {
	Pages      int       `json:"pages"`
	EmptyRun   int       `json:"empty_run"`
	Reason     Reason    `json:"reason,omitempty"`
	Artifacts  []string  `json:"artifacts"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Options are the loop's policy parameters.
type Options struct {
	// MaxEmptyRun ends the run once the consecutive-empty counter reaches it.
	MaxEmptyRun int // default: 5

	// Settle defaults to FixedSettle{3s, 3s}.
	Settle SettlePolicy

	// Signal defaults to a ContextSignal over the Run context.
	Signal Signal

	// Observer is optional.
	Observer Observer

	// Ext is the artifact file extension without the dot.
	Ext string // default: "png"

	// Now defaults to time.Now.
	Now func() time.Time
}

// Loop captures a book page by page until it ends or is cancelled.
type Loop struct {
	detector *Detector
	opts     Options
}

// New creates a Loop, filling unset options with their defaults.
func New(detector *Detector, opts Options) *Loop {
	if opts.MaxEmptyRun <= 0 {
		opts.MaxEmptyRun = 5
	}
	if opts.Settle == nil {
		opts.Settle = FixedSettle{Before: 3 * time.Second, After: 3 * time.Second}
	}
	if opts.Ext == "" {
		opts.Ext = "png"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{detector: detector, opts: opts}
}

// state is the mutable run state, owned by one Run call.
type state struct {
	pages    int
	emptyRun int
	reason   Reason
	names    []string
}

// Run drives session until the book is exhausted, the signal fires or an
// error occurs. The returned report is non-nil in every case; artifacts
// written before a failure stay in the sink.
//
// Iteration (numbered steps match the inline comments):
//
//  1. Checkpoint, settle before capture
//  2. Checkpoint, capture + persist, page counter +1
//  3. Classify, update consecutive-empty counter
//  4. Exhausted check
//  5. Checkpoint, locate next control + click (missing control is fatal)
//  6. Settle after advance
//
// ctx is passed to browser calls; cancellation is observed only through the
// signal so an in-flight screenshot or click is allowed to complete. Sessions
// bound each call with their own deadline; an expired deadline fails the run
// like any other capture or navigation error.
func (l *Loop) Run(ctx context.Context, session Session, sink Sink) (*Report, error) {
	signal := l.opts.Signal
	if signal == nil {
		signal = NewContextSignal(ctx)
	}

	st := &state{}
	started := l.opts.Now()
	finish := func(err error) (*Report, error) {
		return &Report{
			Pages:      st.pages,
			EmptyRun:   st.emptyRun,
			Reason:     st.reason,
			Artifacts:  st.names,
			StartedAt:  started,
			FinishedAt: l.opts.Now(),
		}, err
	}
	cancelled := func(step string) bool {
		if !signal.IsSet() {
			return false
		}
		st.reason = ReasonUserCancelled
		slog.Info("export cancelled", "step", step, "pages", st.pages)
		return true
	}

	for {
		// ── 1. Settle ───────────────────────────────────────────────
		if cancelled("settle") {
			return finish(nil)
		}
		l.opts.Settle.Settle(BeforeCapture)

		// ── 2. Capture ──────────────────────────────────────────────
		if cancelled("capture") {
			return finish(nil)
		}
		a, err := l.capture(ctx, session, sink, st.pages+1)
		if err != nil {
			return finish(err)
		}
		st.pages++
		st.names = append(st.names, a.Name)

		// ── 3. Classify ─────────────────────────────────────────────
		v, err := l.detector.Classify(a)
		if err != nil {
			return finish(err)
		}
		a.Size = v.Size
		st.emptyRun = nextEmptyRun(st.emptyRun, v)
		slog.Debug("page captured",
			"index", a.Index,
			"name", a.Name,
			"size", v.Size,
			"empty", v.Empty,
			"emptyRun", st.emptyRun,
		)
		if l.opts.Observer != nil {
			l.opts.Observer.OnCapture(a, v, st.emptyRun)
		}

		// ── 4. Exhausted check ──────────────────────────────────────
		if st.emptyRun >= l.opts.MaxEmptyRun {
			st.reason = ReasonContentExhausted
			slog.Info("too many empty pages, book looks finished",
				"pages", st.pages,
				"emptyRun", st.emptyRun,
			)
			return finish(nil)
		}

		// ── 5. Advance ──────────────────────────────────────────────
		if cancelled("advance") {
			return finish(nil)
		}
		if err := l.advance(ctx, session); err != nil {
			return finish(err)
		}

		// ── 6. Post-advance settle ──────────────────────────────────
		l.opts.Settle.Settle(AfterAdvance)
	}
}

// capture takes one screenshot and persists it under a fresh name.
func (l *Loop) capture(ctx context.Context, session Session, sink Sink, index int) (Artifact, error) {
	data, err := session.Screenshot(ctx)
	if err != nil {
		return Artifact{}, models.NewExportError(
			models.ErrCodeCapture,
			fmt.Sprintf("screenshot %d failed", index),
			err,
		)
	}

	name := ArtifactName(l.opts.Now(), index, l.opts.Ext)
	path, err := sink.Write(name, data)
	if err != nil {
		return Artifact{}, models.NewExportError(
			models.ErrCodeCapture,
			fmt.Sprintf("failed to persist screenshot %d", index),
			err,
		)
	}
	return Artifact{Index: index, Name: name, Path: path, Size: int64(len(data))}, nil
}

// advance turns the page. Errors are never retried: a missing control may
// mean the markup changed or that the book ended unnoticed.
func (l *Loop) advance(ctx context.Context, session Session) error {
	ctrl, err := session.NextPageControl(ctx)
	if err != nil {
		return asNavigationError("next page control not found", err)
	}
	if err := session.Click(ctx, ctrl); err != nil {
		return asNavigationError("failed to click "+ctrl.String(), err)
	}
	return nil
}

func asNavigationError(msg string, err error) error {
	if models.HasCode(err, models.ErrCodeNavigation) {
		return err
	}
	return models.NewExportError(models.ErrCodeNavigation, msg, err)
}

// ArtifactName derives a file name from the capture time and the sequence
// index. The index keeps names distinct within the same second.
func ArtifactName(t time.Time, index int, ext string) string {
	return fmt.Sprintf("%s-%05d.%s", t.Format("20060102150405"), index, ext)
}
