package exporter

import "time"

// Phase identifies where in an iteration the loop is waiting.
type Phase int

const (
	// BeforeCapture lets the current page finish rendering.
	BeforeCapture Phase = iota
	// AfterAdvance lets the page-turn transition complete.
	AfterAdvance
)

func (p Phase) String() string {
	switch p {
	case BeforeCapture:
		return "before-capture"
	case AfterAdvance:
		return "after-advance"
	default:
		return "unknown"
	}
}

// SettlePolicy decides how long the loop waits for the page to be ready.
// Settle blocks; it is not interrupted by cancellation.
type SettlePolicy interface {
	Settle(phase Phase)
}

// FixedSettle waits a fixed duration per phase. The reader gives no signal
// for "render complete", so elapsed time is the only readiness test.
type FixedSettle struct {
	Before time.Duration
	After  time.Duration

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Settle sleeps for the phase's full duration.
func (s FixedSettle) Settle(phase Phase) {
	d := s.Before
	if phase == AfterAdvance {
		d = s.After
	}
	if d <= 0 {
		return
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}
