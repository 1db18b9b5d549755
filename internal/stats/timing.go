package stats

import (
	"fmt"
	"math"
	"time"
)

// Unknown is shown for a duration that cannot be computed yet.
const Unknown = "unknown"

// FormatTime formats whole seconds with fixed-width components: "45s",
// " 2m  5s", " 1h  1m  5s". Fractions round to the nearest second.
func FormatTime(seconds float64) string {
	total := int(math.RoundToEven(seconds))
	m, s := total/60, total%60
	h, m := m/60, m%60

	if h != 0 {
		return fmt.Sprintf("%2dh %2dm %2ds", h, m, s)
	}
	if m != 0 {
		return fmt.Sprintf("%2dm %2ds", m, s)
	}
	return fmt.Sprintf("%2ds", s)
}

// FormatDuration is FormatTime for a time.Duration.
func FormatDuration(d time.Duration) string {
	return FormatTime(d.Seconds())
}

// Timings tracks when the run and the current test started.
type Timings struct {
	now       func() time.Time
	runStart  time.Time
	testStart time.Time
}

// NewTimings returns timings read from now; nil uses the wall clock.
func NewTimings(now func() time.Time) *Timings {
	if now == nil {
		now = time.Now
	}
	return &Timings{now: now}
}

func (t *Timings) recordRunStart() {
	if t.runStart.IsZero() {
		t.runStart = t.now()
	}
}

// StartSuite records the run start if it has not been recorded yet.
func (t *Timings) StartSuite() {
	t.recordRunStart()
}

// StartTest records the run start if needed and starts the test clock.
func (t *Timings) StartTest() {
	t.recordRunStart()
	t.testStart = t.now()
}

// EndTest stops the test clock.
func (t *Timings) EndTest() {
	t.testStart = time.Time{}
}

// InTest reports whether a test is open.
func (t *Timings) InTest() bool {
	return !t.testStart.IsZero()
}

// Started reports whether the run has started.
func (t *Timings) Started() bool {
	return !t.runStart.IsZero()
}

// Elapsed returns the time since the run started, or zero before it has.
func (t *Timings) Elapsed() time.Duration {
	if !t.Started() {
		return 0
	}
	return t.now().Sub(t.runStart)
}

// FormatElapsed formats Elapsed.
func (t *Timings) FormatElapsed() string {
	return FormatDuration(t.Elapsed())
}

// FormatETA estimates the time left from the average time per completed test.
func (t *Timings) FormatETA(s *Statistics) string {
	total, completed := s.TotalTests(), len(s.Completed)
	if total == 0 || completed == 0 {
		return Unknown
	}
	perTest := t.Elapsed().Seconds() / float64(completed)
	return FormatTime(perTest * float64(max(total-completed, 0)))
}
