package listener

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonsim/robot-trace/internal/ansi"
	"github.com/jonsim/robot-trace/internal/config"
	"github.com/jonsim/robot-trace/internal/event"
	"github.com/jonsim/robot-trace/internal/progress"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var boxClear = strings.Repeat(ansi.ClearLine+ansi.Up(1), progress.Rows-1) + ansi.ClearLine + ansi.Home

func newTestListener(v config.Verbosity, out, box *bytes.Buffer) (*Listener, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	opts := Options{Verbosity: v, Width: 80, Out: out, Now: clock.now}
	if box != nil {
		opts.Progress = box
	}
	return New(opts), clock
}

func kw(name string, args ...string) event.KeywordStart {
	return event.KeywordStart{Name: "BuiltIn." + name, KwName: name, Type: event.KindKeyword, Args: args}
}

// runTwoTests drives a run with one failing and one passing test, ten
// seconds each.
func runTwoTests(l *Listener, clock *fakeClock) {
	l.StartSuite(event.SuiteStart{Name: "Top", LongName: "Top", TotalTests: 2})

	l.StartTest(event.TestStart{Name: "T1", LongName: "Top.T1"})
	l.StartKeyword(kw("Fail", "oops"))
	l.LogMessage(event.Message{Level: event.LevelFail, Text: "oops"})
	l.EndKeyword(event.KeywordEnd{Status: event.StatusFail})
	clock.advance(10 * time.Second)
	l.EndTest(event.TestEnd{Name: "T1", LongName: "Top.T1", Status: event.StatusFail, Message: "oops"})

	l.StartTest(event.TestStart{Name: "T2", LongName: "Top.T2"})
	l.StartKeyword(kw("No Operation"))
	l.EndKeyword(event.KeywordEnd{Status: event.StatusPass})
	clock.advance(10 * time.Second)
	l.EndTest(event.TestEnd{Name: "T2", LongName: "Top.T2", Status: event.StatusPass})

	l.EndSuite(event.SuiteEnd{Name: "Top", LongName: "Top", Status: event.StatusFail, Message: "1 failed"})
	l.Close()
}

func TestListener_NormalRun(t *testing.T) {
	var out bytes.Buffer
	l, clock := newTestListener(config.Normal, &out, nil)
	runTwoTests(l, clock)

	expected := "TEST FAILED: Top.T1\n" + strings.Repeat("═", 19) + "\n" +
		"▶ BuiltIn.Fail('oops')\n" +
		"  F oops\n" +
		"  ✗ FAIL     0s\n" +
		"\n" +
		"RUN COMPLETE: 2 tests, 2 completed (1 passed, 0 skipped, 1 failed).\n" +
		"\n" +
		"Failing test:\n" +
		"- Top.T1\n" +
		"\n" +
		"Total elapsed: 20s.\n"
	assert.Equal(t, expected, out.String())
}

func TestListener_QuietRun(t *testing.T) {
	var out bytes.Buffer
	l, clock := newTestListener(config.Quiet, &out, nil)
	runTwoTests(l, clock)

	assert.Contains(t, out.String(), "TEST FAILED: Top.T1\n")
	assert.True(t, strings.HasSuffix(out.String(), "\nRUN COMPLETE: 2 tests, 2 completed (1 passed, 0 skipped, 1 failed).\n"), out.String())
	assert.NotContains(t, out.String(), "Failing test")
	assert.NotContains(t, out.String(), "Total elapsed")
}

func TestListener_DebugRunIsLive(t *testing.T) {
	var out bytes.Buffer
	l, clock := newTestListener(config.Debug, &out, nil)
	runTwoTests(l, clock)

	assert.True(t, strings.HasPrefix(out.String(), "SUITE: Top\n"), out.String())
	assert.Contains(t, out.String(), "TEST: Top.T2\n")
	assert.Contains(t, out.String(), "▶ BuiltIn.No Operation()\n  ✓ PASS     0s\n")
}

func TestListener_TraceIsWrittenBetweenClearAndDraw(t *testing.T) {
	var out bytes.Buffer
	l, clock := newTestListener(config.Normal, &out, &out)
	runTwoTests(l, clock)

	got := out.String()
	i := strings.Index(got, "TEST FAILED")
	require.Positive(t, i)
	assert.True(t, strings.HasSuffix(got[:i], boxClear), "box must be cleared right before trace output")
	assert.True(t, strings.HasPrefix(got[i:], "TEST FAILED: Top.T1\n"))

	afterTrace := got[i+strings.Index(got[i:], "  ✗ FAIL     0s\n\n")+len("  ✗ FAIL     0s\n\n"):]
	assert.True(t, strings.HasPrefix(afterTrace, "┌"), "box must be drawn right after trace output")

	j := strings.Index(got, "RUN COMPLETE")
	assert.True(t, strings.HasSuffix(got[:j], boxClear), "box must be cleared before the summary")
	assert.NotContains(t, got[j:], "┌")
}

func TestListener_BoxLines(t *testing.T) {
	var out, box bytes.Buffer
	l, _ := newTestListener(config.Normal, &out, &box)

	assert.True(t, strings.HasPrefix(box.String(), "┌"), "an empty box is drawn on creation")

	l.StartSuite(event.SuiteStart{Name: "Top", LongName: "Top", TotalTests: 2})
	assert.Equal(t, "[SUITE  1] Top", strings.TrimRight(l.box.Line(progress.SuiteLine), " "))
	assert.Equal(t, 2, l.box.Total())

	l.StartTest(event.TestStart{Name: "T1", LongName: "Top.T1"})
	testLine := l.box.Line(progress.TestLine)
	assert.True(t, strings.HasPrefix(testLine, "[TEST  1/ 2] T1 "), testLine)
	assert.True(t, strings.HasSuffix(testLine, "(elapsed  0s, ETA unknown)"), testLine)
	assert.Equal(t, 76, ansi.VisibleLen(testLine))

	l.StartKeyword(kw("Log", "hi"))
	assert.Equal(t, "[Log]  ('hi')", strings.TrimRight(l.box.Line(progress.StepLine), " "))

	l.EndKeyword(event.KeywordEnd{Status: event.StatusPass})
	assert.Empty(t, strings.TrimSpace(l.box.Line(progress.StepLine)))

	l.EndTest(event.TestEnd{Name: "T1", LongName: "Top.T1", Status: event.StatusPass})
	assert.Equal(t, 1, l.box.Completed())
	assert.Empty(t, strings.TrimSpace(l.box.Line(progress.TestLine)))

	l.EndSuite(event.SuiteEnd{LongName: "Top", Status: event.StatusPass})
	assert.Empty(t, strings.TrimSpace(l.box.Line(progress.SuiteLine)))

	assert.Empty(t, out.String(), "nothing printed for a clean pass before close")
}

func TestListener_TestLineFallsBackToLongName(t *testing.T) {
	var box bytes.Buffer
	l, _ := newTestListener(config.Normal, &bytes.Buffer{}, &box)

	l.StartSuite(event.SuiteStart{LongName: "Top", TotalTests: 1})
	l.StartTest(event.TestStart{LongName: "Top.Anonymous"})

	assert.True(t, strings.HasPrefix(l.box.Line(progress.TestLine), "[TEST  1/ 1] Top.Anonymous "))
}

func TestListener_ZeroTotalLeavesBoxWithoutBar(t *testing.T) {
	var box bytes.Buffer
	l, _ := newTestListener(config.Normal, &bytes.Buffer{}, &box)

	l.StartSuite(event.SuiteStart{LongName: "Top", TotalTests: 0})
	assert.Equal(t, 0, l.box.Total())
	assert.NotContains(t, box.String(), "░")
}

func TestListener_ETAOnSecondTest(t *testing.T) {
	var box bytes.Buffer
	l, clock := newTestListener(config.Normal, &bytes.Buffer{}, &box)

	l.StartSuite(event.SuiteStart{LongName: "Top", TotalTests: 3})
	l.StartTest(event.TestStart{Name: "T1", LongName: "Top.T1"})
	clock.advance(20 * time.Second)
	l.EndTest(event.TestEnd{LongName: "Top.T1", Status: event.StatusPass})
	l.StartTest(event.TestStart{Name: "T2", LongName: "Top.T2"})

	assert.True(t, strings.HasSuffix(l.box.Line(progress.TestLine), "(elapsed 20s, ETA 40s)"), l.box.Line(progress.TestLine))
}

func TestListener_Refresh(t *testing.T) {
	var box bytes.Buffer
	l, clock := newTestListener(config.Normal, &bytes.Buffer{}, &box)

	l.Refresh()
	l.StartSuite(event.SuiteStart{LongName: "Top", TotalTests: 1})
	l.StartTest(event.TestStart{Name: "T1", LongName: "Top.T1"})

	box.Reset()
	l.Refresh()
	assert.Empty(t, box.String(), "no redraw when nothing changed")

	clock.advance(2 * time.Second)
	l.Refresh()
	assert.NotEmpty(t, box.String())
	assert.True(t, strings.HasSuffix(l.box.Line(progress.TestLine), "(elapsed  2s, ETA unknown)"))

	l.EndTest(event.TestEnd{LongName: "Top.T1", Status: event.StatusPass})
	box.Reset()
	clock.advance(2 * time.Second)
	l.Refresh()
	assert.Empty(t, box.String(), "no refresh outside a test")
}

func TestListener_MessagesAttributedToScope(t *testing.T) {
	l, _ := newTestListener(config.Normal, &bytes.Buffer{}, nil)

	l.StartSuite(event.SuiteStart{LongName: "Top", TotalTests: 1})
	l.LogMessage(event.Message{Level: event.LevelWarn, Text: "suite warning"})
	l.StartTest(event.TestStart{LongName: "Top.T1"})
	l.LogMessage(event.Message{Level: event.LevelError, Text: "test error"})
	l.LogMessage(event.Message{Level: event.LevelInfo, Text: "not recorded"})
	l.EndTest(event.TestEnd{LongName: "Top.T1", Status: event.StatusPass})

	s := l.Stats()
	assert.Equal(t, []string{"Top"}, s.Warnings.Scopes())
	assert.Equal(t, []string{"suite warning"}, s.Warnings.Get("Top"))
	assert.Equal(t, []string{"Top.T1"}, s.Errors.Scopes())
	assert.Equal(t, []string{"test error"}, s.Errors.Get("Top.T1"))
}

func TestListener_WarningInTestIsShownAndSummarized(t *testing.T) {
	var out bytes.Buffer
	l, _ := newTestListener(config.Normal, &out, nil)

	l.StartSuite(event.SuiteStart{LongName: "Top", TotalTests: 1})
	l.StartTest(event.TestStart{LongName: "Top.T1"})
	l.LogMessage(event.Message{Level: event.LevelWarn, Text: "careful"})
	l.EndTest(event.TestEnd{LongName: "Top.T1", Status: event.StatusPass})
	l.Close()

	got := out.String()
	assert.Contains(t, got, "TEST PASSED WITH WARNINGS: Top.T1\n")
	assert.Contains(t, got, "1 test raised warnings.")
	assert.Contains(t, got, "Warning test:\n- Top.T1:\n  - careful\n")
}

func TestListener_NestedSuiteTracePrintedOnce(t *testing.T) {
	var out bytes.Buffer
	l, _ := newTestListener(config.Normal, &out, nil)

	l.StartSuite(event.SuiteStart{LongName: "Root", TotalTests: 0})
	l.StartSuite(event.SuiteStart{LongName: "Root.Child"})
	l.StartKeyword(event.KeywordStart{Name: "Prepare", KwName: "Prepare", Type: event.KindSetup})
	l.LogMessage(event.Message{Level: event.LevelWarn, Text: "careful"})
	l.EndKeyword(event.KeywordEnd{Status: event.StatusPass})
	l.EndSuite(event.SuiteEnd{LongName: "Root.Child", Status: event.StatusPass})
	l.EndSuite(event.SuiteEnd{LongName: "Root", Status: event.StatusPass})
	l.Close()

	got := out.String()
	assert.Contains(t, got, "SUITE PASSED WITH WARNINGS: Root.Child\n")
	assert.NotContains(t, got, "SUITE PASSED WITH WARNINGS: Root\n")
	assert.Equal(t, 1, strings.Count(got, "W careful"), got)
}

func TestListener_ConsoleOutput(t *testing.T) {
	var out bytes.Buffer
	l, _ := newTestListener(config.Normal, &out, nil)

	l.ConsoleOutput(event.Stderr, "stray write\n")
	assert.Equal(t, "Logged from test stderr: stray write\n", out.String())
}

func TestListener_CloseWithoutEvents(t *testing.T) {
	var out bytes.Buffer
	l, _ := newTestListener(config.Normal, &out, nil)

	l.Close()
	l.Close()

	assert.True(t, l.Closed())
	assert.Equal(t, "RUN COMPLETE: 0 tests, 0 completed (0 passed, 0 skipped, 0 failed).\n", out.String())
}

func TestListener_InterruptedRunStillSummarizes(t *testing.T) {
	var out bytes.Buffer
	l, clock := newTestListener(config.Normal, &out, nil)

	l.StartSuite(event.SuiteStart{LongName: "Top", TotalTests: 2})
	l.StartTest(event.TestStart{LongName: "Top.T1"})
	l.StartKeyword(kw("Sleep", "1h"))
	clock.advance(5 * time.Second)
	l.Close()

	assert.Equal(t,
		"RUN COMPLETE: 2 tests, 0 completed (0 passed, 0 skipped, 0 failed).\nTotal elapsed:  5s.\n",
		out.String())
}

func TestNew_NilOutDiscards(t *testing.T) {
	l := New(Options{Verbosity: config.Normal, Width: 40})
	assert.NotPanics(t, func() {
		l.ConsoleOutput(event.Stdout, "x")
		l.Close()
	})
}
