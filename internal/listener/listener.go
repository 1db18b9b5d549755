// Package listener binds the trace printers, the run statistics and the
// progress box to the event stream of one run.
package listener

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonsim/robot-trace/internal/ansi"
	"github.com/jonsim/robot-trace/internal/config"
	"github.com/jonsim/robot-trace/internal/event"
	"github.com/jonsim/robot-trace/internal/progress"
	"github.com/jonsim/robot-trace/internal/stats"
	"github.com/jonsim/robot-trace/internal/trace"
)

// Options configure a Listener.
type Options struct {
	Verbosity config.Verbosity
	Colors    bool
	// Width is the effective terminal width, already clamped.
	Width int
	// Out receives the trace and the run summary.
	Out io.Writer
	// Progress receives the progress box. Nil disables the box.
	Progress io.Writer
	// Now is the clock. Nil uses the wall clock.
	Now func() time.Time
}

// Listener is the run context: it owns the statistics, timings, printer and
// progress box of one run. All methods must be called from one goroutine.
type Listener struct {
	verbosity config.Verbosity
	out       io.Writer
	box       *progress.Box
	stats     *stats.Statistics
	timings   *stats.Timings
	printer   trace.Printer

	testLine  string
	testRight string
	closed    bool
	writeErr  error
}

var _ event.Handler = (*Listener)(nil)

// New creates a listener and draws the empty progress box.
func New(opts Options) *Listener {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	width := max(opts.Width, 0)

	var boxOpts []progress.Option
	if opts.Colors {
		boxOpts = append(boxOpts, progress.WithBarColors(ansi.Green, ansi.BrightBlack))
	}

	l := &Listener{
		verbosity: opts.Verbosity,
		out:       opts.Out,
		box:       progress.New(opts.Progress, width, boxOpts...),
		stats:     stats.New(),
		timings:   stats.NewTimings(opts.Now),
	}
	l.printer = trace.New(opts.Verbosity.LiveOutput(), trace.Options{
		PrintPassed:  opts.Verbosity.PrintPassed(),
		PrintSkipped: opts.Verbosity.PrintSkipped(),
		PrintWarned:  opts.Verbosity.PrintWarned(),
		PrintErrored: opts.Verbosity.PrintErrored(),
		PrintFailed:  opts.Verbosity.PrintFailed(),
		Colors:       opts.Colors,
		Width:        width,
		Print:        l.printTrace,
	})

	log.Debug().
		Str("verbosity", opts.Verbosity.String()).
		Bool("colors", opts.Colors).
		Int("width", width).
		Bool("progress", l.box.Enabled()).
		Msg("listener ready")

	l.box.Draw()
	return l
}

// Stats returns the run statistics.
func (l *Listener) Stats() *stats.Statistics { return l.stats }

// Closed reports whether Close has run.
func (l *Listener) Closed() bool { return l.closed }

func (l *Listener) inTest() bool { return l.timings.InTest() }

func (l *Listener) writeln(text string) {
	if _, err := io.WriteString(l.out, text+"\n"); err != nil && l.writeErr == nil {
		l.writeErr = err
		log.Error().Err(err).Msg("writing trace output failed")
	}
}

// printTrace is the only path trace text takes to the terminal: the box is
// cleared, the text written, and the box drawn again below it.
func (l *Listener) printTrace(text string) {
	l.box.Clear()
	l.writeln(text)
	l.box.Draw()
}

// StartSuite implements event.Handler.
func (l *Listener) StartSuite(e event.SuiteStart) {
	l.stats.StartSuite(e)
	if l.stats.HasTotal() {
		l.box.SetTotal(l.stats.TotalTests())
	}
	l.timings.StartSuite()
	l.printer.StartSuite(e)

	l.box.WriteLine(progress.SuiteLine, fmt.Sprintf("[SUITE %s] %s", l.stats.FormatSuiteProgress(), e.LongName), "")
}

// EndSuite implements event.Handler.
func (l *Listener) EndSuite(e event.SuiteEnd) {
	l.stats.EndSuite(e)
	l.printer.EndSuite(e)

	l.box.WriteLine(progress.SuiteLine, "", "")
}

// StartTest implements event.Handler.
func (l *Listener) StartTest(e event.TestStart) {
	l.stats.StartTest(e)
	l.timings.StartTest()
	l.printer.StartTest(e)

	name := e.Name
	if name == "" {
		name = e.LongName
	}
	l.testLine = fmt.Sprintf("[TEST %s] %s", l.stats.FormatTestProgress(), name)
	l.testRight = l.timingText()
	l.box.WriteLine(progress.TestLine, l.testLine, l.testRight)
}

func (l *Listener) timingText() string {
	return fmt.Sprintf("(elapsed %s, ETA %s)", l.timings.FormatElapsed(), l.timings.FormatETA(l.stats))
}

// EndTest implements event.Handler.
func (l *Listener) EndTest(e event.TestEnd) {
	l.stats.EndTest(e)
	l.timings.EndTest()
	l.box.Advance()
	l.testLine, l.testRight = "", ""
	l.box.WriteLine(progress.TestLine, "", "")
	l.printer.EndTest(e)
}

// StartKeyword implements event.Handler.
func (l *Listener) StartKeyword(e event.KeywordStart) {
	l.printer.StartKeyword(l.inTest(), e)

	_, args := trace.KeywordLabel(e.Name, e.Type, e.Args)
	l.box.WriteLine(progress.StepLine, fmt.Sprintf("[%s]  %s", e.KwName, args), "")
}

// EndKeyword implements event.Handler.
func (l *Listener) EndKeyword(e event.KeywordEnd) {
	l.printer.EndKeyword(l.inTest(), e)

	l.box.WriteLine(progress.StepLine, "", "")
}

// LogMessage implements event.Handler. Errors and warnings are attributed to
// the open test, else the open suite.
func (l *Listener) LogMessage(e event.Message) {
	l.printer.LogMessage(l.inTest(), e)

	switch e.Level {
	case event.LevelError:
		l.stats.LogError(e.Text)
	case event.LevelWarn:
		l.stats.LogWarning(e.Text)
	}
}

// ConsoleOutput implements event.Handler.
func (l *Listener) ConsoleOutput(stream event.Stream, text string) {
	l.printer.ConsoleOutput(stream, text)
}

// Refresh updates the elapsed time and ETA of the open test when they have
// changed since the box was last drawn.
func (l *Listener) Refresh() {
	if l.closed || !l.inTest() {
		return
	}
	right := l.timingText()
	if right == l.testRight {
		return
	}
	l.testRight = right
	l.box.WriteLine(progress.TestLine, l.testLine, right)
}

// Close implements event.Handler. It removes the box and prints the run
// summary. Later calls do nothing.
func (l *Listener) Close() {
	if l.closed {
		return
	}
	l.closed = true
	l.box.Clear()

	// The summary line is shown at every verbosity.
	l.writeln("RUN COMPLETE: " + l.stats.FormatRunSummary())
	if l.verbosity >= config.Normal {
		if results := l.stats.FormatRunResults(); results != "" {
			l.writeln("\n" + results)
		}
	}
	if l.timings.Started() && l.verbosity >= config.Normal {
		l.writeln(fmt.Sprintf("Total elapsed: %s.", l.timings.FormatElapsed()))
	}

	log.Info().
		Int("total", l.stats.TotalTests()).
		Int("completed", len(l.stats.Completed)).
		Int("failed", len(l.stats.Failed)).
		Msg("run complete")
}
