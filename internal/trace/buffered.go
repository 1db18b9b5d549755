package trace

import (
	"strings"

	"github.com/jonsim/robot-trace/internal/ansi"
	"github.com/jonsim/robot-trace/internal/event"
)

const prerunScope = "<prerun>"

// Buffered accumulates each scope's trace and decides at scope close whether
// to print it, based on the outcome and what the scope logged.
type Buffered struct {
	formatter
	suite *Stack
	test  *Stack
}

// NewBuffered returns a buffered printer.
func NewBuffered(opts Options) *Buffered {
	return &Buffered{
		formatter: newFormatter(opts),
		suite:     NewStack(prerunScope),
		test:      NewStack(prerunScope),
	}
}

func (b *Buffered) stack(inTest bool) *Stack {
	if inTest {
		return b.test
	}
	return b.suite
}

// StartSuite implements Printer.
func (b *Buffered) StartSuite(s event.SuiteStart) {
	b.suite.Reset(s.LongName)
}

// EndSuite implements Printer. A suite is only reported when it traced
// something of its own, such as setup or teardown steps. Its trace is
// dropped either way, so an enclosing suite never reports it again.
func (b *Buffered) EndSuite(s event.SuiteEnd) {
	defer b.suite.Reset(prerunScope)

	trace := b.suite.Trace()
	if trace == "" {
		return
	}

	show := b.PrintPassed
	status := "SUITE " + PastTense(s.Status)
	color := ansi.NoColor
	if b.suite.HasFailures {
		show = show || b.PrintFailed
		color = ansi.Red
	}
	if b.suite.HasErrors {
		show = show || b.PrintErrored
		status += " WITH ERRORS"
		color = ansi.Red
	}
	if b.suite.HasWarnings {
		show = show || b.PrintWarned
		status += " WITH WARNINGS"
		color = ansi.BrightYellow
	}
	if show {
		b.Print(b.banner(status, color, s.LongName) + "\n" + trace)
	}
}

// StartTest implements Printer.
func (b *Buffered) StartTest(t event.TestStart) {
	b.test.Reset(t.LongName)
}

// EndTest implements Printer. Tests that did not run are never reported.
func (b *Buffered) EndTest(t event.TestEnd) {
	if t.Status == event.StatusNotRun {
		return
	}

	show := false
	status := "TEST " + PastTense(t.Status)
	color := ansi.NoColor
	switch t.Status {
	case event.StatusPass:
		show, color = b.PrintPassed, ansi.Green
	case event.StatusSkip:
		show, color = b.PrintSkipped, ansi.Yellow
	case event.StatusFail:
		show, color = b.PrintFailed, ansi.Red
	}
	if b.test.HasErrors {
		show = show || b.PrintErrored
		status += " WITH ERRORS"
		color = ansi.Red
	}
	if b.test.HasWarnings {
		show = show || b.PrintWarned
		status += " WITH WARNINGS"
		color = ansi.BrightYellow
	}
	if !show {
		return
	}

	trace := b.test.Trace()
	if trace == "" {
		trace = t.Message + "\n"
	}
	b.Print(b.banner(status, color, t.LongName) + "\n" + trace)
}

// StartKeyword implements Printer. The header stays pending until the step
// or something inside it produces output.
func (b *Buffered) StartKeyword(inTest bool, k event.KeywordStart) {
	b.stack(inTest).Push(b.keywordHeader(k))
}

// EndKeyword implements Printer. Steps that did not run are dropped along
// with their header.
func (b *Buffered) EndKeyword(inTest bool, k event.KeywordEnd) {
	s := b.stack(inTest)
	if k.Status == event.StatusNotRun {
		s.Pop()
		return
	}
	s.Flush(true)
	s.Append(b.keywordStatus(k.Status, k.ElapsedMS))
}

// LogMessage implements Printer.
func (b *Buffered) LogMessage(inTest bool, m event.Message) {
	s := b.stack(inTest)
	s.Flush(false)

	switch m.Level {
	case event.LevelError:
		s.HasErrors = true
	case event.LevelWarn:
		s.HasWarnings = true
	case event.LevelFail:
		s.HasFailures = true
	}
	s.Append(strings.Join(b.logLines(m.Level, m.Text, ""), "\n"))
}
