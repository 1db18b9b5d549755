// Package trace builds the human-readable trace of a run: per-scope buffers
// of step headers, outcomes and log lines, and the policies deciding when
// they are printed.
package trace

import "github.com/jonsim/robot-trace/internal/event"

// Printer is an emission policy. The dispatcher forwards every lifecycle event
// to exactly one Printer, chosen once per run.
type Printer interface {
	StartSuite(event.SuiteStart)
	EndSuite(event.SuiteEnd)
	StartTest(event.TestStart)
	EndTest(event.TestEnd)
	StartKeyword(inTest bool, k event.KeywordStart)
	EndKeyword(inTest bool, k event.KeywordEnd)
	LogMessage(inTest bool, m event.Message)
	ConsoleOutput(stream event.Stream, text string)
}

var (
	_ Printer = (*Buffered)(nil)
	_ Printer = (*Live)(nil)
)

// New returns the live printer when live is set, else the buffered one.
func New(live bool, opts Options) Printer {
	if live {
		return NewLive(opts)
	}
	return NewBuffered(opts)
}
