package trace

import (
	"strings"

	"github.com/jonsim/robot-trace/internal/ansi"
	"github.com/jonsim/robot-trace/internal/event"
)

// Live prints every event as it happens. Nothing is buffered, so steps that
// did not run are still shown.
type Live struct {
	formatter
	indent int
}

// NewLive returns a live printer.
func NewLive(opts Options) *Live {
	return &Live{formatter: newFormatter(opts)}
}

func (l *Live) prefix() string {
	return strings.Repeat(" ", max(l.indent, 0)*2)
}

// StartSuite implements Printer.
func (l *Live) StartSuite(s event.SuiteStart) {
	l.Print(l.banner("SUITE", ansi.NoColor, s.LongName))
}

// EndSuite implements Printer.
func (l *Live) EndSuite(event.SuiteEnd) {}

// StartTest implements Printer.
func (l *Live) StartTest(t event.TestStart) {
	l.Print(l.banner("TEST", ansi.NoColor, t.LongName))
}

// EndTest implements Printer.
func (l *Live) EndTest(event.TestEnd) {
	l.Print("")
}

// StartKeyword implements Printer.
func (l *Live) StartKeyword(_ bool, k event.KeywordStart) {
	l.Print(l.prefix() + l.keywordHeader(k))
	l.indent++
}

// EndKeyword implements Printer.
func (l *Live) EndKeyword(_ bool, k event.KeywordEnd) {
	l.indent--
	l.Print(l.prefix() + l.keywordStatus(k.Status, k.ElapsedMS))
}

// LogMessage implements Printer.
func (l *Live) LogMessage(_ bool, m event.Message) {
	l.Print(strings.Join(l.logLines(m.Level, m.Text, l.prefix()), "\n"))
}
