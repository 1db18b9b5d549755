// Package stats keeps the run statistics and timings and formats the run
// summary.
package stats

import (
	"fmt"
	"strings"

	"github.com/jonsim/robot-trace/internal/event"
)

// Messages is an insertion-ordered map from scope name to the messages that
// scope raised.
type Messages struct {
	order []string
	byKey map[string][]string
}

// Add appends msg to the messages of scope.
func (m *Messages) Add(scope, msg string) {
	if m.byKey == nil {
		m.byKey = make(map[string][]string)
	}
	if _, ok := m.byKey[scope]; !ok {
		m.order = append(m.order, scope)
	}
	m.byKey[scope] = append(m.byKey[scope], msg)
}

// Len returns the number of scopes with messages.
func (m *Messages) Len() int { return len(m.order) }

// Scopes returns the scope names in first-logged order.
func (m *Messages) Scopes() []string { return m.order }

// Get returns the messages of scope in logged order.
func (m *Messages) Get(scope string) []string { return m.byKey[scope] }

// Statistics counts suites and tests by outcome. Lists only ever grow.
type Statistics struct {
	totalTests   int
	haveTotal    bool
	currentSuite string
	currentTest  string

	StartedSuites   []string
	CompletedSuites []string
	StartedTests    []string
	Completed       []string
	Passed          []string
	Skipped         []string
	Failed          []string

	Errors   Messages
	Warnings Messages
}

// New returns empty statistics.
func New() *Statistics {
	return &Statistics{}
}

// TotalTests returns the test count reported by the first suite.
func (s *Statistics) TotalTests() int { return s.totalTests }

// HasTotal reports whether a total has been reported.
func (s *Statistics) HasTotal() bool { return s.haveTotal }

// StartSuite records a suite start. Only the first suite's total is kept.
func (s *Statistics) StartSuite(e event.SuiteStart) {
	s.currentSuite = e.LongName
	s.StartedSuites = append(s.StartedSuites, e.LongName)
	if !s.haveTotal {
		s.totalTests = e.TotalTests
		s.haveTotal = true
	}
}

// EndSuite records a suite end.
func (s *Statistics) EndSuite(e event.SuiteEnd) {
	s.currentSuite = ""
	s.CompletedSuites = append(s.CompletedSuites, e.LongName)
}

// StartTest records a test start.
func (s *Statistics) StartTest(e event.TestStart) {
	s.currentTest = e.LongName
	s.StartedTests = append(s.StartedTests, e.LongName)
}

// EndTest records a test outcome. Tests that did not run are not completed.
func (s *Statistics) EndTest(e event.TestEnd) {
	s.currentTest = ""
	if e.Status == event.StatusNotRun {
		return
	}
	s.Completed = append(s.Completed, e.LongName)
	switch e.Status {
	case event.StatusPass:
		s.Passed = append(s.Passed, e.LongName)
	case event.StatusFail:
		s.Failed = append(s.Failed, e.LongName)
	case event.StatusSkip:
		s.Skipped = append(s.Skipped, e.LongName)
	}
}

// currentScope is the open test, else the open suite.
func (s *Statistics) currentScope() string {
	if s.currentTest != "" {
		return s.currentTest
	}
	return s.currentSuite
}

// LogError attributes an error message to the current scope.
func (s *Statistics) LogError(text string) {
	s.Errors.Add(s.currentScope(), text)
}

// LogWarning attributes a warning message to the current scope.
func (s *Statistics) LogWarning(text string) {
	s.Warnings.Add(s.currentScope(), text)
}

// FormatSuiteProgress formats the number of started suites.
func (s *Statistics) FormatSuiteProgress() string {
	return fmt.Sprintf("%2d", len(s.StartedSuites))
}

// FormatTestProgress formats started tests against the total.
func (s *Statistics) FormatTestProgress() string {
	return fmt.Sprintf("%2d/%2d", len(s.StartedTests), s.totalTests)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// FormatRunSummary renders the one-line run summary, e.g.
// "2 tests, 2 completed (1 passed, 0 skipped, 1 failed)."
func (s *Statistics) FormatRunSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d test%s, %d completed (%d passed, %d skipped, %d failed).",
		s.totalTests, plural(s.totalTests), len(s.Completed),
		len(s.Passed), len(s.Skipped), len(s.Failed))
	if n := s.Errors.Len(); n > 0 {
		fmt.Fprintf(&b, " %d test%s raised errors.", n, plural(n))
	}
	if n := s.Warnings.Len(); n > 0 {
		fmt.Fprintf(&b, " %d test%s raised warnings.", n, plural(n))
	}
	return b.String()
}

// FormatRunResults lists failing tests, then erroring and warning scopes
// with their messages. It is empty for a clean run.
func (s *Statistics) FormatRunResults() string {
	var b strings.Builder
	if n := len(s.Failed); n > 0 {
		fmt.Fprintf(&b, "Failing test%s:\n", plural(n))
		for _, name := range s.Failed {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	writeMessages(&b, "Erroring", &s.Errors)
	writeMessages(&b, "Warning", &s.Warnings)
	return b.String()
}

func writeMessages(b *strings.Builder, title string, m *Messages) {
	if m.Len() == 0 {
		return
	}
	fmt.Fprintf(b, "%s test%s:\n", title, plural(m.Len()))
	for _, scope := range m.Scopes() {
		fmt.Fprintf(b, "- %s:\n", scope)
		for _, msg := range m.Get(scope) {
			fmt.Fprintf(b, "  - %s\n", msg)
		}
	}
}
