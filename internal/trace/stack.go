package trace

import "strings"

// maxIndentDepth caps indentation so deeply nested steps stay readable.
const maxIndentDepth = 20

// Stack accumulates the trace of one scope (a suite or a test). Step headers
// are held pending until something inside them needs to be shown, so steps
// that never ran leave no trace.
type Stack struct {
	name    string
	trace   strings.Builder
	depth   int
	pending []string

	HasWarnings bool
	HasErrors   bool
	HasFailures bool
}

// NewStack returns an empty stack for the named scope.
func NewStack(name string) *Stack {
	return &Stack{name: name}
}

// Reset discards all content and flags and starts a fresh scope.
func (s *Stack) Reset(name string) {
	s.name = name
	s.trace.Reset()
	s.depth = 0
	s.pending = s.pending[:0]
	s.HasWarnings = false
	s.HasErrors = false
	s.HasFailures = false
}

// Trace returns the committed trace text.
func (s *Stack) Trace() string { return s.trace.String() }

// Depth returns the current step nesting depth.
func (s *Stack) Depth() int { return s.depth }

// Pending returns the number of uncommitted headers.
func (s *Stack) Pending() int { return len(s.pending) }

func (s *Stack) indent() string {
	return strings.Repeat("  ", min(s.depth, maxIndentDepth))
}

// Push records a header at the current depth and opens a nested level.
func (s *Stack) Push(header string) {
	s.pending = append(s.pending, s.indent()+header)
	s.depth++
}

// Pop discards the most recent pending header and closes its level. Popping
// an empty stack only closes the level.
func (s *Stack) Pop() {
	if n := len(s.pending); n > 0 {
		s.pending = s.pending[:n-1]
	}
	s.depth = max(s.depth-1, 0)
}

// Append commits text, indenting each of its lines by the current depth.
func (s *Stack) Append(text string) {
	lines := splitLines(text)
	if len(lines) == 0 {
		s.trace.WriteByte('\n')
		return
	}
	indent := s.indent()
	for _, line := range lines {
		s.trace.WriteString(indent)
		s.trace.WriteString(line)
		s.trace.WriteByte('\n')
	}
}

// Flush commits every pending header in push order. When closeLevel is set
// the current level is closed first, which is how a finished step commits
// its own header.
func (s *Stack) Flush(closeLevel bool) {
	if closeLevel {
		s.depth = max(s.depth-1, 0)
	}
	for _, header := range s.pending {
		s.trace.WriteString(header)
		s.trace.WriteByte('\n')
	}
	s.pending = s.pending[:0]
}

// splitLines splits on line boundaries without producing a trailing empty
// line for text that ends in a newline.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
