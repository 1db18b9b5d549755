package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_InitialState(t *testing.T) {
	s := NewStack("Top")

	assert.Equal(t, "Top", s.name)
	assert.Empty(t, s.Trace())
	assert.Equal(t, 0, s.Depth())
	assert.False(t, s.HasErrors)
	assert.False(t, s.HasWarnings)
	assert.False(t, s.HasFailures)
}

func TestStack_PushPop(t *testing.T) {
	s := NewStack("Top")
	s.Push("Keyword A")
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 1, s.Pending())

	s.Pop()
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, 0, s.Pending())
	assert.Empty(t, s.Trace())
}

func TestStack_FlushCommitsHeaders(t *testing.T) {
	s := NewStack("Top")
	s.Push("Outer")
	s.Push("Inner")
	s.Flush(true)

	assert.Equal(t, "Outer\n  Inner\n", s.Trace())
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 0, s.Pending())
}

func TestStack_FlushWithoutClosingLevel(t *testing.T) {
	s := NewStack("Top")
	s.Push("Keyword A")
	s.Flush(false)

	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, "Keyword A\n", s.Trace())
}

func TestStack_AppendIndents(t *testing.T) {
	s := NewStack("Top")
	s.Push("Keyword A")
	s.Append("Hello world")

	assert.Equal(t, "  Hello world\n", s.Trace())
}

func TestStack_AppendMultiline(t *testing.T) {
	s := NewStack("Top")
	s.Push("A")
	s.Push("B")
	s.Append("one\ntwo\n")

	assert.Equal(t, "    one\n    two\n", s.Trace())
}

func TestStack_AppendEmpty(t *testing.T) {
	s := NewStack("Top")
	s.Append("")

	assert.Equal(t, "\n", s.Trace())
}

func TestStack_IndentIsCapped(t *testing.T) {
	s := NewStack("Top")
	for i := 0; i < 30; i++ {
		s.Push("kw")
	}
	s.Append("deep")

	assert.Equal(t, strings.Repeat("  ", maxIndentDepth)+"deep\n", s.Trace())
}

func TestStack_UnbalancedCloseKeepsDepthAtZero(t *testing.T) {
	s := NewStack("Top")
	s.Pop()
	s.Flush(true)
	assert.Equal(t, 0, s.Depth())

	s.Push("kw")
	s.Append("text")
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, "  text\n", s.Trace())
}

func TestStack_Reset(t *testing.T) {
	s := NewStack("Old")
	s.Push("kw")
	s.Append("text")
	s.HasErrors = true
	s.HasWarnings = true
	s.HasFailures = true

	s.Reset("New")

	assert.Equal(t, "New", s.name)
	assert.Empty(t, s.Trace())
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, 0, s.Pending())
	assert.False(t, s.HasErrors || s.HasWarnings || s.HasFailures)
}

func TestStack_DepthBalancedRegardlessOfFlushes(t *testing.T) {
	tests := []struct {
		name string
		ops  string // p = push, o = pop, f = flush(false)
	}{
		{"nested", "ppppoooo"},
		{"interleaved flushes", "pfpfofpoo"},
		{"flush before every pop", "ppfofo"},
		{"flat", "popopo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStack("Top")
			for _, op := range tt.ops {
				switch op {
				case 'p':
					s.Push("kw")
				case 'o':
					s.Pop()
				case 'f':
					s.Flush(false)
				}
			}
			assert.Equal(t, 0, s.Depth())
		})
	}
}
