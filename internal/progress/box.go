// Package progress draws the progress box: a fixed-height region at the
// bottom of the terminal that is cleared and redrawn around every other
// write, so it always stays the last thing on screen.
package progress

import (
	"io"
	"strings"

	"github.com/jonsim/robot-trace/internal/ansi"
)

// Box content line indexes.
const (
	SuiteLine = iota
	TestLine
	StepLine

	NumLines
)

// Rows is the terminal height of the box, borders included.
const Rows = NumLines + 2

// minBarWidth is the narrowest box that embeds the completion bar.
const minBarWidth = 40

// barMargin is the border run either side of the bar, excluding corners
// and tees.
const barMargin = 8

// Box is the progress box. A Box without a stream ignores every call.
type Box struct {
	out       io.Writer
	width     int
	lines     [NumLines]string
	total     int
	completed int
	bar       *Bar
}

// Option configures a Box.
type Option func(*Box)

// WithBarColors paints the completion bar.
func WithBarColors(filled, empty ansi.Color) Option {
	return func(b *Box) {
		b.bar = NewBar(WithWidth(b.bar.Width()), WithColors(filled, empty))
	}
}

// New returns a box width cells wide drawn on out. A nil out disables it.
func New(out io.Writer, width int, opts ...Option) *Box {
	width = max(width, 0)
	b := &Box{
		out:   out,
		width: width,
		bar:   NewBar(WithWidth(max(width-2*barMargin-4, 0))),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Enabled reports whether the box draws anything.
func (b *Box) Enabled() bool { return b.out != nil }

// Width returns the box width.
func (b *Box) Width() int { return b.width }

// Line returns the current text of content line i.
func (b *Box) Line(i int) string {
	if i < 0 || i >= NumLines {
		return ""
	}
	return b.lines[i]
}

// Total returns the total task count, or 0 when it is not known.
func (b *Box) Total() int { return b.total }

// Completed returns the completed task count.
func (b *Box) Completed() int { return b.completed }

func (b *Box) textWidth() int { return max(b.width-4, 0) }

func (b *Box) write(s string) {
	_, _ = io.WriteString(b.out, s)
}

// Draw writes the whole box at the cursor, leaving the cursor at the end of
// the bottom border.
func (b *Box) Draw() {
	if !b.Enabled() {
		return
	}

	var sb strings.Builder
	if b.total > 0 && b.width >= minBarWidth {
		rule := strings.Repeat("─", barMargin)
		sb.WriteString("┌" + rule + "┤")
		sb.WriteString(b.bar.Render(float64(b.completed) / float64(b.total)))
		sb.WriteString("├" + rule + "┐\n")
	} else {
		sb.WriteString(b.border("┌", "┐") + "\n")
	}

	tw := b.textWidth()
	for _, line := range b.lines {
		line = ansi.Truncate(line, tw)
		sb.WriteString("│ ")
		sb.WriteString(line)
		sb.WriteString(strings.Repeat(" ", max(tw-ansi.VisibleLen(line), 0)))
		sb.WriteString(" │\n")
	}
	sb.WriteString(b.border("└", "┘"))
	b.write(sb.String())
}

func (b *Box) border(left, right string) string {
	return left + strings.Repeat("─", max(b.width-2, 0)) + right
}

// Clear erases the rows of a drawn box, bottom up, leaving the cursor at the
// start of the box's top row.
func (b *Box) Clear() {
	if !b.Enabled() {
		return
	}
	b.write(strings.Repeat(ansi.ClearLine+ansi.Up(1), Rows-1) + ansi.ClearLine + ansi.Home)
}

// Redraw clears the box and draws it again.
func (b *Box) Redraw() {
	b.Clear()
	b.Draw()
}

// WriteLine sets content line i to left and right aligned text and redraws
// the box. Right text wins: left text is cut short, with "..." when there is
// room for it, to leave a space before the right text.
func (b *Box) WriteLine(i int, left, right string) {
	if !b.Enabled() || i < 0 || i >= NumLines {
		return
	}
	b.lines[i] = FitLine(b.textWidth(), left, right)
	b.Redraw()
}

// FitLine lays left and right text out in width cells.
func FitLine(width int, left, right string) string {
	width = max(width, 0)
	rightLen := ansi.VisibleLen(right)
	maxLeft := width
	if rightLen > 0 {
		maxLeft = width - rightLen - 1
	}
	left = ansi.Truncate(left, max(maxLeft, 0))
	padding := max(width-ansi.VisibleLen(left)-rightLen, 0)
	return left + strings.Repeat(" ", padding) + right
}

// SetTotal sets the total task count. Non-positive values are rejected.
// It reports whether the value was accepted.
func (b *Box) SetTotal(n int) bool {
	if n <= 0 {
		return false
	}
	if n != b.total {
		b.total = n
		b.Redraw()
	}
	return true
}

// SetCompleted sets the completed task count. Negative values are rejected.
// It reports whether the value was accepted.
func (b *Box) SetCompleted(n int) bool {
	if n < 0 {
		return false
	}
	if n != b.completed {
		b.completed = n
		b.Redraw()
	}
	return true
}

// Advance marks one more task completed.
func (b *Box) Advance() {
	b.SetCompleted(b.completed + 1)
}
