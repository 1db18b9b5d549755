// Package ansi holds the terminal primitives: cursor movement, SGR color and
// style codes, and width math that ignores styling.
package ansi

import (
	"strconv"

	xansi "github.com/charmbracelet/x/ansi"
)

// Cursor and line control sequences.
const (
	Reset     = "\x1b[0m"
	ClearLine = "\x1b[2K"
	Home      = "\r"
)

// Up moves the cursor up n rows.
func Up(n int) string { return cursor(n, 'A') }

// Down moves the cursor down n rows.
func Down(n int) string { return cursor(n, 'B') }

// Right moves the cursor right n columns.
func Right(n int) string { return cursor(n, 'C') }

// Left moves the cursor left n columns.
func Left(n int) string { return cursor(n, 'D') }

func cursor(n int, dir byte) string {
	return "\x1b[" + strconv.Itoa(n) + string(dir)
}

// Code is a raw SGR sequence such as "\x1b[1m".
type Code string

// Style codes.
const (
	Bold      Code = "\x1b[1m"
	Dim       Code = "\x1b[2m"
	Italic    Code = "\x1b[3m"
	Underline Code = "\x1b[4m"
	Blink     Code = "\x1b[5m"
	Invert    Code = "\x1b[7m"
	Hidden    Code = "\x1b[8m"
)

// Wrap returns text surrounded by the code and a reset.
func (c Code) Wrap(text string) string {
	return string(c) + text + Reset
}

func (c Code) String() string { return string(c) }

// VisibleLen returns the number of terminal cells s occupies once escape
// sequences are removed.
func VisibleLen(s string) int {
	return xansi.StringWidth(s)
}

// Strip removes every escape sequence from s.
func Strip(s string) string {
	return xansi.Strip(s)
}

// Truncate shortens s to at most width visible cells. When s overflows and
// width leaves room for it, the result ends with "..."; otherwise it is cut
// hard. Negative widths are treated as zero.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if VisibleLen(s) <= width {
		return s
	}
	if width >= 3 {
		return xansi.Truncate(s, width, "...")
	}
	return xansi.Truncate(s, width, "")
}
