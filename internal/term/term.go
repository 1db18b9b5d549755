// Package term detects terminal capabilities and resolves the AUTO settings
// for colors and the progress stream.
package term

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Streams are the process output channels a run may write to.
type Streams struct {
	Out    io.Writer
	ErrOut io.Writer

	// isTTY overrides detection; used by tests.
	isTTY func(w io.Writer) bool
}

// System returns the real process streams.
func System() *Streams {
	return &Streams{Out: os.Stdout, ErrOut: os.Stderr}
}

// NewStreams returns streams with a fixed terminal answer, for tests.
func NewStreams(out, errOut io.Writer, outTTY, errTTY bool) *Streams {
	return &Streams{
		Out:    out,
		ErrOut: errOut,
		isTTY: func(w io.Writer) bool {
			switch w {
			case out:
				return outTTY
			case errOut:
				return errTTY
			}
			return false
		},
	}
}

func (s *Streams) tty(w io.Writer) bool {
	if s.isTTY != nil {
		return s.isTTY(w)
	}
	return IsTerminal(w)
}

// IsOutputTTY reports whether stdout is a terminal.
func (s *Streams) IsOutputTTY() bool { return s.tty(s.Out) }

// IsStderrTTY reports whether stderr is a terminal.
func (s *Streams) IsStderrTTY() bool { return s.tty(s.ErrOut) }

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of the terminal behind w, or fallback when
// w is not a terminal or its size cannot be read.
func Width(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return fallback
	}
	return cols
}

// EffectiveWidth clamps the configured maximum width to the detected
// terminal width. Both stdout and stderr are consulted so the box fits
// whichever one is a terminal.
func (s *Streams) EffectiveWidth(max int) int {
	detected := Width(s.Out, -1)
	if detected < 0 {
		detected = Width(s.ErrOut, max)
	}
	return min(detected, max)
}
