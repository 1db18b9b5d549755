package ansi

import (
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color is one of the 16 basic terminal colors. NoColor leaves text as is.
type Color int

const (
	NoColor Color = iota - 1
	Black
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
)

// The renderer is pinned to the 16-color profile so painted text always uses
// the basic SGR codes, whatever terminal the process happens to run in.
var renderer = func() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return r
}()

// Pre-computed foreground styles, indexed by Color.
var foreground [16]lipgloss.Style

func init() {
	for c := Black; c <= BrightWhite; c++ {
		foreground[c] = renderer.NewStyle().
			Foreground(lipgloss.Color(strconv.Itoa(int(c)))).
			TabWidth(lipgloss.NoTabConversion)
	}
}

func (c Color) valid() bool {
	return c >= Black && c <= BrightWhite
}

// Fore returns the foreground SGR code for c.
func (c Color) Fore() Code {
	if !c.valid() {
		return ""
	}
	if c < BrightBlack {
		return Code("\x1b[" + strconv.Itoa(30+int(c)) + "m")
	}
	return Code("\x1b[" + strconv.Itoa(90+int(c-BrightBlack)) + "m")
}

// Back returns the background SGR code for c.
func (c Color) Back() Code {
	if !c.valid() {
		return ""
	}
	if c < BrightBlack {
		return Code("\x1b[" + strconv.Itoa(40+int(c)) + "m")
	}
	return Code("\x1b[" + strconv.Itoa(100+int(c-BrightBlack)) + "m")
}

// Paint renders a single line in the foreground color c. Text is returned
// unchanged for NoColor.
func (c Color) Paint(line string) string {
	if !c.valid() {
		return line
	}
	return foreground[c].Render(line)
}

// Painter applies colors only when enabled, so callers can paint
// unconditionally.
type Painter struct {
	Enabled bool
}

// Paint colors line with c when the painter is enabled.
func (p Painter) Paint(line string, c Color) string {
	if !p.Enabled {
		return line
	}
	return c.Paint(line)
}
