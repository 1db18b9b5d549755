package progress

import (
	"strings"

	"github.com/jonsim/robot-trace/internal/ansi"
)

// Bar renders a fixed-width completion bar.
type Bar struct {
	width       int
	filledChar  string
	emptyChar   string
	filledColor ansi.Color
	emptyColor  ansi.Color
}

// BarOption configures a Bar.
type BarOption func(*Bar)

// WithWidth sets the bar width in cells.
func WithWidth(width int) BarOption {
	return func(b *Bar) {
		b.width = width
	}
}

// WithChars sets the filled and empty characters.
func WithChars(filled, empty string) BarOption {
	return func(b *Bar) {
		b.filledChar = filled
		b.emptyChar = empty
	}
}

// WithColors paints the filled and empty parts. Use ansi.NoColor to leave a
// part unpainted.
func WithColors(filled, empty ansi.Color) BarOption {
	return func(b *Bar) {
		b.filledColor = filled
		b.emptyColor = empty
	}
}

// NewBar creates a bar. Default: 20 cells of █ and ░, unpainted.
func NewBar(opts ...BarOption) *Bar {
	b := &Bar{
		width:       20,
		filledChar:  "█",
		emptyChar:   "░",
		filledColor: ansi.NoColor,
		emptyColor:  ansi.NoColor,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Filled returns how many cells are filled at the given progress. Partial
// cells round down.
func (b *Bar) Filled(progress float64) int {
	if b.width <= 0 {
		return 0
	}
	progress = min(max(progress, 0), 1)
	return min(int(progress*float64(b.width)), b.width)
}

// Render renders the bar at the given progress (0.0 to 1.0).
func (b *Bar) Render(progress float64) string {
	if b.width <= 0 {
		return ""
	}

	filled := b.Filled(progress)
	empty := b.width - filled

	var sb strings.Builder
	if filled > 0 {
		sb.WriteString(b.filledColor.Paint(strings.Repeat(b.filledChar, filled)))
	}
	if empty > 0 {
		sb.WriteString(b.emptyColor.Paint(strings.Repeat(b.emptyChar, empty)))
	}
	return sb.String()
}

// Width returns the configured width.
func (b *Bar) Width() int {
	return b.width
}
