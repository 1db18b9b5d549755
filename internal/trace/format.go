package trace

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jonsim/robot-trace/internal/ansi"
	"github.com/jonsim/robot-trace/internal/event"
	"github.com/jonsim/robot-trace/internal/stats"
)

// Status glyphs
const (
	GlyphPassed   = "✓"
	GlyphSkipped  = "→"
	GlyphFailed   = "✗"
	GlyphNotRun   = "⊘"
	GlyphStep     = "▶"
	UnderlineRune = "═"
)

// Options configure what a Printer shows and where it goes.
type Options struct {
	PrintPassed  bool
	PrintSkipped bool
	PrintWarned  bool
	PrintErrored bool
	PrintFailed  bool
	Colors       bool
	Width        int

	// Print emits one block of text; a newline is added by the receiver.
	Print func(text string)
}

// formatter holds the formatting shared by every Printer.
type formatter struct {
	Options
	painter ansi.Painter
}

func newFormatter(opts Options) formatter {
	if opts.Print == nil {
		opts.Print = func(string) {}
	}
	return formatter{Options: opts, painter: ansi.Painter{Enabled: opts.Colors}}
}

// ConsoleOutput prints text the engine wrote directly to one of its streams.
func (f *formatter) ConsoleOutput(stream event.Stream, text string) {
	f.Print(fmt.Sprintf("Logged from test %s: %s", stream, strings.TrimRightFunc(text, unicode.IsSpace)))
}

// banner renders the status line and an underline as wide as the status line,
// clipped to the configured width.
func (f *formatter) banner(status string, color ansi.Color, name string) string {
	line := f.painter.Paint(status, color) + ": " + name
	n := min(max(f.Width, 0), ansi.VisibleLen(line))
	return line + "\n" + strings.Repeat(UnderlineRune, n)
}

// KeywordLabel returns a step's display name, prefixed by its kind when the
// step is not a plain keyword, and its argument list.
func KeywordLabel(name, kind string, args []string) (label, argList string) {
	if kind != event.KindKeyword {
		if name != "" {
			name = kind + "    " + name
		} else {
			name = kind
		}
	}
	if len(args) > 0 || kind == event.KindKeyword || kind == event.KindSetup || kind == event.KindTeardown {
		quoted := make([]string, len(args))
		for i, a := range args {
			quoted[i] = Quote(a)
		}
		argList = "(" + strings.Join(quoted, ", ") + ")"
	}
	return name, argList
}

func (f *formatter) keywordHeader(k event.KeywordStart) string {
	label, argList := KeywordLabel(k.Name, k.Type, k.Args)
	return GlyphStep + " " + label + argList
}

func (f *formatter) keywordStatus(status string, elapsedMS int64) string {
	elapsed := stats.FormatTime(float64(elapsedMS) / 1000)
	var text string
	var color ansi.Color
	switch status {
	case event.StatusPass:
		text, color = GlyphPassed+" PASS", ansi.BrightGreen
	case event.StatusSkip:
		text, color = GlyphSkipped+" SKIP", ansi.Yellow
	case event.StatusFail:
		text, color = GlyphFailed+" FAIL", ansi.BrightRed
	case event.StatusNotRun:
		text, color = GlyphNotRun+" NOT RUN", ansi.BrightBlack
	default:
		return "  ? " + status + "    " + elapsed
	}
	return "  " + f.painter.Paint(text, color) + "    " + elapsed
}

// levelColor maps a log level to the color of its lines.
func levelColor(level string) ansi.Color {
	switch level {
	case event.LevelError, event.LevelFail:
		return ansi.BrightRed
	case event.LevelWarn:
		return ansi.BrightYellow
	case event.LevelSkip:
		return ansi.Yellow
	case event.LevelInfo:
		return ansi.BrightBlack
	case event.LevelDebug, event.LevelTrace:
		return ansi.White
	default:
		return ansi.NoColor
	}
}

// logLines renders a log message as "<L> first line" plus continuation lines
// indented two further spaces, each line colored by level.
func (f *formatter) logLines(level, text, indent string) []string {
	initial := "?"
	if level != "" {
		initial = strings.ToUpper(level[:1])
	}
	textLines := splitLines(text)
	if len(textLines) == 0 {
		textLines = []string{""}
	}

	color := levelColor(level)
	lines := make([]string, 0, len(textLines))
	lines = append(lines, f.painter.Paint(indent+initial+" "+textLines[0], color))
	for _, l := range textLines[1:] {
		lines = append(lines, f.painter.Paint(indent+"  "+l, color))
	}
	return lines
}

// PastTense turns a status verb into its past tense, keeping upper or title
// case: PASS -> PASSED, Skip -> Skipped, try -> tried.
func PastTense(verb string) string {
	lower := strings.ToLower(verb)
	var res string
	switch {
	case strings.HasSuffix(lower, "e"):
		res = lower + "d"
	case strings.HasSuffix(lower, "y"):
		res = strings.TrimSuffix(lower, "y") + "ied"
	case strings.HasSuffix(lower, "p"):
		res = lower + "ped"
	default:
		res = lower + "ed"
	}

	switch {
	case verb != lower && verb == strings.ToUpper(verb):
		return strings.ToUpper(res)
	case isTitle(verb):
		return strings.ToUpper(res[:1]) + res[1:]
	}
	return res
}

func isTitle(s string) bool {
	if s == "" || !unicode.IsUpper([]rune(s)[0]) {
		return false
	}
	rest := []rune(s)[1:]
	return string(rest) == strings.ToLower(string(rest))
}

// Quote renders an argument the way Robot shows it: single quoted unless the
// value holds a single quote and no double quote.
func Quote(s string) string {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case !unicode.IsPrint(r):
			switch {
			case r < 0x100:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r > 0xFFFF:
				fmt.Fprintf(&b, `\U%08x`, r)
			default:
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(q)
	return b.String()
}
