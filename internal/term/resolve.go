package term

import (
	"io"
	"os"

	"github.com/jonsim/robot-trace/internal/config"
)

// Colors resolves a color mode. AUTO colors only an interactive stdout, and
// honors NO_COLOR (https://no-color.org/).
func (s *Streams) Colors(mode config.ColorMode) bool {
	switch mode {
	case config.ColorsOn, config.ColorsANSI:
		return true
	case config.ColorsOff:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return s.IsOutputTTY()
}

// ProgressStream resolves where the progress box is drawn. A nil writer
// disables the box. AUTO prefers an interactive stdout, then an interactive
// stderr.
func (s *Streams) ProgressStream(mode config.ProgressMode) io.Writer {
	switch mode {
	case config.ProgressStdout:
		return s.Out
	case config.ProgressStderr:
		return s.ErrOut
	case config.ProgressAuto:
		if s.IsOutputTTY() {
			return s.Out
		}
		if s.IsStderrTTY() {
			return s.ErrOut
		}
	}
	return nil
}
