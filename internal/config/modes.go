package config

import "strings"

// Verbosity gates which outcomes are displayed. Levels are ordered.
type Verbosity int

const (
	Quiet Verbosity = iota
	Normal
	Debug
)

// ParseVerbosity parses a level name case-insensitively. Unknown names give
// Normal.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToUpper(s) {
	case "QUIET":
		return Quiet
	case "DEBUG":
		return Debug
	default:
		return Normal
	}
}

func (v Verbosity) String() string {
	switch v {
	case Quiet:
		return "QUIET"
	case Debug:
		return "DEBUG"
	default:
		return "NORMAL"
	}
}

// LiveOutput reports whether the trace streams live instead of buffering.
func (v Verbosity) LiveOutput() bool { return v >= Debug }

// PrintPassed reports whether passing scopes are shown.
func (v Verbosity) PrintPassed() bool { return v >= Debug }

// PrintSkipped reports whether skipped scopes are shown.
func (v Verbosity) PrintSkipped() bool { return v >= Debug }

// PrintWarned reports whether scopes that logged warnings are shown.
func (v Verbosity) PrintWarned() bool { return v >= Normal }

// PrintErrored reports whether scopes that logged errors are shown.
func (v Verbosity) PrintErrored() bool { return v >= Normal }

// PrintFailed reports whether failing scopes are shown.
func (v Verbosity) PrintFailed() bool { return v >= Quiet }

// ColorMode selects when output is colored.
type ColorMode string

const (
	ColorsAuto ColorMode = "AUTO"
	ColorsOn   ColorMode = "ON"
	ColorsANSI ColorMode = "ANSI"
	ColorsOff  ColorMode = "OFF"
)

// ParseColorMode parses a color mode case-insensitively. Unknown values give
// ColorsAuto.
func ParseColorMode(s string) ColorMode {
	switch m := ColorMode(strings.ToUpper(s)); m {
	case ColorsOn, ColorsANSI, ColorsOff:
		return m
	default:
		return ColorsAuto
	}
}

// ProgressMode selects where the progress box is drawn.
type ProgressMode string

const (
	ProgressAuto   ProgressMode = "AUTO"
	ProgressStdout ProgressMode = "STDOUT"
	ProgressStderr ProgressMode = "STDERR"
	ProgressNone   ProgressMode = "NONE"
)

// ParseProgressMode parses a progress mode case-insensitively. Unknown
// values disable the box.
func ParseProgressMode(s string) ProgressMode {
	switch m := ProgressMode(strings.ToUpper(s)); m {
	case ProgressAuto, ProgressStdout, ProgressStderr:
		return m
	default:
		return ProgressNone
	}
}
