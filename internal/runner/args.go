// Package runner starts a test engine and feeds its event stream, and
// everything it prints, to an event.Handler from a single goroutine.
package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/jonsim/robot-trace/internal/config"
)

// RobotArgs is a Robot command line with the options robot-trace reads
// picked out. Empty strings mean the option was not given.
type RobotArgs struct {
	Colors            string // -C, --consolecolors
	Width             string // -W, --consolewidth
	ConsoleProgress   string // --consoleprogress
	Verbosity         string // DEBUG for --verbose, QUIET for --quiet
	TraceSubprocesses bool   // --tracesubprocesses

	// Args is the command line without robot-trace's own options.
	Args []string
}

// valueOptions take a value, inline or as the next argument.
var valueOptions = map[string]bool{
	"-C":                true,
	"--consolecolors":   true,
	"-W":                true,
	"--consolewidth":    true,
	"--consoleprogress": true,
}

// ownOptions are not passed on to Robot.
var ownOptions = map[string]bool{
	"--consoleprogress":   true,
	"--verbose":           true,
	"--quiet":             true,
	"--tracesubprocesses": true,
}

// normalizeOption returns the option name Robot would see in arg, and its
// inline value. Long options are case and hyphen insensitive and take
// --name=value; short options take -Xvalue.
func normalizeOption(arg string) (name string, value string, inline bool) {
	switch {
	case strings.HasPrefix(arg, "--"):
		name, value, inline = strings.Cut(arg, "=")
		return "--" + strings.ReplaceAll(strings.ToLower(name[2:]), "-", ""), value, inline
	case strings.HasPrefix(arg, "-") && len(arg) > 2:
		return arg[:2], arg[2:], true
	default:
		return arg, "", false
	}
}

// ParseRobotArgs reads args the way Robot does. Repeated options keep the
// last value. Everything but robot-trace's own options is passed through
// unchanged.
func ParseRobotArgs(args []string) RobotArgs {
	var r RobotArgs
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, inline := normalizeOption(arg)

		consumed := false
		if valueOptions[name] && !inline && i+1 < len(args) {
			value = args[i+1]
			consumed = true
			i++
		}

		switch name {
		case "-C", "--consolecolors":
			r.Colors = value
		case "-W", "--consolewidth":
			r.Width = value
		case "--consoleprogress":
			r.ConsoleProgress = value
		case "--tracesubprocesses":
			r.TraceSubprocesses = true
		case "--verbose":
			r.Verbosity = "DEBUG"
		case "--quiet":
			r.Verbosity = "QUIET"
		}

		if ownOptions[name] {
			continue
		}
		r.Args = append(r.Args, arg)
		if consumed {
			r.Args = append(r.Args, value)
		}
	}
	return r
}

// Apply overrides cfg with the options given on the command line.
func (r RobotArgs) Apply(cfg *config.Config) error {
	if r.Colors != "" {
		cfg.Colors = r.Colors
	}
	if r.ConsoleProgress != "" {
		cfg.ConsoleProgress = r.ConsoleProgress
	}
	if r.Verbosity != "" {
		cfg.Verbosity = r.Verbosity
	}
	if r.Width != "" {
		width, err := strconv.Atoi(r.Width)
		if err != nil || width <= 0 {
			return fmt.Errorf("invalid console width %q", r.Width)
		}
		cfg.Width = width
	}
	return nil
}

// RobotCommand returns the command line that runs Robot with its own console
// output silenced and the event listener writing to file descriptor fd.
func RobotCommand(cfg *config.Config, args []string, fd int) ([]string, error) {
	base, err := shlex.Split(cfg.RobotCommand)
	if err != nil {
		return nil, fmt.Errorf("invalid robot_command %q: %w", cfg.RobotCommand, err)
	}
	if len(base) == 0 {
		return nil, fmt.Errorf("robot_command is empty")
	}
	cmd := append(base, "--console=quiet", "--listener", fmt.Sprintf("%s:%d", cfg.Listener, fd))
	return append(cmd, args...), nil
}
