// Package gotest maps the `go test -json` event stream onto the run events
// rendered by robot-trace.
package gotest

import "strings"

// Args separates go test command-line arguments into patterns and flags.
type Args struct {
	Patterns   []string // Package patterns (e.g., "./...", "./pkg/...")
	BuildFlags []string // Flags that affect the build (e.g., -race, -tags)
	TestFlags  []string // Flags for the test binary (e.g., -run, -count)
}

// buildFlags maps each build flag to whether it takes a value.
var buildFlags = map[string]bool{
	"-race":          false,
	"-cover":         false,
	"-covermode":     true,
	"-coverpkg":      true,
	"-tags":          true,
	"-ldflags":       true,
	"-mod":           true,
	"-modfile":       true,
	"-trimpath":      false,
	"-gcflags":       true,
	"-asmflags":      true,
	"-buildvcs":      false,
	"-compiler":      true,
	"-gccgoflags":    true,
	"-installsuffix": true,
	"-linkshared":    false,
	"-msan":          false,
	"-asan":          false,
	"-pkgdir":        true,
	"-pgo":           true,
	"-toolexec":      true,
	"-p":             true,
}

// testFlags maps each test flag to whether it takes a value.
var testFlags = map[string]bool{
	"-v":            false,
	"-count":        true,
	"-run":          true,
	"-skip":         true,
	"-timeout":      true,
	"-parallel":     true,
	"-short":        false,
	"-bench":        true,
	"-benchtime":    true,
	"-benchmem":     false,
	"-blockprofile": true,
	"-coverprofile": true,
	"-cpuprofile":   true,
	"-memprofile":   true,
	"-mutexprofile": true,
	"-trace":        true,
	"-failfast":     false,
	"-list":         true,
	"-shuffle":      true,
	"-json":         false,
}

// ParseArgs separates args into patterns, build flags and test flags. Flags
// it does not know are passed to the test binary.
func ParseArgs(args []string) Args {
	result := Args{
		Patterns:   make([]string, 0),
		BuildFlags: make([]string, 0),
		TestFlags:  make([]string, 0),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			result.Patterns = append(result.Patterns, arg)
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		name = "-" + strings.TrimLeft(name, "-")

		takesValue, isBuild := buildFlags[name]
		dst := &result.BuildFlags
		if !isBuild {
			var known bool
			takesValue, known = testFlags[name]
			// Unknown flags may carry a value.
			if !known {
				takesValue = true
			}
			dst = &result.TestFlags
		}

		if !hasValue && takesValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			*dst = append(*dst, arg, args[i+1])
			i++
			continue
		}
		*dst = append(*dst, arg)
	}

	// go test defaults to the package in the current directory.
	if len(result.Patterns) == 0 {
		result.Patterns = []string{"."}
	}
	return result
}

// flagValue returns the value of the last occurrence of name in flags.
func flagValue(flags []string, name string) (string, bool) {
	value, found := "", false
	for i := 0; i < len(flags); i++ {
		flag, v, hasValue := strings.Cut(flags[i], "=")
		if "-"+strings.TrimLeft(flag, "-") != name {
			continue
		}
		switch {
		case hasValue:
			value, found = v, true
		case i+1 < len(flags) && !strings.HasPrefix(flags[i+1], "-"):
			value, found = flags[i+1], true
			i++
		}
	}
	return value, found
}

// RunPattern returns the top-level part of the -run pattern, or "." to match
// every test.
func (a Args) RunPattern() string {
	run, ok := flagValue(a.TestFlags, "-run")
	if !ok || run == "" {
		return "."
	}
	top, _, _ := strings.Cut(run, "/")
	if top == "" {
		return "."
	}
	return top
}

// TestArgs returns the arguments of the `go test -json` run.
func (a Args) TestArgs() []string {
	out := []string{"test", "-json"}
	out = append(out, a.BuildFlags...)
	out = append(out, a.Patterns...)
	for i := 0; i < len(a.TestFlags); i++ {
		if a.TestFlags[i] == "-json" || a.TestFlags[i] == "--json" {
			continue
		}
		out = append(out, a.TestFlags[i])
	}
	return out
}

// ListArgs returns the arguments of the `go test -list` pass counting the
// tests the run will execute.
func (a Args) ListArgs() []string {
	out := []string{"test", "-list", a.RunPattern()}
	out = append(out, a.BuildFlags...)
	return append(out, a.Patterns...)
}
