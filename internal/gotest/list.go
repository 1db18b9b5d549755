package gotest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// testPrefixes are the top-level functions go test runs without -bench or
// -fuzz.
var testPrefixes = []string{"Test", "Example", "Fuzz"}

// CountListed counts the test names in `go test -list` output. Package
// status lines ("ok", "?", "FAIL") are skipped.
func CountListed(r io.Reader) (int, error) {
	n := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.ContainsAny(line, " \t") {
			continue
		}
		for _, prefix := range testPrefixes {
			if strings.HasPrefix(line, prefix) {
				n++
				break
			}
		}
	}
	return n, scanner.Err()
}

// CountTests runs `go test -list` for args and counts the top-level tests it
// reports.
func CountTests(ctx context.Context, goBin string, args Args) (int, error) {
	cmd := exec.CommandContext(ctx, goBin, args.ListArgs()...)
	log.Debug().Strs("args", cmd.Args).Msg("counting tests")

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, fmt.Errorf("go test -list failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return 0, fmt.Errorf("go test -list failed: %w", err)
	}
	return CountListed(strings.NewReader(string(output)))
}
