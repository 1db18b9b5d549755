// Package bridge ships the Robot Framework listener that writes run events
// to robot-trace's event descriptor.
package bridge

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

// Module is the listener's module name. A listener configured with this
// name is replaced by the embedded one.
const Module = "robot_trace_events"

// FileName is the name the listener is written under.
const FileName = Module + ".py"

// Source is the listener implementation, a Robot listener v2 class writing
// one JSON object per callback.
//
//go:embed robot_trace_events.py
var Source string

// Install writes the listener into dir and returns its path.
func Install(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(Source), 0o644); err != nil {
		return "", fmt.Errorf("write robot listener: %w", err)
	}
	return path, nil
}

// Prepare resolves the listener setting. The bundled module name is
// installed into a temporary directory that cleanup removes; any other value
// is a listener the user provides and is returned unchanged.
func Prepare(listener string) (resolved string, cleanup func(), err error) {
	if listener != Module {
		return listener, func() {}, nil
	}
	dir, err := os.MkdirTemp("", "robot-trace-")
	if err != nil {
		return "", nil, fmt.Errorf("create listener directory: %w", err)
	}
	path, err := Install(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { _ = os.RemoveAll(dir) }, nil
}
