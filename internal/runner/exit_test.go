package runner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"usage", Usage(errors.New("bad flag")), ExitUsage},
		{"internal", Internal(errors.New("broken")), ExitInternal},
		{"engine", &ExitError{Code: 3}, 3},
		{"wrapped", fmt.Errorf("run: %w", &ExitError{Code: 7}), 7},
		{"plain error", errors.New("boom"), ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "exit code 4", (&ExitError{Code: 4}).Error())
	assert.Equal(t, "bad flag", Usage(errors.New("bad flag")).Error())
}

func TestSilent(t *testing.T) {
	engine := Failed(1, "robot exited with code 1")
	assert.True(t, Silent(engine))
	assert.Equal(t, 1, ExitCode(engine))
	assert.Equal(t, "run failed: robot exited with code 1", engine.Error())
	assert.False(t, Silent(Internal(errors.New("broken"))))
	assert.False(t, Silent(nil))
}

func TestTail(t *testing.T) {
	tl := &tail{max: 8}
	_, _ = tl.Write([]byte("abcdef"))
	_, _ = tl.Write([]byte("ghijkl"))
	assert.Equal(t, "efghijkl", string(tl.Bytes()))
}
