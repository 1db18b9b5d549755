package gotest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Args
	}{
		{
			name: "no args",
			args: nil,
			want: Args{Patterns: []string{"."}, BuildFlags: []string{}, TestFlags: []string{}},
		},
		{
			name: "patterns only",
			args: []string{"./...", "./pkg/..."},
			want: Args{Patterns: []string{"./...", "./pkg/..."}, BuildFlags: []string{}, TestFlags: []string{}},
		},
		{
			name: "build and test flags",
			args: []string{"-race", "-tags", "integration", "./...", "-run", "TestFoo", "-v"},
			want: Args{
				Patterns:   []string{"./..."},
				BuildFlags: []string{"-race", "-tags", "integration"},
				TestFlags:  []string{"-run", "TestFoo", "-v"},
			},
		},
		{
			name: "flags with equals",
			args: []string{"-count=1", "--tags=e2e", "."},
			want: Args{
				Patterns:   []string{"."},
				BuildFlags: []string{"--tags=e2e"},
				TestFlags:  []string{"-count=1"},
			},
		},
		{
			name: "unknown flag takes value",
			args: []string{"-myflag", "value", "./x"},
			want: Args{
				Patterns:   []string{"./x"},
				BuildFlags: []string{},
				TestFlags:  []string{"-myflag", "value"},
			},
		},
		{
			name: "value flag before another flag",
			args: []string{"-run", "-v"},
			want: Args{
				Patterns:   []string{"."},
				BuildFlags: []string{},
				TestFlags:  []string{"-run", "-v"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.args))
		})
	}
}

func TestRunPattern(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "."},
		{[]string{"-run", "TestFoo"}, "TestFoo"},
		{[]string{"-run=TestFoo/sub"}, "TestFoo"},
		{[]string{"-run", "/sub"}, "."},
		{[]string{"-run", "A", "-run", "B"}, "B"},
		{[]string{"-run="}, "."},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.args).RunPattern())
		})
	}
}

func TestTestArgs(t *testing.T) {
	args := ParseArgs([]string{"-race", "./...", "-json", "-count", "1"})
	assert.Equal(t, []string{"test", "-json", "-race", "./...", "-count", "1"}, args.TestArgs())
}

func TestListArgs(t *testing.T) {
	args := ParseArgs([]string{"-tags", "e2e", "./pkg/...", "-run", "TestA/x", "-v"})
	assert.Equal(t, []string{"test", "-list", "TestA", "-tags", "e2e", "./pkg/..."}, args.ListArgs())
}
