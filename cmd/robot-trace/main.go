package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jonsim/robot-trace/internal/config"
	"github.com/jonsim/robot-trace/internal/runner"
	"github.com/jonsim/robot-trace/meta"
)

var (
	configPath string
	verbose    bool
	quiet      bool
)

// v holds the layered configuration: defaults, file, environment, flags.
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "robot-trace",
	Short: "Live progress and failure traces for test runs",
	Long: `robot-trace - Show what failed, not everything that ran

Runs a test engine, keeps a progress box at the bottom of the terminal and
prints the step-by-step trace of every test that failed, warned or errored.

Quick Start:
  robot-trace robot tests/            Run Robot Framework suites
  robot-trace gotest -- ./...         Run go tests
  robot-trace replay run.jsonl        Render a recorded event stream
  robot-trace config init             Write a default robot-trace.yaml

Exit codes:
  The engine's own exit code is passed through. 252 reports bad arguments or
  configuration, 255 an integration failure, 130 an interrupted run.`,
	Version:       meta.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to the config file (default: ./robot-trace.yaml)")
	flags.String("verbosity", "", "Trace verbosity: QUIET, NORMAL or DEBUG")
	flags.String("colors", "", "Colors: AUTO, ON, ANSI or OFF")
	flags.String("console-progress", "", "Progress box stream: AUTO, STDOUT, STDERR or NONE")
	flags.Int("width", 0, "Maximum progress box width")
	flags.String("log-file", "", "Write diagnostics to this file")
	flags.String("log-level", "", "Diagnostics level: trace, debug, info, warn or error")
	flags.String("record", "", "Record every event to this file for replay")
	flags.BoolVar(&verbose, "verbose", false, "Shorthand for --verbosity=DEBUG")
	flags.BoolVar(&quiet, "quiet", false, "Shorthand for --verbosity=QUIET")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	bindFlags(v, flags, map[string]string{
		"verbosity":        "verbosity",
		"colors":           "colors",
		"console_progress": "console-progress",
		"width":            "width",
		"log_file":         "log-file",
		"log_level":        "log-level",
		"record_file":      "record",
	})

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return runner.Usage(err)
	})

	rootCmd.AddCommand(robotCmd)
	rootCmd.AddCommand(gotestCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(configCmd)
}

// bindFlags binds flags to config keys, so a flag given on the command line
// overrides the file and the environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(report(err))
}

// report prints err unless the run already explained it, and returns the
// process exit code.
func report(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) {
		// Errors cobra raises itself are about the command line.
		fmt.Fprintf(os.Stderr, "robot-trace: %v\n", err)
		return runner.ExitUsage
	}
	if !runner.Silent(err) && exitErr.Code != runner.ExitInterrupted {
		fmt.Fprintf(os.Stderr, "robot-trace: %v\n", err)
	}
	return exitErr.Code
}
