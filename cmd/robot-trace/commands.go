package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonsim/robot-trace/internal/bridge"
	"github.com/jonsim/robot-trace/internal/config"
	"github.com/jonsim/robot-trace/internal/event"
	"github.com/jonsim/robot-trace/internal/gotest"
	"github.com/jonsim/robot-trace/internal/runner"
	"github.com/jonsim/robot-trace/internal/term"
)

var robotCmd = &cobra.Command{
	Use:   "robot [robot options] [paths...]",
	Short: "Run Robot Framework with a live trace",
	Long: `Runs robot with its own console output silenced and renders its events.

Every argument is passed to robot except robot-trace's own options:
  --consoleprogress <AUTO|STDOUT|STDERR|NONE>
  --verbose, --quiet
  --tracesubprocesses
Robot's -C/--consolecolors and -W/--consolewidth are honored too. Long
options are case and hyphen insensitive, as in robot.

Robot reports its events through a listener on file descriptor 3. With the
default listener setting (robot_trace_events) the bundled listener is written
to a temporary directory for the run. A custom listener must implement the
listener v2 interface and write one JSON object per callback to the
descriptor given as its argument:

  {"event": "start_suite", "name": "<name>", "attributes": {...}}

for start_suite, end_suite, start_test, end_test, start_keyword, end_keyword,
log_message (attributes: the message dict) and close, passing Robot's
attributes through unchanged.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		robotArgs := runner.ParseRobotArgs(args)
		cfg, done, err := loadConfig(robotArgs.Apply)
		if err != nil {
			return err
		}
		defer done()
		if robotArgs.TraceSubprocesses {
			log.Debug().Msg("subprocess output is always traced")
		}

		listener, cleanup, err := bridge.Prepare(cfg.Listener)
		if err != nil {
			return runner.Internal(err)
		}
		defer cleanup()
		cfg.Listener = listener

		argv, err := runner.RobotCommand(cfg, robotArgs.Args, runner.EventFD)
		if err != nil {
			return runner.Usage(err)
		}
		return runSession(cmd, cfg, runner.Options{Args: argv, Protocol: runner.RobotEvents})
	},
}

var goBinary string

var gotestCmd = &cobra.Command{
	Use:   "gotest [flags] -- [go test args]",
	Short: "Run go test with a live trace",
	Long: `Runs go test -json and renders every package as a suite, every top-level
test as a test and every subtest as a step.

  robot-trace gotest -- -race ./...
  robot-trace gotest --count-tests=false -- -run TestFoo ./pkg/...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig(nil)
		if err != nil {
			return err
		}
		defer done()

		goArgs := gotest.ParseArgs(args)
		total := 0
		if cfg.CountTests {
			total, err = gotest.CountTests(cmd.Context(), goBinary, goArgs)
			if err != nil {
				// The run itself reports why the packages do not build.
				log.Warn().Err(err).Msg("counting tests failed")
				total = 0
			}
		}

		argv := append([]string{goBinary}, goArgs.TestArgs()...)
		return runSession(cmd, cfg, runner.Options{Args: argv, Protocol: runner.GoTestJSON, Total: total})
	},
}

// runSession runs the engine described by opts against a new session.
func runSession(cmd *cobra.Command, cfg *config.Config, opts runner.Options) error {
	streams := term.System()
	s, err := newSession(cfg, streams)
	if err != nil {
		return err
	}
	defer s.close()

	opts.Handler = s.handler
	opts.Refresh = s.listener.Refresh
	opts.Stdout = streams.Out
	opts.Stderr = streams.ErrOut
	return runner.Run(cmd.Context(), opts)
}

var replayCmd = &cobra.Command{
	Use:   "replay [file|-]",
	Short: "Render a recorded event stream",
	Long: `Renders a JSON-lines event stream, as written by --record or by the
Robot listener bridge, as if the run were happening now. Reads stdin when no
file is given. Exits with the number of failed tests, capped at 250.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig(nil)
		if err != nil {
			return err
		}
		defer done()

		var in io.Reader = os.Stdin
		name := "stdin"
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return runner.Usage(err)
			}
			defer f.Close()
			in, name = f, args[0]
		}

		s, err := newSession(cfg, term.System())
		if err != nil {
			return err
		}
		defer s.close()

		if err := event.Decode(in, s.handler); err != nil {
			return runner.Internal(fmt.Errorf("replay %s: %w", name, err))
		}
		if failed := len(s.listener.Stats().Failed); failed > 0 {
			return runner.Failed(min(failed, 250), fmt.Sprintf("%d failed tests", failed))
		}
		return nil
	},
}

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the robot-trace configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FileName + ".yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return runner.Usage(fmt.Errorf("%s already exists, use --force to overwrite", path))
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return runner.Usage(err)
		}

		if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
			return runner.Usage(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig(nil)
		if err != nil {
			return err
		}
		defer done()

		data, err := config.Marshal(cfg)
		if err != nil {
			return runner.Internal(err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	gotestCmd.Flags().StringVar(&goBinary, "go", "go", "Go command to run")
	gotestCmd.Flags().Bool("count-tests", true, "Count tests with go test -list first, for the progress bar")
	bindFlags(v, gotestCmd.Flags(), map[string]string{"count_tests": "count-tests"})

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
