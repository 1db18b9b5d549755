package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jonsim/robot-trace/internal/config"
	"github.com/jonsim/robot-trace/internal/event"
	"github.com/jonsim/robot-trace/internal/listener"
	"github.com/jonsim/robot-trace/internal/logging"
	"github.com/jonsim/robot-trace/internal/runner"
	"github.com/jonsim/robot-trace/internal/term"
)

// loadConfig resolves the configuration and starts the diagnostics log.
// apply may override the result with engine-specific options. The returned
// func closes the log.
func loadConfig(apply func(*config.Config) error) (*config.Config, func(), error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, nil, runner.Usage(err)
	}
	switch {
	case verbose:
		cfg.Verbosity = config.Debug.String()
	case quiet:
		cfg.Verbosity = config.Quiet.String()
	}
	if apply != nil {
		if err := apply(cfg); err != nil {
			return nil, nil, runner.Usage(err)
		}
	}

	closer, err := logging.Setup(cfg)
	if err != nil {
		return nil, nil, runner.Usage(err)
	}
	log.Debug().
		Str("verbosity", cfg.Verbosity).
		Str("colors", cfg.Colors).
		Str("console_progress", cfg.ConsoleProgress).
		Int("width", cfg.Width).
		Str("record_file", cfg.RecordFile).
		Msg("configuration resolved")

	return cfg, func() {
		if err := closer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "robot-trace: closing log: %v\n", err)
		}
	}, nil
}

// session is the terminal side of one run: the listener, and the recorder
// in front of it when recording.
type session struct {
	listener *listener.Listener
	handler  event.Handler
	recorder *event.Recorder
	record   *os.File
}

func newSession(cfg *config.Config, streams *term.Streams) (*session, error) {
	s := &session{}
	if cfg.RecordFile != "" {
		f, err := os.Create(cfg.RecordFile)
		if err != nil {
			return nil, runner.Usage(fmt.Errorf("create record file: %w", err))
		}
		s.record = f
	}

	s.listener = listener.New(listener.Options{
		Verbosity: cfg.VerbosityLevel(),
		Colors:    streams.Colors(cfg.ColorMode()),
		Width:     streams.EffectiveWidth(cfg.Width),
		Out:       streams.Out,
		Progress:  streams.ProgressStream(cfg.ProgressMode()),
	})
	s.handler = s.listener
	if s.record != nil {
		s.recorder = event.NewRecorder(s.record, s.listener)
		s.handler = s.recorder
	}
	return s, nil
}

// close finishes the recording. The listener is closed by the event stream.
func (s *session) close() {
	if s.recorder != nil {
		if err := s.recorder.Err(); err != nil {
			log.Warn().Err(err).Msg("recording events failed")
			fmt.Fprintf(os.Stderr, "robot-trace: recording incomplete: %v\n", err)
		}
	}
	if s.record != nil {
		if err := s.record.Close(); err != nil {
			log.Warn().Err(err).Msg("closing record file failed")
		}
	}
}
