package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonsim/robot-trace/internal/event"
	"github.com/jonsim/robot-trace/internal/gotest"
	"github.com/jonsim/robot-trace/internal/intercept"
)

// EventFD is the file descriptor the engine writes events to.
const EventFD = 3

// EnvEventFD names EventFD in the engine's environment.
const EnvEventFD = "ROBOT_TRACE_EVENT_FD"

const (
	defaultFlushInterval = 100 * time.Millisecond
	stderrTailSize       = 64 << 10
	waitDelay            = 5 * time.Second
)

// Protocol selects how the engine reports events.
type Protocol int

const (
	// RobotEvents is the JSON-lines event protocol on an inherited pipe.
	RobotEvents Protocol = iota
	// GoTestJSON is `go test -json` output on stdout.
	GoTestJSON
)

func (p Protocol) String() string {
	switch p {
	case RobotEvents:
		return "robot"
	case GoTestJSON:
		return "gotest"
	default:
		return "unknown"
	}
}

// Options configure a run.
type Options struct {
	Args     []string // Engine command line
	Protocol Protocol
	Handler  event.Handler
	// Refresh is called on every flush tick while the run is open. May be nil.
	Refresh func()
	// Total is the number of top-level tests a GoTestJSON run will report, 0
	// when unknown.
	Total int
	// Stdout and Stderr receive engine output the handler can no longer take,
	// and the engine's stderr when it fails internally.
	Stdout io.Writer
	Stderr io.Writer
	Env    []string // Added to the inherited environment
	Dir    string
	// FlushInterval is how often captured output is flushed between events.
	FlushInterval time.Duration
}

// sink consumes the lines of the event stream.
type sink interface {
	Line([]byte) error
	Finish()
	Closed() bool
}

// goTestSink passes test2json lines to the adapter and everything else to
// the stdout interceptor.
type goTestSink struct {
	adapter *gotest.Adapter
	stdout  *intercept.Stream
}

func (s *goTestSink) Line(line []byte) error {
	err := s.adapter.Line(line)
	if !errors.Is(err, gotest.ErrNotJSON) {
		return err
	}
	if len(bytes.TrimSpace(line)) > 0 {
		_, _ = s.stdout.Write(line)
	}
	return nil
}

func (s *goTestSink) Finish()      { s.adapter.Close() }
func (s *goTestSink) Closed() bool { return s.adapter.Closed() }

var errHandlerClosed = errors.New("handler closed")

type run struct {
	opts   Options
	sink   sink
	stdout *intercept.Stream
	stderr *intercept.Stream
	tail   *tail
	lines  chan []byte
	cancel context.CancelFunc
	fatal  error
}

// Run starts the engine and dispatches its events to opts.Handler until it
// exits. Every handler call happens on the calling goroutine, and the
// handler is closed before Run returns. The returned error carries the exit
// code: the engine's own, ExitInterrupted when ctx was cancelled, or
// ExitInternal when the engine could not be started or its event stream was
// broken.
func Run(ctx context.Context, opts Options) error {
	if len(opts.Args) == 0 {
		return Usage(errors.New("no engine command"))
	}
	if opts.Handler == nil {
		return Internal(errors.New("no event handler"))
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}

	r := &run{
		opts:   opts,
		stdout: intercept.New(string(event.Stdout), opts.Stdout),
		stderr: intercept.New(string(event.Stderr), opts.Stderr),
		tail:   &tail{max: stderrTailSize},
		lines:  make(chan []byte, 256),
	}
	switch opts.Protocol {
	case GoTestJSON:
		r.sink = &goTestSink{adapter: gotest.NewAdapter(opts.Handler, opts.Total), stdout: r.stdout}
	default:
		r.sink = event.NewDecoder(opts.Handler)
	}
	return r.run(ctx)
}

func (r *run) run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.cancel = cancel

	cmd := exec.CommandContext(runCtx, r.opts.Args[0], r.opts.Args[1:]...)
	cmd.Dir = r.opts.Dir
	cmd.Env = append(os.Environ(), r.opts.Env...)
	// Let the engine shut down and report what it has on interrupt.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.sink.Finish()
		return Internal(fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.sink.Finish()
		return Internal(fmt.Errorf("stderr pipe: %w", err))
	}

	var events, eventsWriter *os.File
	if r.opts.Protocol == RobotEvents {
		events, eventsWriter, err = os.Pipe()
		if err != nil {
			r.sink.Finish()
			return Internal(fmt.Errorf("event pipe: %w", err))
		}
		defer events.Close()
		cmd.ExtraFiles = []*os.File{eventsWriter}
		cmd.Env = append(cmd.Env, EnvEventFD+"="+strconv.Itoa(EventFD))
	}

	log.Info().Strs("args", cmd.Args).Str("protocol", r.opts.Protocol.String()).Msg("starting engine")
	err = cmd.Start()
	if eventsWriter != nil {
		// The engine holds its own copy; ours would keep the stream open.
		eventsWriter.Close()
	}
	if err != nil {
		r.sink.Finish()
		return Internal(fmt.Errorf("start %s: %w", r.opts.Args[0], err))
	}

	var g errgroup.Group
	g.Go(func() error {
		return pumpLines(stderr, func(line []byte) {
			_, _ = r.stderr.Write(line)
			_, _ = r.tail.Write(line)
		})
	})
	if events != nil {
		g.Go(func() error {
			return pumpLines(stdout, func(line []byte) { _, _ = r.stdout.Write(line) })
		})
		g.Go(func() error {
			defer close(r.lines)
			return pumpLines(events, r.send)
		})
	} else {
		g.Go(func() error {
			defer close(r.lines)
			return pumpLines(stdout, r.send)
		})
	}
	pumped := make(chan error, 1)
	go func() { pumped <- g.Wait() }()

	pumpErr := r.dispatch(pumped)
	waitErr := cmd.Wait()
	r.flush()
	r.sink.Finish()

	return r.result(ctx, waitErr, pumpErr)
}

func (r *run) send(line []byte) { r.lines <- line }

// dispatch is the only place handler calls are made from until the run
// ends. It returns once the event stream and every output pipe are drained.
func (r *run) dispatch(pumped <-chan error) error {
	ticker := time.NewTicker(r.opts.FlushInterval)
	defer ticker.Stop()

	var pumpErr error
	lines := r.lines
	for lines != nil || pumped != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			r.line(line)
		case pumpErr = <-pumped:
			pumped = nil
		case <-ticker.C:
			r.flush()
			if r.opts.Refresh != nil && !r.sink.Closed() {
				r.opts.Refresh()
			}
		}
	}
	return pumpErr
}

// line dispatches one event line. The first broken line stops the engine;
// later lines are drained and dropped.
func (r *run) line(line []byte) {
	if r.fatal != nil {
		return
	}
	r.flush()
	if err := r.sink.Line(line); err != nil {
		r.fatal = err
		log.Error().Err(err).Msg("event stream broken, stopping engine")
		r.cancel()
	}
}

// flush forwards captured output to the handler, ahead of whatever event
// comes next.
func (r *run) flush() {
	if err := r.stdout.Flush(r.forward(event.Stdout)); err != nil {
		log.Warn().Err(err).Msg("flushing stdout failed")
	}
	if err := r.stderr.Flush(r.forward(event.Stderr)); err != nil {
		log.Warn().Err(err).Msg("flushing stderr failed")
	}
}

func (r *run) forward(stream event.Stream) intercept.ForwardFunc {
	return func(text string) error {
		if r.sink.Closed() {
			return errHandlerClosed
		}
		r.opts.Handler.ConsoleOutput(stream, text)
		return nil
	}
}

func (r *run) result(ctx context.Context, waitErr, pumpErr error) error {
	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			log.Error().Err(waitErr).Msg("waiting for engine failed")
			return Internal(fmt.Errorf("wait for %s: %w", r.opts.Args[0], waitErr))
		}
		code = exitErr.ExitCode()
	}
	log.Info().Int("code", code).Msg("engine exited")

	switch {
	case ctx.Err() != nil:
		return &ExitError{Code: ExitInterrupted, Err: ctx.Err()}
	case r.fatal != nil:
		return Internal(r.fatal)
	case pumpErr != nil:
		return Internal(fmt.Errorf("read engine output: %w", pumpErr))
	case code < 0:
		return Internal(fmt.Errorf("%s: %w", r.opts.Args[0], waitErr))
	case code > 250:
		// The engine failed before it could report anything useful.
		if _, err := r.opts.Stderr.Write(r.tail.Bytes()); err != nil {
			log.Warn().Err(err).Msg("writing engine stderr failed")
		}
	}
	if code != 0 {
		return Failed(code, fmt.Sprintf("%s exited with code %d", r.opts.Args[0], code))
	}
	return nil
}

// pumpLines calls fn with every line read from rd, newline included, until
// the stream ends.
func pumpLines(rd io.Reader, fn func(line []byte)) error {
	br := bufio.NewReader(rd)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			fn(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// tail keeps the last max bytes written to it.
type tail struct {
	max int
	buf []byte
}

func (t *tail) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tail) Bytes() []byte { return t.buf }
