// Package intercept captures writes aimed at an output stream so they can be
// woven into the trace instead of corrupting the terminal.
package intercept

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// ForwardFunc receives one captured chunk.
type ForwardFunc func(text string) error

// Stream buffers every write until Flush. It is safe for concurrent use.
type Stream struct {
	name string
	real io.Writer

	mu     sync.Mutex
	chunks []string
}

// New wraps real. The name identifies the stream in diagnostics.
func New(name string, real io.Writer) *Stream {
	return &Stream{name: name, real: real}
}

// Write records p as one chunk. It never fails.
func (s *Stream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	s.chunks = append(s.chunks, string(p))
	s.mu.Unlock()
	return len(p), nil
}

// Pending returns the number of chunks not yet flushed.
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Flush hands every buffered chunk, in write order, to forward. A chunk that
// forward rejects is written to the wrapped stream instead, so nothing
// captured is lost. The returned error is from that fallback write.
func (s *Stream) Flush(forward ForwardFunc) error {
	s.mu.Lock()
	chunks := s.chunks
	s.chunks = nil
	s.mu.Unlock()

	var firstErr error
	for _, chunk := range chunks {
		err := call(forward, chunk)
		if err == nil {
			continue
		}
		log.Warn().Err(err).Str("stream", s.name).Msg("forwarding captured output failed, writing it through")
		if _, werr := io.WriteString(s.real, chunk); werr != nil && firstErr == nil {
			firstErr = fmt.Errorf("write %s: %w", s.name, werr)
		}
	}
	return firstErr
}

func call(forward ForwardFunc, chunk string) (err error) {
	if forward == nil {
		return fmt.Errorf("no forward callback")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forward callback panicked: %v", r)
		}
	}()
	return forward(chunk)
}
