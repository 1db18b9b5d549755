package intercept

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(into *[]string) ForwardFunc {
	return func(text string) error {
		*into = append(*into, text)
		return nil
	}
}

func TestStream_WriteBuffersUntilFlush(t *testing.T) {
	var real bytes.Buffer
	s := New("stdout", &real)

	n, err := s.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, _ = s.Write([]byte("world\n"))

	assert.Equal(t, 2, s.Pending())
	assert.Empty(t, real.String(), "writes must not reach the real stream")

	var got []string
	require.NoError(t, s.Flush(collect(&got)))
	assert.Equal(t, []string{"hello\n", "world\n"}, got)
	assert.Equal(t, 0, s.Pending())
	assert.Empty(t, real.String())
}

func TestStream_FlushClearsBuffer(t *testing.T) {
	s := New("stdout", &bytes.Buffer{})
	_, _ = s.Write([]byte("once"))

	var got []string
	require.NoError(t, s.Flush(collect(&got)))
	require.NoError(t, s.Flush(collect(&got)))

	assert.Equal(t, []string{"once"}, got)
}

func TestStream_EmptyWriteIgnored(t *testing.T) {
	s := New("stdout", &bytes.Buffer{})
	n, err := s.Write(nil)

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, s.Pending())
}

func TestStream_FailedForwardFallsBackToRealStream(t *testing.T) {
	var real bytes.Buffer
	s := New("stderr", &real)
	_, _ = s.Write([]byte("a"))
	_, _ = s.Write([]byte("b"))
	_, _ = s.Write([]byte("c"))

	var got []string
	err := s.Flush(func(text string) error {
		if text == "b" {
			return errors.New("boom")
		}
		got = append(got, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got)
	assert.Equal(t, "b", real.String())
}

func TestStream_PanickingForwardFallsBack(t *testing.T) {
	var real bytes.Buffer
	s := New("stdout", &real)
	_, _ = s.Write([]byte("data"))

	require.NoError(t, s.Flush(func(string) error { panic("broken printer") }))
	assert.Equal(t, "data", real.String())
}

func TestStream_NilForwardFallsBack(t *testing.T) {
	var real bytes.Buffer
	s := New("stdout", &real)
	_, _ = s.Write([]byte("data"))

	require.NoError(t, s.Flush(nil))
	assert.Equal(t, "data", real.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestStream_FallbackWriteErrorReported(t *testing.T) {
	s := New("stdout", failingWriter{})
	_, _ = s.Write([]byte("data"))

	err := s.Flush(func(string) error { return errors.New("nope") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write stdout")
}

func TestStream_ConcurrentWritesKeepEveryChunk(t *testing.T) {
	s := New("stdout", &bytes.Buffer{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = fmt.Fprintf(s, "%d-%d", i, j)
			}
		}(i)
	}
	wg.Wait()

	var got []string
	require.NoError(t, s.Flush(collect(&got)))
	assert.Len(t, got, 400)
}
