package audioio

import (
	"context"
	"io"
	"sync"
	"time"
)

// AudioChunk is a buffer of mono float32 samples in [-1, 1].
type AudioChunk struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the duration of this audio chunk.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Source captures audio from a microphone or other input device.
type Source interface {
	// Start begins audio capture. A stopped source can be started again;
	// a closed one cannot.
	Start(ctx context.Context) error

	// Stop halts audio capture. It is safe to call Stop multiple times.
	Stop() error

	// Read reads the next audio chunk, blocking if necessary.
	// Returns io.EOF when the source is stopped.
	Read(ctx context.Context) (AudioChunk, error)

	// Stream returns the channel for the current capture run.
	// The channel is closed when the source is stopped.
	Stream() <-chan AudioChunk

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name (e.g., "portaudio", "browser", "mock").
	Name() string

	// Close releases all resources.
	io.Closer
}

// SourceStats contains statistics about the audio source.
type SourceStats struct {
	ChunksRead  int64  `json:"chunks_read"`
	SamplesRead int64  `json:"samples_read"`
	Overruns    int64  `json:"overruns"`
	Running     bool   `json:"running"`
	Backend     string `json:"backend"`
}

// SourceWithStats extends Source with statistics.
type SourceWithStats interface {
	Source
	Stats() SourceStats
}

// readStream is the shared Read implementation.
func readStream(ctx context.Context, ch <-chan AudioChunk) (AudioChunk, error) {
	if ch == nil {
		return AudioChunk{}, io.EOF
	}
	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-ch:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// chunkStream is a restartable chunk channel that is safe to send on while
// another goroutine stops it.
type chunkStream struct {
	mu   sync.Mutex
	ch   chan AudioChunk
	open bool
}

func (s *chunkStream) reset(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ch = make(chan AudioChunk, size)
	s.open = true
}

// send delivers without blocking. It reports false when the chunk was
// dropped because the buffer is full or the stream is closed.
func (s *chunkStream) send(chunk AudioChunk) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return false
	}
	select {
	case s.ch <- chunk:
		return true
	default:
		return false
	}
}

func (s *chunkStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.open = false
		close(s.ch)
	}
}

func (s *chunkStream) get() <-chan AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}
