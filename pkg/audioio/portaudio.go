//go:build cgo

package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

var (
	paMu   sync.Mutex
	paRefs int
)

// paAcquire initializes PortAudio on first use.
func paAcquire() error {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio: initialize: %w", err)
		}
	}
	paRefs++
	return nil
}

// paRelease terminates PortAudio when the last user is gone.
func paRelease() {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		return
	}
	paRefs--
	if paRefs == 0 {
		_ = portaudio.Terminate()
	}
}

// PortAudioAvailable reports whether this build has the PortAudio backend.
func PortAudioAvailable() bool { return true }

// PortAudioSource captures the default input device with a callback stream.
type PortAudioSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	pa      *portaudio.Stream
	stopCh  chan struct{}
	stream  chunkStream

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

func newPortAudioSource(cfg Config, logger *slog.Logger) (*PortAudioSource, error) {
	if err := paAcquire(); err != nil {
		return nil, err
	}
	return &PortAudioSource{cfg: cfg, logger: logger}, nil
}

// Start opens the microphone. Failing here is how a denied or missing
// microphone surfaces.
func (s *PortAudioSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	s.stream.reset(64)
	pa, err := portaudio.OpenDefaultStream(1, 0, float64(s.cfg.SampleRate), s.cfg.FramesPerBuffer, s.capture)
	if err != nil {
		s.stream.close()
		return fmt.Errorf("portaudio: open input: %w", err)
	}
	if err := pa.Start(); err != nil {
		pa.Close()
		s.stream.close()
		return fmt.Errorf("portaudio: start input: %w", err)
	}
	s.pa = pa
	s.running = true
	s.stopCh = make(chan struct{})
	go s.stopOnDone(ctx, s.stopCh)

	s.logger.Info("portaudio source started",
		"sample_rate", s.cfg.SampleRate,
		"frames_per_buffer", s.cfg.FramesPerBuffer,
	)
	return nil
}

func (s *PortAudioSource) stopOnDone(ctx context.Context, stopCh chan struct{}) {
	select {
	case <-ctx.Done():
		s.Stop()
	case <-stopCh:
	}
}

// capture runs on the PortAudio thread; in is reused, so copy it.
func (s *PortAudioSource) capture(in []float32) {
	samples := make([]float32, len(in))
	copy(samples, in)
	if !s.stream.send(AudioChunk{Samples: samples, SampleRate: s.cfg.SampleRate}) {
		s.overruns.Add(1)
		return
	}
	s.chunksRead.Add(1)
	s.samplesRead.Add(int64(len(samples)))
}

// Stop closes the input stream.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)

	var err error
	if s.pa != nil {
		err = s.pa.Stop()
		s.pa.Close()
		s.pa = nil
	}
	s.stream.close()
	s.logger.Info("portaudio source stopped")
	return err
}

// Read reads the next audio chunk.
func (s *PortAudioSource) Read(ctx context.Context) (AudioChunk, error) {
	return readStream(ctx, s.stream.get())
}

// Stream returns the audio chunk channel.
func (s *PortAudioSource) Stream() <-chan AudioChunk { return s.stream.get() }

// Config returns the audio configuration.
func (s *PortAudioSource) Config() Config { return s.cfg }

// Name returns "portaudio".
func (s *PortAudioSource) Name() string { return string(BackendPortAudio) }

// Close stops capture and releases PortAudio.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Stop()
	paRelease()
	return err
}

// Stats returns source statistics.
func (s *PortAudioSource) Stats() SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return SourceStats{
		ChunksRead:  s.chunksRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     s.Name(),
	}
}

// PortAudioSink plays to the default output device, pulling every buffer
// from its renderer on the PortAudio thread.
type PortAudioSink struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	renderer Renderer
	pa       *portaudio.Stream
	stopCh   chan struct{}

	buffers atomic.Int64
	frames  atomic.Int64
}

func newPortAudioSink(cfg Config, logger *slog.Logger) (*PortAudioSink, error) {
	if err := paAcquire(); err != nil {
		return nil, err
	}
	return &PortAudioSink{cfg: cfg, logger: logger}, nil
}

// Start opens the output device and begins pulling from r.
func (s *PortAudioSink) Start(ctx context.Context, r Renderer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}
	s.renderer = r

	pa, err := portaudio.OpenDefaultStream(0, 1, float64(s.cfg.SampleRate), s.cfg.FramesPerBuffer, s.render)
	if err != nil {
		return fmt.Errorf("portaudio: open output: %w", err)
	}
	if err := pa.Start(); err != nil {
		pa.Close()
		return fmt.Errorf("portaudio: start output: %w", err)
	}
	s.pa = pa
	s.running = true
	s.stopCh = make(chan struct{})
	go s.stopOnDone(ctx, s.stopCh)

	s.logger.Info("portaudio sink started", "sample_rate", s.cfg.SampleRate)
	return nil
}

func (s *PortAudioSink) stopOnDone(ctx context.Context, stopCh chan struct{}) {
	select {
	case <-ctx.Done():
		s.Stop()
	case <-stopCh:
	}
}

func (s *PortAudioSink) render(out []float32) {
	renderInto(s.renderer, out)
	s.buffers.Add(1)
	s.frames.Add(int64(len(out)))
}

// Stop closes the output stream.
func (s *PortAudioSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)

	var err error
	if s.pa != nil {
		err = s.pa.Stop()
		s.pa.Close()
		s.pa = nil
	}
	s.logger.Info("portaudio sink stopped")
	return err
}

// Config returns the audio configuration.
func (s *PortAudioSink) Config() Config { return s.cfg }

// Name returns "portaudio".
func (s *PortAudioSink) Name() string { return string(BackendPortAudio) }

// Close stops playback and releases PortAudio.
func (s *PortAudioSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Stop()
	paRelease()
	return err
}

// Stats returns sink statistics.
func (s *PortAudioSink) Stats() SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return SinkStats{
		BuffersRendered: s.buffers.Load(),
		FramesRendered:  s.frames.Load(),
		Running:         running,
		Backend:         s.Name(),
	}
}

var (
	_ SourceWithStats = (*PortAudioSource)(nil)
	_ SinkWithStats   = (*PortAudioSink)(nil)
)
