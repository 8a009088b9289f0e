package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MockSource is a mock audio source for testing.
// It generates synthetic audio (silence or sine wave) on a ticker, or only
// what the test hands it through Emit when created with WithManualCapture.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	stream   chunkStream
	stopCh   chan struct{}
	startErr error

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64

	phase     float64
	frequency float64 // Hz, 0 = silence
	amplitude float64 // 0.0 to 1.0
	manual    bool
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave configures the mock to generate a sine wave.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithManualCapture disables the generator; chunks come only from Emit.
func WithManualCapture() MockSourceOption {
	return func(m *MockSource) {
		m.manual = true
	}
}

// WithStartError makes Start fail, simulating a denied microphone.
func WithStartError(err error) MockSourceOption {
	return func(m *MockSource) {
		m.startErr = err
	}
}

// NewMockSource creates a new mock audio source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		cfg:       cfg,
		logger:    logger,
		amplitude: 0.5,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins generating audio.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.startErr != nil {
		return m.startErr
	}
	if m.running {
		return nil
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.stream.reset(64)

	if !m.manual {
		go m.generateLoop(ctx, m.stopCh)
	}

	m.logger.Info("mock audio source started",
		"sample_rate", m.cfg.SampleRate,
		"frequency", m.frequency,
	)
	return nil
}

func (m *MockSource) generateLoop(ctx context.Context, stopCh chan struct{}) {
	ticker := time.NewTicker(m.cfg.BufferDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.Emit(m.generateChunk())
		}
	}
}

func (m *MockSource) generateChunk() []float32 {
	samples := make([]float32, m.cfg.BufferSize())
	if m.frequency <= 0 {
		return samples
	}
	for i := range samples {
		samples[i] = float32(m.amplitude * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.cfg.SampleRate)))
		m.phase++
		if m.phase >= float64(m.cfg.SampleRate) {
			m.phase = 0
		}
	}
	return samples
}

// Emit delivers samples as one chunk. It reports false when the source is
// stopped or the buffer is full.
func (m *MockSource) Emit(samples []float32) bool {
	chunk := AudioChunk{Samples: samples, SampleRate: m.cfg.SampleRate}
	if !m.stream.send(chunk) {
		m.overruns.Add(1)
		return false
	}
	m.chunksRead.Add(1)
	m.samplesRead.Add(int64(len(samples)))
	return true
}

// Stop halts audio generation.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	close(m.stopCh)
	m.stream.close()

	m.logger.Info("mock audio source stopped")
	return nil
}

// Read reads the next audio chunk.
func (m *MockSource) Read(ctx context.Context) (AudioChunk, error) {
	return readStream(ctx, m.stream.get())
}

// Stream returns the audio chunk channel.
func (m *MockSource) Stream() <-chan AudioChunk {
	return m.stream.get()
}

// Config returns the audio configuration.
func (m *MockSource) Config() Config {
	return m.cfg
}

// Name returns "mock".
func (m *MockSource) Name() string {
	return "mock"
}

// Close releases resources.
func (m *MockSource) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	return m.Stop()
}

// Stats returns source statistics.
func (m *MockSource) Stats() SourceStats {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	return SourceStats{
		ChunksRead:  m.chunksRead.Load(),
		SamplesRead: m.samplesRead.Load(),
		Overruns:    m.overruns.Load(),
		Running:     running,
		Backend:     "mock",
	}
}

var _ SourceWithStats = (*MockSource)(nil)

// MockSink is a mock audio sink for testing.
// It pulls from its renderer on a ticker, or only on Tick when created with
// WithManualClock, and keeps what was rendered.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	manual   bool
	renderer Renderer
	stopCh   chan struct{}
	rendered []float32
	keep     bool

	buffers atomic.Int64
	frames  atomic.Int64
}

// MockSinkOption configures a MockSink.
type MockSinkOption func(*MockSink)

// WithManualClock disables the ticker; buffers are pulled only by Tick.
func WithManualClock() MockSinkOption {
	return func(m *MockSink) {
		m.manual = true
	}
}

// WithCapture keeps every rendered sample for inspection.
func WithCapture() MockSinkOption {
	return func(m *MockSink) {
		m.keep = true
	}
}

// NewMockSink creates a new mock audio sink.
func NewMockSink(cfg Config, logger *slog.Logger, opts ...MockSinkOption) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MockSink{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins pulling audio from r.
func (m *MockSink) Start(ctx context.Context, r Renderer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.running {
		return nil
	}
	m.running = true
	m.renderer = r
	m.stopCh = make(chan struct{})

	if !m.manual {
		go m.pullLoop(ctx, m.stopCh)
	}
	m.logger.Info("mock audio sink started")
	return nil
}

func (m *MockSink) pullLoop(ctx context.Context, stopCh chan struct{}) {
	ticker := time.NewTicker(m.cfg.BufferDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.Tick(1)
		}
	}
}

// Tick pulls n buffers from the renderer.
func (m *MockSink) Tick(n int) {
	m.mu.Lock()
	r := m.renderer
	running := m.running
	m.mu.Unlock()
	if !running || r == nil {
		return
	}

	buf := make([]float32, m.cfg.BufferSize())
	for i := 0; i < n; i++ {
		renderInto(r, buf)
		m.buffers.Add(1)
		m.frames.Add(int64(len(buf)))
		if m.keep {
			m.mu.Lock()
			m.rendered = append(m.rendered, buf...)
			m.mu.Unlock()
		}
	}
}

// Rendered returns a copy of everything rendered so far (WithCapture only).
func (m *MockSink) Rendered() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, len(m.rendered))
	copy(out, m.rendered)
	return out
}

// Stop halts playback.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	close(m.stopCh)
	m.logger.Info("mock audio sink stopped")
	return nil
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config {
	return m.cfg
}

// Name returns "mock".
func (m *MockSink) Name() string {
	return "mock"
}

// Close releases resources.
func (m *MockSink) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	return m.Stop()
}

// Stats returns sink statistics.
func (m *MockSink) Stats() SinkStats {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	return SinkStats{
		BuffersRendered: m.buffers.Load(),
		FramesRendered:  m.frames.Load(),
		Running:         running,
		Backend:         "mock",
	}
}

var _ SinkWithStats = (*MockSink)(nil)
