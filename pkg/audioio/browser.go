package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// BrowserSource receives microphone audio captured by the dashboard page.
// The page posts PCM16 at its native rate; Push resamples to the configured
// rate and regroups into FramesPerBuffer chunks.
type BrowserSource struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	closed    bool
	stopCh    chan struct{}
	rechunker *Rechunker
	stream    chunkStream

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

// NewBrowserSource creates a browser-fed source.
func NewBrowserSource(cfg Config, logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{
		cfg:       cfg,
		logger:    logger,
		rechunker: NewRechunker(cfg.BufferSize()),
	}
}

// Start begins accepting pushed audio.
func (b *BrowserSource) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return io.ErrClosedPipe
	}
	if b.running {
		return nil
	}
	b.running = true
	b.rechunker.Reset()
	b.stream.reset(256)

	b.stopCh = make(chan struct{})
	go func(stopCh chan struct{}) {
		select {
		case <-ctx.Done():
			b.Stop()
		case <-stopCh:
		}
	}(b.stopCh)

	b.logger.Info("browser audio source started", "sample_rate", b.cfg.SampleRate)
	return nil
}

// Push accepts little-endian PCM16 captured at rate. Audio pushed while the
// source is stopped is discarded.
func (b *BrowserSource) Push(pcm []byte, rate int) error {
	samples, err := DecodePCM16(pcm)
	if err != nil {
		return err
	}
	if rate <= 0 {
		return fmt.Errorf("audioio: invalid capture rate %d", rate)
	}

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	chunks := b.rechunker.Push(Resample(samples, rate, b.cfg.SampleRate))
	b.mu.Unlock()

	for _, c := range chunks {
		if !b.stream.send(AudioChunk{Samples: c, SampleRate: b.cfg.SampleRate}) {
			b.overruns.Add(1)
			continue
		}
		b.chunksRead.Add(1)
		b.samplesRead.Add(int64(len(c)))
	}
	return nil
}

// Stop halts capture.
func (b *BrowserSource) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return nil
	}
	b.running = false
	close(b.stopCh)
	b.stream.close()
	b.logger.Info("browser audio source stopped")
	return nil
}

// Read reads the next audio chunk.
func (b *BrowserSource) Read(ctx context.Context) (AudioChunk, error) {
	return readStream(ctx, b.stream.get())
}

// Stream returns the audio chunk channel.
func (b *BrowserSource) Stream() <-chan AudioChunk { return b.stream.get() }

// Config returns the audio configuration.
func (b *BrowserSource) Config() Config { return b.cfg }

// Name returns "browser".
func (b *BrowserSource) Name() string { return string(BackendBrowser) }

// Running reports whether pushed audio is being accepted.
func (b *BrowserSource) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Close releases resources.
func (b *BrowserSource) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.Stop()
}

// Stats returns source statistics.
func (b *BrowserSource) Stats() SourceStats {
	return SourceStats{
		ChunksRead:  b.chunksRead.Load(),
		SamplesRead: b.samplesRead.Load(),
		Overruns:    b.overruns.Load(),
		Running:     b.Running(),
		Backend:     b.Name(),
	}
}

// BrowserSink renders on a wall-clock ticker and hands each buffer, encoded
// as PCM16, to the registered listener. Silent buffers are rendered but not
// published.
type BrowserSink struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	stopCh   chan struct{}
	listener func(pcm []byte)

	buffers atomic.Int64
	frames  atomic.Int64
}

// NewBrowserSink creates a browser-fed sink.
func NewBrowserSink(cfg Config, logger *slog.Logger) *BrowserSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSink{cfg: cfg, logger: logger}
}

// OnAudio registers the function that receives rendered PCM16 buffers.
func (b *BrowserSink) OnAudio(fn func(pcm []byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = fn
}

// Start begins rendering from r.
func (b *BrowserSink) Start(ctx context.Context, r Renderer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return io.ErrClosedPipe
	}
	if b.running {
		return nil
	}
	b.running = true
	b.stopCh = make(chan struct{})
	go b.renderLoop(ctx, r, b.stopCh)

	b.logger.Info("browser audio sink started", "sample_rate", b.cfg.SampleRate)
	return nil
}

func (b *BrowserSink) renderLoop(ctx context.Context, r Renderer, stopCh chan struct{}) {
	ticker := time.NewTicker(b.cfg.BufferDuration())
	defer ticker.Stop()

	buf := make([]float32, b.cfg.BufferSize())
	for {
		select {
		case <-ctx.Done():
			b.Stop()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			renderInto(r, buf)
			b.buffers.Add(1)
			b.frames.Add(int64(len(buf)))
			if silent(buf) {
				continue
			}
			b.mu.Lock()
			fn := b.listener
			b.mu.Unlock()
			if fn != nil {
				fn(EncodePCM16(buf))
			}
		}
	}
}

func silent(buf []float32) bool {
	for _, s := range buf {
		if s != 0 {
			return false
		}
	}
	return true
}

// Stop halts playback.
func (b *BrowserSink) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return nil
	}
	b.running = false
	close(b.stopCh)
	b.logger.Info("browser audio sink stopped")
	return nil
}

// Config returns the audio configuration.
func (b *BrowserSink) Config() Config { return b.cfg }

// Name returns "browser".
func (b *BrowserSink) Name() string { return string(BackendBrowser) }

// Close releases resources.
func (b *BrowserSink) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.Stop()
}

// Stats returns sink statistics.
func (b *BrowserSink) Stats() SinkStats {
	b.mu.Lock()
	running := b.running
	b.mu.Unlock()
	return SinkStats{
		BuffersRendered: b.buffers.Load(),
		FramesRendered:  b.frames.Load(),
		Running:         running,
		Backend:         b.Name(),
	}
}

var (
	_ SourceWithStats = (*BrowserSource)(nil)
	_ SinkWithStats   = (*BrowserSink)(nil)
)
