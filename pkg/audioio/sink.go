package audioio

import (
	"context"
	"io"
)

// Renderer fills an output buffer. out arrives zeroed; a renderer that has
// nothing to play leaves it silent.
type Renderer interface {
	Render(out []float32)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(out []float32)

// Render implements Renderer.
func (f RendererFunc) Render(out []float32) { f(out) }

// Sink plays audio to a speaker or other output device by pulling buffers
// from a Renderer at the device rate.
type Sink interface {
	// Start begins pulling from r.
	Start(ctx context.Context, r Renderer) error

	// Stop halts playback. It is safe to call Stop multiple times.
	Stop() error

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name.
	Name() string

	// Close releases all resources.
	io.Closer
}

// SinkStats contains statistics about the audio sink.
type SinkStats struct {
	BuffersRendered int64  `json:"buffers_rendered"`
	FramesRendered  int64  `json:"frames_rendered"`
	Running         bool   `json:"running"`
	Backend         string `json:"backend"`
}

// SinkWithStats extends Sink with statistics.
type SinkWithStats interface {
	Sink
	Stats() SinkStats
}

// renderInto zeroes buf and renders into it.
func renderInto(r Renderer, buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
	r.Render(buf)
}
