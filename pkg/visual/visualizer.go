package visual

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is one frame at 60 fps.
const DefaultInterval = time.Second / 60

// Visualizer refreshes both analysers on a fixed interval and publishes an
// orb frame each time.
type Visualizer struct {
	Input  *Analyser
	Output *Analyser

	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	width   float64
	height  float64
	last    Frame
	publish func(Frame)
	frames  int64
}

// NewVisualizer creates a visualizer for a w x h canvas.
func NewVisualizer(w, h float64, logger *slog.Logger) *Visualizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Visualizer{
		Input:    NewAnalyser(),
		Output:   NewAnalyser(),
		logger:   logger,
		interval: DefaultInterval,
		width:    w,
		height:   h,
	}
}

// SetInterval changes the frame period. Call before Run.
func (v *Visualizer) SetInterval(d time.Duration) {
	if d > 0 {
		v.interval = d
	}
}

// Resize changes the canvas size used for subsequent frames.
func (v *Visualizer) Resize(w, h float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width, v.height = w, h
}

// OnFrame registers the frame consumer.
func (v *Visualizer) OnFrame(fn func(Frame)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.publish = fn
}

// Step updates both analysers and computes one frame.
func (v *Visualizer) Step() Frame {
	v.Input.Update()
	v.Output.Update()
	in := Average(v.Input.Data())
	out := Average(v.Output.Data())

	v.mu.Lock()
	f := Orb{}.Frame(in, out, v.width, v.height)
	v.last = f
	v.frames++
	fn := v.publish
	v.mu.Unlock()

	if fn != nil {
		fn(f)
	}
	return f
}

// Last returns the most recent frame.
func (v *Visualizer) Last() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Run steps until ctx is done.
func (v *Visualizer) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.logger.Debug("visualizer started", "interval", v.interval)
	for {
		select {
		case <-ctx.Done():
			v.mu.Lock()
			n := v.frames
			v.mu.Unlock()
			v.logger.Debug("visualizer stopped", "frames", n)
			return
		case <-ticker.C:
			v.Step()
		}
	}
}
