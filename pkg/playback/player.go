// Package playback schedules decoded model audio for gapless output.
//
// Time is kept in frames. The output clock advances only as the device pulls
// buffers through Render, so scheduling is sample-exact regardless of how
// bursty the network is.
package playback

import (
	"sync"
	"time"
)

// Tap receives every rendered buffer after gain is applied.
type Tap interface {
	Write(samples []float32)
}

// Segment describes one scheduled buffer.
type Segment struct {
	ID    uint64
	Start int64 // frame at which playback begins
	Len   int64 // frames
}

// End returns the first frame after the segment.
func (s Segment) End() int64 { return s.Start + s.Len }

type segment struct {
	Segment
	samples []float32
}

// Stats summarizes scheduler activity.
type Stats struct {
	Scheduled     int64   `json:"scheduled"`
	Completed     int64   `json:"completed"`
	Interrupted   int64   `json:"interrupted"`
	Active        int     `json:"active"`
	ClockSeconds  float64 `json:"clock_seconds"`
	QueuedSeconds float64 `json:"queued_seconds"`
}

// Player is a pull-model mixer. Schedule and Interrupt are called from the
// session goroutine, Render from the audio device; a mutex serializes them.
type Player struct {
	rate int

	mu       sync.Mutex
	clock    int64 // frames rendered
	cursor   int64 // next start time
	gain     float32
	active   map[uint64]*segment
	nextID   uint64
	tap      Tap
	onIdle   func()
	schedule int64
	done     int64
	cut      int64
}

// NewPlayer creates a player for mono audio at rate Hz.
func NewPlayer(rate int) *Player {
	return &Player{
		rate:   rate,
		gain:   1,
		active: make(map[uint64]*segment),
	}
}

// SampleRate returns the output rate.
func (p *Player) SampleRate() int { return p.rate }

// SetTap connects an analyser to the output.
func (p *Player) SetTap(t Tap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tap = t
}

// OnIdle registers fn to run (from the render goroutine) whenever the last
// active segment finishes naturally.
func (p *Player) OnIdle(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onIdle = fn
}

// SetGain sets the output gain.
func (p *Player) SetGain(g float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gain = g
}

// Init aligns the cursor with the current clock.
func (p *Player) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = p.clock
}

// Schedule queues samples to start at max(cursor, clock) and advances the
// cursor by their length. Empty buffers are ignored.
func (p *Player) Schedule(samples []float32) (Segment, bool) {
	if len(samples) == 0 {
		return Segment{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor < p.clock {
		p.cursor = p.clock
	}
	p.nextID++
	seg := &segment{
		Segment: Segment{ID: p.nextID, Start: p.cursor, Len: int64(len(samples))},
		samples: samples,
	}
	p.active[seg.ID] = seg
	p.cursor += seg.Len
	p.schedule++
	return seg.Segment, true
}

// Interrupt stops every scheduled or playing segment and resets the cursor.
// It returns how many segments were cut.
func (p *Player) Interrupt() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.active)
	for id := range p.active {
		delete(p.active, id)
	}
	p.cursor = 0
	p.cut += int64(n)
	return n
}

// Render mixes the active segments into out, advances the clock by len(out)
// frames and retires segments that have ended.
func (p *Player) Render(out []float32) {
	p.mu.Lock()

	from := p.clock
	to := from + int64(len(out))
	for _, seg := range p.active {
		lo := max(seg.Start, from)
		hi := min(seg.End(), to)
		for t := lo; t < hi; t++ {
			out[t-from] += seg.samples[t-seg.Start]
		}
	}
	if p.gain != 1 {
		for i := range out {
			out[i] *= p.gain
		}
	}
	p.clock = to

	retired := 0
	for id, seg := range p.active {
		if seg.End() <= to {
			delete(p.active, id)
			retired++
		}
	}
	p.done += int64(retired)

	tap := p.tap
	var idle func()
	if retired > 0 && len(p.active) == 0 {
		idle = p.onIdle
	}
	p.mu.Unlock()

	if tap != nil {
		tap.Write(out)
	}
	if idle != nil {
		idle()
	}
}

// Clock returns the output clock.
func (p *Player) Clock() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.framesToDuration(p.clock)
}

// Cursor returns the next start time. Zero right after Interrupt.
func (p *Player) Cursor() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.framesToDuration(p.cursor)
}

// Active returns the number of scheduled or playing segments.
func (p *Player) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// Speaking reports whether anything is scheduled.
func (p *Player) Speaking() bool {
	return p.Active() > 0
}

// Stats returns a snapshot of scheduler activity.
func (p *Player) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	queued := p.cursor - p.clock
	if queued < 0 || len(p.active) == 0 {
		queued = 0
	}
	return Stats{
		Scheduled:     p.schedule,
		Completed:     p.done,
		Interrupted:   p.cut,
		Active:        len(p.active),
		ClockSeconds:  p.framesToDuration(p.clock).Seconds(),
		QueuedSeconds: p.framesToDuration(queued).Seconds(),
	}
}

func (p *Player) framesToDuration(frames int64) time.Duration {
	if p.rate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(p.rate)
}
