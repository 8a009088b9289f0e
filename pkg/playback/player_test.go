package playback

import (
	"sync/atomic"
	"testing"
	"time"
)

func ones(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

type captureTap struct {
	writes int
	last   []float32
}

func (c *captureTap) Write(samples []float32) {
	c.writes++
	c.last = append([]float32(nil), samples...)
}

func TestSchedule_BackToBack(t *testing.T) {
	p := NewPlayer(10)
	p.Init()

	a, _ := p.Schedule(ones(4, 1))
	b, _ := p.Schedule(ones(3, 2))

	if a.Start != 0 || a.End() != 4 {
		t.Errorf("first segment %+v", a)
	}
	if b.Start != a.End() {
		t.Errorf("second segment should start at %d, got %d", a.End(), b.Start)
	}

	out := make([]float32, 8)
	p.Render(out)
	want := []float32{1, 1, 1, 1, 2, 2, 2, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v (gap or overlap)", out, want)
		}
	}
	if p.Active() != 0 {
		t.Errorf("ended segments should be retired, %d active", p.Active())
	}
}

func TestSchedule_LateSegmentStartsAtClock(t *testing.T) {
	p := NewPlayer(10)
	p.Init()
	p.Schedule(ones(2, 1))

	// Play past the end of the queue.
	p.Render(make([]float32, 5))

	seg, _ := p.Schedule(ones(2, 1))
	if seg.Start != 5 {
		t.Errorf("late segment should start at clock 5, got %d", seg.Start)
	}
	if got := p.Cursor(); got != 700*time.Millisecond {
		t.Errorf("cursor = %v, want 700ms", got)
	}
}

func TestSchedule_SplitAcrossBuffers(t *testing.T) {
	p := NewPlayer(10)
	p.Schedule([]float32{1, 2, 3, 4, 5})

	first := make([]float32, 3)
	second := make([]float32, 3)
	p.Render(first)
	p.Render(second)

	if first[0] != 1 || first[2] != 3 || second[0] != 4 || second[1] != 5 || second[2] != 0 {
		t.Errorf("unexpected render %v %v", first, second)
	}
}

func TestSchedule_Empty(t *testing.T) {
	p := NewPlayer(10)
	if _, ok := p.Schedule(nil); ok {
		t.Error("empty buffer should not be scheduled")
	}
	if p.Cursor() != 0 {
		t.Error("cursor moved for empty buffer")
	}
}

func TestInterrupt(t *testing.T) {
	p := NewPlayer(10)
	p.Init()
	p.Schedule(ones(10, 1))
	p.Schedule(ones(10, 1))

	p.Render(make([]float32, 3))
	if n := p.Interrupt(); n != 2 {
		t.Errorf("Interrupt() = %d, want 2", n)
	}
	if p.Active() != 0 {
		t.Error("active set should be empty after interrupt")
	}
	if p.Cursor() != 0 {
		t.Errorf("cursor should reset to 0, got %v", p.Cursor())
	}

	out := make([]float32, 4)
	p.Render(out)
	for _, s := range out {
		if s != 0 {
			t.Fatalf("interrupted audio still playing: %v", out)
		}
	}

	// The next segment starts at the current clock, not at 0.
	seg, _ := p.Schedule(ones(2, 1))
	if seg.Start != 7 {
		t.Errorf("post-interrupt segment should start at clock 7, got %d", seg.Start)
	}

	if got := p.Stats().Interrupted; got != 2 {
		t.Errorf("Interrupted = %d, want 2", got)
	}
}

func TestInit_AlignsCursorToClock(t *testing.T) {
	p := NewPlayer(10)
	p.Render(make([]float32, 20))
	p.Init()
	if p.Cursor() != 2*time.Second {
		t.Errorf("cursor = %v, want 2s", p.Cursor())
	}
}

func TestGainAndTap(t *testing.T) {
	p := NewPlayer(10)
	tap := &captureTap{}
	p.SetTap(tap)
	p.SetGain(0.5)
	p.Schedule(ones(2, 1))

	out := make([]float32, 2)
	p.Render(out)

	if out[0] != 0.5 {
		t.Errorf("gain not applied: %v", out)
	}
	if tap.writes != 1 || tap.last[1] != 0.5 {
		t.Errorf("tap should see post-gain output, got %+v", tap)
	}
}

func TestOnIdle(t *testing.T) {
	p := NewPlayer(10)
	var idle atomic.Int32
	p.OnIdle(func() { idle.Add(1) })

	p.Schedule(ones(3, 1))
	p.Render(make([]float32, 2))
	if idle.Load() != 0 {
		t.Fatal("idle fired while still playing")
	}
	p.Render(make([]float32, 2))
	if idle.Load() != 1 {
		t.Errorf("idle fired %d times, want 1", idle.Load())
	}

	// Interrupt is not a natural end.
	p.Schedule(ones(3, 1))
	p.Interrupt()
	p.Render(make([]float32, 4))
	if idle.Load() != 1 {
		t.Errorf("idle fired after interrupt")
	}
}

func TestStats(t *testing.T) {
	p := NewPlayer(10)
	p.Schedule(ones(10, 1))
	p.Render(make([]float32, 4))

	s := p.Stats()
	if s.Scheduled != 1 || s.Active != 1 || s.Completed != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.QueuedSeconds != 0.6 {
		t.Errorf("QueuedSeconds = %v, want 0.6", s.QueuedSeconds)
	}
	if s.ClockSeconds != 0.4 {
		t.Errorf("ClockSeconds = %v, want 0.4", s.ClockSeconds)
	}
}
