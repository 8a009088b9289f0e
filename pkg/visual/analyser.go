// Package visual turns audio levels into the orb the dashboard draws.
package visual

import (
	"math"
	"sync"
)

// Analyser defaults.
const (
	FFTSize         = 32
	SmoothingTime   = 0.8
	MinDecibels     = -100.0
	MaxDecibels     = -30.0
	FrequencyBinCnt = FFTSize / 2
)

// Analyser keeps the most recent FFTSize samples written to it and turns
// them into byte frequency data: Blackman window, DFT magnitude, temporal
// smoothing, then a linear map from [MinDecibels, MaxDecibels] to [0, 255].
type Analyser struct {
	mu       sync.Mutex
	ring     [FFTSize]float32
	pos      int
	smoothed [FrequencyBinCnt]float64
	data     [FrequencyBinCnt]byte
}

// NewAnalyser creates an analyser with silent history.
func NewAnalyser() *Analyser {
	return &Analyser{}
}

// Write appends samples to the history. Safe to call from the audio thread.
func (a *Analyser) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(samples) >= FFTSize {
		copy(a.ring[:], samples[len(samples)-FFTSize:])
		a.pos = 0
		return
	}
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % FFTSize
	}
}

// Update recomputes the frequency data from the current history.
func (a *Analyser) Update() {
	a.mu.Lock()
	defer a.mu.Unlock()

	var frame [FFTSize]float64
	for i := range frame {
		frame[i] = float64(a.ring[(a.pos+i)%FFTSize]) * blackman[i]
	}

	const scale = 255 / (MaxDecibels - MinDecibels)
	for k := 0; k < FrequencyBinCnt; k++ {
		var re, im float64
		for n, x := range frame {
			phi := 2 * math.Pi * float64(k*n) / FFTSize
			re += x * math.Cos(phi)
			im -= x * math.Sin(phi)
		}
		mag := math.Hypot(re, im) / FFTSize
		a.smoothed[k] = SmoothingTime*a.smoothed[k] + (1-SmoothingTime)*mag

		db := 20 * math.Log10(a.smoothed[k])
		v := math.Floor(scale * (db - MinDecibels))
		switch {
		case math.IsNaN(v) || v < 0:
			a.data[k] = 0
		case v > 255:
			a.data[k] = 255
		default:
			a.data[k] = byte(v)
		}
	}
}

// Data returns the last computed frequency data.
func (a *Analyser) Data() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]byte, FrequencyBinCnt)
	copy(out, a.data[:])
	return out
}

// Reset clears history and smoothing.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	*a = Analyser{}
}

var blackman = func() [FFTSize]float64 {
	const a0, a1, a2 = 0.42, 0.5, 0.08
	var w [FFTSize]float64
	for n := range w {
		x := 2 * math.Pi * float64(n) / FFTSize
		w[n] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}()

// Average is the RMS of data scaled to [0, 1].
func Average(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum/float64(len(data))) / 255
}
