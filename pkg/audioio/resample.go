package audioio

import "math"

// Resample converts audio from one sample rate to another using linear
// interpolation. Good enough for speech.
func Resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return samples
	}
	if len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLen := int(float64(len(samples)) / ratio)
	if newLen == 0 {
		return []float32{}
	}

	result := make([]float32, newLen)
	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		if srcIdx >= len(samples)-1 {
			result[i] = samples[len(samples)-1]
		} else {
			s1 := samples[srcIdx]
			s2 := samples[srcIdx+1]
			result[i] = s1 + frac*(s2-s1)
		}
	}
	return result
}

// Rechunker regroups a stream of samples into fixed-size chunks.
type Rechunker struct {
	size    int
	pending []float32
}

// NewRechunker returns a rechunker that emits chunks of size samples.
func NewRechunker(size int) *Rechunker {
	return &Rechunker{size: size, pending: make([]float32, 0, size*2)}
}

// Push appends samples and returns every complete chunk.
func (r *Rechunker) Push(samples []float32) [][]float32 {
	r.pending = append(r.pending, samples...)
	var out [][]float32
	for len(r.pending) >= r.size {
		chunk := make([]float32, r.size)
		copy(chunk, r.pending[:r.size])
		out = append(out, chunk)
		r.pending = r.pending[r.size:]
	}
	// Compact so the backing array doesn't grow forever.
	if cap(r.pending) > r.size*8 {
		r.pending = append(make([]float32, 0, r.size*2), r.pending...)
	}
	return out
}

// Reset drops buffered samples.
func (r *Rechunker) Reset() {
	r.pending = r.pending[:0]
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
