package audioio

import (
	"math"
	"testing"
)

func TestResample_SameRate(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	result := Resample(samples, 16000, 16000)
	if len(result) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(result))
	}
	for i, s := range samples {
		if result[i] != s {
			t.Errorf("Sample %d: expected %v, got %v", i, s, result[i])
		}
	}
}

func TestResample_Lengths(t *testing.T) {
	tests := []struct {
		name     string
		in       int
		from, to int
		want     int
	}{
		{"48k to 16k", 960, 48000, 16000, 320},
		{"16k to 24k", 320, 16000, 24000, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(make([]float32, tt.in), tt.from, tt.to)
			if len(got) != tt.want {
				t.Errorf("Expected %d samples, got %d", tt.want, len(got))
			}
		})
	}
}

func TestResample_Interpolates(t *testing.T) {
	// 1 -> 2x upsample of a ramp lands between neighbours.
	got := Resample([]float32{0, 1, 2, 3}, 8000, 16000)
	if len(got) != 8 {
		t.Fatalf("Expected 8 samples, got %d", len(got))
	}
	if math.Abs(float64(got[1]-0.5)) > 1e-6 {
		t.Errorf("Expected 0.5, got %v", got[1])
	}
}

func TestResample_Empty(t *testing.T) {
	if len(Resample(nil, 48000, 16000)) != 0 {
		t.Error("Expected empty result for nil input")
	}
}

func TestRechunker(t *testing.T) {
	r := NewRechunker(4)

	if out := r.Push([]float32{1, 2, 3}); len(out) != 0 {
		t.Fatalf("Expected no chunks yet, got %d", len(out))
	}
	out := r.Push([]float32{4, 5, 6, 7, 8, 9})
	if len(out) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(out))
	}
	if out[0][0] != 1 || out[0][3] != 4 || out[1][0] != 5 || out[1][3] != 8 {
		t.Errorf("Unexpected chunks %v", out)
	}

	r.Reset()
	if out := r.Push([]float32{1, 2, 3}); len(out) != 0 {
		t.Error("Reset should drop the pending sample")
	}
}

func TestRMS(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("RMS of nothing should be 0")
	}
	got := RMS([]float32{0.5, -0.5, 0.5, -0.5})
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected 0.5, got %v", got)
	}
}
