package audioio

import (
	"errors"
	"testing"
)

func TestEncodePCM16(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16384},
		{"negative half", -0.5, -16384},
		{"full scale clamps", 1, 32767},
		{"over range clamps", 1.5, 32767},
		{"negative full scale", -1, -32768},
		{"under range clamps", -2, -32768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodePCM16([]float32{tt.in})
			if len(data) != 2 {
				t.Fatalf("Expected 2 bytes, got %d", len(data))
			}
			got := int16(uint16(data[0]) | uint16(data[1])<<8)
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestEncodeChunk(t *testing.T) {
	chunk := AudioChunk{Samples: make([]float32, CaptureFrames), SampleRate: InputSampleRate}
	enc := EncodeChunk(chunk)

	if enc.MIMEType != "audio/pcm;rate=16000" {
		t.Errorf("Unexpected MIME type %q", enc.MIMEType)
	}
	if len(enc.Data) != CaptureFrames*2 {
		t.Errorf("Expected %d bytes, got %d", CaptureFrames*2, len(enc.Data))
	}
}

func TestDecodePCM16(t *testing.T) {
	// 0x4000 = 16384, 0x8000 = -32768
	samples, err := DecodePCM16([]byte{0x00, 0x40, 0x00, 0x80})
	if err != nil {
		t.Fatalf("DecodePCM16 failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0] != 0.5 {
		t.Errorf("Sample 0: expected 0.5, got %v", samples[0])
	}
	if samples[1] != -1 {
		t.Errorf("Sample 1: expected -1, got %v", samples[1])
	}

	empty, err := DecodePCM16(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected empty decode, got %v, %v", empty, err)
	}
}

func TestDecodePCM16_OddLength(t *testing.T) {
	if _, err := DecodePCM16([]byte{1, 2, 3}); !errors.Is(err, ErrOddLength) {
		t.Errorf("Expected ErrOddLength, got %v", err)
	}
}

func TestDuration(t *testing.T) {
	chunk := AudioChunk{Samples: make([]float32, 24000), SampleRate: 24000}
	if chunk.Duration().Seconds() != 1 {
		t.Errorf("Expected 1s, got %v", chunk.Duration())
	}
}
