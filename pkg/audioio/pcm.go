package audioio

import (
	"errors"
	"fmt"
	"math"
)

// ErrOddLength is returned when PCM16 data has a dangling byte.
var ErrOddLength = errors.New("audioio: pcm16 data has odd length")

// PCMChunk is an encoded audio chunk ready to send to the model.
type PCMChunk struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
}

// PCMMIMEType returns the MIME type for 16-bit PCM at rate.
func PCMMIMEType(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

// EncodePCM16 converts float samples to little-endian signed 16-bit PCM.
// Values outside [-1, 1] are clamped.
func EncodePCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := floatToInt16(s)
		data[i*2] = byte(v)
		data[i*2+1] = byte(v >> 8)
	}
	return data
}

// EncodeChunk encodes a captured chunk for the model.
func EncodeChunk(chunk AudioChunk) PCMChunk {
	return PCMChunk{
		Data:     EncodePCM16(chunk.Samples),
		MIMEType: PCMMIMEType(chunk.SampleRate),
	}
}

// DecodePCM16 converts little-endian signed 16-bit PCM to floats by dividing
// by 32768.
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddLength, len(data))
	}
	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
		samples[i] = float32(v) / 32768
	}
	return samples, nil
}

func floatToInt16(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	if s >= 1 {
		return math.MaxInt16
	}
	if s <= -1 {
		return math.MinInt16
	}
	return int16(s * 32768)
}
