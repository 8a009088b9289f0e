// Package audioio provides audio capture and playback devices.
//
// This package supports multiple backends:
//   - PortAudio - microphone and speaker on the local machine
//   - Browser - the dashboard page captures and plays audio over websockets
//   - Mock - CI/Testing without hardware
//
// Capture is push-style (a Source emits chunks). Playback is pull-style: a
// Sink asks a Renderer to fill each output buffer, which is what lets the
// playback scheduler keep a sample-exact output clock.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects PortAudio when cgo is available, mock otherwise.
	BackendAuto Backend = "auto"
	// BackendPortAudio uses PortAudio for cross-platform audio I/O.
	BackendPortAudio Backend = "portaudio"
	// BackendBrowser exchanges audio with the dashboard page.
	BackendBrowser Backend = "browser"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Sample rates the live model expects.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000

	// CaptureFrames is the capture buffer size in frames.
	CaptureFrames = 256
	// PlaybackFrames is the output buffer size in frames (20ms at 24kHz).
	PlaybackFrames = 480
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	Backend Backend `json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels. Only mono is produced.
	Channels int `json:"channels"`

	// FramesPerBuffer is the number of frames per device buffer.
	FramesPerBuffer int `json:"frames_per_buffer"`

	// Device is a backend-specific device name; empty uses the default.
	Device string `json:"device"`
}

// DefaultCaptureConfig returns the microphone configuration: 16kHz mono,
// 256-frame buffers.
func DefaultCaptureConfig() Config {
	return Config{
		Backend:         BackendAuto,
		SampleRate:      InputSampleRate,
		Channels:        1,
		FramesPerBuffer: CaptureFrames,
	}
}

// DefaultPlaybackConfig returns the speaker configuration: 24kHz mono.
func DefaultPlaybackConfig() Config {
	return Config{
		Backend:         BackendAuto,
		SampleRate:      OutputSampleRate,
		Channels:        1,
		FramesPerBuffer: PlaybackFrames,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 1 {
		return fmt.Errorf("channels must be 1, got %d", c.Channels)
	}
	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("frames_per_buffer must be positive, got %d", c.FramesPerBuffer)
	}
	return nil
}

// BufferDuration returns how much audio one buffer holds.
func (c *Config) BufferDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.FramesPerBuffer) * time.Second / time.Duration(c.SampleRate)
}

// BufferSize returns the number of samples per buffer.
func (c *Config) BufferSize() int {
	return c.FramesPerBuffer * c.Channels
}
