//go:build !cgo

package audioio

import (
	"errors"
	"log/slog"
)

// ErrPortAudioUnavailable is returned when the binary was built without cgo.
var ErrPortAudioUnavailable = errors.New("audioio: portaudio backend requires cgo")

// PortAudioAvailable reports whether this build has the PortAudio backend.
func PortAudioAvailable() bool { return false }

func newPortAudioSource(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, ErrPortAudioUnavailable
}

func newPortAudioSink(cfg Config, logger *slog.Logger) (Sink, error) {
	return nil, ErrPortAudioUnavailable
}
