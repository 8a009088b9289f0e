// Package persona holds the persona settings (system instruction and voice)
// and the settings panel that edits them.
package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-liveaudio/pkg/voices"
)

//go:embed default_instruction.md
var defaultInstruction string

// DefaultInstruction returns the built-in system instruction.
func DefaultInstruction() string {
	return strings.TrimRight(defaultInstruction, "\n")
}

// Sentinel errors.
var (
	ErrUnknownVoice = errors.New("persona: unknown voice")
	ErrPanelClosed  = errors.New("persona: settings panel is closed")
)

// Settings configures the remote model's persona.
type Settings struct {
	SystemInstruction string `json:"systemInstruction"`
	Voice             string `json:"voice"`
}

// DefaultSettings returns the settings a fresh client starts with.
func DefaultSettings() Settings {
	return Settings{
		SystemInstruction: DefaultInstruction(),
		Voice:             voices.DefaultVoice,
	}
}

// SaveEvent carries the values the panel saved. A nil field means the value
// was not supplied and the current one is kept.
type SaveEvent struct {
	SystemInstruction *string `json:"systemInstruction,omitempty"`
	Voice             *string `json:"voice,omitempty"`
}

// Validate rejects voices that are not in the catalog.
func (e SaveEvent) Validate() error {
	if e.Voice != nil && !voices.IsKnown(*e.Voice) {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, *e.Voice)
	}
	return nil
}

// PreviewEvent asks for a sample of a voice.
type PreviewEvent struct {
	Voice string `json:"voice"`
}

// Apply merges a save event into current. The instruction is replaced
// whenever one is supplied; the voice only when supplied and different.
// changed reports whether anything differs from current.
func Apply(current Settings, ev SaveEvent) (next Settings, changed bool) {
	next = current
	if ev.SystemInstruction != nil {
		next.SystemInstruction = *ev.SystemInstruction
	}
	if ev.Voice != nil && *ev.Voice != current.Voice {
		next.Voice = *ev.Voice
	}
	return next, next != current
}
