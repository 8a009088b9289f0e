package persona

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-liveaudio/pkg/voices"
)

// Panel is the settings panel. Opening it copies the current settings into a
// draft; edits touch only the draft until Save.
type Panel struct {
	mu           sync.Mutex
	open         bool
	dropdownOpen bool
	draft        Settings
}

// NewPanel returns a closed panel.
func NewPanel() *Panel {
	return &Panel{}
}

// Open shows the panel. The draft is refreshed from current only on the
// closed->open transition, so reopening an open panel keeps edits.
func (p *Panel) Open(current Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return
	}
	p.open = true
	p.dropdownOpen = false
	p.draft = current
	if p.draft.Voice == "" {
		p.draft.Voice = voices.PanelDefault
	}
}

// Close hides the panel and discards the draft.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.dropdownOpen = false
}

// IsOpen reports whether the panel is showing.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// SetInstruction edits the draft system instruction.
func (p *Panel) SetInstruction(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrPanelClosed
	}
	p.draft.SystemInstruction = text
	return nil
}

// ToggleDropdown opens or closes the voice list and returns the new state.
func (p *Panel) ToggleDropdown() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return false, ErrPanelClosed
	}
	p.dropdownOpen = !p.dropdownOpen
	return p.dropdownOpen, nil
}

// SelectVoice picks a voice for the draft and closes the dropdown.
func (p *Panel) SelectVoice(name string) error {
	if !voices.IsKnown(name) {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrPanelClosed
	}
	p.dropdownOpen = false
	p.draft.Voice = name
	return nil
}

// Preview returns a preview request for a voice. It does not change the
// selection.
func (p *Panel) Preview(name string) (PreviewEvent, error) {
	if !voices.IsKnown(name) {
		return PreviewEvent{}, fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	return PreviewEvent{Voice: name}, nil
}

// Save returns the draft as a save event. The panel stays open; the owner
// closes it after applying.
func (p *Panel) Save() (SaveEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return SaveEvent{}, ErrPanelClosed
	}
	instruction := p.draft.SystemInstruction
	voice := p.draft.Voice
	return SaveEvent{SystemInstruction: &instruction, Voice: &voice}, nil
}

// VoiceItem is one row of the voice dropdown.
type VoiceItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Selected    bool   `json:"selected"`
}

// View is a snapshot of what the panel shows.
type View struct {
	Open              bool        `json:"open"`
	DropdownOpen      bool        `json:"dropdownOpen"`
	SystemInstruction string      `json:"systemInstruction"`
	Voice             string      `json:"voice"`
	Voices            []VoiceItem `json:"voices,omitempty"`
}

// View renders the panel state. A closed panel renders nothing but Open=false.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return View{}
	}
	v := View{
		Open:              true,
		DropdownOpen:      p.dropdownOpen,
		SystemInstruction: p.draft.SystemInstruction,
		Voice:             p.draft.Voice,
	}
	all := voices.All()
	v.Voices = make([]VoiceItem, len(all))
	for i, voice := range all {
		v.Voices[i] = VoiceItem{
			Name:        voice.Name,
			Description: voice.Description,
			Selected:    voice.Name == p.draft.Voice,
		}
	}
	return v
}
