// Package voices is the catalog of prebuilt persona voices offered by the
// live model. The voice name is what gets sent in the session's speech
// config; descriptions are for the settings panel.
package voices

import (
	"errors"
	"fmt"
)

// Voice describes one prebuilt voice.
type Voice struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultVoice is the voice a fresh client session uses.
const DefaultVoice = "Charon"

// PanelDefault is the settings panel's own fallback when it is opened
// without a current voice.
const PanelDefault = "Orus"

// catalog keeps the vendor's ordering; the panel lists voices in this order.
var catalog = []Voice{
	{Name: "Zephyr", Description: "Bright, Higher pitch"},
	{Name: "Puck", Description: "Upbeat, Middle pitch"},
	{Name: "Charon", Description: "Informative, Lower middle pitch"},
	{Name: "Kore", Description: "Firm, Middle pitch"},
	{Name: "Fenrir", Description: "Excitable, Lower middle pitch"},
	{Name: "Leda", Description: "Clear, Higher pitch"},
	{Name: "Orus", Description: "Firm, Lower middle pitch"},
	{Name: "Aoede", Description: "Breezy, Middle pitch"},
	{Name: "Callirrhoe", Description: "Easy-going, Middle pitch"},
	{Name: "Autonoe", Description: "Bright, Middle pitch"},
	{Name: "Enceladus", Description: "Breathy, Lower pitch"},
	{Name: "Iapetus", Description: "Gravelly, Lower pitch"},
	{Name: "Umbriel", Description: "Easy-going, Lower middle pitch"},
	{Name: "Algieba", Description: "Smooth, Lower pitch"},
	{Name: "Despina", Description: "Smooth, Middle pitch"},
	{Name: "Erinome", Description: "Clear, Middle pitch"},
	{Name: "Algenib", Description: "Gravelly, Lower pitch"},
	{Name: "Rasalgethi", Description: "Informative, Middle pitch"},
	{Name: "Laomedeia", Description: "Upbeat, Higher pitch"},
	{Name: "Achernar", Description: "Soft, Higher pitch"},
	{Name: "Alnilam", Description: "Firm, Lower middle pitch"},
	{Name: "Schedar", Description: "Even, Lower middle pitch"},
	{Name: "Gacrux", Description: "Mature, Middle pitch"},
	{Name: "Pulcherrima", Description: "Forward, Middle pitch"},
	{Name: "Achird", Description: "Friendly, Lower middle pitch"},
	{Name: "Zubenelgenubi", Description: "Casual, Lower middle pitch"},
	{Name: "Vindemiatrix", Description: "Gentle, Middle pitch"},
	{Name: "Sadachbia", Description: "Lively, Lower pitch"},
	{Name: "Sadaltager", Description: "Knowledgeable, Middle pitch"},
	{Name: "Sulafat", Description: "Warm, Middle pitch"},
}

var byName = func() map[string]Voice {
	m := make(map[string]Voice, len(catalog))
	for _, v := range catalog {
		m[v.Name] = v
	}
	return m
}()

// All returns a copy of the catalog in display order.
func All() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns the voice names in display order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, v := range catalog {
		names[i] = v.Name
	}
	return names
}

// Lookup returns the voice with the given name.
func Lookup(name string) (Voice, bool) {
	v, ok := byName[name]
	return v, ok
}

// IsKnown returns true if name is in the catalog.
func IsKnown(name string) bool {
	_, ok := byName[name]
	return ok
}

// ErrEmptyName is returned by Validate for a voice without a name.
var ErrEmptyName = errors.New("voices: empty voice name")

// Validate checks that every name is non-empty and unique.
func Validate(list []Voice) error {
	seen := make(map[string]struct{}, len(list))
	for i, v := range list {
		if v.Name == "" {
			return fmt.Errorf("%w at index %d", ErrEmptyName, i)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("voices: duplicate voice name %q", v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}
