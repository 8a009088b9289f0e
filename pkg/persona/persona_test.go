package persona

import (
	"errors"
	"strings"
	"testing"

	"github.com/teslashibe/go-liveaudio/pkg/voices"
)

func strPtr(s string) *string { return &s }

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.Voice != voices.DefaultVoice {
		t.Errorf("expected default voice %s, got %s", voices.DefaultVoice, s.Voice)
	}
	if !strings.Contains(s.SystemInstruction, "Maximus") {
		t.Error("default instruction not embedded")
	}
	if strings.HasSuffix(s.SystemInstruction, "\n") {
		t.Error("default instruction should not end with a newline")
	}
}

func TestApply(t *testing.T) {
	current := Settings{SystemInstruction: "old", Voice: "Charon"}

	tests := []struct {
		name        string
		ev          SaveEvent
		want        Settings
		wantChanged bool
	}{
		{name: "nothing supplied", ev: SaveEvent{}, want: current},
		{
			name:        "instruction only",
			ev:          SaveEvent{SystemInstruction: strPtr("new")},
			want:        Settings{SystemInstruction: "new", Voice: "Charon"},
			wantChanged: true,
		},
		{
			name: "same voice",
			ev:   SaveEvent{Voice: strPtr("Charon")},
			want: current,
		},
		{
			name:        "new voice",
			ev:          SaveEvent{Voice: strPtr("Puck")},
			want:        Settings{SystemInstruction: "old", Voice: "Puck"},
			wantChanged: true,
		},
		{
			name:        "empty instruction is still applied",
			ev:          SaveEvent{SystemInstruction: strPtr("")},
			want:        Settings{SystemInstruction: "", Voice: "Charon"},
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Apply(current, tt.ev)
			if got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestSaveEventValidate(t *testing.T) {
	if err := (SaveEvent{Voice: strPtr("Kore")}).Validate(); err != nil {
		t.Errorf("known voice rejected: %v", err)
	}
	if err := (SaveEvent{Voice: strPtr("Nobody")}).Validate(); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("expected ErrUnknownVoice, got %v", err)
	}
	if err := (SaveEvent{}).Validate(); err != nil {
		t.Errorf("empty event rejected: %v", err)
	}
}

func TestPanel(t *testing.T) {
	t.Run("closed panel renders nothing", func(t *testing.T) {
		p := NewPanel()
		v := p.View()
		if v.Open || len(v.Voices) != 0 {
			t.Errorf("closed panel should be empty, got %+v", v)
		}
		if _, err := p.Save(); !errors.Is(err, ErrPanelClosed) {
			t.Errorf("expected ErrPanelClosed, got %v", err)
		}
	})

	t.Run("open copies current settings", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{SystemInstruction: "be nice", Voice: "Kore"})

		v := p.View()
		if !v.Open || v.SystemInstruction != "be nice" || v.Voice != "Kore" {
			t.Errorf("unexpected view %+v", v)
		}
	})

	t.Run("empty voice falls back to panel default", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{})
		if got := p.View().Voice; got != voices.PanelDefault {
			t.Errorf("expected %s, got %s", voices.PanelDefault, got)
		}
	})

	t.Run("select voice updates selection and closes dropdown", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{Voice: "Charon"})

		open, err := p.ToggleDropdown()
		if err != nil || !open {
			t.Fatalf("ToggleDropdown() = %v, %v", open, err)
		}
		if err := p.SelectVoice("Leda"); err != nil {
			t.Fatalf("SelectVoice failed: %v", err)
		}

		v := p.View()
		if v.DropdownOpen {
			t.Error("dropdown should close after selecting")
		}
		if v.Voice != "Leda" {
			t.Errorf("expected Leda, got %s", v.Voice)
		}
		selected := 0
		for _, item := range v.Voices {
			if item.Selected {
				selected++
				if item.Name != "Leda" {
					t.Errorf("wrong item selected: %s", item.Name)
				}
			}
		}
		if selected != 1 {
			t.Errorf("expected exactly one selected item, got %d", selected)
		}
	})

	t.Run("unknown voice rejected", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{Voice: "Charon"})
		if err := p.SelectVoice("Nobody"); !errors.Is(err, ErrUnknownVoice) {
			t.Errorf("expected ErrUnknownVoice, got %v", err)
		}
		if p.View().Voice != "Charon" {
			t.Error("selection changed after rejected voice")
		}
	})

	t.Run("preview does not select", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{Voice: "Charon"})
		ev, err := p.Preview("Puck")
		if err != nil {
			t.Fatalf("Preview failed: %v", err)
		}
		if ev.Voice != "Puck" {
			t.Errorf("expected preview of Puck, got %s", ev.Voice)
		}
		if p.View().Voice != "Charon" {
			t.Error("preview must not change selection")
		}
	})

	t.Run("save emits the draft", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{SystemInstruction: "a", Voice: "Charon"})
		_ = p.SetInstruction("b")
		_ = p.SelectVoice("Puck")

		ev, err := p.Save()
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if *ev.SystemInstruction != "b" || *ev.Voice != "Puck" {
			t.Errorf("unexpected save event %q %q", *ev.SystemInstruction, *ev.Voice)
		}
	})

	t.Run("close discards draft", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{SystemInstruction: "a", Voice: "Charon"})
		_ = p.SetInstruction("edited")
		p.Close()
		p.Open(Settings{SystemInstruction: "a", Voice: "Charon"})

		if got := p.View().SystemInstruction; got != "a" {
			t.Errorf("draft should be refreshed on reopen, got %q", got)
		}
	})

	t.Run("reopen while open keeps edits", func(t *testing.T) {
		p := NewPanel()
		p.Open(Settings{SystemInstruction: "a"})
		_ = p.SetInstruction("edited")
		p.Open(Settings{SystemInstruction: "a"})

		if got := p.View().SystemInstruction; got != "edited" {
			t.Errorf("edits lost on redundant open, got %q", got)
		}
	})
}
