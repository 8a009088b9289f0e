package voices

import (
	"errors"
	"testing"
)

func TestCatalogIsValid(t *testing.T) {
	if err := Validate(All()); err != nil {
		t.Fatalf("catalog invalid: %v", err)
	}
	if got := len(All()); got != 30 {
		t.Errorf("expected 30 voices, got %d", got)
	}
}

func TestDefaultsAreKnown(t *testing.T) {
	for _, name := range []string{DefaultVoice, PanelDefault} {
		if !IsKnown(name) {
			t.Errorf("default voice %s not in catalog", name)
		}
	}
}

func TestLookup(t *testing.T) {
	v, ok := Lookup("Charon")
	if !ok {
		t.Fatal("Charon not found")
	}
	if v.Description != "Informative, Lower middle pitch" {
		t.Errorf("unexpected description %q", v.Description)
	}

	if _, ok := Lookup("charon"); ok {
		t.Error("lookup should be case-sensitive")
	}
}

func TestOrder(t *testing.T) {
	names := Names()
	if names[0] != "Zephyr" || names[len(names)-1] != "Sulafat" {
		t.Errorf("unexpected order: first=%s last=%s", names[0], names[len(names)-1])
	}
}

func TestAllReturnsCopy(t *testing.T) {
	list := All()
	list[0].Name = "Changed"
	if All()[0].Name != "Zephyr" {
		t.Error("All must not expose the backing catalog")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		list    []Voice
		wantErr bool
	}{
		{name: "empty list", list: nil},
		{name: "ok", list: []Voice{{Name: "A"}, {Name: "B"}}},
		{name: "empty name", list: []Voice{{Name: "A"}, {Name: ""}}, wantErr: true},
		{name: "duplicate", list: []Voice{{Name: "A"}, {Name: "A"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.list)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := Validate([]Voice{{Name: ""}}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}
