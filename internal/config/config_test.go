package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		field   string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true, field: "APIKey"},
		{name: "bad transport", mutate: func(c *Config) { c.Transport = "grpc" }, wantErr: true, field: "Transport"},
		{name: "bad audio", mutate: func(c *Config) { c.Audio = "alsa" }, wantErr: true, field: "Audio"},
		{name: "browser without web", mutate: func(c *Config) { c.Audio = "browser"; c.NoWeb = true }, wantErr: true, field: "Audio"},
		{name: "mock without web", mutate: func(c *Config) { c.Audio = "mock"; c.NoWeb = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIKey = "test-key"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cerr.Field)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("LIVEAUDIO_ADDR", "0.0.0.0:9999")
	t.Setenv("LIVEAUDIO_VOICE", "Puck")

	cfg := Default()
	cfg.LoadEnv()

	if cfg.APIKey != "fallback-key" {
		t.Errorf("expected API_KEY fallback, got %q", cfg.APIKey)
	}
	if cfg.Addr != "0.0.0.0:9999" {
		t.Errorf("expected addr from env, got %q", cfg.Addr)
	}
	if cfg.Voice != "Puck" {
		t.Errorf("expected voice from env, got %q", cfg.Voice)
	}
}

func TestLoadEnvKeepsFlags(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("LIVEAUDIO_ADDR", "0.0.0.0:9999")

	cfg := Default()
	cfg.APIKey = "flag-key"
	cfg.Addr = "127.0.0.1:7000"
	cfg.LoadEnv()

	if cfg.APIKey != "flag-key" {
		t.Errorf("flag API key overwritten: %q", cfg.APIKey)
	}
	if cfg.Addr != "127.0.0.1:7000" {
		t.Errorf("flag addr overwritten: %q", cfg.Addr)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("LIVEAUDIO_TEST_VALUE=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIVEAUDIO_TEST_VALUE", "")
	os.Unsetenv("LIVEAUDIO_TEST_VALUE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("LIVEAUDIO_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("expected from-dotenv, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
