// Package config provides configuration helpers for go-liveaudio commands.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for the liveaudio command.
const (
	DefaultAddr      = "127.0.0.1:8090"
	DefaultTransport = "genai"
	DefaultAudio     = "portaudio"
	DefaultLogLevel  = "info"
)

// Transports and audio backends accepted on the command line.
var (
	Transports    = []string{"genai", "ws"}
	AudioBackends = []string{"portaudio", "browser", "mock"}
)

// Config holds everything the run command needs.
// Flag parsing is done in cmd/liveaudio; this struct is data only.
type Config struct {
	APIKey    string
	Model     string
	Transport string
	Audio     string
	Addr      string
	NoWeb     bool
	LogLevel  string

	// Persona overrides. Empty means the built-in defaults.
	Voice           string
	InstructionFile string
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Transport: DefaultTransport,
		Audio:     DefaultAudio,
		Addr:      DefaultAddr,
		LogLevel:  DefaultLogLevel,
	}
}

// LoadDotEnv loads variables from the given .env files (or ./.env when none
// are given). A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// LoadEnv applies environment variables on top of c. Values already set
// (e.g. by flags) are kept.
func (c *Config) LoadEnv() {
	if c.APIKey == "" {
		c.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY")
	}
	if c.Model == "" {
		c.Model = os.Getenv("LIVEAUDIO_MODEL")
	}
	if addr := os.Getenv("LIVEAUDIO_ADDR"); addr != "" && c.Addr == DefaultAddr {
		c.Addr = addr
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" && c.LogLevel == DefaultLogLevel {
		c.LogLevel = lvl
	}
	if c.Voice == "" {
		c.Voice = os.Getenv("LIVEAUDIO_VOICE")
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &ConfigError{Field: "APIKey", Message: "GEMINI_API_KEY (or API_KEY) environment variable is required"}
	}
	if !oneOf(c.Transport, Transports) {
		return &ConfigError{Field: "Transport", Message: "transport must be one of " + strings.Join(Transports, ", ")}
	}
	if !oneOf(c.Audio, AudioBackends) {
		return &ConfigError{Field: "Audio", Message: "audio must be one of " + strings.Join(AudioBackends, ", ")}
	}
	if c.Audio == "browser" && c.NoWeb {
		return &ConfigError{Field: "Audio", Message: "browser audio needs the web dashboard (drop --no-web)"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
