// Package live connects to a hosted conversational-audio model.
//
// A Dialer opens a Session that accepts small PCM16 chunks and reports what
// the model sends back through Callbacks: synthesized audio, interruption
// and turn markers, and transcripts. Two transports are provided, the
// google.golang.org/genai Live client and a raw websocket client for the
// same BidiGenerateContent endpoint.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// DefaultModel is the native-audio dialog model.
const DefaultModel = "gemini-2.5-flash-preview-native-audio-dialog"

// Transport names.
const (
	TransportGenAI     = "genai"
	TransportWebSocket = "ws"
)

// Config configures a session.
type Config struct {
	APIKey            string `json:"-"`
	Model             string `json:"model"`
	SystemInstruction string `json:"system_instruction"`
	Voice             string `json:"voice"`
	InputSampleRate   int    `json:"input_sample_rate"`
	OutputSampleRate  int    `json:"output_sample_rate"`

	// Transcribe asks the service for input and output transcripts.
	Transcribe bool `json:"transcribe"`
}

// DefaultConfig returns a config for the default model at 16kHz in and
// 24kHz out.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		InputSampleRate:  16000,
		OutputSampleRate: 24000,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	return nil
}

// Blob is an encoded audio chunk.
type Blob struct {
	Data     []byte
	MIMEType string
}

// Message is one server message, flattened.
type Message struct {
	// Audio is the concatenated inline PCM16LE audio of the model turn.
	Audio    []byte
	MIMEType string

	SetupComplete bool
	Interrupted   bool
	TurnComplete  bool

	InputTranscript  string
	OutputTranscript string
}

// HasAudio reports whether the message carries audio.
func (m Message) HasAudio() bool { return len(m.Audio) > 0 }

// CloseEvent describes how a session ended.
type CloseEvent struct {
	Code   int
	Reason string
}

// Callbacks receive session events. Any may be nil. They are invoked from
// the session's receive goroutine, one at a time.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(Message)
	OnError   func(error)
	OnClose   func(CloseEvent)
}

func (cb Callbacks) emitOpen() {
	if cb.OnOpen != nil {
		cb.OnOpen()
	}
}

func (cb Callbacks) emitMessage(m Message) {
	if cb.OnMessage != nil {
		cb.OnMessage(m)
	}
}

func (cb Callbacks) emitError(err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

func (cb Callbacks) emitClose(ev CloseEvent) {
	if cb.OnClose != nil {
		cb.OnClose(ev)
	}
}

// Session is an open streaming session.
type Session interface {
	// ID is a unique identifier assigned when the session was opened.
	ID() string

	// SendAudio sends one chunk of realtime input.
	SendAudio(b Blob) error

	// Close ends the session. OnClose fires once the receive loop exits.
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error)
}

// Options are shared by the built-in dialers.
type Options struct {
	HTTPClient *http.Client
	Logger     *slog.Logger

	// Endpoint overrides the websocket URL (ws transport only).
	Endpoint string
}

// Factory creates a Dialer.
type Factory func(opts Options) Dialer

var factories = map[string]Factory{
	TransportGenAI:     func(opts Options) Dialer { return NewGenAIDialer(opts) },
	TransportWebSocket: func(opts Options) Dialer { return NewWSDialer(opts) },
}

// NewDialer returns the dialer registered under transport.
func NewDialer(transport string, opts Options) (Dialer, error) {
	f, ok := factories[transport]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTransport, transport, strings.Join(Transports(), ", "))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return f(opts), nil
}

// Transports returns the registered transport names.
func Transports() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
