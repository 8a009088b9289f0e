package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultEndpoint is the Gemini Live websocket endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// WSDialer speaks the BidiGenerateContent protocol directly over a websocket.
type WSDialer struct {
	opts   Options
	dialer websocket.Dialer
}

// NewWSDialer creates a raw websocket dialer.
func NewWSDialer(opts Options) *WSDialer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	d := &WSDialer{
		opts: opts,
		dialer: websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			Proxy:            http.ProxyFromEnvironment,
		},
	}
	return d
}

// Connect dials the endpoint and sends the setup message.
func (d *WSDialer) Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(d.opts.Endpoint)
	if err != nil {
		return nil, NewConnectionError("parse endpoint", err)
	}
	q := u.Query()
	q.Set("key", cfg.APIKey)
	u.RawQuery = q.Encode()

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	conn, _, err := d.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, NewConnectionError("dial", err)
	}

	s := &wsSession{
		id:     uuid.NewString(),
		conn:   conn,
		cb:     cb,
		logger: d.opts.Logger.With("transport", TransportWebSocket),
	}
	if err := s.writeJSON(setupMessage(cfg)); err != nil {
		conn.Close()
		return nil, NewConnectionError("send setup", err)
	}
	s.logger.Info("live session opened", "session", s.id, "model", cfg.Model, "voice", cfg.Voice)

	cb.emitOpen()
	go s.receiveLoop()
	return s, nil
}

// Wire types for the BidiGenerateContent protocol.

type wsSetup struct {
	Setup wsSetupBody `json:"setup"`
}

type wsSetupBody struct {
	Model                    string             `json:"model"`
	GenerationConfig         wsGenerationConfig `json:"generation_config"`
	SystemInstruction        *wsContent         `json:"system_instruction,omitempty"`
	InputAudioTranscription  *struct{}          `json:"input_audio_transcription,omitempty"`
	OutputAudioTranscription *struct{}          `json:"output_audio_transcription,omitempty"`
}

type wsGenerationConfig struct {
	ResponseModalities []string        `json:"response_modalities"`
	SpeechConfig       *wsSpeechConfig `json:"speech_config,omitempty"`
}

type wsSpeechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voice_name"`
		} `json:"prebuilt_voice_config"`
	} `json:"voice_config"`
}

type wsContent struct {
	Parts []wsPart `json:"parts"`
}

type wsPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *wsInlineData `json:"inlineData,omitempty"`
}

type wsInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type wsRealtimeInput struct {
	RealtimeInput struct {
		MediaChunks []wsMediaChunk `json:"media_chunks"`
	} `json:"realtime_input"`
}

type wsMediaChunk struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type wsServerMessage struct {
	SetupComplete *json.RawMessage `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn           *wsContent       `json:"modelTurn"`
		Interrupted         bool             `json:"interrupted"`
		TurnComplete        bool             `json:"turnComplete"`
		InputTranscription  *wsTranscription `json:"inputTranscription"`
		OutputTranscription *wsTranscription `json:"outputTranscription"`
	} `json:"serverContent"`
	GoAway *json.RawMessage `json:"goAway"`
}

type wsTranscription struct {
	Text string `json:"text"`
}

func setupMessage(cfg Config) wsSetup {
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	body := wsSetupBody{
		Model: model,
		GenerationConfig: wsGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if cfg.Voice != "" {
		sc := &wsSpeechConfig{}
		sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName = cfg.Voice
		body.GenerationConfig.SpeechConfig = sc
	}
	if cfg.SystemInstruction != "" {
		body.SystemInstruction = &wsContent{Parts: []wsPart{{Text: cfg.SystemInstruction}}}
	}
	if cfg.Transcribe {
		body.InputAudioTranscription = &struct{}{}
		body.OutputAudioTranscription = &struct{}{}
	}
	return wsSetup{Setup: body}
}

// decodeServerMessage parses one frame. ok is false for frames the client
// does not act on.
func decodeServerMessage(data []byte) (Message, bool, error) {
	var raw wsServerMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, false, fmt.Errorf("live: decode server message: %w", err)
	}

	var m Message
	m.SetupComplete = raw.SetupComplete != nil
	if sc := raw.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData == nil {
					continue
				}
				audio, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return Message{}, false, fmt.Errorf("live: decode inline audio: %w", err)
				}
				m.Audio = append(m.Audio, audio...)
				if m.MIMEType == "" {
					m.MIMEType = part.InlineData.MIMEType
				}
			}
		}
		m.Interrupted = sc.Interrupted
		m.TurnComplete = sc.TurnComplete
		if sc.InputTranscription != nil {
			m.InputTranscript = sc.InputTranscription.Text
		}
		if sc.OutputTranscription != nil {
			m.OutputTranscript = sc.OutputTranscription.Text
		}
	}
	empty := !m.SetupComplete && !m.HasAudio() && !m.Interrupted && !m.TurnComplete &&
		m.InputTranscript == "" && m.OutputTranscript == ""
	return m, !empty, nil
}

type wsSession struct {
	id     string
	conn   *websocket.Conn
	cb     Callbacks
	logger *slog.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

func (s *wsSession) ID() string { return s.id }

func (s *wsSession) SendAudio(b Blob) error {
	if s.isClosed() {
		return ErrClosed
	}
	var msg wsRealtimeInput
	msg.RealtimeInput.MediaChunks = []wsMediaChunk{{
		MIMEType: b.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(b.Data),
	}}
	return s.writeJSON(msg)
}

func (s *wsSession) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *wsSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return s.conn.Close()
}

func (s *wsSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *wsSession) receiveLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return
		}
		m, ok, err := decodeServerMessage(data)
		if err != nil {
			s.logger.Warn("dropping server message", "session", s.id, "error", err)
			continue
		}
		if ok {
			s.cb.emitMessage(m)
		}
	}
}

func (s *wsSession) finish(err error) {
	var ce *websocket.CloseError
	switch {
	case errors.As(err, &ce):
		s.logger.Info("live session closed", "session", s.id, "code", ce.Code, "reason", ce.Text)
		s.cb.emitClose(CloseEvent{Code: ce.Code, Reason: ce.Text})
	case s.isClosed():
		s.logger.Info("live session closed", "session", s.id)
		s.cb.emitClose(CloseEvent{Code: websocket.CloseNormalClosure})
	default:
		s.logger.Warn("live session failed", "session", s.id, "error", err)
		s.cb.emitError(NewConnectionError("receive", err))
		s.cb.emitClose(CloseEvent{Code: websocket.CloseAbnormalClosure})
	}
}

var _ Dialer = (*WSDialer)(nil)
