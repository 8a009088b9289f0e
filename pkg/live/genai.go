package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"google.golang.org/genai"
)

// GenAIDialer opens sessions through the google.golang.org/genai Live client.
type GenAIDialer struct {
	opts Options
}

// NewGenAIDialer creates a dialer backed by the genai SDK.
func NewGenAIDialer(opts Options) *GenAIDialer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &GenAIDialer{opts: opts}
}

// Connect opens a live session with audio responses.
func (d *GenAIDialer) Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: d.opts.HTTPClient,
	})
	if err != nil {
		return nil, NewConnectionError("create client", err)
	}

	conn, err := client.Live.Connect(ctx, cfg.Model, liveConnectConfig(cfg))
	if err != nil {
		return nil, NewConnectionError("connect", err)
	}

	s := &genaiSession{
		id:     uuid.NewString(),
		conn:   conn,
		cb:     cb,
		logger: d.opts.Logger.With("transport", TransportGenAI),
	}
	s.logger.Info("live session opened", "session", s.id, "model", cfg.Model, "voice", cfg.Voice)

	cb.emitOpen()
	go s.receiveLoop()
	return s, nil
}

func liveConnectConfig(cfg Config) *genai.LiveConnectConfig {
	lc := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	}
	if cfg.SystemInstruction != "" {
		lc.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: cfg.SystemInstruction}},
		}
	}
	if cfg.Voice != "" {
		lc.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.Transcribe {
		lc.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
		lc.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	return lc
}

type genaiSession struct {
	id     string
	conn   *genai.Session
	cb     Callbacks
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func (s *genaiSession) ID() string { return s.id }

func (s *genaiSession) SendAudio(b Blob) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return s.conn.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: b.Data, MIMEType: b.MIMEType},
	})
}

func (s *genaiSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *genaiSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *genaiSession) receiveLoop() {
	for {
		msg, err := s.conn.Receive()
		if err != nil {
			s.finish(err)
			return
		}
		if m, ok := fromGenAI(msg); ok {
			s.cb.emitMessage(m)
		}
	}
}

// finish reports how the receive loop ended.
func (s *genaiSession) finish(err error) {
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

// fromGenAI flattens a server message. Messages with nothing the client
// acts on are dropped.
func fromGenAI(msg *genai.LiveServerMessage) (Message, bool) {
	if msg == nil {
		return Message{}, false
	}
	var m Message
	if msg.SetupComplete != nil {
		m.SetupComplete = true
	}
	sc := msg.ServerContent
	if sc != nil {
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part == nil || part.InlineData == nil {
					continue
				}
				m.Audio = append(m.Audio, part.InlineData.Data...)
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
	return m, !empty
}

var _ Dialer = (*GenAIDialer)(nil)
