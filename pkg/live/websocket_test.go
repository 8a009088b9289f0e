package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeServer is a minimal BidiGenerateContent endpoint.
type fakeServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	key      string
	frames   []map[string]any
	received chan struct{}

	// script is sent after the setup frame is read.
	script [][]byte
	// closeWith, when set, ends the connection with this close frame.
	closeWith []byte
}

func newFakeServer(t *testing.T) *fakeServer {
	return &fakeServer{t: t, received: make(chan struct{}, 16)}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.key = r.URL.Query().Get("key")
	f.mu.Unlock()

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	first := true
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame map[string]any
		_ = json.Unmarshal(data, &frame)
		f.mu.Lock()
		f.frames = append(f.frames, frame)
		f.mu.Unlock()
		f.received <- struct{}{}

		if first {
			first = false
			for _, msg := range f.script {
				_ = conn.WriteMessage(websocket.TextMessage, msg)
			}
			if f.closeWith != nil {
				_ = conn.WriteMessage(websocket.CloseMessage, f.closeWith)
				return
			}
		}
	}
}

func (f *fakeServer) frame(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[i]
}

func (f *fakeServer) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.received:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i+1)
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type recorder struct {
	mu       sync.Mutex
	opened   bool
	messages []Message
	errs     []error
	closes   []CloseEvent
	closed   chan struct{}
	msgCh    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{closed: make(chan struct{}), msgCh: make(chan struct{}, 16)}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnOpen: func() {
			r.mu.Lock()
			r.opened = true
			r.mu.Unlock()
		},
		OnMessage: func(m Message) {
			r.mu.Lock()
			r.messages = append(r.messages, m)
			r.mu.Unlock()
			r.msgCh <- struct{}{}
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnClose: func(ev CloseEvent) {
			r.mu.Lock()
			r.closes = append(r.closes, ev)
			r.mu.Unlock()
			close(r.closed)
		},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.Voice = "Charon"
	cfg.SystemInstruction = "be brief"
	return cfg
}

func TestWSDialer_SetupAndAudio(t *testing.T) {
	fake := newFakeServer(t)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	rec := newRecorder()
	d := NewWSDialer(Options{Endpoint: wsURL(srv)})
	s, err := d.Connect(context.Background(), testConfig(), rec.callbacks())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Close()

	if s.ID() == "" {
		t.Error("session should have an ID")
	}
	if !rec.opened {
		t.Error("OnOpen should fire on connect")
	}

	if err := s.SendAudio(Blob{Data: []byte{1, 2, 3, 4}, MIMEType: "audio/pcm;rate=16000"}); err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}
	fake.wait(t, 2)

	if fake.key != "test-key" {
		t.Errorf("api key not sent, got %q", fake.key)
	}

	setup := fake.frame(0)["setup"].(map[string]any)
	if setup["model"] != "models/gemini-2.5-flash-preview-native-audio-dialog" {
		t.Errorf("unexpected model %v", setup["model"])
	}
	gen := setup["generation_config"].(map[string]any)
	voice := gen["speech_config"].(map[string]any)["voice_config"].(map[string]any)["prebuilt_voice_config"].(map[string]any)["voice_name"]
	if voice != "Charon" {
		t.Errorf("unexpected voice %v", voice)
	}
	if _, ok := setup["input_audio_transcription"]; ok {
		t.Error("transcription should be off by default")
	}

	chunks := fake.frame(1)["realtime_input"].(map[string]any)["media_chunks"].([]any)
	chunk := chunks[0].(map[string]any)
	if chunk["mime_type"] != "audio/pcm;rate=16000" {
		t.Errorf("unexpected mime %v", chunk["mime_type"])
	}
	if chunk["data"] != base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4}) {
		t.Errorf("unexpected data %v", chunk["data"])
	}
}

func TestWSDialer_ServerMessagesAndClose(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString([]byte{0x00, 0x40})
	fake := newFakeServer(t)
	fake.script = [][]byte{
		[]byte(`{"setupComplete":{}}`),
		[]byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + audio + `"}}]}}}`),
		[]byte(`{"serverContent":{"interrupted":true}}`),
		[]byte(`{"usageMetadata":{}}`),
	}
	fake.closeWith = websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "quota exceeded")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	rec := newRecorder()
	d := NewWSDialer(Options{Endpoint: wsURL(srv)})
	s, err := d.Connect(context.Background(), testConfig(), rec.callbacks())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Close()

	select {
	case <-rec.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if len(rec.messages) != 3 {
		t.Fatalf("expected 3 messages (usage metadata dropped), got %d", len(rec.messages))
	}
	if !rec.messages[0].SetupComplete {
		t.Error("first message should be setup complete")
	}
	if m := rec.messages[1]; len(m.Audio) != 2 || m.MIMEType != "audio/pcm;rate=24000" {
		t.Errorf("unexpected audio message %+v", m)
	}
	if !rec.messages[2].Interrupted {
		t.Error("third message should be an interruption")
	}
	if len(rec.closes) != 1 || rec.closes[0].Reason != "quota exceeded" || rec.closes[0].Code != websocket.ClosePolicyViolation {
		t.Errorf("unexpected close events %+v", rec.closes)
	}
	if len(rec.errs) != 0 {
		t.Errorf("a clean close should not report errors: %v", rec.errs)
	}
}

func TestWSDialer_LocalClose(t *testing.T) {
	fake := newFakeServer(t)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	rec := newRecorder()
	d := NewWSDialer(Options{Endpoint: wsURL(srv)})
	s, err := d.Connect(context.Background(), testConfig(), rec.callbacks())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	fake.wait(t, 1)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	select {
	case <-rec.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose never fired")
	}
	if err := s.SendAudio(Blob{}); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestWSDialer_DialError(t *testing.T) {
	d := NewWSDialer(Options{Endpoint: "ws://127.0.0.1:1/nope"})
	_, err := d.Connect(context.Background(), testConfig(), Callbacks{})
	var ce *ConnectionError
	if err == nil || !errors.As(err, &ce) || ce.Reason != "dial" {
		t.Errorf("expected dial ConnectionError, got %v", err)
	}
}

func TestDecodeServerMessage(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		ok      bool
		wantErr bool
		check   func(t *testing.T, m Message)
	}{
		{name: "turn complete", in: `{"serverContent":{"turnComplete":true}}`, ok: true,
			check: func(t *testing.T, m Message) {
				if !m.TurnComplete {
					t.Error("TurnComplete not set")
				}
			}},
		{name: "transcripts", in: `{"serverContent":{"inputTranscription":{"text":"hi"},"outputTranscription":{"text":"hello"}}}`, ok: true,
			check: func(t *testing.T, m Message) {
				if m.InputTranscript != "hi" || m.OutputTranscript != "hello" {
					t.Errorf("unexpected transcripts %+v", m)
				}
			}},
		{name: "multiple parts concatenate", in: `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"AAE="}},{"text":"x"},{"inlineData":{"mimeType":"audio/pcm","data":"AgM="}}]}}}`, ok: true,
			check: func(t *testing.T, m Message) {
				if len(m.Audio) != 4 || m.Audio[3] != 3 {
					t.Errorf("unexpected audio %v", m.Audio)
				}
			}},
		{name: "go away ignored", in: `{"goAway":{"timeLeft":"10s"}}`, ok: false},
		{name: "bad json", in: `{`, wantErr: true},
		{name: "bad base64", in: `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"data":"%%%"}}]}}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok, err := decodeServerMessage([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.ok {
				t.Errorf("ok = %v, want %v", ok, tt.ok)
			}
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}
