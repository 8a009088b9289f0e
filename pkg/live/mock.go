package live

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockDialer is a Dialer for tests. Sessions it opens are driven by the
// test through MockSession.
type MockDialer struct {
	mu sync.Mutex

	// ConnectFunc, when set, replaces the default behaviour.
	ConnectFunc func(ctx context.Context, cfg Config, cb Callbacks) (Session, error)

	// Err, when set, makes Connect fail.
	Err error

	// Captured calls for assertions
	Configs  []Config
	Sessions []*MockSession
}

// NewMockDialer creates a new mock dialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{}
}

// Connect implements Dialer. The default opens a MockSession and fires
// OnOpen synchronously.
func (d *MockDialer) Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error) {
	d.mu.Lock()
	d.Configs = append(d.Configs, cfg)
	fn := d.ConnectFunc
	err := d.Err
	d.mu.Unlock()

	if fn != nil {
		return fn(ctx, cfg, cb)
	}
	if err != nil {
		return nil, err
	}

	s := &MockSession{id: uuid.NewString(), cfg: cfg, cb: cb}
	d.mu.Lock()
	d.Sessions = append(d.Sessions, s)
	d.mu.Unlock()

	cb.emitOpen()
	return s, nil
}

// Last returns the most recently opened session, or nil.
func (d *MockDialer) Last() *MockSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Sessions) == 0 {
		return nil
	}
	return d.Sessions[len(d.Sessions)-1]
}

// ConnectCount returns how many times Connect was called.
func (d *MockDialer) ConnectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Configs)
}

// MockSession is a scripted Session.
type MockSession struct {
	id  string
	cfg Config
	cb  Callbacks

	mu     sync.Mutex
	closed bool

	// SendErr, when set, makes SendAudio fail.
	SendErr error

	// Captured calls
	Sent []Blob
}

// ID implements Session.
func (s *MockSession) ID() string { return s.id }

// Config returns the config the session was opened with.
func (s *MockSession) Config() Config { return s.cfg }

// SendAudio implements Session.
func (s *MockSession) SendAudio(b Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.SendErr != nil {
		return s.SendErr
	}
	s.Sent = append(s.Sent, b)
	return nil
}

// SentCount returns the number of chunks received.
func (s *MockSession) SentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sent)
}

// Close implements Session. OnClose fires with an empty reason.
func (s *MockSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cb.emitClose(CloseEvent{Code: 1000})
	return nil
}

// Closed reports whether Close was called or the remote closed.
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Deliver simulates a server message.
func (s *MockSession) Deliver(m Message) {
	s.cb.emitMessage(m)
}

// Fail simulates a transport error.
func (s *MockSession) Fail(err error) {
	s.cb.emitError(err)
}

// RemoteClose simulates the server ending the session.
func (s *MockSession) RemoteClose(code int, reason string) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cb.emitClose(CloseEvent{Code: code, Reason: reason})
}

var (
	_ Dialer  = (*MockDialer)(nil)
	_ Session = (*MockSession)(nil)
)
