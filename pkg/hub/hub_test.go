package hub

import (
	"context"
	"testing"
	"time"

	"github.com/teslashibe/go-liveaudio/internal/log"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case m, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	waitFor(t, "hub to run", h.IsRunning)
	t.Cleanup(cancel)
	return h, cancel
}

func TestHub_Broadcast(t *testing.T) {
	h, _ := startHub(t)

	a := NewClient(h, nil)
	b := NewClient(h, nil)
	waitFor(t, "two clients", func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastJSON(map[string]string{"status": "Opened"}); err != nil {
		t.Fatal(err)
	}
	h.BroadcastBinary([]byte{1, 2})

	for _, c := range []*Client{a, b} {
		m := recv(t, c)
		if m.Type != JSONMessage || string(m.Data) != `{"status":"Opened"}` {
			t.Errorf("unexpected json message %+v", m)
		}
		m = recv(t, c)
		if m.Type != BinaryMessage || len(m.Data) != 2 {
			t.Errorf("unexpected binary message %+v", m)
		}
	}
}

func TestHub_Unregister(t *testing.T) {
	h, _ := startHub(t)
	c := NewClient(h, nil)

	h.unregister <- c
	waitFor(t, "client removal", func() bool { return h.ClientCount() == 0 })
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h, _ := startHub(t)

	slow := &Client{hub: h, send: make(chan Message, 1)}
	h.register <- slow

	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})
	waitFor(t, "slow client drop", func() bool { return h.ClientCount() == 0 })

	if m := <-slow.send; m.Data[0] != 1 {
		t.Errorf("first message should still be delivered, got %v", m.Data)
	}
	if _, ok := <-slow.send; ok {
		t.Error("slow client channel should be closed")
	}
}

func TestHub_OnConnect(t *testing.T) {
	h := New("primed", log.Discard())
	h.OnConnect(func(c *Client) {
		c.Send(NewJSONMessage([]byte(`"hello"`)))
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := NewClient(h, nil)
	if m := recv(t, c); string(m.Data) != `"hello"` {
		t.Errorf("expected priming message, got %q", m.Data)
	}
}

func TestHub_Stop(t *testing.T) {
	h, cancel := startHub(t)
	c := NewClient(h, nil)

	cancel()
	waitFor(t, "hub to stop", func() bool { return !h.IsRunning() })

	if _, ok := <-c.send; ok {
		t.Error("clients should be closed on stop")
	}

	late := NewClient(h, nil)
	if _, ok := <-late.send; ok {
		t.Error("a client registered after stop should be closed")
	}
	if h.Name() != "test" {
		t.Errorf("Name() = %q", h.Name())
	}
}
