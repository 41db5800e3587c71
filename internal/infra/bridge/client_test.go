package bridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"pixienews/internal/usecase/chat"
)

// fakeBridge is a websocket server that scripts events and records
// commands from the client.
type fakeBridge struct {
	mu       sync.Mutex
	received []Envelope
	conns    chan *websocket.Conn
}

func newFakeBridge(t *testing.T) (*fakeBridge, string) {
	t.Helper()
	fb := &fakeBridge{conns: make(chan *websocket.Conn, 4)}
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		fb.conns <- ws
		for {
			var env Envelope
			if err := websocket.JSON.Receive(ws, &env); err != nil {
				return
			}
			fb.mu.Lock()
			fb.received = append(fb.received, env)
			fb.mu.Unlock()
			if env.Type == CommandGetChats {
				out, _ := newEnvelope(EventChats, chatsData{Chats: []ChatInfo{{ID: "1@c.us", Name: "Ada"}}})
				_ = websocket.JSON.Send(ws, out)
			}
		}
	}))
	t.Cleanup(srv.Close)
	return fb, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (fb *fakeBridge) commands() []Envelope {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]Envelope(nil), fb.received...)
}

func emit(t *testing.T, ws *websocket.Conn, kind string, data any) {
	t.Helper()
	env, err := newEnvelope(kind, data)
	require.NoError(t, err)
	require.NoError(t, websocket.JSON.Send(ws, env))
}

type echoResponder struct{}

func (echoResponder) Handle(_ context.Context, msg chat.Message) (chat.Reply, bool) {
	if msg.Content == "buttons" {
		return chat.Reply{Text: "pick", Buttons: []chat.Button{{ID: "country_US", Title: "US"}}}, true
	}
	return chat.Reply{Text: "echo: " + msg.Content}, true
}

func TestClient_LifecycleAndReplies(t *testing.T) {
	fb, url := newFakeBridge(t)
	cfg := DefaultConfig(url)
	cfg.ReconnectDelay = 20 * time.Millisecond
	client := NewClient(cfg, echoResponder{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	var ws *websocket.Conn
	select {
	case ws = <-fb.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not connect")
	}
	require.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateDisconnected, client.State())

	emit(t, ws, EventQR, qrData{QR: "2@abc"})
	require.Eventually(t, func() bool { return client.State() == StateQRPending }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "2@abc", client.LastQR())

	emit(t, ws, EventAuthenticated, struct{}{})
	emit(t, ws, EventReady, struct{}{})
	require.Eventually(t, func() bool { return client.State() == StateReady }, time.Second, 5*time.Millisecond)
	assert.Empty(t, client.LastQR())

	emit(t, ws, EventMessage, IncomingMessage{ChatID: "1@c.us", Sender: "1@c.us", Content: "US", Timestamp: 1700000000})
	emit(t, ws, EventMessage, IncomingMessage{ChatID: "1@c.us", Sender: "1@c.us", Content: "buttons"})

	require.Eventually(t, func() bool { return len(fb.commands()) >= 2 }, time.Second, 5*time.Millisecond)
	byType := map[string]json.RawMessage{}
	for _, env := range fb.commands() {
		byType[env.Type] = env.Data
	}

	var text sendMessageData
	require.NoError(t, json.Unmarshal(byType[CommandSendMessage], &text))
	assert.Equal(t, sendMessageData{ChatID: "1@c.us", Content: "echo: US"}, text)

	var buttons sendButtonsData
	require.NoError(t, json.Unmarshal(byType[CommandSendButtons], &buttons))
	assert.Equal(t, "pick", buttons.Content)
	assert.Equal(t, []buttonOption{{ID: "country_US", Title: "US"}}, buttons.Buttons)

	chats, err := client.GetChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ChatInfo{{ID: "1@c.us", Name: "Ada"}}, chats)

	emit(t, ws, EventDisconnected, reasonData{Reason: "LOGOUT"})
	require.Eventually(t, func() bool { return client.State() == StateDisconnected }, time.Second, 5*time.Millisecond)
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	fb, url := newFakeBridge(t)
	cfg := DefaultConfig(url)
	cfg.ReconnectDelay = 10 * time.Millisecond
	client := NewClient(cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	first := <-fb.conns
	emit(t, first, EventReady, struct{}{})
	require.Eventually(t, func() bool { return client.State() == StateReady }, time.Second, 5*time.Millisecond)

	require.NoError(t, first.Close())

	select {
	case <-fb.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}
	require.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateDisconnected, client.State())
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	client := NewClient(DefaultConfig("ws://127.0.0.1:1"), nil, nil)

	assert.ErrorIs(t, client.SendMessage("1@c.us", "hi"), ErrNotConnected)
	assert.ErrorIs(t, client.SendImage("1@c.us", "https://example.com/a.png", ""), ErrNotConnected)
	assert.ErrorIs(t, client.Send(context.Background(), "1@c.us", chat.Reply{Text: "x"}), ErrNotConnected)

	_, err := client.GetChats(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}
