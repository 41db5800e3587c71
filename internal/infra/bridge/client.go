// Package bridge connects to the WhatsApp Web automation bridge over a
// websocket, tracks its session lifecycle and routes inbound messages to
// the chat handler.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/usecase/chat"
)

// ErrNotConnected is returned by sends while the socket is closed.
var ErrNotConnected = errors.New("bridge: not connected")

// Responder answers one chat message. *chat.Handler implements it.
type Responder interface {
	Handle(ctx context.Context, msg chat.Message) (chat.Reply, bool)
}

// Config configures the bridge client.
type Config struct {
	URL            string
	Origin         string
	ReconnectDelay time.Duration
	HandleTimeout  time.Duration
	// Parallelism bounds concurrently handled inbound messages.
	Parallelism int
	// IgnoreGroups drops messages from group chats.
	IgnoreGroups bool
}

// DefaultConfig returns the bridge defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		Origin:         "http://localhost/",
		ReconnectDelay: 5 * time.Second,
		HandleTimeout:  30 * time.Second,
		Parallelism:    4,
	}
}

// Client keeps a persistent socket to the bridge and reconnects on loss.
type Client struct {
	cfg       Config
	responder Responder
	logger    *slog.Logger

	state atomic.Int32

	mu     sync.Mutex // guards conn and lastQR; serializes writes
	conn   *websocket.Conn
	lastQR string

	waitMu  sync.Mutex
	waiters []chan []ChatInfo
}

// NewClient creates a bridge client. responder may be nil for send-only use.
func NewClient(cfg Config, responder Responder, logger *slog.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.Origin == "" {
		cfg.Origin = "http://localhost/"
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{cfg: cfg, responder: responder, logger: logger.With(slog.String("component", "bridge"))}
	c.setState(StateDisconnected)
	return c
}

// State returns the current session state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Connected reports whether the socket is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// LastQR returns the most recent pairing code, empty once authenticated.
func (c *Client) LastQR() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQR
}

func (c *Client) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	metrics.RecordBridgeState(int(s))
	if prev != s {
		c.logger.Info("bridge state changed",
			slog.String("from", prev.String()),
			slog.String("to", s.String()))
	}
}

// Run connects and serves until ctx is cancelled, reconnecting after
// ReconnectDelay whenever the socket drops or the dial fails.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("bridge dial failed",
				slog.String("url", c.cfg.URL),
				slog.Duration("retry_in", c.cfg.ReconnectDelay),
				slog.Any("error", err))
		} else {
			c.logger.Info("connected to bridge", slog.String("url", c.cfg.URL))
			c.serve(ctx, conn)
			c.logger.Warn("bridge connection closed", slog.Duration("retry_in", c.cfg.ReconnectDelay))
		}

		t := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	wsCfg, err := websocket.NewConfig(c.cfg.URL, c.cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("bridge config: %w", err)
	}
	return wsCfg.DialContext(ctx)
}

// serve reads events until the socket fails or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	g, gctx := errgroup.WithContext(connCtx)
	g.SetLimit(c.cfg.Parallelism)

	for {
		var env Envelope
		if err := websocket.JSON.Receive(conn, &env); err != nil {
			if connCtx.Err() == nil {
				c.logger.Debug("bridge read failed", slog.Any("error", err))
			}
			break
		}
		c.dispatch(gctx, g, env)
	}

	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	cancel()
	_ = g.Wait()
	c.setState(StateDisconnected)
}

func (c *Client) dispatch(ctx context.Context, g *errgroup.Group, env Envelope) {
	switch env.Type {
	case EventMessage:
		var m IncomingMessage
		if err := json.Unmarshal(env.Data, &m); err != nil {
			c.logger.Warn("malformed bridge message", slog.Any("error", err))
			return
		}
		if m.IsGroup && c.cfg.IgnoreGroups {
			return
		}
		g.Go(func() error {
			c.handleMessage(ctx, m)
			return nil
		})

	case EventQR:
		var d qrData
		_ = json.Unmarshal(env.Data, &d)
		c.mu.Lock()
		c.lastQR = d.QR
		c.mu.Unlock()
		c.setState(next(c.State(), env.Type))
		c.logger.Info("scan QR code to link WhatsApp", slog.String("qr", d.QR))

	case EventAuthenticated, EventReady:
		c.mu.Lock()
		c.lastQR = ""
		c.mu.Unlock()
		c.setState(next(c.State(), env.Type))

	case EventAuthFailure, EventDisconnected:
		var d reasonData
		_ = json.Unmarshal(env.Data, &d)
		c.setState(next(c.State(), env.Type))
		c.logger.Warn("whatsapp session lost",
			slog.String("event", env.Type),
			slog.String("reason", d.Reason+d.Message))

	case EventChats:
		var d chatsData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			c.logger.Warn("malformed chats event", slog.Any("error", err))
			return
		}
		c.deliverChats(d.Chats)

	default:
		c.logger.Debug("ignoring bridge event", slog.String("type", env.Type))
	}
}

func (c *Client) handleMessage(ctx context.Context, m IncomingMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling bridge message", slog.Any("panic", r))
		}
	}()
	if c.responder == nil {
		return
	}
	if c.cfg.HandleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HandleTimeout)
		defer cancel()
	}
	ctx = logging.WithLogger(ctx, c.logger)

	reply, ok := c.responder.Handle(ctx, chat.Message{
		Channel:   chat.ChannelBridge,
		ChatID:    m.ChatID,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Time(),
	})
	if !ok {
		return
	}
	if err := c.Send(ctx, m.ChatID, reply); err != nil {
		metrics.RecordChatSendError(chat.ChannelBridge)
		c.logger.Warn("bridge reply failed", slog.String("chat_id", m.ChatID), slog.Any("error", err))
	}
}

func (c *Client) send(kind string, data any) error {
	env, err := newEnvelope(kind, data)
	if err != nil {
		return fmt.Errorf("bridge %s: %w", kind, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := websocket.JSON.Send(c.conn, env); err != nil {
		return fmt.Errorf("bridge %s: %w", kind, err)
	}
	return nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(chatID, content string) error {
	return c.send(CommandSendMessage, sendMessageData{ChatID: chatID, Content: content})
}

// SendImage sends an image by URL with an optional caption.
func (c *Client) SendImage(chatID, imageURL, caption string) error {
	return c.send(CommandSendImage, sendImageData{ChatID: chatID, ImageURL: imageURL, Caption: caption})
}

// SendButtons sends text with quick reply buttons.
func (c *Client) SendButtons(chatID, content string, buttons []chat.Button) error {
	opts := make([]buttonOption, 0, len(buttons))
	for _, b := range buttons {
		opts = append(opts, buttonOption{ID: b.ID, Title: b.Title})
	}
	return c.send(CommandSendButtons, sendButtonsData{ChatID: chatID, Content: content, Buttons: opts})
}

// Send delivers a rendered reply.
func (c *Client) Send(ctx context.Context, chatID string, reply chat.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(reply.Buttons) > 0 {
		return c.SendButtons(chatID, reply.Text, reply.Buttons)
	}
	return c.SendMessage(chatID, reply.Text)
}

// GetChats asks the bridge for its chat list and waits for the answer.
func (c *Client) GetChats(ctx context.Context) ([]ChatInfo, error) {
	ch := make(chan []ChatInfo, 1)
	c.waitMu.Lock()
	c.waiters = append(c.waiters, ch)
	c.waitMu.Unlock()

	if err := c.send(CommandGetChats, struct{}{}); err != nil {
		c.dropWaiter(ch)
		return nil, err
	}

	select {
	case chats := <-ch:
		return chats, nil
	case <-ctx.Done():
		c.dropWaiter(ch)
		return nil, ctx.Err()
	}
}

func (c *Client) deliverChats(chats []ChatInfo) {
	c.waitMu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.waitMu.Unlock()
	for _, w := range waiters {
		w <- chats
	}
}

func (c *Client) dropWaiter(ch chan []ChatInfo) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}
