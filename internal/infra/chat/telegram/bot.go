package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/usecase/chat"
)

// Responder answers one chat message. *chat.Handler implements it.
type Responder interface {
	Handle(ctx context.Context, msg chat.Message) (chat.Reply, bool)
}

// BotConfig tunes the polling loop.
type BotConfig struct {
	// Parallelism bounds how many updates of one batch are handled at once.
	Parallelism int
	// ErrorBackoff is the pause after a failed getUpdates call.
	ErrorBackoff time.Duration
	// HandleTimeout bounds a single update including the reply.
	HandleTimeout time.Duration
	// DropPending skips updates queued before the bot started.
	DropPending bool
}

// DefaultBotConfig returns the production polling settings.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Parallelism:   8,
		ErrorBackoff:  3 * time.Second,
		HandleTimeout: 30 * time.Second,
		DropPending:   true,
	}
}

// Bot long-polls the Bot API and routes every update to a Responder.
type Bot struct {
	client    *Client
	responder Responder
	cfg       BotConfig
	logger    *slog.Logger
}

// NewBot creates a polling bot.
func NewBot(client *Client, responder Responder, cfg BotConfig, logger *slog.Logger) *Bot {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{client: client, responder: responder, cfg: cfg, logger: logger}
}

// Run polls until ctx is cancelled. It returns nil on cancellation.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	if b.cfg.DropPending {
		offset = b.skipPending(ctx)
	}
	b.logger.Info("telegram bot polling started", slog.Int64("offset", offset))

	for {
		if ctx.Err() != nil {
			b.logger.Info("telegram bot polling stopped")
			return nil
		}

		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			b.logger.Warn("getUpdates failed", slog.Any("error", err))
			b.pause(ctx)
			continue
		}

		offset = b.dispatch(ctx, updates, offset)
	}
}

// skipPending acknowledges everything queued before start.
func (b *Bot) skipPending(ctx context.Context) int64 {
	updates, err := b.client.getUpdates(ctx, -1, 0)
	if err != nil || len(updates) == 0 {
		return 0
	}
	return updates[len(updates)-1].UpdateID + 1
}

// dispatch handles one batch and returns the next offset. Every update in
// the batch is acknowledged, including the ones whose handling failed.
func (b *Bot) dispatch(ctx context.Context, updates []Update, offset int64) int64 {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Parallelism)

	for _, u := range updates {
		if u.UpdateID >= offset {
			offset = u.UpdateID + 1
		}
		g.Go(func() error {
			b.handleUpdate(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return offset
}

// HandleUpdate processes a single update. Exported for webhook delivery.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	b.handleUpdate(ctx, u)
}

func (b *Bot) handleUpdate(ctx context.Context, u Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling telegram update",
				slog.Int64("update_id", u.UpdateID),
				slog.Any("panic", r))
		}
	}()

	if b.cfg.HandleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.HandleTimeout)
		defer cancel()
	}
	logger := b.logger.With(slog.Int64("update_id", u.UpdateID))
	ctx = logging.WithLogger(ctx, logger)

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, logger, u.CallbackQuery)
	case u.Message != nil && u.Message.Text != "":
		b.handleMessage(ctx, logger, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, logger *slog.Logger, m *Message) {
	msg := chat.Message{
		Channel:   chat.ChannelTelegram,
		ChatID:    ChatID(m.Chat.ID),
		Sender:    ChatID(m.Chat.ID),
		Content:   m.Text,
		Timestamp: m.Time(),
	}
	if m.From != nil {
		msg.Sender = ChatID(m.From.ID)
		msg.SenderName = m.From.FirstName
	}

	reply, ok := b.responder.Handle(ctx, msg)
	if !ok {
		return
	}
	if err := b.client.Send(ctx, msg.ChatID, reply); err != nil {
		metrics.RecordChatSendError(chat.ChannelTelegram)
		logger.Warn("telegram send failed", slog.String("chat_id", msg.ChatID), slog.Any("error", err))
	}
}

// handleCallback answers the button tap and replaces the keyboard message
// with the result, falling back to a new message when editing fails.
func (b *Bot) handleCallback(ctx context.Context, logger *slog.Logger, q *CallbackQuery) {
	if err := b.client.AnswerCallbackQuery(ctx, q.ID); err != nil {
		logger.Debug("answerCallbackQuery failed", slog.Any("error", err))
	}
	if q.Data == "" {
		return
	}

	chatID := ChatID(q.From.ID)
	if q.Message != nil {
		chatID = ChatID(q.Message.Chat.ID)
	}
	msg := chat.Message{
		Channel:    chat.ChannelTelegram,
		ChatID:     chatID,
		Sender:     ChatID(q.From.ID),
		SenderName: q.From.FirstName,
		Content:    q.Data,
		Timestamp:  time.Now().UTC(),
	}

	reply, ok := b.responder.Handle(ctx, msg)
	if !ok {
		return
	}
	if q.Message != nil && len(reply.Buttons) == 0 {
		err := b.client.EditMessageText(ctx, chatID, q.Message.MessageID, reply.Text)
		if err == nil {
			return
		}
		logger.Debug("editMessageText failed, sending new message", slog.Any("error", err))
	}
	if err := b.client.Send(ctx, chatID, reply); err != nil {
		metrics.RecordChatSendError(chat.ChannelTelegram)
		logger.Warn("telegram send failed", slog.String("chat_id", chatID), slog.Any("error", err))
	}
}

func (b *Bot) pause(ctx context.Context) {
	t := time.NewTimer(b.cfg.ErrorBackoff)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
