// Package webhook receives WhatsApp Business Cloud API callbacks.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pixienews/internal/handler/http/requestid"
	"pixienews/internal/infra/chat/whatsapp"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/usecase/chat"
)

// Responder answers one chat message. *chat.Handler implements it.
type Responder interface {
	Handle(ctx context.Context, msg chat.Message) (chat.Reply, bool)
}

// Sender delivers a reply to a WhatsApp number.
type Sender interface {
	Send(ctx context.Context, to string, reply chat.Reply) error
}

// WhatsApp handles GET (subscription check) and POST (message delivery) on
// /webhook/whatsapp. Messages are answered in the background so Meta gets
// its 200 right away; Wait blocks until in-flight replies finish.
type WhatsApp struct {
	hook      *whatsapp.Webhook
	responder Responder
	sender    Sender
	logger    *slog.Logger
	timeout   time.Duration

	wg sync.WaitGroup
}

// NewWhatsApp creates the handler. timeout bounds the work for one message.
func NewWhatsApp(hook *whatsapp.Webhook, responder Responder, sender Sender, logger *slog.Logger, timeout time.Duration) *WhatsApp {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WhatsApp{
		hook:      hook,
		responder: responder,
		sender:    sender,
		logger:    logger,
		timeout:   timeout,
	}
}

// Register mounts both methods on mux.
func (h *WhatsApp) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /webhook/whatsapp", h.Verify)
	mux.HandleFunc("POST /webhook/whatsapp", h.Receive)
}

// Verify echoes hub.challenge when hub.verify_token matches.
func (h *WhatsApp) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := h.hook.Verify(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if !ok {
		logging.FromContext(r.Context()).WarnContext(r.Context(), "whatsapp webhook verification failed",
			slog.String("mode", q.Get("hub.mode")))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// Receive checks the signature and answers every message in the payload.
// Malformed payloads are acknowledged with 200 so Meta does not retry them.
func (h *WhatsApp) Receive(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.WarnContext(r.Context(), "whatsapp webhook: read body", slog.Any("error", err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !h.hook.ValidSignature(body, r.Header.Get(whatsapp.SignatureHeader)) {
		logger.WarnContext(r.Context(), "whatsapp webhook: invalid signature")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	msgs, err := whatsapp.ParseWebhook(body)
	if err != nil {
		logger.WarnContext(r.Context(), "whatsapp webhook: ignoring payload", slog.Any("error", err))
	}
	for _, m := range msgs {
		h.dispatch(r.Context(), m)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WhatsApp) dispatch(parent context.Context, msg chat.Message) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), h.timeout)
		defer cancel()
		ctx = requestid.Ensure(ctx)
		logger := h.logger.With(
			slog.String("request_id", requestid.FromContext(ctx)),
			slog.String("channel", msg.Channel),
			slog.String("chat_id", msg.ChatID))
		ctx = logging.WithLogger(ctx, logger)

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic while answering whatsapp message", slog.Any("panic", rec))
			}
		}()

		reply, ok := h.responder.Handle(ctx, msg)
		if !ok {
			return
		}
		if err := h.sender.Send(ctx, msg.ChatID, reply); err != nil {
			metrics.RecordChatSendError(msg.Channel)
			logger.ErrorContext(ctx, "whatsapp reply failed", slog.Any("error", err))
		}
	}()
}

// Wait blocks until every dispatched message has been answered.
func (h *WhatsApp) Wait() { h.wg.Wait() }
