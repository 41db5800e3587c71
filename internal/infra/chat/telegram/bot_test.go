package telegram

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixienews/internal/usecase/chat"
)

type recordingResponder struct {
	mu   sync.Mutex
	msgs []chat.Message
	resp chat.Reply
}

func (r *recordingResponder) Handle(_ context.Context, msg chat.Message) (chat.Reply, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.resp, true
}

func (r *recordingResponder) received() []chat.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chat.Message(nil), r.msgs...)
}

func TestBot_HandleUpdate_Message(t *testing.T) {
	api, srv := newFakeAPI(t)
	responder := &recordingResponder{resp: chat.Reply{Text: "news"}}
	bot := NewBot(newTestClient(srv), responder, DefaultBotConfig(), nil)

	bot.HandleUpdate(context.Background(), Update{
		UpdateID: 1,
		Message: &Message{
			MessageID: 3,
			From:      &User{ID: 77, FirstName: "Ada"},
			Chat:      Chat{ID: 77, Type: "private"},
			Text:      "/news UK",
		},
	})

	got := responder.received()
	require.Len(t, got, 1)
	assert.Equal(t, chat.ChannelTelegram, got[0].Channel)
	assert.Equal(t, "77", got[0].Sender)
	assert.Equal(t, "Ada", got[0].SenderName)
	assert.Equal(t, "/news UK", got[0].Content)

	sends := api.callsTo("sendMessage")
	require.Len(t, sends, 1)
	assert.Equal(t, "news", sends[0].Body["text"])
}

func TestBot_HandleUpdate_CallbackEditsMessage(t *testing.T) {
	api, srv := newFakeAPI(t)
	responder := &recordingResponder{resp: chat.Reply{Text: "UK news"}}
	bot := NewBot(newTestClient(srv), responder, DefaultBotConfig(), nil)

	bot.HandleUpdate(context.Background(), Update{
		UpdateID: 2,
		CallbackQuery: &CallbackQuery{
			ID:      "cb1",
			From:    User{ID: 77},
			Message: &Message{MessageID: 5, Chat: Chat{ID: 77}},
			Data:    "country_UK",
		},
	})

	assert.Len(t, api.callsTo("answerCallbackQuery"), 1)
	edits := api.callsTo("editMessageText")
	require.Len(t, edits, 1)
	assert.Equal(t, float64(5), edits[0].Body["message_id"])
	assert.Empty(t, api.callsTo("sendMessage"))
	assert.Equal(t, "country_UK", responder.received()[0].Content)
}

func TestBot_HandleUpdate_IgnoresNonText(t *testing.T) {
	api, srv := newFakeAPI(t)
	responder := &recordingResponder{}
	bot := NewBot(newTestClient(srv), responder, DefaultBotConfig(), nil)

	bot.HandleUpdate(context.Background(), Update{UpdateID: 3, Message: &Message{Chat: Chat{ID: 1}}})

	assert.Empty(t, responder.received())
	assert.Empty(t, api.callsTo("sendMessage"))
}

func TestBot_RunAdvancesOffsetAndStops(t *testing.T) {
	api, srv := newFakeAPI(t)
	var polls atomic.Int32
	api.answers["getUpdates"] = func(body map[string]any) (int, string) {
		switch polls.Add(1) {
		case 1:
			return http.StatusOK, `{"ok":true,"result":[{"update_id":20,"message":{"message_id":1,"chat":{"id":5},"text":"US"}}]}`
		default:
			time.Sleep(5 * time.Millisecond)
			return http.StatusOK, `{"ok":true,"result":[]}`
		}
	}
	responder := &recordingResponder{resp: chat.Reply{Text: "ok"}}
	cfg := DefaultBotConfig()
	cfg.DropPending = false
	bot := NewBot(newTestClient(srv), responder, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	require.Eventually(t, func() bool { return polls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop")
	}

	calls := api.callsTo("getUpdates")
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, float64(21), calls[1].Body["offset"])
	require.Len(t, responder.received(), 1)
	assert.Equal(t, "US", responder.received()[0].Content)
}
