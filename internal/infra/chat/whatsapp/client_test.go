package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixienews/internal/resilience/retry"
	"pixienews/internal/usecase/chat"
)

type capture struct {
	mu       sync.Mutex
	payloads []outboundMessage
	auth     []string
	paths    []string
}

func (c *capture) all() []outboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]outboundMessage(nil), c.payloads...)
}

func newTestServer(t *testing.T, status int) (*capture, *Client) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p outboundMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		c.mu.Lock()
		c.payloads = append(c.payloads, p)
		c.auth = append(c.auth, r.Header.Get("Authorization"))
		c.paths = append(c.paths, r.URL.Path)
		c.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		PhoneNumberID: "PHONE",
		AccessToken:   "TOKEN",
		BaseURL:       srv.URL,
		HTTPClient:    srv.Client(),
		Retry:         retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return c, client
}

func regionButtons(n int) []chat.Button {
	codes := []string{"US", "UK", "IN", "CN", "DE", "JP", "FR", "KR", "CA", "AU", "GLOBAL"}
	out := make([]chat.Button, 0, n)
	for _, code := range codes[:n] {
		out = append(out, chat.Button{ID: "country_" + code, Title: "Flag " + code, Description: "Region " + code})
	}
	return out
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{PhoneNumberID: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_SendText(t *testing.T) {
	got, client := newTestServer(t, http.StatusOK)

	require.NoError(t, client.SendText(context.Background(), "15550001", "hello"))

	payloads := got.all()
	require.Len(t, payloads, 1)
	assert.Equal(t, "whatsapp", payloads[0].MessagingProduct)
	assert.Equal(t, "individual", payloads[0].RecipientType)
	assert.Equal(t, "text", payloads[0].Type)
	assert.Equal(t, "hello", payloads[0].Text.Body)
	assert.Equal(t, "Bearer TOKEN", got.auth[0])
	assert.Equal(t, "/PHONE/messages", got.paths[0])
}

func TestClient_SendButtons_Limits(t *testing.T) {
	got, client := newTestServer(t, http.StatusOK)

	buttons := []chat.Button{
		{ID: "a", Title: "An extremely long button title"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
		{ID: "d", Title: "D"},
	}
	require.NoError(t, client.SendButtons(context.Background(), "1", "pick", buttons))

	p := got.all()[0]
	require.NotNil(t, p.Interactive)
	assert.Equal(t, "button", p.Interactive.Type)
	require.Len(t, p.Interactive.Action.Buttons, MaxButtons)
	assert.Equal(t, "An extremely long bu", p.Interactive.Action.Buttons[0].Reply.Title)
	assert.Equal(t, "reply", p.Interactive.Action.Buttons[0].Type)
}

func TestClient_Send_RegionSelectorUsesList(t *testing.T) {
	got, client := newTestServer(t, http.StatusOK)

	err := client.Send(context.Background(), "1", chat.Reply{Text: "Welcome", Buttons: regionButtons(11)})
	require.NoError(t, err)

	payloads := got.all()
	require.Len(t, payloads, 1)
	p := payloads[0]
	assert.Equal(t, "list", p.Interactive.Type)
	assert.Equal(t, "Welcome", p.Interactive.Body.Text)
	assert.Equal(t, "Choose Country", p.Interactive.Action.Button)
	require.Len(t, p.Interactive.Action.Sections, 1)
	assert.Len(t, p.Interactive.Action.Sections[0].Rows, MaxListRows)
	assert.Equal(t, "country_US", p.Interactive.Action.Sections[0].Rows[0].ID)
}

func TestClient_Send_LongTextThenSelector(t *testing.T) {
	got, client := newTestServer(t, http.StatusOK)

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	err := client.Send(context.Background(), "1", chat.Reply{Text: string(long), Buttons: regionButtons(2)})
	require.NoError(t, err)

	payloads := got.all()
	require.Len(t, payloads, 2)
	assert.Equal(t, "text", payloads[0].Type)
	assert.Equal(t, "button", payloads[1].Interactive.Type)
	assert.Equal(t, selectorBody, payloads[1].Interactive.Body.Text)
}

func TestClient_Send_PlainReply(t *testing.T) {
	got, client := newTestServer(t, http.StatusOK)

	require.NoError(t, client.Send(context.Background(), "1", chat.Reply{Text: "news"}))
	assert.Equal(t, "text", got.all()[0].Type)
}

func TestClient_Send_ClientError(t *testing.T) {
	_, client := newTestServer(t, http.StatusBadRequest)

	err := client.SendText(context.Background(), "1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whatsapp send text")
}
