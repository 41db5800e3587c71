package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pixienews/internal/usecase/chat"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "X-Hub-Signature-256"

const defaultSenderName = "User"

// Webhook validates and decodes Cloud API webhook calls.
type Webhook struct {
	verifyToken string
	secret      string
}

// NewWebhook creates a Webhook. An empty secret disables signature checks.
func NewWebhook(verifyToken, secret string) *Webhook {
	return &Webhook{verifyToken: verifyToken, secret: secret}
}

// Verify answers the subscription handshake. It returns the challenge to
// echo and true when mode is "subscribe" and the token matches.
func (w *Webhook) Verify(mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || w.verifyToken == "" {
		return "", false
	}
	if !hmac.Equal([]byte(token), []byte(w.verifyToken)) {
		return "", false
	}
	return challenge, true
}

// ValidSignature checks a "sha256=<hex>" signature over body.
func (w *Webhook) ValidSignature(body []byte, signature string) bool {
	if w.secret == "" {
		return true
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil || len(provided) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(w.secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}

// Sign returns the header value Meta would send for body. Used by tests
// and local replay tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook decodes body into chat messages. Text messages carry their
// body; interactive replies carry the tapped button or row ID. Status
// callbacks and unsupported types yield no messages.
func ParseWebhook(body []byte) ([]chat.Message, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("whatsapp webhook: decode: %w", err)
	}

	var out []chat.Message
	for _, e := range payload.Entry {
		for _, ch := range e.Changes {
			names := make(map[string]string, len(ch.Value.Contacts))
			for _, c := range ch.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range ch.Value.Messages {
				content := messageContent(m)
				if content == "" || m.From == "" {
					continue
				}
				name := names[m.From]
				if name == "" && len(ch.Value.Contacts) == 1 {
					name = ch.Value.Contacts[0].Profile.Name
				}
				if name == "" {
					name = defaultSenderName
				}
				out = append(out, chat.Message{
					Channel:    chat.ChannelWhatsApp,
					ChatID:     m.From,
					Sender:     m.From,
					SenderName: name,
					Content:    content,
					Timestamp:  parseUnix(m.Timestamp),
				})
			}
		}
	}
	return out, nil
}

func messageContent(m inboundMessage) string {
	switch m.Type {
	case "text":
		if m.Text != nil {
			return m.Text.Body
		}
	case "interactive":
		if m.Interactive == nil {
			return ""
		}
		if m.Interactive.ButtonReply != nil {
			return m.Interactive.ButtonReply.ID
		}
		if m.Interactive.ListReply != nil {
			return m.Interactive.ListReply.ID
		}
	}
	return ""
}

func parseUnix(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
