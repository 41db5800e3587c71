// Package whatsapp implements the WhatsApp Business Cloud API: outbound
// text and interactive messages, and inbound webhook verification and
// parsing.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pixienews/internal/infra/notifier"
	"pixienews/internal/resilience/retry"
	"pixienews/internal/usecase/chat"
	"pixienews/internal/utils/text"
)

// DefaultBaseURL is the Graph API version the client targets.
const DefaultBaseURL = "https://graph.facebook.com/v18.0"

// Platform limits for interactive messages.
const (
	MaxButtons       = 3
	MaxButtonTitle   = 20
	MaxListRows      = 10
	MaxListRowTitle  = 24
	MaxListRowDesc   = 72
	maxTextRunes     = 4096
	maxBodyRunes     = 1024
	listButtonText   = "Choose Country"
	listSectionTitle = "Select Country"
	selectorBody     = "🌍 Select a country to get AI news:"
	selectorHeader   = "PixieNews"
	selectorFooter   = "Tap to select your region"
)

// ErrNotConfigured is returned when credentials are missing.
var ErrNotConfigured = errors.New("whatsapp: phone number id and access token are required")

// Config holds Cloud API credentials.
type Config struct {
	PhoneNumberID string
	AccessToken   string
	BaseURL       string
	HTTPClient    *http.Client
	// Retry overrides the send retry policy when MaxAttempts > 0.
	Retry retry.Config
}

// Client sends messages through the Cloud API.
type Client struct {
	messagesURL string
	api         *notifier.Client
}

// NewClient validates cfg and builds a throttled client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.PhoneNumberID == "" || cfg.AccessToken == "" {
		return nil, ErrNotConfigured
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	opts := []notifier.Option{
		notifier.WithHeader("Authorization", "Bearer "+cfg.AccessToken),
		// business accounts start at 80 messages per second
		notifier.WithThrottle(notifier.NewThrottle(50, 10, 1, 5)),
	}
	if cfg.Retry.MaxAttempts > 0 {
		opts = append(opts, notifier.WithRetry(cfg.Retry))
	}

	return &Client{
		messagesURL: base + "/" + cfg.PhoneNumberID + "/messages",
		api:         notifier.NewClient("whatsapp", httpClient, opts...),
	}, nil
}

func (c *Client) post(ctx context.Context, payload outboundMessage) error {
	payload.MessagingProduct = "whatsapp"
	var resp sendResponse
	ctx = notifier.WithRecipient(ctx, payload.To)
	if err := c.api.DoJSON(ctx, http.MethodPost, c.messagesURL, payload, &resp); err != nil {
		return fmt.Errorf("whatsapp send %s: %w", payload.Type, err)
	}
	return nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.post(ctx, outboundMessage{
		RecipientType: "individual",
		To:            to,
		Type:          "text",
		Text:          &textBody{Body: text.Truncate(body, maxTextRunes)},
	})
}

// SendButtons sends up to three reply buttons; extra buttons are dropped
// and titles are cut to twenty characters.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []chat.Button) error {
	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}
	items := make([]replyButton, 0, len(buttons))
	for _, b := range buttons {
		items = append(items, replyButton{
			Type:  "reply",
			Reply: buttonReply{ID: b.ID, Title: text.Clip(b.Title, MaxButtonTitle)},
		})
	}
	return c.post(ctx, outboundMessage{
		To:   to,
		Type: "interactive",
		Interactive: &interactive{
			Type:   "button",
			Body:   textOnly{Text: text.Truncate(body, maxBodyRunes)},
			Action: action{Buttons: items},
		},
	})
}

// SendList sends a single-section list menu with at most ten rows.
func (c *Client) SendList(ctx context.Context, to, body string, rows []chat.Button) error {
	if len(rows) > MaxListRows {
		rows = rows[:MaxListRows]
	}
	items := make([]listRow, 0, len(rows))
	for _, r := range rows {
		items = append(items, listRow{
			ID:          r.ID,
			Title:       text.Clip(r.Title, MaxListRowTitle),
			Description: text.Truncate(r.Description, MaxListRowDesc),
		})
	}
	return c.post(ctx, outboundMessage{
		To:   to,
		Type: "interactive",
		Interactive: &interactive{
			Type:   "list",
			Header: &header{Type: "text", Text: selectorHeader},
			Body:   textOnly{Text: text.Truncate(body, maxBodyRunes)},
			Footer: &textOnly{Text: selectorFooter},
			Action: action{
				Button:   listButtonText,
				Sections: []section{{Title: listSectionTitle, Rows: items}},
			},
		},
	})
}

// Send delivers a rendered reply. Replies with buttons become reply
// buttons (three or fewer) or a list menu; a long text goes out first as a
// plain message followed by the selector.
func (c *Client) Send(ctx context.Context, to string, reply chat.Reply) error {
	if len(reply.Buttons) == 0 {
		return c.SendText(ctx, to, reply.Text)
	}

	body := reply.Text
	if text.CountRunes(body) > maxBodyRunes || body == "" {
		if body != "" {
			if err := c.SendText(ctx, to, body); err != nil {
				return err
			}
		}
		body = selectorBody
	}

	if len(reply.Buttons) <= MaxButtons {
		return c.SendButtons(ctx, to, body, reply.Buttons)
	}
	return c.SendList(ctx, to, body, reply.Buttons)
}
