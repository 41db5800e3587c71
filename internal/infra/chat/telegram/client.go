// Package telegram is a minimal Telegram Bot API client: long polling for
// updates, Markdown messages with inline region keyboards and callback
// acknowledgements.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pixienews/internal/infra/notifier"
	"pixienews/internal/resilience/retry"
	"pixienews/internal/usecase/chat"
	"pixienews/internal/utils/text"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

const (
	// maxMessageRunes is the Bot API limit for a single message.
	maxMessageRunes = 4096
	// buttonsPerRow matches the region keyboard layout.
	buttonsPerRow = 3
)

// ErrAPI is returned when the Bot API answers ok=false with a 2xx status.
var ErrAPI = errors.New("telegram: api error")

// Client talks to the Bot API. Send calls are throttled and retried;
// GetUpdates is a single long-poll attempt.
type Client struct {
	baseURL     string
	token       string
	pollTimeout time.Duration
	send        *notifier.Client
	poll        *notifier.Client
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	baseURL     string
	httpClient  *http.Client
	pollTimeout time.Duration
	limiter     *notifier.Throttle
	retry       *retry.Config
}

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(u string) ClientOption {
	return func(o *clientOptions) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the client used for sends.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithPollTimeout sets the long-poll timeout passed to getUpdates.
func WithPollTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.pollTimeout = d }
}

// WithSendRetry overrides the retry policy for outbound messages.
func WithSendRetry(cfg retry.Config) ClientOption {
	return func(o *clientOptions) { o.retry = &cfg }
}

// NewClient creates a Bot API client for token.
func NewClient(token string, opts ...ClientOption) *Client {
	o := clientOptions{
		baseURL:     DefaultBaseURL,
		pollTimeout: 30 * time.Second,
		// about 30 messages per second per bot, one per second per chat
		limiter: notifier.NewThrottle(25, 5, 1, 3),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	sendOpts := []notifier.Option{notifier.WithThrottle(o.limiter)}
	if o.retry != nil {
		sendOpts = append(sendOpts, notifier.WithRetry(*o.retry))
	}

	pollHTTP := &http.Client{
		Transport: o.httpClient.Transport,
		Timeout:   o.pollTimeout + 10*time.Second,
	}

	poll := notifier.NewClient("telegram", pollHTTP,
		notifier.WithRetry(retry.Config{Name: "telegram-poll", MaxAttempts: 1}),
		notifier.WithThrottle(notifier.NewThrottle(100, 10, 0, 1)))

	if o.pollTimeout < 0 {
		o.pollTimeout = 0
	}

	return &Client{
		baseURL:     o.baseURL,
		token:       token,
		pollTimeout: o.pollTimeout,
		send:        notifier.NewClient("telegram", o.httpClient, sendOpts...),
		poll:        poll,
	}
}

func (c *Client) endpoint(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

// call invokes method and decodes result into out.
func (c *Client) call(ctx context.Context, api *notifier.Client, method string, payload, out any) error {
	var env response
	if err := api.DoJSON(ctx, http.MethodPost, c.endpoint(method), payload, &env); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if !env.OK {
		return fmt.Errorf("%w: %s: %d %s", ErrAPI, method, env.ErrorCode, env.Description)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// GetMe returns the bot account; used as a startup credential check.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	var u User
	err := c.call(ctx, c.send, "getMe", struct{}{}, &u)
	return u, err
}

// GetUpdates long-polls for updates with IDs >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	return c.getUpdates(ctx, offset, c.pollTimeout)
}

func (c *Client) getUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, c.poll, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends Markdown text with an optional inline keyboard. When
// Telegram rejects the Markdown the message is resent as plain text.
func (c *Client) SendMessage(ctx context.Context, chatID, body string, keyboard *InlineKeyboardMarkup) error {
	req := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text.Truncate(body, maxMessageRunes),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
		ReplyMarkup:           keyboard,
	}
	ctx = notifier.WithRecipient(ctx, chatID)
	err := c.call(ctx, c.send, "sendMessage", req, nil)
	if err != nil && isEntityParseError(err) {
		req.ParseMode = ""
		err = c.call(ctx, c.send, "sendMessage", req, nil)
	}
	return err
}

// EditMessageText replaces the text of a message the bot sent earlier.
func (c *Client) EditMessageText(ctx context.Context, chatID string, messageID int64, body string) error {
	req := editMessageTextRequest{
		ChatID:                chatID,
		MessageID:             messageID,
		Text:                  text.Truncate(body, maxMessageRunes),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	}
	return c.call(notifier.WithRecipient(ctx, chatID), c.send, "editMessageText", req, nil)
}

// AnswerCallbackQuery stops the client-side spinner on an inline button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return c.call(ctx, c.send, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: callbackID}, nil)
}

// Send delivers a rendered reply; buttons become an inline keyboard.
func (c *Client) Send(ctx context.Context, chatID string, reply chat.Reply) error {
	return c.SendMessage(ctx, chatID, reply.Text, Keyboard(reply.Buttons))
}

// Keyboard lays buttons out three per row. It returns nil for no buttons.
func Keyboard(buttons []chat.Button) *InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]InlineKeyboardButton, 0, (len(buttons)+buttonsPerRow-1)/buttonsPerRow)
	var row []InlineKeyboardButton
	for _, b := range buttons {
		row = append(row, InlineKeyboardButton{Text: b.Title, CallbackData: b.ID})
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func isEntityParseError(err error) bool {
	if !notifier.IsPermanent(err) && !errors.Is(err, ErrAPI) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

// ChatID formats a numeric chat ID for the Bot API.
func ChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
