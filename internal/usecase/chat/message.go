// Package chat routes chat commands shared by every front end (Telegram,
// WhatsApp Business, WhatsApp Web bridge) and renders the replies as
// Markdown text.
package chat

import (
	"strings"
	"time"
)

// Channel names used in user keys and metrics labels.
const (
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
	ChannelBridge   = "bridge"
)

// Message is one inbound chat message, already unwrapped from the
// platform envelope.
type Message struct {
	Channel    string
	ChatID     string
	Sender     string
	SenderName string
	Content    string
	Timestamp  time.Time
}

// UserKey scopes the sender to its channel so identical numeric IDs on two
// platforms do not share preferences.
func (m Message) UserKey() string {
	return UserKey(m.Channel, m.Sender)
}

// UserKey joins a channel and a sender ID.
func UserKey(channel, sender string) string {
	return channel + ":" + sender
}

// SplitUserKey reverses UserKey. ok is false for keys without a channel.
func SplitUserKey(key string) (channel, sender string, ok bool) {
	channel, sender, ok = strings.Cut(key, ":")
	if !ok || channel == "" || sender == "" {
		return "", "", false
	}
	return channel, sender, true
}

// Button is a quick reply option. ID is sent back as message content when
// the user taps it.
type Button struct {
	ID          string
	Title       string
	Description string
}

// Reply is a rendered response. Front ends that cannot show buttons send
// Text only.
type Reply struct {
	Text    string
	Buttons []Button
}
