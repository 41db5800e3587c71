package bridge

import (
	"encoding/json"
	"time"
)

// Outbound command types.
const (
	CommandSendMessage = "send_message"
	CommandSendImage   = "send_image"
	CommandSendButtons = "send_buttons"
	CommandGetChats    = "get_chats"
)

// Inbound event types.
const (
	EventMessage       = "message"
	EventQR            = "qr"
	EventAuthenticated = "authenticated"
	EventReady         = "ready"
	EventAuthFailure   = "auth_failure"
	EventDisconnected  = "disconnected"
	EventChats         = "chats"
)

// Envelope frames every message on the socket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func newEnvelope(kind string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: kind, Data: raw}, nil
}

// IncomingMessage is the payload of a message event.
type IncomingMessage struct {
	ChatID    string `json:"chatId"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	IsGroup   bool   `json:"isGroup"`
	GroupName string `json:"groupName,omitempty"`
}

// Time converts the unix timestamp.
func (m IncomingMessage) Time() time.Time {
	if m.Timestamp <= 0 {
		return time.Time{}
	}
	return time.Unix(m.Timestamp, 0).UTC()
}

// ChatInfo is one entry of a chats event.
type ChatInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"isGroup"`
}

type qrData struct {
	QR string `json:"qr"`
}

type reasonData struct {
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type chatsData struct {
	Chats []ChatInfo `json:"chats"`
}

type sendMessageData struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

type sendImageData struct {
	ChatID   string `json:"chatId"`
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
}

type sendButtonsData struct {
	ChatID  string         `json:"chatId"`
	Content string         `json:"content"`
	Buttons []buttonOption `json:"buttons"`
}

type buttonOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
