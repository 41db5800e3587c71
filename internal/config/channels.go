package config

import (
	"errors"
	"time"

	"pixienews/pkg/config"
)

// ChannelsConfig holds chat front end and HTTP surface credentials.
// Empty values disable the corresponding channel.
type ChannelsConfig struct {
	TelegramToken       string
	TelegramPollTimeout time.Duration

	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string
	WhatsAppVerifyToken   string
	// WhatsAppWebhookSecret enables X-Hub-Signature-256 checks when set.
	WhatsAppWebhookSecret string
	WhatsAppAPIBaseURL    string
	WhatsAppBridgeURL     string

	JWTSecret   string
	DatabaseURL string
}

// LoadChannelsConfig reads channel settings from the environment.
func LoadChannelsConfig() ChannelsConfig {
	return ChannelsConfig{
		TelegramToken:         config.GetEnvString("TELEGRAM_BOT_TOKEN", ""),
		TelegramPollTimeout:   config.GetEnvDuration("TELEGRAM_POLL_TIMEOUT", 30*time.Second),
		WhatsAppPhoneNumberID: config.GetEnvString("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAccessToken:   config.GetEnvString("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppVerifyToken:   config.GetEnvString("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppWebhookSecret: config.GetEnvString("WHATSAPP_WEBHOOK_SECRET", ""),
		WhatsAppAPIBaseURL:    config.GetEnvString("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v18.0"),
		WhatsAppBridgeURL:     config.GetEnvString("WHATSAPP_BRIDGE_URL", ""),
		JWTSecret:             config.GetEnvString("JWT_SECRET", ""),
		DatabaseURL:           config.GetEnvString("DATABASE_URL", ""),
	}
}

// TelegramEnabled reports whether a bot token is configured.
func (c ChannelsConfig) TelegramEnabled() bool { return c.TelegramToken != "" }

// WhatsAppBusinessEnabled reports whether the Cloud API can send messages.
func (c ChannelsConfig) WhatsAppBusinessEnabled() bool {
	return c.WhatsAppPhoneNumberID != "" && c.WhatsAppAccessToken != ""
}

// BridgeEnabled reports whether a WhatsApp Web bridge URL is configured.
func (c ChannelsConfig) BridgeEnabled() bool { return c.WhatsAppBridgeURL != "" }

// AdminEnabled reports whether the JWT protected admin routes are served.
func (c ChannelsConfig) AdminEnabled() bool { return c.JWTSecret != "" }

// ValidateAdmin rejects secrets too short for HS256.
func (c ChannelsConfig) ValidateAdmin() error {
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	return nil
}
