package respond

import (
	"regexp"
)

var (
	// Telegram bot token: <bot id>:<secret>
	telegramTokenPattern = regexp.MustCompile(`\b(\d{6,}):[A-Za-z0-9_-]{30,}`)
	// URL 中の /bot<token>/ 形式
	botPathPattern = regexp.MustCompile(`/bot[^/\s]+/`)
	// Meta Graph API access tokens
	graphTokenPattern = regexp.MustCompile(`\bEAA[A-Za-z0-9]{20,}`)
	bearerPattern     = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`)
	dbPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = botPathPattern.ReplaceAllString(msg, "/bot****/")
	msg = telegramTokenPattern.ReplaceAllString(msg, "$1:****")
	msg = graphTokenPattern.ReplaceAllString(msg, "EAA****")
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
