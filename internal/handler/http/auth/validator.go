package auth

import (
	"errors"
	"fmt"
	"strings"
)

// MinSecretLength is the shortest JWT_SECRET accepted for HS256.
const MinSecretLength = 32

var weakSecrets = []string{
	"secret",
	"changeme",
	"password",
	"pixienews",
	"jwtsecret",
	"default",
}

// ValidateSecret rejects empty, short and obviously guessable secrets.
// The error never contains the secret.
func ValidateSecret(secret string) error {
	if secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters (current length: %d)", MinSecretLength, len(secret))
	}
	if isRepeatedChar(secret) {
		return errors.New("JWT_SECRET must not be a repeated character")
	}
	lower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if strings.Trim(strings.ReplaceAll(lower, weak, ""), "0123456789-_!.") == "" {
			return errors.New("JWT_SECRET must not be based on a common word")
		}
	}
	return nil
}

func isRepeatedChar(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
