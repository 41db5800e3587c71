package entity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/feed", false},
		{"http", "http://example.com", false},
		{"empty", "", true},
		{"no scheme", "example.com/feed", true},
		{"javascript", "javascript:alert(1)", true},
		{"no host", "https:///path", true},
		{"too long", "https://example.com/" + strings.Repeat("a", 2100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRegionCode(t *testing.T) {
	valid := []string{"US", "GLOBAL", "EU_WEST"}
	for _, code := range valid {
		if err := ValidateRegionCode(code); err != nil {
			t.Errorf("ValidateRegionCode(%q) unexpected error: %v", code, err)
		}
	}

	bad := []string{"", "us", "U S", "TOOLONGREGIONCODE1"}
	for _, code := range bad {
		if err := ValidateRegionCode(code); !errors.Is(err, ErrValidationFailed) {
			t.Errorf("ValidateRegionCode(%q) = %v, want a validation error", code, err)
		}
	}
}
