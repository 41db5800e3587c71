package entity

import (
	"net/url"
)

const (
	maxURLLength        = 2048
	maxRegionCodeLength = 16
)

// ValidateURL accepts absolute http(s) URLs with a host. Whether the host
// is public is decided at fetch time.
func ValidateURL(raw string) error {
	switch {
	case raw == "":
		return invalid("url", "is required")
	case len(raw) > maxURLLength:
		return invalid("url", "longer than %d characters", maxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return invalid("url", "%v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("url", "scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return invalid("url", "has no host")
	}
	return nil
}

// ValidateRegionCode accepts upper-case codes such as "US", "GLOBAL" or "EU_WEST".
func ValidateRegionCode(code string) error {
	if code == "" {
		return invalid("region", "code is required")
	}
	if len(code) > maxRegionCodeLength {
		return invalid("region", "code longer than %d characters", maxRegionCodeLength)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return invalid("region", "invalid code %q", code)
		}
	}
	return nil
}
