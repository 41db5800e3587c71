// Package normalize canonicalizes raw adapter items and merges duplicates
// that point at the same article.
package normalize

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// ErrMalformedURL is returned by CanonicalURL for anything that is not an
// absolute http(s) URL with a host.
var ErrMalformedURL = errors.New("malformed url")

// trackingParams are stripped from the query string. Any "utm_" prefixed key
// is stripped as well.
var trackingParams = map[string]struct{}{
	"utm":     {},
	"fbclid":  {},
	"gclid":   {},
	"ref":     {},
	"ref_src": {},
	"mc_cid":  {},
	"mc_eid":  {},
	"igshid":  {},
	"_ga":     {},
	"yclid":   {},
	"spm":     {},
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	if strings.HasPrefix(k, "utm_") {
		return true
	}
	_, ok := trackingParams[k]
	return ok
}

// CanonicalURL returns the dedup key for raw: scheme and host lower-cased,
// default ports, fragment and tracking parameters removed, remaining query
// parameters sorted, trailing slash stripped.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformedURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrMalformedURL
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrMalformedURL
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", ErrMalformedURL
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	u.Scheme = scheme
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if isTrackingParam(key) {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}
	u.ForceQuery = false

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")

	return u.String(), nil
}
