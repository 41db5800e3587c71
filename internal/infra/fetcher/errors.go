package fetcher

import "errors"

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid url")
	// ErrPrivateIP is returned when a host resolves to a loopback, private or link-local address.
	ErrPrivateIP = errors.New("url resolves to private ip")
	// ErrTooManyRedirects is returned when the redirect chain exceeds Config.MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrBodyTooLarge is returned when the response exceeds Config.MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrTimeout is returned when the per-request timeout expires.
	ErrTimeout = errors.New("content fetch timeout")
	// ErrReadabilityFailed is returned when no readable text could be extracted.
	ErrReadabilityFailed = errors.New("readability extraction failed")
)
