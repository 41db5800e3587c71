// Package fetcher downloads article pages and extracts their readable text,
// used to enrich items whose feed summary is missing or too short.
package fetcher

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"syscall"
	"time"
)

// checkURL accepts absolute http(s) URLs. A literal IP host is checked
// here; names are checked when the dialer connects.
func checkURL(raw string, denyPrivate bool) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: empty host", ErrInvalidURL)
	}
	if denyPrivate {
		if addr, err := netip.ParseAddr(u.Hostname()); err == nil && blocked(addr) {
			return nil, fmt.Errorf("%w: %s", ErrPrivateIP, addr)
		}
	}
	return u, nil
}

// blocked covers loopback, RFC 1918, link-local (cloud metadata lives at
// 169.254.169.254), unique local IPv6 and the unspecified address.
func blocked(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified()
}

// guardedDialer refuses connections to blocked addresses after DNS
// resolution, so a public name pointing at 10.0.0.1 is caught too.
func guardedDialer(denyPrivate bool) *net.Dialer {
	d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	if !denyPrivate {
		return d
	}
	d.Control = func(_, address string, _ syscall.RawConn) error {
		ap, err := netip.ParseAddrPort(address)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidURL, address)
		}
		if blocked(ap.Addr()) {
			return fmt.Errorf("%w: %s", ErrPrivateIP, ap.Addr())
		}
		return nil
	}
	return d
}
