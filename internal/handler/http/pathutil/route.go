// Package pathutil maps request paths onto route templates so that metric
// labels stay bounded.
package pathutil

import (
	"strings"
)

// Unmatched labels every path outside the route table.
const Unmatched = "other"

// routes lists every path the servers answer. A "{region}" segment matches
// any region-shaped code.
var routes = [][]string{
	{"news", "{region}"},
	{"regions"},
	{"search"},
	{"health"},
	{"ready"},
	{"live"},
	{"metrics"},
	{"webhook", "whatsapp"},
	{"admin", "cache"},
	{"admin", "cache", "{region}"},
	{"admin", "refresh", "{region}"},
	{"admin", "regions"},
}

// Route returns the template for path, ignoring the query string and a
// trailing slash.
//
//	Route("/news/us")          // "/news/{region}"
//	Route("/news/UK/?limit=3") // "/news/{region}"
//	Route("/wp-login.php")     // "other"
func Route(path string) string {
	path, _, _ = strings.Cut(path, "?")
	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}
	segs := strings.Split(path, "/")

next:
	for _, r := range routes {
		if len(r) != len(segs) {
			continue
		}
		for i, want := range r {
			if want == "{region}" {
				if !isRegionCode(segs[i]) {
					continue next
				}
				continue
			}
			if segs[i] != want {
				continue next
			}
		}
		return "/" + strings.Join(r, "/")
	}
	return Unmatched
}

// region codes are two to eight ASCII letters (US, GLOBAL)
func isRegionCode(s string) bool {
	if len(s) < 2 || len(s) > 8 {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
