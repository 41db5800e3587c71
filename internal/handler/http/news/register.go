package news

import (
	"net/http"
)

// Register mounts the public news routes on mux.
func Register(mux *http.ServeMux, svc Service, entries EntryReader) {
	mux.Handle("GET /regions", RegionsHandler{Svc: svc})
	mux.Handle("GET /news/{region}", LatestHandler{Svc: svc, Cache: entries})
	mux.Handle("GET /search", SearchHandler{Svc: svc})
}
