package httpserver

import (
	"net/http"
	"time"
)

// New builds the engine's HTTP server. Referee devices upload photo captures
// on flaky stadium networks, so the header timeout is tight while slow bodies
// are left to the per-route timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
