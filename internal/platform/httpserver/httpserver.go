package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the project's defaults. writeTimeout must
// cover a full fan-out, so it is derived from the backend timeout by callers.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
