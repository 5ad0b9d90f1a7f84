package httpserver

import (
	"net/http"
	"time"
)

// New builds the profile API server. Requests are small JSON documents, so
// read and write deadlines stay tight; idle keep-alives recycle once a minute.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
