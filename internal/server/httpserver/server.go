// Package httpserver provides the HTTP/HTTPS front of the ledger.
//
// It is built on net/http method-pattern routing and exposes the
// public query surface, the admin surface, and the operational
// endpoints (health, readiness, metrics).
package httpserver

import (
	"context"
	"net/http"
	"time"
)

// Server wraps http.Server with the timeouts the ledger API wants.
type Server struct {
	httpServer *http.Server
}

// New creates a server listening on addr and serving handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe starts serving plaintext HTTP.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ListenAndServeTLS starts serving HTTPS with the given certificate.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
