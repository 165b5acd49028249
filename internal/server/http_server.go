// Package server constructs the underlying HTTP server with timeouts that
// apply sensible production defaults.
package server

import (
	"context"
	"log"
	"net/http"
	"time"
)

// newHTTPServer creates an HTTP server for the given address and handler.
// The timeouts cover the pre-upgrade HTTP exchange; hijacked WebSocket
// connections manage their own deadlines in the client pumps.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdownHTTPServer gracefully shuts down the HTTP server, waiting for
// active requests to finish or until the timeout is reached.
func shutdownHTTPServer(server *http.Server, timeout time.Duration) error {
	log.Println("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Println("HTTP server shutdown completed")
	return nil
}
