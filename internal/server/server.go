// Package server assembles the AreaChat service: hub, origin policy, and
// HTTP listener, with a context-driven lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server owns the pieces of a running AreaChat instance. Nothing here is
// package-level state: construct a Server, start it, and every handler works
// against that instance's hub and registry.
type Server struct {
	cfg        Config
	hub        *Hub
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New builds a Server from the given configuration.
func New(cfg Config) *Server {
	cfg = sanitizeConfig(cfg)

	s := &Server{
		cfg: cfg,
		hub: NewHub(cfg),
	}
	origins := newOriginPolicy(cfg.AllowedOrigins)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.checkOrigin,
	}
	s.httpServer = newHTTPServer(cfg.Port, s.routes())
	return s
}

// Hub returns the server's hub, mainly for shutdown coordination and tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the server's HTTP handler so tests can mount it on their
// own listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start launches the hub's event loop. It must be called before the server
// accepts WebSocket connections.
func (s *Server) Start() {
	go s.hub.Run()
	log.Println("Hub started and ready to manage WebSocket connections")
}

// Run starts the hub and the HTTP listener and serves until the context is
// cancelled, then shuts both down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.Start()

	serveErr := make(chan error, 1)
	log.Printf("Server listening on %s", s.httpServer.Addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.stopHub()
		return fmt.Errorf("serve http: %w", err)
	}
}

// Shutdown stops accepting connections, closes open ones, and waits for the
// hub's goroutines within the configured shutdown timeout.
func (s *Server) Shutdown() error {
	httpErr := shutdownHTTPServer(s.httpServer, s.cfg.ShutdownTimeout)
	hubErr := s.stopHub()
	if httpErr != nil {
		return httpErr
	}
	return hubErr
}

func (s *Server) stopHub() error {
	return s.hub.Shutdown(s.cfg.ShutdownTimeout)
}
