// Package server exposes HTTP handlers for WebSocket upgrades and health
// checks.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// handleWebSocket upgrades the HTTP connection to WebSocket, assigns a
// server-side connection id, and attaches the client to the hub, which starts
// the read/write pumps. The connection enters the lifecycle unregistered; it
// only joins a region once it sends a register event.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, s.hub, r.RemoteAddr)

	select {
	case s.hub.attach <- client:
	case <-s.hub.ctx.Done():
		_ = conn.Close()
	}
}

// handleHealth provides a simple health check endpoint that returns server
// status as plain text.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "AreaChat server is running!")
}
