// Package server wires HTTP handlers into a ServeMux for the AreaChat
// application via routing helpers.
package server

import "net/http"

// routes configures and returns an HTTP ServeMux with all application routes:
// the health check and the WebSocket endpoint.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}
