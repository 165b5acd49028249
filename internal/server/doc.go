// Package server implements the AreaChat relay: a WebSocket service that
// groups clients by a free-text region label, broadcasts chat messages to
// every open connection, and keeps a per-region online-user list current as
// connections register and disconnect.
//
// The implementation is organized into specialized files for the session
// registry, presence publishing, message routing, hub lifecycle, clients,
// configuration, and HTTP wiring to keep the codebase maintainable and
// testable as the project grows.
package server
