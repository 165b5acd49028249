// Package server defines the wire payload types shared by client, hub, and
// routing logic, plus small helpers reused across them.
package server

import (
	"encoding/json"
	"strings"
)

// Event names exchanged with clients. Inbound events drive the connection
// lifecycle; outbound events carry chat traffic and presence updates.
const (
	EventRegister          = "register"
	EventSendMessage       = "sendMessage"
	EventMessage           = "message"
	EventUpdateOnlineUsers = "updateOnlineUsers"
)

// SystemUsername is the sender name attached to join/leave notices.
const SystemUsername = "System"

// Envelope is the framing for every JSON message on the wire, in both
// directions: an event name and an event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RegisterPayload is the data carried by a "register" event.
type RegisterPayload struct {
	Username string `json:"username"`
	Region   string `json:"region"`
}

// ChatMessage is the payload of "sendMessage" and "message" events. The
// server relays username, region, and timestamp verbatim; it never rewrites
// them from its own session records.
type ChatMessage struct {
	Text      string `json:"text"`
	Username  string `json:"username"`
	Region    string `json:"region"`
	Timestamp string `json:"timestamp"`
}

// OnlineUser is one entry of an "updateOnlineUsers" payload.
type OnlineUser struct {
	Username string `json:"username"`
	Region   string `json:"region"`
}

// marshalEnvelope encodes an event payload inside its envelope.
func marshalEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
