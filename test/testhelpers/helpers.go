// Package testhelpers provides common utilities for exercising the AreaChat
// server over real WebSocket connections.
//
// The helpers wrap dialing, the event envelope protocol, and waiting for
// specific events so integration tests stay focused on scenario behavior.
package testhelpers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/areachat/server/internal/server"
)

// StartTestServer boots a full AreaChat server (hub running, wildcard origin
// policy) on an httptest listener and returns it with its WebSocket URL.
// Cleanup shuts down the hub and the listener.
func StartTestServer(t *testing.T) (*server.Server, string) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{"*"}

	srv := server.New(cfg)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Hub().Shutdown(cfg.ShutdownTimeout)
	})

	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// ConnectWebSocket dials the given WebSocket URL with an Origin header set.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	headers.Set("Origin", "http://localhost:8080")

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// MustConnect dials and fails the test on error.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, err := ConnectWebSocket(url)
	if err != nil {
		t.Fatalf("Failed to connect websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent writes one event envelope to the connection.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal %s payload: %v", event, err)
	}
	if err := conn.WriteJSON(server.Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("Failed to send %s event: %v", event, err)
	}
}

// Register sends a register event for the given identity.
func Register(t *testing.T, conn *websocket.Conn, username, region string) {
	t.Helper()
	SendEvent(t, conn, server.EventRegister, server.RegisterPayload{Username: username, Region: region})
}

// SendChat sends a sendMessage event with the given fields.
func SendChat(t *testing.T, conn *websocket.Conn, msg server.ChatMessage) {
	t.Helper()
	SendEvent(t, conn, server.EventSendMessage, msg)
}

// ReadEnvelope reads the next envelope from the connection, failing after the
// timeout.
func ReadEnvelope(conn *websocket.Conn, timeout time.Duration) (server.Envelope, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return server.Envelope{}, err
	}

	var envelope server.Envelope
	if err := conn.ReadJSON(&envelope); err != nil {
		return server.Envelope{}, err
	}
	return envelope, nil
}

// WaitForEvent reads envelopes until one with the wanted event name arrives,
// skipping others, and fails the test if none arrives within the timeout.
func WaitForEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) server.Envelope {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("Timed out waiting for %s event", event)
		}
		envelope, err := ReadEnvelope(conn, remaining)
		if err != nil {
			t.Fatalf("Failed reading while waiting for %s event: %v", event, err)
		}
		if envelope.Event == event {
			return envelope
		}
	}
}

// WaitForChat waits for the next "message" event and decodes its payload.
func WaitForChat(t *testing.T, conn *websocket.Conn, timeout time.Duration) server.ChatMessage {
	t.Helper()

	envelope := WaitForEvent(t, conn, server.EventMessage, timeout)
	var msg server.ChatMessage
	if err := json.Unmarshal(envelope.Data, &msg); err != nil {
		t.Fatalf("Failed to decode chat message: %v", err)
	}
	return msg
}

// WaitForOnlineUsers waits for the next "updateOnlineUsers" event and decodes
// its payload.
func WaitForOnlineUsers(t *testing.T, conn *websocket.Conn, timeout time.Duration) []server.OnlineUser {
	t.Helper()

	envelope := WaitForEvent(t, conn, server.EventUpdateOnlineUsers, timeout)
	var users []server.OnlineUser
	if err := json.Unmarshal(envelope.Data, &users); err != nil {
		t.Fatalf("Failed to decode online users: %v", err)
	}
	return users
}

// AssertNoEvent fails the test if any envelope arrives within the window.
func AssertNoEvent(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	envelope, err := ReadEnvelope(conn, window)
	if err == nil {
		t.Fatalf("Expected no event but received %q", envelope.Event)
	}
	var netErr interface{ Timeout() bool }
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("Expected read timeout, got: %v", err)
	}
}

// Usernames extracts the username column from an online-user list.
func Usernames(users []server.OnlineUser) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
