// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	pingInterval  = 54 * time.Second
)

// Client represents one open WebSocket connection. The server-assigned id is
// the key under which the session registry tracks any registration made on
// this connection; it is never sent to the client.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig
}

// NewClient creates a Client for an accepted connection. The send channel is
// buffered so broadcasts never block on an individual recipient.
func NewClient(id string, conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
	}
}

// GetSendChan returns the client's send channel for reading outgoing messages.
// This channel is read-only from the caller's perspective.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

// handleReadError logs appropriate error messages based on the error type
// and returns true if the read loop should break
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		log.Printf("Message from %s exceeded maximum size of %d bytes", c.addr, c.maxMessageSize)
		return true
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		log.Printf("Client %s disconnected: %v", c.addr, err)
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		log.Printf("Client %s connection closed: %v", c.addr, err)
		return true
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		log.Printf("Unexpected WebSocket error from %s: %v", c.addr, err)
		return true
	}

	log.Printf("WebSocket read error from %s: %v", c.addr, err)
	return true
}

// checkRateLimit verifies if the client has exceeded rate limits
// and returns true if the message should be processed
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		log.Printf("Rate limit exceeded for %s (%d events per %s); discarding event", c.addr, c.rateLimit.Burst, c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// forwardEvent decodes an inbound envelope and hands it to the hub's event
// loop, which applies the lifecycle state machine. Malformed frames and
// frames without an event name are dropped; the connection stays open.
func (c *Client) forwardEvent(rawMessage []byte) bool {
	var envelope Envelope
	if err := json.Unmarshal(rawMessage, &envelope); err != nil {
		log.Printf("Invalid frame from %s: %v", c.addr, err)
		return false
	}
	if envelope.Event == "" {
		log.Printf("Frame without event name from %s; dropping", c.addr)
		return false
	}

	select {
	case c.hub.events <- clientEvent{client: c, envelope: envelope}:
		return true
	case <-c.hub.ctx.Done():
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		// The hub may already be gone during shutdown; never block on detach.
		select {
		case c.hub.detach <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("Error closing connection in readPump: %v", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if c.handleReadError(err) {
				break
			}
			continue
		}

		if !c.checkRateLimit() {
			continue
		}

		c.forwardEvent(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing. Hub shutdown stops the pump directly so a
// quiet connection does not hold up the shutdown wait.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	case <-c.hub.ctx.Done():
		return false
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		log.Printf("Error setting write deadline for %s: %v", c.addr, err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	// Each envelope goes out as its own text frame so the client can decode
	// frames one JSON document at a time.
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		log.Printf("Error writing message to %s: %v", c.addr, err)
		return false
	}
	return true
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close message to %s: %v", c.addr, err)
		}
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		log.Printf("Error writing ping message to %s: %v", c.addr, err)
		return false
	}
	return true
}
