// Package server coordinates connection lifecycle, chat broadcast, and
// presence updates for the AreaChat WebSocket system via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"
)

// Hub owns the set of open WebSocket connections and drives the per-connection
// lifecycle: attach, register, chat, disconnect. All lifecycle events funnel
// through the hub's run loop, so transitions for different connections are
// serialized against the shared session registry while each connection's own
// events keep their arrival order.
type Hub struct {
	clients  map[*Client]bool
	registry *SessionRegistry
	router   *MessageRouter
	presence *PresencePublisher

	attach chan *Client
	detach chan *Client
	events chan clientEvent

	cfg    Config
	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// clientEvent is one decoded inbound envelope paired with its origin.
type clientEvent struct {
	client   *Client
	envelope Envelope
}

// NewHub creates a Hub wired to a fresh session registry, message router, and
// presence publisher. The returned Hub is ready to accept connections once
// Run is started.
func NewHub(cfg Config) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:  make(map[*Client]bool),
		registry: NewSessionRegistry(),
		attach:   make(chan *Client),
		detach:   make(chan *Client),
		events:   make(chan clientEvent),
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	h.router = newMessageRouter(h)
	h.presence = newPresencePublisher(h, h.registry)
	return h
}

// Registry returns the hub's session registry.
func (h *Hub) Registry() *SessionRegistry {
	return h.registry
}

// Run starts the hub's main event loop, handling connection attachment,
// lifecycle events, and disconnection. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.attach:
			if client == nil {
				log.Printf("Received nil client attachment; skipping")
				continue
			}
			h.attachClient(client)

		case client := <-h.detach:
			h.handleDisconnect(client)

		case event := <-h.events:
			h.dispatchEvent(event)
		}
	}
}

// attachClient adds a new connection in the Connected state and starts its
// read/write pumps.
func (h *Hub) attachClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	log.Printf("Client %s connected from %s. Total clients: %d", client.id, client.addr, clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// dispatchEvent routes one inbound event through the connection state
// machine. Unknown events are dropped; the connection stays open.
func (h *Hub) dispatchEvent(event clientEvent) {
	switch event.envelope.Event {
	case EventRegister:
		h.handleRegister(event.client, event.envelope.Data)
	case EventSendMessage:
		h.handleSendMessage(event.client, event.envelope.Data)
	default:
		log.Printf("Dropping unsupported event %q from %s", event.envelope.Event, event.client.addr)
	}
}

// handleRegister runs the Connected -> Registered transition: record the
// session, announce the join, and push fresh presence lists. Registrations
// with an empty trimmed username or region are dropped without side effects.
func (h *Hub) handleRegister(client *Client, data json.RawMessage) {
	var payload RegisterPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Invalid register payload from %s: %v", client.addr, err)
		return
	}

	username := strings.TrimSpace(payload.Username)
	region := strings.TrimSpace(payload.Region)
	if username == "" || region == "" {
		log.Printf("Dropping registration with empty username or region from %s", client.addr)
		return
	}

	h.registry.Register(client.id, username, region)
	log.Printf("Client %s registered as %q in region %q", client.id, username, region)

	h.router.BroadcastSystemNotice(username+" has joined the "+region+" area chat", region)
	h.presence.PublishAll()
}

// handleSendMessage runs the Registered -> Registered send transition. A send
// from a connection that never registered has no session to attribute it to
// and is ignored. Message fields are relayed verbatim from the client.
func (h *Hub) handleSendMessage(client *Client, data json.RawMessage) {
	if _, ok := h.registry.Lookup(client.id); !ok {
		log.Printf("Dropping message from unregistered client %s", client.id)
		return
	}

	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Invalid message payload from %s: %v", client.addr, err)
		return
	}

	h.router.BroadcastChat(msg)
}

// handleDisconnect runs the terminal transition for either state. Only a
// disconnect that actually removed a session announces the leave and
// republishes presence; an unregistered connection detaches silently.
func (h *Hub) handleDisconnect(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.closed = true
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if !ok {
		return
	}
	close(client.send)
	log.Printf("Client %s disconnected from %s. Total clients: %d", client.id, client.addr, clientCount)

	session, registered := h.registry.Unregister(client.id)
	if !registered {
		return
	}

	h.router.BroadcastSystemNotice(session.Username+" has left the chat", session.Region)
	h.presence.PublishAll()
}

// safeSend attempts a non-blocking delivery to one client. It reports failure
// instead of blocking so a slow or closed recipient never stalls delivery to
// the rest.
func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// clientSnapshot returns a thread-safe snapshot of all current clients.
func (h *Hub) clientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// removeFailedClients drops clients that failed to receive a delivery and
// closes their send channels. Their sessions are purged so the next presence
// publish no longer lists them.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	var removed []*Client
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			removed = append(removed, client)
			log.Printf("Client %s removed due to full send buffer", client.id)
		}
	}
	h.mutex.Unlock()

	// Close the channels after releasing the lock
	for _, ch := range channelsToClose {
		close(ch)
	}
	for _, client := range removed {
		h.registry.Unregister(client.id)
	}
}

// shutdownClients closes all active client connections during shutdown.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all
// connection goroutines to finish, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
