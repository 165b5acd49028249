// Package server fans chat traffic out to connections via the MessageRouter
// type.
package server

import (
	"log"
	"time"
)

// MessageRouter delivers chat events and system notices to connections. Chat
// broadcast is deliberately region-agnostic: every open connection receives
// every "message" event verbatim, sender included, and region scoping of the
// display happens client-side. Delivery is best effort; a recipient that is
// closed or cannot keep up is dropped without affecting the others.
type MessageRouter struct {
	hub *Hub
	now func() time.Time
}

func newMessageRouter(hub *Hub) *MessageRouter {
	return &MessageRouter{hub: hub, now: time.Now}
}

// BroadcastChat delivers msg to every currently open connection, including
// the sender, with all fields unchanged.
func (rt *MessageRouter) BroadcastChat(msg ChatMessage) {
	payload, err := marshalEnvelope(EventMessage, msg)
	if err != nil {
		log.Printf("Error encoding message event: %v", err)
		return
	}

	clients := rt.hub.clientSnapshot()
	log.Printf("Broadcasting message from %q to %d clients", msg.Username, len(clients))

	var failed []*Client
	for _, client := range clients {
		if !rt.hub.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}
	rt.hub.removeFailedClients(failed)
}

// BroadcastSystemNotice builds a synthetic ChatMessage attributed to the
// System user, stamped at call time, and sends it through the same unfiltered
// path as regular chat. Used for join and leave notices.
func (rt *MessageRouter) BroadcastSystemNotice(text, region string) {
	rt.BroadcastChat(ChatMessage{
		Text:      text,
		Username:  SystemUsername,
		Region:    region,
		Timestamp: rt.now().UTC().Format(time.RFC3339),
	})
}
