// Package server derives and publishes per-region online-user lists via the
// PresencePublisher type.
package server

import (
	"log"
	"strings"
)

// PresencePublisher pushes the current online-user list to every registered
// connection. Each recipient gets the subset of sessions whose region matches
// its own, compared case-insensitively, so "NYC" and "nyc" group together
// while both keep their original spelling for display.
type PresencePublisher struct {
	hub      *Hub
	registry *SessionRegistry
}

func newPresencePublisher(hub *Hub, registry *SessionRegistry) *PresencePublisher {
	return &PresencePublisher{hub: hub, registry: registry}
}

// PublishAll recomputes the online list from the registry and unicasts a
// filtered copy to each registered connection. Connections that have not
// registered receive nothing. The list is always derived from registry state
// at call time, never cached, so it reflects the join or leave that triggered
// the publish.
func (p *PresencePublisher) PublishAll() {
	sessions := p.registry.Snapshot()

	var failed []*Client
	for _, client := range p.hub.clientSnapshot() {
		session, ok := p.registry.Lookup(client.id)
		if !ok {
			continue
		}

		users := make([]OnlineUser, 0, len(sessions))
		for _, s := range sessions {
			if strings.EqualFold(s.Region, session.Region) {
				users = append(users, OnlineUser{Username: s.Username, Region: s.Region})
			}
		}

		payload, err := marshalEnvelope(EventUpdateOnlineUsers, users)
		if err != nil {
			log.Printf("Error encoding presence update: %v", err)
			return
		}
		if !p.hub.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}
	p.hub.removeFailedClients(failed)
}
