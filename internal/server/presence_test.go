package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAllFiltersByRegionCaseInsensitively(t *testing.T) {
	hub := NewHub(NewConfig())
	nyc := attachTestClient(hub, "conn-nyc")
	nycLower := attachTestClient(hub, "conn-nyc-lower")
	uptown := attachTestClient(hub, "conn-uptown")

	hub.registry.Register("conn-nyc", "alice", "NYC")
	hub.registry.Register("conn-nyc-lower", "bob", "nyc")
	hub.registry.Register("conn-uptown", "carol", "Uptown")

	hub.presence.PublishAll()

	for _, c := range []*Client{nyc, nycLower} {
		updates := eventsOf(drainEnvelopes(t, c), EventUpdateOnlineUsers)
		require.Len(t, updates, 1)
		users := decodeOnlineUsers(t, updates[0])
		require.Len(t, users, 2, "NYC and nyc count together")

		regions := []string{users[0].Region, users[1].Region}
		assert.ElementsMatch(t, []string{"NYC", "nyc"}, regions, "original casing preserved for display")
	}

	updates := eventsOf(drainEnvelopes(t, uptown), EventUpdateOnlineUsers)
	require.Len(t, updates, 1)
	users := decodeOnlineUsers(t, updates[0])
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)
}

func TestPublishAllSkipsUnregisteredConnections(t *testing.T) {
	hub := NewHub(NewConfig())
	registered := attachTestClient(hub, "conn-1")
	pending := attachTestClient(hub, "conn-2")

	hub.registry.Register("conn-1", "alice", "Downtown")

	hub.presence.PublishAll()

	assert.Len(t, eventsOf(drainEnvelopes(t, registered), EventUpdateOnlineUsers), 1)
	assert.Empty(t, drainEnvelopes(t, pending), "no partial or empty update for unregistered connections")
}

func TestPublishAllReflectsRegistryAtCallTime(t *testing.T) {
	hub := NewHub(NewConfig())
	watcher := attachTestClient(hub, "conn-1")
	hub.registry.Register("conn-1", "alice", "Downtown")
	hub.registry.Register("conn-2", "bob", "Downtown")

	hub.presence.PublishAll()
	hub.registry.Unregister("conn-2")
	hub.presence.PublishAll()

	updates := eventsOf(drainEnvelopes(t, watcher), EventUpdateOnlineUsers)
	require.Len(t, updates, 2)

	assert.Len(t, decodeOnlineUsers(t, updates[0]), 2)
	assert.Len(t, decodeOnlineUsers(t, updates[1]), 1, "second publish recomputed from current registry state")
}
