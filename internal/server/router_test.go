package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastChatIncludesSender(t *testing.T) {
	hub := NewHub(NewConfig())
	sender := attachTestClient(hub, "conn-1")
	receiver := attachTestClient(hub, "conn-2")

	msg := ChatMessage{Text: "hello", Username: "alice", Region: "Downtown", Timestamp: "2026-08-29T09:00:00Z"}
	hub.router.BroadcastChat(msg)

	for _, c := range []*Client{sender, receiver} {
		messages := eventsOf(drainEnvelopes(t, c), EventMessage)
		require.Len(t, messages, 1)
		assert.Equal(t, msg, decodeChat(t, messages[0]))
	}
}

func TestBroadcastSystemNoticeStampsSystemFields(t *testing.T) {
	hub := NewHub(NewConfig())
	client := attachTestClient(hub, "conn-1")

	fixed := time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC)
	hub.router.now = func() time.Time { return fixed }

	hub.router.BroadcastSystemNotice("alice has joined the Downtown area chat", "Downtown")

	messages := eventsOf(drainEnvelopes(t, client), EventMessage)
	require.Len(t, messages, 1)

	msg := decodeChat(t, messages[0])
	assert.Equal(t, SystemUsername, msg.Username)
	assert.Equal(t, "Downtown", msg.Region)
	assert.Equal(t, "alice has joined the Downtown area chat", msg.Text)
	assert.Equal(t, "2026-08-29T12:30:00Z", msg.Timestamp)
}

func TestBroadcastDropsOnlyFailedRecipients(t *testing.T) {
	hub := NewHub(NewConfig())
	healthy := attachTestClient(hub, "conn-1")
	stuck := attachTestClient(hub, "conn-2")

	// Fill the stuck client's buffer so the next delivery to it fails.
	for i := 0; i < cap(stuck.send); i++ {
		require.True(t, hub.safeSend(stuck, []byte("backlog")))
	}

	hub.router.BroadcastChat(ChatMessage{Text: "hi", Username: "alice", Region: "Downtown"})

	messages := eventsOf(drainEnvelopes(t, healthy), EventMessage)
	assert.Len(t, messages, 1, "healthy recipient unaffected by the stuck one")

	assert.False(t, hub.safeSend(stuck, []byte("x")), "stuck client was removed from the hub")
}
