package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndSnapshot(t *testing.T) {
	registry := NewSessionRegistry()

	registry.Register("conn-1", "alice", "Downtown")

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, Session{Username: "alice", Region: "Downtown"}, snapshot[0])

	session, ok := registry.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, "Downtown", session.Region)
}

func TestRegistryReRegisterLastWriteWins(t *testing.T) {
	registry := NewSessionRegistry()

	registry.Register("conn-1", "alice", "Downtown")
	registry.Register("conn-1", "alicia", "Uptown")

	require.Equal(t, 1, registry.Len())
	session, ok := registry.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, "alicia", session.Username)
	assert.Equal(t, "Uptown", session.Region)
}

func TestRegistryUnregisterReturnsSession(t *testing.T) {
	registry := NewSessionRegistry()
	registry.Register("conn-1", "alice", "Downtown")

	session, ok := registry.Unregister("conn-1")
	require.True(t, ok)
	assert.Equal(t, "alice", session.Username)

	_, ok = registry.Lookup("conn-1")
	assert.False(t, ok)
	assert.Empty(t, registry.Snapshot())
}

func TestRegistryUnregisterUnknownConnectionIsNoOp(t *testing.T) {
	registry := NewSessionRegistry()

	_, ok := registry.Unregister("never-registered")
	assert.False(t, ok)

	// A second unregister of the same id is equally harmless.
	_, ok = registry.Unregister("never-registered")
	assert.False(t, ok)
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	registry := NewSessionRegistry()
	registry.Register("conn-1", "alice", "Downtown")

	snapshot := registry.Snapshot()
	registry.Register("conn-2", "bob", "Uptown")

	assert.Len(t, snapshot, 1, "snapshot taken before the second register must not grow")
	assert.Len(t, registry.Snapshot(), 2)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewSessionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", n)
			registry.Register(id, "user", "region")
			registry.Snapshot()
			if n%2 == 0 {
				registry.Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, registry.Len())
}
