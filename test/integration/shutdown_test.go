package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areachat/server/internal/server"
	"github.com/areachat/server/test/testhelpers"
)

func TestHubShutdownClosesClientConnections(t *testing.T) {
	srv, wsURL := testhelpers.StartTestServer(t)

	conn := testhelpers.MustConnect(t, wsURL)
	testhelpers.Register(t, conn, "alice", "Downtown")
	testhelpers.WaitForOnlineUsers(t, conn, eventTimeout)

	require.NoError(t, srv.Hub().Shutdown(2*time.Second))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(eventTimeout)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection is closed by hub shutdown")
}

func TestServerRunStopsOnContextCancel(t *testing.T) {
	cfg := server.NewConfig()
	cfg.Port = ":0"
	cfg.ShutdownTimeout = 2 * time.Second
	srv := server.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
