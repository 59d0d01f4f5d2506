package debugws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/skilltree/internal/core/skill"
)

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path

	a, b := dial(t, url), dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Broadcast(skill.DebugCircle{EntityID: 3, TTLMillis: 2000, Radius: 1.5, Center: mgl64.Vec2{4, 5}}))
	require.NoError(t, hub.Broadcast(skill.DebugPolygon{EntityID: 3, TTLMillis: 2000, Vertices: []mgl64.Vec2{{0, 0}, {1, 0}, {0, 1}}}))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

		var first received
		require.NoError(t, conn.ReadJSON(&first))
		assert.Equal(t, "circle", first.Type)
		var circle skill.DebugCircle
		require.NoError(t, json.Unmarshal(first.Data, &circle))
		assert.Equal(t, skill.DebugCircle{EntityID: 3, TTLMillis: 2000, Radius: 1.5, Center: mgl64.Vec2{4, 5}}, circle)

		var second received
		require.NoError(t, conn.ReadJSON(&second))
		assert.Equal(t, "polygon", second.Type)
		assert.JSONEq(t, `{"entity_id":3,"ttl_ms":2000,"vertices":[[0,0],[1,0],[0,1]]}`, string(second.Data))
	}
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)

	assert.NoError(t, hub.Broadcast(skill.DebugCircle{EntityID: 1}))
}

func TestHubClose(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServerStartStop(t *testing.T) {
	hub := NewHub(nil)
	s := NewServer("127.0.0.1:0", hub, nil)
	addr, err := s.Start()
	require.NoError(t, err)

	conn := dial(t, "ws://"+addr.String()+Path)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
