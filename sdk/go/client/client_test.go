package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/skill"
	"github.com/zeusync/skilltree/internal/server/debugws"
)

func startHub(t *testing.T) (*debugws.Hub, Config) {
	t.Helper()
	hub := debugws.NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig()
	cfg.ServerAddr = strings.TrimPrefix(srv.URL, "http://")
	return hub, cfg
}

func TestClientReceivesVisuals(t *testing.T) {
	hub, cfg := startHub(t)
	c := NewClient(cfg)

	circles := make(chan skill.DebugCircle, 1)
	polygons := make(chan skill.DebugPolygon, 1)
	c.OnCircle(func(m skill.DebugCircle) error { circles <- m; return nil })
	c.OnPolygon(func(m skill.DebugPolygon) error { polygons <- m; return nil })

	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	circle := skill.DebugCircle{EntityID: 9, TTLMillis: 2000, Radius: 2, Center: mgl64.Vec2{1, 1}}
	polygon := skill.DebugPolygon{EntityID: 9, TTLMillis: 2000, Vertices: []mgl64.Vec2{{0, 0}, {2, 0}, {0, 2}}}
	require.NoError(t, hub.Broadcast(circle))
	require.NoError(t, hub.Broadcast(polygon))

	select {
	case got := <-circles:
		assert.Equal(t, circle, got)
	case <-time.After(time.Second):
		t.Fatal("no circle received")
	}
	select {
	case got := <-polygons:
		assert.Equal(t, polygon, got)
	case <-time.After(time.Second):
		t.Fatal("no polygon received")
	}
}

func TestClientLifecycle(t *testing.T) {
	hub, cfg := startHub(t)
	c := NewClient(cfg)

	disconnected := make(chan struct{}, 1)
	c.OnEvent(EventTypeDisconnected, func(Event) error { disconnected <- struct{}{}; return nil })

	assert.ErrorIs(t, c.Disconnect(), ErrNotConnected)
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.IsConnected())
	assert.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyConnected)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Close()

	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("no disconnect event")
	}
	require.Eventually(t, func() bool { return !c.IsConnected() }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Connect(context.Background()), ErrClientClosed)
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
}

func TestClientRejectsEmptyAddress(t *testing.T) {
	c := NewClient(Config{})
	assert.ErrorIs(t, c.Connect(context.Background()), ErrInvalidConfig)
}

func TestClientLogsThroughConfiguredLogger(t *testing.T) {
	hub, cfg := startHub(t)
	core, logs := observer.New(zapcore.DebugLevel)
	cfg.Logger = log.FromZap(zap.New(core))

	c := NewClient(cfg)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	entries := logs.FilterMessage("Connecting to debug stream").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "debug_client", entries[0].ContextMap()["component"])
}
