package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/skilltree/internal/core/observability/log"
)

func TestReadOverridesDefaults(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
log:
  level: debug
  development: true
assets:
  dir: /srv/trees
  colliders: /srv/colliders.yaml
debug:
  enabled: true
  ttl: 1500ms
simulation:
  tick_interval: 16ms
`))
	require.NoError(t, err)
	assert.Equal(t, "/srv/trees", cfg.Assets.Dir)
	assert.Equal(t, "/srv/colliders.yaml", cfg.Assets.Colliders)
	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.Debug.TTL)
	assert.Equal(t, ":8090", cfg.Debug.Listen)
	assert.Equal(t, 16*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, log.Config{Level: log.LevelDebug, Development: true}, cfg.Logger())
}

func TestReadEmptyIsDefault(t *testing.T) {
	cfg, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestReadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "logging: {level: info}",
		"bad level":     "log: {level: loud}",
		"empty dir":     "assets: {dir: ''}",
		"zero interval": "simulation: {tick_interval: 0s}",
		"no listen":     "debug: {enabled: true, listen: ''}",
		"bad duration":  "debug: {ttl: soon}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assets: {dir: trees}\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "trees", cfg.Assets.Dir)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
