package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ships.yaml")
	data := []byte(`
simulation:
  tick_rate: 10
  water_level: 32
  collisions: false
  save_every_ticks: 100
storage:
  dir: /tmp/ships
eventbus:
  url: nats://127.0.0.1:4222
  stream: SHIPS
telemetry:
  enabled: true
log:
  level: debug
  components:
    fleet: trace
materials: materials.yaml
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Simulation.GetTickRate())
	assert.Equal(t, 100*time.Millisecond, cfg.Simulation.GetTickInterval())
	assert.Equal(t, 32, cfg.Simulation.GetWaterLevel())
	assert.False(t, cfg.Simulation.CollisionsEnabled())
	assert.Equal(t, 100, cfg.Simulation.SaveEvery)
	assert.Equal(t, "/tmp/ships", cfg.Storage.GetDir())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.EventBus.GetURL())
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "debug", cfg.Log.GetLevel())
	assert.Equal(t, map[string]string{"fleet": "trace"}, cfg.Log.Components)
	assert.Equal(t, "materials.yaml", cfg.Materials)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ships.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  tick_rate: 5\n"), 0o644))
	t.Setenv("SHIPS_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Simulation.GetTickRate())
}

func TestDefaultsAndEnvFallback(t *testing.T) {
	t.Setenv("SHIPS_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	t.Run("Defaults", func(t *testing.T) {
		assert.Equal(t, 20, cfg.Simulation.GetTickRate())
		assert.Equal(t, 64, cfg.Simulation.GetWaterLevel())
		assert.Equal(t, 4096, cfg.Simulation.GetMaxBlocks())
		assert.True(t, cfg.Simulation.CollisionsEnabled())
		assert.Equal(t, "data", cfg.Storage.GetDir())
		assert.Equal(t, ":2112", cfg.Metrics.GetAddr())
		assert.Equal(t, 24*time.Hour, cfg.EventBus.GetRetention())
		assert.Equal(t, "shipsim", cfg.EventBus.GetSource())
		assert.Equal(t, 512, cfg.EventBus.GetBlockBatch())
		assert.Equal(t, 250*time.Millisecond, cfg.EventBus.GetBlockFlush())
		assert.Equal(t, "voxel-ships", cfg.Telemetry.GetServiceName())
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv("SHIPS_WATER_LEVEL", "40")
		t.Setenv("SHIPS_REDIS_ADDR", "redis:6379")
		t.Setenv("SHIPS_TICK_RATE", "not a number")

		assert.Equal(t, 40, cfg.Simulation.GetWaterLevel())
		assert.Equal(t, "redis:6379", cfg.Redis.GetAddr())
		assert.Equal(t, 20, cfg.Simulation.GetTickRate(), "мусор в env игнорируется")
	})
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
