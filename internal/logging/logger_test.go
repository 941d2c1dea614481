package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"trace": TRACE,
		"DEBUG": DEBUG,
		"":      INFO,
		"warn":  WARN,
		"Error": ERROR,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithOptions("ship", Options{Level: WARN, Console: &buf})
	require.NoError(t, err)

	logger.Info("скрытое сообщение %d", 1)
	logger.Warn("корабль %s затонул", "abc")

	out := buf.String()
	assert.NotContains(t, out, "скрытое")
	assert.Contains(t, out, "корабль abc затонул")
	assert.Contains(t, out, "ship")
}

func TestLoggerFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, err := NewLoggerWithOptions("fleet", Options{Level: DEBUG, Console: &buf, Dir: dir})
	require.NoError(t, err)

	logger.With("ship", "s1").Debug("tick %d", 7)
	require.NoError(t, logger.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ship":"s1"`)
	assert.Contains(t, string(data), `"message":"tick 7"`)
}

func TestLoggerManager(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: INFO, Console: &buf})
	t.Cleanup(func() { Configure(Options{Level: INFO}) })

	lm := newLoggerManager()
	require.NoError(t, lm.ApplyLevels(map[string]string{"fleet": "error", "sync": "debug"}))

	fleet := lm.MustGetLogger("fleet")
	syncLog := lm.MustGetLogger("sync")
	ship := lm.MustGetLogger("ship")
	assert.Same(t, fleet, lm.MustGetLogger("fleet"))
	assert.Equal(t, []string{"fleet", "ship", "sync"}, lm.Components())

	fleet.Warn("fleet warn")
	syncLog.Debug("sync debug")
	ship.Debug("ship debug")
	out := buf.String()
	assert.NotContains(t, out, "fleet warn")
	assert.Contains(t, out, "sync debug")
	assert.NotContains(t, out, "ship debug")

	t.Run("BadLevel", func(t *testing.T) {
		err := lm.ApplyLevels(map[string]string{"ship": "loud", "world": "warn"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ship")
	})

	t.Run("CloseAll", func(t *testing.T) {
		require.NoError(t, lm.CloseAll())
		assert.Empty(t, lm.Components())
		assert.NotSame(t, fleet, lm.MustGetLogger("fleet"))
	})
}
