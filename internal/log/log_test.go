package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":       slog.LevelInfo,
		"info":   slog.LevelInfo,
		" DEBUG": slog.LevelDebug,
		"warn":   slog.LevelWarn,
		"error":  slog.LevelError,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestConfigureFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "nested", "rain.log")
	closer, err := Configure("debug", path)
	require.NoError(t, err)

	slog.Debug("capture started", "iface", "eth0")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "capture started")
	assert.Contains(t, string(data), "iface=eth0")
}

func TestConfigureRejectsBadLevel(t *testing.T) {
	_, err := Configure("loud", "")
	assert.Error(t, err)
}
