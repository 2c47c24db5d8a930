package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(InterfaceEnv, "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 250*time.Millisecond, cfg.CaptureTimeout())
	assert.Equal(t, time.Minute, cfg.DegradedInterval())
	assert.Equal(t, 200*time.Millisecond, cfg.IdleFade())
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	t.Setenv(InterfaceEnv, "")
	path := writeFile(t, `
interface: eth1
selector: score
capture:
  engine: afpacket
  timeout: 1s
bar:
  framerate: 30
metrics:
  listen_addr: 127.0.0.1:9300
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "eth1", cfg.Interface)
	assert.Equal(t, "score", cfg.Selector)
	assert.Equal(t, "afpacket", cfg.Capture.Engine)
	assert.Equal(t, time.Second, cfg.CaptureTimeout())
	assert.Equal(t, 30, cfg.Bar.Framerate)
	assert.Equal(t, "127.0.0.1:9300", cfg.Metrics.ListenAddr)
	// Untouched fields keep their defaults.
	assert.Equal(t, int32(1600), cfg.Capture.SnapshotLen)
	assert.Equal(t, 10000, cfg.Events.Capacity)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	t.Setenv(InterfaceEnv, "wlan0")
	path := writeFile(t, "interface: eth1\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "wlan0", cfg.Interface)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv(InterfaceEnv, "")
	for name, body := range map[string]string{
		"selector": "selector: fastest\n",
		"source":   "source: kafka\n",
		"engine":   "capture:\n  engine: dpdk\n",
		"timeout":  "capture:\n  timeout: soon\n",
		"negative": "bar:\n  degraded_interval: -1s\n",
		"rate":     "bar:\n  framerate: 0\n",
		"yaml":     "capture: [unclosed\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, body))
			assert.Error(t, err)
		})
	}
}
