package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// InterfaceEnv names the environment variable that overrides the monitored interface.
const InterfaceEnv = "TRAFFIC_IFACE"

// CaptureConfig controls how the frame source is opened.
type CaptureConfig struct {
	Engine      string `yaml:"engine"` // "pcap" or "afpacket"
	SnapshotLen int32  `yaml:"snapshot_len"`
	Promiscuous bool   `yaml:"promiscuous"`
	// Timeout bounds a single read so the capture goroutine can notice shutdown.
	Timeout string `yaml:"timeout"`
	// BPFFilter is applied to pcap handles when non-empty.
	BPFFilter string `yaml:"bpf_filter"`
}

// EventsConfig sizes the queue between capture and presentation.
type EventsConfig struct {
	Capacity int `yaml:"capacity"`
}

// BarConfig holds settings for the textual front end.
type BarConfig struct {
	Framerate        int    `yaml:"framerate"`
	SpeedEveryTicks  int    `yaml:"speed_every_ticks"`
	Class            string `yaml:"class"`
	DegradedInterval string `yaml:"degraded_interval"`
}

// ParticlesConfig holds settings for the particle front end.
type ParticlesConfig struct {
	MaxParticles int `yaml:"max_particles"`
	// CellWidth and CellHeight give the size of one terminal cell in simulation pixels.
	CellWidth  int    `yaml:"cell_width"`
	CellHeight int    `yaml:"cell_height"`
	Framerate  int    `yaml:"framerate"`
	IdleFade   string `yaml:"idle_fade"`
}

// NATSConfig configures the optional event relay.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	Path       string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	// Interface forces the monitored interface. TRAFFIC_IFACE takes precedence.
	Interface string `yaml:"interface"`
	// Selector picks the automatic interface heuristic: "traffic" or "score".
	// Empty lets each front end use its own default.
	Selector string `yaml:"selector"`
	// Source is "capture" (open a local capture handle) or "nats" (consume
	// events published by rain-probe).
	Source string `yaml:"source"`

	Capture   CaptureConfig   `yaml:"capture"`
	Events    EventsConfig    `yaml:"events"`
	Bar       BarConfig       `yaml:"bar"`
	Particles ParticlesConfig `yaml:"particles"`
	NATS      NATSConfig      `yaml:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Source: "capture",
		Capture: CaptureConfig{
			Engine:      "pcap",
			SnapshotLen: 1600,
			Promiscuous: true,
			Timeout:     "250ms",
		},
		Events: EventsConfig{Capacity: 10000},
		Bar: BarConfig{
			Framerate:        60,
			SpeedEveryTicks:  30,
			Class:            "traffic-rain",
			DegradedInterval: "60s",
		},
		Particles: ParticlesConfig{
			MaxParticles: 2000,
			CellWidth:    8,
			CellHeight:   16,
			Framerate:    60,
			IdleFade:     "200ms",
		},
		NATS: NATSConfig{
			URL:     "nats://127.0.0.1:4222",
			Subject: "trafficrain.events",
		},
		Metrics: MetricsConfig{Path: "/metrics"},
		Log:     LogConfig{Level: "info"},
	}
}

// LoadConfig reads the configuration from a YAML file on top of Default().
// A missing file is not an error. The interface override from the
// environment is applied last.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
			}
		}
	}

	if name := strings.TrimSpace(os.Getenv(InterfaceEnv)); name != "" {
		cfg.Interface = name
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and durations.
func (c *Config) Validate() error {
	switch c.Selector {
	case "", "traffic", "score":
	default:
		return fmt.Errorf("invalid selector %q: must be 'traffic' or 'score'", c.Selector)
	}
	switch c.Source {
	case "capture", "nats":
	default:
		return fmt.Errorf("invalid source %q: must be 'capture' or 'nats'", c.Source)
	}
	switch c.Capture.Engine {
	case "pcap", "afpacket":
	default:
		return fmt.Errorf("invalid capture engine %q: must be 'pcap' or 'afpacket'", c.Capture.Engine)
	}
	if c.Bar.Framerate <= 0 || c.Particles.Framerate <= 0 {
		return fmt.Errorf("framerate must be positive")
	}
	if c.Particles.CellWidth <= 0 || c.Particles.CellHeight <= 0 {
		return fmt.Errorf("particle cell size must be positive")
	}
	for name, d := range map[string]string{
		"capture.timeout":       c.Capture.Timeout,
		"bar.degraded_interval": c.Bar.DegradedInterval,
		"particles.idle_fade":   c.Particles.IdleFade,
	} {
		if _, err := parsePositive(d); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// CaptureTimeout returns the parsed capture read timeout.
func (c *Config) CaptureTimeout() time.Duration {
	d, _ := parsePositive(c.Capture.Timeout)
	return d
}

// DegradedInterval returns how often the degraded indicator is re-emitted.
func (c *Config) DegradedInterval() time.Duration {
	d, _ := parsePositive(c.Bar.DegradedInterval)
	return d
}

// IdleFade returns how long after the last event the particle canvas dims.
func (c *Config) IdleFade() time.Duration {
	d, _ := parsePositive(c.Particles.IdleFade)
	return d
}

func parsePositive(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
