// Package app holds the startup sequence shared by the executables.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"TrafficRain/internal/config"
	"TrafficRain/internal/engine/protocol"
	"TrafficRain/internal/events"
	"TrafficRain/internal/iface"
	rainlog "TrafficRain/internal/log"
	"TrafficRain/internal/metrics"
	"TrafficRain/internal/probe"

	"github.com/prometheus/client_golang/prometheus"
)

// Flags are the command-line options common to every executable.
type Flags struct {
	ConfigPath string
	Interface  string
	LogLevel   string
}

// RegisterFlags binds the common flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "configs/config.yaml", "Path to the YAML configuration file.")
	fs.StringVar(&f.Interface, "iface", "", "Interface to monitor (TRAFFIC_IFACE takes precedence).")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: "+rainlog.SupportedLevels+".")
	return f
}

// Setup loads the configuration and installs the logger. A log file of "-"
// selects the default file for logName; so does an empty one when
// preferFile is set, for front ends that own the terminal.
func Setup(f *Flags, logName string, preferFile bool) (*config.Config, io.Closer, error) {
	cfg, err := config.LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if f.Interface != "" && strings.TrimSpace(os.Getenv(config.InterfaceEnv)) == "" {
		cfg.Interface = f.Interface
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if cfg.Log.File == "-" || (preferFile && cfg.Log.File == "") {
		cfg.Log.File = rainlog.DefaultFile(logName)
	}
	closer, err := rainlog.Configure(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

// StartMetrics registers the collectors and, when a listen address is
// configured, serves them until ctx is done. It returns nil metrics when
// the endpoint is disabled.
func StartMetrics(ctx context.Context, cfg config.MetricsConfig) *metrics.Metrics {
	if cfg.ListenAddr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	go func() {
		if err := metrics.Serve(ctx, cfg.ListenAddr, cfg.Path, reg); err != nil {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()
	return m
}

// ErrCaptureUnavailable wraps failures to open the live frame source.
var ErrCaptureUnavailable = errors.New("capture unavailable")

// Pipeline is a running producer feeding an event channel.
type Pipeline struct {
	Events    *events.Channel
	Interface iface.Candidate
	close     func()
}

// Close stops the producer.
func (p *Pipeline) Close() {
	if p.close != nil {
		p.close()
	}
}

// StartPipeline chooses the interface and starts the configured event
// producer. Interface selection errors wrap iface.ErrNotFound or
// iface.ErrNoInterface; capture failures wrap ErrCaptureUnavailable.
func StartPipeline(ctx context.Context, cfg *config.Config, lister iface.Lister, def iface.Strategy, m *metrics.Metrics) (*Pipeline, error) {
	strategy, err := iface.ParseStrategy(cfg.Selector, def)
	if err != nil {
		return nil, err
	}
	cand, err := iface.Select(lister, cfg.Interface, strategy)
	if err != nil {
		if cfg.Source != "nats" {
			return nil, err
		}
		slog.Warn("no local interface for counters", "error", err)
	} else {
		slog.Info("selected interface", "interface", cand.Name, "strategy", strategy, "addrs", len(cand.Addrs))
	}

	ch := events.NewChannel(cfg.Events.Capacity)
	p := &Pipeline{Events: ch, Interface: cand}

	if cfg.Source == "nats" {
		sub, err := probe.NewSubscriber(cfg.NATS)
		if err != nil {
			return nil, err
		}
		if err := sub.Start(ch); err != nil {
			sub.Close()
			return nil, err
		}
		p.close = sub.Close
		return p, nil
	}

	src, err := probe.OpenLive(cfg.Capture, cand.Name, cfg.CaptureTimeout())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	slog.Info("capture started", "interface", cand.Name, "engine", cfg.Capture.Engine)

	ctx, cancel := context.WithCancel(ctx)
	sniffer := probe.NewSniffer(src, protocol.NewClassifier(cand.LocalAddrs(), nil), ch, m)
	go func() {
		if err := sniffer.Run(ctx); err != nil {
			slog.Error("capture loop ended", "error", err)
		}
	}()
	p.close = cancel
	return p, nil
}
