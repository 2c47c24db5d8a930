package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TrafficRain/internal/app"
	"TrafficRain/internal/config"
	"TrafficRain/internal/engine/protocol"
	"TrafficRain/internal/events"
	"TrafficRain/internal/iface"
	"TrafficRain/internal/model"
	"TrafficRain/internal/probe"
)

const summaryInterval = 5 * time.Second

func main() {
	// --- Command-Line Flag Parsing ---
	flags := app.RegisterFlags(flag.CommandLine)
	mode := flag.String("mode", "sub", "Operating mode: 'pub' to capture and publish, 'sub' to subscribe and log.")
	flag.Parse()

	cfg, closer, err := app.Setup(flags, "rain-probe", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rain-probe: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// --- Mode Dispatch ---
	switch *mode {
	case "pub":
		err = runProbe(ctx, cfg)
	case "sub":
		err = runSubscriber(ctx, cfg)
	default:
		err = fmt.Errorf("invalid mode: %s", *mode)
	}
	stop()
	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rain-probe: %v\n", err)
		os.Exit(1)
	}
}

// runProbe captures on the selected interface and publishes every event.
func runProbe(ctx context.Context, cfg *config.Config) error {
	m := app.StartMetrics(ctx, cfg.Metrics)

	strategy, err := iface.ParseStrategy(cfg.Selector, iface.StrategyScore)
	if err != nil {
		return err
	}
	cand, err := iface.Select(iface.NetlinkLister{}, cfg.Interface, strategy)
	if err != nil {
		return err
	}
	slog.Info("starting rain-probe in PROBE mode", "interface", cand.Name)

	pub, err := probe.NewPublisher(cfg.NATS)
	if err != nil {
		return err
	}
	defer pub.Close()

	src, err := probe.OpenLive(cfg.Capture, cand.Name, cfg.CaptureTimeout())
	if err != nil {
		return err
	}

	sniffer := probe.NewSniffer(src, protocol.NewClassifier(cand.LocalAddrs(), nil), pub, m)
	done := make(chan error, 1)
	go func() { done <- sniffer.Run(ctx) }()
	slog.Info("capture started, publishing events", "subject", cfg.NATS.Subject)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received, cleaning up", "publish_failures", pub.Failed())
		return nil
	}
}

// runSubscriber consumes published events and logs a per-protocol summary.
func runSubscriber(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting rain-probe in SUBSCRIBER mode")

	sub, err := probe.NewSubscriber(cfg.NATS)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch := events.NewChannel(cfg.Events.Capacity)
	if err := sub.Start(ch); err != nil {
		return err
	}

	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()
	var counts [model.NumProtocols]int
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, cleaning up")
			return nil
		case <-ticker.C:
			n := ch.Drain(func(ev model.PacketEvent) {
				counts[ev.Protocol]++
				slog.Debug("received event", "event", ev.String())
			})
			attrs := []any{"events", n, "dropped", ch.Dropped(), "invalid", sub.Invalid()}
			for p, c := range counts {
				if c > 0 {
					attrs = append(attrs, model.Protocol(p).String(), c)
				}
			}
			slog.Info("events received", attrs...)
			counts = [model.NumProtocols]int{}
		}
	}
}
