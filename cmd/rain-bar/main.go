package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TrafficRain/internal/app"
	"TrafficRain/internal/config"
	"TrafficRain/internal/iface"
	"TrafficRain/internal/lanes"
)

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, closer, err := app.Setup(flags, "rain-bar", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rain-bar: %v\n", err)
		os.Exit(1)
	}

	// Broken pipes surface as write errors instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, cfg)
	stop()
	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rain-bar: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	out := lanes.NewRecordWriter(os.Stdout)
	m := app.StartMetrics(ctx, cfg.Metrics)
	lister := iface.NetlinkLister{}

	p, err := app.StartPipeline(ctx, cfg, lister, iface.StrategyTraffic, m)
	switch {
	case errors.Is(err, iface.ErrNotFound), errors.Is(err, iface.ErrNoInterface):
		slog.Error("no interface to monitor", "error", err)
		if err := out.Write(lanes.Record{Text: lanes.NoInterfaceText}); err != nil && !lanes.IsClosedOutput(err) {
			return err
		}
		return nil
	case err != nil:
		slog.Error("capture unavailable, running degraded", "error", err)
		return lanes.RunDegraded(ctx, out, err.Error(), cfg.DegradedInterval())
	}
	defer p.Close()

	bar := lanes.NewBar(out, p.Events, lister, p.Interface.Name, lanes.Options{
		Interval:   time.Second / time.Duration(cfg.Bar.Framerate),
		SpeedEvery: cfg.Bar.SpeedEveryTicks,
		Class:      cfg.Bar.Class,
	})
	slog.Info("rain-bar started", "interface", p.Interface.Name, "framerate", cfg.Bar.Framerate)
	return bar.Run(ctx)
}
