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

	"TrafficRain/internal/app"
	"TrafficRain/internal/config"
	"TrafficRain/internal/iface"
	"TrafficRain/internal/metrics"
	"TrafficRain/internal/particles"

	"github.com/gdamore/tcell/v2"
)

const privilegeMessage = "NEEDS SUDO: packet capture needs root or CAP_NET_RAW (press q to quit)"

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	flag.Parse()

	// The terminal belongs to the canvas, so logs default to a file.
	cfg, closer, err := app.Setup(flags, "rain-gui", true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rain-gui: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rain-gui: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	m := app.StartMetrics(ctx, cfg.Metrics)

	p, err := app.StartPipeline(ctx, cfg, iface.NetlinkLister{}, iface.StrategyScore, m)
	if err != nil && !errors.Is(err, app.ErrCaptureUnavailable) {
		return err
	}
	if p != nil {
		defer p.Close()
	}

	screen, serr := tcell.NewScreen()
	if serr != nil {
		return fmt.Errorf("failed to create screen: %w", serr)
	}
	if serr := screen.Init(); serr != nil {
		return fmt.Errorf("failed to initialize screen: %w", serr)
	}
	defer screen.Fini()
	screen.HideCursor()

	return render(ctx, screen, cfg, p, err, m)
}

// render animates the pipeline's events on screen. When capture could not
// start, captureErr is set and a fixed message is shown instead.
func render(ctx context.Context, screen tcell.Screen, cfg *config.Config, p *app.Pipeline, captureErr error, m *metrics.Metrics) error {
	if captureErr != nil {
		slog.Error("capture unavailable, showing message", "error", captureErr)
		return particles.RunMessage(ctx, screen, privilegeMessage)
	}
	slog.Info("using interface", "interface", p.Interface.Name)

	sys := particles.NewSystem(cfg.Particles.MaxParticles, 1, 1, cfg.IdleFade())
	canvas := particles.NewCanvas(screen, sys, cfg.Particles.CellWidth, cfg.Particles.CellHeight, m)
	return canvas.Run(ctx, p.Events, cfg.Particles.Framerate)
}
