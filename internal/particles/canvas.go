package particles

import (
	"context"
	"time"

	"TrafficRain/internal/metrics"
	"TrafficRain/internal/model"

	"github.com/gdamore/tcell/v2"
)

// Source yields the events queued since the previous call without blocking.
type Source interface {
	Drain(fn func(model.PacketEvent)) int
}

const particleRune = '•'

// Canvas rasterizes a System onto a terminal screen. Each terminal cell
// covers cellW x cellH viewport pixels.
type Canvas struct {
	screen       tcell.Screen
	sys          *System
	cellW, cellH int
	metrics      *metrics.Metrics
}

// NewCanvas binds sys to screen and sizes the viewport from the screen. m
// may be nil.
func NewCanvas(screen tcell.Screen, sys *System, cellW, cellH int, m *metrics.Metrics) *Canvas {
	c := &Canvas{screen: screen, sys: sys, cellW: max(cellW, 1), cellH: max(cellH, 1), metrics: m}
	c.Resize()
	return c
}

// Resize matches the viewport to the current screen size.
func (c *Canvas) Resize() {
	cols, rows := c.screen.Size()
	c.sys.Resize(float32(cols*c.cellW), float32(rows*c.cellH))
}

func toColor(rgba RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(rgba[0]*255), int32(rgba[1]*255), int32(rgba[2]*255))
}

// Draw paints the background and every visible particle. The newest
// particle wins a shared cell.
func (c *Canvas) Draw(now time.Time) {
	bg := tcell.StyleDefault.Background(toColor(c.sys.Background(now)))
	// Fill marks every cell dirty, so a background change reaches the terminal.
	c.screen.Fill(' ', bg)

	cols, rows := c.screen.Size()
	for _, p := range c.sys.Particles() {
		if p.X < 0 || p.Y < 0 {
			continue
		}
		col, row := int(p.X)/c.cellW, int(p.Y)/c.cellH
		if col >= cols || row >= rows {
			continue
		}
		c.screen.SetContent(col, row, particleRune, nil, bg.Foreground(toColor(p.Color)))
	}
}

// Frame spawns queued events, advances the simulation by dt and draws.
func (c *Canvas) Frame(src Source, now time.Time, dt time.Duration) {
	src.Drain(func(ev model.PacketEvent) { c.sys.Spawn(ev, now) })
	c.sys.Step(dt)
	c.Draw(now)
	c.screen.Show()
	c.metrics.SetParticles(c.sys.Len())
}

// Run animates at fps until ctx is done or the user quits with Esc, q or
// Ctrl-C. The caller owns the screen's Init and Fini.
func (c *Canvas) Run(ctx context.Context, src Source, fps int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resized := make(chan struct{}, 1)
	go pollEvents(ctx, c.screen, cancel, resized)

	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-resized:
			c.Resize()
			c.screen.Sync()
		case now := <-ticker.C:
			c.Frame(src, now, now.Sub(last))
			last = now
		}
	}
}

func pollEvents(ctx context.Context, screen tcell.Screen, quit context.CancelFunc, resized chan<- struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			select {
			case resized <- struct{}{}:
			default:
			}
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				quit()
				return
			}
		}
	}
}
